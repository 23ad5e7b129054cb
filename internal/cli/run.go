package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/jarmill/pkg/config"
	"github.com/matzehuels/jarmill/pkg/errors"
	"github.com/matzehuels/jarmill/pkg/pipeline"
)

// runOptions holds the flags shared by the root and run commands. Only
// flags the user actually set override the loaded configuration.
type runOptions struct {
	offline     bool
	refresh     bool
	shareCaches bool
	rootProject bool

	name           string
	cacheDir       string
	manifestURL    string
	mappingsPath   string
	mappingName    string
	mappingVersion string
}

func (o *runOptions) register(f *pflag.FlagSet) {
	f.BoolVar(&o.offline, "offline", false, "never touch the network; use jars already on disk")
	f.BoolVar(&o.refresh, "refresh-dependencies", false, "recompute every stage even if its output exists")
	f.BoolVar(&o.shareCaches, "share-caches", false, "let non-root projects reuse raw jars without revalidation")
	f.BoolVar(&o.rootProject, "root-project", true, "run as the top-level project of a multi-project build")
	f.StringVar(&o.name, "name", "", "artifact base name used in jar file names")
	f.StringVar(&o.cacheDir, "cache-dir", "", "artifact cache directory")
	f.StringVar(&o.manifestURL, "manifest-url", "", "version manifest to download raw jars from")
	f.StringVar(&o.mappingsPath, "mappings", "", "tiny v2 mapping file")
	f.StringVar(&o.mappingName, "mapping-name", "", "mapping set name used in cache keys")
	f.StringVar(&o.mappingVersion, "mapping-version", "", "mapping set version used in cache keys")
}

// apply copies every changed flag onto cfg and revalidates it.
func (o *runOptions) apply(f *pflag.FlagSet, cfg *config.Config) error {
	if f.Changed("offline") {
		cfg.Offline = o.offline
	}
	if f.Changed("refresh-dependencies") {
		cfg.Refresh = o.refresh
	}
	if f.Changed("share-caches") {
		cfg.ShareCaches = o.shareCaches
	}
	if f.Changed("root-project") {
		cfg.RootProject = o.rootProject
	}

	strs := []struct {
		flag string
		val  string
		dst  *string
	}{
		{"name", o.name, &cfg.Name},
		{"cache-dir", o.cacheDir, &cfg.CacheDir},
		{"manifest-url", o.manifestURL, &cfg.Manifest.URL},
		{"mappings", o.mappingsPath, &cfg.Mappings.Path},
		{"mapping-name", o.mappingName, &cfg.Mappings.Name},
		{"mapping-version", o.mappingVersion, &cfg.Mappings.Version},
	}
	for _, s := range strs {
		if f.Changed(s.flag) {
			*s.dst = s.val
		}
	}
	return cfg.Validate()
}

// runCommand creates the run command.
func (c *CLI) runCommand() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run [version]",
		Short: "Acquire, merge and remap the jars for a game version",
		Long: `Run the full pipeline for a game version.

The client and server jars are downloaded (or found on disk when offline),
merged into one archive and remapped from official names to the named and
intermediary namespaces. Outputs that already exist are reused unless
--refresh-dependencies is given.`,
		Example: `  jarmill run 7.0
  jarmill run 7.0 --offline
  jarmill run --mappings ./mappings.tiny --mapping-version 3`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if err := opts.apply(cmd.Flags(), cfg); err != nil {
				return err
			}
			version, err := resolveVersion(cfg, args)
			if err != nil {
				return err
			}
			return c.run(cmd.Context(), cfg, version)
		},
	}

	opts.register(cmd.Flags())
	return cmd
}

// resolveVersion picks the positional version, falling back to the config.
func resolveVersion(cfg *config.Config, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if cfg.Version != "" {
		return cfg.Version, nil
	}
	return "", errors.New(errors.ErrCodeConfiguration, "no version given; pass one as an argument or set version in %s.toml", config.FileName)
}

func (c *CLI) run(ctx context.Context, cfg *config.Config, version string) error {
	runner, err := c.newRunner(ctx, cfg)
	if err != nil {
		return err
	}

	prog := newProgress(c.Logger)
	result, err := runner.Execute(ctx, version, pipeline.Config{
		Offline:     cfg.Offline,
		Refresh:     cfg.Refresh,
		ShareCaches: cfg.ShareCaches,
		RootProject: cfg.RootProject,
	})
	if err != nil {
		printRunHint(err, runner.Layout.Root)
		return err
	}
	prog.done("Pipeline complete")

	printRunResult(result)
	return nil
}

func printRunResult(r *pipeline.Result) {
	printSuccess("Prepared %s %s", StyleHighlight.Render(r.Coordinate()), StyleDim.Render("("+r.RunID[:8]+")"))
	printKeyValue("Version", r.ResolvedVersion())
	printKeyValue("Mappings", r.Mapping.String())

	acquire := "fetched"
	if r.CacheInfo.AcquireSkipped {
		acquire = "skipped"
	}
	printStage("acquire", acquire, r.Stats.AcquireTime, r.CacheInfo.AcquireSkipped)
	if r.CacheInfo.MergeSkipped {
		printStage("merge", "skipped", r.Stats.MergeTime, true)
	} else {
		printStage("merge", "", r.Stats.MergeTime, r.CacheInfo.MergeHit)
	}
	printStage("remap", "", r.Stats.RemapTime, r.CacheInfo.RemapHit)

	printFile(r.MergedPath())
	printFile(r.NamedPath())
	printFile(r.IntermediaryPath())
}

// printRunHint adds a next step for failures the user can fix directly.
func printRunHint(err error, root string) {
	switch {
	case errors.Is(err, errors.ErrCodeMissingInput):
		printDetail("Place the client and server jars in %s or run without --offline", root)
	case errors.Is(err, errors.ErrCodeCorruptArchive):
		printDetail("The broken jars were deleted; run the command again to download them")
	case errors.Is(err, errors.ErrCodeTransformFailed):
		printDetail("Check the mapping file; the cached mappings were discarded")
	}
}

// stageDuration rounds d for display.
func stageDuration(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}
