package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/jarmill/pkg/artifact"
	"github.com/matzehuels/jarmill/pkg/pipeline"
)

// pathsCommand creates the paths command, which shows where each artifact of
// a run lives without running anything.
func (c *CLI) pathsCommand() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "paths [version]",
		Short: "Show the artifact paths for a version and whether they exist",
		Args:  cobra.MaximumNArgs(1),
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

			layout, err := newLayout(cfg)
			if err != nil {
				return err
			}
			provider := newProvider(cfg)
			set, err := pipeline.NewRunner(layout, provider, nil, c.Logger).Resolve(version)
			if err != nil {
				return err
			}

			printInfo("Artifacts for %s %s", cfg.Name, StyleHighlight.Render(version))
			printKeyValue("mappings", provider.Path()+" "+presence(provider.Exists()))
			for _, h := range set.All() {
				printArtifact(h)
			}
			return nil
		},
	}

	opts.register(cmd.Flags())
	return cmd
}

func printArtifact(h artifact.Handle) {
	printKeyValue(string(h.Kind), h.Path+" "+presence(h.Exists()))
}

func presence(ok bool) string {
	if ok {
		return StyleSuccess.Render("present")
	}
	return StyleDim.Render("missing")
}
