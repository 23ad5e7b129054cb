// Package pkg provides the libraries behind jarmill.
//
// # Overview
//
// jarmill turns a game release into jars a mod toolchain can compile against.
// One run moves through three stages, each skipped when its output is
// already on disk:
//
//	client.jar + server.jar    [acquire] download or locate the raw jars
//	         ↓
//	    merged.jar             [merge]   union of both archives
//	         ↓
//	named.jar + intermediary   [remap]   official names → mapped names
//
// # Main Packages
//
//   - [pipeline]: the Runner that sequences the stages and reports cache hits
//   - [acquire], [merge], [remap]: one package per stage
//   - [artifact]: cache layout, file handles and atomic writes
//   - [mappings]: tiny v2 mapping tables and the provider that caches them
//   - [fetch]: manifest-driven HTTP fetcher with checksum verification
//   - [cache]: manifest cache backends (file, redis, null)
//   - [config]: layered configuration (defaults, TOML file, environment)
//   - [errors]: coded errors shared by every package
//   - [observability]: hooks for tracing and metrics
//   - [httputil], [buildinfo]: shared helpers
//
// # Quick Start
//
//	layout := artifact.Layout{Root: "/home/me/.cache/jarmill", Name: "mindustry"}
//	provider := mappings.NewFileProvider("mappings.tiny", artifact.MappingIdentity{Name: "official", Version: "1"})
//	runner := pipeline.NewRunner(layout, provider, nil, logger)
//
//	result, err := runner.Execute(ctx, "7.0", pipeline.Config{Offline: true, RootProject: true})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(result.NamedPath())
package pkg
