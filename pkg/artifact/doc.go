// Package artifact resolves deterministic cache paths for every jar the
// pipeline produces and wraps each path in a [Handle].
//
// # Layout
//
// All artifacts live under a single cache root:
//
//	<root>/<name>-<version>-client.jar
//	<root>/<name>-<version>-server.jar
//	<root>/<name>-<version>-merged.jar
//	<root>/<name>-<version>-intermediary-<mapping>-<mappingVersion>.jar
//	<root>/<version>-mapped-<mapping>-<mappingVersion>/<name>-<version>-mapped-<mapping>-<mappingVersion>.jar
//
// Path resolution is pure: no I/O happens until a Handle is asked whether
// its file exists. The existence of the file at a resolved path is the whole
// staleness signal; there is no manifest or index of cache state.
//
// Raw and merged jars depend only on the version. Remapped jars also depend
// on the [MappingIdentity], so switching mapping sets re-triggers the remap
// stage without invalidating the merged jar.
//
// # Writes
//
// [WriteFile] writes through a temp file and rename so a crash mid-write
// leaves either the previous file or nothing, never a truncated jar.
package artifact
