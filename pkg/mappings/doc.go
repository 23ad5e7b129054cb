// Package mappings loads symbol mapping tables and exposes them to the remap
// stage through the [Provider] interface.
//
// A table lists, for every class, its name in each namespace (for example
// "official", "intermediary", "named"). [Table.ClassMap] projects the table
// onto a (from, to) pair of namespaces.
//
// [FileProvider] reads the class section of tiny v2 files:
//
//	tiny	2	0	official	intermediary	named
//	c	a	net/minecraft/class_1	com/example/Foo
//		m	()V	a	method_1	run
//
// Member lines (indented) are skipped; only class renames are loaded.
// A loaded table is cached until [Provider.Invalidate] is called, and
// concurrent loads of the same file are coalesced.
package mappings
