// Package dump reads YAML dumps of definition tables and lowered bodies.
//
// Dumps let the coverage queries run outside of a Go build, against graphs
// produced by other tools or written by hand. Loaders check every reference
// inside a dump, so the queries never see a dangling ID.
package dump
