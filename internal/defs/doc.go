// Package defs holds the definition graph of a single compilation unit.
//
// Definitions (packages, files, functions, methods, closures, constants, types and
// method sets) live in an arena addressed by [DefID]. Each definition knows its kind,
// its lexical parent, the implementation block owning it (for methods), the attributes
// attached directly to it and its codegen flags.
//
// The lexical parent relation is acyclic by construction: a definition can only name
// a parent that was added to the [Table] before it.
package defs
