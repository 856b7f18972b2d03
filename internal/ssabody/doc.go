// Package ssabody lowers SSA functions into bodies the coverage queries read.
//
// Basic blocks and their order are kept as SSA builds them. Each instruction
// becomes one statement: calls of configured marker functions with a constant ID
// become coverage markers, everything else is kept as opaque text.
//
// Go has no inliner at this level, but code generators paste foreign code into
// functions under //line directives naming the origin file. Such instructions are
// placed in an inlined source scope, one per origin file, so counters pasted in
// are not attributed to the function they landed in.
package ssabody
