// Package mir describes lowered function bodies as the coverage machinery sees them.
//
// A [Body] is a control-flow graph of basic blocks. Every statement carries a
// [SourceInfo] whose scope points into the body's source scope tree. Scopes record
// inlining provenance: a statement whose scope (or an ancestor of it) is inlined
// was copied in from another function body.
//
// Coverage markers are statements with a [StatementCoverage] payload. They are
// produced by instrumentation upstream; this package only models them.
package mir
