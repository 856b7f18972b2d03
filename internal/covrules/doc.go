// Package covrules defines the canonical skip reason codes reported by covgate.
//
// Every function-like definition either receives coverage instrumentation or is
// skipped for exactly one reason: the first gate rule it fails. The CVG-series
// gives each rule a stable numeric and textual identity, so skips can be traced,
// filtered and reported consistently by the gate, the analyzer and the CLI.
//
// # Structure
//
// Codes follow the format "CVG<NNN>: <Name>" and are listed in gate order:
//
//	CVG000  NotFnLike             constants, types and other definitions without a body
//	CVG010  AutomaticallyDerived  methods of generated implementation blocks
//	CVG020  Naked                 functions implemented in assembly
//	CVG030  CoverageOff           //coverage:off on the function or an enclosing definition
//
// Example:
//
//	covrules.CVG020Naked.String()      → "CVG020: Naked"
//	covrules.CVG020Naked.Description() → "Functions with hand-written machine code bodies cannot be instrumented."
//
// # Notes
//
//   - Codes are stable; never renumber existing ones.
//   - Unknown codes render as "reason-unknown(N)".
package covrules
