// Package coverage decides which definitions get coverage instrumentation and
// how many counters an instrumented body owns.
//
// Three computations are registered into [query.Providers] by [Provide]:
//
//   - is_eligible_for_coverage (hook): functions, methods and closures only, no
//     methods of generated implementation blocks, no assembly bodies, and the
//     coverage directive in effect must be on.
//   - coverage_attr_on (query): the nearest //coverage:on or //coverage:off
//     found walking from the definition up its lexical parents; on by default.
//   - coverage_ids_info (query): the highest counter ID incremented by the body's
//     own statements. Markers in inlined scopes belong to the callee and are skipped.
package coverage
