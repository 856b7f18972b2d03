// Package diag is the diagnostics sink of the coverage queries.
//
// It records gate skips for tracing and internal consistency failures. An
// internal failure is reported through [Sink.Bug] and then raised as an [*ICE]
// panic; [CatchICE] turns it back into an error where a compilation unit ends.
package diag
