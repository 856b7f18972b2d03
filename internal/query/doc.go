// Package query binds coverage computations to the data they read.
//
// Computations are registered by name into [Providers] once, at startup, and
// invoked through a [Ctx] built per compilation unit. The context memoizes
// query results; hooks run every time they are called.
//
// Collaborators are plain interfaces: [DefGraph] for definitions, [BodySource]
// for lowered bodies and [diag.Sink] for diagnostics.
package query
