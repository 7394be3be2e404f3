// Package expr defines the expression representation shared by the query
// algebra and its backends.
//
// An expression is an explicit tree of sealed node types (Lit, Ident, Col,
// Unary, Binary, Call, Range). Caller expressions are captured as trees with
// Ident leaves; the resolver (package resolve) rewrites identifiers to Col
// references or literal values, and backends interpret the resolved tree at
// render time. Nothing in this package evaluates anything against a data
// source.
//
// The package also carries the scalar Value model (Null, String, Int, Float,
// Bool), a deparser for diagnostics, and a small text parser used by the CLI
// loader and the scenario harness.
package expr
