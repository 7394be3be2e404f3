// Package query implements sift's lazy query algebra: the verb-accumulation
// model that builds pipeline descriptions without executing anything.
//
// ARCHITECTURE:
//
// A Source describes "a base data source plus zero or more pending
// operations". Every verb (Filter, Select, Mutate, Summarise, Arrange,
// GroupBy) is a pure function producing a successor Source; the input Source
// is never mutated. Execution is owned by backends:
//
//	[verbs] → [Source] → [rendermem backend]
//	                   → [rendersql backend]
//
// The Source sits between user code and the backends the way an IR sits
// between a compiler front end and its code generators: backends only ever
// see a fully resolved, well-formed pipeline.
//
// WELL-FORMEDNESS:
//
// Two rules are enforced eagerly, at verb-call time, so a malformed pipeline
// can never reach a backend:
//
//   - The transformation stage is a tagged variant: a pipeline is either a
//     row-wise (mutate) pipeline or an aggregation (summarise) pipeline,
//     never both. Crossing the two fails with INCOMPATIBLE_OPERATION.
//   - Column selection resolves to literal names immediately, against the
//     column list known at call time. Bad indices fail with SELECTION_INDEX.
//
// Verbs are cumulative: each call appends to the relevant operation list and
// never replaces earlier entries. Two Select calls therefore concatenate
// their column lists rather than narrowing - see the Select documentation.
//
// SEALED STAGE:
//
// Stage is a sealed interface using the marker method pattern. Only
// MutateStage and SummariseStage implement it, which makes "mutate and
// summarise at the same time" unrepresentable rather than merely checked.
package query
