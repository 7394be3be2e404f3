// Package rendermem is the row-wise in-memory backend. It materializes a
// query.Source whose base carries its rows in memory, applying the pipeline
// stages in a fixed order: filter, mutate, group/summarise, arrange, select.
//
// The backend owns all evaluation against actual data; the algebra hands it
// a fully resolved, well-formed descriptor and is never consulted again.
// Rendering never modifies the descriptor, so the same Source can be
// rendered repeatedly.
package rendermem
