// Package resolve implements expression resolution: deciding, for each node
// of a captured expression, whether it can be evaluated immediately in the
// calling context or must stay symbolic for the backend.
//
// Resolution rewrites Ident nodes. A name that matches a column of the
// source stays symbolic as a Col reference; a name bound in the calling
// environment folds to its literal value; anything else is a ResolutionError.
// Pure subtrees whose operands are all literal are constant-folded through
// the scalar evaluator. Aggregate calls are never folded - they only have
// meaning per group at render time.
package resolve
