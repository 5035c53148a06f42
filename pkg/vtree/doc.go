// Package vtree records geometric operations as an immutable tree.
// Every transform and boolean constructor returns exactly one Node whose
// children are the operands it was given. Nothing is evaluated here; the
// realize package walks finished trees.
package vtree
