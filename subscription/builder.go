package subscription

// AllOf folds And across one or more expressions, left to right. The
// signature requires at least one expression, since an empty conjunction
// has no sensible topic-set semantics in this DSL.
func AllOf(first Expr, rest ...Expr) Expr {
	acc := first
	for _, e := range rest {
		acc = And(acc, e)
	}
	return acc
}

// AnyOf folds Or across one or more expressions, left to right.
func AnyOf(first Expr, rest ...Expr) Expr {
	acc := first
	for _, e := range rest {
		acc = Or(acc, e)
	}
	return acc
}
