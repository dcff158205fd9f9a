package dice

// Between returns a uniform value in [r.Min, r.Max].
//
// Precondition: r must come from ParseRange; src must be non-nil.
// Postcondition: r.Min <= result <= r.Max.
func Between(r Range, src Source) int {
	return r.Min + src.Intn(r.Max-r.Min+1)
}

// Choose returns one element of values uniformly.
//
// Precondition: len(values) > 0; src must be non-nil.
func Choose(values []int, src Source) int {
	return values[src.Intn(len(values))]
}

// Index returns a uniform index into a collection of length n.
//
// Precondition: n > 0.
func Index(n int, src Source) int {
	return src.Intn(n)
}
