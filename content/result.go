package content

// Result is the outcome of a read that never fails outright. Value is always
// usable (empty or nil when nothing could be read); Degraded explains why the
// value may be incomplete or missing.
type Result[T any] struct {
	Value    T
	Degraded error
}

// OK reports whether the read completed without degradation.
func (r Result[T]) OK() bool {
	return r.Degraded == nil
}
