package ids

// Vec is a typed-index container: a vector addressed by a distinguished
// integer id type rather than a plain int. It is the Go analogue of the
// original Rust engine's DistinctVec<IndexType, ValueType> — same contract,
// same "never trap, return absent" discipline for out-of-range access,
// including negative and very large indices.
type Vec[K Integral, V any] struct {
	items []V
}

// NewVec creates an empty Vec.
func NewVec[K Integral, V any]() *Vec[K, V] {
	return &Vec[K, V]{}
}

// Push appends a value, returning the id it was assigned.
func (v *Vec[K, V]) Push(value V) K {
	v.items = append(v.items, value)
	return K(len(v.items) - 1)
}

// Get returns the value at id and whether id was in range. It never panics:
// negative ids and ids past the end both report ok=false.
func (v *Vec[K, V]) Get(id K) (V, bool) {
	var zero V
	idx := int64(id)
	if idx < 0 || idx >= int64(len(v.items)) {
		return zero, false
	}
	return v.items[idx], true
}

// Set overwrites the value at id, reporting whether id was in range.
func (v *Vec[K, V]) Set(id K, value V) bool {
	idx := int64(id)
	if idx < 0 || idx >= int64(len(v.items)) {
		return false
	}
	v.items[idx] = value
	return true
}

// MustGet returns the value at id, or the zero value if out of range.
// Convenience wrapper for call sites that already know the id is valid.
func (v *Vec[K, V]) MustGet(id K) V {
	val, _ := v.Get(id)
	return val
}

// Len reports the number of stored items.
func (v *Vec[K, V]) Len() int { return len(v.items) }

// Last returns the final element and true, or the zero value and false if empty.
func (v *Vec[K, V]) Last() (V, bool) {
	if len(v.items) == 0 {
		var zero V
		return zero, false
	}
	return v.items[len(v.items)-1], true
}

// LastID returns the id of the final element, or false if empty.
func (v *Vec[K, V]) LastID() (K, bool) {
	if len(v.items) == 0 {
		return 0, false
	}
	return K(len(v.items) - 1), true
}

// All iterates in id order, yielding (id, value) pairs.
func (v *Vec[K, V]) All(fn func(id K, value V)) {
	for i, item := range v.items {
		fn(K(i), item)
	}
}

// Items returns the underlying slice directly; callers must not retain it
// across further mutation of the Vec.
func (v *Vec[K, V]) Items() []V { return v.items }
