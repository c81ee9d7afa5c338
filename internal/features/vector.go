package features

// Vector is an ordered feature vector aligned with Names.
type Vector [Size]float64

// Get returns the value of a named feature, or 0 for an unknown name.
func (v Vector) Get(name string) float64 {
	i, ok := nameIndex[name]
	if !ok {
		return 0
	}
	return v[i]
}

// Slice returns the vector as a slice for serialization.
func (v Vector) Slice() []float64 {
	out := make([]float64, Size)
	copy(out, v[:])
	return out
}

// Select returns the named features in the order given. Unknown names read as 0.
func (v Vector) Select(names []string) []float64 {
	out := make([]float64, len(names))
	for i, name := range names {
		out[i] = v.Get(name)
	}
	return out
}

// Map returns the vector keyed by feature name.
func (v Vector) Map() map[string]float64 {
	out := make(map[string]float64, Size)
	for i, name := range canonicalNames {
		out[name] = v[i]
	}
	return out
}

// builder collects named values before they are laid out in canonical order.
type builder map[string]float64

func (b builder) set(name string, value float64) {
	b[name] = value
}

func (b builder) get(name string) float64 {
	return b[name]
}

// getDiv returns the named value, substituting 1 for zero so it can be used as a divisor.
func (b builder) getDiv(name string) float64 {
	if v := b[name]; v != 0 {
		return v
	}
	return 1
}

func (b builder) vector() Vector {
	var v Vector
	for i, name := range canonicalNames {
		v[i] = b[name]
	}
	return v
}
