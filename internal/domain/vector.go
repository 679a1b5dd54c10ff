package domain

import "math"

// Vector is an embedding. A dense vector carries every component in Values.
// A sparse vector carries the non-zero weights in Values at the ascending
// vocabulary positions in Indices, over a space of size Dim.
type Vector struct {
	Dim     int
	Indices []int
	Values  []float64
}

// DenseVector wraps model output.
func DenseVector(values []float32) Vector {
	v := make([]float64, len(values))
	for i, x := range values {
		v[i] = float64(x)
	}
	return Vector{Dim: len(v), Values: v}
}

// DenseVector64 wraps already widened components, e.g. from a snapshot.
func DenseVector64(values []float64) Vector {
	v := make([]float64, len(values))
	copy(v, values)
	return Vector{Dim: len(v), Values: v}
}

// SparseVector builds a sparse vector. indices must be ascending.
func SparseVector(dim int, indices []int, values []float64) Vector {
	if indices == nil {
		indices = []int{}
	}
	return Vector{Dim: dim, Indices: indices, Values: values}
}

func (v Vector) IsSparse() bool { return v.Indices != nil }

// Dense expands the vector into a plain component slice.
func (v Vector) Dense() []float64 {
	if !v.IsSparse() {
		out := make([]float64, len(v.Values))
		copy(out, v.Values)
		return out
	}
	out := make([]float64, v.Dim)
	for i, idx := range v.Indices {
		out[idx] = v.Values[i]
	}
	return out
}

func (v Vector) norm() float64 {
	var s float64
	for _, x := range v.Values {
		s += x * x
	}
	return math.Sqrt(s)
}

// Cosine returns the cosine similarity of v and o. Vectors of different
// dimension, or with zero norm, score 0.
func (v Vector) Cosine(o Vector) float64 {
	if v.Dim != o.Dim {
		return 0
	}
	na, nb := v.norm(), o.norm()
	if na == 0 || nb == 0 {
		return 0
	}

	var dot float64
	switch {
	case v.IsSparse() && o.IsSparse():
		i, j := 0, 0
		for i < len(v.Indices) && j < len(o.Indices) {
			switch {
			case v.Indices[i] == o.Indices[j]:
				dot += v.Values[i] * o.Values[j]
				i++
				j++
			case v.Indices[i] < o.Indices[j]:
				i++
			default:
				j++
			}
		}
	case v.IsSparse():
		for i, idx := range v.Indices {
			dot += v.Values[i] * o.Values[idx]
		}
	case o.IsSparse():
		return o.Cosine(v)
	default:
		for i := range v.Values {
			dot += v.Values[i] * o.Values[i]
		}
	}

	return dot / (na * nb)
}
