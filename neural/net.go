// Package neural provides the fixed-topology feedforward networks that
// drive the snakes. Networks are bred and mutated, never trained.
package neural

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// initWeightRange bounds the uniform distribution used for fresh weights.
const initWeightRange = 1.0

// ErrShapeMismatch reports an input vector whose length disagrees with
// the network's input layer. It indicates a configuration bug.
type ErrShapeMismatch struct {
	Want, Got int
}

func (e *ErrShapeMismatch) Error() string {
	return fmt.Sprintf("neural: input length %d does not match network input size %d", e.Got, e.Want)
}

// layer is one weight matrix (outputs x inputs) and its bias vector.
type layer struct {
	w *mat.Dense
	b *mat.VecDense
}

// Net is a feedforward network with ReLU hidden layers and a linear
// output layer read by argmax. Forward passes never mutate the net, so
// a Net is safe for concurrent reads.
type Net struct {
	topology []int
	layers   []layer
}

// NewRandom creates a network for the given layer sizes with weights
// and biases drawn uniformly from [-1, 1).
func NewRandom(topology []int, rng *rand.Rand) *Net {
	mustValidTopology(topology)
	u := distuv.Uniform{Min: -initWeightRange, Max: initWeightRange, Src: rng}

	layers := make([]layer, len(topology)-1)
	for i := range layers {
		in, out := topology[i], topology[i+1]
		w := mat.NewDense(out, in, nil)
		for r := 0; r < out; r++ {
			for c := 0; c < in; c++ {
				w.Set(r, c, u.Rand())
			}
		}
		b := mat.NewVecDense(out, nil)
		for r := 0; r < out; r++ {
			b.SetVec(r, u.Rand())
		}
		layers[i] = layer{w: w, b: b}
	}

	return &Net{topology: append([]int(nil), topology...), layers: layers}
}

// Topology returns the layer sizes, input first.
func (n *Net) Topology() []int {
	return append([]int(nil), n.topology...)
}

// NumInputs returns the expected input vector length.
func (n *Net) NumInputs() int { return n.topology[0] }

// NumOutputs returns the output vector length.
func (n *Net) NumOutputs() int { return n.topology[len(n.topology)-1] }

// Forward runs the input through every layer and returns the raw output
// activations. Pure function of the weights and the input.
func (n *Net) Forward(vision []float64) ([]float64, error) {
	if len(vision) != n.topology[0] {
		return nil, &ErrShapeMismatch{Want: n.topology[0], Got: len(vision)}
	}

	in := mat.NewVecDense(len(vision), append([]float64(nil), vision...))
	for i, l := range n.layers {
		rows, _ := l.w.Dims()
		out := mat.NewVecDense(rows, nil)
		out.MulVec(l.w, in)
		out.AddVec(out, l.b)

		// ReLU on all but the output layer
		if i < len(n.layers)-1 {
			raw := out.RawVector().Data
			for j, v := range raw {
				if v < 0 {
					raw[j] = 0
				}
			}
		}
		in = out
	}

	return in.RawVector().Data, nil
}

// Decide runs a forward pass and returns the argmax output index, ties
// broken by the lowest index.
func (n *Net) Decide(vision []float64) (int, error) {
	out, err := n.Forward(vision)
	if err != nil {
		return 0, err
	}

	best := 0
	for i := 1; i < len(out); i++ {
		if out[i] > out[best] {
			best = i
		}
	}
	return best, nil
}

// Breed combines two parent networks of identical topology into a child
// by a per-weight uniform coin flip.
func Breed(a, b *Net, rng *rand.Rand) *Net {
	if len(a.layers) != len(b.layers) {
		panic(fmt.Sprintf("neural: breeding incompatible nets %v and %v", a.topology, b.topology))
	}

	layers := make([]layer, len(a.layers))
	for i := range layers {
		rows, cols := a.layers[i].w.Dims()
		w := mat.NewDense(rows, cols, nil)
		bv := mat.NewVecDense(rows, nil)
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				if rng.IntN(2) == 0 {
					w.Set(r, c, a.layers[i].w.At(r, c))
				} else {
					w.Set(r, c, b.layers[i].w.At(r, c))
				}
			}
			if rng.IntN(2) == 0 {
				bv.SetVec(r, a.layers[i].b.AtVec(r))
			} else {
				bv.SetVec(r, b.layers[i].b.AtVec(r))
			}
		}
		layers[i] = layer{w: w, b: bv}
	}

	return &Net{topology: append([]int(nil), a.topology...), layers: layers}
}

// Mutate perturbs each weight and bias with probability rate by a delta
// drawn uniformly from [-magnitude, magnitude).
func (n *Net) Mutate(rng *rand.Rand, rate, magnitude float64) {
	for _, l := range n.layers {
		raw := l.w.RawMatrix()
		for i := range raw.Data {
			if rng.Float64() < rate {
				raw.Data[i] += (rng.Float64()*2 - 1) * magnitude
			}
		}
		braw := l.b.RawVector()
		for i := range braw.Data {
			if rng.Float64() < rate {
				braw.Data[i] += (rng.Float64()*2 - 1) * magnitude
			}
		}
	}
}

// Clone creates a deep copy of the network.
func (n *Net) Clone() *Net {
	layers := make([]layer, len(n.layers))
	for i, l := range n.layers {
		layers[i] = layer{
			w: mat.DenseCopyOf(l.w),
			b: mat.VecDenseCopyOf(l.b),
		}
	}
	return &Net{topology: append([]int(nil), n.topology...), layers: layers}
}

// Equal reports whether two networks have identical topology and
// bit-identical weights.
func (n *Net) Equal(other *Net) bool {
	if other == nil || len(n.layers) != len(other.layers) {
		return false
	}
	for i := range n.layers {
		if !mat.Equal(n.layers[i].w, other.layers[i].w) {
			return false
		}
		if !mat.Equal(n.layers[i].b, other.layers[i].b) {
			return false
		}
	}
	return true
}

func mustValidTopology(topology []int) {
	if len(topology) < 2 {
		panic(fmt.Sprintf("neural: topology needs at least input and output layers, got %v", topology))
	}
	for _, size := range topology {
		if size <= 0 {
			panic(fmt.Sprintf("neural: topology has empty layer: %v", topology))
		}
	}
}
