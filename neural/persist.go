package neural

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"
)

// netFile is the on-disk JSON shape of a network. Weights are stored
// row-major per layer so the file stays human-readable and diffable.
type netFile struct {
	Topology []int       `json:"topology"`
	Layers   []layerFile `json:"layers"`
}

type layerFile struct {
	Weights [][]float64 `json:"weights"` // outputs x inputs
	Biases  []float64   `json:"biases"`
}

// Save writes the network as indented JSON.
func (n *Net) Save(w io.Writer) error {
	nf := netFile{
		Topology: n.Topology(),
		Layers:   make([]layerFile, len(n.layers)),
	}
	for i, l := range n.layers {
		rows, cols := l.w.Dims()
		lf := layerFile{
			Weights: make([][]float64, rows),
			Biases:  make([]float64, rows),
		}
		for r := 0; r < rows; r++ {
			lf.Weights[r] = make([]float64, cols)
			for c := 0; c < cols; c++ {
				lf.Weights[r][c] = l.w.At(r, c)
			}
			lf.Biases[r] = l.b.AtVec(r)
		}
		nf.Layers[i] = lf
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(nf); err != nil {
		return fmt.Errorf("encoding network: %w", err)
	}
	return nil
}

// Load reads a network saved by Save. The shape chain is validated; a
// malformed file fails the load rather than producing a partial net.
func Load(r io.Reader) (*Net, error) {
	var nf netFile
	if err := json.NewDecoder(r).Decode(&nf); err != nil {
		return nil, fmt.Errorf("decoding network: %w", err)
	}

	if len(nf.Topology) < 2 {
		return nil, fmt.Errorf("network file: topology %v has fewer than 2 layers", nf.Topology)
	}
	if len(nf.Layers) != len(nf.Topology)-1 {
		return nil, fmt.Errorf("network file: %d layers do not match topology %v",
			len(nf.Layers), nf.Topology)
	}

	layers := make([]layer, len(nf.Layers))
	for i, lf := range nf.Layers {
		in, out := nf.Topology[i], nf.Topology[i+1]
		if len(lf.Weights) != out || len(lf.Biases) != out {
			return nil, fmt.Errorf("network file: layer %d has %d rows and %d biases, want %d",
				i, len(lf.Weights), len(lf.Biases), out)
		}
		w := mat.NewDense(out, in, nil)
		for r, row := range lf.Weights {
			if len(row) != in {
				return nil, fmt.Errorf("network file: layer %d row %d has %d weights, want %d",
					i, r, len(row), in)
			}
			for c, v := range row {
				w.Set(r, c, v)
			}
		}
		b := mat.NewVecDense(out, append([]float64(nil), lf.Biases...))
		layers[i] = layer{w: w, b: b}
	}

	return &Net{topology: append([]int(nil), nf.Topology...), layers: layers}, nil
}

// SaveFile writes the network to path, creating parent directories.
func (n *Net) SaveFile(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating network directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating network file: %w", err)
	}
	defer f.Close()
	return n.Save(f)
}

// LoadFile reads a network from path.
func LoadFile(path string) (*Net, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening network file: %w", err)
	}
	defer f.Close()
	return Load(f)
}
