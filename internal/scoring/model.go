package scoring

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"time"

	"github.com/couchcryptid/stellaview/internal/features"
)

// ErrFeatureMismatch is returned when a model was trained on a different
// feature layout than the running code produces.
var ErrFeatureMismatch = errors.New("model features do not match")

// DefaultExponent rescales the network output so that mid-range sites are
// spread out rather than bunched near the sigmoid's center.
const DefaultExponent = 0.4

// Activation names a layer nonlinearity.
type Activation string

const (
	ReLU    Activation = "relu"
	Sigmoid Activation = "sigmoid"
)

// Dense is a fully connected layer. Weights is indexed [out][in].
type Dense struct {
	Weights    [][]float64 `json:"weights"`
	Biases     []float64   `json:"biases"`
	Activation Activation  `json:"activation"`
}

func (d *Dense) inputs() int  { return len(d.Weights[0]) }
func (d *Dense) outputs() int { return len(d.Weights) }

// Model is a feed-forward network with its provenance.
type Model struct {
	Features  []string  `json:"features"`
	Layers    []Dense   `json:"layers"`
	Exponent  float64   `json:"exponent"`
	TrainedAt time.Time `json:"trained_at"`
	Epochs    int       `json:"epochs"`
	FinalLoss float64   `json:"final_loss"`
}

// Architecture is the layer widths of a new model: inputs, hidden, output.
var Architecture = []int{features.Size, 12, 8, 1}

// NewModel returns an untrained network with He-initialized weights.
func NewModel(rng *rand.Rand) *Model {
	m := &Model{Features: append([]string(nil), features.Names[:]...), Exponent: DefaultExponent}
	for l := 1; l < len(Architecture); l++ {
		in, out := Architecture[l-1], Architecture[l]
		act := ReLU
		if l == len(Architecture)-1 {
			act = Sigmoid
		}
		std := math.Sqrt(2 / float64(in))
		d := Dense{Weights: make([][]float64, out), Biases: make([]float64, out), Activation: act}
		for o := range d.Weights {
			d.Weights[o] = make([]float64, in)
			for i := range d.Weights[o] {
				d.Weights[o][i] = rng.NormFloat64() * std
			}
		}
		m.Layers = append(m.Layers, d)
	}
	return m
}

// Validate checks the feature layout and layer shapes.
func (m *Model) Validate() error {
	if len(m.Features) != features.Size {
		return fmt.Errorf("%w: model has %d inputs, want %d", ErrFeatureMismatch, len(m.Features), features.Size)
	}
	for i, name := range m.Features {
		if name != features.Names[i] {
			return fmt.Errorf("%w: input %d is %q, want %q", ErrFeatureMismatch, i, name, features.Names[i])
		}
	}
	if len(m.Layers) == 0 {
		return errors.New("model has no layers")
	}
	width := features.Size
	for i := range m.Layers {
		d := &m.Layers[i]
		if len(d.Weights) == 0 || len(d.Biases) != len(d.Weights) {
			return fmt.Errorf("layer %d: malformed weights", i)
		}
		for _, row := range d.Weights {
			if len(row) != width {
				return fmt.Errorf("%w: layer %d expects %d inputs, got %d", ErrFeatureMismatch, i, len(row), width)
			}
		}
		if d.Activation != ReLU && d.Activation != Sigmoid {
			return fmt.Errorf("layer %d: unknown activation %q", i, d.Activation)
		}
		width = d.outputs()
	}
	if width != 1 {
		return fmt.Errorf("model has %d outputs, want 1", width)
	}
	return nil
}

// Predict runs the network and returns the raw output in (0,1).
func (m *Model) Predict(x []float64) float64 {
	acts := m.forward(x)
	return acts[len(acts)-1][0]
}

// forward returns the activations of every layer, input first.
func (m *Model) forward(x []float64) [][]float64 {
	acts := make([][]float64, 0, len(m.Layers)+1)
	acts = append(acts, x)
	for i := range m.Layers {
		d := &m.Layers[i]
		out := make([]float64, d.outputs())
		for o, row := range d.Weights {
			z := d.Biases[o]
			for j, w := range row {
				z += w * x[j]
			}
			out[o] = activate(d.Activation, z)
		}
		acts = append(acts, out)
		x = out
	}
	return acts
}

func activate(a Activation, z float64) float64 {
	if a == Sigmoid {
		return 1 / (1 + math.Exp(-z))
	}
	return math.Max(0, z)
}

// derivative returns dA/dZ given the activation output y.
func derivative(a Activation, y float64) float64 {
	if a == Sigmoid {
		return y * (1 - y)
	}
	if y > 0 {
		return 1
	}
	return 0
}

// SaveModel writes the model as indented JSON.
func SaveModel(path string, m *Model) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write model: %w", err)
	}
	return nil
}

// LoadModel reads and validates a model file.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if m.Exponent <= 0 {
		m.Exponent = DefaultExponent
	}
	return &m, nil
}

// Learned scores with a trained model.
type Learned struct {
	model *Model
}

// NewLearned wraps a validated model.
func NewLearned(m *Model) (*Learned, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &Learned{model: m}, nil
}

func (l *Learned) Name() string { return "learned" }

// Score reports 100·y^Exponent for network output y.
func (l *Learned) Score(v features.Vector) float64 {
	y := l.model.Predict(v[:])
	exp := l.model.Exponent
	if exp <= 0 {
		exp = DefaultExponent
	}
	return clampScore(100 * math.Pow(y, exp))
}
