package scoring

import (
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// TrainConfig controls Train.
type TrainConfig struct {
	Epochs       int
	BatchSize    int
	LearningRate float64
	Seed         uint64
	// OnEpoch, when set, is called with each epoch's mean loss.
	OnEpoch func(epoch int, loss float64)
}

// DefaultTrainConfig matches the settings the shipped model was trained with.
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{Epochs: 50, BatchSize: 32, LearningRate: 0.01, Seed: 1}
}

const (
	adamBeta1   = 0.9
	adamBeta2   = 0.999
	adamEpsilon = 1e-8
)

// adamState holds first and second moment estimates shaped like a model.
type adamState struct {
	mw, vw [][][]float64
	mb, vb [][]float64
	step   int
}

func newAdamState(m *Model) *adamState {
	s := &adamState{}
	for _, d := range m.Layers {
		s.mw = append(s.mw, zerosLike(d.Weights))
		s.vw = append(s.vw, zerosLike(d.Weights))
		s.mb = append(s.mb, make([]float64, len(d.Biases)))
		s.vb = append(s.vb, make([]float64, len(d.Biases)))
	}
	return s
}

func zerosLike(w [][]float64) [][]float64 {
	out := make([][]float64, len(w))
	for i := range w {
		out[i] = make([]float64, len(w[i]))
	}
	return out
}

// Train fits a fresh model to the samples by mini-batch Adam on mean squared
// error. Training is deterministic for a given seed. It returns the model and
// the mean loss of every epoch.
func Train(samples []Sample, cfg TrainConfig) (*Model, []float64, error) {
	if len(samples) == 0 {
		return nil, nil, errors.New("no training samples")
	}
	if cfg.Epochs <= 0 || cfg.BatchSize <= 0 || cfg.LearningRate <= 0 {
		return nil, nil, errors.New("epochs, batch size and learning rate must be positive")
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x5eed))
	m := NewModel(rng)
	opt := newAdamState(m)

	order := make([]int, len(samples))
	for i := range order {
		order[i] = i
	}

	losses := make([]float64, 0, cfg.Epochs)
	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		var total float64
		for start := 0; start < len(order); start += cfg.BatchSize {
			end := min(start+cfg.BatchSize, len(order))
			total += m.step(samples, order[start:end], opt, cfg.LearningRate)
		}
		loss := total / float64(len(samples))
		losses = append(losses, loss)
		if cfg.OnEpoch != nil {
			cfg.OnEpoch(epoch, loss)
		}
	}

	m.Epochs = cfg.Epochs
	m.FinalLoss = losses[len(losses)-1]
	m.TrainedAt = time.Now().UTC()
	return m, losses, nil
}

// step runs one mini-batch update and returns the summed squared error.
func (m *Model) step(samples []Sample, batch []int, opt *adamState, lr float64) float64 {
	gw := make([][][]float64, len(m.Layers))
	gb := make([][]float64, len(m.Layers))
	for l, d := range m.Layers {
		gw[l] = zerosLike(d.Weights)
		gb[l] = make([]float64, len(d.Biases))
	}

	var sse float64
	for _, idx := range batch {
		s := samples[idx]
		acts := m.forward(s.Input[:])
		y := acts[len(acts)-1][0]
		diff := y - s.Label
		sse += diff * diff

		// delta holds dLoss/dZ for the current layer.
		delta := []float64{2 * diff * derivative(m.Layers[len(m.Layers)-1].Activation, y)}
		for l := len(m.Layers) - 1; l >= 0; l-- {
			d := &m.Layers[l]
			in := acts[l]
			for o := range d.Weights {
				gb[l][o] += delta[o]
				for j := range d.Weights[o] {
					gw[l][o][j] += delta[o] * in[j]
				}
			}
			if l == 0 {
				break
			}
			prev := make([]float64, d.inputs())
			act := m.Layers[l-1].Activation
			for j := range prev {
				var sum float64
				for o := range d.Weights {
					sum += d.Weights[o][j] * delta[o]
				}
				prev[j] = sum * derivative(act, in[j])
			}
			delta = prev
		}
	}

	n := float64(len(batch))
	opt.step++
	c1 := 1 - math.Pow(adamBeta1, float64(opt.step))
	c2 := 1 - math.Pow(adamBeta2, float64(opt.step))
	for l := range m.Layers {
		d := &m.Layers[l]
		for o := range d.Weights {
			for j := range d.Weights[o] {
				d.Weights[o][j] -= adamUpdate(&opt.mw[l][o][j], &opt.vw[l][o][j], gw[l][o][j]/n, lr, c1, c2)
			}
			d.Biases[o] -= adamUpdate(&opt.mb[l][o], &opt.vb[l][o], gb[l][o]/n, lr, c1, c2)
		}
	}
	return sse
}

func adamUpdate(m, v *float64, g, lr, c1, c2 float64) float64 {
	mt := adamBeta1*(*m) + (1-adamBeta1)*g
	vt := adamBeta2*(*v) + (1-adamBeta2)*g*g
	*m, *v = mt, vt
	return lr * (mt / c1) / (math.Sqrt(vt/c2) + adamEpsilon)
}

// Evaluation summarizes a model against labeled samples.
type Evaluation struct {
	MSE float64
	MAE float64
	// Agreement is the fraction of sample pairs ordered the same way by the
	// model and the labels.
	Agreement float64
}

// Evaluate scores the model's raw output against the labels.
func Evaluate(m *Model, samples []Sample) Evaluation {
	preds := make([]float64, len(samples))
	for i, s := range samples {
		preds[i] = m.Predict(s.Input[:])
	}
	return evaluate(preds, samples)
}

// EvaluateScorer compares any scorer's 0-100 output, rescaled to 0-1,
// against the labels.
func EvaluateScorer(sc Scorer, samples []Sample) Evaluation {
	preds := make([]float64, len(samples))
	for i, s := range samples {
		preds[i] = sc.Score(s.Input) / 100
	}
	return evaluate(preds, samples)
}

func evaluate(preds []float64, samples []Sample) Evaluation {
	if len(samples) == 0 {
		return Evaluation{}
	}
	var ev Evaluation
	for i, s := range samples {
		d := preds[i] - s.Label
		ev.MSE += d * d
		ev.MAE += math.Abs(d)
	}
	n := float64(len(samples))
	ev.MSE /= n
	ev.MAE /= n

	var agree, pairs float64
	for i := 0; i < len(samples); i++ {
		for j := i + 1; j < len(samples); j++ {
			dl := samples[i].Label - samples[j].Label
			if dl == 0 {
				continue
			}
			pairs++
			if (preds[i]-preds[j])*dl > 0 {
				agree++
			}
		}
	}
	if pairs > 0 {
		ev.Agreement = agree / pairs
	}
	return ev
}
