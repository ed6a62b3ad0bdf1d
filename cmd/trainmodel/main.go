// Command trainmodel generates synthetic observing scenarios, trains the
// learned scorer on them, and writes the model as JSON.
//
// Usage:
//
//	go run ./cmd/trainmodel -out models/scorer.json -samples 20000 -epochs 50
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand/v2"

	"github.com/couchcryptid/stellaview/internal/scoring"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	def := scoring.DefaultTrainConfig()
	out := flag.String("out", "", "output path for the trained model")
	n := flag.Int("samples", 20000, "number of synthetic scenarios")
	epochs := flag.Int("epochs", def.Epochs, "training epochs")
	batch := flag.Int("batch", def.BatchSize, "mini-batch size")
	lr := flag.Float64("lr", def.LearningRate, "Adam learning rate")
	seed := flag.Uint64("seed", def.Seed, "seed for data generation and initialization")
	holdout := flag.Float64("holdout", 0.1, "fraction of scenarios held out for evaluation")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if *holdout < 0 || *holdout >= 1 {
		return fmt.Errorf("holdout must be in [0, 1), got %v", *holdout)
	}

	samples := scoring.GenerateScenarios(rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15)), *n)
	split := len(samples) - int(float64(len(samples))*(*holdout))
	train, test := samples[:split], samples[split:]
	log.Printf("generated %d scenarios (%d train, %d holdout)", len(samples), len(train), len(test))

	cfg := scoring.TrainConfig{
		Epochs:       *epochs,
		BatchSize:    *batch,
		LearningRate: *lr,
		Seed:         *seed,
		OnEpoch: func(epoch int, loss float64) {
			if epoch%10 == 0 || epoch == *epochs-1 {
				log.Printf("epoch %d: loss %.5f", epoch, loss)
			}
		},
	}
	m, _, err := scoring.Train(train, cfg)
	if err != nil {
		return fmt.Errorf("train: %w", err)
	}

	if len(test) > 0 {
		ev := scoring.Evaluate(m, test)
		log.Printf("holdout: mse %.5f, mae %.4f, rank agreement %.3f", ev.MSE, ev.MAE, ev.Agreement)
	}

	if err := scoring.SaveModel(*out, m); err != nil {
		return err
	}
	log.Printf("model written to %s", *out)
	return nil
}
