// Command validatemodel checks a trained model file against freshly generated
// holdout scenarios and compares it with the heuristic scorer. It exits
// non-zero when the model ranks scenarios worse than the threshold.
//
// Usage:
//
//	go run ./cmd/validatemodel -model models/scorer.json -min-agreement 0.8
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"text/tabwriter"

	"github.com/couchcryptid/stellaview/internal/scoring"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	path := flag.String("model", "", "path to the trained model")
	n := flag.Int("samples", 2000, "number of holdout scenarios")
	seed := flag.Uint64("seed", 4242, "seed for holdout generation")
	minAgreement := flag.Float64("min-agreement", 0.8, "minimum pairwise rank agreement")
	flag.Parse()

	if *path == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -model")
	}

	m, err := scoring.LoadModel(*path)
	if err != nil {
		return err
	}
	learned, err := scoring.NewLearned(m)
	if err != nil {
		return err
	}

	samples := scoring.GenerateScenarios(rand.New(rand.NewPCG(*seed, *seed+1)), *n)
	results := []struct {
		name string
		ev   scoring.Evaluation
	}{
		{"model (raw)", scoring.Evaluate(m, samples)},
		{learned.Name(), scoring.EvaluateScorer(learned, samples)},
		{scoring.NewHeuristic().Name(), scoring.EvaluateScorer(scoring.NewHeuristic(), samples)},
	}

	fmt.Printf("model trained %s, %d epochs, final loss %.5f\n", m.TrainedAt.Format("2006-01-02"), m.Epochs, m.FinalLoss)
	fmt.Printf("features: %v\n\n", m.Features)

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SCORER\tMSE\tMAE\tAGREEMENT")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%.5f\t%.4f\t%.3f\n", r.name, r.ev.MSE, r.ev.MAE, r.ev.Agreement)
	}
	tw.Flush()

	if got := results[0].ev.Agreement; got < *minAgreement {
		return fmt.Errorf("rank agreement %.3f below threshold %.3f", got, *minAgreement)
	}
	return nil
}
