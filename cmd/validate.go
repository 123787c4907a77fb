package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/inference-sim/spnsim/sim"
	"github.com/inference-sim/spnsim/sim/analysis"
	"github.com/inference-sim/spnsim/sim/model"
)

var validateModelPath string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a model file and print its structure",
	Long:  "Validate a model file, then print its places, events, dependency index, incidence matrix and place invariants without running it.",
	Run: func(cmd *cobra.Command, args []string) {
		if validateModelPath == "" {
			logrus.Fatalf("Model file not provided. Use --model.")
		}
		if err := describeModel(validateModelPath, os.Stdout); err != nil {
			logrus.Fatalf("Invalid model: %v", err)
		}
	},
}

// describeModel builds the model at path and writes a structural summary.
func describeModel(path string, w io.Writer) error {
	m, err := model.LoadModel(path)
	if err != nil {
		return err
	}
	b, err := m.Build()
	if err != nil {
		return fmt.Errorf("model %s: %w", path, err)
	}

	fmt.Fprintf(w, "Model %q: %d places, %d events\n", b.Name, len(b.Names), len(b.Events))
	fmt.Fprintln(w, "=== Places ===")
	for i, name := range b.Names {
		fmt.Fprintf(w, "  [%d] %-16s initial %d\n", i, name, b.Initial[sim.Place(i)])
	}

	fmt.Fprintln(w, "=== Events ===")
	for i, ev := range b.Events {
		fmt.Fprintf(w, "  [%d] %-16s reads %s, fires %v\n", i, eventLabel(ev, i), placeNames(b, ev.EnablementInputs(), ev.RateInputs()), ev.Fire())
	}

	fmt.Fprintln(w, "=== Dependencies ===")
	deps := sim.BuildDependencyIndex(b.Events)
	for i, name := range b.Names {
		if d := deps.Dependents(sim.Place(i)); len(d) > 0 {
			fmt.Fprintf(w, "  %-16s -> %v\n", name, d)
		}
	}

	c := analysis.Incidence(b.Events, b.PlaceList())
	if c == nil {
		return nil
	}
	fmt.Fprintln(w, "=== Incidence (events x places) ===")
	fmt.Fprintf(w, "%v\n", mat.Formatted(c, mat.Prefix(""), mat.Squeeze()))

	ones := make([]float64, len(b.Names))
	for i := range ones {
		ones[i] = 1
	}
	fmt.Fprintf(w, "Total tokens conserved: %v\n", analysis.IsPInvariant(c, ones))

	var untouched []string
	for _, j := range analysis.ConservedPlaces(c) {
		untouched = append(untouched, b.Names[j])
	}
	if len(untouched) > 0 {
		fmt.Fprintf(w, "Places no event changes: %s\n", strings.Join(untouched, ","))
	}

	basis, err := analysis.PInvariantBasis(c)
	if err != nil {
		return err
	}
	if basis == nil {
		fmt.Fprintln(w, "P-invariants: none")
		return nil
	}
	_, k := basis.Dims()
	fmt.Fprintf(w, "P-invariants: %d (columns, places as rows)\n", k)
	fmt.Fprintf(w, "%v\n", mat.Formatted(basis, mat.Prefix(""), mat.Squeeze()))
	return nil
}

func eventLabel(ev sim.Event, idx int) string {
	if n, ok := ev.(sim.Named); ok && n.Name() != "" {
		return n.Name()
	}
	return fmt.Sprintf("event[%d]", idx)
}

func placeNames(b *model.Built, lists ...[]sim.Place) string {
	seen := make(map[sim.Place]bool)
	var names []string
	for _, ps := range lists {
		for _, p := range ps {
			if seen[p] || int(p) >= len(b.Names) {
				continue
			}
			seen[p] = true
			names = append(names, b.Names[p])
		}
	}
	if len(names) == 0 {
		return "nothing"
	}
	return strings.Join(names, ",")
}

func init() {
	validateCmd.Flags().StringVar(&validateModelPath, "model", "", "Model file (YAML)")
}
