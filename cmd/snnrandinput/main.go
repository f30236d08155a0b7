// Command snnrandinput generates a random boolean input-matrix JSON
// document at a given firing probability, mirroring the original
// input-matrix generator.
package main

import (
	"flag"
	"log"
	"os"

	"golang.org/x/exp/rand"

	"github.com/SynapticNetworks/snn-faultsim/network"
)

func main() {
	rows := flag.Int("rows", 6, "number of input lines")
	cols := flag.Int("cols", 10, "number of time steps")
	probability := flag.Float64("probability", 0.85, "per-cell firing probability")
	seed := flag.Int64("seed", 1, "RNG seed")
	outputFile := flag.String("output-file", "sources/simulation_input.json", "destination JSON file")
	flag.Parse()

	if *probability < 0 || *probability > 1 {
		log.Fatalf("snnrandinput: --probability must be in [0,1], got %v", *probability)
	}

	r := rand.New(rand.NewSource(uint64(*seed)))
	matrix := make([][]bool, *rows)
	for i := range matrix {
		row := make([]bool, *cols)
		for j := range row {
			row[j] = r.Float64() < *probability
		}
		matrix[i] = row
	}

	raw, err := network.SaveInputMatrix(matrix)
	if err != nil {
		log.Fatalf("snnrandinput: encoding input matrix: %v", err)
	}
	if err := os.WriteFile(*outputFile, raw, 0o644); err != nil {
		log.Fatalf("snnrandinput: writing %s: %v", *outputFile, err)
	}
	log.Printf("snnrandinput: wrote %dx%d matrix (p=%v) to %s", *rows, *cols, *probability, *outputFile)
}
