// Command snnrandnet generates a random layered NetworkData JSON document:
// uniform positive excitatory weights between layers, uniform negative
// lateral weights within a layer, and zero self-weight, mirroring the
// layer-by-layer generation loop of the original network-data generator.
package main

import (
	"flag"
	"log"
	"os"
	"strconv"
	"strings"

	"golang.org/x/exp/rand"

	"github.com/SynapticNetworks/snn-faultsim/network"
)

func main() {
	nrInputs := flag.Int("nr-inputs", 6, "number of input lines")
	layerSizesFlag := flag.String("layer-sizes", "5,8,3", "comma-separated neuron count per layer, last entry is nr_outputs")
	timeStepDurationUS := flag.Float64("time-step-duration-us", 100, "time step duration in microseconds")
	model := flag.String("model", "LeakyIntegrateAndFire", "LeakyIntegrateAndFire or IntegrateAndFire")
	minWeight := flag.Float64("min-weight", 1.0, "minimum excitatory/feed-forward weight")
	maxWeight := flag.Float64("max-weight", 5.0, "maximum excitatory/feed-forward weight")
	minLateral := flag.Float64("min-lateral-weight", -3.0, "minimum lateral weight")
	maxLateral := flag.Float64("max-lateral-weight", -1.0, "maximum lateral weight")
	seed := flag.Int64("seed", 1, "RNG seed")
	outputFile := flag.String("output-file", "sources/snn_data.json", "destination JSON file")
	flag.Parse()

	layerSizes := parseIntList(*layerSizesFlag)
	if len(layerSizes) == 0 {
		log.Fatalf("snnrandnet: --layer-sizes must name at least one layer")
	}

	r := rand.New(rand.NewSource(uint64(*seed)))

	nd := network.NetworkData{
		TimeStepDurationUS: *timeStepDurationUS,
		NrInputs:           *nrInputs,
		NrOutputs:          layerSizes[len(layerSizes)-1],
		Model:              *model,
		Layers:             make([]network.LayerData, len(layerSizes)),
	}

	fanIn := *nrInputs
	for li, size := range layerSizes {
		neurons := make([]network.NeuronData, size)
		for i := 0; i < size; i++ {
			weights := make([]float64, fanIn)
			for w := range weights {
				weights[w] = uniform(r, *minWeight, *maxWeight)
			}
			internal := make([]float64, size)
			for j := range internal {
				if i == j {
					internal[j] = 0
					continue
				}
				internal[j] = uniform(r, *minLateral, *maxLateral)
			}
			neurons[i] = network.NeuronData{
				Weights:         weights,
				InternalWeights: internal,
				VTh:             -55,
				VRest:           -70,
				VReset:          -70,
				Tau:             10,
			}
		}
		nd.Layers[li] = network.LayerData{Neurons: neurons}
		fanIn = size
	}

	net, err := nd.Decode()
	if err != nil {
		log.Fatalf("snnrandnet: generated network failed validation: %v", err)
	}
	raw, err := network.SaveNetwork(net)
	if err != nil {
		log.Fatalf("snnrandnet: encoding network: %v", err)
	}
	if err := os.WriteFile(*outputFile, raw, 0o644); err != nil {
		log.Fatalf("snnrandnet: writing %s: %v", *outputFile, err)
	}
	log.Printf("snnrandnet: wrote %d layer(s), nr_inputs=%d nr_outputs=%d to %s", len(layerSizes), *nrInputs, nd.NrOutputs, *outputFile)
}

func uniform(r *rand.Rand, lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}

func parseIntList(raw string) []int {
	var out []int
	for _, tok := range strings.Split(raw, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		n, err := strconv.Atoi(tok)
		if err != nil {
			log.Fatalf("snnrandnet: invalid layer size %q: %v", tok, err)
		}
		out = append(out, n)
	}
	return out
}
