// Command snnfaultsim loads a network topology and an input spike matrix,
// runs a Monte-Carlo fault-injection campaign against it, and writes the
// aggregated diffs/damage-detail result to a JSON file.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/iancoleman/strcase"

	"github.com/SynapticNetworks/snn-faultsim/campaign"
	"github.com/SynapticNetworks/snn-faultsim/network"
)

func main() {
	networkJSON := flag.String("network-json", "sources/snn_data.json", "JSON file describing the network structure")
	inputFile := flag.String("input-file", "sources/simulation_input.json", "JSON file containing the input spike matrix")
	outputFile := flag.String("output-file", "output/simulation_output.json", "JSON output file for the simulation result")
	damagedElementsList := flag.String("damaged-elements-list", "weights,thresholds,membrane_potentials,reset_potentials,potentials_at_rest", "comma-separated list of elements to damage")
	simulationIterations := flag.Int("simulation-iterations", 1000, "number of damaged trials to run")
	typeOfDamage := flag.String("type-of-damage", "stuck_at_0", "damage model: stuck_at_0, stuck_at_1, or transient_bit_flip")
	seed := flag.Int64("seed", 1, "master RNG seed, partitioned deterministically across trials")
	flag.Parse()

	checkFileExists(*networkJSON)
	checkFileExists(*inputFile)

	elements, err := parseElementsList(*damagedElementsList)
	if err != nil {
		log.Fatalf("snnfaultsim: %v", err)
	}

	model, err := campaign.ParseDamageModel(*typeOfDamage)
	if err != nil {
		log.Fatalf("snnfaultsim: %v", err)
	}

	net, err := network.LoadNetworkFile(*networkJSON)
	if err != nil {
		log.Fatalf("snnfaultsim: loading network: %v", err)
	}
	input, err := network.LoadInputMatrixFile(*inputFile)
	if err != nil {
		log.Fatalf("snnfaultsim: loading input: %v", err)
	}

	log.Printf("snnfaultsim: running %d trial(s) with damage model %s over %d faulty element kind(s)", *simulationIterations, model, len(elements))

	result, err := campaign.Simulate(net, elements, model, *simulationIterations, input, *seed)
	if err != nil {
		log.Fatalf("snnfaultsim: simulation failed: %v", err)
	}

	if err := os.MkdirAll(dirOf(*outputFile), 0o755); err != nil {
		log.Fatalf("snnfaultsim: creating output directory: %v", err)
	}
	if err := campaign.SaveResultFile(result, *outputFile); err != nil {
		log.Fatalf("snnfaultsim: writing result: %v", err)
	}

	printSummary(result)
}

// parseElementsList normalizes and validates the comma-separated
// --damaged-elements-list flag. Tokens are trimmed and snake-cased before
// lookup so that stray whitespace or casing (e.g. a copy-pasted
// "Membrane Potentials") still resolves.
func parseElementsList(raw string) ([]campaign.FaultyElement, error) {
	var elements []campaign.FaultyElement
	for _, tok := range strings.Split(raw, ",") {
		tok = strcase.ToSnake(strings.TrimSpace(tok))
		if tok == "" {
			continue
		}
		e, err := campaign.ParseFaultyElement(tok)
		if err != nil {
			return nil, err
		}
		elements = append(elements, e)
	}
	if len(elements) == 0 {
		return nil, fmt.Errorf("--damaged-elements-list must name at least one element")
	}
	return elements, nil
}

func checkFileExists(path string) {
	info, err := os.Stat(path)
	if err != nil {
		log.Fatalf("snnfaultsim: %s does not exist: %v", path, err)
	}
	if info.IsDir() {
		log.Fatalf("snnfaultsim: %s is not a valid file", path)
	}
}

func dirOf(path string) string {
	i := strings.LastIndexByte(path, '/')
	if i < 0 {
		return "."
	}
	return path[:i]
}

func printSummary(res *campaign.SimulationResult) {
	fmt.Printf("iterations=%d damage=%s\n", res.NumberOfIterations, res.TypeOfDamage)
	for i, row := range res.Diffs {
		for j, cell := range row {
			if cell.DiffCount > 0 {
				fmt.Printf("output[%d][%d] = %v (diff_count=%d)\n", i, j, cell.ActualValue, cell.DiffCount)
			}
		}
	}
}
