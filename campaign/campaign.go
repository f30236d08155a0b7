/*
=================================================================================
CAMPAIGN - MONTE-CARLO FAULT-INJECTION DRIVER
=================================================================================

Simulate runs one golden (undamaged) simulation, then iterations independent
trials, each against its own clone of the network with exactly one
single-bit fault applied to one register, and aggregates per-output,
per-time-step divergences from golden with full damage provenance.

The driver is deliberately single-worker: trials run strictly in sequence so
that the sequence of random draws - and therefore the damage-detail
ordering recorded per cell - depends only on the seed, never on scheduling.
=================================================================================
*/
package campaign

import (
	"context"
	"fmt"

	"golang.org/x/exp/rand"

	"github.com/SynapticNetworks/snn-faultsim/network"
	"github.com/SynapticNetworks/snn-faultsim/neuron"
	"github.com/SynapticNetworks/snn-faultsim/register"
)

// DamageDetail records the provenance of one observed divergence: which
// trial produced it and where the fault was planted.
type DamageDetail struct {
	AtIteration int    `json:"at_iteration"`
	DamageType  string `json:"damage_type"`
	AtLayer     int    `json:"at_layer"`
	AtNeuron    int    `json:"at_neuron"`
	AtBit       int    `json:"at_bit"`
}

// SimulationResultCell is one (output_index, time_step) entry of the diff
// matrix.
type SimulationResultCell struct {
	OutputIndex   int            `json:"output_index"`
	TimeStep      int            `json:"time_step"`
	ActualValue   bool           `json:"actual_value"`
	DiffCount     int            `json:"diff_count"`
	DamageDetails []DamageDetail `json:"damage_details"`
}

// SimulationResult is the full output of one campaign.
type SimulationResult struct {
	NumberOfIterations   int                      `json:"number_of_iterations"`
	TypeOfDamage         string                   `json:"type_of_damage"`
	OutputWithoutDamages [][]bool                 `json:"output_without_damages"`
	Diffs                [][]SimulationResultCell `json:"diffs"`
}

// Simulate runs the fault campaign described by spec.md §4.5: one golden
// run plus `iterations` independently-damaged trials, each damaging one
// uniformly-chosen register of a uniformly-chosen neuron with a single-bit
// fault drawn from model, restricted to the element kinds named in
// elements. seed makes the whole run reproducible: two calls with the same
// arguments and seed produce byte-identical diffs and damage-detail
// sequences.
func Simulate(net *network.Network, elements []FaultyElement, model DamageModel, iterations int, input [][]bool, seed int64) (*SimulationResult, error) {
	if len(elements) == 0 {
		return nil, fmt.Errorf("%w: no faulty element kinds given", ErrConfig)
	}

	ctx := context.Background()
	golden, err := net.Run(ctx, input)
	if err != nil {
		return nil, err
	}

	T := 0
	if len(input) > 0 {
		T = len(input[0])
	}

	diffs := make([][]SimulationResultCell, net.NrOutputs)
	for i := range diffs {
		diffs[i] = make([]SimulationResultCell, T)
		for j := range diffs[i] {
			diffs[i][j] = SimulationResultCell{OutputIndex: i, TimeStep: j}
		}
	}

	layerSizes := make([]int, len(net.Layers))
	for i, l := range net.Layers {
		layerSizes[i] = len(l.Neurons)
	}

	seeds := NewSeeds(seed, iterations)

	for iter := 0; iter < iterations; iter++ {
		r := seeds.Rand(iter)
		trial := net.Clone()

		draw := drawTrial(r, elements, layerSizes, model, T)
		neu := trial.Layers[draw.layer].Neurons[draw.neuron]

		reg, err := targetRegister(r, neu, draw)
		if err != nil {
			return nil, err
		}
		reg.ApplyDamage(buildFault(model, draw))

		damagedOut, err := trial.Run(ctx, input)
		if err != nil {
			return nil, err
		}

		for i := 0; i < net.NrOutputs; i++ {
			for j := 0; j < T; j++ {
				if damagedOut[i][j] == golden[i][j] {
					continue
				}
				cell := &diffs[i][j]
				cell.DiffCount++
				cell.DamageDetails = append(cell.DamageDetails, DamageDetail{
					AtIteration: iter,
					DamageType:  model.String(),
					AtLayer:     draw.layer,
					AtNeuron:    draw.neuron,
					AtBit:       draw.bit,
				})
			}
		}
	}

	for i := range diffs {
		for j := range diffs[i] {
			cell := &diffs[i][j]
			cell.ActualValue = golden[i][j] != (cell.DiffCount > 0)
		}
	}

	return &SimulationResult{
		NumberOfIterations:   iterations,
		TypeOfDamage:         model.String(),
		OutputWithoutDamages: golden,
		Diffs:                diffs,
	}, nil
}

// buildFault constructs the fault descriptor spec.md §4.5 step 4c names,
// from the damage model and the coordinates drawn for this trial.
func buildFault(model DamageModel, draw trialDraw) register.Fault {
	switch model {
	case StuckAt0:
		return register.StuckAt0(draw.bit)
	case StuckAt1:
		return register.StuckAt1(draw.bit)
	case TransientBitFlip:
		return register.TransientBitFlip(draw.bit, uint64(draw.step))
	default:
		return register.Working()
	}
}

// targetRegister resolves draw.element to the concrete Register of neu it
// names, per spec.md §4.5 step 4d. For Weights, it draws one more uniform
// index to choose which entry of the chosen vector (excitatory or
// lateral) is damaged.
func targetRegister(r *rand.Rand, neu *neuron.Neuron, draw trialDraw) (*register.Register, error) {
	switch draw.element {
	case Weights:
		vec := neu.Weights
		if !draw.weights {
			vec = neu.InternalWeights
		}
		if len(vec) == 0 {
			return nil, fmt.Errorf("campaign: neuron at layer %d index %d has no weights to damage", draw.layer, draw.neuron)
		}
		return vec[r.Intn(len(vec))], nil
	case Thresholds:
		return neu.VTh, nil
	case MembranePotentials:
		return neu.VMem, nil
	case ResetPotentials:
		return neu.VReset, nil
	case PotentialsAtRest:
		return neu.VRest, nil
	case Comparator:
		return neu.CmpReg, nil
	case Adder:
		return neu.AddReg, nil
	case Multiplier:
		return neu.MulReg, nil
	case Divider:
		return neu.DivReg, nil
	default:
		return nil, fmt.Errorf("%w: unknown faulty element %v", ErrConfig, draw.element)
	}
}
