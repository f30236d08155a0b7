package campaign

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/andreyvit/diff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"github.com/SynapticNetworks/snn-faultsim/layer"
	"github.com/SynapticNetworks/snn-faultsim/network"
	"github.com/SynapticNetworks/snn-faultsim/neuron"
	"github.com/SynapticNetworks/snn-faultsim/register"
)

func oneNeuronNetwork(weight float64) *network.Network {
	w := []*register.Register{register.New(weight)}
	internal := []*register.Register{register.New(0)} // single-neuron layer: self-weight only
	n := neuron.New(-55, -70, -70, 10, w, internal)
	l := layer.New([]*neuron.Neuron{n})
	return &network.Network{
		Layers:             []*layer.Layer{l},
		NrInputs:           1,
		NrOutputs:          1,
		TimeStepDurationUS: 1000,
		Model:              neuron.LeakyIntegrateAndFire,
	}
}

func TestSimulateZeroIterationsMatchesGolden(t *testing.T) {
	net := oneNeuronNetwork(20)
	res, err := Simulate(net, []FaultyElement{Thresholds}, StuckAt0, 0, [][]bool{{true}}, 1)
	require.NoError(t, err)

	require.Len(t, res.Diffs, 1)
	require.Len(t, res.Diffs[0], 1)
	cell := res.Diffs[0][0]
	assert.Equal(t, 0, cell.DiffCount)
	assert.Empty(t, cell.DamageDetails)
	assert.Equal(t, res.OutputWithoutDamages[0][0], cell.ActualValue)
}

func TestSimulateIsDeterministicForFixedSeed(t *testing.T) {
	net := oneNeuronNetwork(20)
	elements := []FaultyElement{Weights, Thresholds, MembranePotentials, Comparator, Adder}
	input := [][]bool{{true, true, false, true}}

	res1, err := Simulate(net, elements, StuckAt0, 25, input, 7)
	require.NoError(t, err)
	res2, err := Simulate(oneNeuronNetwork(20), elements, StuckAt0, 25, input, 7)
	require.NoError(t, err)

	b1, _ := json.MarshalIndent(res1, "", "  ")
	b2, _ := json.MarshalIndent(res2, "", "  ")
	if string(b1) != string(b2) {
		t.Log(diff.LineDiff(string(b1), string(b2)))
	}
	assert.Equal(t, res1, res2, "same seed must produce byte-identical diffs and damage-detail sequences")
}

func TestSimulateDiffCountNeverExceedsIterations(t *testing.T) {
	net := oneNeuronNetwork(20)
	elements := []FaultyElement{Weights, Thresholds, MembranePotentials, ResetPotentials, PotentialsAtRest, Comparator, Adder, Multiplier, Divider}
	res, err := Simulate(net, elements, TransientBitFlip, 30, [][]bool{{true, false, true}}, 99)
	require.NoError(t, err)

	for _, row := range res.Diffs {
		for _, cell := range row {
			assert.LessOrEqual(t, cell.DiffCount, 30)
			assert.Equal(t, cell.DiffCount, len(cell.DamageDetails))
			for _, d := range cell.DamageDetails {
				assert.GreaterOrEqual(t, d.AtIteration, 0)
				assert.Less(t, d.AtIteration, 30)
			}
		}
	}
}

func TestSimulateRejectsEmptyElementList(t *testing.T) {
	net := oneNeuronNetwork(20)
	_, err := Simulate(net, nil, StuckAt0, 5, [][]bool{{true}}, 1)
	assert.ErrorIs(t, err, ErrConfig)
}

func TestParseFaultyElementThresholdsDoesNotMapToWeights(t *testing.T) {
	e, err := ParseFaultyElement("thresholds")
	require.NoError(t, err)
	assert.Equal(t, Thresholds, e, "the early-draft bug mapping \"thresholds\" to Weights must not be reproduced")
}

func TestParseDamageModelRoundTripsThroughString(t *testing.T) {
	for _, m := range []DamageModel{StuckAt0, StuckAt1, TransientBitFlip} {
		got, err := ParseDamageModel(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
}

func TestTargetRegisterResolvesEachScalarElement(t *testing.T) {
	w := []*register.Register{register.New(20)}
	iw := []*register.Register{register.New(-5)}
	n := neuron.New(-55, -70, -70, 10, w, iw)
	r := rand.New(rand.NewSource(1))

	cases := []struct {
		element FaultyElement
		want    *register.Register
	}{
		{Thresholds, n.VTh},
		{MembranePotentials, n.VMem},
		{ResetPotentials, n.VReset},
		{PotentialsAtRest, n.VRest},
		{Comparator, n.CmpReg},
		{Adder, n.AddReg},
		{Multiplier, n.MulReg},
		{Divider, n.DivReg},
	}
	for _, c := range cases {
		got, err := targetRegister(r, n, trialDraw{element: c.element})
		require.NoError(t, err)
		assert.Same(t, c.want, got)
	}
}

func TestTargetRegisterWeightsChoosesDrawnVector(t *testing.T) {
	w := []*register.Register{register.New(20)}
	iw := []*register.Register{register.New(-5)}
	n := neuron.New(-55, -70, -70, 10, w, iw)
	r := rand.New(rand.NewSource(1))

	got, err := targetRegister(r, n, trialDraw{element: Weights, weights: true})
	require.NoError(t, err)
	assert.Same(t, n.Weights[0], got)

	got, err = targetRegister(r, n, trialDraw{element: Weights, weights: false})
	require.NoError(t, err)
	assert.Same(t, n.InternalWeights[0], got)
}

func TestBuildFaultMatchesDamageModel(t *testing.T) {
	assert.Equal(t, register.StuckAt0(5), buildFault(StuckAt0, trialDraw{bit: 5}))
	assert.Equal(t, register.StuckAt1(7), buildFault(StuckAt1, trialDraw{bit: 7}))
	assert.Equal(t, register.TransientBitFlip(3, 2), buildFault(TransientBitFlip, trialDraw{bit: 3, step: 2}))
}

// Smoke-test that Simulate actually exercises the whole network run path
// (not just bookkeeping) by confirming the golden output alone matches a
// direct network.Run call.
func TestSimulateGoldenMatchesDirectRun(t *testing.T) {
	net := oneNeuronNetwork(20)
	input := [][]bool{{true}}

	want, err := net.Run(context.Background(), input)
	require.NoError(t, err)

	res, err := Simulate(oneNeuronNetwork(20), []FaultyElement{Thresholds}, StuckAt0, 1, input, 3)
	require.NoError(t, err)
	assert.Equal(t, want, res.OutputWithoutDamages)
}
