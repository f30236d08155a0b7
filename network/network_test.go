package network

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/andreyvit/diff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SynapticNetworks/snn-faultsim/neuron"
)

func oneNeuronNetworkJSON(weight float64) []byte {
	d := NetworkData{
		TimeStepDurationUS: 1000,
		NrInputs:           1,
		NrOutputs:          1,
		Model:              "LeakyIntegrateAndFire",
		Layers: []LayerData{
			{Neurons: []NeuronData{
				{Weights: []float64{weight}, InternalWeights: nil, VTh: -55, VRest: -70, VReset: -70, Tau: 10},
			}},
		},
	}
	raw, err := json.Marshal(d)
	if err != nil {
		panic(err)
	}
	return raw
}

// Scenario 1 of the shared test corpus: a single super-threshold synapse
// fires on its one input pulse.
func TestRunSingleNeuronSuperThresholdFires(t *testing.T) {
	net, err := LoadNetwork(oneNeuronNetworkJSON(20))
	require.NoError(t, err)

	out, err := net.Run(context.Background(), [][]bool{{true}})
	require.NoError(t, err)

	want := [][]bool{{true}}
	if !assertEqualMatrix(t, want, out) {
		t.Log(diff.LineDiff(matrixString(want), matrixString(out)))
	}
}

func TestRunSingleNeuronSubThresholdDoesNotFire(t *testing.T) {
	net, err := LoadNetwork(oneNeuronNetworkJSON(10))
	require.NoError(t, err)

	out, err := net.Run(context.Background(), [][]bool{{true}})
	require.NoError(t, err)
	assert.Equal(t, [][]bool{{false}}, out)
}

func TestRunRejectsRaggedInputRows(t *testing.T) {
	d := NetworkData{
		TimeStepDurationUS: 1000,
		NrInputs:           2,
		NrOutputs:          1,
		Model:              "LeakyIntegrateAndFire",
		Layers: []LayerData{
			{Neurons: []NeuronData{{Weights: []float64{20, 20}, VTh: -55, VRest: -70, VReset: -70, Tau: 10}}},
		},
	}
	raw, err := json.Marshal(d)
	require.NoError(t, err)
	net, err := LoadNetwork(raw)
	require.NoError(t, err)

	// two input lines of different lengths
	_, err = net.Run(context.Background(), [][]bool{{true, false, true}, {true}})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDecodeRejectsFanInMismatch(t *testing.T) {
	d := NetworkData{
		TimeStepDurationUS: 1000,
		NrInputs:           2, // declared 2, but the neuron only has 1 weight
		NrOutputs:          1,
		Model:              "LeakyIntegrateAndFire",
		Layers: []LayerData{
			{Neurons: []NeuronData{{Weights: []float64{20}, VTh: -55, VRest: -70, VReset: -70, Tau: 10}}},
		},
	}
	raw, err := json.Marshal(d)
	require.NoError(t, err)

	_, err = LoadNetwork(raw)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSaveNetworkRoundTripsThroughEncodeDecode(t *testing.T) {
	net, err := LoadNetwork(oneNeuronNetworkJSON(20))
	require.NoError(t, err)

	raw, err := SaveNetwork(net)
	require.NoError(t, err)

	reloaded, err := LoadNetwork(raw)
	require.NoError(t, err)
	assert.Equal(t, net.NrInputs, reloaded.NrInputs)
	assert.Equal(t, net.NrOutputs, reloaded.NrOutputs)
	assert.Equal(t, neuron.LeakyIntegrateAndFire, reloaded.Model)

	w, err := reloaded.Layers[0].Neurons[0].Weights[0].Read(nil)
	require.NoError(t, err)
	assert.Equal(t, 20.0, w)
}

func TestInputMatrixRoundTrip(t *testing.T) {
	rows := [][]bool{{true, false}, {false, true}}
	raw, err := SaveInputMatrix(rows)
	require.NoError(t, err)

	got, err := LoadInputMatrix(raw)
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}

func TestCloneIsIndependentOfOriginalNetwork(t *testing.T) {
	net, err := LoadNetwork(oneNeuronNetworkJSON(20))
	require.NoError(t, err)

	cp := net.Clone()
	cp.Layers[0].Neurons[0].Weights[0].Write(0)

	out, err := net.Run(context.Background(), [][]bool{{true}})
	require.NoError(t, err)
	assert.Equal(t, [][]bool{{true}}, out, "damaging the clone must not affect the original network")
}

func assertEqualMatrix(t *testing.T, want, got [][]bool) bool {
	t.Helper()
	return assert.Equal(t, want, got)
}

func matrixString(m [][]bool) string {
	raw, _ := json.Marshal(m)
	return string(raw)
}
