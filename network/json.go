package network

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/SynapticNetworks/snn-faultsim/layer"
	"github.com/SynapticNetworks/snn-faultsim/neuron"
	"github.com/SynapticNetworks/snn-faultsim/register"
)

// NeuronData is the wire shape of one neuron inside a LayerData, matching
// the field names spec.md §6 names for the network JSON document.
type NeuronData struct {
	Weights         []float64 `json:"weights"`
	InternalWeights []float64 `json:"internal_weights"`
	VTh             float64   `json:"v_th"`
	VRest           float64   `json:"v_rest"`
	VReset          float64   `json:"v_reset"`
	Tau             float64   `json:"tau"`
}

// LayerData is the wire shape of one layer.
type LayerData struct {
	Neurons []NeuronData `json:"neurons"`
}

// NetworkData is the top-level network JSON document.
type NetworkData struct {
	TimeStepDurationUS float64     `json:"time_step_duration_us"`
	NrInputs           int         `json:"nr_inputs"`
	NrOutputs          int         `json:"nr_outputs"`
	Model              string      `json:"model"`
	Layers             []LayerData `json:"layers"`
}

// Decode builds a Network from its JSON data, wrapping every scalar in a
// fresh register.Register, then validates the topology invariants spec.md
// §3 places on Network (fan-in chain, nr_outputs matches last layer).
func (d NetworkData) Decode() (*Network, error) {
	model, err := neuron.ParseModel(d.Model)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}

	layers := make([]*layer.Layer, len(d.Layers))
	for li, ld := range d.Layers {
		neurons := make([]*neuron.Neuron, len(ld.Neurons))
		for ni, nd := range ld.Neurons {
			weights := make([]*register.Register, len(nd.Weights))
			for i, w := range nd.Weights {
				weights[i] = register.New(w)
			}
			// A single-neuron layer has only one legal internal_weights
			// value, the all-zero self-weight, so an omitted field
			// unambiguously means that rather than a malformed document.
			// Larger layers still require the field explicitly; Validate
			// below rejects a size mismatch there.
			internalSrc := nd.InternalWeights
			if len(internalSrc) == 0 && len(ld.Neurons) == 1 {
				internalSrc = make([]float64, 1)
			}
			internal := make([]*register.Register, len(internalSrc))
			for i, w := range internalSrc {
				internal[i] = register.New(w)
			}
			neurons[ni] = neuron.New(nd.VTh, nd.VRest, nd.VReset, nd.Tau, weights, internal)
		}
		layers[li] = layer.New(neurons)
	}

	net := &Network{
		Layers:             layers,
		NrInputs:           d.NrInputs,
		NrOutputs:          d.NrOutputs,
		TimeStepDurationUS: d.TimeStepDurationUS,
		Model:              model,
	}
	if err := net.Validate(); err != nil {
		return nil, err
	}
	return net, nil
}

// Encode renders net back to its wire shape, reading every register via
// Read(nil). Read applies any attached fault: a register under a StuckAt
// fault is encoded with its faulted value, and a register under a
// TransientBitFlip fault makes Encode fail with ErrSerialization. A network
// freshly loaded or built by the generator utilities carries no faults, so
// its stored values are encoded unchanged.
func Encode(net *Network) (NetworkData, error) {
	d := NetworkData{
		TimeStepDurationUS: net.TimeStepDurationUS,
		NrInputs:           net.NrInputs,
		NrOutputs:          net.NrOutputs,
		Model:              net.Model.String(),
		Layers:             make([]LayerData, len(net.Layers)),
	}
	for li, l := range net.Layers {
		ld := LayerData{Neurons: make([]NeuronData, len(l.Neurons))}
		for ni, n := range l.Neurons {
			nd, err := encodeNeuron(n)
			if err != nil {
				return NetworkData{}, err
			}
			ld.Neurons[ni] = nd
		}
		d.Layers[li] = ld
	}
	return d, nil
}

func encodeNeuron(n *neuron.Neuron) (NeuronData, error) {
	read := func(r *register.Register) (float64, error) { return r.Read(nil) }

	vth, err := read(n.VTh)
	if err != nil {
		return NeuronData{}, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	vrest, err := read(n.VRest)
	if err != nil {
		return NeuronData{}, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	vreset, err := read(n.VReset)
	if err != nil {
		return NeuronData{}, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	tau, err := read(n.Tau)
	if err != nil {
		return NeuronData{}, fmt.Errorf("%w: %v", ErrSerialization, err)
	}

	weights := make([]float64, len(n.Weights))
	for i, w := range n.Weights {
		v, err := read(w)
		if err != nil {
			return NeuronData{}, fmt.Errorf("%w: %v", ErrSerialization, err)
		}
		weights[i] = v
	}
	internal := make([]float64, len(n.InternalWeights))
	for i, w := range n.InternalWeights {
		v, err := read(w)
		if err != nil {
			return NeuronData{}, fmt.Errorf("%w: %v", ErrSerialization, err)
		}
		internal[i] = v
	}

	return NeuronData{
		Weights:         weights,
		InternalWeights: internal,
		VTh:             vth,
		VRest:           vrest,
		VReset:          vreset,
		Tau:             tau,
	}, nil
}

// LoadNetwork parses raw JSON bytes into a validated Network.
func LoadNetwork(raw []byte) (*Network, error) {
	var d NetworkData
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return d.Decode()
}

// LoadNetworkFile reads and parses a network topology JSON file.
func LoadNetworkFile(path string) (*Network, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return LoadNetwork(raw)
}

// SaveNetwork renders net to indented JSON bytes.
func SaveNetwork(net *Network) ([]byte, error) {
	d, err := Encode(net)
	if err != nil {
		return nil, err
	}
	raw, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return raw, nil
}

// SaveNetworkFile writes net's JSON rendering to path.
func SaveNetworkFile(net *Network, path string) error {
	raw, err := SaveNetwork(net)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return nil
}

// InputMatrix is the wire shape spec.md §6 names for an input spike matrix:
// a single-key wrapper object whose key is conventionally "0".
type InputMatrix map[string][][]bool

// Rows extracts the single rank-2 boolean matrix carried by m, together
// with the key it was stored under. The key name is not meaningful to the
// simulation; SaveInputMatrix always writes the key "0".
func (m InputMatrix) Rows() ([][]bool, string, error) {
	if len(m) != 1 {
		return nil, "", fmt.Errorf("%w: input matrix document must have exactly one key, got %d", ErrInvalidInput, len(m))
	}
	for k, rows := range m {
		return rows, k, nil
	}
	panic("unreachable")
}

// LoadInputMatrix parses raw JSON bytes into a boolean spike matrix.
func LoadInputMatrix(raw []byte) ([][]bool, error) {
	var m InputMatrix
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	rows, _, err := m.Rows()
	return rows, err
}

// LoadInputMatrixFile reads and parses an input matrix JSON file.
func LoadInputMatrixFile(path string) ([][]bool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return LoadInputMatrix(raw)
}

// SaveInputMatrix renders rows as an InputMatrix document under key "0".
func SaveInputMatrix(rows [][]bool) ([]byte, error) {
	m := InputMatrix{"0": rows}
	raw, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return raw, nil
}
