/*
=================================================================================
NETWORK - LAYERED SNN RUN ENGINE
=================================================================================

A Network wires input injection, per-layer workers, and output collection
into a single pipeline: input matrix -> injector -> layer0 -> layer1 -> ... ->
layer(L-1) -> collector -> output matrix. Every arrow is an ordered,
point-to-point Event channel (see the layer package); the only
cross-step synchronization is the Barrier event each layer emits exactly
once per time step.

A Network is built once - by the JSON loader (json.go) or by hand - and is
immutable after construction except through Clone, which the fault-campaign
driver uses to give each Monte-Carlo trial its own, independently-damageable
copy.
=================================================================================
*/
package network

import (
	"context"
	"fmt"
	"sync"

	"github.com/SynapticNetworks/snn-faultsim/layer"
	"github.com/SynapticNetworks/snn-faultsim/neuron"
)

// Network is an ordered sequence of Layers plus the topology-wide
// parameters spec.md ties to the whole run.
type Network struct {
	Layers             []*layer.Layer
	NrInputs           int
	NrOutputs          int
	TimeStepDurationUS float64
	Model              neuron.Model
}

// Validate checks the structural invariants spec.md §3 places on a
// Network: the last layer's size must equal NrOutputs, the first layer's
// fan-in must equal NrInputs, and each subsequent layer's fan-in must equal
// the previous layer's size.
func (n *Network) Validate() error {
	if len(n.Layers) == 0 {
		return fmt.Errorf("%w: network has no layers", ErrInvalidInput)
	}
	if len(n.Layers[len(n.Layers)-1].Neurons) != n.NrOutputs {
		return fmt.Errorf("%w: nr_outputs=%d does not match last layer size %d", ErrInvalidInput, n.NrOutputs, len(n.Layers[len(n.Layers)-1].Neurons))
	}
	for k, l := range n.Layers {
		fanIn := n.NrInputs
		if k > 0 {
			fanIn = len(n.Layers[k-1].Neurons)
		}
		for ni, neu := range l.Neurons {
			if len(neu.Weights) != fanIn {
				return fmt.Errorf("%w: layer %d neuron %d has %d weights, want fan-in %d", ErrInvalidInput, k, ni, len(neu.Weights), fanIn)
			}
			if len(neu.InternalWeights) != len(l.Neurons) {
				return fmt.Errorf("%w: layer %d neuron %d has %d internal weights, want layer size %d", ErrInvalidInput, k, ni, len(neu.InternalWeights), len(l.Neurons))
			}
		}
	}
	return nil
}

// validateInput checks that input has NrInputs rows, all of the same
// length, and that NrInputs matches the number of rows. Ragged rows are
// ErrInvalidInput.
func (n *Network) validateInput(input [][]bool) (int, error) {
	if len(input) != n.NrInputs {
		return 0, fmt.Errorf("%w: expected %d input rows, got %d", ErrInvalidInput, n.NrInputs, len(input))
	}
	if len(input) == 0 {
		return 0, nil
	}
	T := len(input[0])
	for i, row := range input {
		if len(row) != T {
			return 0, fmt.Errorf("%w: input row %d has length %d, want %d", ErrInvalidInput, i, len(row), T)
		}
	}
	return T, nil
}

// Run advances the network over the full input spike matrix
// (input[line][step]) and returns the output spike matrix
// (output[neuron][step], shape NrOutputs x T).
func (n *Network) Run(ctx context.Context, input [][]bool) ([][]bool, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}
	T, err := n.validateInput(input)
	if err != nil {
		return nil, err
	}

	L := len(n.Layers)
	channels := make([]chan layer.Event, L+1)
	for i := range channels {
		channels[i] = make(chan layer.Event)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errs := make([]error, 0, L+1)
	var errsMu sync.Mutex
	record := func(err error) {
		if err == nil {
			return
		}
		errsMu.Lock()
		errs = append(errs, err)
		errsMu.Unlock()
		cancel()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(channels[0])
		record(injectInput(ctx, channels[0], input, T))
	}()

	for i, l := range n.Layers {
		i, l := i, l
		wg.Add(1)
		go func() {
			defer wg.Done()
			record(l.Run(ctx, channels[i], channels[i+1], n.TimeStepDurationUS/1000.0, n.Model))
		}()
	}

	output := make([][]bool, n.NrOutputs)
	for i := range output {
		output[i] = make([]bool, T)
	}

	collectorDone := make(chan error, 1)
	go func() {
		collectorDone <- collectOutput(ctx, channels[L], output, T)
	}()

	wg.Wait()
	record(<-collectorDone)

	if len(errs) > 0 {
		return nil, errs[0]
	}
	return output, nil
}

// injectInput feeds one time step of events per column of input onto ch: a
// Pulse(line) for every row whose column is true, followed by exactly one
// Barrier. The caller closes ch once injectInput returns.
func injectInput(ctx context.Context, ch chan<- layer.Event, input [][]bool, T int) error {
	for t := 0; t < T; t++ {
		for line, row := range input {
			if row[t] {
				if err := sendEvent(ctx, ch, layer.Pulse(line)); err != nil {
					return err
				}
			}
		}
		if err := sendEvent(ctx, ch, layer.Barrier()); err != nil {
			return err
		}
	}
	return nil
}

// collectOutput drains ch (the final layer's downstream) until it closes,
// using a Barrier to advance the write column and a Pulse(i) to mark
// output[i][column] = true.
func collectOutput(ctx context.Context, ch <-chan layer.Event, output [][]bool, T int) error {
	column := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			switch ev.Kind {
			case layer.EventPulse:
				if column < T {
					output[ev.Source][column] = true
				}
			case layer.EventBarrier:
				column++
			}
		}
	}
}

func sendEvent(ctx context.Context, ch chan<- layer.Event, ev layer.Event) error {
	select {
	case ch <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Clone returns a deep copy of the network - every layer, every neuron,
// every register - so that the fault-campaign driver can damage one
// register of the copy without affecting the original or any other trial.
func (n *Network) Clone() *Network {
	layers := make([]*layer.Layer, len(n.Layers))
	for i, l := range n.Layers {
		layers[i] = l.Clone()
	}
	return &Network{
		Layers:             layers,
		NrInputs:           n.NrInputs,
		NrOutputs:          n.NrOutputs,
		TimeStepDurationUS: n.TimeStepDurationUS,
		Model:              n.Model,
	}
}
