/*
=================================================================================
LAYER - ONE TIME-STEP-SYNCHRONOUS WORKER OF THE SNN PIPELINE
=================================================================================

Each Layer runs as its own goroutine, consuming pulse events for one time
step from its upstream channel and producing pulse events for the
downstream channel, with an explicit Barrier event delimiting time steps.
No Layer ever touches another Layer's state; the only communication is the
ordered, point-to-point Event channel between them.

PER-TIME-STEP PROTOCOL:

 1. Drain the upstream channel, collecting Pulse events into pulseSources
    until a Barrier is consumed.
 2. If step > 0, invoke InhibitAfterEmission(prevFired) on every neuron
    (using the previous step's firings), then clear prevFired.
 3. If pulseSources is non-empty, invoke FeedPulses on each neuron in index
    order; every firing neuron's index is pushed onto prevFired and a
    Pulse(i) is emitted downstream.
 4. Emit exactly one Barrier downstream, unconditionally - even when the
    layer received or emitted no pulses this step. This is the single
    barrier-emission convention the whole pipeline relies on: without it,
    a quiet layer would silently desynchronize the collector's column
    counter from the number of time steps actually simulated.

STATE MACHINE: WaitingForPulses -> ProcessingStep -> Emitting ->
WaitingForPulses, terminal when the upstream channel closes after the last
Barrier of the run.
=================================================================================
*/
package layer

import (
	"context"
	"fmt"

	"github.com/SynapticNetworks/snn-faultsim/neuron"
)

// EventKind distinguishes the two kinds of value carried on an inter-layer
// channel.
type EventKind int

const (
	// EventPulse carries the index of the neuron that fired.
	EventPulse EventKind = iota
	// EventBarrier delimits one time step; exactly one is emitted per step.
	EventBarrier
)

// Event is the unit of communication between adjacent layers (and between
// the injector/collector and layers 0/L-1).
type Event struct {
	Kind   EventKind
	Source int // meaningful only when Kind == EventPulse
}

// Pulse builds a pulse event for the neuron at the given index.
func Pulse(source int) Event { return Event{Kind: EventPulse, Source: source} }

// Barrier builds a time-step barrier event.
func Barrier() Event { return Event{Kind: EventBarrier} }

// Layer is an ordered sequence of neurons; a neuron's index within the
// layer is its identity for pulse provenance and lateral-inhibition wiring.
type Layer struct {
	Neurons []*neuron.Neuron
}

// New wraps an ordered slice of neurons as a Layer.
func New(neurons []*neuron.Neuron) *Layer {
	return &Layer{Neurons: neurons}
}

// Run drives this layer's worker loop until upstream closes. downstream is
// closed by Run before returning, cascading shutdown to the next layer (or
// the collector). ctx, if cancelled, unblocks a pending channel operation
// and causes Run to return ctx.Err().
func (l *Layer) Run(ctx context.Context, upstream <-chan Event, downstream chan<- Event, timeStepDurationMs float64, model neuron.Model) error {
	defer close(downstream)

	var step uint64
	var prevFired []int
	var pulseSources []int

	for {
		pulseSources = pulseSources[:0]
		sawBarrier := false

		for !sawBarrier {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case ev, ok := <-upstream:
				if !ok {
					if len(pulseSources) > 0 {
						return fmt.Errorf("layer: upstream channel closed mid-step with %d pending pulse(s)", len(pulseSources))
					}
					return nil
				}
				switch ev.Kind {
				case EventPulse:
					pulseSources = append(pulseSources, ev.Source)
				case EventBarrier:
					sawBarrier = true
				}
			}
		}

		if step > 0 {
			for _, n := range l.Neurons {
				if err := n.InhibitAfterEmission(prevFired, step, timeStepDurationMs, model); err != nil {
					return err
				}
			}
			prevFired = prevFired[:0]
		}

		if len(pulseSources) > 0 {
			for i, n := range l.Neurons {
				fired, err := n.FeedPulses(pulseSources, step, timeStepDurationMs, model)
				if err != nil {
					return err
				}
				if fired {
					prevFired = append(prevFired, i)
					if err := send(ctx, downstream, Pulse(i)); err != nil {
						return err
					}
				}
			}
		}

		if err := send(ctx, downstream, Barrier()); err != nil {
			return err
		}

		step++
	}
}

func send(ctx context.Context, ch chan<- Event, ev Event) error {
	select {
	case ch <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Clone returns a deep copy of the layer, used by Network.Clone to give
// each fault-campaign trial its own neuron state.
func (l *Layer) Clone() *Layer {
	neurons := make([]*neuron.Neuron, len(l.Neurons))
	for i, n := range l.Neurons {
		neurons[i] = n.Clone()
	}
	return &Layer{Neurons: neurons}
}
