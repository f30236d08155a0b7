/*
=================================================================================
NEURON - DISCRETE-TIME LEAKY/NON-LEAKY INTEGRATE-AND-FIRE UNIT
=================================================================================

A Neuron owns its membrane potential and electrical parameters as Registers
(see the register package), so that a single-bit fault on any of them - or
on one of the four operator-result registers (AddReg, MulReg, DivReg,
CmpReg) - propagates through its dynamics exactly as it would in damaged
hardware. A Neuron is driven by exactly one goroutine (its owning layer
worker, see the layer package) at a time; it holds no internal
synchronization because nothing else ever touches it concurrently.

MEMBRANE UPDATE:
For the LeakyIntegrateAndFire model:

	pulses_contrib = Σ read(weights[s])            (excitatory, FeedPulses)
	               | Σ read(internal_weights[s])    (inhibitive, InhibitAfterEmission)
	dt_ms          = (last_pulse_step - step) * time_step_duration_ms   (<= 0)
	decay          = exp(dt_ms / read(tau))
	v_mem          = read(v_rest) + (read(v_mem) - read(v_rest)) * decay + pulses_contrib

For IntegrateAndFire the decay term is dropped entirely:

	v_mem = v_mem + pulses_contrib

Every add/sub/mul/div is routed through the neuron's own operator register so
that a fault attached to, say, MulReg corrupts every multiplication this
neuron performs for the rest of the run - not just one call site. The decay
exponential itself is a scalar transcendental and is evaluated directly on
the read-back divider result; it is not itself register-routed.
=================================================================================
*/
package neuron

import (
	"fmt"
	"math"

	"github.com/SynapticNetworks/snn-faultsim/register"
)

// Model selects the membrane-update formula a Neuron uses.
type Model int

const (
	// LeakyIntegrateAndFire decays v_mem toward v_rest between pulses.
	LeakyIntegrateAndFire Model = iota
	// IntegrateAndFire accumulates pulses_contrib with no decay term.
	IntegrateAndFire
)

func (m Model) String() string {
	switch m {
	case LeakyIntegrateAndFire:
		return "LeakyIntegrateAndFire"
	case IntegrateAndFire:
		return "IntegrateAndFire"
	default:
		return fmt.Sprintf("Model(%d)", int(m))
	}
}

// ParseModel parses the JSON/CLI spelling of a neuron model.
func ParseModel(s string) (Model, error) {
	switch s {
	case "LeakyIntegrateAndFire":
		return LeakyIntegrateAndFire, nil
	case "IntegrateAndFire":
		return IntegrateAndFire, nil
	default:
		return 0, fmt.Errorf("neuron: unknown model %q", s)
	}
}

// Neuron is one unit of a Layer. Every scalar it carries lives in its own
// Register so that fault injection can target it individually.
type Neuron struct {
	VTh    *register.Register // threshold potential (mV)
	VRest  *register.Register // resting potential (mV)
	VReset *register.Register // post-fire reset potential (mV)
	Tau    *register.Register // membrane time constant (ms)
	VMem   *register.Register // current membrane potential (mV)

	LastPulseStep uint64 // time step of the last membrane update

	Weights         []*register.Register // one per upstream neuron (or input line)
	InternalWeights []*register.Register // one per neuron in the same layer; self-weight is 0

	AddReg *register.Register // result register of the adder
	MulReg *register.Register // result register of the multiplier
	DivReg *register.Register // result register of the divider
	CmpReg *register.Register // result register of the comparator
}

// New builds a Neuron at rest with the given electrical parameters and
// connectivity. weights and internalWeights are taken by reference; callers
// build a fresh Register slice per neuron.
func New(vTh, vRest, vReset, tau float64, weights, internalWeights []*register.Register) *Neuron {
	return &Neuron{
		VTh:             register.New(vTh),
		VRest:           register.New(vRest),
		VReset:          register.New(vReset),
		Tau:             register.New(tau),
		VMem:            register.New(vRest),
		Weights:         weights,
		InternalWeights: internalWeights,
		AddReg:          register.New(0),
		MulReg:          register.New(0),
		DivReg:          register.New(0),
		CmpReg:          register.New(0),
	}
}

// FeedPulses integrates excitatory input from pulseSources (indices into
// Weights) at the given time step, then compares the resulting membrane
// potential against threshold. It returns true - and resets v_mem to
// v_reset - iff the neuron fires.
func (n *Neuron) FeedPulses(pulseSources []int, step uint64, timeStepDurationMs float64, model Model) (bool, error) {
	if err := n.updateMembranePotential(pulseSources, n.Weights, step, timeStepDurationMs, model); err != nil {
		return false, err
	}
	n.LastPulseStep = step

	if err := register.Cmp(n.VMem, n.VTh, n.CmpReg, step); err != nil {
		return false, err
	}
	cmp, err := n.CmpReg.Read(&step)
	if err != nil {
		return false, err
	}
	if cmp >= 0 {
		if err := register.Copy(n.VReset, n.VMem, step); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

// InhibitAfterEmission applies lateral inhibition from same-layer neurons
// that fired at the previous time step (prevFiring holds their indices into
// InternalWeights). It never emits a pulse.
func (n *Neuron) InhibitAfterEmission(prevFiring []int, step uint64, timeStepDurationMs float64, model Model) error {
	if err := n.updateMembranePotential(prevFiring, n.InternalWeights, step, timeStepDurationMs, model); err != nil {
		return err
	}
	n.LastPulseStep = step
	return nil
}

// updateMembranePotential implements the shared LIF/IF arithmetic for both
// FeedPulses and InhibitAfterEmission; sources indexes weights.
func (n *Neuron) updateMembranePotential(sources []int, weights []*register.Register, step uint64, timeStepDurationMs float64, model Model) error {
	n.AddReg.Write(0)
	for _, s := range sources {
		if err := register.Add(n.AddReg, weights[s], n.AddReg, step); err != nil {
			return err
		}
	}
	pulsesContrib := register.New(0)
	if err := register.Copy(n.AddReg, pulsesContrib, step); err != nil {
		return err
	}

	switch model {
	case LeakyIntegrateAndFire:
		if err := register.Sub(n.VMem, n.VRest, n.AddReg, step); err != nil {
			return err
		}
		vMemMinusRest := register.New(0)
		if err := register.Copy(n.AddReg, vMemMinusRest, step); err != nil {
			return err
		}

		stepDiff := register.New(float64(n.LastPulseStep) - float64(step))
		duration := register.New(timeStepDurationMs)
		if err := register.Mul(stepDiff, duration, n.MulReg, step); err != nil {
			return err
		}
		if err := register.Div(n.MulReg, n.Tau, n.DivReg, step); err != nil {
			return err
		}
		expArg, err := n.DivReg.Read(&step)
		if err != nil {
			return err
		}
		decayFactor := register.New(math.Exp(expArg))

		if err := register.Mul(decayFactor, vMemMinusRest, n.MulReg, step); err != nil {
			return err
		}
		decayPart := register.New(0)
		if err := register.Copy(n.MulReg, decayPart, step); err != nil {
			return err
		}

		if err := register.Add(n.VRest, decayPart, n.AddReg, step); err != nil {
			return err
		}
		restPlusDecay := register.New(0)
		if err := register.Copy(n.AddReg, restPlusDecay, step); err != nil {
			return err
		}

		if err := register.Add(restPlusDecay, pulsesContrib, n.AddReg, step); err != nil {
			return err
		}
		return register.Copy(n.AddReg, n.VMem, step)

	case IntegrateAndFire:
		if err := register.Add(n.VMem, pulsesContrib, n.AddReg, step); err != nil {
			return err
		}
		return register.Copy(n.AddReg, n.VMem, step)

	default:
		return fmt.Errorf("neuron: unknown model %v", model)
	}
}

// Clone returns a deep copy of the neuron, including fresh Register
// instances for every field - used by a Network clone to give each
// fault-campaign trial its own, independently-damageable neuron state.
func (n *Neuron) Clone() *Neuron {
	cp := &Neuron{
		VTh:           n.VTh.Clone(),
		VRest:         n.VRest.Clone(),
		VReset:        n.VReset.Clone(),
		Tau:           n.Tau.Clone(),
		VMem:          n.VMem.Clone(),
		LastPulseStep: n.LastPulseStep,
		AddReg:        n.AddReg.Clone(),
		MulReg:        n.MulReg.Clone(),
		DivReg:        n.DivReg.Clone(),
		CmpReg:        n.CmpReg.Clone(),
	}
	cp.Weights = make([]*register.Register, len(n.Weights))
	for i, w := range n.Weights {
		cp.Weights[i] = w.Clone()
	}
	cp.InternalWeights = make([]*register.Register, len(n.InternalWeights))
	for i, w := range n.InternalWeights {
		cp.InternalWeights[i] = w.Clone()
	}
	return cp
}
