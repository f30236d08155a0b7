package campaign

import "fmt"

// FaultyElement names one class of register a trial may target. Weights
// covers both the excitatory and lateral weight vectors (the driver tosses
// a fair coin between them, see rng.go); the rest name a single register
// per neuron.
type FaultyElement int

const (
	Weights FaultyElement = iota
	Thresholds
	MembranePotentials
	ResetPotentials
	PotentialsAtRest
	Comparator
	Adder
	Multiplier
	Divider
)

func (e FaultyElement) String() string {
	switch e {
	case Weights:
		return "weights"
	case Thresholds:
		return "thresholds"
	case MembranePotentials:
		return "membrane_potentials"
	case ResetPotentials:
		return "reset_potentials"
	case PotentialsAtRest:
		return "potentials_at_rest"
	case Comparator:
		return "comparator"
	case Adder:
		return "adder"
	case Multiplier:
		return "multiplier"
	case Divider:
		return "divider"
	default:
		return fmt.Sprintf("FaultyElement(%d)", int(e))
	}
}

// ParseFaultyElement maps a CLI token to its FaultyElement. Unlike the
// original draft this never maps "thresholds" to Weights - see DESIGN.md.
func ParseFaultyElement(token string) (FaultyElement, error) {
	switch token {
	case "weights":
		return Weights, nil
	case "thresholds":
		return Thresholds, nil
	case "membrane_potentials":
		return MembranePotentials, nil
	case "reset_potentials":
		return ResetPotentials, nil
	case "potentials_at_rest":
		return PotentialsAtRest, nil
	case "comparator":
		return Comparator, nil
	case "adder":
		return Adder, nil
	case "multiplier":
		return Multiplier, nil
	case "divider":
		return Divider, nil
	default:
		return 0, fmt.Errorf("%w: unknown faulty element %q", ErrConfig, token)
	}
}

// DamageModel names which fault descriptor a campaign constructs at each
// trial's drawn coordinates.
type DamageModel int

const (
	StuckAt0 DamageModel = iota
	StuckAt1
	TransientBitFlip
)

func (m DamageModel) String() string {
	switch m {
	case StuckAt0:
		return "stuck_at_0"
	case StuckAt1:
		return "stuck_at_1"
	case TransientBitFlip:
		return "transient_bit_flip"
	default:
		return fmt.Sprintf("DamageModel(%d)", int(m))
	}
}

// ParseDamageModel maps a CLI token to its DamageModel.
func ParseDamageModel(token string) (DamageModel, error) {
	switch token {
	case "stuck_at_0":
		return StuckAt0, nil
	case "stuck_at_1":
		return StuckAt1, nil
	case "transient_bit_flip":
		return TransientBitFlip, nil
	default:
		return 0, fmt.Errorf("%w: unknown damage model %q", ErrConfig, token)
	}
}
