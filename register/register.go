/*
=================================================================================
REGISTER - BIT-ACCURATE HARDWARE FAULT MODEL
=================================================================================

OVERVIEW:
A Register wraps a single 64-bit floating point value the way a hardware
register wraps a bit pattern. Every read of a Register applies whatever
fault has been attached to it; writes always store the raw value. Routing
every scalar a neuron touches - and every arithmetic/comparison result -
through a Register is what turns "a stuck bit in the multiplier" into an
ordinary, local data dependency instead of a separate ALU simulator: the
multiplier's result register is simply a Register like any other, and a
fault attached to it corrupts every multiplication that neuron performs for
the remainder of the run.

FAULT MODEL:
  - Working: pass-through, no fault.
  - StuckAt0 / StuckAt1: a single bit of the IEEE-754 pattern is forced to a
    constant value on every read.
  - TransientBitFlip: a single bit is inverted on reads that occur at one
    specific time step; all other reads pass through unchanged.

Faults never act on writes - only on the read path. The stored value is
always the last one written, bit for bit; what a reader observes depends on
the fault and, for TransientBitFlip, on the time step it reads at.
=================================================================================
*/
package register

import (
	"errors"
	"fmt"
	"math"
)

// ErrMissingTimeStep is returned by Read when the register's fault is a
// TransientBitFlip and the caller did not supply a current time step.
var ErrMissingTimeStep = errors.New("register: read of transient-bit-flip register requires a time step")

// Fault describes the hardware damage, if any, attached to a Register's
// read path. The zero value is Working (no fault), so a zero-value Fault
// behaves as pass-through.
type Fault struct {
	kind faultKind
	bit  int    // bit index in [0,63], meaningful for all kinds except Working
	step uint64 // time step, meaningful only for TransientBitFlip
}

type faultKind int

const (
	faultWorking faultKind = iota
	faultStuckAt0
	faultStuckAt1
	faultTransientBitFlip
)

// Working is the no-fault descriptor: reads return the stored value
// unchanged.
func Working() Fault { return Fault{kind: faultWorking} }

// StuckAt0 forces bit to 0 on every read. bit must be in [0,63].
func StuckAt0(bit int) Fault { return Fault{kind: faultStuckAt0, bit: bit} }

// StuckAt1 forces bit to 1 on every read. bit must be in [0,63].
func StuckAt1(bit int) Fault { return Fault{kind: faultStuckAt1, bit: bit} }

// TransientBitFlip inverts bit on reads whose current step equals step;
// all other reads of the register pass through unchanged. bit must be in
// [0,63].
func TransientBitFlip(bit int, step uint64) Fault {
	return Fault{kind: faultTransientBitFlip, bit: bit, step: step}
}

// IsWorking reports whether f represents the no-fault state.
func (f Fault) IsWorking() bool { return f.kind == faultWorking }

// Bit returns the bit index this fault targets. It is meaningless for
// Working.
func (f Fault) Bit() int { return f.bit }

// Step returns the time step a TransientBitFlip targets. It is meaningless
// for every other fault kind.
func (f Fault) Step() uint64 { return f.step }

// String renders the fault's kind and coordinates, e.g. "stuck_at_0(bit=5)".
func (f Fault) String() string {
	switch f.kind {
	case faultWorking:
		return "working"
	case faultStuckAt0:
		return fmt.Sprintf("stuck_at_0(bit=%d)", f.bit)
	case faultStuckAt1:
		return fmt.Sprintf("stuck_at_1(bit=%d)", f.bit)
	case faultTransientBitFlip:
		return fmt.Sprintf("transient_bit_flip(bit=%d,step=%d)", f.bit, f.step)
	default:
		return "unknown"
	}
}

// Register is a 64-bit floating point cell with an attached fault
// descriptor. The zero value is a working register holding 0.0 - but
// callers should use New for clarity at call sites.
type Register struct {
	value float64
	fault Fault
}

// New returns a Register holding value with no fault applied.
func New(value float64) *Register {
	return &Register{value: value, fault: Working()}
}

// ApplyDamage replaces the register's fault descriptor. It does not touch
// the stored value.
func (r *Register) ApplyDamage(f Fault) {
	r.fault = f
}

// Fault returns the fault descriptor currently attached to the register.
func (r *Register) Fault() Fault {
	return r.fault
}

// Write stores value unchanged. Faults act only on the read path, so a
// write is never affected by whatever damage is attached to the register.
func (r *Register) Write(value float64) {
	r.value = value
}

// Read applies the register's fault to the stored value and returns the
// result. currentStep must be non-nil when the attached fault is a
// TransientBitFlip; any other fault ignores it.
func (r *Register) Read(currentStep *uint64) (float64, error) {
	switch r.fault.kind {
	case faultWorking:
		return r.value, nil

	case faultStuckAt0:
		bits := math.Float64bits(r.value)
		mask := ^(uint64(1) << uint(r.fault.bit))
		return math.Float64frombits(bits & mask), nil

	case faultStuckAt1:
		bits := math.Float64bits(r.value)
		mask := uint64(1) << uint(r.fault.bit)
		return math.Float64frombits(bits | mask), nil

	case faultTransientBitFlip:
		if currentStep == nil {
			return 0, ErrMissingTimeStep
		}
		if *currentStep != r.fault.step {
			return r.value, nil
		}
		bits := math.Float64bits(r.value)
		mask := uint64(1) << uint(r.fault.bit)
		return math.Float64frombits(bits ^ mask), nil

	default:
		return r.value, nil
	}
}

// Clone returns an independent copy of the register, used by Network.Clone
// to give each fault-campaign trial its own register instances.
func (r *Register) Clone() *Register {
	cp := *r
	return &cp
}

func stepPtr(step uint64) *uint64 { return &step }

// Add reads a and b at step, writes their sum to dst, through dst's own
// fault (if any) models a damaged adder: the caller always observes the
// result via dst.Read, never the raw sum.
func Add(a, b, dst *Register, step uint64) error {
	return binaryOp(a, b, dst, step, func(x, y float64) float64 { return x + y })
}

// Sub reads a and b at step and writes a-b to dst.
func Sub(a, b, dst *Register, step uint64) error {
	return binaryOp(a, b, dst, step, func(x, y float64) float64 { return x - y })
}

// Mul reads a and b at step and writes a*b to dst.
func Mul(a, b, dst *Register, step uint64) error {
	return binaryOp(a, b, dst, step, func(x, y float64) float64 { return x * y })
}

// Div reads a and b at step and writes a/b to dst.
func Div(a, b, dst *Register, step uint64) error {
	return binaryOp(a, b, dst, step, func(x, y float64) float64 { return x / y })
}

// Cmp reads a and b at step and writes a-b to dst; callers interpret a
// non-negative result as "a >= b". A damaged comparator is expressed by a
// fault on dst exactly as with the other operator registers.
func Cmp(a, b, dst *Register, step uint64) error {
	return binaryOp(a, b, dst, step, func(x, y float64) float64 { return x - y })
}

// Copy reads src at step and writes the result to dst, through dst's own
// fault. Used for v_reset -> v_mem transfers on firing.
func Copy(src, dst *Register, step uint64) error {
	v, err := src.Read(stepPtr(step))
	if err != nil {
		return err
	}
	dst.Write(v)
	return nil
}

func binaryOp(a, b, dst *Register, step uint64, op func(x, y float64) float64) error {
	av, err := a.Read(stepPtr(step))
	if err != nil {
		return err
	}
	bv, err := b.Read(stepPtr(step))
	if err != nil {
		return err
	}
	dst.Write(op(av, bv))
	return nil
}
