package pricing

import "math"

const (
	mmPerInch = 25.4
	// DefaultStepInches is the billing increment glass shops round cut sizes
	// up to: 3 inches, i.e. a quarter foot.
	DefaultStepInches = 3.0
)

// stepEpsilon guards the ceiling against float noise at exact step
// boundaries (24 inches on a 3-inch step must stay 2.0 ft, not 2.25).
const stepEpsilon = 1e-9

// InchesFromMM converts millimetres to inches.
func InchesFromMM(mm float64) float64 {
	return mm / mmPerInch
}

// MMFromInches converts inches to millimetres.
func MMFromInches(in float64) float64 {
	return in * mmPerInch
}

// FeetRoundedUp converts a measurement in inches to the billable foot value:
// rounded up to the nearest step, exact multiples left untouched.
func FeetRoundedUp(inches, stepInches float64) float64 {
	if stepInches <= 0 {
		stepInches = DefaultStepInches
	}
	steps := math.Ceil(inches/stepInches - stepEpsilon)
	return steps * stepInches / 12
}
