package arranger

import "math"

// Curve maps a tick to an activation value in [0, 1)
type Curve interface {
	Value(t float64) float64
}

// Ramp is a sawtooth rising linearly from 0 to 1 once per Period and wrapping back to 0
type Ramp struct {
	Period float64
	Phase  float64
}

// Value returns the ramp height at tick t
func (r Ramp) Value(t float64) float64 {
	if r.Period <= 0 {
		return 0
	}
	x := (t + r.Phase) / r.Period
	return x - math.Floor(x)
}

// Blend mixes two curves, weighting B by Ratio
type Blend struct {
	A     Curve
	B     Curve
	Ratio float64
}

// Value returns the weighted mix of both curves at tick t
func (b Blend) Value(t float64) float64 {
	v := (1-b.Ratio)*b.A.Value(t) + b.Ratio*b.B.Value(t)
	if v >= 1 {
		return math.Nextafter(1, 0)
	}
	return v
}

// Band is a half-open activation range [Low, High) of curve values
type Band struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// intersects reports whether the band overlaps [low, high)
func (b Band) intersects(low, high float64) bool {
	return b.Low < high && low < b.High
}

// Covers reports whether the curve swept over [start, end) passes through the band. A curve
// that wraps past 1 within the interval is checked on both sides of the wrap.
func (b Band) Covers(c Curve, start, end int) bool {
	from := c.Value(float64(start))
	to := c.Value(float64(end))
	if b.intersects(from, to) {
		return true
	}
	return from > to && (b.intersects(from, 1) || b.intersects(0, to))
}

// DefaultBands stagger entrances: the first part plays most of the time, later parts only near
// the top of the curve
var DefaultBands = []Band{
	{Low: 0, High: 0.7},
	{Low: 0.6, High: 0.8},
	{Low: 0.8, High: 1.0},
}
