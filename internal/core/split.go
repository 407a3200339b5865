package core

// Split divides a total between person A and person B.
type Split interface {
	Shares(total float64) (shareA, shareB float64)
}

// EqualSplit gives each person half.
type EqualSplit struct{}

// AmountSplit assigns a fixed amount to A; B takes the rest, even when that
// goes negative.
type AmountSplit struct {
	ShareA float64
}

// PercentSplit assigns PercentA percent of the total to A.
type PercentSplit struct {
	PercentA float64
}

func (EqualSplit) Shares(total float64) (float64, float64) {
	half := total / 2
	return half, total - half
}

func (s AmountSplit) Shares(total float64) (float64, float64) {
	return s.ShareA, total - s.ShareA
}

func (s PercentSplit) Shares(total float64) (float64, float64) {
	a := total * s.PercentA / 100
	return a, total - a
}
