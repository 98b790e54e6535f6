package strategy

import "time"

// Context is what a strategy sees at the start of a period.
type Context struct {
	Index       int
	PeriodStart time.Time
	SOC         float64
}

// Strategy picks a signed action energy for a period
// (negative = charge, positive = discharge, zero = idle).
type Strategy interface {
	Name() string
	Decide(ctx Context) float64
}

// IdleStrategy never trades. It is the do-nothing baseline for comparisons.
type IdleStrategy struct{}

func (IdleStrategy) Name() string { return NameIdle }

func (IdleStrategy) Decide(Context) float64 { return 0 }
