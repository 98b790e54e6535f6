package model

// Action is a human-friendly operating mode for a period.
// Keep these values stable; they are intended for CSV output.
type Action string

const (
	ActionCharging    Action = "CHARGING"
	ActionIdle        Action = "IDLE"
	ActionDischarging Action = "DISCHARGING"
)

// ActionFromEnergy classifies a signed action (negative = charge, positive = discharge).
func ActionFromEnergy(energy float64) Action {
	switch {
	case energy < 0:
		return ActionCharging
	case energy > 0:
		return ActionDischarging
	default:
		return ActionIdle
	}
}
