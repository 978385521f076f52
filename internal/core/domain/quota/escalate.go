package quota

import "time"

// Escalate maps the cumulative violation count since the last successful
// consumption to a block duration. The ladder is deliberately coarse and
// monotonic: a fixed violation count always yields the same duration, and
// retrying never shortens a penalty.
func Escalate(violations int) time.Duration {
	switch {
	case violations < 5:
		return 0
	case violations < 10:
		return 5 * time.Minute
	case violations < 20:
		return 15 * time.Minute
	case violations < 50:
		return time.Hour
	default:
		return 24 * time.Hour
	}
}
