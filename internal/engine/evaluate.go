package engine

import "github.com/Ismael237/iot-automation-engine/internal/rules"

// Evaluate maps (operator, sensor value, threshold) to a triggered
// boolean. EQ and NE are exact float comparisons, no epsilon.
func Evaluate(op rules.Operator, value, threshold float64) bool {
	switch op {
	case rules.OpGT:
		return value > threshold
	case rules.OpLT:
		return value < threshold
	case rules.OpGTE:
		return value >= threshold
	case rules.OpLTE:
		return value <= threshold
	case rules.OpEQ:
		return value == threshold
	case rules.OpNE:
		return value != threshold
	default:
		return false
	}
}
