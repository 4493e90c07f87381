package engine

import (
	"testing"

	"github.com/Ismael237/iot-automation-engine/internal/rules"
)

func TestEvaluateTruthTable(t *testing.T) {
	cases := []struct {
		op        rules.Operator
		value     float64
		threshold float64
		want      bool
	}{
		{rules.OpGT, 5, 3, true},
		{rules.OpGT, 3, 5, false},
		{rules.OpGT, 5, 5, false},
		{rules.OpLT, 3, 5, true},
		{rules.OpLT, 5, 3, false},
		{rules.OpLT, 5, 5, false},
		{rules.OpGTE, 5, 5, true},
		{rules.OpGTE, 5, 3, true},
		{rules.OpGTE, 3, 5, false},
		{rules.OpLTE, 5, 5, true},
		{rules.OpLTE, 3, 5, true},
		{rules.OpLTE, 5, 3, false},
		{rules.OpEQ, 5, 5, true},
		{rules.OpEQ, 5, 3, false},
		{rules.OpNE, 5, 5, false},
		{rules.OpNE, 5, 3, true},
	}
	for _, tc := range cases {
		if got := Evaluate(tc.op, tc.value, tc.threshold); got != tc.want {
			t.Fatalf("%s(%v, %v) = %v, want %v", tc.op, tc.value, tc.threshold, got, tc.want)
		}
	}
}

func TestEvaluateUnknownOperator(t *testing.T) {
	if Evaluate("ABOVE", 5, 3) {
		t.Fatalf("unknown operator must never trigger")
	}
}
