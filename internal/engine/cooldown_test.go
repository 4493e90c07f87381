package engine

import (
	"testing"
	"time"
)

func TestInCooldownWindow(t *testing.T) {
	fired := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cooldown := 15

	for _, offset := range []time.Duration{0, time.Second, 7 * time.Minute, 15*time.Minute - time.Second} {
		if !InCooldown(&fired, cooldown, fired.Add(offset)) {
			t.Fatalf("expected cooling at +%s", offset)
		}
	}
	for _, offset := range []time.Duration{15 * time.Minute, 16 * time.Minute, 24 * time.Hour} {
		if InCooldown(&fired, cooldown, fired.Add(offset)) {
			t.Fatalf("expected armed at +%s", offset)
		}
	}
}

func TestInCooldownNeverFired(t *testing.T) {
	if InCooldown(nil, 15, time.Now()) {
		t.Fatalf("rule with no prior trigger must start armed")
	}
}

func TestInCooldownZeroMinutes(t *testing.T) {
	fired := time.Now()
	if InCooldown(&fired, 0, fired) {
		t.Fatalf("zero cooldown must never suppress")
	}
}
