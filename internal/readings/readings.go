package readings

import (
	"context"
	"errors"
	"time"
)

// ErrNoReading means the source has no current value for a deployment.
// The engine skips the rule for that cycle; an undefined condition is
// not evaluated and produces no execution record.
var ErrNoReading = errors.New("no reading available")

type Reading struct {
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// Source supplies the latest timestamped numeric value per sensor deployment.
type Source interface {
	LatestValue(ctx context.Context, deploymentID string) (Reading, error)
}
