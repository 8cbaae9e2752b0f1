package scan

import "fmt"

// Cadence names one of the three scan procedures.
type Cadence string

const (
	CadenceDaily   Cadence = "daily"
	CadenceWeekly  Cadence = "weekly"
	CadenceMonthly Cadence = "monthly"
)

// CadenceConfig parameterizes one cadence procedure.
type CadenceConfig struct {
	Cadence    Cadence
	BatchSize  int // max tickers selected per firing; weekly slice size
	ScoreFloor int // minimum stored score for top-N inclusion (daily)
	Budget     int // external-call budget per firing
}

// Validate checks the config before a scheduler accepts it.
func (c CadenceConfig) Validate() error {
	switch c.Cadence {
	case CadenceDaily, CadenceWeekly, CadenceMonthly:
	default:
		return fmt.Errorf("unknown cadence %q", c.Cadence)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("%s: batch size must be positive, got %d", c.Cadence, c.BatchSize)
	}
	if c.ScoreFloor < 0 || c.ScoreFloor > 100 {
		return fmt.Errorf("%s: score floor must be in [0,100], got %d", c.Cadence, c.ScoreFloor)
	}
	if c.Budget <= 0 {
		return fmt.Errorf("%s: budget must be positive, got %d", c.Cadence, c.Budget)
	}
	return nil
}

// DefaultDailyConfig is the light daily pass over top scorers.
func DefaultDailyConfig() CadenceConfig {
	return CadenceConfig{Cadence: CadenceDaily, BatchSize: 30, ScoreFloor: 30, Budget: 60}
}

// DefaultWeeklyConfig is the deep weekly pass: one category plus a
// progressive slice of the whole universe.
func DefaultWeeklyConfig() CadenceConfig {
	return CadenceConfig{Cadence: CadenceWeekly, BatchSize: 100, Budget: 250}
}

// DefaultMonthlyConfig is the stale-entry cleanup pass.
func DefaultMonthlyConfig() CadenceConfig {
	return CadenceConfig{Cadence: CadenceMonthly, BatchSize: 200, Budget: 300}
}
