// Package split computes expense share allocations in integer minor
// units. Strategies turn a request's participant list into exact
// per-person amounts that always sum to the expense total.
package split

import (
	"errors"
	"fmt"
)

// SplitType defines the type of split strategy
type SplitType string

const (
	SplitTypeEven       SplitType = "EVEN"
	SplitTypeExact      SplitType = "EXACT"
	SplitTypePercentage SplitType = "PERCENTAGE"
)

// Input represents a participant in a split. AmountCents is required for
// EXACT splits, PercentBps (basis points, 100.00% = 10000) for PERCENTAGE
// splits; each is ignored by the other strategies.
type Input struct {
	UserID      int64
	AmountCents int64
	PercentBps  int64
}

// Output represents the allocated share for a single participant
type Output struct {
	UserID      int64
	AmountCents int64
}

// Strategy is the interface that all split strategies must implement
type Strategy interface {
	// Calculate computes the share amounts for all participants. The
	// outputs always sum to exactly totalCents.
	Calculate(totalCents int64, participants []Input) ([]Output, error)

	// Type returns the type identifier for this strategy
	Type() SplitType
}

// Factory creates split strategies based on the requested type
type Factory struct{}

// NewFactory creates a new factory instance
func NewFactory() *Factory {
	return &Factory{}
}

// Create returns the appropriate strategy implementation based on the type
func (f *Factory) Create(splitType SplitType) (Strategy, error) {
	switch splitType {
	case SplitTypeEven:
		return &EvenStrategy{}, nil
	case SplitTypeExact:
		return &ExactStrategy{}, nil
	case SplitTypePercentage:
		return &PercentageStrategy{}, nil
	default:
		return nil, fmt.Errorf("unknown split type: %s", splitType)
	}
}

var (
	ErrNoParticipants      = errors.New("at least one participant is required")
	ErrNegativeAmount      = errors.New("amounts cannot be negative")
	ErrDuplicateUser       = errors.New("participant listed more than once")
	ErrInvalidExactAmounts = errors.New("exact amounts must sum to total amount")
	ErrMissingPercentage   = errors.New("percentage required for percentage splits")
	ErrPercentageBounds    = errors.New("percentages must be between 0 and 100")
	ErrInvalidPercentages  = errors.New("percentages must sum to 100")
)

func checkDistinct(participants []Input) error {
	seen := make(map[int64]struct{}, len(participants))
	for _, p := range participants {
		if _, dup := seen[p.UserID]; dup {
			return ErrDuplicateUser
		}
		seen[p.UserID] = struct{}{}
	}
	return nil
}
