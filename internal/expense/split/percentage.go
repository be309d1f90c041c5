package split

// totalBps is 100% expressed in basis points.
const totalBps = 10000

// PercentageStrategy divides the expense by caller-supplied percentages,
// carried as basis points so the arithmetic stays integral. Percentages
// must sum to exactly 100%. Flooring each share can strand up to
// len(participants)-1 cents; those go one cent each to the earliest
// participants, matching EvenStrategy's remainder rule, so the shares
// always sum to the total.
type PercentageStrategy struct{}

// Type returns the split type identifier
func (s *PercentageStrategy) Type() SplitType {
	return SplitTypePercentage
}

// Calculate allocates totalCents according to each participant's basis points
func (s *PercentageStrategy) Calculate(totalCents int64, participants []Input) ([]Output, error) {
	if len(participants) == 0 {
		return nil, ErrNoParticipants
	}
	if totalCents < 0 {
		return nil, ErrNegativeAmount
	}
	if err := checkDistinct(participants); err != nil {
		return nil, err
	}

	var sumBps int64
	for _, p := range participants {
		if p.PercentBps < 0 || p.PercentBps > totalBps {
			return nil, ErrPercentageBounds
		}
		sumBps += p.PercentBps
	}
	if sumBps != totalBps {
		return nil, ErrInvalidPercentages
	}

	outputs := make([]Output, len(participants))
	var allocated int64
	for i, p := range participants {
		share := totalCents * p.PercentBps / totalBps
		allocated += share
		outputs[i] = Output{UserID: p.UserID, AmountCents: share}
	}

	// A zero-percent participant never picks up a remainder cent.
	for i := 0; allocated < totalCents; i++ {
		if participants[i].PercentBps == 0 {
			continue
		}
		outputs[i].AmountCents++
		allocated++
	}

	return outputs, nil
}
