package split

// ExactStrategy passes through caller-supplied amounts, validating that
// they are non-negative and sum to exactly the expense total.
type ExactStrategy struct{}

// Type returns the split type identifier
func (s *ExactStrategy) Type() SplitType {
	return SplitTypeExact
}

// Calculate validates and returns the caller-supplied shares
func (s *ExactStrategy) Calculate(totalCents int64, participants []Input) ([]Output, error) {
	if len(participants) == 0 {
		return nil, ErrNoParticipants
	}
	if err := checkDistinct(participants); err != nil {
		return nil, err
	}

	var sum int64
	outputs := make([]Output, len(participants))
	for i, p := range participants {
		if p.AmountCents < 0 {
			return nil, ErrNegativeAmount
		}
		sum += p.AmountCents
		outputs[i] = Output{UserID: p.UserID, AmountCents: p.AmountCents}
	}

	if sum != totalCents {
		return nil, ErrInvalidExactAmounts
	}

	return outputs, nil
}
