package split

// EvenStrategy divides the expense equally among all participants.
// Working in cents, an even division can leave a remainder of up to
// len(participants)-1 cents; those are handed out one cent each to the
// earliest participants so the shares always sum to the total.
type EvenStrategy struct{}

// Type returns the split type identifier
func (s *EvenStrategy) Type() SplitType {
	return SplitTypeEven
}

// Calculate divides totalCents evenly among all participants
func (s *EvenStrategy) Calculate(totalCents int64, participants []Input) ([]Output, error) {
	if len(participants) == 0 {
		return nil, ErrNoParticipants
	}
	if totalCents < 0 {
		return nil, ErrNegativeAmount
	}
	if err := checkDistinct(participants); err != nil {
		return nil, err
	}

	n := int64(len(participants))
	base := totalCents / n
	remainder := totalCents % n

	outputs := make([]Output, len(participants))
	for i, p := range participants {
		share := base
		if int64(i) < remainder {
			share++
		}
		outputs[i] = Output{UserID: p.UserID, AmountCents: share}
	}

	return outputs, nil
}
