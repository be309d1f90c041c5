package split

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvenStrategy(t *testing.T) {
	s := &EvenStrategy{}

	t.Run("divides exactly", func(t *testing.T) {
		out, err := s.Calculate(9000, []Input{{UserID: 1}, {UserID: 2}, {UserID: 3}})
		require.NoError(t, err)
		require.Len(t, out, 3)
		for _, o := range out {
			assert.Equal(t, int64(3000), o.AmountCents)
		}
	})

	t.Run("remainder cents go to earliest participants", func(t *testing.T) {
		out, err := s.Calculate(1000, []Input{{UserID: 1}, {UserID: 2}, {UserID: 3}})
		require.NoError(t, err)
		assert.Equal(t, int64(334), out[0].AmountCents)
		assert.Equal(t, int64(333), out[1].AmountCents)
		assert.Equal(t, int64(333), out[2].AmountCents)

		var sum int64
		for _, o := range out {
			sum += o.AmountCents
		}
		assert.Equal(t, int64(1000), sum)
	})

	t.Run("no participants", func(t *testing.T) {
		_, err := s.Calculate(1000, nil)
		assert.ErrorIs(t, err, ErrNoParticipants)
	})

	t.Run("duplicate participant", func(t *testing.T) {
		_, err := s.Calculate(1000, []Input{{UserID: 1}, {UserID: 1}})
		assert.ErrorIs(t, err, ErrDuplicateUser)
	})
}

func TestExactStrategy(t *testing.T) {
	s := &ExactStrategy{}

	t.Run("valid shares pass through", func(t *testing.T) {
		out, err := s.Calculate(5000, []Input{
			{UserID: 1, AmountCents: 2000},
			{UserID: 2, AmountCents: 3000},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(2000), out[0].AmountCents)
		assert.Equal(t, int64(3000), out[1].AmountCents)
	})

	t.Run("mismatched sum rejected", func(t *testing.T) {
		_, err := s.Calculate(5000, []Input{
			{UserID: 1, AmountCents: 2000},
			{UserID: 2, AmountCents: 2000},
		})
		assert.ErrorIs(t, err, ErrInvalidExactAmounts)
	})

	t.Run("negative share rejected", func(t *testing.T) {
		_, err := s.Calculate(1000, []Input{
			{UserID: 1, AmountCents: -500},
			{UserID: 2, AmountCents: 1500},
		})
		assert.ErrorIs(t, err, ErrNegativeAmount)
	})

	t.Run("zero share allowed", func(t *testing.T) {
		out, err := s.Calculate(1000, []Input{
			{UserID: 1, AmountCents: 0},
			{UserID: 2, AmountCents: 1000},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(0), out[0].AmountCents)
	})
}

func TestPercentageStrategy(t *testing.T) {
	s := &PercentageStrategy{}

	t.Run("allocates by basis points", func(t *testing.T) {
		out, err := s.Calculate(10000, []Input{
			{UserID: 1, PercentBps: 5000},
			{UserID: 2, PercentBps: 3000},
			{UserID: 3, PercentBps: 2000},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(5000), out[0].AmountCents)
		assert.Equal(t, int64(3000), out[1].AmountCents)
		assert.Equal(t, int64(2000), out[2].AmountCents)
	})

	t.Run("remainder cents go to earliest non-zero participants", func(t *testing.T) {
		// 33.33% / 33.33% / 33.34% of 1.00: floors are 33/33/33.
		out, err := s.Calculate(100, []Input{
			{UserID: 1, PercentBps: 3333},
			{UserID: 2, PercentBps: 3333},
			{UserID: 3, PercentBps: 3334},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(34), out[0].AmountCents)
		assert.Equal(t, int64(33), out[1].AmountCents)
		assert.Equal(t, int64(33), out[2].AmountCents)

		var sum int64
		for _, o := range out {
			sum += o.AmountCents
		}
		assert.Equal(t, int64(100), sum)
	})

	t.Run("zero percent stays at zero", func(t *testing.T) {
		out, err := s.Calculate(101, []Input{
			{UserID: 1, PercentBps: 0},
			{UserID: 2, PercentBps: 6666},
			{UserID: 3, PercentBps: 3334},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(0), out[0].AmountCents)

		var sum int64
		for _, o := range out {
			sum += o.AmountCents
		}
		assert.Equal(t, int64(101), sum)
	})

	t.Run("sum under 100 rejected", func(t *testing.T) {
		_, err := s.Calculate(1000, []Input{
			{UserID: 1, PercentBps: 5000},
			{UserID: 2, PercentBps: 4000},
		})
		assert.ErrorIs(t, err, ErrInvalidPercentages)
	})

	t.Run("percent out of range rejected", func(t *testing.T) {
		_, err := s.Calculate(1000, []Input{
			{UserID: 1, PercentBps: 10500},
			{UserID: 2, PercentBps: -500},
		})
		assert.ErrorIs(t, err, ErrPercentageBounds)
	})

	t.Run("duplicate participant", func(t *testing.T) {
		_, err := s.Calculate(1000, []Input{
			{UserID: 1, PercentBps: 5000},
			{UserID: 1, PercentBps: 5000},
		})
		assert.ErrorIs(t, err, ErrDuplicateUser)
	})
}

func TestFactory(t *testing.T) {
	f := NewFactory()

	even, err := f.Create(SplitTypeEven)
	require.NoError(t, err)
	assert.Equal(t, SplitTypeEven, even.Type())

	exact, err := f.Create(SplitTypeExact)
	require.NoError(t, err)
	assert.Equal(t, SplitTypeExact, exact.Type())

	percentage, err := f.Create(SplitTypePercentage)
	require.NoError(t, err)
	assert.Equal(t, SplitTypePercentage, percentage.Type())

	_, err = f.Create("WEIGHTED")
	assert.Error(t, err)
}
