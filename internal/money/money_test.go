package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToCents(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    int64
		wantErr error
	}{
		{name: "whole amount", in: "90", want: 9000},
		{name: "two decimals", in: "12.34", want: 1234},
		{name: "one decimal", in: "0.5", want: 50},
		{name: "trailing zeros", in: "10.500", want: 1050},
		{name: "sub-cent precision", in: "1.005", wantErr: ErrTooManyDecimals},
		{name: "zero", in: "0", want: 0},
		{name: "negative", in: "-3.25", want: -325},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := decimal.NewFromString(tt.in)
			require.NoError(t, err)

			cents, err := ToCents(d)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cents)
		})
	}
}

func TestPositiveCents(t *testing.T) {
	_, err := PositiveCents(decimal.Zero)
	assert.ErrorIs(t, err, ErrNotPositive)

	_, err = PositiveCents(decimal.NewFromFloat(-1))
	assert.ErrorIs(t, err, ErrNotPositive)

	cents, err := PositiveCents(decimal.RequireFromString("49.99"))
	require.NoError(t, err)
	assert.Equal(t, int64(4999), cents)
}

func TestNonNegativeCents(t *testing.T) {
	cents, err := NonNegativeCents(decimal.Zero)
	require.NoError(t, err)
	assert.Equal(t, int64(0), cents)

	_, err = NonNegativeCents(decimal.RequireFromString("-0.01"))
	assert.ErrorIs(t, err, ErrNegative)
}

func TestFromCents(t *testing.T) {
	assert.Equal(t, "12.34", FromCents(1234).StringFixed(2))
	assert.Equal(t, "0.00", FromCents(0).StringFixed(2))
}
