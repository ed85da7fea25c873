package amount

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAmount(t *testing.T) {
	a, err := NewAmount(1.5)
	require.NoError(t, err)
	assert.Equal(t, Amount(1_500_000_000), a)

	a, err = NewAmount(-0.000000001)
	require.NoError(t, err)
	assert.Equal(t, Amount(-1), a)

	_, err = NewAmount(math.NaN())
	assert.Error(t, err)
	_, err = NewAmount(math.Inf(1))
	assert.Error(t, err)
}

func TestFromString(t *testing.T) {
	a, err := FromString("25000")
	require.NoError(t, err)
	assert.Equal(t, FromEDEN(25_000), a)

	a, err = FromString("0.5")
	require.NoError(t, err)
	assert.Equal(t, Amount(500_000_000), a)

	_, err = FromString("not-a-number")
	assert.Error(t, err)
}

func TestConversions(t *testing.T) {
	a := FromEDEN(2_500_000)
	assert.Equal(t, int64(2_500_000*NanoEDEN), a.ToNano())
	assert.Equal(t, 2_500_000.0, a.ToEDEN())
	assert.Equal(t, 2.5, a.ToUnit(MegaEDEN))
	assert.Equal(t, 2_500_000_000.0, a.ToUnit(MilliEDEN))
}

func TestFormat(t *testing.T) {
	a := FromEDEN(1) + 500_000_000
	assert.Equal(t, "1.5 EDEN", a.String())
	assert.Equal(t, "1500 mEDEN", a.Format(MilliEDEN))
}
