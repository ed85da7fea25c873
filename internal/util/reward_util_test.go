package util

import (
	"math"
	"testing"

	"edenapp/internal/amount"
	"edenapp/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func launchSchedule() []models.StakingPeriod {
	return []models.StakingPeriod{
		{Position: 0, DurationDays: 30, RateBps: 300},
		{Position: 1, DurationDays: 60, RateBps: 450},
		{Position: 2, DurationDays: 92, RateBps: 600},
		{Position: 3, DurationDays: 183, RateBps: 900},
		{Position: 4, DurationDays: 365, RateBps: 1200},
	}
}

func TestCalculateReward(t *testing.T) {
	principal := amount.FromEDEN(800_000)
	periods := launchSchedule()

	cases := []struct {
		days     int64
		expected float64
	}{
		{20, 1315},
		{80, 6904},
		{100, 9205},
		{150, 15781},
		{220, 27485},
		{350, 53129},
		{400, 65293},
		{800, 170499},
	}
	for _, c := range cases {
		reward := CalculateReward(principal, c.days, periods)
		assert.Equal(t, c.expected, math.Round(reward.ToEDEN()), "days=%d", c.days)
	}
}

func TestCalculateRewardLastBandExtends(t *testing.T) {
	principal := amount.FromEDEN(800_000)
	periods := launchSchedule()

	// past the schedule every further day accrues at the last band's rate
	base := CalculateReward(principal, 730, periods)
	extended := CalculateReward(principal, 731, periods)
	perDay := MulDiv(principal, 1200, DaysPerYear*BpsDenom)
	assert.Equal(t, perDay, extended-base)
}

func TestCalculateRewardZeroCases(t *testing.T) {
	periods := launchSchedule()

	assert.Equal(t, amount.Amount(0), CalculateReward(amount.FromEDEN(800_000), 0, periods))
	assert.Equal(t, amount.Amount(0), CalculateReward(0, 100, periods))
	assert.Equal(t, amount.Amount(0), CalculateReward(amount.FromEDEN(800_000), 100, nil))
}

func TestCalculateRewardIsSumOfBands(t *testing.T) {
	principal := amount.FromEDEN(123_457)
	periods := launchSchedule()

	// 100 days = full first band, full second band, 10 days of the third
	var expected amount.Amount
	expected += MulDiv(principal, 30*300, DaysPerYear*BpsDenom)
	expected += MulDiv(principal, 60*450, DaysPerYear*BpsDenom)
	expected += MulDiv(principal, 10*600, DaysPerYear*BpsDenom)
	assert.Equal(t, expected, CalculateReward(principal, 100, periods))
}

func TestBasicReward(t *testing.T) {
	assert.Equal(t, amount.FromEDEN(400_000), BasicReward(amount.FromEDEN(2_000_000), 2000))
	assert.Equal(t, amount.Amount(0), BasicReward(0, 2000))
}

func TestVestedAt(t *testing.T) {
	principal := amount.FromEDEN(95_000)
	cliffEnd := int64(1_000_000)
	vestingEnd := cliffEnd + 365*SecsPerDay

	assert.Equal(t, amount.Amount(0), VestedAt(principal, cliffEnd, vestingEnd, cliffEnd-1))
	assert.Equal(t, principal, VestedAt(principal, cliffEnd, vestingEnd, vestingEnd))
	assert.Equal(t, principal, VestedAt(principal, cliffEnd, vestingEnd, vestingEnd+SecsPerDay))

	quarter := VestedAt(principal, cliffEnd, vestingEnd, cliffEnd+365*SecsPerDay/4)
	assert.Equal(t, amount.FromEDEN(23_750), quarter)

	half := VestedAt(principal, cliffEnd, vestingEnd, cliffEnd+365*SecsPerDay/2)
	assert.Equal(t, amount.FromEDEN(47_500), half)
}

func TestVestedAtMonotonic(t *testing.T) {
	principal := amount.FromEDEN(100_000)
	cliffEnd := int64(500_000)
	vestingEnd := cliffEnd + 180*SecsPerDay

	prev := amount.Amount(-1)
	for at := cliffEnd - SecsPerDay; at <= vestingEnd+SecsPerDay; at += 3600 {
		v := VestedAt(principal, cliffEnd, vestingEnd, at)
		require.GreaterOrEqual(t, v, prev)
		prev = v
	}
}

func TestVestedAtDegenerateWindow(t *testing.T) {
	principal := amount.FromEDEN(10_000)
	// zero-length vesting window releases everything at the cliff
	assert.Equal(t, principal, VestedAt(principal, 100, 100, 100))
	assert.Equal(t, amount.Amount(0), VestedAt(principal, 100, 100, 99))
}

func TestElapsedDays(t *testing.T) {
	assert.Equal(t, int64(0), ElapsedDays(100, 100))
	assert.Equal(t, int64(0), ElapsedDays(200, 100))
	assert.Equal(t, int64(0), ElapsedDays(0, SecsPerDay-1))
	assert.Equal(t, int64(1), ElapsedDays(0, SecsPerDay))
	assert.Equal(t, int64(91), ElapsedDays(0, 91*SecsPerDay+3600))
}

func TestMulDiv(t *testing.T) {
	// product overflows int64, quotient does not
	principal := amount.FromEDEN(7_000_000_000)
	res := MulDiv(principal, 365*1200, DaysPerYear*BpsDenom)
	assert.Equal(t, amount.FromEDEN(840_000_000), res)

	assert.Equal(t, amount.Amount(0), MulDiv(principal, 1, 0))
}
