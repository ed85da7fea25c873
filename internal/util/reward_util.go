package util

import (
	"math/big"

	"edenapp/internal/amount"
	"edenapp/internal/models"
)

const (
	DaysPerYear = 365
	BpsDenom    = 10000
	SecsPerDay  = 86400
)

// MulDiv computes a*num/den with big.Int intermediates, floored.
// Products of amount x days x bps do not fit int64.
func MulDiv(a amount.Amount, num, den int64) amount.Amount {
	if den == 0 {
		return 0
	}
	res := new(big.Int).Mul(big.NewInt(int64(a)), big.NewInt(num))
	res.Quo(res, big.NewInt(den))
	return amount.Amount(res.Int64())
}

// MulBps applies a basis-point rate, floored.
func MulBps(a amount.Amount, bps int64) amount.Amount {
	return MulDiv(a, bps, BpsDenom)
}

// CalculateReward walks the tier schedule over elapsedDays of staking.
// Every band contributes principal x days x rate / (365 x 10000), floored
// per band; the last band's rate extends indefinitely once the schedule
// is exhausted.
func CalculateReward(principal amount.Amount, elapsedDays int64, periods []models.StakingPeriod) amount.Amount {
	if principal <= 0 || elapsedDays <= 0 || len(periods) == 0 {
		return 0
	}

	var total amount.Amount
	remaining := elapsedDays
	for i, p := range periods {
		days := p.DurationDays
		if days > remaining || i == len(periods)-1 {
			days = remaining
		}
		if days <= 0 {
			break
		}
		total += MulDiv(principal, days*p.RateBps, DaysPerYear*BpsDenom)
		remaining -= days
		if remaining == 0 {
			break
		}
	}
	return total
}

// BasicReward is the flat fixed-term reward, applied once at maturity.
func BasicReward(staked amount.Amount, rateBps int64) amount.Amount {
	return MulBps(staked, rateBps)
}

// VestedAt evaluates the cliff-then-linear release curve for a vested
// principal at a unix timestamp. Non-decreasing in at.
func VestedAt(principal amount.Amount, cliffEnd, vestingEnd, at int64) amount.Amount {
	if at < cliffEnd {
		return 0
	}
	if at >= vestingEnd || vestingEnd <= cliffEnd {
		return principal
	}
	return MulDiv(principal, at-cliffEnd, vestingEnd-cliffEnd)
}

// ElapsedDays floors a seconds interval to whole days.
func ElapsedDays(fromUnix, toUnix int64) int64 {
	if toUnix <= fromUnix {
		return 0
	}
	return (toUnix - fromUnix) / SecsPerDay
}
