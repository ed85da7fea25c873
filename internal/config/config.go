package config

import (
	"os"
	"strconv"
	"strings"

	"edenapp/internal/amount"

	"github.com/joho/godotenv"
)

var log = InitLogger()

// TotalSupply is the fixed number of whole tokens ever in existence.
const TotalSupply int64 = 7_200_000_000

var (
	TreasuryAccount string
	VaultAccount    string
	AdminAccount    string
)

type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// TierBand is one entry of the bootstrap tier schedule.
type TierBand struct {
	DurationDays int64
	RateBps      int64
}

// PoolSeed is one bootstrap fixed-term pool.
type PoolSeed struct {
	DurationDays int64
	RateBps      int64
	MaxTotal     int64 // whole tokens
}

func InitConfig() error {
	err := godotenv.Load()
	if err != nil {
		log.Error("Error loading .env file")
	}

	TreasuryAccount = getEnv("TREASURY_ACCOUNT", "treasury")
	VaultAccount = getEnv("VAULT_ACCOUNT", "staking_vault")
	AdminAccount = os.Getenv("ADMIN_ACCOUNT")

	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func LoadPostgresConfig() *PostgresConfig {
	return &PostgresConfig{
		User:     os.Getenv("DB_USER"),
		Password: os.Getenv("DB_PASSWORD"),
		Host:     os.Getenv("DB_HOST"),
		Port:     os.Getenv("DB_PORT"),
		DBName:   os.Getenv("DB_NAME"),
	}
}

// LoadTierSchedule reads the bootstrap tier schedule from
// TIER_DAYS / TIER_RATES_BPS (comma-separated, positionally paired).
// Defaults to the launch schedule.
func LoadTierSchedule() []TierBand {
	days := parseInt64List(os.Getenv("TIER_DAYS"))
	rates := parseInt64List(os.Getenv("TIER_RATES_BPS"))
	if len(days) == 0 || len(days) != len(rates) {
		return []TierBand{
			{30, 300},
			{60, 450},
			{92, 600},
			{183, 900},
			{365, 1200},
		}
	}
	bands := make([]TierBand, len(days))
	for i := range days {
		bands[i] = TierBand{DurationDays: days[i], RateBps: rates[i]}
	}
	return bands
}

// LoadPoolSeeds reads the bootstrap fixed-term pools from
// POOL_DAYS / POOL_RATES_BPS / POOL_CAPS (whole tokens). Defaults to the
// launch pools.
func LoadPoolSeeds() []PoolSeed {
	days := parseInt64List(os.Getenv("POOL_DAYS"))
	rates := parseInt64List(os.Getenv("POOL_RATES_BPS"))
	caps := parseInt64List(os.Getenv("POOL_CAPS"))
	if len(days) == 0 || len(days) != len(rates) || len(days) != len(caps) {
		return []PoolSeed{
			{90, 2000, 10_000_000},
			{210, 3000, 30_000_000},
			{365, 4000, 50_000_000},
		}
	}
	seeds := make([]PoolSeed, len(days))
	for i := range days {
		seeds[i] = PoolSeed{DurationDays: days[i], RateBps: rates[i], MaxTotal: caps[i]}
	}
	return seeds
}

// LoadBasicBounds reads optional overrides for the fixed-term stake bounds
// from STAKING_MIN_AMOUNT / STAKING_MAX_AMOUNT (whole tokens, decimals
// allowed). Nil when unset.
func LoadBasicBounds() (min, max *amount.Amount) {
	return parseAmount("STAKING_MIN_AMOUNT"), parseAmount("STAKING_MAX_AMOUNT")
}

func parseAmount(key string) *amount.Amount {
	s := os.Getenv(key)
	if s == "" {
		return nil
	}
	a, err := amount.FromString(s)
	if err != nil {
		log.Error("Bad amount in ", key, ": ", err)
		return nil
	}
	return &a
}

func parseInt64List(s string) []int64 {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			log.Error("Bad numeric list entry: ", p)
			return nil
		}
		out = append(out, v)
	}
	return out
}
