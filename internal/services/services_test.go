package services

import (
	"context"
	"os"
	"testing"
	"time"

	"edenapp/internal/amount"
	"edenapp/internal/cache"
	"edenapp/internal/config"
	"edenapp/internal/database"
	"edenapp/internal/repositories"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

const (
	testTreasury = "treasury"
	testVault    = "staking_vault"
	testAdmin    = "admin"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	return c.now
}

func (c *testClock) advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func (c *testClock) advanceDays(days int64) {
	c.advance(time.Duration(days) * 24 * time.Hour)
}

type testEngine struct {
	db      *sqlx.DB
	clock   *testClock
	token   *TokenService
	access  *AccessService
	staking *StakingService
	basic   *BasicStakingService
	vesting *VestingService
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func testDB(t *testing.T) *sqlx.DB {
	t.Helper()
	psql, err := database.NewPostgres(&config.PostgresConfig{
		Host:     getenv("TEST_DB_HOST", "localhost"),
		Port:     getenv("TEST_DB_PORT", "5432"),
		User:     getenv("TEST_DB_USER", "postgres"),
		Password: getenv("TEST_DB_PASSWORD", "postgres"),
		DBName:   getenv("TEST_DB_NAME", "edenapp_test"),
	})
	if err != nil {
		t.Skip("database unreachable, skipping: ", err)
	}
	if err := psql.Ping(); err != nil {
		t.Skip("database unreachable, skipping: ", err)
	}
	require.NoError(t, psql.RunMigrations("../../migrations"))
	t.Cleanup(func() { psql.Close() })
	return psql.Db
}

func resetTables(t *testing.T, db *sqlx.DB) {
	t.Helper()
	_, err := db.Exec(`
		truncate balances, allowances, roles, stakes, operations, staking_periods;
		truncate basic_stakes, basic_staking_configs restart identity;
		truncate vesting_wallets, vesting_claims, vesting_pools restart identity;
		update staking_settings set
			basic_min_amount = 25000000000000,
			basic_max_amount = 2500000000000000,
			unstake_cooldown_secs = 604800,
			restake_interval_secs = 7776000,
			restake_enabled = false,
			add_funds_enabled = false
		where id = 1;
		update vesting_state set merkle_root = '', paused = true, cliff_start = 0 where id = 1;
	`)
	require.NoError(t, err)
}

// newTestEngine wires the full service graph against a clean database, a
// simulated clock and a funded treasury.
func newTestEngine(t *testing.T) *testEngine {
	t.Helper()
	db := testDB(t)
	resetTables(t, db)

	clock := &testClock{now: time.Unix(1_700_000_000, 0)}

	ledgerRepo := repositories.NewLedgerRepository(db)
	settingsRepo := repositories.NewSettingsRepository(db)
	periodRepo := repositories.NewPeriodRepository(db)
	stakeRepo := repositories.NewStakeRepository(db)
	basicRepo := repositories.NewBasicStakingRepository(db)
	vestingRepo := repositories.NewVestingRepository(db)
	roleRepo := repositories.NewRoleRepository(db)
	operationRepo := repositories.NewOperationRepository(db)

	var noCache *cache.Cache
	tokenService := NewTokenService(db, ledgerRepo)
	operationService := NewOperationService(operationRepo)
	accessService := NewAccessService(db, roleRepo, operationService)
	stakingService := NewStakingService(db, stakeRepo, settingsRepo, periodRepo,
		tokenService, accessService, operationService, noCache, testVault)
	basicService := NewBasicStakingService(db, basicRepo, settingsRepo,
		tokenService, accessService, operationService, noCache, testVault)
	vestingService := NewVestingService(db, vestingRepo, tokenService, accessService,
		operationService, testVault)

	stakingService.now = clock.Now
	basicService.now = clock.Now
	vestingService.now = clock.Now

	ctx := context.Background()
	require.NoError(t, tokenService.InitializeSupply(ctx, testTreasury, amount.FromEDEN(7_200_000_000)))
	require.NoError(t, accessService.Bootstrap(ctx, testAdmin))
	require.NoError(t, tokenService.Transfer(ctx, db, testTreasury, testVault, amount.FromEDEN(1_000_000_000)))

	return &testEngine{
		db:      db,
		clock:   clock,
		token:   tokenService,
		access:  accessService,
		staking: stakingService,
		basic:   basicService,
		vesting: vestingService,
	}
}

// fundAccount moves tokens from the treasury and pre-approves the vault.
func (e *testEngine) fundAccount(t *testing.T, account string, tokens int64) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.token.Transfer(ctx, e.db, testTreasury, account, amount.FromEDEN(tokens)))
	require.NoError(t, e.token.Approve(ctx, account, testVault, amount.FromEDEN(tokens)))
}

func (e *testEngine) seedTierSchedule(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	for _, band := range []struct{ days, bps int64 }{
		{30, 300}, {60, 450}, {92, 600}, {183, 900}, {365, 1200},
	} {
		require.NoError(t, e.staking.AddPeriod(ctx, testAdmin, band.days, band.bps))
	}
}

func (e *testEngine) balanceEDEN(t *testing.T, account string) float64 {
	t.Helper()
	bal, err := e.token.BalanceOf(context.Background(), account)
	require.NoError(t, err)
	return bal.ToEDEN()
}
