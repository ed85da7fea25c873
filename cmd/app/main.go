package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"edenapp/internal/amount"
	"edenapp/internal/cache"
	"edenapp/internal/config"
	"edenapp/internal/database"
	"edenapp/internal/repositories"
	"edenapp/internal/schedulers"
	"edenapp/internal/services"
)

const statsCronSpec = "0 * * * *"

func main() {
	logger := config.InitLogger()
	if err := config.InitConfig(); err != nil {
		logger.Fatalf("Failed to init config: %v", err)
	}
	logger.Infoln("Config initialized")

	psql, err := database.NewPostgres(config.LoadPostgresConfig())
	if err != nil {
		logger.Fatal("Failed to connect to database: ", err)
	}
	defer psql.Close()

	if err := psql.Ping(); err != nil {
		logger.Fatal("Failed to ping database: ", err)
	}
	if err := psql.RunMigrations("migrations"); err != nil {
		logger.Fatal("Failed to run migrations: ", err)
	}
	logger.Infoln("Database initialized")

	rdb, err := database.InitRedisCli()
	if err != nil {
		logger.Warn("Redis unavailable, cache disabled: ", err)
	}
	c := cache.New(rdb)

	db := psql.Db
	ledgerRepo := repositories.NewLedgerRepository(db)
	settingsRepo := repositories.NewSettingsRepository(db)
	periodRepo := repositories.NewPeriodRepository(db)
	stakeRepo := repositories.NewStakeRepository(db)
	basicRepo := repositories.NewBasicStakingRepository(db)
	vestingRepo := repositories.NewVestingRepository(db)
	roleRepo := repositories.NewRoleRepository(db)
	operationRepo := repositories.NewOperationRepository(db)

	tokenService := services.NewTokenService(db, ledgerRepo)
	operationService := services.NewOperationService(operationRepo)
	accessService := services.NewAccessService(db, roleRepo, operationService)
	stakingService := services.NewStakingService(db, stakeRepo, settingsRepo, periodRepo,
		tokenService, accessService, operationService, c, config.VaultAccount)
	basicService := services.NewBasicStakingService(db, basicRepo, settingsRepo,
		tokenService, accessService, operationService, c, config.VaultAccount)
	vestingService := services.NewVestingService(db, vestingRepo, tokenService, accessService,
		operationService, config.VaultAccount)

	ctx := context.Background()
	if err := bootstrap(ctx, tokenService, accessService, stakingService, basicService); err != nil {
		logger.Fatal("Failed to bootstrap engine state: ", err)
	}
	logger.Infoln("Engine state bootstrapped")

	vestingState, err := vestingService.GetState(ctx)
	if err != nil {
		logger.Fatal("Failed to read vesting state: ", err)
	}
	logger.Infof("Vesting: paused=%t root_set=%t cliff_start=%d",
		vestingState.Paused, vestingState.MerkleRoot != "", vestingState.CliffStart)

	cronRunner, err := schedulers.Start(statsCronSpec,
		schedulers.ReportStats(tokenService, stakeRepo, basicRepo, config.VaultAccount))
	if err != nil {
		logger.Fatal("Failed to start scheduler: ", err)
	}
	defer cronRunner.Stop()

	logger.Infoln("Engine running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Infoln("Shutting down")
}

// bootstrap seeds the supply, the admin role, the tier schedule and the
// launch pools. Every step is a no-op when its state already exists; stake
// bounds are written only when overridden in the environment.
func bootstrap(
	ctx context.Context,
	tokenService *services.TokenService,
	accessService *services.AccessService,
	stakingService *services.StakingService,
	basicService *services.BasicStakingService) error {

	if err := tokenService.InitializeSupply(ctx, config.TreasuryAccount,
		amount.FromEDEN(config.TotalSupply)); err != nil {
		return err
	}
	if err := accessService.Bootstrap(ctx, config.AdminAccount); err != nil {
		return err
	}
	if config.AdminAccount == "" {
		return nil
	}

	periods, err := stakingService.GetPeriods(ctx)
	if err != nil {
		return err
	}
	if len(periods) == 0 {
		for _, band := range config.LoadTierSchedule() {
			if err := stakingService.AddPeriod(ctx, config.AdminAccount, band.DurationDays, band.RateBps); err != nil {
				return err
			}
		}
	}

	configs, err := basicService.GetConfigs(ctx)
	if err != nil {
		return err
	}
	if len(configs) == 0 {
		for _, seed := range config.LoadPoolSeeds() {
			if _, err := basicService.AddConfig(ctx, config.AdminAccount,
				seed.DurationDays, seed.RateBps, amount.FromEDEN(seed.MaxTotal)); err != nil {
				return err
			}
		}
	}

	minBound, maxBound := config.LoadBasicBounds()
	if minBound != nil {
		if err := basicService.SetMinAmount(ctx, config.AdminAccount, *minBound); err != nil {
			return err
		}
	}
	if maxBound != nil {
		if err := basicService.SetMaxAmount(ctx, config.AdminAccount, *maxBound); err != nil {
			return err
		}
	}
	return nil
}
