// Package schedulers runs the periodic observability jobs. Jobs only read
// state; every mutation goes through a service operation.
package schedulers

import (
	"context"

	"edenapp/internal/config"
	"edenapp/internal/repositories"
	"edenapp/internal/services"

	"github.com/robfig/cron/v3"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var log = config.InitLogger()

var printer = message.NewPrinter(language.English)

// ReportStats logs a snapshot of the engine: vault balance, flexible
// positions and fixed-term pool utilisation.
func ReportStats(
	tokenService *services.TokenService,
	stakeRepo *repositories.StakeRepository,
	basicRepo *repositories.BasicStakingRepository,
	vault string) func() {
	return func() {
		ctx := context.Background()

		vaultBalance, err := tokenService.BalanceOf(ctx, vault)
		if err != nil {
			return
		}
		flexTotal, err := stakeRepo.TotalStaked(ctx)
		if err != nil {
			return
		}
		flexCount, err := stakeRepo.CountActive(ctx)
		if err != nil {
			return
		}
		basicTotal, err := basicRepo.TotalStaked(ctx)
		if err != nil {
			return
		}

		log.Info(printer.Sprintf("Vault balance: %.2f EDEN", vaultBalance.ToEDEN()))
		log.Info(printer.Sprintf("Flexible staking: %d positions, %.2f EDEN", flexCount, flexTotal.ToEDEN()))
		log.Info(printer.Sprintf("Fixed-term staking: %.2f EDEN locked", basicTotal.ToEDEN()))
	}
}

// Start schedules the stats report; spec is a standard cron expression.
func Start(spec string, job func()) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc(spec, job); err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}
