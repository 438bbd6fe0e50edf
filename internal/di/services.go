package di

import (
	"github.com/rs/zerolog"

	"github.com/esfolk/DefiHedge/internal/clients/yahoo"
	"github.com/esfolk/DefiHedge/internal/config"
	"github.com/esfolk/DefiHedge/internal/modules/prices"
	"github.com/esfolk/DefiHedge/internal/modules/risk"
	riskhandlers "github.com/esfolk/DefiHedge/internal/modules/risk/handlers"
)

// InitializeServices builds the price pipeline and the analyzer on top of
// the container's databases.
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) {
	container.YahooClient = yahoo.NewClient(
		yahoo.WithBaseURL(cfg.YahooBaseURL),
		yahoo.WithTimeout(cfg.ExternalAPITimeout),
		yahoo.WithRateLimit(cfg.YahooRateLimit),
		yahoo.WithLogger(log),
	)

	container.HistoryStore = prices.NewHistoryStore(container.HistoryDB, log)
	container.PriceSource = prices.NewCachedSource(container.YahooClient, container.HistoryStore, cfg.PriceCacheTTL, log)
	container.Fetcher = prices.NewFetcher(container.PriceSource, log, prices.WithConcurrency(cfg.FetchConcurrency))

	container.Analyzer = risk.NewAnalyzer(container.Fetcher, log, risk.WithFrontierPoints(cfg.FrontierPoints))
	container.RiskHandler = riskhandlers.NewHandler(container.Analyzer, cfg.MinHoldingUSD, cfg.DefaultLookbackDays, log)
}
