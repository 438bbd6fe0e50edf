// Package di provides dependency injection wiring and initialization.
package di

import (
	"github.com/esfolk/DefiHedge/internal/clients/yahoo"
	"github.com/esfolk/DefiHedge/internal/database"
	"github.com/esfolk/DefiHedge/internal/modules/prices"
	"github.com/esfolk/DefiHedge/internal/modules/risk"
	riskhandlers "github.com/esfolk/DefiHedge/internal/modules/risk/handlers"
	"github.com/esfolk/DefiHedge/internal/scheduler"
)

// Container holds all dependencies for the application. It is created by
// Wire and shared by the HTTP server and the CLI.
type Container struct {
	// Databases
	HistoryDB *database.DB // Raw daily closes downloaded from the price provider

	// Clients
	YahooClient *yahoo.Client

	// Price data
	HistoryStore *prices.HistoryStore
	PriceSource  *prices.CachedSource // Yahoo behind the history database
	Fetcher      *prices.Fetcher

	// Analysis
	Analyzer    *risk.Analyzer
	RiskHandler *riskhandlers.Handler
}

// JobInstances holds the registered background jobs
type JobInstances struct {
	Scheduler          *scheduler.Scheduler
	WarmPriceCache     *scheduler.WarmPriceCacheJob
	HistoryMaintenance *scheduler.HistoryMaintenanceJob
}

// Close releases the container's resources
func (c *Container) Close() error {
	if c.HistoryDB != nil {
		return c.HistoryDB.Close()
	}
	return nil
}
