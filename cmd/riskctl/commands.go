package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/esfolk/DefiHedge/internal/config"
	"github.com/esfolk/DefiHedge/internal/di"
	"github.com/esfolk/DefiHedge/internal/domain"
	"github.com/esfolk/DefiHedge/internal/modules/prices"
	"github.com/esfolk/DefiHedge/internal/modules/risk"
	"github.com/esfolk/DefiHedge/pkg/logger"
)

// analyzer runs one analysis. *risk.Analyzer implements it.
type analyzer interface {
	Analyze(ctx context.Context, holdings domain.Holdings, lookbackDays int) (*risk.AnalysisResult, error)
}

// app carries the state shared by the commands
type app struct {
	out    io.Writer
	errOut io.Writer
	cfg    *config.Config
	log    zerolog.Logger

	// openAnalyzer builds the analyzer and returns a cleanup func
	openAnalyzer func(a *app) (analyzer, func(), error)
	// runWarm refreshes the price cache once
	runWarm func(a *app) error
}

func newApp(out, errOut io.Writer) *app {
	return &app{
		out:          out,
		errOut:       errOut,
		log:          zerolog.Nop(),
		openAnalyzer: wiredAnalyzer,
		runWarm:      wiredWarm,
	}
}

func wiredAnalyzer(a *app) (analyzer, func(), error) {
	container, _, err := di.Wire(a.cfg, a.log)
	if err != nil {
		return nil, nil, err
	}
	return container.Analyzer, func() { container.Close() }, nil
}

func wiredWarm(a *app) error {
	container, jobs, err := di.Wire(a.cfg, a.log)
	if err != nil {
		return err
	}
	defer container.Close()
	return jobs.WarmPriceCache.Run()
}

func newRootCmd(a *app) *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:           "riskctl",
		Short:         "Portfolio risk analysis for crypto holdings",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			a.cfg = cfg
			a.log = logger.New(logger.Config{Level: logLevel, Pretty: true, Output: a.errOut})
			return nil
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(newAnalyzeCmd(a), newSymbolsCmd(a), newWarmCmd(a))
	return root
}

func newAnalyzeCmd(a *app) *cobra.Command {
	var (
		holdingFlags []string
		lookback     int
		compact      bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a portfolio given as --holding SYMBOL=USD pairs",
		Example: `  riskctl analyze --holding ETH=7500 --holding USDC=2500
  riskctl analyze --holding BTC=1000 --holding SOL=250 --lookback 90`,
		RunE: func(cmd *cobra.Command, args []string) error {
			holdings, err := parseHoldings(holdingFlags)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("lookback") {
				lookback = a.cfg.DefaultLookbackDays
			}

			material := make(domain.Holdings, len(holdings))
			for symbol, value := range holdings {
				if value < a.cfg.MinHoldingUSD {
					fmt.Fprintf(a.errOut, "skipping %s: %.2f USD is below the %.2f USD minimum\n", symbol, value, a.cfg.MinHoldingUSD)
					continue
				}
				material[symbol] = value
			}
			if len(material) == 0 {
				return fmt.Errorf("no holdings worth at least %.2f USD", a.cfg.MinHoldingUSD)
			}

			an, cleanup, err := a.openAnalyzer(a)
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := an.Analyze(cmd.Context(), material, lookback)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(a.out)
			if !compact {
				enc.SetIndent("", "  ")
			}
			return enc.Encode(result)
		},
	}

	cmd.Flags().StringArrayVar(&holdingFlags, "holding", nil, "holding as SYMBOL=USD (repeatable)")
	cmd.Flags().IntVar(&lookback, "lookback", 365, "lookback window in days (30-1095)")
	cmd.Flags().BoolVar(&compact, "compact", false, "print compact JSON")
	_ = cmd.MarkFlagRequired("holding")

	return cmd
}

func newSymbolsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "symbols",
		Short: "List supported symbols and their price tickers",
		RunE: func(cmd *cobra.Command, args []string) error {
			tickers := prices.SupportedTickers()
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SYMBOL\tTICKER")
			for _, symbol := range prices.SupportedSymbols() {
				fmt.Fprintf(tw, "%s\t%s\n", symbol, tickers[symbol])
			}
			return tw.Flush()
		},
	}
}

func newWarmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "warm",
		Short: "Download the full history of every supported ticker into the price cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.runWarm(a); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "price cache warmed")
			return nil
		},
	}
}

// parseHoldings parses SYMBOL=USD pairs. Symbols are kept as given.
func parseHoldings(pairs []string) (domain.Holdings, error) {
	holdings := make(domain.Holdings, len(pairs))
	for _, pair := range pairs {
		symbol, raw, ok := strings.Cut(pair, "=")
		symbol = strings.TrimSpace(symbol)
		if !ok || symbol == "" {
			return nil, fmt.Errorf("invalid holding %q, expected SYMBOL=USD", pair)
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil || value <= 0 || math.IsInf(value, 0) || math.IsNaN(value) {
			return nil, fmt.Errorf("invalid USD value in holding %q", pair)
		}
		if _, dup := holdings[symbol]; dup {
			return nil, fmt.Errorf("duplicate holding %s", symbol)
		}
		holdings[symbol] = value
	}
	return holdings, nil
}
