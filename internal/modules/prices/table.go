package prices

import (
	"math"
	"sort"
	"time"

	"github.com/esfolk/DefiHedge/internal/domain"
)

// MinColumnCoverage is the share of dates a symbol must have a close for to
// stay in the table.
const MinColumnCoverage = 0.8

// Exclusion reasons reported alongside a table
const (
	ReasonUnsupportedSymbol    = "unsupported_symbol"
	ReasonNoPriceData          = "no_price_data"
	ReasonInsufficientCoverage = "insufficient_coverage"
)

// ExcludedSymbol is a requested symbol that did not make it into the table
type ExcludedSymbol struct {
	Symbol string `json:"symbol"`
	Reason string `json:"reason"`
}

// Table is a dense date x symbol grid of positive closes. Dates are strictly
// increasing UTC days and Symbols are sorted. Every cell is populated.
type Table struct {
	Dates    []time.Time
	Symbols  []string
	Closes   [][]float64 // Closes[row][col]
	Excluded []ExcludedSymbol
}

// Rows returns the number of dates
func (t *Table) Rows() int {
	return len(t.Dates)
}

// Column returns a copy of the closes for column j
func (t *Table) Column(j int) []float64 {
	col := make([]float64, len(t.Closes))
	for i, row := range t.Closes {
		col[i] = row[j]
	}
	return col
}

// assembleTable aligns per-symbol series on the union of their dates, drops
// symbols with less than MinColumnCoverage non-missing closes, then drops
// every date on which any remaining symbol is missing.
func assembleTable(series map[string][]domain.DailyClose) *Table {
	symbols := make([]string, 0, len(series))
	dateSet := make(map[time.Time]struct{})
	for symbol, closes := range series {
		symbols = append(symbols, symbol)
		for _, c := range closes {
			dateSet[domain.TruncateToDay(c.Date)] = struct{}{}
		}
	}
	sort.Strings(symbols)

	dates := make([]time.Time, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	dateIndex := make(map[time.Time]int, len(dates))
	for i, d := range dates {
		dateIndex[d] = i
	}

	// Fill the grid with NaN for missing values
	grid := make([][]float64, len(symbols))
	for j, symbol := range symbols {
		col := make([]float64, len(dates))
		for i := range col {
			col[i] = math.NaN()
		}
		for _, c := range series[symbol] {
			if c.Close > 0 && !math.IsInf(c.Close, 0) {
				col[dateIndex[domain.TruncateToDay(c.Date)]] = c.Close
			}
		}
		grid[j] = col
	}

	table := &Table{}

	var keptCols []int
	for j, symbol := range symbols {
		present := 0
		for _, v := range grid[j] {
			if !math.IsNaN(v) {
				present++
			}
		}
		switch {
		case present == 0:
			table.Excluded = append(table.Excluded, ExcludedSymbol{Symbol: symbol, Reason: ReasonNoPriceData})
		case float64(present) < MinColumnCoverage*float64(len(dates)):
			table.Excluded = append(table.Excluded, ExcludedSymbol{Symbol: symbol, Reason: ReasonInsufficientCoverage})
		default:
			keptCols = append(keptCols, j)
			table.Symbols = append(table.Symbols, symbol)
		}
	}

	if len(keptCols) == 0 {
		return table
	}

	for i, d := range dates {
		row := make([]float64, len(keptCols))
		complete := true
		for k, j := range keptCols {
			v := grid[j][i]
			if math.IsNaN(v) {
				complete = false
				break
			}
			row[k] = v
		}
		if complete {
			table.Dates = append(table.Dates, d)
			table.Closes = append(table.Closes, row)
		}
	}

	return table
}
