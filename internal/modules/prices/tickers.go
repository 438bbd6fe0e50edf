// Package prices turns portfolio symbols into an aligned table of daily closes.
package prices

import "sort"

// tickers maps supported asset symbols to price provider tickers.
// Matching is exact and case-sensitive.
var tickers = map[string]string{
	"ETH":   "ETH-USD",
	"BTC":   "BTC-USD",
	"USDC":  "USDC-USD",
	"USDT":  "USDT-USD",
	"MATIC": "MATIC-USD",
	"AVAX":  "AVAX-USD",
	"SOL":   "SOL-USD",
	"DOT":   "DOT-USD",
	"LINK":  "LINK-USD",
	"UNI":   "UNI-USD",
	"AAVE":  "AAVE-USD",
	"COMP":  "COMP-USD",
	"MKR":   "MKR-USD",
	"YFI":   "YFI-USD",
	"SUSHI": "SUSHI-USD",
}

// TickerFor returns the provider ticker for a symbol
func TickerFor(symbol string) (string, bool) {
	t, ok := tickers[symbol]
	return t, ok
}

// SupportedSymbols returns every mappable symbol, sorted
func SupportedSymbols() []string {
	symbols := make([]string, 0, len(tickers))
	for s := range tickers {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}

// SupportedTickers returns a copy of the symbol -> ticker table
func SupportedTickers() map[string]string {
	out := make(map[string]string, len(tickers))
	for s, t := range tickers {
		out[s] = t
	}
	return out
}
