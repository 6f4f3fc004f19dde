package model

// Sector pairs an S&P sector tracker ticker with its display name.
type Sector struct {
	Ticker string
	Name   string
}

// Sectors lists the S&P 500 sector SPDR trackers.
var Sectors = []Sector{
	{"XLE", "Energy"},
	{"XLK", "Technology"},
	{"XLV", "Healthcare"},
	{"XLF", "Financials"},
	{"XLI", "Industrials"},
	{"XLB", "Materials"},
	{"XLU", "Utilities"},
	{"XLC", "Communication"},
	{"XLRE", "Real Estate"},
	{"XLY", "Consumer Discretionary"},
	{"XLP", "Consumer Staples"},
}

// SectorByTicker looks up a tracker.
func SectorByTicker(ticker string) (Sector, bool) {
	for _, s := range Sectors {
		if s.Ticker == ticker {
			return s, true
		}
	}
	return Sector{}, false
}
