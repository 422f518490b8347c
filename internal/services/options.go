package services

import (
	"context"
	"fmt"

	"etfseasonal/internal/period"
)

// Tab identifies one dashboard view.
type Tab string

const (
	TabPrice    Tab = "price"
	TabVolume   Tab = "volume"
	TabHoliday  Tab = "holiday"
	TabTWW      Tab = "tww"
	TabSpecial  Tab = "special"
	TabEconomic Tab = "economic"
)

// TabInfo names a tab for selectors.
type TabInfo struct {
	ID    Tab    `json:"id"`
	Title string `json:"title"`
}

// Tabs lists the dashboard tabs in display order.
var Tabs = []TabInfo{
	{TabPrice, "Price Difference"},
	{TabVolume, "Average Volume Trend"},
	{TabHoliday, "Price Difference During Holiday Period"},
	{TabTWW, "Price Difference During TWW Period"},
	{TabSpecial, "Price Difference During Special Period"},
	{TabEconomic, "Economic Data From FRED"},
}

// ParseTab validates a tab identifier.
func ParseTab(s string) (Tab, error) {
	for _, t := range Tabs {
		if string(t.ID) == s {
			return t.ID, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTab, s)
}

// needsTicker reports whether the tab reads per-ticker collections.
func (t Tab) needsTicker() bool {
	return t != TabEconomic
}

// SeriesGroup is a named set of FRED series offered together.
type SeriesGroup struct {
	Name   string   `json:"name"`
	Label  string   `json:"label"`
	Series []string `json:"series"`
}

// SeriesGroups lists the FRED series groups in selector order.
var SeriesGroups = []SeriesGroup{
	{Name: "employment", Series: []string{"unemploy", "unemployNat", "participation", "popGrowth_YoY"}},
	{Name: "household", Series: []string{"pDispIncome_YoY", "pConsumeExp_YoY", "pConsumeExpReal_YoY", "pSaveRatio", "mortgageDebt", "consumeDebt"}},
	{Name: "manufacture_and_business", Series: []string{
		"indusProduce", "capacUtilise", "manufactProduce", "manufactNewOrderExDef", "manufactNewOrderExTrans",
		"onlineSales_YoY", "onlineSalesRatio", "retailSales_YoY", "retailSalesAdv_YoY", "vehicleSales_YoY",
		"businessInventory_YoY", "businessInventorySalesRatio", "manufactInventorySalesRatio", "retailInventorySalesRatio",
	}},
	{Name: "housing", Series: []string{"houseStarts", "houseStarts_YoY", "newHomeSales", "newHomeSales_YoY", "existHomeSales", "houseInventoryEst"}},
	{Name: "gov_fiscal", Series: []string{"govFiscalBudget", "usGDP_YoY", "usGDPReal_YoY", "govBudgetGDP"}},
	{Name: "fed_monetary", Series: []string{
		"fedFFR", "mortgageRate30Yr", "mortgageRate15Yr", "primeLoanRate", "libor3mth",
		"excessReserveDepo", "liqM1_YoY", "veloM1", "liqM2_YoY", "veloM2",
	}},
	{Name: "forex_trade", Series: []string{"tradeBalance", "tradeIndexUSD", "forexUS_CHINA"}},
	{Name: "price", Series: []string{
		"usGDP_deflator_YoY", "pConsume_deflator_YoY", "producerPPI", "producerPPI_YoY",
		"caseShillerHPI", "caseShillerHPI_YoY", "nonFarm_unitLabour", "nonFarm_unitLabour_YoY",
	}},
	{Name: "debt", Series: []string{"houseDebt", "govDebt_GDP_ratio", "houseDebt_GDP_ratio"}},
	{Name: "bond_yield", Series: []string{"yield10Yr_minusFFR", "yield10Yr_minus2Yr"}},
}

func init() {
	for i := range SeriesGroups {
		SeriesGroups[i].Label = period.Title(SeriesGroups[i].Name)
	}
}

// MaxEconomicCharts is the most charts the economic tab draws.
const MaxEconomicCharts = 3

// LookupGroup returns the named series group.
func LookupGroup(name string) (SeriesGroup, error) {
	for _, g := range SeriesGroups {
		if g.Name == name {
			return g, nil
		}
	}
	return SeriesGroup{}, fmt.Errorf("%w: %q", ErrUnknownGroup, name)
}

// DefaultSeries returns the initial chart selection of a group: one series
// per chart, in group order, for up to MaxEconomicCharts charts.
func (g SeriesGroup) DefaultSeries() [][]string {
	n := min(len(g.Series), MaxEconomicCharts)
	out := make([][]string, n)
	for i := 0; i < n; i++ {
		out[i] = []string{g.Series[i]}
	}
	return out
}

// Has reports whether the group contains series.
func (g SeriesGroup) Has(series string) bool {
	for _, s := range g.Series {
		if s == series {
			return true
		}
	}
	return false
}

// Choice is one selector entry.
type Choice struct {
	Value string `json:"value"`
	Label string `json:"label"`
	// Min and Max bound the period selector that goes with the entry.
	Min int `json:"min,omitempty"`
	Max int `json:"max,omitempty"`
}

// Options is the selector metadata of the dashboard.
type Options struct {
	Tabs           []TabInfo     `json:"tabs"`
	Categories     []string      `json:"categories"`
	YearRanges     []Choice      `json:"year_ranges"`
	Frequencies    []Choice      `json:"frequencies"`
	Holidays       []Choice      `json:"holidays"`
	TWWPeriods     []Choice      `json:"tww_periods"`
	SpecialPeriods []Choice      `json:"special_periods"`
	SeriesGroups   []SeriesGroup `json:"series_groups"`
	EconomicStart  string        `json:"economic_start"`
	EconomicEnd    string        `json:"economic_end"`
}

func familyChoices(families []period.Family) []Choice {
	out := make([]Choice, len(families))
	for i, f := range families {
		c := Choice{Value: string(f), Label: period.Title(string(f))}
		if lo, hi, ok := period.Bounds(f); ok {
			c.Min, c.Max = lo, hi
		}
		out[i] = c
	}
	return out
}

func nameChoices(names []string) []Choice {
	out := make([]Choice, len(names))
	for i, n := range names {
		out[i] = Choice{Value: n, Label: period.Title(n)}
	}
	return out
}

// Options returns the selector metadata.
func (s *DashboardService) Options(ctx context.Context) Options {
	years := make([]Choice, len(period.YearRanges))
	for i, yr := range period.YearRanges {
		years[i] = Choice{Value: string(yr), Label: period.Title(string(yr))}
	}
	r := s.defaultRange()
	return Options{
		Tabs:           Tabs,
		Categories:     s.locator.Categories(),
		YearRanges:     years,
		Frequencies:    familyChoices(period.Frequencies),
		Holidays:       nameChoices(period.Holidays),
		TWWPeriods:     nameChoices(period.TWWPeriods),
		SpecialPeriods: familyChoices(period.SpecialPeriods),
		SeriesGroups:   SeriesGroups,
		EconomicStart:  r.Start.Format(dateLayout),
		EconomicEnd:    r.End.Format(dateLayout),
	}
}

// Tickers lists the tickers of a category.
func (s *DashboardService) Tickers(ctx context.Context, category string) ([]string, error) {
	if !s.locator.HasCategory(category) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	return s.locator.Tickers(ctx, category), nil
}
