package domain

import "math"

// Float returns a pointer to v. It is the constructor for a known metric.
func Float(v float64) *float64 {
	return &v
}

// Known reports whether a metric pointer holds a finite value.
func Known(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}

// ValueOr returns the metric value or NaN when absent.
func ValueOr(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

// Profitability holds income statement facts for one period
type Profitability struct {
	Revenue         *float64 `json:"Revenue,omitempty"`
	GrossProfit     *float64 `json:"GrossProfit,omitempty"`
	OperatingIncome *float64 `json:"OperatingIncome,omitempty"`
	NetIncome       *float64 `json:"NetIncome,omitempty"`
	EPSBasic        *float64 `json:"EPS_Basic,omitempty"`
}

// BalanceSheet holds balance sheet facts for one period
type BalanceSheet struct {
	CashAndEquivalents *float64 `json:"CashAndEquivalents,omitempty"`
	TotalAssets        *float64 `json:"TotalAssets,omitempty"`
	TotalLiabilities   *float64 `json:"TotalLiabilities,omitempty"`
	ShareholdersEquity *float64 `json:"ShareholdersEquity,omitempty"`
	LongTermDebt       *float64 `json:"LongTermDebt,omitempty"`
	CurrentAssets      *float64 `json:"CurrentAssets,omitempty"`
	CurrentLiabilities *float64 `json:"CurrentLiabilities,omitempty"`
}

// CashFlow holds cash flow facts and the two derived cash metrics
type CashFlow struct {
	OperatingCashFlow *float64 `json:"OperatingCashFlow,omitempty"`
	CapEx             *float64 `json:"CapEx,omitempty"`
	FreeCashFlow      *float64 `json:"FreeCashFlow,omitempty"`
	EarningsQuality   *float64 `json:"EarningsQuality,omitempty"`
}

// CleanedPeriod is the normalized record for one (company, period) pair.
// A nil metric means the value is unknown; the canonical encoding omits it.
type CleanedPeriod struct {
	Profitability Profitability `json:"profitability"`
	BalanceSheet  BalanceSheet  `json:"balance_sheet"`
	CashFlow      CashFlow      `json:"cash_flow"`
}

// IsEmpty reports whether no metric at all is known.
func (p CleanedPeriod) IsEmpty() bool {
	for _, v := range p.metrics() {
		if v != nil {
			return false
		}
	}
	return true
}

// Clone returns a deep copy so callers never share metric pointers.
func (p CleanedPeriod) Clone() CleanedPeriod {
	c := func(v *float64) *float64 {
		if v == nil {
			return nil
		}
		return Float(*v)
	}
	return CleanedPeriod{
		Profitability: Profitability{
			Revenue:         c(p.Profitability.Revenue),
			GrossProfit:     c(p.Profitability.GrossProfit),
			OperatingIncome: c(p.Profitability.OperatingIncome),
			NetIncome:       c(p.Profitability.NetIncome),
			EPSBasic:        c(p.Profitability.EPSBasic),
		},
		BalanceSheet: BalanceSheet{
			CashAndEquivalents: c(p.BalanceSheet.CashAndEquivalents),
			TotalAssets:        c(p.BalanceSheet.TotalAssets),
			TotalLiabilities:   c(p.BalanceSheet.TotalLiabilities),
			ShareholdersEquity: c(p.BalanceSheet.ShareholdersEquity),
			LongTermDebt:       c(p.BalanceSheet.LongTermDebt),
			CurrentAssets:      c(p.BalanceSheet.CurrentAssets),
			CurrentLiabilities: c(p.BalanceSheet.CurrentLiabilities),
		},
		CashFlow: CashFlow{
			OperatingCashFlow: c(p.CashFlow.OperatingCashFlow),
			CapEx:             c(p.CashFlow.CapEx),
			FreeCashFlow:      c(p.CashFlow.FreeCashFlow),
			EarningsQuality:   c(p.CashFlow.EarningsQuality),
		},
	}
}

func (p CleanedPeriod) metrics() []*float64 {
	return []*float64{
		p.Profitability.Revenue, p.Profitability.GrossProfit, p.Profitability.OperatingIncome,
		p.Profitability.NetIncome, p.Profitability.EPSBasic,
		p.BalanceSheet.CashAndEquivalents, p.BalanceSheet.TotalAssets, p.BalanceSheet.TotalLiabilities,
		p.BalanceSheet.ShareholdersEquity, p.BalanceSheet.LongTermDebt, p.BalanceSheet.CurrentAssets,
		p.BalanceSheet.CurrentLiabilities,
		p.CashFlow.OperatingCashFlow, p.CashFlow.CapEx, p.CashFlow.FreeCashFlow, p.CashFlow.EarningsQuality,
	}
}

// RatiosBlock is the latest valuation snapshot of a company. Unknown values
// are written as null.
type RatiosBlock struct {
	PERatio        *float64 `json:"PE_Ratio"`
	PEGRatio       *float64 `json:"PEG_Ratio"`
	PriceToBook    *float64 `json:"PriceToBook"`
	ProfitMargin   *float64 `json:"ProfitMargin"`
	ReturnOnAssets *float64 `json:"ReturnOnAssets"`
	ReturnOnEquity *float64 `json:"ReturnOnEquity"`
	DividendYield  *float64 `json:"DividendYield"`
}

// Clone returns a value copy that shares no pointers with r.
func (r RatiosBlock) Clone() RatiosBlock {
	c := func(v *float64) *float64 {
		if v == nil {
			return nil
		}
		return Float(*v)
	}
	return RatiosBlock{
		PERatio:        c(r.PERatio),
		PEGRatio:       c(r.PEGRatio),
		PriceToBook:    c(r.PriceToBook),
		ProfitMargin:   c(r.ProfitMargin),
		ReturnOnAssets: c(r.ReturnOnAssets),
		ReturnOnEquity: c(r.ReturnOnEquity),
		DividendYield:  c(r.DividendYield),
	}
}

// CompanyProfile carries the identity fields of a company overview
type CompanyProfile struct {
	Symbol               string   `json:"symbol"`
	Name                 string   `json:"name,omitempty"`
	CIK                  string   `json:"cik,omitempty"`
	Exchange             string   `json:"exchange,omitempty"`
	Sector               string   `json:"sector,omitempty"`
	Industry             string   `json:"industry,omitempty"`
	FiscalYearEnd        string   `json:"fiscal_year_end,omitempty"`
	Country              string   `json:"country,omitempty"`
	MarketCapitalization *float64 `json:"market_capitalization,omitempty"`
}
