package prompt

import (
	"fmt"
	"strings"
)

// Topic selects the analysis page
type Topic string

const (
	TopicProfitability     Topic = "Profitability"
	TopicFinancialStanding Topic = "Financial Standing"
	TopicCashFlow          Topic = "Cash Flow"
	// TopicAll is only meaningful for the all-companies scope
	TopicAll Topic = "all"
)

// Scope selects which companies the analysis covers
type Scope string

const (
	ScopeCompany      Scope = "company"
	ScopeAllCompanies Scope = "all_companies"
)

// topicSpec lists what the model is asked to compute for a topic
type topicSpec struct {
	Topic    Topic
	KPIs     []string
	Formulas []string
	Charts   []string
}

var topicSpecs = []topicSpec{
	{
		Topic: TopicProfitability,
		KPIs:  []string{"Net Income", "Operating Margin %", "Return on Equity (ROE)"},
		Formulas: []string{
			"Operating Margin % = profitability.operating_income / profitability.revenue",
			"Return on Equity (ROE) = ratios.ReturnOnEquity",
		},
		Charts: []string{
			"line: profitability.revenue, profitability.gross_profit by quarter",
			"line: profitability.revenue, profitability.operating_income, profitability.net_income by quarter",
		},
	},
	{
		Topic: TopicFinancialStanding,
		KPIs:  []string{"Current Ratio", "Debt-to-Equity", "Equity Growth %"},
		Formulas: []string{
			"Current Ratio = balance_sheet.current_assets / balance_sheet.current_liabilities",
			"Debt-to-Equity = balance_sheet.long_term_debt / balance_sheet.shareholders_equity",
			"Equity Growth % = (shareholders_equity_t - shareholders_equity_t-1) / shareholders_equity_t-1",
		},
		Charts: []string{
			"area: balance_sheet.total_assets, balance_sheet.total_liabilities, balance_sheet.shareholders_equity by quarter",
			"line: balance_sheet.cash_and_equivalents by quarter",
		},
	},
	{
		Topic: TopicCashFlow,
		KPIs:  []string{"Free Cash Flow", "FCF Margin", "Earnings Quality"},
		Formulas: []string{
			"FCF Margin = cash_flow.free_cash_flow / profitability.revenue",
			"Earnings Quality = cash_flow.earnings_quality",
		},
		Charts: []string{
			"line: cash_flow.operating_cash_flow by quarter",
			"bar: cash_flow.capex vs cash_flow.operating_cash_flow by quarter",
		},
	},
}

// ParseTopic accepts the display names and their snake_case spellings
func ParseTopic(s string) (Topic, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.ReplaceAll(key, "_", " ")
	switch key {
	case "profitability":
		return TopicProfitability, nil
	case "financial standing", "balance sheet":
		return TopicFinancialStanding, nil
	case "cash flow":
		return TopicCashFlow, nil
	case "all", "":
		return TopicAll, nil
	}
	return "", fmt.Errorf("unknown topic %q", s)
}

// ParseScope accepts company, sector, all or all_companies
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "company":
		return ScopeCompany, nil
	case "all_companies", "all", "sector", "":
		return ScopeAllCompanies, nil
	}
	return "", fmt.Errorf("unknown scope %q", s)
}

func specsFor(topic Topic) []topicSpec {
	if topic == TopicAll {
		return topicSpecs
	}
	for _, s := range topicSpecs {
		if s.Topic == topic {
			return []topicSpec{s}
		}
	}
	return nil
}
