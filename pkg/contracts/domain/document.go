package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// DocumentIndent is the indentation of the persisted sector document
const DocumentIndent = "    "

// SectorDocument is the canonical consolidated artifact:
//
//	{"<sector>": [{"<symbol>": [{"<year>": [{"<quarter>": {...}}], "ratios": {...}}]}]}
//
// The Go form is ordered; the list-of-singleton-objects shape only exists in
// the JSON codec below.
type SectorDocument struct {
	Sectors []Sector
}

// Sector groups the companies filed under one sector name
type Sector struct {
	Name      string
	Companies []CompanyEntry
}

// CompanyEntry is one company's consolidated history
type CompanyEntry struct {
	Symbol string
	Years  []YearBlock
}

// YearBlock holds the quarters of one year plus the company ratio snapshot
type YearBlock struct {
	Year     int
	Quarters []QuarterEntry
	Ratios   RatiosBlock
}

// QuarterEntry binds a quarter number (1-4) to its cleaned metrics
type QuarterEntry struct {
	Quarter int
	Period  CleanedPeriod
}

// Sector returns the named sector, if present.
func (d SectorDocument) Sector(name string) (Sector, bool) {
	for _, s := range d.Sectors {
		if s.Name == name {
			return s, true
		}
	}
	return Sector{}, false
}

// SectorNames lists sector names in document order.
func (d SectorDocument) SectorNames() []string {
	names := make([]string, 0, len(d.Sectors))
	for _, s := range d.Sectors {
		names = append(names, s.Name)
	}
	return names
}

// CompanyCount returns the number of company entries across all sectors.
func (d SectorDocument) CompanyCount() int {
	n := 0
	for _, s := range d.Sectors {
		n += len(s.Companies)
	}
	return n
}

// Filter returns a document restricted to one sector and optionally one company.
// An empty sector keeps every sector.
func (d SectorDocument) Filter(sector, symbol string) SectorDocument {
	out := SectorDocument{}
	for _, s := range d.Sectors {
		if sector != "" && s.Name != sector {
			continue
		}
		kept := Sector{Name: s.Name}
		for _, c := range s.Companies {
			if symbol != "" && c.Symbol != symbol {
				continue
			}
			kept.Companies = append(kept.Companies, c)
		}
		if len(kept.Companies) > 0 {
			out.Sectors = append(out.Sectors, kept)
		}
	}
	return out
}

// EncodeDocument renders the document the way it is persisted.
func EncodeDocument(doc SectorDocument) ([]byte, error) {
	return json.MarshalIndent(doc, "", DocumentIndent)
}

// DecodeDocument parses a persisted document, keeping key order.
func DecodeDocument(data []byte) (SectorDocument, error) {
	var doc SectorDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return SectorDocument{}, err
	}
	return doc, nil
}

// MarshalJSON writes the sectors as one ordered object.
func (d SectorDocument) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, s := range d.Sectors {
		if i > 0 {
			buf.WriteByte(',')
		}
		companies := s.Companies
		if companies == nil {
			companies = []CompanyEntry{}
		}
		if err := writeMember(&buf, s.Name, companies); err != nil {
			return nil, fmt.Errorf("sector %q: %w", s.Name, err)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads sectors in file order.
func (d *SectorDocument) UnmarshalJSON(data []byte) error {
	d.Sectors = nil
	return decodeObject(data, func(key string, raw json.RawMessage) error {
		var companies []CompanyEntry
		if err := json.Unmarshal(raw, &companies); err != nil {
			return fmt.Errorf("sector %q: %w", key, err)
		}
		d.Sectors = append(d.Sectors, Sector{Name: key, Companies: companies})
		return nil
	})
}

// MarshalJSON writes {"<symbol>": [YearBlock...]}.
func (c CompanyEntry) MarshalJSON() ([]byte, error) {
	years := c.Years
	if years == nil {
		years = []YearBlock{}
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	if err := writeMember(&buf, c.Symbol, years); err != nil {
		return nil, fmt.Errorf("company %q: %w", c.Symbol, err)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON expects exactly one symbol key.
func (c *CompanyEntry) UnmarshalJSON(data []byte) error {
	seen := 0
	err := decodeObject(data, func(key string, raw json.RawMessage) error {
		seen++
		if seen > 1 {
			return fmt.Errorf("company entry holds more than one symbol (%q)", key)
		}
		c.Symbol = key
		return json.Unmarshal(raw, &c.Years)
	})
	if err != nil {
		return err
	}
	if seen == 0 {
		return fmt.Errorf("company entry is empty")
	}
	return nil
}

// MarshalJSON writes {"<year>": [quarters...], "ratios": {...}}.
func (y YearBlock) MarshalJSON() ([]byte, error) {
	quarters := y.Quarters
	if quarters == nil {
		quarters = []QuarterEntry{}
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	if err := writeMember(&buf, strconv.Itoa(y.Year), quarters); err != nil {
		return nil, err
	}
	buf.WriteByte(',')
	if err := writeMember(&buf, "ratios", y.Ratios); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads one year key and the ratios pseudo-key.
func (y *YearBlock) UnmarshalJSON(data []byte) error {
	years := 0
	return decodeObject(data, func(key string, raw json.RawMessage) error {
		if key == "ratios" {
			return json.Unmarshal(raw, &y.Ratios)
		}
		year, err := strconv.Atoi(key)
		if err != nil {
			return fmt.Errorf("invalid year key %q", key)
		}
		years++
		if years > 1 {
			return fmt.Errorf("year block holds more than one year (%d)", year)
		}
		y.Year = year
		return json.Unmarshal(raw, &y.Quarters)
	})
}

// MarshalJSON writes {"<quarter>": metrics} with explicit nulls.
func (q QuarterEntry) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if err := writeMember(&buf, strconv.Itoa(q.Quarter), toDocumentPeriod(q.Period)); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a single quarter key in the range 1-4.
func (q *QuarterEntry) UnmarshalJSON(data []byte) error {
	seen := 0
	return decodeObject(data, func(key string, raw json.RawMessage) error {
		seen++
		if seen > 1 {
			return fmt.Errorf("quarter entry holds more than one quarter (%q)", key)
		}
		quarter, err := strconv.Atoi(key)
		if err != nil || quarter < 1 || quarter > 4 {
			return fmt.Errorf("invalid quarter key %q", key)
		}
		var dp documentPeriod
		if err := json.Unmarshal(raw, &dp); err != nil {
			return fmt.Errorf("quarter %d: %w", quarter, err)
		}
		q.Quarter = quarter
		q.Period = dp.toCleaned()
		return nil
	})
}

// documentPeriod is the sector-document encoding of a CleanedPeriod:
// snake_case keys and null for every unknown metric.
type documentPeriod struct {
	Profitability struct {
		Revenue         *float64 `json:"revenue"`
		GrossProfit     *float64 `json:"gross_profit"`
		OperatingIncome *float64 `json:"operating_income"`
		NetIncome       *float64 `json:"net_income"`
		EPSBasic        *float64 `json:"eps_basic"`
	} `json:"profitability"`
	BalanceSheet struct {
		CashAndEquivalents *float64 `json:"cash_and_equivalents"`
		TotalAssets        *float64 `json:"total_assets"`
		TotalLiabilities   *float64 `json:"total_liabilities"`
		ShareholdersEquity *float64 `json:"shareholders_equity"`
		LongTermDebt       *float64 `json:"long_term_debt"`
		CurrentAssets      *float64 `json:"current_assets"`
		CurrentLiabilities *float64 `json:"current_liabilities"`
	} `json:"balance_sheet"`
	CashFlow struct {
		OperatingCashFlow *float64 `json:"operating_cash_flow"`
		CapEx             *float64 `json:"capex"`
		FreeCashFlow      *float64 `json:"free_cash_flow"`
		EarningsQuality   *float64 `json:"earnings_quality"`
	} `json:"cash_flow"`
}

func toDocumentPeriod(p CleanedPeriod) documentPeriod {
	var dp documentPeriod
	dp.Profitability.Revenue = p.Profitability.Revenue
	dp.Profitability.GrossProfit = p.Profitability.GrossProfit
	dp.Profitability.OperatingIncome = p.Profitability.OperatingIncome
	dp.Profitability.NetIncome = p.Profitability.NetIncome
	dp.Profitability.EPSBasic = p.Profitability.EPSBasic
	dp.BalanceSheet.CashAndEquivalents = p.BalanceSheet.CashAndEquivalents
	dp.BalanceSheet.TotalAssets = p.BalanceSheet.TotalAssets
	dp.BalanceSheet.TotalLiabilities = p.BalanceSheet.TotalLiabilities
	dp.BalanceSheet.ShareholdersEquity = p.BalanceSheet.ShareholdersEquity
	dp.BalanceSheet.LongTermDebt = p.BalanceSheet.LongTermDebt
	dp.BalanceSheet.CurrentAssets = p.BalanceSheet.CurrentAssets
	dp.BalanceSheet.CurrentLiabilities = p.BalanceSheet.CurrentLiabilities
	dp.CashFlow.OperatingCashFlow = p.CashFlow.OperatingCashFlow
	dp.CashFlow.CapEx = p.CashFlow.CapEx
	dp.CashFlow.FreeCashFlow = p.CashFlow.FreeCashFlow
	dp.CashFlow.EarningsQuality = p.CashFlow.EarningsQuality
	return dp
}

func (dp documentPeriod) toCleaned() CleanedPeriod {
	return CleanedPeriod{
		Profitability: Profitability{
			Revenue:         dp.Profitability.Revenue,
			GrossProfit:     dp.Profitability.GrossProfit,
			OperatingIncome: dp.Profitability.OperatingIncome,
			NetIncome:       dp.Profitability.NetIncome,
			EPSBasic:        dp.Profitability.EPSBasic,
		},
		BalanceSheet: BalanceSheet{
			CashAndEquivalents: dp.BalanceSheet.CashAndEquivalents,
			TotalAssets:        dp.BalanceSheet.TotalAssets,
			TotalLiabilities:   dp.BalanceSheet.TotalLiabilities,
			ShareholdersEquity: dp.BalanceSheet.ShareholdersEquity,
			LongTermDebt:       dp.BalanceSheet.LongTermDebt,
			CurrentAssets:      dp.BalanceSheet.CurrentAssets,
			CurrentLiabilities: dp.BalanceSheet.CurrentLiabilities,
		},
		CashFlow: CashFlow{
			OperatingCashFlow: dp.CashFlow.OperatingCashFlow,
			CapEx:             dp.CashFlow.CapEx,
			FreeCashFlow:      dp.CashFlow.FreeCashFlow,
			EarningsQuality:   dp.CashFlow.EarningsQuality,
		},
	}
}

func writeMember(buf *bytes.Buffer, key string, value interface{}) error {
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	v, err := json.Marshal(value)
	if err != nil {
		return err
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(v)
	return nil
}

// decodeObject walks a JSON object in key order.
func decodeObject(data []byte, fn func(key string, raw json.RawMessage) error) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected JSON object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("value of %q: %w", key, err)
		}
		if err := fn(key, raw); err != nil {
			return err
		}
	}
	_, err = dec.Token()
	return err
}
