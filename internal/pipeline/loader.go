package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"finpanel/internal/files"
	"finpanel/internal/statements"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds parallel file reads when none is configured
const DefaultConcurrency = 8

// CompanyInput is one company's raw provider payload. Err is set when any of
// its files could not be read; the company is then skipped, not the run.
type CompanyInput struct {
	Sector string
	Symbol string
	Raw    statements.Statements
	Err    error
}

// Loader reads statement bundles from disk concurrently
type Loader struct {
	concurrency int
	logger      *slog.Logger
}

// NewLoader creates a loader reading at most concurrency bundles at a time
func NewLoader(concurrency int, logger *slog.Logger) *Loader {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{concurrency: concurrency, logger: logger}
}

// Load returns one input per bundle, in bundle order. Only context
// cancellation fails the whole load.
func (l *Loader) Load(ctx context.Context, bundles []files.CompanyBundle) ([]CompanyInput, error) {
	inputs := make([]CompanyInput, len(bundles))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)

	for i, b := range bundles {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			raw, err := readBundle(b)
			inputs[i] = CompanyInput{Sector: b.Sector, Symbol: b.Symbol, Raw: raw, Err: err}
			if err != nil {
				l.logger.WarnContext(gctx, "Failed to read statements",
					slog.String("sector", b.Sector),
					slog.String("symbol", b.Symbol),
					slog.String("error", err.Error()))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return inputs, nil
}

func readBundle(b files.CompanyBundle) (statements.Statements, error) {
	var raw statements.Statements
	targets := []struct {
		kind files.StatementKind
		dst  *[]byte
	}{
		{files.KindBalanceSheet, &raw.BalanceSheet},
		{files.KindIncomeStatement, &raw.IncomeStatement},
		{files.KindCashFlow, &raw.CashFlow},
		{files.KindOverview, &raw.Overview},
		{files.KindFinancials, &raw.Financials},
	}
	for _, t := range targets {
		info, ok := b.Files[t.kind]
		if !ok {
			continue
		}
		data, err := os.ReadFile(info.Path)
		if err != nil {
			return statements.Statements{}, fmt.Errorf("read %s: %w", info.Name, err)
		}
		*t.dst = data
	}
	return raw, nil
}
