package services

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"finpanel/internal/exporter"
	"finpanel/internal/prompt"
	"finpanel/internal/shared/testutil"
	"finpanel/pkg/contracts/domain"
)

type MockAnalyzer struct {
	mock.Mock
}

func (m *MockAnalyzer) Analyze(ctx context.Context, messages []prompt.Message) (string, error) {
	args := m.Called(ctx, messages)
	return args.String(0), args.Error(1)
}

type MockSummaryLoader struct {
	mock.Mock
}

func (m *MockSummaryLoader) LoadSummary() (domain.RunSummary, error) {
	args := m.Called()
	return args.Get(0).(domain.RunSummary), args.Error(1)
}

func period(revenue, netIncome float64) domain.CleanedPeriod {
	p := domain.CleanedPeriod{}
	p.Profitability.Revenue = domain.Float(revenue)
	p.Profitability.NetIncome = domain.Float(netIncome)
	return p
}

func writeDocument(t *testing.T) string {
	t.Helper()
	doc := domain.SectorDocument{Sectors: []domain.Sector{
		{Name: "Energy", Companies: []domain.CompanyEntry{
			{Symbol: "XOM", Years: []domain.YearBlock{{Year: 2023, Quarters: []domain.QuarterEntry{
				{Quarter: 4, Period: period(900, 90)},
			}}}},
		}},
		{Name: "Tech", Companies: []domain.CompanyEntry{
			{Symbol: "AAPL", Years: []domain.YearBlock{{Year: 2024, Quarters: []domain.QuarterEntry{
				{Quarter: 1, Period: period(1000, 100)},
				{Quarter: 2, Period: period(1100, 120)},
			}}}},
			{Symbol: "MSFT", Years: []domain.YearBlock{{Year: 2024, Quarters: []domain.QuarterEntry{
				{Quarter: 1, Period: period(2000, 500)},
			}}}},
		}},
	}}
	data, err := domain.EncodeDocument(doc)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "sector_document.json")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func newTestPanelService(t *testing.T, cfg PanelServiceConfig) *PanelService {
	t.Helper()
	if cfg.DocumentPath == "" {
		cfg.DocumentPath = writeDocument(t)
	}
	if cfg.Builder == nil {
		b, err := prompt.NewBuilder()
		require.NoError(t, err)
		cfg.Builder = b
	}
	if cfg.Logger == nil {
		cfg.Logger, _ = testutil.NewTestLogger(t)
	}
	return NewPanelService(cfg)
}

func TestPanelService_Rows(t *testing.T) {
	svc := newTestPanelService(t, PanelServiceConfig{})
	ctx := context.Background()

	tests := []struct {
		name  string
		query PanelQuery
		want  int
	}{
		{"all", PanelQuery{}, 4},
		{"sector", PanelQuery{Sector: "Tech"}, 3},
		{"company", PanelQuery{Company: "AAPL"}, 2},
		{"sector and company", PanelQuery{Sector: "Energy", Company: "AAPL"}, 0},
		{"years", PanelQuery{Years: []int{2023}}, 1},
		{"years without rows", PanelQuery{Sector: "Energy", Years: []int{2024}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := svc.Rows(ctx, tt.query)
			require.NoError(t, err)
			assert.Len(t, rows, tt.want)
		})
	}
}

func TestPanelService_RowsUnknownFilters(t *testing.T) {
	svc := newTestPanelService(t, PanelServiceConfig{})
	ctx := context.Background()

	_, err := svc.Rows(ctx, PanelQuery{Sector: "Retail"})
	assert.ErrorIs(t, err, ErrUnknownSector)

	_, err = svc.Rows(ctx, PanelQuery{Company: "TSLA"})
	assert.ErrorIs(t, err, ErrUnknownCompany)

	_, err = svc.Rows(ctx, PanelQuery{Sector: "Tech", Company: "TSLA"})
	assert.ErrorIs(t, err, ErrUnknownCompany)
}

func TestPanelService_SectorsAndLatest(t *testing.T) {
	svc := newTestPanelService(t, PanelServiceConfig{})
	ctx := context.Background()

	sectors, err := svc.Sectors(ctx)
	require.NoError(t, err)
	assert.Equal(t, []SectorInfo{
		{Name: "Energy", Companies: []string{"XOM"}},
		{Name: "Tech", Companies: []string{"AAPL", "MSFT"}},
	}, sectors)

	tech, err := svc.Sector(ctx, "Tech")
	require.NoError(t, err)
	assert.Equal(t, SectorInfo{Name: "Tech", Companies: []string{"AAPL", "MSFT"}}, tech)

	_, err = svc.Sector(ctx, "Retail")
	assert.ErrorIs(t, err, ErrUnknownSector)

	latest, err := svc.SectorLatest(ctx, "Tech")
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, "AAPL", latest[0].Company)
	assert.Equal(t, 2, latest[0].Quarter)
	assert.InDelta(t, 120.0/1100.0, latest[0].NetMargin, 1e-9)

	_, err = svc.SectorLatest(ctx, "Retail")
	assert.ErrorIs(t, err, ErrUnknownSector)
}

func TestPanelService_Series(t *testing.T) {
	svc := newTestPanelService(t, PanelServiceConfig{})
	ctx := context.Background()

	points, err := svc.Series(ctx, PanelQuery{Sector: "Tech"}, []string{"revenue"})
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, 3000.0, points[0].Values["revenue"])
	assert.Equal(t, 1100.0, points[1].Values["revenue"])

	_, err = svc.Series(ctx, PanelQuery{}, []string{"weather"})
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestPanelService_Export(t *testing.T) {
	svc := newTestPanelService(t, PanelServiceConfig{})

	var buf bytes.Buffer
	n, err := svc.Export(context.Background(), &buf, exporter.FormatCSV, PanelQuery{Sector: "Energy"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	body := strings.ReplaceAll(strings.TrimPrefix(buf.String(), "\ufeff"), "\r\n", "\n")
	lines := strings.Split(strings.TrimSpace(body), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "sector,company,ticker,Year,Quarter,period_end"))
	assert.True(t, strings.HasPrefix(lines[1], "Energy,XOM,XOM,2023,4,"))

	buf.Reset()
	_, err = svc.Export(context.Background(), &buf, exporter.FormatCSV, PanelQuery{Sector: "Energy", Years: []int{2024}})
	assert.ErrorIs(t, err, ErrNoRows)
	assert.Zero(t, buf.Len())
}

func TestPanelService_MissingDocument(t *testing.T) {
	svc := newTestPanelService(t, PanelServiceConfig{DocumentPath: filepath.Join(t.TempDir(), "absent.json")})

	_, err := svc.Rows(context.Background(), PanelQuery{})
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPanelService_CacheReuse(t *testing.T) {
	svc := newTestPanelService(t, PanelServiceConfig{})
	ctx := context.Background()

	first, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	second, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, uint64(1), svc.CacheStats().Hits)

	stats := svc.Invalidate(ctx)
	assert.Zero(t, stats.Entries)

	third, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.NotSame(t, first, third)
}

func TestPanelService_Prompt(t *testing.T) {
	svc := newTestPanelService(t, PanelServiceConfig{})

	p, err := svc.Prompt(context.Background(), prompt.Request{
		Sector: "Tech", Company: "MSFT", Topic: prompt.TopicProfitability, Scope: prompt.ScopeCompany,
	})
	require.NoError(t, err)
	assert.Contains(t, p.System, "MSFT")
	assert.Contains(t, string(p.Data), `"Tech"`)
	assert.NotContains(t, string(p.Data), `"Energy"`)

	_, err = svc.Prompt(context.Background(), prompt.Request{
		Sector: "Tech", Company: "XOM", Topic: prompt.TopicProfitability, Scope: prompt.ScopeCompany,
	})
	assert.ErrorIs(t, err, prompt.ErrUnknownCompany)
}

func TestPanelService_Analyze(t *testing.T) {
	req := prompt.Request{Sector: "Tech", Company: "AAPL", Topic: prompt.TopicCashFlow, Scope: prompt.ScopeCompany}

	t.Run("not configured", func(t *testing.T) {
		svc := newTestPanelService(t, PanelServiceConfig{})
		_, err := svc.Analyze(context.Background(), req)
		assert.ErrorIs(t, err, ErrAnalyzerNotConfigured)
	})

	t.Run("delegates messages", func(t *testing.T) {
		analyzer := new(MockAnalyzer)
		analyzer.On("Analyze", mock.Anything, mock.MatchedBy(func(msgs []prompt.Message) bool {
			return len(msgs) == 2 && msgs[0].Role == "system" && strings.Contains(msgs[1].Content, "AAPL")
		})).Return(`{"company":"AAPL"}`, nil).Once()

		svc := newTestPanelService(t, PanelServiceConfig{Analyzer: analyzer})
		out, err := svc.Analyze(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, `{"company":"AAPL"}`, out)
		analyzer.AssertExpectations(t)
	})

	t.Run("analyzer failure", func(t *testing.T) {
		boom := errors.New("model unavailable")
		analyzer := new(MockAnalyzer)
		analyzer.On("Analyze", mock.Anything, mock.Anything).Return("", boom)

		svc := newTestPanelService(t, PanelServiceConfig{Analyzer: analyzer})
		_, err := svc.Analyze(context.Background(), req)
		assert.ErrorIs(t, err, boom)
	})
}

func TestPanelService_LastRun(t *testing.T) {
	loader := new(MockSummaryLoader)
	loader.On("LoadSummary").Return(domain.RunSummary{RunID: "run-1", CompaniesTotal: 3}, nil)

	svc := newTestPanelService(t, PanelServiceConfig{Summaries: loader})
	summary, err := svc.LastRun(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "run-1", summary.RunID)
	loader.AssertExpectations(t)

	_, err = newTestPanelService(t, PanelServiceConfig{}).LastRun(context.Background())
	assert.Error(t, err)
}

func TestPanelService_Columns(t *testing.T) {
	svc := newTestPanelService(t, PanelServiceConfig{})
	cols := svc.Columns()
	assert.Contains(t, cols, "revenue")
	assert.Contains(t, cols, "net_margin")
	assert.NotContains(t, cols, "sector")
}
