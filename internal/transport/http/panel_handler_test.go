package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"finpanel/internal/exporter"
	"finpanel/internal/panel"
	"finpanel/internal/prompt"
	"finpanel/internal/services"
	"finpanel/internal/shared/testutil"
	"finpanel/pkg/contracts/domain"
)

// MockPanelService is a mock implementation of the panel service
type MockPanelService struct {
	mock.Mock
}

func (m *MockPanelService) Rows(ctx context.Context, q services.PanelQuery) ([]domain.PanelRow, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PanelRow), args.Error(1)
}

func (m *MockPanelService) Sectors(ctx context.Context) ([]services.SectorInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]services.SectorInfo), args.Error(1)
}

func (m *MockPanelService) Sector(ctx context.Context, name string) (services.SectorInfo, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(services.SectorInfo), args.Error(1)
}

func (m *MockPanelService) SectorLatest(ctx context.Context, sector string) ([]domain.PanelRow, error) {
	args := m.Called(ctx, sector)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PanelRow), args.Error(1)
}

func (m *MockPanelService) Series(ctx context.Context, q services.PanelQuery, columns []string) ([]panel.SeriesPoint, error) {
	args := m.Called(ctx, q, columns)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]panel.SeriesPoint), args.Error(1)
}

func (m *MockPanelService) Export(ctx context.Context, w io.Writer, format exporter.Format, q services.PanelQuery) (int, error) {
	args := m.Called(ctx, w, format, q)
	if content, ok := args.Get(0).(string); ok {
		io.WriteString(w, content)
	}
	return args.Int(1), args.Error(2)
}

func (m *MockPanelService) Prompt(ctx context.Context, req prompt.Request) (*prompt.Prompt, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*prompt.Prompt), args.Error(1)
}

func (m *MockPanelService) Analyze(ctx context.Context, req prompt.Request) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockPanelService) LastRun(ctx context.Context) (domain.RunSummary, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.RunSummary), args.Error(1)
}

func (m *MockPanelService) Columns() []string {
	args := m.Called()
	return args.Get(0).([]string)
}

func (m *MockPanelService) Invalidate(ctx context.Context) panel.CacheStats {
	args := m.Called(ctx)
	return args.Get(0).(panel.CacheStats)
}

func (m *MockPanelService) CacheStats() panel.CacheStats {
	args := m.Called()
	return args.Get(0).(panel.CacheStats)
}

func newTestRouter(t *testing.T, svc *MockPanelService) chi.Router {
	logger, _ := testutil.NewTestLogger(t)
	h := NewPanelHandler(svc, logger, nil)

	r := chi.NewRouter()
	r.Mount("/api/panel", h.Routes())
	r.Get("/api/prompt", h.GetPrompt)
	r.Post("/api/analyze", h.PostAnalyze)
	r.Get("/api/cache", h.GetCacheStats)
	r.Post("/api/cache/invalidate", h.InvalidateCache)
	return r
}

func serve(r http.Handler, method, target string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func sampleRows() []domain.PanelRow {
	return []domain.PanelRow{
		{Sector: "Tech", Company: "AAPL", Ticker: "AAPL", Year: 2024, Quarter: 1,
			PeriodEnd: time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), Revenue: 100, NetIncome: 25,
			GrossMargin: math.NaN()},
	}
}

func TestPanelHandler_GetRows(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		setupMock  func(*MockPanelService)
		wantStatus int
		wantCount  float64
		wantCode   string
	}{
		{
			name:   "all rows",
			target: "/api/panel",
			setupMock: func(m *MockPanelService) {
				m.On("Rows", mock.Anything, services.PanelQuery{}).Return(sampleRows(), nil)
			},
			wantStatus: http.StatusOK,
			wantCount:  1,
		},
		{
			name:   "filtered by sector company and years",
			target: "/api/panel?sector=Tech&company=AAPL&years=2023,2024",
			setupMock: func(m *MockPanelService) {
				q := services.PanelQuery{Sector: "Tech", Company: "AAPL", Years: []int{2023, 2024}}
				m.On("Rows", mock.Anything, q).Return(sampleRows(), nil)
			},
			wantStatus: http.StatusOK,
			wantCount:  1,
		},
		{
			name:   "no rows renders empty list",
			target: "/api/panel?sector=Energy",
			setupMock: func(m *MockPanelService) {
				m.On("Rows", mock.Anything, services.PanelQuery{Sector: "Energy"}).Return(nil, nil)
			},
			wantStatus: http.StatusOK,
			wantCount:  0,
		},
		{
			name:       "invalid years",
			target:     "/api/panel?years=20x4",
			setupMock:  func(m *MockPanelService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "year out of range",
			target:     "/api/panel?years=1800",
			setupMock:  func(m *MockPanelService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:   "document missing",
			target: "/api/panel",
			setupMock: func(m *MockPanelService) {
				m.On("Rows", mock.Anything, services.PanelQuery{}).
					Return(nil, fmt.Errorf("stat document: %w", fs.ErrNotExist))
			},
			wantStatus: http.StatusNotFound,
			wantCode:   "DOCUMENT_NOT_FOUND",
		},
		{
			name:   "unknown company",
			target: "/api/panel?company=TSLA",
			setupMock: func(m *MockPanelService) {
				m.On("Rows", mock.Anything, services.PanelQuery{Company: "TSLA"}).
					Return(nil, fmt.Errorf("%w: %q", services.ErrUnknownCompany, "TSLA"))
			},
			wantStatus: http.StatusNotFound,
			wantCode:   "COMPANY_NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockPanelService)
			tt.setupMock(svc)

			rec := serve(newTestRouter(t, svc), http.MethodGet, tt.target, nil)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			body := decodeBody(t, rec)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.wantCount, body["count"])
				assert.NotNil(t, body["rows"])
			} else {
				assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
				assert.Equal(t, float64(tt.wantStatus), body["status"])
				if tt.wantCode != "" {
					assert.Equal(t, tt.wantCode, body["error_code"])
				}
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestPanelHandler_RowsWriteNullForMissing(t *testing.T) {
	svc := new(MockPanelService)
	svc.On("Rows", mock.Anything, services.PanelQuery{}).Return(sampleRows(), nil)

	rec := serve(newTestRouter(t, svc), http.MethodGet, "/api/panel", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	rows := body["rows"].([]interface{})
	require.Len(t, rows, 1)
	row := rows[0].(map[string]interface{})
	assert.Equal(t, "2024-03-31", row["period_end"])
	assert.Equal(t, float64(100), row["revenue"])
	assert.Contains(t, row, "gross_margin")
	assert.Nil(t, row["gross_margin"])
}

func TestPanelHandler_GetSectors(t *testing.T) {
	svc := new(MockPanelService)
	svc.On("Sectors", mock.Anything).Return([]services.SectorInfo{
		{Name: "Energy", Companies: []string{"XOM"}},
		{Name: "Tech", Companies: []string{"AAPL", "MSFT"}},
	}, nil)

	rec := serve(newTestRouter(t, svc), http.MethodGet, "/api/panel/sectors", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, float64(2), body["count"])
	sectors := body["sectors"].([]interface{})
	assert.Equal(t, "Energy", sectors[0].(map[string]interface{})["name"])
}

func TestPanelHandler_GetSector(t *testing.T) {
	t.Run("known sector", func(t *testing.T) {
		svc := new(MockPanelService)
		svc.On("Sector", mock.Anything, "Tech").
			Return(services.SectorInfo{Name: "Tech", Companies: []string{"AAPL", "MSFT"}}, nil)

		rec := serve(newTestRouter(t, svc), http.MethodGet, "/api/panel/sectors/Tech", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		body := decodeBody(t, rec)
		assert.Equal(t, "Tech", body["name"])
		assert.Equal(t, []interface{}{"AAPL", "MSFT"}, body["companies"])
		svc.AssertExpectations(t)
	})

	t.Run("unknown sector", func(t *testing.T) {
		svc := new(MockPanelService)
		svc.On("Sector", mock.Anything, "Mining").
			Return(services.SectorInfo{}, fmt.Errorf("%w: %q", services.ErrUnknownSector, "Mining"))

		rec := serve(newTestRouter(t, svc), http.MethodGet, "/api/panel/sectors/Mining", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "SECTOR_NOT_FOUND", decodeBody(t, rec)["error_code"])
	})
}

func TestPanelHandler_GetSectorLatest(t *testing.T) {
	t.Run("known sector", func(t *testing.T) {
		svc := new(MockPanelService)
		svc.On("SectorLatest", mock.Anything, "Tech").Return(sampleRows(), nil)

		rec := serve(newTestRouter(t, svc), http.MethodGet, "/api/panel/sectors/Tech/latest", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "Tech", body["sector"])
		assert.Equal(t, float64(1), body["count"])
	})

	t.Run("unknown sector", func(t *testing.T) {
		svc := new(MockPanelService)
		svc.On("SectorLatest", mock.Anything, "Mining").
			Return(nil, fmt.Errorf("%w: %q", services.ErrUnknownSector, "Mining"))

		rec := serve(newTestRouter(t, svc), http.MethodGet, "/api/panel/sectors/Mining/latest", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "SECTOR_NOT_FOUND", body["error_code"])
		assert.Equal(t, "/errors/not-found", body["type"])
	})

	t.Run("sector name too long", func(t *testing.T) {
		svc := new(MockPanelService)
		rec := serve(newTestRouter(t, svc), http.MethodGet, "/api/panel/sectors/"+strings.Repeat("x", 65)+"/latest", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		svc.AssertNotCalled(t, "SectorLatest", mock.Anything, mock.Anything)
	})
}

func TestPanelHandler_GetSeries(t *testing.T) {
	t.Run("aggregated points", func(t *testing.T) {
		svc := new(MockPanelService)
		points := []panel.SeriesPoint{
			{PeriodEnd: time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), Values: map[string]float64{"revenue": 300, "net_income": math.NaN()}},
		}
		svc.On("Series", mock.Anything, services.PanelQuery{Sector: "Tech"}, []string{"revenue", "net_income"}).Return(points, nil)

		rec := serve(newTestRouter(t, svc), http.MethodGet, "/api/panel/series?sector=Tech&columns=revenue,%20net_income", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		body := decodeBody(t, rec)
		got := body["points"].([]interface{})
		require.Len(t, got, 1)
		point := got[0].(map[string]interface{})
		assert.Equal(t, "2024-03-31", point["period_end"])
		values := point["values"].(map[string]interface{})
		assert.Equal(t, float64(300), values["revenue"])
		assert.Nil(t, values["net_income"])
	})

	t.Run("columns required", func(t *testing.T) {
		svc := new(MockPanelService)
		rec := serve(newTestRouter(t, svc), http.MethodGet, "/api/panel/series", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown column", func(t *testing.T) {
		svc := new(MockPanelService)
		svc.On("Series", mock.Anything, services.PanelQuery{}, []string{"bogus"}).
			Return(nil, fmt.Errorf("%w: %q", services.ErrUnknownColumn, "bogus"))

		rec := serve(newTestRouter(t, svc), http.MethodGet, "/api/panel/series?columns=bogus", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "VALIDATION_FAILED", body["error_code"])
	})
}

func TestPanelHandler_Export(t *testing.T) {
	tests := []struct {
		name            string
		target          string
		format          exporter.Format
		wantContentType string
		wantFile        string
	}{
		{"default csv", "/api/panel/export", exporter.FormatCSV, "text/csv; charset=utf-8", "sector_panel.csv"},
		{"xlsx", "/api/panel/export?format=xlsx", exporter.FormatXLSX,
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "sector_panel.xlsx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockPanelService)
			svc.On("Export", mock.Anything, mock.Anything, tt.format, services.PanelQuery{}).Return("payload", 3, nil)

			rec := serve(newTestRouter(t, svc), http.MethodGet, tt.target, nil)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.wantContentType, rec.Header().Get("Content-Type"))
			assert.Contains(t, rec.Header().Get("Content-Disposition"), tt.wantFile)
			assert.Equal(t, "3", rec.Header().Get("X-Row-Count"))
			assert.Equal(t, "payload", rec.Body.String())
		})
	}

	t.Run("unsupported format", func(t *testing.T) {
		svc := new(MockPanelService)
		rec := serve(newTestRouter(t, svc), http.MethodGet, "/api/panel/export?format=pdf", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		svc.AssertNotCalled(t, "Export", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("service failure writes a problem", func(t *testing.T) {
		svc := new(MockPanelService)
		svc.On("Export", mock.Anything, mock.Anything, exporter.FormatCSV, services.PanelQuery{}).
			Return(nil, 0, fmt.Errorf("disk full"))

		rec := serve(newTestRouter(t, svc), http.MethodGet, "/api/panel/export", nil)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	})

	t.Run("nothing to export", func(t *testing.T) {
		svc := new(MockPanelService)
		svc.On("Export", mock.Anything, mock.Anything, exporter.FormatCSV, services.PanelQuery{Years: []int{1999}}).
			Return(nil, 0, services.ErrNoRows)

		rec := serve(newTestRouter(t, svc), http.MethodGet, "/api/panel/export?years=1999", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "NO_ROWS", decodeBody(t, rec)["error_code"])
	})
}

func TestPanelHandler_GetSummary(t *testing.T) {
	svc := new(MockPanelService)
	svc.On("LastRun", mock.Anything).Return(domain.RunSummary{
		RunID:                 "run-1",
		CompaniesTotal:        3,
		CompaniesConsolidated: 2,
		SkippedCompanies:      []domain.SkippedCompany{{Sector: "Tech", Symbol: "ZZZ", Reason: "no reports"}},
	}, nil)

	rec := serve(newTestRouter(t, svc), http.MethodGet, "/api/panel/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "run-1", body["run_id"])
	assert.Equal(t, float64(2), body["companies_consolidated"])
}

func TestPanelHandler_GetPrompt(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		wantReq    *prompt.Request
		wantStatus int
	}{
		{
			name:       "company scope",
			target:     "/api/prompt?sector=Tech&company=AAPL&topic=cash_flow",
			wantReq:    &prompt.Request{Sector: "Tech", Company: "AAPL", Topic: prompt.TopicCashFlow, Scope: prompt.ScopeCompany},
			wantStatus: http.StatusOK,
		},
		{
			name:       "all companies defaults to all topics",
			target:     "/api/prompt?scope=all_companies",
			wantReq:    &prompt.Request{Topic: prompt.TopicAll, Scope: prompt.ScopeAllCompanies},
			wantStatus: http.StatusOK,
		},
		{
			name:       "company scope without company",
			target:     "/api/prompt?sector=Tech&topic=Profitability",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "company scope with all topics",
			target:     "/api/prompt?sector=Tech&company=AAPL",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown topic",
			target:     "/api/prompt?scope=all_companies&topic=valuation",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid company symbol",
			target:     "/api/prompt?sector=Tech&company=aapl%3B&topic=Profitability",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockPanelService)
			if tt.wantReq != nil {
				svc.On("Prompt", mock.Anything, *tt.wantReq).Return(&prompt.Prompt{
					Request: *tt.wantReq,
					System:  "You are a financial analyst.",
					Data:    json.RawMessage(`{"Tech":[]}`),
				}, nil)
			}

			rec := serve(newTestRouter(t, svc), http.MethodGet, tt.target, nil)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			body := decodeBody(t, rec)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, string(tt.wantReq.Scope), body["scope"])
				assert.Equal(t, string(tt.wantReq.Topic), body["topic"])
				assert.Equal(t, "You are a financial analyst.", body["system"])
				assert.Equal(t, map[string]interface{}{"Tech": []interface{}{}}, body["data"])
				assert.Len(t, body["messages"], 2)
			} else {
				svc.AssertNotCalled(t, "Prompt", mock.Anything, mock.Anything)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestPanelHandler_GetPromptUnknownCompany(t *testing.T) {
	svc := new(MockPanelService)
	req := prompt.Request{Sector: "Tech", Company: "IBM", Topic: prompt.TopicProfitability, Scope: prompt.ScopeCompany}
	svc.On("Prompt", mock.Anything, req).Return(nil, fmt.Errorf("%w: %q in %q", prompt.ErrUnknownCompany, "IBM", "Tech"))

	rec := serve(newTestRouter(t, svc), http.MethodGet, "/api/prompt?sector=Tech&company=IBM&topic=profitability", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPanelHandler_PostAnalyze(t *testing.T) {
	body := `{"sector":"Tech","company":"AAPL","topic":"Financial Standing"}`
	req := prompt.Request{Sector: "Tech", Company: "AAPL", Topic: prompt.TopicFinancialStanding, Scope: prompt.ScopeCompany}

	t.Run("analysis returned", func(t *testing.T) {
		svc := new(MockPanelService)
		svc.On("Analyze", mock.Anything, req).Return("Leverage is falling.", nil)

		rec := serve(newTestRouter(t, svc), http.MethodPost, "/api/analyze", strings.NewReader(body))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "Leverage is falling.", decodeBody(t, rec)["analysis"])
	})

	t.Run("analyzer not configured", func(t *testing.T) {
		svc := new(MockPanelService)
		svc.On("Analyze", mock.Anything, req).Return("", services.ErrAnalyzerNotConfigured)

		rec := serve(newTestRouter(t, svc), http.MethodPost, "/api/analyze", strings.NewReader(body))
		assert.Equal(t, http.StatusNotImplemented, rec.Code)
		assert.Equal(t, "NOT_CONFIGURED", decodeBody(t, rec)["error_code"])
	})

	t.Run("malformed body", func(t *testing.T) {
		svc := new(MockPanelService)
		rec := serve(newTestRouter(t, svc), http.MethodPost, "/api/analyze", bytes.NewReader([]byte("{")))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		svc.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything)
	})
}

func TestPanelHandler_Cache(t *testing.T) {
	svc := new(MockPanelService)
	svc.On("Invalidate", mock.Anything).Return(panel.CacheStats{Entries: 0, Hits: 4, Misses: 1})
	svc.On("CacheStats").Return(panel.CacheStats{Entries: 1, Hits: 4, Misses: 1})
	router := newTestRouter(t, svc)

	rec := serve(router, http.MethodGet, "/api/cache", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decodeBody(t, rec)["entries"])

	rec = serve(router, http.MethodPost, "/api/cache/invalidate", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "invalidated", body["status"])
	assert.Equal(t, float64(0), body["cache"].(map[string]interface{})["entries"])
}

func TestPanelHandler_GetColumns(t *testing.T) {
	svc := new(MockPanelService)
	svc.On("Columns").Return([]string{"cfo", "revenue"})

	rec := serve(newTestRouter(t, svc), http.MethodGet, "/api/panel/columns", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []interface{}{"cfo", "revenue"}, decodeBody(t, rec)["columns"])
}
