package http

import (
	"context"
	"io"

	"finpanel/internal/exporter"
	"finpanel/internal/panel"
	"finpanel/internal/prompt"
	"finpanel/internal/services"
	"finpanel/pkg/contracts/domain"
)

// PanelServiceInterface defines the read side operations used by the panel handler
type PanelServiceInterface interface {
	Rows(ctx context.Context, q services.PanelQuery) ([]domain.PanelRow, error)
	Sectors(ctx context.Context) ([]services.SectorInfo, error)
	Sector(ctx context.Context, name string) (services.SectorInfo, error)
	SectorLatest(ctx context.Context, sector string) ([]domain.PanelRow, error)
	Series(ctx context.Context, q services.PanelQuery, columns []string) ([]panel.SeriesPoint, error)
	Export(ctx context.Context, w io.Writer, format exporter.Format, q services.PanelQuery) (int, error)
	Prompt(ctx context.Context, req prompt.Request) (*prompt.Prompt, error)
	Analyze(ctx context.Context, req prompt.Request) (string, error)
	LastRun(ctx context.Context) (domain.RunSummary, error)
	Columns() []string
	Invalidate(ctx context.Context) panel.CacheStats
	CacheStats() panel.CacheStats
}

var _ PanelServiceInterface = (*services.PanelService)(nil)
