package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains every resolved application path.
// This is the single source of truth for file locations.
type Paths struct {
	BaseDir      string
	DataDir      string
	RawDir       string
	DocumentFile string
	SummaryFile  string
	ReportsDir   string
	LogsDir      string
}

// ExecutableDir returns the directory of the running binary with symlinks resolved.
func ExecutableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("failed to resolve executable symlinks: %w", err)
	}
	return filepath.Dir(exe), nil
}

// ResolvePaths turns the configured locations into absolute paths.
func (c *Config) ResolvePaths() (*Paths, error) {
	return ResolvePaths(c.Paths)
}

// ResolvePaths turns configured locations into absolute paths. Relative
// entries are joined to BaseDir; an empty BaseDir means the executable
// directory.
func ResolvePaths(cfg PathsConfig) (*Paths, error) {
	base := cfg.BaseDir
	if base == "" {
		dir, err := ExecutableDir()
		if err != nil {
			return nil, err
		}
		base = dir
	}
	base, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}

	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}

	return &Paths{
		BaseDir:      base,
		DataDir:      resolve(cfg.DataDir),
		RawDir:       resolve(cfg.RawDir),
		DocumentFile: resolve(cfg.DocumentFile),
		SummaryFile:  resolve(cfg.SummaryFile),
		ReportsDir:   resolve(cfg.ReportsDir),
		LogsDir:      resolve(cfg.LogsDir),
	}, nil
}

// EnsureDirectories creates the directories the pipeline writes into.
// The raw directory is input and is never created.
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.DataDir,
		p.ReportsDir,
		p.LogsDir,
		filepath.Dir(p.DocumentFile),
		filepath.Dir(p.SummaryFile),
	}
	for _, dir := range directories {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// GetReportPath returns the path for a report file
func (p *Paths) GetReportPath(filename string) string {
	return filepath.Join(p.ReportsDir, filename)
}

// GetLogPath returns the path for a log file
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// GetRawSectorPath returns the raw statement directory of one sector
func (p *Paths) GetRawSectorPath(sector string) string {
	return filepath.Join(p.RawDir, sector)
}

// LogPathResolution logs the resolved paths for debugging
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		return
	}
	logger.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("base", p.BaseDir),
			slog.String("data", p.DataDir),
			slog.String("raw", p.RawDir),
			slog.String("reports", p.ReportsDir),
			slog.String("logs", p.LogsDir),
		),
		slog.Group("files",
			slog.String("document", p.DocumentFile),
			slog.String("summary", p.SummaryFile),
		))
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
