package pipeline

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"finpanel/internal/config"
	"finpanel/internal/files"
	"finpanel/pkg/contracts/domain"
)

// Store persists run outputs under the configured paths
type Store struct {
	paths   *config.Paths
	manager *files.Manager
	logger  *slog.Logger
}

// NewStore creates a store writing to paths.DocumentFile and paths.SummaryFile
func NewStore(paths *config.Paths, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		paths:   paths,
		manager: files.NewManager(paths, logger),
		logger:  logger.With("component", "store"),
	}
}

// Save writes the document, then the run summary
func (s *Store) Save(res *Result) error {
	if err := s.SaveDocument(res.Document); err != nil {
		return err
	}
	return s.SaveSummary(res.Summary)
}

// SaveDocument writes the sector document with a four-space indent
func (s *Store) SaveDocument(doc domain.SectorDocument) error {
	data, err := domain.EncodeDocument(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if err := s.manager.WriteFileAtomic(s.paths.DocumentFile, data); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}

// SaveSummary writes run_summary.json
func (s *Store) SaveSummary(summary domain.RunSummary) error {
	data, err := json.MarshalIndent(summary, "", domain.DocumentIndent)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	if err := s.manager.WriteFileAtomic(s.paths.SummaryFile, data); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

// LoadSummary reads the last run summary
func (s *Store) LoadSummary() (domain.RunSummary, error) {
	var summary domain.RunSummary
	data, err := s.manager.ReadFile(s.paths.SummaryFile)
	if err != nil {
		return summary, err
	}
	if err := json.Unmarshal(data, &summary); err != nil {
		return summary, fmt.Errorf("decode summary: %w", err)
	}
	return summary, nil
}

// LoadDocument reads a persisted sector document
func LoadDocument(path string) (domain.SectorDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.SectorDocument{}, err
	}
	doc, err := domain.DecodeDocument(data)
	if err != nil {
		return domain.SectorDocument{}, fmt.Errorf("decode document %s: %w", path, err)
	}
	return doc, nil
}
