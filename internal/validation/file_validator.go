package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// RawStatementPattern matches raw statement files one level below the raw
// directory (<raw>/<sector>/<SYMBOL>_<KIND>.json).
const RawStatementPattern = "*/*.json"

// FileValidator runs the pre-flight file checks shared by the command line
// tools
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateRawDirectory checks that the raw directory exists and returns the
// number of statement files found in it. Zero files is not an error.
func (v *FileValidator) ValidateRawDirectory(dir string) (int, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		v.logger.Error("Raw directory does not exist",
			slog.String("directory", dir))
		return 0, fmt.Errorf("raw directory %s does not exist", dir)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to stat directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		v.logger.Error("Raw path is not a directory",
			slog.String("path", dir))
		return 0, fmt.Errorf("%s is not a directory", dir)
	}

	count, err := v.CountFiles(dir, RawStatementPattern)
	if err != nil {
		return 0, err
	}
	if count == 0 {
		v.logger.Warn("No raw statement files found",
			slog.String("directory", dir),
			slog.String("pattern", RawStatementPattern))
		return 0, nil
	}

	v.logger.Info("Raw directory validated",
		slog.String("directory", dir),
		slog.Int("files_found", count))
	return count, nil
}

// ValidateOutputDirectory ensures dir exists or can be created and is writable
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	testFile := filepath.Join(dir, ".write_test")
	file, err := os.Create(testFile)
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	file.Close()
	os.Remove(testFile)
	return nil
}

// ValidateFile checks that path is an existing, readable regular file
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("File does not exist",
			slog.String("file", path))
		return fmt.Errorf("file %s does not exist", path)
	}
	if err != nil {
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, not a file", path)
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateDocument checks the consolidated sector document before it is
// loaded. The file must exist, be readable and carry a .json extension.
func (v *FileValidator) ValidateDocument(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".json" {
		return fmt.Errorf("sector document %s is not a JSON file (extension: %s)", path, ext)
	}
	return nil
}

// ValidateExportTarget checks that path carries the extension of the export
// format and that its directory is writable.
func (v *FileValidator) ValidateExportTarget(path, format string) error {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext != strings.ToLower(format) {
		return fmt.Errorf("export target %s does not match format %s", path, format)
	}
	if strings.HasPrefix(filepath.Base(path), "~$") {
		return fmt.Errorf("export target %s is a temporary office file", path)
	}
	return v.ValidateOutputDirectory(filepath.Dir(path))
}

// CountFiles counts regular files matching a glob pattern below dir
func (v *FileValidator) CountFiles(dir string, pattern string) (int, error) {
	fullPattern := filepath.Join(dir, pattern)
	matches, err := filepath.Glob(fullPattern)
	if err != nil {
		v.logger.Error("Failed to count files",
			slog.String("pattern", fullPattern),
			slog.String("error", err.Error()))
		return 0, fmt.Errorf("failed to count files: %w", err)
	}

	fileCount := 0
	for _, match := range matches {
		info, err := os.Stat(match)
		if err == nil && !info.IsDir() {
			fileCount++
		}
	}
	return fileCount, nil
}
