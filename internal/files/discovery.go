package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
	IsDir   bool
}

// StatementKind is the statement type encoded in a raw file name
type StatementKind string

const (
	KindBalanceSheet    StatementKind = "BALANCE_SHEET"
	KindIncomeStatement StatementKind = "INCOME_STATEMENT"
	KindCashFlow        StatementKind = "CASH_FLOW"
	KindOverview        StatementKind = "OVERVIEW"
	KindFinancials      StatementKind = "FINANCIALS_REPORTED"
)

// statementKinds is ordered so that no kind is a suffix of a later one
var statementKinds = []StatementKind{
	KindIncomeStatement,
	KindBalanceSheet,
	KindFinancials,
	KindCashFlow,
	KindOverview,
}

// CompanyBundle groups the raw statement files of one company. The sector
// is the name of the directory the files were found in.
type CompanyBundle struct {
	Sector string
	Symbol string
	Files  map[StatementKind]FileInfo
}

// Has reports whether the bundle contains a file of the given kind.
func (b CompanyBundle) Has(kind StatementKind) bool {
	_, ok := b.Files[kind]
	return ok
}

// Discovery provides file discovery operations
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

// ParseStatementFileName splits SYMBOL_KIND.json. It reports false for
// names that do not follow the layout.
func ParseStatementFileName(name string) (string, StatementKind, bool) {
	if !strings.EqualFold(filepath.Ext(name), ".json") {
		return "", "", false
	}
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	for _, kind := range statementKinds {
		suffix := "_" + string(kind)
		if strings.HasSuffix(stem, suffix) {
			symbol := strings.TrimSuffix(stem, suffix)
			if symbol == "" {
				return "", "", false
			}
			return symbol, kind, true
		}
	}
	return "", "", false
}

// FindStatementBundles scans <rawDir>/<Sector>/<SYMBOL>_<KIND>.json and
// returns one bundle per (sector, symbol), sorted by sector then symbol.
// Files that do not follow the naming layout are ignored.
func (d *Discovery) FindStatementBundles(rawDir string) ([]CompanyBundle, error) {
	sectors, err := d.ListDirectories(rawDir)
	if err != nil {
		return nil, err
	}

	var bundles []CompanyBundle
	for _, sector := range sectors {
		if strings.HasPrefix(sector.Name, ".") {
			continue
		}
		files, err := d.FindFilesByPattern(sector.Path, "*.json")
		if err != nil {
			return nil, err
		}

		bySymbol := make(map[string]*CompanyBundle)
		for _, f := range files {
			symbol, kind, ok := ParseStatementFileName(f.Name)
			if !ok {
				continue
			}
			b, exists := bySymbol[symbol]
			if !exists {
				b = &CompanyBundle{Sector: sector.Name, Symbol: symbol, Files: make(map[StatementKind]FileInfo)}
				bySymbol[symbol] = b
			}
			b.Files[kind] = f
		}

		symbols := make([]string, 0, len(bySymbol))
		for s := range bySymbol {
			symbols = append(symbols, s)
		}
		sort.Strings(symbols)
		for _, s := range symbols {
			bundles = append(bundles, *bySymbol[s])
		}
	}
	return bundles, nil
}

// FindFilesByPattern finds files matching a glob pattern
func (d *Discovery) FindFilesByPattern(dir string, pattern string) ([]FileInfo, error) {
	searchPattern := filepath.Join(d.resolve(dir), pattern)

	matches, err := filepath.Glob(searchPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
	}

	var files []FileInfo
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil {
			continue
		}
		if !info.IsDir() {
			files = append(files, FileInfo{
				Path:    match,
				Name:    filepath.Base(match),
				Size:    info.Size(),
				ModTime: info.ModTime(),
			})
		}
	}
	return files, nil
}

// ListDirectories lists the subdirectories of dir sorted by name
func (d *Discovery) ListDirectories(dir string) ([]FileInfo, error) {
	fullPath := d.resolve(dir)

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var dirs []FileInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		dirs = append(dirs, FileInfo{
			Path:    filepath.Join(fullPath, entry.Name()),
			Name:    entry.Name(),
			ModTime: info.ModTime(),
			IsDir:   true,
		})
	}
	return dirs, nil
}

// resolve joins relative paths to the base path
func (d *Discovery) resolve(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(d.basePath, dir)
}
