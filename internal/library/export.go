package library

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"curio/internal/catalog"
	"curio/internal/document"
	"curio/internal/fileutil"
	"curio/internal/logging"
)

// ExportResult describes a written export document.
type ExportResult struct {
	Path      string `json:"path"`
	Revision  int64  `json:"revision"`
	LastSaved string `json:"lastSaved"`
	Items     int    `json:"items"`
}

// Export advances the revision, stamps the export time, and writes the
// document to the export directory. When the file or the working state
// cannot be written the revision is rolled back.
func (s *Service) Export(ctx context.Context) (ExportResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.tracker.Current()
	baseline := s.tracker.Baseline()
	exported, err := s.tracker.CommitExport()
	if err != nil {
		return ExportResult{}, err
	}

	result, err := s.writeExport(ctx, exported)
	if err != nil {
		s.tracker.Reset(before, baseline)
		logging.ErrorWithContext(s.logger, "export failed", "export_failed",
			logging.Revision(exported.Revision),
			logging.Error(err),
			logging.Hint("check that the export directory is writable"),
		)
		return ExportResult{}, err
	}
	s.logger.Info("collection exported",
		logging.String("path", result.Path),
		logging.Revision(result.Revision),
		logging.Int("items", result.Items),
	)
	return result, nil
}

func (s *Service) writeExport(ctx context.Context, exported catalog.Collection) (ExportResult, error) {
	data, err := document.Serialize(exported)
	if err != nil {
		return ExportResult{}, err
	}
	if !s.cfg.Export.Pretty {
		var compact bytes.Buffer
		if err := json.Compact(&compact, data); err != nil {
			return ExportResult{}, fmt.Errorf("compact export: %w", err)
		}
		compact.WriteByte('\n')
		data = compact.Bytes()
	}

	path := s.exportPath(exported.Revision)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return ExportResult{}, fmt.Errorf("create export directory: %w", err)
	}
	if err := fileutil.WriteAtomic(path, data, 0o644); err != nil {
		return ExportResult{}, fmt.Errorf("write export %s: %w", path, err)
	}
	if err := s.store.Save(ctx, exported, exported.ContentDigest()); err != nil {
		return ExportResult{}, fmt.Errorf("persist export metadata: %w", err)
	}
	return ExportResult{
		Path:      path,
		Revision:  exported.Revision,
		LastSaved: exported.LastSaved,
		Items:     totalItems(exported),
	}, nil
}

func (s *Service) exportPath(revision int64) string {
	return filepath.Join(s.cfg.Paths.ExportDir, document.ExportFileName(s.cfg.Export.Product, revision))
}

// ImportResult describes an accepted import.
type ImportResult struct {
	Source    string          `json:"source"`
	Revision  int64           `json:"revision"`
	LastSaved string          `json:"lastSaved,omitempty"`
	Replaced  int             `json:"replaced"`
	Counts    []CategoryCount `json:"counts"`
}

// ImportFile reads path and imports it; see ImportText.
func (s *Service) ImportFile(ctx context.Context, path string) (ImportResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ImportResult{}, fmt.Errorf("read import file: %w", err)
	}
	return s.ImportText(ctx, data, path)
}

// ImportText validates text as an export document and, once the gate
// approves, replaces the whole collection with it, revision and lastSaved
// included. A malformed or invalid document, or a refusal, leaves the
// current collection untouched.
func (s *Service) ImportText(ctx context.Context, text []byte, source string) (ImportResult, error) {
	imported, err := document.Import(text)
	if err != nil {
		logging.WarnWithContext(s.logger, "import rejected", "import_rejected",
			logging.String("source", source),
			logging.Error(err),
			logging.Hint("check that the file is a curio export"),
			logging.Impact("current collection unchanged"),
		)
		return ImportResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.tracker.Current()
	prompt := fmt.Sprintf("Replace %d items with %d items from %s (revision %d)?",
		totalItems(current), totalItems(imported), displaySource(source), imported.Revision)
	approved, err := s.gate.Confirm(prompt)
	if err != nil {
		return ImportResult{}, err
	}
	if !approved {
		return ImportResult{}, ErrDeclined
	}

	if err := s.store.Save(ctx, imported, imported.ContentDigest()); err != nil {
		return ImportResult{}, fmt.Errorf("persist import: %w", err)
	}
	s.tracker.Replace(imported)

	result := ImportResult{
		Source:    source,
		Revision:  imported.Revision,
		LastSaved: imported.LastSaved,
		Replaced:  totalItems(current),
		Counts:    countsOf(imported),
	}
	s.logger.Info("collection imported",
		logging.String("source", source),
		logging.Revision(imported.Revision),
		logging.Int("items", totalItems(imported)),
		logging.Int("replaced", result.Replaced),
	)
	return result, nil
}

func displaySource(source string) string {
	if source == "" {
		return "document"
	}
	return filepath.Base(source)
}
