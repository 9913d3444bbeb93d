package ingestion

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ThiagoRGoveia/progress-reports.git/internal/models"
	"github.com/ThiagoRGoveia/progress-reports.git/internal/parser"
	"github.com/ThiagoRGoveia/progress-reports.git/pkg/checksum"
)

// Processor defines the interface for loading spreadsheets from disk.
type Processor interface {
	ScanForFiles(rootPath string) ([]models.UploadedFile, error)
	ReadFile(path string) (models.UploadedFile, error)
}

// FileProcessor loads spreadsheets from the local filesystem for the command line tool.
type FileProcessor struct {
	logger *slog.Logger
}

func NewFileProcessor(logger *slog.Logger) *FileProcessor {
	return &FileProcessor{logger: logger.With(slog.String("component", "file_processor"))}
}

// ScanForFiles loads every supported spreadsheet directly inside rootPath in lexical
// order. Subdirectories, such as a previous output directory, are not entered and other
// files are skipped with a warning.
func (fp *FileProcessor) ScanForFiles(rootPath string) ([]models.UploadedFile, error) {
	var files []models.UploadedFile
	fp.logger.Info("scanning for files", slog.String("path", rootPath))

	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != rootPath {
				return fs.SkipDir
			}
			return nil
		}
		if !parser.Supported(path) {
			fp.logger.Warn("skipping unsupported file", slog.String("path", path))
			return nil
		}

		file, err := fp.ReadFile(path)
		if err != nil {
			return err
		}
		files = append(files, file)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking directory %s: %w", rootPath, err)
	}

	fp.logger.Info("scan finished", slog.Int("files", len(files)))
	return files, nil
}

func (fp *FileProcessor) ReadFile(path string) (models.UploadedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.UploadedFile{}, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	sum, err := checksum.GetFileChecksum(path)
	if err != nil {
		return models.UploadedFile{}, err
	}
	return models.UploadedFile{Name: filepath.Base(path), Data: data, Checksum: sum}, nil
}
