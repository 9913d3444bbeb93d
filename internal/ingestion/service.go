package ingestion

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/ThiagoRGoveia/progress-reports.git/internal/columns"
	"github.com/ThiagoRGoveia/progress-reports.git/internal/models"
	"github.com/ThiagoRGoveia/progress-reports.git/internal/parser"
	"github.com/ThiagoRGoveia/progress-reports.git/pkg/checksum"
)

type IngestionConfig struct {
	NumParserWorkers int
}

type IngestionService struct {
	synonyms *columns.SynonymTable
	config   IngestionConfig
	logger   *slog.Logger
}

func NewIngestionService(synonyms *columns.SynonymTable, cfg IngestionConfig, logger *slog.Logger) *IngestionService {
	if cfg.NumParserWorkers < 1 {
		cfg.NumParserWorkers = 1
	}
	return &IngestionService{
		synonyms: synonyms,
		config:   cfg,
		logger:   logger.With(slog.String("component", "ingestion")),
	}
}

// IngestSubjects parses every subject file in parallel. The first failing file cancels
// the rest and no partial set is returned.
func (s *IngestionService) IngestSubjects(ctx context.Context, files []models.UploadedFile) (*models.SubjectSet, error) {
	if len(files) == 0 {
		return nil, &models.IngestionError{Message: "no subject files uploaded"}
	}

	tables := make([]*models.SubjectTable, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.NumParserWorkers)

	for i, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			table, err := s.parseSubject(file)
			if err != nil {
				return err
			}
			tables[i] = table
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Error("subject ingestion aborted", slog.String("error", err.Error()))
		return nil, err
	}

	set := models.NewSubjectSet()
	for i, table := range tables {
		if err := set.Add(table); err != nil {
			return nil, &models.IngestionError{File: files[i].Name, Subject: table.Name, Err: err}
		}
	}

	s.logger.Info("subjects ingested",
		slog.Int("subjects", len(set.Subjects)),
		slog.Int("students", len(set.Students)))
	return set, nil
}

func (s *IngestionService) parseSubject(file models.UploadedFile) (*models.SubjectTable, error) {
	name := parser.Stem(file.Name)
	source := sourceOf(file)

	table, err := parser.ReadTable(file.Name, file.Data)
	if err != nil {
		return nil, &models.IngestionError{File: file.Name, Subject: name, Err: err}
	}

	subject, err := buildSubjectTable(name, source, table, s.synonyms, s.logger)
	if err != nil {
		return nil, err
	}

	invalid := 0
	for _, rec := range subject.Records {
		for _, m := range []models.Mark{rec.DTMarks, rec.STMarks, rec.ATMarks, rec.TotalMarks, rec.LabMarks} {
			if m.IsInvalid() {
				invalid++
			}
		}
	}
	if invalid > 0 {
		s.logger.Warn("subject has non-numeric marks that will count as 0",
			slog.String("subject", name), slog.Int("cells", invalid))
	}

	s.logger.Debug("subject parsed",
		slog.String("subject", name),
		slog.Bool("is_lab", subject.IsLab),
		slog.Int("records", len(subject.Records)))
	return subject, nil
}

// IngestRoster parses the student information file.
func (s *IngestionService) IngestRoster(file models.UploadedFile) (*models.Roster, error) {
	table, err := parser.ReadTable(file.Name, file.Data)
	if err != nil {
		return nil, &models.IngestionError{File: file.Name, Err: err}
	}

	roster, err := buildRoster(sourceOf(file), table, s.logger)
	if err != nil {
		return nil, err
	}

	s.logger.Info("roster ingested",
		slog.Int("students", len(roster.Records)),
		slog.Int("semester_columns", len(roster.SemesterColumns)))
	return roster, nil
}

func sourceOf(file models.UploadedFile) models.FileSource {
	sum := file.Checksum
	if sum == "" {
		sum = checksum.Sum(file.Data)
	}
	return models.FileSource{FileName: file.Name, Checksum: sum}
}
