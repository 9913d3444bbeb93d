package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ThiagoRGoveia/progress-reports.git/internal/models"
	"github.com/ThiagoRGoveia/progress-reports.git/internal/reconcile"
	"github.com/ThiagoRGoveia/progress-reports.git/internal/render"
	"github.com/ThiagoRGoveia/progress-reports.git/internal/session"
)

var timeNow = time.Now

type Ingestor interface {
	IngestSubjects(ctx context.Context, files []models.UploadedFile) (*models.SubjectSet, error)
	IngestRoster(file models.UploadedFile) (*models.Roster, error)
}

type Generator interface {
	GenerateAll(ctx context.Context, studentIDs []string, subjects *models.SubjectSet, roster *models.Roster, cfg models.ReportConfig) (*models.BatchResult, error)
}

type Service struct {
	ingestor       Ingestor
	generator      Generator
	renderer       render.Renderer
	store          *session.Store
	maxUploadBytes int64
	logger         *slog.Logger
}

func NewService(ingestor Ingestor, generator Generator, renderer render.Renderer, store *session.Store, maxUploadBytes int64, logger *slog.Logger) *Service {
	return &Service{
		ingestor:       ingestor,
		generator:      generator,
		renderer:       renderer,
		store:          store,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With(slog.String("component", "server")),
	}
}

func (s *Service) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// UploadSubjects handles POST /api/upload/subjects with one or more "files" parts.
// The new subject set replaces the previous one only when every file was ingested.
func (s *Service) UploadSubjects(w http.ResponseWriter, r *http.Request) {
	files, err := s.readMultipart(w, r, "files")
	if err != nil {
		s.HandleError(w, r, err)
		return
	}

	subjects, err := s.ingestor.IngestSubjects(r.Context(), files)
	if err != nil {
		s.HandleError(w, r, err)
		return
	}
	s.store.SetSubjects(subjects)

	WriteJSON(w, http.StatusOK, map[string]any{
		"message":        fmt.Sprintf("Uploaded %d subject files", len(subjects.Subjects)),
		"subjects":       subjects.Names(),
		"total_students": len(subjects.Students),
	})
}

// UploadStudentInfo handles POST /api/upload/student-info with a single "file" part.
func (s *Service) UploadStudentInfo(w http.ResponseWriter, r *http.Request) {
	files, err := s.readMultipart(w, r, "file")
	if err != nil {
		s.HandleError(w, r, err)
		return
	}
	if len(files) != 1 {
		WriteJSONError(w, http.StatusBadRequest, "exactly one student information file is required")
		return
	}

	roster, err := s.ingestor.IngestRoster(files[0])
	if err != nil {
		s.HandleError(w, r, err)
		return
	}
	s.store.SetRoster(roster)

	WriteJSON(w, http.StatusOK, map[string]any{
		"message":          "Student information uploaded",
		"total_students":   len(roster.Records),
		"semester_columns": roster.SemesterColumns,
	})
}

func (s *Service) UploadStatus(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, s.store.Status())
}

func (s *Service) ClearUploads(w http.ResponseWriter, r *http.Request) {
	s.store.Clear()
	WriteJSON(w, http.StatusOK, map[string]string{"message": "All uploaded data cleared"})
}

type subjectPreview struct {
	Name     string                 `json:"subject_name"`
	IsLab    bool                   `json:"is_lab"`
	Columns  []string               `json:"columns"`
	RowCount int                    `json:"row_count"`
	Records  []models.SubjectRecord `json:"records"`
}

var theoryOnlyColumns = []string{models.FieldDTMarks, models.FieldSTMarks, models.FieldATMarks, models.FieldTotalMarks}

func (s *Service) PreviewSubjects(w http.ResponseWriter, r *http.Request) {
	subjects, _ := s.store.Snapshot()
	if subjects == nil {
		s.HandleError(w, r, &models.NotFoundError{Entity: "subject data", Key: "upload"})
		return
	}

	previews := make([]subjectPreview, 0, len(subjects.Subjects))
	for _, t := range subjects.Subjects {
		cols := t.Columns
		if t.IsLab {
			cols = slices.DeleteFunc(slices.Clone(cols), func(c string) bool {
				return slices.Contains(theoryOnlyColumns, c)
			})
		}
		previews = append(previews, subjectPreview{
			Name:     t.Name,
			IsLab:    t.IsLab,
			Columns:  cols,
			RowCount: len(t.Records),
			Records:  t.Records,
		})
	}
	WriteJSON(w, http.StatusOK, map[string]any{"subjects": previews})
}

func (s *Service) GetStudent(w http.ResponseWriter, r *http.Request) {
	subjects, roster := s.store.Snapshot()
	if subjects == nil {
		s.HandleError(w, r, &models.NotFoundError{Entity: "subject data", Key: "upload"})
		return
	}

	student, err := reconcile.New(subjects, roster).Reconcile(chi.URLParam(r, "roll_no"))
	if err != nil {
		s.HandleError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, student)
}

type UpdateStudentRequest struct {
	SubjectName string `json:"subject_name" validate:"required"`
	models.SubjectRecordUpdate
}

// UpdateStudent handles PUT /api/preview/student/{roll_no}, editing one subject row.
func (s *Service) UpdateStudent(w http.ResponseWriter, r *http.Request) {
	var req UpdateStudentRequest
	if err := decodeJSON(r, &req); err != nil {
		s.HandleError(w, r, err)
		return
	}
	if err := validateRequest(req); err != nil {
		s.HandleError(w, r, err)
		return
	}

	roll := chi.URLParam(r, "roll_no")
	if err := s.store.UpdateSubjectRecord(req.SubjectName, roll, req.SubjectRecordUpdate); err != nil {
		s.HandleError(w, r, err)
		return
	}
	s.logger.Info("subject record updated", slog.String("subject", req.SubjectName), slog.String("roll_no", roll))
	WriteJSON(w, http.StatusOK, map[string]string{"message": "Student data updated"})
}

func (s *Service) GetBacklog(w http.ResponseWriter, r *http.Request) {
	_, roster := s.store.Snapshot()
	if roster == nil {
		s.HandleError(w, r, &models.NotFoundError{Entity: "roster", Key: "student information"})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"columns":          roster.Columns,
		"semester_columns": roster.SemesterColumns,
		"records":          roster.Records,
	})
}

func (s *Service) UpdateBacklog(w http.ResponseWriter, r *http.Request) {
	var req models.RosterRecordUpdate
	if err := decodeJSON(r, &req); err != nil {
		s.HandleError(w, r, err)
		return
	}
	if err := validateRequest(req); err != nil {
		s.HandleError(w, r, err)
		return
	}

	roll := chi.URLParam(r, "roll_no")
	if err := s.store.UpdateRosterRecord(roll, req); err != nil {
		s.HandleError(w, r, err)
		return
	}
	s.logger.Info("roster record updated", slog.String("roll_no", roll))
	WriteJSON(w, http.StatusOK, map[string]string{"message": "Backlog data updated"})
}

type GenerateRequest struct {
	StudentIDs []string `json:"student_ids"`
	models.ReportConfig
}

type generationFailure struct {
	RollNo  string `json:"roll_no"`
	Message string `json:"message"`
}

// GenerateReports handles POST /api/reports/generate. Generated files replace the
// previous batch in the session.
func (s *Service) GenerateReports(w http.ResponseWriter, r *http.Request) {
	req := GenerateRequest{ReportConfig: models.DefaultReportConfig()}
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			s.HandleError(w, r, err)
			return
		}
	}

	subjects, roster := s.store.Snapshot()
	if subjects == nil {
		s.HandleError(w, r, &models.ValidationError{Message: "no subject data uploaded"})
		return
	}

	result, err := s.generator.GenerateAll(r.Context(), req.StudentIDs, subjects, roster, req.ReportConfig)
	if err != nil {
		s.HandleError(w, r, err)
		return
	}

	files, err := render.Package(result, s.renderer, timeNow())
	if err != nil {
		s.HandleError(w, r, err)
		return
	}
	s.store.StoreGenerated(files)

	failures := make([]generationFailure, 0, len(result.Failures))
	for _, f := range result.Failures {
		failures = append(failures, generationFailure{RollNo: f.RollNo, Message: f.Error()})
	}
	warnings := 0
	for _, report := range result.Consolidated {
		warnings += len(report.Warnings)
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"message":   fmt.Sprintf("Generated %d reports", len(result.Reports)),
		"batch_id":  result.BatchID,
		"files":     s.store.GeneratedNames(),
		"generated": len(result.Reports),
		"skipped":   result.Skipped,
		"failures":  failures,
		"warnings":  warnings,
	})
}

func (s *Service) ListReports(w http.ResponseWriter, r *http.Request) {
	names := s.store.GeneratedNames()
	if names == nil {
		names = []string{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{"files": names})
}

func (s *Service) ClearReports(w http.ResponseWriter, r *http.Request) {
	n := s.store.ClearGenerated()
	WriteJSON(w, http.StatusOK, map[string]any{"message": fmt.Sprintf("Cleared %d reports", n)})
}

func (s *Service) DownloadReport(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	data, err := s.store.Generated(name)
	if err != nil {
		s.HandleError(w, r, err)
		return
	}
	writeAttachment(w, name, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func (s *Service) DownloadZip(w http.ResponseWriter, r *http.Request) {
	data, err := render.BuildArchive(s.store.GeneratedFiles())
	if err != nil {
		s.HandleError(w, r, err)
		return
	}
	writeAttachment(w, render.ArchiveFileName(timeNow()), "application/zip", data)
}

func writeAttachment(w http.ResponseWriter, name, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", fmt.Sprint(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// readMultipart loads every part named field into memory, bounded by the upload limit.
func (s *Service) readMultipart(w http.ResponseWriter, r *http.Request, field string) ([]models.UploadedFile, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, err
		}
		return nil, &models.ValidationError{Field: field, Message: "expected a multipart upload"}
	}

	headers := r.MultipartForm.File[field]
	if len(headers) == 0 {
		return nil, &models.ValidationError{Field: field, Message: "no files uploaded"}
	}

	files := make([]models.UploadedFile, 0, len(headers))
	for _, h := range headers {
		data, err := readPart(h)
		if err != nil {
			return nil, fmt.Errorf("read upload %s: %w", h.Filename, err)
		}
		files = append(files, models.UploadedFile{Name: h.Filename, Data: data})
	}
	return files, nil
}

func readPart(h *multipart.FileHeader) ([]byte, error) {
	f, err := h.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
