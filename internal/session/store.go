package session

import (
	"slices"
	"sync"

	"github.com/ThiagoRGoveia/progress-reports.git/internal/models"
)

type Status struct {
	HasSubjects     bool                `json:"has_subjects"`
	HasRoster       bool                `json:"has_roster"`
	Subjects        []string            `json:"subjects"`
	TotalStudents   int                 `json:"total_students"`
	ReadyToGenerate bool                `json:"ready_to_generate"`
	Files           []models.FileSource `json:"files,omitempty"`
}

// Store holds the uploaded tables and the files produced from them. A new upload
// replaces the previous one.
type Store struct {
	mu        sync.RWMutex
	subjects  *models.SubjectSet
	roster    *models.Roster
	generated map[string][]byte
	order     []string
}

func NewStore() *Store {
	return &Store{generated: make(map[string][]byte)}
}

func (s *Store) SetSubjects(set *models.SubjectSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subjects = set
}

func (s *Store) SetRoster(roster *models.Roster) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roster = roster
}

// Subjects returns the live subject set; callers must not modify it.
func (s *Store) Subjects() *models.SubjectSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.subjects
}

func (s *Store) Roster() *models.Roster {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roster
}

// Snapshot returns deep copies so a generation run is not affected by later edits.
func (s *Store) Snapshot() (*models.SubjectSet, *models.Roster) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.subjects.Clone(), s.roster.Clone()
}

func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := Status{Subjects: []string{}}
	if s.subjects != nil && len(s.subjects.Subjects) > 0 {
		status.HasSubjects = true
		status.Subjects = s.subjects.Names()
		status.TotalStudents = len(s.subjects.Students)
		for _, t := range s.subjects.Subjects {
			status.Files = append(status.Files, t.Source)
		}
	}
	if s.roster != nil {
		status.HasRoster = true
		status.Files = append(status.Files, s.roster.Source)
	}
	status.ReadyToGenerate = status.HasSubjects
	return status
}

// Clear drops uploaded tables and generated files.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subjects = nil
	s.roster = nil
	s.generated = make(map[string][]byte)
	s.order = nil
}

func (s *Store) UpdateSubjectRecord(subject, roll string, upd models.SubjectRecordUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subjects == nil {
		return &models.NotFoundError{Entity: "subject", Key: subject}
	}
	return s.subjects.UpdateRecord(subject, roll, upd)
}

func (s *Store) UpdateRosterRecord(roll string, upd models.RosterRecordUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.roster == nil {
		return &models.NotFoundError{Entity: "roster", Key: "student information"}
	}
	return s.roster.UpdateRecord(roll, upd)
}

// StoreGenerated replaces the previous set of generated files.
func (s *Store) StoreGenerated(files []models.GeneratedFile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generated = make(map[string][]byte, len(files))
	s.order = nil
	for _, f := range files {
		if _, exists := s.generated[f.Name]; !exists {
			s.order = append(s.order, f.Name)
		}
		s.generated[f.Name] = f.Data
	}
}

func (s *Store) Generated(name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.generated[name]
	if !ok {
		return nil, &models.NotFoundError{Entity: "file", Key: name}
	}
	return data, nil
}

// GeneratedFiles returns every generated file in the order it was stored.
func (s *Store) GeneratedFiles() []models.GeneratedFile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	files := make([]models.GeneratedFile, 0, len(s.order))
	for _, name := range s.order {
		files = append(files, models.GeneratedFile{Name: name, Data: s.generated[name]})
	}
	return files
}

func (s *Store) GeneratedNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.order)
}

func (s *Store) ClearGenerated() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.order)
	s.generated = make(map[string][]byte)
	s.order = nil
	return n
}
