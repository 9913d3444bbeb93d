package models

import (
	"sync"
)

type UploadedFile struct {
	Name     string
	Data     []byte
	Checksum string
}

// GeneratedFile is one rendered document ready for download.
type GeneratedFile struct {
	Name string
	Data []byte
}

type StudentJob struct {
	Index  int
	RollNo string
}

type StudentReport struct {
	Index  int
	RollNo string
	Report *ReportBlocks
}

type GenerationChannels struct {
	Jobs    chan StudentJob
	Results chan StudentReport
	Errors  chan GenerationFailure
}

type GenerationWaitGroups struct {
	ReportWg *sync.WaitGroup
	MainWg   *sync.WaitGroup
}

// FailureMap collects per-student outcomes that did not produce a report.
type FailureMap struct {
	Skipped  []string
	Failures []GenerationFailure
	Mu       sync.Mutex
}

type SetupReturn struct {
	Channels   *GenerationChannels
	WaitGroups *GenerationWaitGroups
	FailureMap *FailureMap
}

func (s *SetupReturn) GetValues() (*GenerationChannels, *GenerationWaitGroups, *FailureMap) {
	return s.Channels, s.WaitGroups, s.FailureMap
}

// BatchResult is the outcome of one generation run. Reports follow the requested
// student order and Consolidated lists the same reports for the combined document.
type BatchResult struct {
	BatchID      string
	Reports      []StudentReport
	Consolidated []*ReportBlocks
	Skipped      []string
	Failures     []GenerationFailure
}

func (b *BatchResult) Report(roll string) (*ReportBlocks, bool) {
	roll = NormalizeRoll(roll)
	for _, r := range b.Reports {
		if r.RollNo == roll {
			return r.Report, true
		}
	}
	return nil, false
}
