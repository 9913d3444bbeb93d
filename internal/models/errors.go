package models

import (
	"fmt"
	"strings"
)

// IngestionError aborts a whole upload batch.
type IngestionError struct {
	File    string
	Subject string
	Missing []string
	Message string
	Err     error
}

func (e *IngestionError) Error() string {
	var b strings.Builder
	b.WriteString("ingestion failed")
	if e.Subject != "" {
		fmt.Fprintf(&b, " for subject %q", e.Subject)
	}
	if e.File != "" {
		fmt.Fprintf(&b, " (file %s)", e.File)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, ": missing required columns %s", strings.Join(e.Missing, ", "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *IngestionError) Unwrap() error {
	return e.Err
}

type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.Key)
}

// ValidationError rejects an edit without touching stored state.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// DegradedDataWarning records a mark that could not be read as a number and was counted as 0.
type DegradedDataWarning struct {
	RollNo  string `json:"roll_no"`
	Subject string `json:"subject"`
	Field   string `json:"field"`
	Value   string `json:"value"`
}

func (w DegradedDataWarning) String() string {
	return fmt.Sprintf("roll %s, subject %s: %s value %q is not numeric, counted as 0", w.RollNo, w.Subject, w.Field, w.Value)
}

// GenerationFailure is a per-student error raised while a batch is being generated.
type GenerationFailure struct {
	RollNo  string
	Message string
	Err     error
}

func (e *GenerationFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("roll %s: %s - %v", e.RollNo, e.Message, e.Err)
	}
	return fmt.Sprintf("roll %s: %s", e.RollNo, e.Message)
}

func (e *GenerationFailure) Unwrap() error {
	return e.Err
}
