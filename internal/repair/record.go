package repair

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidTimeFormat = errors.New("invalid time format")
	ErrEmptyPlate        = errors.New("license plate number is required")
	ErrInvalidStatus     = errors.New("invalid repair status")
)

// ValidationError reports a rejected field at the input boundary.
type ValidationError struct {
	Field string
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("%s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

type Status string

const (
	StatusInProgress      Status = "IN_PROGRESS"
	StatusFinalInspection Status = "FINAL_INSPECTION"
	StatusCompleted       Status = "COMPLETED"
)

// ParseStatus is case-insensitive. An empty value defaults to IN_PROGRESS.
func ParseStatus(s string) (Status, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", string(StatusInProgress):
		return StatusInProgress, nil
	case string(StatusFinalInspection):
		return StatusFinalInspection, nil
	case string(StatusCompleted):
		return StatusCompleted, nil
	}
	return "", &ValidationError{Field: "repairStatus", Value: s, Err: ErrInvalidStatus}
}

func (s Status) Valid() bool {
	switch s {
	case StatusInProgress, StatusFinalInspection, StatusCompleted:
		return true
	}
	return false
}

// Record is one repair job on the board. Records are values: the store
// swaps whole records and never mutates one in place.
type Record struct {
	Plate           string    `json:"licensePlateNumber"`
	Model           string    `json:"carModel"`
	Status          Status    `json:"repairStatus"`
	EstimatedFinish TimeOfDay `json:"estimatedFinishTime"`
	RequestedTime   TimeOfDay `json:"requestedTime"`
}

func (r Record) Validate() error {
	if strings.TrimSpace(r.Plate) == "" {
		return &ValidationError{Field: "licensePlateNumber", Err: ErrEmptyPlate}
	}
	if !r.Status.Valid() {
		return &ValidationError{Field: "repairStatus", Value: string(r.Status), Err: ErrInvalidStatus}
	}
	return nil
}

// Changes is a partial update. Nil fields are left unchanged.
type Changes struct {
	Status          *Status
	Model           *string
	RequestedTime   *TimeOfDay
	EstimatedFinish *TimeOfDay
}

// ReplaceWith returns Changes that overwrite every mutable field of a record.
func ReplaceWith(r Record) Changes {
	return Changes{
		Status:          &r.Status,
		Model:           &r.Model,
		RequestedTime:   &r.RequestedTime,
		EstimatedFinish: &r.EstimatedFinish,
	}
}

// Apply returns a new record combining r with c. The plate never changes.
func (c Changes) Apply(r Record) Record {
	if c.Status != nil {
		r.Status = *c.Status
	}
	if c.Model != nil {
		r.Model = *c.Model
	}
	if c.RequestedTime != nil {
		r.RequestedTime = *c.RequestedTime
	}
	if c.EstimatedFinish != nil {
		r.EstimatedFinish = *c.EstimatedFinish
	}
	return r
}

func (c Changes) Validate() error {
	if c.Status != nil && !c.Status.Valid() {
		return &ValidationError{Field: "repairStatus", Value: string(*c.Status), Err: ErrInvalidStatus}
	}
	return nil
}
