package repair

import (
	"errors"
	"testing"
)

func TestParseStatus(t *testing.T) {
	cases := map[string]Status{
		"COMPLETED":        StatusCompleted,
		"completed":        StatusCompleted,
		"Final_Inspection": StatusFinalInspection,
		"IN_PROGRESS":      StatusInProgress,
		"":                 StatusInProgress,
	}
	for in, want := range cases {
		got, err := ParseStatus(in)
		if err != nil {
			t.Fatalf("parse %q: %v", in, err)
		}
		if got != want {
			t.Errorf("parse %q: expected %s, got %s", in, want, got)
		}
	}

	_, err := ParseStatus("DONE")
	var verr *ValidationError
	if !errors.As(err, &verr) || !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestRecord_Validate(t *testing.T) {
	ok := Record{Plate: "12가3456", Status: StatusCompleted}
	if err := ok.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if err := (Record{Plate: "  ", Status: StatusCompleted}).Validate(); !errors.Is(err, ErrEmptyPlate) {
		t.Errorf("expected ErrEmptyPlate, got %v", err)
	}

	if err := (Record{Plate: "x", Status: "BROKEN"}).Validate(); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestChanges_ApplyKeepsPlateAndUnsetFields(t *testing.T) {
	orig := Record{
		Plate:           "12가3456",
		Model:           "Sonata",
		Status:          StatusInProgress,
		RequestedTime:   Clock(8, 30, 0),
		EstimatedFinish: Clock(10, 30, 0),
	}

	done := StatusCompleted
	var cleared TimeOfDay
	got := Changes{Status: &done, EstimatedFinish: &cleared}.Apply(orig)

	if got.Plate != orig.Plate || got.Model != orig.Model || got.RequestedTime != orig.RequestedTime {
		t.Errorf("unchanged fields were modified: %+v", got)
	}
	if got.Status != StatusCompleted {
		t.Errorf("expected completed, got %s", got.Status)
	}
	if got.EstimatedFinish.IsSet() {
		t.Error("expected finish time to be cleared")
	}
	if orig.Status != StatusInProgress {
		t.Error("original record must not change")
	}
}

func TestReplaceWith_OverwritesEverythingButPlate(t *testing.T) {
	orig := Record{Plate: "A", Model: "old", Status: StatusInProgress, EstimatedFinish: Clock(9, 0, 0)}
	next := Record{Plate: "B", Model: "new", Status: StatusFinalInspection}

	got := ReplaceWith(next).Apply(orig)

	want := Record{Plate: "A", Model: "new", Status: StatusFinalInspection}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestCountRecords(t *testing.T) {
	c := CountRecords([]Record{
		{Plate: "1", Status: StatusCompleted},
		{Plate: "2", Status: StatusCompleted},
		{Plate: "3", Status: StatusFinalInspection},
		{Plate: "4", Status: StatusInProgress},
	})
	if c.Completed != 2 || c.FinalInspection != 1 || c.InProgress != 1 || c.Total() != 4 {
		t.Errorf("unexpected counts: %+v", c)
	}
}
