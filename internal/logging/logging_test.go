package logging

import "testing"

func TestNew(t *testing.T) {
	for _, format := range []string{"", "console", "json"} {
		logger, err := New("debug", format)
		if err != nil {
			t.Fatalf("format %q: %v", format, err)
		}
		logger.Debugf("logger built with format %q", format)
	}
}

func TestNew_Rejects(t *testing.T) {
	if _, err := New("loud", "console"); err == nil {
		t.Error("expected error for unknown level")
	}
	if _, err := New("info", "xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}
