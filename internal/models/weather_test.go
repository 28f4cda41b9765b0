package models

import (
	"encoding/json"
	"testing"
)

func TestMeasurementJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Wind       Measurement `json:"wind"`
		Visibility Measurement `json:"visibility"`
	}{Wind: Some(3.5)})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	want := `{"wind":3.5,"visibility":"Not Available"}`
	if string(data) != want {
		t.Fatalf("got %s, want %s", data, want)
	}
}

func TestMeasurementPtr(t *testing.T) {
	if (Measurement{}).Ptr() != nil {
		t.Fatal("absent measurement should have nil pointer")
	}
	v := 12.5
	if got := FromPtr(&v).Ptr(); got == nil || *got != 12.5 {
		t.Fatalf("unexpected pointer value: %v", got)
	}
}

func TestNewTimestamp(t *testing.T) {
	ts := NewTimestamp("2024-03-10 21:00:00")
	if !ts.Valid || ts.Sortable != "2024-03-10 21:00:00" {
		t.Fatalf("unexpected timestamp: %+v", ts)
	}

	missing := NewTimestamp("")
	if missing.Valid || missing.Display != NotAvailable {
		t.Fatalf("expected invalid timestamp, got %+v", missing)
	}
}
