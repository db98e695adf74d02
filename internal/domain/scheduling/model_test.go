package scheduling

import (
	"testing"

	"github.com/medbook/medbook/internal/platform/apperr"
)

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2025-05-01", "2025-05-01", true},
		{"2025-05-01T00:00:00Z", "2025-05-01", true},
		{"2025-05-01T23:30:00+07:00", "2025-05-01", true},
		{"2025-05-01 08:00", "2025-05-01", true},
		{" 2025-05-01 ", "2025-05-01", true},
		{"2025-5-1", "", false},
		{"01/05/2025", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, err := NormalizeDate(tt.in)
		if tt.ok && (err != nil || got != tt.want) {
			t.Errorf("NormalizeDate(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
		if !tt.ok && !apperr.Is(err, apperr.KindValidation) {
			t.Errorf("NormalizeDate(%q) expected validation error, got %v", tt.in, err)
		}
	}
}

func TestNormalizeTime(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"08:00", "08:00", true},
		{" 14:30 ", "14:30", true},
		{"8:00", "08:00", true},
		{"25:00", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, err := NormalizeTime(tt.in)
		if tt.ok && (err != nil || got != tt.want) {
			t.Errorf("NormalizeTime(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
		if !tt.ok && err == nil {
			t.Errorf("NormalizeTime(%q) expected error", tt.in)
		}
	}
}

func TestSlot_Remaining(t *testing.T) {
	s := &Slot{MaxCapacity: 20, CurrentOccupancy: 7}
	if s.Remaining() != 13 {
		t.Errorf("expected 13, got %d", s.Remaining())
	}
	if (SlotPatch{}).IsEmpty() != true {
		t.Error("expected empty patch")
	}
	n := 3
	if (SlotPatch{MaxCapacity: &n}).IsEmpty() {
		t.Error("expected non-empty patch")
	}
}
