package entity

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/shelfwatch/shelfwatch/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func usersInfo() Info {
	return Info{
		Key:      "users",
		Endpoint: "api/users",
		Name:     "Audiobookshelf Users",
		Unit:     "users",
		Value: func(data map[string]any) any {
			users, ok := data["users"].([]any)
			if !ok {
				return nil
			}
			return len(users)
		},
		Attributes: func(data map[string]any) map[string]any {
			return map[string]any{"raw": data["users"]}
		},
		Restore: true,
	}
}

func usersData(count int) map[string]map[string]any {
	users := make([]any, count)
	for i := range users {
		users[i] = map[string]any{"username": "user"}
	}
	return map[string]map[string]any{
		"api/users": {"users": users},
	}
}

func TestSensor_UpdateDerivesStateAndAttributes(t *testing.T) {
	s := NewSensor(usersInfo(), testLogger())

	s.Update(usersData(3))

	snap := s.Snapshot()
	if snap.State != 3 {
		t.Errorf("State = %v, want 3", snap.State)
	}
	if snap.Key != "users" || snap.Name != "Audiobookshelf Users" || snap.Unit != "users" {
		t.Errorf("identity fields wrong: %+v", snap)
	}
	if _, ok := snap.Attributes["raw"]; !ok {
		t.Error("attributes not derived")
	}
	if snap.UpdatedAt.IsZero() {
		t.Error("UpdatedAt not set after accepted update")
	}
}

func TestSensor_ZeroSuppression(t *testing.T) {
	tests := []struct {
		name     string
		previous int
		next     int
		want     any
	}{
		{"zero never clobbers a value", 42, 0, 42},
		{"zero stays zero", 0, 0, 0},
		{"value replaces value", 42, 7, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSensor(usersInfo(), testLogger())
			s.Update(usersData(tt.previous))
			s.Update(usersData(tt.next))

			if got := s.Snapshot().State; got != tt.want {
				t.Errorf("State = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSensor_ValueAfterNoValue(t *testing.T) {
	s := NewSensor(usersInfo(), testLogger())

	// derivation returns nil while the payload has no users list
	s.Update(map[string]map[string]any{"api/users": {}})
	if got := s.Snapshot().State; got != nil {
		t.Fatalf("State = %v, want nil before first reading", got)
	}

	s.Update(usersData(5))
	if got := s.Snapshot().State; got != 5 {
		t.Errorf("State = %v, want 5", got)
	}
}

func TestSensor_NilDoesNotClobberValue(t *testing.T) {
	s := NewSensor(usersInfo(), testLogger())

	s.Update(usersData(5))
	s.Update(map[string]map[string]any{"api/users": {}})

	if got := s.Snapshot().State; got != 5 {
		t.Errorf("State = %v, want previous value kept on nil reading", got)
	}
}

func TestSensor_FloatZeroSuppressed(t *testing.T) {
	info := usersInfo()
	readings := []any{1.5, 0.0}
	i := 0
	info.Value = func(map[string]any) any {
		v := readings[i%len(readings)]
		i++
		return v
	}
	s := NewSensor(info, testLogger())

	s.Update(usersData(0))
	s.Update(usersData(0))

	if got := s.Snapshot().State; got != 1.5 {
		t.Errorf("State = %v, want 1.5 kept over a 0.0 reading", got)
	}
}

func TestSensor_MissingEndpointKeepsState(t *testing.T) {
	s := NewSensor(usersInfo(), testLogger())

	s.Update(usersData(3))
	s.Update(map[string]map[string]any{"api/other": {}})

	if got := s.Snapshot().State; got != 3 {
		t.Errorf("State = %v, want 3 after cache miss", got)
	}
}

func TestSensor_NilRecordKeepsState(t *testing.T) {
	s := NewSensor(usersInfo(), testLogger())

	s.Update(usersData(3))
	s.Update(map[string]map[string]any{"api/users": nil})

	if got := s.Snapshot().State; got != 3 {
		t.Errorf("State = %v, want 3 kept over a nil record", got)
	}
}

func TestSensor_AttributesMergeNotReplace(t *testing.T) {
	info := usersInfo()
	calls := 0
	info.Attributes = func(map[string]any) map[string]any {
		calls++
		if calls == 1 {
			return map[string]any{"first": 1, "shared": "old"}
		}
		return map[string]any{"second": 2, "shared": "new"}
	}
	s := NewSensor(info, testLogger())

	s.Update(usersData(1))
	s.Update(usersData(2))

	attrs := s.Snapshot().Attributes
	if attrs["first"] != 1 {
		t.Error("earlier attribute key dropped by a later merge")
	}
	if attrs["second"] != 2 {
		t.Error("later attribute key missing")
	}
	if attrs["shared"] != "new" {
		t.Errorf("shared key = %v, want the newer value", attrs["shared"])
	}
}

func TestSensor_ValuePanicRecovered(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	info := usersInfo()
	panicNext := true
	info.Value = func(data map[string]any) any {
		if panicNext {
			panic("derivation exploded")
		}
		return 9
	}
	s := NewSensor(info, logger)

	s.Update(usersData(1))

	if got := s.Snapshot().State; got != nil {
		t.Errorf("State = %v, want nil after panicking derivation", got)
	}
	logs := buf.String()
	if !strings.Contains(logs, "sensor value derivation panic") {
		t.Error("panic was not logged")
	}
	if !strings.Contains(logs, "correlation_id") {
		t.Error("panic log has no correlation id")
	}

	// sensor keeps working afterwards
	panicNext = false
	s.Update(usersData(1))
	if got := s.Snapshot().State; got != 9 {
		t.Errorf("State = %v, want 9 after recovery", got)
	}
}

func TestSensor_AttributesPanicDoesNotBlockValue(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	info := usersInfo()
	info.Attributes = func(map[string]any) map[string]any {
		panic("attributes exploded")
	}
	s := NewSensor(info, logger)

	s.Update(usersData(4))

	if got := s.Snapshot().State; got != 4 {
		t.Errorf("State = %v, want 4 despite attributes panic", got)
	}
	if !strings.Contains(buf.String(), "sensor attributes derivation panic") {
		t.Error("attributes panic was not logged")
	}
}

func TestSensor_AttributeOnlySensor(t *testing.T) {
	info := usersInfo()
	info.Value = nil
	s := NewSensor(info, testLogger())

	s.Update(usersData(2))

	snap := s.Snapshot()
	if snap.State != nil {
		t.Errorf("State = %v, want nil for attribute-only sensor", snap.State)
	}
	if len(snap.Attributes) == 0 {
		t.Error("attributes not derived")
	}
}

func TestSensor_Restore(t *testing.T) {
	s := NewSensor(usersInfo(), testLogger())

	savedAt := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	restored := s.Restore(store.SensorState{
		Key:        "users",
		State:      float64(6),
		Attributes: map[string]any{"raw": "persisted"},
		UpdatedAt:  savedAt,
	})

	if !restored {
		t.Fatal("Restore() = false, want true for restorable sensor")
	}
	snap := s.Snapshot()
	if snap.State != float64(6) {
		t.Errorf("State = %v, want restored value", snap.State)
	}
	if snap.Attributes["raw"] != "persisted" {
		t.Errorf("Attributes = %v, want restored attributes", snap.Attributes)
	}
	if !snap.UpdatedAt.Equal(savedAt) {
		t.Errorf("UpdatedAt = %v, want the persisted timestamp", snap.UpdatedAt)
	}
}

func TestSensor_RestoreRefusedWhenOptedOut(t *testing.T) {
	info := usersInfo()
	info.Restore = false
	s := NewSensor(info, testLogger())

	restored := s.Restore(store.SensorState{Key: "users", State: float64(6)})

	if restored {
		t.Error("Restore() = true, want false for non-restorable sensor")
	}
	if got := s.Snapshot().State; got != nil {
		t.Errorf("State = %v, want untouched nil", got)
	}
}

func TestSensor_LiveReadingOverridesRestoredState(t *testing.T) {
	s := NewSensor(usersInfo(), testLogger())

	s.Restore(store.SensorState{Key: "users", State: float64(6)})
	s.Update(usersData(2))

	if got := s.Snapshot().State; got != 2 {
		t.Errorf("State = %v, want the live reading", got)
	}
}

func TestSensor_SnapshotIsIndependent(t *testing.T) {
	s := NewSensor(usersInfo(), testLogger())
	s.Update(usersData(1))

	snap := s.Snapshot()
	snap.Attributes["injected"] = true

	if _, ok := s.Snapshot().Attributes["injected"]; ok {
		t.Error("mutating a snapshot reached the sensor's attributes")
	}
}

func TestIsZeroOrNull(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  bool
	}{
		{"nil", nil, true},
		{"int zero", 0, true},
		{"int64 zero", int64(0), true},
		{"float zero", 0.0, true},
		{"int value", 3, false},
		{"float value", 0.01, false},
		{"string zero-ish", "0", false},
		{"bool false", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isZeroOrNull(tt.value); got != tt.want {
				t.Errorf("isZeroOrNull(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}
