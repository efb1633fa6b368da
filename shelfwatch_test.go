package shelfwatch

import (
	"testing"
	"time"

	"github.com/shelfwatch/shelfwatch/internal/store"
)

func TestToEntityInfo_RestoreFlag(t *testing.T) {
	registry := NewRegistry()

	tests := []struct {
		key         string
		wantRestore bool
	}{
		{"users", true},
		{"sessions", true},
		{"libraries", true},
		// the authorize payload carries credentials, so its sensor must
		// start fresh every run
		{"server_version", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			s, ok := registry.Get(tt.key)
			if !ok {
				t.Fatalf("registry missing built-in sensor %q", tt.key)
			}

			info := toEntityInfo(s)
			if info.Restore != tt.wantRestore {
				t.Errorf("Restore = %v, want %v", info.Restore, tt.wantRestore)
			}
		})
	}
}

func TestToEntityInfo_CarriesIdentity(t *testing.T) {
	s, err := NewSensor("backups", "api/backups",
		WithSensorName("Audiobookshelf Backups"),
		WithUnit("backups"),
		WithValue(Field("total")),
	)
	if err != nil {
		t.Fatalf("NewSensor() error = %v", err)
	}

	info := toEntityInfo(s)

	if info.Key != "backups" {
		t.Errorf("Key = %q, want backups", info.Key)
	}
	if info.Endpoint != "api/backups" {
		t.Errorf("Endpoint = %q, want api/backups", info.Endpoint)
	}
	if info.Name != "Audiobookshelf Backups" {
		t.Errorf("Name = %q", info.Name)
	}
	if info.Unit != "backups" {
		t.Errorf("Unit = %q, want backups", info.Unit)
	}
	if info.Restore != true {
		t.Error("Restore = false, want true for non-authorize endpoint")
	}

	if info.Value == nil {
		t.Fatal("Value = nil, want derivation function")
	}
	got := info.Value(map[string]any{"total": float64(4)})
	if got != float64(4) {
		t.Errorf("Value() = %v, want 4", got)
	}

	// no attributes function was configured
	if info.Attributes != nil {
		t.Error("Attributes = non-nil, want nil")
	}
}

func TestStoreStateToUpdate(t *testing.T) {
	now := time.Now()
	state := store.SensorState{
		Key:        "sessions",
		Name:       "Audiobookshelf Open Sessions",
		Unit:       "sessions",
		State:      float64(2),
		Attributes: map[string]any{"sessions": []any{"a", "b"}},
		UpdatedAt:  now,
	}

	update := storeStateToUpdate(state)

	if update.Key != "sessions" {
		t.Errorf("Key = %q, want sessions", update.Key)
	}
	if update.Name != "Audiobookshelf Open Sessions" {
		t.Errorf("Name = %q", update.Name)
	}
	if update.Unit != "sessions" {
		t.Errorf("Unit = %q, want sessions", update.Unit)
	}
	if update.State != float64(2) {
		t.Errorf("State = %v, want 2", update.State)
	}
	if !update.UpdatedAt.Equal(now) {
		t.Errorf("UpdatedAt = %v, want %v", update.UpdatedAt, now)
	}

	// attributes must be a copy
	update.Attributes["injected"] = true
	if _, exists := state.Attributes["injected"]; exists {
		t.Error("mutation of update attributes affected original state")
	}
}

func TestStoreStateToUpdate_NilAttributes(t *testing.T) {
	update := storeStateToUpdate(store.SensorState{Key: "users", State: 3})

	if update.Attributes != nil {
		t.Errorf("Attributes = %v, want nil", update.Attributes)
	}
}

func TestCopyAttributes(t *testing.T) {
	if got := copyAttributes(nil); got != nil {
		t.Errorf("copyAttributes(nil) = %v, want nil", got)
	}

	original := map[string]any{"a": 1, "b": "two"}
	cp := copyAttributes(original)

	cp["c"] = 3
	if _, exists := original["c"]; exists {
		t.Error("mutation of copy affected original map")
	}
	if cp["a"] != 1 || cp["b"] != "two" {
		t.Errorf("copy lost values: %v", cp)
	}
}
