package shelfwatch

import "testing"

func TestNewSensor(t *testing.T) {
	sensor, err := NewSensor("backups", "api/backups",
		WithSensorName("Audiobookshelf Backups"),
		WithUnit("backups"),
		WithValue(func(data map[string]any) any { return 1 }),
		WithAttributes(Passthrough),
	)
	if err != nil {
		t.Fatalf("NewSensor() error = %v", err)
	}

	if sensor.Key() != "backups" {
		t.Errorf("Key() = %q, want backups", sensor.Key())
	}
	if sensor.Endpoint() != "api/backups" {
		t.Errorf("Endpoint() = %q, want api/backups", sensor.Endpoint())
	}
	if sensor.Name() != "Audiobookshelf Backups" {
		t.Errorf("Name() = %q, want Audiobookshelf Backups", sensor.Name())
	}
	if sensor.Unit() != "backups" {
		t.Errorf("Unit() = %q, want backups", sensor.Unit())
	}
	if sensor.Value() == nil {
		t.Error("Value() = nil, want derivation function")
	}
	if sensor.Attributes() == nil {
		t.Error("Attributes() = nil, want derivation function")
	}
}

func TestNewSensor_Defaults(t *testing.T) {
	sensor, err := NewSensor("ping", "healthcheck")
	if err != nil {
		t.Fatalf("NewSensor() error = %v", err)
	}

	if sensor.Name() != "ping" {
		t.Errorf("Name() = %q, want key as default", sensor.Name())
	}
	if sensor.Unit() != "" {
		t.Errorf("Unit() = %q, want empty", sensor.Unit())
	}
	if sensor.Value() != nil {
		t.Error("Value() should default to nil")
	}
}

func TestNewSensor_TrimsLeadingSlash(t *testing.T) {
	sensor, err := NewSensor("users", "/api/users")
	if err != nil {
		t.Fatalf("NewSensor() error = %v", err)
	}
	if sensor.Endpoint() != "api/users" {
		t.Errorf("Endpoint() = %q, want api/users", sensor.Endpoint())
	}
}

func TestNewSensor_Validation(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		endpoint string
		opts     []SensorOption
	}{
		{"empty key", "", "api/users", nil},
		{"empty endpoint", "users", "", nil},
		{"slash-only endpoint", "users", "/", nil},
		{"empty display name", "users", "api/users", []SensorOption{WithSensorName("")}},
		{"nil value function", "users", "api/users", []SensorOption{WithValue(nil)}},
		{"nil attributes function", "users", "api/users", []SensorOption{WithAttributes(nil)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewSensor(tt.key, tt.endpoint, tt.opts...); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestSensor_ValueFunctionFlows(t *testing.T) {
	sensor, err := NewSensor("answer", "api/answer",
		WithValue(Field("deeply.nested")),
	)
	if err != nil {
		t.Fatalf("NewSensor() error = %v", err)
	}

	got := sensor.Value()(map[string]any{
		"deeply": map[string]any{"nested": 42},
	})
	if got != 42 {
		t.Errorf("value function returned %v, want 42", got)
	}
}
