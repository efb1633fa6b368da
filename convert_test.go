package shelfwatch

import (
	"reflect"
	"testing"
)

func TestCamelToSnake_NestedMap(t *testing.T) {
	input := map[string]any{
		"mediaType": "book",
		"_id":       "lib_1",
		"nested": map[string]any{
			"lastScan": 1,
		},
	}

	got := CamelToSnake(input)

	want := map[string]any{
		"media_type": "book",
		"id":         "lib_1",
		"nested": map[string]any{
			"last_scan": 1,
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CamelToSnake() = %v, want %v", got, want)
	}
}

func TestCamelToSnake_ListOfMaps(t *testing.T) {
	input := map[string]any{
		"libraries": []any{
			map[string]any{"displayOrder": 1},
			map[string]any{"displayOrder": 2},
		},
	}

	got := CamelToSnake(input)

	want := map[string]any{
		"libraries": []any{
			map[string]any{"display_order": 1},
			map[string]any{"display_order": 2},
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CamelToSnake() = %v, want %v", got, want)
	}
}

func TestCamelToSnake_ScalarPassthrough(t *testing.T) {
	tests := []struct {
		name  string
		input any
	}{
		{"string", "mediaType"},
		{"int", 42},
		{"float", 3.14},
		{"bool", true},
		{"nil", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CamelToSnake(tt.input)
			if !reflect.DeepEqual(got, tt.input) {
				t.Errorf("CamelToSnake(%v) = %v, want unchanged", tt.input, got)
			}
		})
	}
}

func TestCamelToSnake_ValuesUntouched(t *testing.T) {
	input := map[string]any{"mediaType": "audioBook"}

	got, ok := CamelToSnake(input).(map[string]any)
	if !ok {
		t.Fatal("expected map result")
	}
	if got["media_type"] != "audioBook" {
		t.Errorf("value was converted: got %v, want audioBook", got["media_type"])
	}
}

func TestCamelToSnake_DoesNotMutateInput(t *testing.T) {
	input := map[string]any{"mediaType": "book"}

	CamelToSnake(input)

	if _, ok := input["mediaType"]; !ok {
		t.Error("input map was mutated")
	}
	if _, ok := input["media_type"]; ok {
		t.Error("converted key leaked into input map")
	}
}

func TestSnakeCase(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"mediaType", "media_type"},
		{"displayOrder", "display_order"},
		{"skipMatchingMediaWithAsin", "skip_matching_media_with_asin"},
		{"id", "id"},
		{"already_snake", "already_snake"},
		{"Upper", "upper"},
		{"ABC", "a_b_c"},
		{"_id", "id"},
		{"__private", "private"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := snakeCase(tt.input); got != tt.want {
				t.Errorf("snakeCase(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
