package table

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestParseUpdate_Apply(t *testing.T) {
	base := Item{
		"id":    "x",
		"count": json.Number("2"),
		"tags":  []any{"a"},
		"meta":  map[string]any{"owner": "alice"},
		"old":   true,
	}

	tests := []struct {
		name   string
		expr   string
		names  map[string]string
		values map[string]any
		want   Item
	}{
		{
			name:   "set literal",
			expr:   "SET val = :v",
			values: map[string]any{":v": json.Number("7")},
			want:   Item{"id": "x", "count": json.Number("2"), "tags": []any{"a"}, "meta": map[string]any{"owner": "alice"}, "old": true, "val": json.Number("7")},
		},
		{
			name:   "set with name placeholder and arithmetic",
			expr:   "SET #c = #c + :inc",
			names:  map[string]string{"#c": "count"},
			values: map[string]any{":inc": json.Number("3")},
			want:   Item{"id": "x", "count": json.Number("5"), "tags": []any{"a"}, "meta": map[string]any{"owner": "alice"}, "old": true},
		},
		{
			name:   "subtract",
			expr:   "set #c = #c - :one",
			names:  map[string]string{"#c": "count"},
			values: map[string]any{":one": json.Number("1")},
			want:   Item{"id": "x", "count": json.Number("1"), "tags": []any{"a"}, "meta": map[string]any{"owner": "alice"}, "old": true},
		},
		{
			name:   "if_not_exists keeps existing",
			expr:   "SET #c = if_not_exists(#c, :zero)",
			names:  map[string]string{"#c": "count"},
			values: map[string]any{":zero": json.Number("0")},
			want:   Item{"id": "x", "count": json.Number("2"), "tags": []any{"a"}, "meta": map[string]any{"owner": "alice"}, "old": true},
		},
		{
			name:   "list_append and nested path",
			expr:   "SET tags = list_append(tags, :more), meta.owner = :who",
			values: map[string]any{":more": []any{"b"}, ":who": "bob"},
			want:   Item{"id": "x", "count": json.Number("2"), "tags": []any{"a", "b"}, "meta": map[string]any{"owner": "bob"}, "old": true},
		},
		{
			name:   "remove and add",
			expr:   "REMOVE old ADD hits :one",
			values: map[string]any{":one": json.Number("1")},
			want:   Item{"id": "x", "count": json.Number("2"), "tags": []any{"a"}, "meta": map[string]any{"owner": "alice"}, "hits": json.Number("1")},
		},
		{
			name:   "exact decimal arithmetic",
			expr:   "SET ratio = :a + :b",
			values: map[string]any{":a": json.Number("0.1"), ":b": json.Number("0.2")},
			want:   Item{"id": "x", "count": json.Number("2"), "tags": []any{"a"}, "meta": map[string]any{"owner": "alice"}, "old": true, "ratio": json.Number("0.3")},
		},
		{
			name:   "large integer arithmetic",
			expr:   "SET #c = :big + #c",
			names:  map[string]string{"#c": "count"},
			values: map[string]any{":big": json.Number("12345678901234567890")},
			want:   Item{"id": "x", "count": json.Number("12345678901234567892"), "tags": []any{"a"}, "meta": map[string]any{"owner": "alice"}, "old": true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := ParseUpdate(tt.expr, tt.names, tt.values)
			if err != nil {
				t.Fatalf("ParseUpdate() error = %v", err)
			}
			got, err := plan.Apply(base)
			if err != nil {
				t.Fatalf("Apply() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Apply() = %#v, want %#v", got, tt.want)
			}
		})
	}

	if base["count"] != json.Number("2") || len(base["tags"].([]any)) != 1 {
		t.Error("Apply() must not modify the original item")
	}
}

func TestParseUpdate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		expr    string
		names   map[string]string
		values  map[string]any
		wantMsg string
	}{
		{name: "undefined value", expr: "SET a = :missing", wantMsg: "not defined"},
		{name: "undefined name", expr: "SET #a = :v", values: map[string]any{":v": 1.0}, wantMsg: "not defined"},
		{name: "unused value", expr: "SET a = :v", values: map[string]any{":v": 1.0, ":w": 2.0}, wantMsg: "unused in expressions: keys: {:w}"},
		{name: "duplicate clause", expr: "SET a = :v SET b = :v", values: map[string]any{":v": 1.0}, wantMsg: "can only be used once"},
		{name: "bad syntax", expr: "SET a :v", values: map[string]any{":v": 1.0}, wantMsg: "Syntax error"},
		{name: "unknown function", expr: "SET a = size(b)", wantMsg: "Invalid function name"},
		{name: "overlapping paths", expr: "SET a = :v REMOVE a", values: map[string]any{":v": 1.0}, wantMsg: "overlap"},
		{name: "values without expression", expr: "", values: map[string]any{":v": 1.0}, wantMsg: "only be specified when using expressions"},
		{name: "delete clause", expr: "DELETE s :v", values: map[string]any{":v": 1.0}, wantMsg: "DELETE clause"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseUpdate(tt.expr, tt.names, tt.values)
			if err == nil {
				t.Fatal("ParseUpdate() should have failed")
			}
			if !IsValidation(err) {
				t.Errorf("expected validation error, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestUpdatePlan_ApplyTypeErrors(t *testing.T) {
	plan, err := ParseUpdate("SET name = name + :n", nil, map[string]any{":n": 1.0})
	if err != nil {
		t.Fatalf("ParseUpdate() error = %v", err)
	}
	if _, err := plan.Apply(Item{"name": "text"}); !IsValidation(err) {
		t.Errorf("expected validation error for string arithmetic, got %v", err)
	}
	if _, err := plan.Apply(Item{}); !IsValidation(err) {
		t.Errorf("expected validation error for missing operand, got %v", err)
	}
}
