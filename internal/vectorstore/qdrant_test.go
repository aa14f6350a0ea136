package vectorstore

import (
	"reflect"
	"testing"

	"github.com/qdrant/go-client/qdrant"
)

func stringValue(s string) *qdrant.Value {
	return &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: s}}
}

func intValue(n int64) *qdrant.Value {
	return &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: n}}
}

func TestBuildFilter(t *testing.T) {
	if f := buildFilter(nil); f != nil {
		t.Errorf("buildFilter(nil) = %v, want nil", f)
	}
	if f := buildFilter(map[string]any{}); f != nil {
		t.Errorf("buildFilter(empty) = %v, want nil", f)
	}

	f := buildFilter(map[string]any{"document_name": "report.pdf"})
	if f == nil || len(f.Must) != 1 {
		t.Fatalf("buildFilter() = %v, want one must condition", f)
	}

	f = buildFilter(map[string]any{
		"document_name": "report.pdf",
		"chunk_index":   3,
		"archived":      false,
	})
	if len(f.Must) != 3 {
		t.Errorf("buildFilter() produced %d conditions, want 3", len(f.Must))
	}
}

func TestPopText(t *testing.T) {
	meta := map[string]any{
		"text":          "chunk content",
		"document_name": "report.pdf",
	}

	if got := popText(meta); got != "chunk content" {
		t.Errorf("popText() = %q, want the text field", got)
	}
	if _, ok := meta["text"]; ok {
		t.Error("text field left in the payload map")
	}
	if meta["document_name"] != "report.pdf" {
		t.Error("other payload fields must survive")
	}

	if got := popText(map[string]any{}); got != "" {
		t.Errorf("popText(empty) = %q, want empty", got)
	}
	// Non-string text payloads degrade to empty rather than panic.
	if got := popText(map[string]any{"text": 42}); got != "" {
		t.Errorf("popText(non-string) = %q, want empty", got)
	}
}

func TestConvertValue(t *testing.T) {
	tests := []struct {
		name  string
		value *qdrant.Value
		want  any
	}{
		{"string", stringValue("hello"), "hello"},
		{"integer", intValue(7), int64(7)},
		{"double", &qdrant.Value{Kind: &qdrant.Value_DoubleValue{DoubleValue: 1.5}}, 1.5},
		{"bool", &qdrant.Value{Kind: &qdrant.Value_BoolValue{BoolValue: true}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := convertValue(tt.value); got != tt.want {
				t.Errorf("convertValue() = %v (%T), want %v (%T)", got, got, tt.want, tt.want)
			}
		})
	}
}

func TestConvertPayloadToMap(t *testing.T) {
	payload := map[string]*qdrant.Value{
		"document_name": stringValue("report.pdf"),
		"chunk_index":   intValue(2),
		"page":          intValue(1),
		"missing":       nil,
	}

	got := convertPayloadToMap(payload)

	want := map[string]any{
		"document_name": "report.pdf",
		"chunk_index":   int64(2),
		"page":          int64(1),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("convertPayloadToMap() = %v, want %v", got, want)
	}
}

func TestNewQdrantStore_InvalidURL(t *testing.T) {
	if _, err := NewQdrantStore("://not a url"); err == nil {
		t.Error("NewQdrantStore() error = nil, want parse failure")
	}
}
