package llm

import (
	"testing"
)

type nested struct {
	Short []string `json:"short"`
	Long  []string `json:"long"`
}

type sample struct {
	Score  float64  `json:"score" jsonschema:"minimum=0,maximum=100"`
	Labels []string `json:"labels"`
	Nested nested   `json:"nested"`
}

func TestGenerateSchema_StrictObjects(t *testing.T) {
	schema := GenerateSchema[sample]()

	if schema["type"] != "object" {
		t.Fatalf("expected object schema, got %v", schema["type"])
	}
	if schema["additionalProperties"] != false {
		t.Error("expected additionalProperties false at top level")
	}
	required, ok := schema["required"].([]string)
	if !ok {
		t.Fatalf("expected required list, got %T", schema["required"])
	}
	want := []string{"labels", "nested", "score"}
	if len(required) != len(want) {
		t.Fatalf("expected required %v, got %v", want, required)
	}
	for i := range want {
		if required[i] != want[i] {
			t.Errorf("required[%d]: expected %s, got %s", i, want[i], required[i])
		}
	}

	props := schema["properties"].(map[string]any)
	inner := props["nested"].(map[string]any)
	if inner["additionalProperties"] != false {
		t.Error("expected additionalProperties false on nested object")
	}
	score := props["score"].(map[string]any)
	if score["maximum"] != float64(100) {
		t.Errorf("expected maximum 100, got %v", score["maximum"])
	}
	if _, ok := schema["$schema"]; ok {
		t.Error("expected $schema to be stripped")
	}
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "plain", in: `{"a":1}`, want: `{"a":1}`},
		{name: "whitespace", in: "  {\"a\":1}\n", want: `{"a":1}`},
		{name: "fenced", in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "prose", in: `Here you go: {"a":{"b":2}} hope that helps`, want: `{"a":{"b":2}}`},
		{name: "empty", in: "   ", wantErr: true},
		{name: "no object", in: "no json here", wantErr: true},
		{name: "broken", in: `{"a":}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSONObject(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	var out struct {
		A int `json:"a"`
	}
	if err := DecodeJSON("result:\n{\"a\": 7}", &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.A != 7 {
		t.Errorf("expected 7, got %d", out.A)
	}
}
