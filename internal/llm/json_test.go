package llm

import "testing"

func TestParseJSONResponsePlain(t *testing.T) {
	result := ParseJSONResponse(`{"name": "Go Tools", "description": "CLI helpers"}`)
	if result == nil {
		t.Fatal("expected parsed result")
	}
	if JSONString(result, "name") != "Go Tools" {
		t.Errorf("unexpected name: %v", result["name"])
	}
}

func TestParseJSONResponseFenced(t *testing.T) {
	text := "```json\n{\"name\": \"Fenced\"}\n```"
	result := ParseJSONResponse(text)
	if result == nil {
		t.Fatal("expected parsed result from fenced block")
	}
	if JSONString(result, "name") != "Fenced" {
		t.Errorf("unexpected name: %v", result["name"])
	}
}

func TestParseJSONResponseMalformed(t *testing.T) {
	if ParseJSONResponse("this is not json") != nil {
		t.Error("expected nil for malformed input")
	}
	if ParseJSONResponse("") != nil {
		t.Error("expected nil for empty input")
	}
}

func TestJSONNumberForms(t *testing.T) {
	m := map[string]any{"a": 7.0, "b": "0.85", "c": "nope"}

	if v, ok := JSONNumber(m, "a"); !ok || v != 7.0 {
		t.Errorf("expected 7.0, got %v %v", v, ok)
	}
	if v, ok := JSONNumber(m, "b"); !ok || v != 0.85 {
		t.Errorf("expected 0.85, got %v %v", v, ok)
	}
	if _, ok := JSONNumber(m, "c"); ok {
		t.Error("expected failure for non-numeric string")
	}
	if _, ok := JSONNumber(m, "missing"); ok {
		t.Error("expected failure for missing key")
	}
}

func TestJSONStrings(t *testing.T) {
	m := map[string]any{"tags": []any{"a", "b", 3, ""}}
	tags := JSONStrings(m, "tags")
	if len(tags) != 2 || tags[0] != "a" || tags[1] != "b" {
		t.Errorf("unexpected tags: %v", tags)
	}
}
