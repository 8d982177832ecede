package agent

import (
	"testing"
)

func TestStripANSI(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello", "hello"},
		{"color codes", "\x1b[31mred\x1b[0m text", "red text"},
		{"cursor movement", "\x1b[2J\x1b[Hcleared", "cleared"},
		{"osc title", "\x1b]0;title\x07body", "body"},
		{"inside json", "{\"a\":\x1b[1m1\x1b[0m}", "{\"a\":1}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripANSI(tt.in); got != tt.want {
				t.Errorf("StripANSI(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestExtract_NoisyStdout(t *testing.T) {
	raw := "Loading tools...\n" +
		"Warning: slow filesystem {check skipped}\n" +
		`{"session_id": "S1", "response": "Hi there"}` + "\n" +
		"Done in 2.3s\n"

	got := Extract(raw)

	if got.SessionToken != "S1" {
		t.Errorf("token = %q, want S1", got.SessionToken)
	}
	if got.Response != "Hi there" {
		t.Errorf("response = %q, want Hi there", got.Response)
	}
}

func TestExtract_ANSIInsidePayload(t *testing.T) {
	raw := "\x1b[32m✓\x1b[0m ready\n" +
		"{\"session_id\": \"\x1b[1mS2\x1b[0m\", \"response\": \"ok\"}"

	got := Extract(raw)

	if got.SessionToken != "S2" {
		t.Errorf("token = %q, want S2", got.SessionToken)
	}
}

func TestExtract_PrefersLastObject(t *testing.T) {
	raw := `{"session_id": "old", "response": "first"}` + "\n" +
		`{"session_id": "new", "response": "second"}`

	got := Extract(raw)

	if got.SessionToken != "new" || got.Response != "second" {
		t.Errorf("got %+v, want the last object", got)
	}
}

func TestExtract_NoJSONFallsBackToText(t *testing.T) {
	raw := "just a plain reply with no structure"

	got := Extract(raw)

	if got.SessionToken != "" {
		t.Errorf("token = %q, want empty", got.SessionToken)
	}
	if got.Response != raw {
		t.Errorf("response = %q, want full text", got.Response)
	}
}

func TestExtract_MalformedJSONFallsBackToText(t *testing.T) {
	raw := `prefix {"session_id": "S1", "response": broken} suffix`

	got := Extract(raw)

	if got.SessionToken != "" {
		t.Errorf("token = %q, want empty on malformed payload", got.SessionToken)
	}
	if got.Response != raw {
		t.Errorf("response = %q, want full cleaned text", got.Response)
	}
}

func TestExtract_IgnoresUnknownFields(t *testing.T) {
	raw := `{"session_id": "S1", "response": "hi", "usage": {"tokens": 42}, "model": "x"}`

	got := Extract(raw)

	if got.SessionToken != "S1" || got.Response != "hi" {
		t.Errorf("got %+v", got)
	}
}

func TestExtract_Idempotent(t *testing.T) {
	raw := "noise\n" + `{"session_id": "S1", "response": "stable"}`

	once := Extract(raw)
	twice := Extract(once.Response)

	if twice.Response != once.Response {
		t.Errorf("second pass changed response: %q -> %q", once.Response, twice.Response)
	}
}

func TestExtract_BracesInStrings(t *testing.T) {
	raw := `log: {unbalanced` + "\n" +
		`{"session_id": "S3", "response": "use {curly} braces"}`

	got := Extract(raw)

	if got.SessionToken != "S3" {
		t.Errorf("token = %q, want S3", got.SessionToken)
	}
	if got.Response != "use {curly} braces" {
		t.Errorf("response = %q", got.Response)
	}
}
