package agent

import (
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"
)

// ansiEscape matches CSI sequences (cursor movement, colors) and OSC
// sequences (window titles) terminated by BEL or ST. The agent binary writes
// these even in non-interactive mode, and they can land inside an otherwise
// well-formed JSON payload, so stripping must happen before any brace scan.
var ansiEscape = regexp.MustCompile(`\x1b\[[0-9;?]*[ -/]*[@-~]|\x1b\][^\x07\x1b]*(\x07|\x1b\\)`)

// StripANSI removes terminal escape sequences from s.
func StripANSI(s string) string {
	if !strings.ContainsRune(s, '\x1b') {
		return s
	}
	return ansiEscape.ReplaceAllString(s, "")
}

// Extraction is the structured record recovered from agent stdout. Only two
// fields are ever trusted; anything else the process emits is ignored.
type Extraction struct {
	SessionToken string // from "session_id", empty when absent
	Response     string // resolved response text, never empty unless stdout was
}

type agentPayload struct {
	SessionID string `json:"session_id"`
	Response  string `json:"response"`
}

// Extract recovers a session token and response text from raw agent stdout.
// The stdout is noisy: diagnostic lines surround an embedded JSON object, and
// terminal escapes can appear anywhere. Strategy: strip escapes, then prefer
// the last syntactically valid JSON object scanning from the end (diagnostic
// text may itself contain braces), then the naive first-{..last-} span, then
// the whole cleaned text. Extract never fails; parse errors degrade to the
// plain-text fallback.
func Extract(raw string) Extraction {
	clean := StripANSI(raw)
	out := Extraction{Response: clean}

	span, ok := lastJSONObject(clean)
	if !ok {
		span, ok = naiveSpan(clean)
	}
	if !ok {
		return out
	}

	var payload agentPayload
	if err := json.Unmarshal([]byte(span), &payload); err != nil {
		slog.Debug("agent output parse fallback", "error", err)
		return out
	}

	if payload.SessionID != "" {
		out.SessionToken = payload.SessionID
	}
	if payload.Response != "" {
		out.Response = payload.Response
	}
	return out
}

// lastJSONObject returns the last balanced, syntactically valid JSON object
// in s. Candidate opening braces are tried from the end of the text.
func lastJSONObject(s string) (string, bool) {
	for open := strings.LastIndexByte(s, '{'); open >= 0; open = strings.LastIndexByte(s[:open], '{') {
		close, ok := matchBrace(s, open)
		if !ok {
			continue
		}
		span := s[open : close+1]
		if json.Valid([]byte(span)) {
			return span, true
		}
	}
	return "", false
}

// matchBrace finds the closing brace matching the opener at open, skipping
// brace characters inside string literals.
func matchBrace(s string, open int) (int, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := open; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// naiveSpan is the fallback span: first '{' through last '}'.
func naiveSpan(s string) (string, bool) {
	first := strings.IndexByte(s, '{')
	last := strings.LastIndexByte(s, '}')
	if first < 0 || last < 0 || first >= last {
		return "", false
	}
	return s[first : last+1], true
}
