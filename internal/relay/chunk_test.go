package relay

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestChunk(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		maxLen int
		want   []string
	}{
		{"empty", "", 2000, nil},
		{"under limit", "hello", 2000, []string{"hello"}},
		{"exact limit", "abcd", 4, []string{"abcd"}},
		{"one over", "abcde", 4, []string{"abcd", "e"}},
		{"multiple", "aaaabbbbcc", 4, []string{"aaaa", "bbbb", "cc"}},
		{"nonpositive max", "hello", 0, nil},
		{"multibyte runes", "ééééé", 2, []string{"éé", "éé", "é"}},
		{"cjk", "你好世界", 3, []string{"你好世", "界"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Chunk(tt.text, tt.maxLen)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d chunks, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("chunk %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestChunk_ConcatenationPreservesInput(t *testing.T) {
	input := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 200)

	chunks := Chunk(input, 2000)

	if got := strings.Join(chunks, ""); got != input {
		t.Error("concatenated chunks differ from input")
	}
	for i, c := range chunks {
		if utf8.RuneCountInString(c) > 2000 {
			t.Errorf("chunk %d has %d runes", i, utf8.RuneCountInString(c))
		}
		if c == "" {
			t.Errorf("chunk %d is empty", i)
		}
	}
}

func TestChunk_RuneBoundaries(t *testing.T) {
	// A cap that lands mid-rune in byte terms must not corrupt the text.
	input := strings.Repeat("é", 3)

	chunks := Chunk(input, 3)

	if len(chunks) != 1 || chunks[0] != input {
		t.Fatalf("chunks = %q, want the whole string in one chunk", chunks)
	}

	chunks = Chunk(strings.Repeat("日本語テキスト", 1000), 2000)
	for i, c := range chunks {
		if !utf8.ValidString(c) {
			t.Errorf("chunk %d is not valid UTF-8", i)
		}
	}
	if got := strings.Join(chunks, ""); got != strings.Repeat("日本語テキスト", 1000) {
		t.Error("concatenated chunks differ from input")
	}
}
