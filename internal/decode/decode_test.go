package decode

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"testing"
	"unicode/utf16"

	"github.com/andybalholm/brotli"
)

// brotliBlob compresses s the way the messenger stores blob columns.
func brotliBlob(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := brotli.NewWriter(&buf)
	if _, err := w.Write([]byte(s)); err != nil {
		t.Fatalf("brotli write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("brotli close: %v", err)
	}
	return buf.Bytes()
}

// compBody builds a "{COMP}" body value: base64(zlib(utf16le(s))).
func compBody(t *testing.T, s string) string {
	t.Helper()
	units := utf16.Encode([]rune(s))
	raw := make([]byte, 0, len(units)*2)
	for _, u := range units {
		raw = append(raw, byte(u), byte(u>>8))
	}
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(raw); err != nil {
		t.Fatalf("zlib write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("zlib close: %v", err)
	}
	return "{COMP}" + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestContent_PlainText(t *testing.T) {
	got := Content("hello", nil)
	if got != "hello" {
		t.Errorf("got %q, want %q", got, "hello")
	}
}

func TestContent_BodyBlobOverridesText(t *testing.T) {
	got := Content("old text", brotliBlob(t, "blob body"))
	if got != "blob body" {
		t.Errorf("got %q, want %q", got, "blob body")
	}
}

func TestContent_CompBodyOverridesText(t *testing.T) {
	got := Content("old text", compBody(t, "안녕"))
	if got != "안녕" {
		t.Errorf("got %q, want %q", got, "안녕")
	}
}

func TestContent_PlainBodyDoesNotOverrideText(t *testing.T) {
	got := Content("text wins", "body candidate")
	if got != "text wins" {
		t.Errorf("got %q, want %q", got, "text wins")
	}
}

func TestContent_EmptyTextFallsBackToBody(t *testing.T) {
	got := Content("", "body candidate")
	if got != "body candidate" {
		t.Errorf("got %q, want %q", got, "body candidate")
	}
}

func TestContent_TextBlob(t *testing.T) {
	got := Content(brotliBlob(t, "from text blob"), nil)
	if got != "from text blob" {
		t.Errorf("got %q, want %q", got, "from text blob")
	}
}

func TestContent_BothNil(t *testing.T) {
	if got := Content(nil, nil); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestContent_MalformedBlobYieldsPlaceholder(t *testing.T) {
	got := Content(nil, []byte{0xff, 0xfe, 0x00, 0x01, 0x02})
	if got != Failed {
		t.Errorf("got %q, want %q", got, Failed)
	}
}

func TestContent_MalformedCompYieldsPlaceholder(t *testing.T) {
	cases := []string{
		"{COMP}not base64 at all!!!",
		"{COMP}" + base64.StdEncoding.EncodeToString([]byte("not zlib")),
	}
	for _, c := range cases {
		if got := Content(nil, c); got != Failed {
			t.Errorf("Content(nil, %q) = %q, want %q", c, got, Failed)
		}
	}
}

func TestCompZlibUTF16LE_OddLength(t *testing.T) {
	// zlib payload holding 3 raw bytes cannot be UTF-16LE
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write([]byte{0x41, 0x00, 0x42}); err != nil {
		t.Fatalf("zlib write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("zlib close: %v", err)
	}
	got := CompZlibUTF16LE(base64.StdEncoding.EncodeToString(buf.Bytes()))
	if got != Failed {
		t.Errorf("got %q, want %q", got, Failed)
	}
}

func TestFilePaths(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"stride", "0|1|2|3|file1.txt|5|6|file2.txt", []string{"file1.txt", "file2.txt"}},
		{"empty input", "", []string{}},
		{"too short", "0|1|2", []string{}},
		{"blank candidate skipped", "0|1|2|3| |5|6|file2.txt", []string{"file2.txt"}},
		{"single file", "a|b|c|d|report.hwp", []string{"report.hwp"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilePaths(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("index %d: got %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}
