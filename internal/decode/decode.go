// Package decode turns the messenger's stored message columns into display
// text. The foreign application has changed its storage format over the
// years, so rows carrying plain text, brotli-compressed blobs and
// base64-wrapped zlib/UTF-16LE payloads coexist in the same table.
package decode

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
	"golang.org/x/text/encoding/unicode"
)

// Failed is the placeholder shown for a message whose stored content could
// not be decoded. A bad row must never break a listing, so decoding errors
// collapse into this string instead of propagating.
const Failed = "[decompression failed]"

// compMarker prefixes body values that carry a base64/zlib/UTF-16LE payload.
const compMarker = "{COMP}"

// Content decodes the MessageText and MessageBody column values of one row
// into a single display string. Values are whatever database/sql produced:
// string for TEXT, []byte for BLOB, nil for NULL. It never fails.
func Content(textVal, bodyVal any) string {
	var textValue string
	textPresent := false
	switch v := textVal.(type) {
	case string:
		textValue = v
		textPresent = true
	case []byte:
		textValue = Brotli(v)
		textPresent = true
	}

	// A compressed body overrides the text column; a plain-text body is
	// only a fallback candidate.
	preferBody := false
	var bodyValue string
	switch v := bodyVal.(type) {
	case string:
		if rest, ok := strings.CutPrefix(v, compMarker); ok {
			preferBody = true
			bodyValue = CompZlibUTF16LE(rest)
		} else {
			bodyValue = v
		}
	case []byte:
		preferBody = true
		bodyValue = Brotli(v)
	}

	if preferBody {
		return bodyValue
	}
	if textPresent && textValue != "" {
		return textValue
	}
	return bodyValue
}

// Brotli decompresses a brotli blob into a string, returning the Failed
// placeholder on any error.
func Brotli(compressed []byte) string {
	r := brotli.NewReader(bytes.NewReader(compressed))
	out, err := io.ReadAll(r)
	if err != nil {
		return Failed
	}
	return string(out)
}

// CompZlibUTF16LE decodes a {COMP} payload: base64, then zlib inflate, then
// UTF-16LE code units. Returns Failed on any error.
func CompZlibUTF16LE(b64 string) string {
	s, err := decodeCompZlibUTF16LE(b64)
	if err != nil {
		return Failed
	}
	return s
}

func decodeCompZlibUTF16LE(b64 string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(b64))
	if err != nil {
		return "", fmt.Errorf("base64 decode: %w", err)
	}
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("zlib inflate: %w", err)
	}
	defer zr.Close()
	raw, err := io.ReadAll(zr)
	if err != nil {
		return "", fmt.Errorf("zlib inflate: %w", err)
	}
	if len(raw)%2 != 0 {
		return "", fmt.Errorf("utf-16le payload has odd length %d", len(raw))
	}
	dec := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	out, err := dec.Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("utf-16le decode: %w", err)
	}
	return string(out), nil
}

// FilePaths extracts attachment filenames from the pipe-delimited FilePath
// column. Filenames sit at index 4 and every third field after it, a fixed
// property of the foreign record format.
func FilePaths(filePath string) []string {
	if filePath == "" {
		return []string{}
	}
	parts := strings.Split(filePath, "|")
	names := []string{}
	for i := 4; i < len(parts); i += 3 {
		name := strings.TrimSpace(parts[i])
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}
