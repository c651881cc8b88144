package service

import (
	"context"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// FileDecoder turns an uploaded file into text.
type FileDecoder interface {
	Decode(ctx context.Context, name string, r io.Reader) (string, error)
}

// TextDecoder accepts text files up to maxBytes. UTF-8 is assumed; a
// UTF-16 or UTF-8 byte order mark is honoured and stripped.
type TextDecoder struct {
	maxBytes int64
}

func NewTextDecoder(maxBytes int64) *TextDecoder {
	return &TextDecoder{maxBytes: maxBytes}
}

func (d *TextDecoder) Decode(ctx context.Context, name string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	raw, err := io.ReadAll(io.LimitReader(r, d.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrDecodeFailed, name, err)
	}
	if int64(len(raw)) > d.maxBytes {
		return "", fmt.Errorf("%w: %s is larger than %d bytes", ErrDecodeFailed, name, d.maxBytes)
	}

	if mtype := mimetype.Detect(raw); !isText(mtype) {
		return "", fmt.Errorf("%w: %s is %s", ErrDecodeFailed, name, mtype.String())
	}

	// the UTF-8 decoder would quietly replace bad bytes, so validate first
	if !hasUTF16BOM(raw) && !utf8.Valid(raw) {
		return "", fmt.Errorf("%w: %s is not valid UTF-8", ErrDecodeFailed, name)
	}

	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	text, _, err := transform.Bytes(decoder, raw)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrDecodeFailed, name, err)
	}

	return string(text), nil
}

func hasUTF16BOM(b []byte) bool {
	return len(b) >= 2 && ((b[0] == 0xFE && b[1] == 0xFF) || (b[0] == 0xFF && b[1] == 0xFE))
}

// isText walks the mimetype hierarchy; csv, json, geojson, html, xml and
// friends all descend from text/plain.
func isText(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}
