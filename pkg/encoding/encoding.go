// Package encoding auto-detects and decodes the file encodings a
// journal or broker export may arrive in — UTF-8, UTF-16, or CP-1252
// (§6's "file encoding auto-detection" external collaborator).
package encoding

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

type kind int

const (
	kindUTF8 kind = iota
	kindUTF16LE
	kindUTF16BE
	kindCP1252
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeToUTF8 detects data's encoding and returns its content decoded
// to a UTF-8 string. Detection order: a UTF-16 byte-order mark, a UTF-8
// byte-order mark, valid UTF-8 without a BOM, and finally CP-1252 as
// the fallback for byte sequences that aren't valid UTF-8 — the
// encoding most broker exports use when they aren't UTF-8.
func DecodeToUTF8(data []byte) (string, error) {
	switch detect(data) {
	case kindUTF16LE:
		return decodeWith(data, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM))
	case kindUTF16BE:
		return decodeWith(data, unicode.UTF16(unicode.BigEndian, unicode.UseBOM))
	case kindCP1252:
		return decodeWith(data, charmap.Windows1252)
	default:
		return string(bytes.TrimPrefix(data, utf8BOM)), nil
	}
}

func detect(data []byte) kind {
	switch {
	case bytes.HasPrefix(data, []byte{0xFF, 0xFE}):
		return kindUTF16LE
	case bytes.HasPrefix(data, []byte{0xFE, 0xFF}):
		return kindUTF16BE
	case bytes.HasPrefix(data, utf8BOM):
		return kindUTF8
	case utf8.Valid(data):
		return kindUTF8
	default:
		return kindCP1252
	}
}

func decodeWith(data []byte, enc encoding.Encoding) (string, error) {
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
