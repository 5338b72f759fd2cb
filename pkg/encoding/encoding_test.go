package encoding

import (
	"testing"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

func TestDecodeToUTF8PlainUTF8(t *testing.T) {
	got, err := DecodeToUTF8([]byte("2024/02/10\tAAPL\t100"))
	if err != nil {
		t.Fatalf("DecodeToUTF8: %v", err)
	}
	if got != "2024/02/10\tAAPL\t100" {
		t.Errorf("unexpected decode: %q", got)
	}
}

func TestDecodeToUTF8StripsUTF8BOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("AAPL")...)
	got, err := DecodeToUTF8(data)
	if err != nil {
		t.Fatalf("DecodeToUTF8: %v", err)
	}
	if got != "AAPL" {
		t.Errorf("expected BOM stripped, got %q", got)
	}
}

func TestDecodeToUTF8HandlesUTF16LE(t *testing.T) {
	encoded, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().String("AAPL")
	if err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	got, err := DecodeToUTF8([]byte(encoded))
	if err != nil {
		t.Fatalf("DecodeToUTF8: %v", err)
	}
	if got != "AAPL" {
		t.Errorf("expected AAPL, got %q", got)
	}
}

func TestDecodeToUTF8FallsBackToCP1252(t *testing.T) {
	// 0x80 is the Euro sign in CP-1252 but not valid standalone UTF-8.
	encoded, err := charmap.Windows1252.NewEncoder().String("€100")
	if err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	got, err := DecodeToUTF8([]byte(encoded))
	if err != nil {
		t.Fatalf("DecodeToUTF8: %v", err)
	}
	if got != "€100" {
		t.Errorf("expected euro sign round trip, got %q", got)
	}
}
