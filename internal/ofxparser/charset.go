package ofxparser

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Charsets lists the accepted Charset names. OFX v1 headers announce
// CHARSET:1252 or CHARSET:ISO-8859-1 for most non-US banks.
var Charsets = []string{"utf-8", "windows-1252", "iso-8859-1"}

func decoderFor(name string) (*encoding.Decoder, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8", "none":
		return nil, nil
	case "windows-1252", "cp1252", "1252":
		return charmap.Windows1252.NewDecoder(), nil
	case "iso-8859-1", "latin1", "latin-1":
		return charmap.ISO8859_1.NewDecoder(), nil
	default:
		return nil, fmt.Errorf("unsupported charset: %s", name)
	}
}

// ValidCharset reports whether name is an accepted Charset value.
func ValidCharset(name string) bool {
	_, err := decoderFor(name)
	return err == nil
}

func decodeReader(r io.Reader, charset string) (io.Reader, error) {
	dec, err := decoderFor(charset)
	if err != nil {
		return nil, err
	}
	if dec == nil {
		return r, nil
	}
	return transform.NewReader(r, dec), nil
}
