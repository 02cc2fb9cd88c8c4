package ghcontents

import (
	"encoding/base64"
	"strings"
	"unicode/utf8"
)

// EncodeText returns the base64 form of s's UTF-8 bytes, as the contents API
// expects in write bodies.
func EncodeText(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

// EncodeBytes returns the base64 form of a binary payload.
func EncodeBytes(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// DecodeBytes decodes a base64 payload as returned by the contents API, which
// wraps its output with line breaks.
func DecodeBytes(s string) ([]byte, error) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', ' ', '\t':
			return -1
		}
		return r
	}, s)
	return base64.StdEncoding.DecodeString(s)
}

// DecodeText decodes a base64 payload into text. Payloads that are not valid
// UTF-8 are read as Latin-1 so that every byte maps to one rune.
func DecodeText(s string) (string, error) {
	b, err := DecodeBytes(s)
	if err != nil {
		return "", err
	}
	if utf8.Valid(b) {
		return string(b), nil
	}
	runes := make([]rune, len(b))
	for i, c := range b {
		runes[i] = rune(c)
	}
	return string(runes), nil
}
