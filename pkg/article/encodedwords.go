package article

import (
	"encoding/base64"
	"regexp"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// encodedWordPattern matches a single RFC 2047 encoded word:
// =?charset?encoding?encoded-text?=
var encodedWordPattern = regexp.MustCompile(`=\?([^?]+)\?([BbQq])\?([^?]*)\?=`)

// DecodeHeaderValue decodes every RFC 2047 encoded word found in value,
// dropping the linear whitespace between adjacent encoded words (the
// encoding artifact RFC 2047 section 2 requires implementations to strip),
// and leaves everything else untouched.
func DecodeHeaderValue(value string) string {
	matches := encodedWordPattern.FindAllStringIndex(value, -1)
	if len(matches) == 0 {
		return value
	}

	var b strings.Builder
	prevEnd := 0
	prevWasEncoded := false
	for _, m := range matches {
		start, end := m[0], m[1]
		between := value[prevEnd:start]
		if prevWasEncoded && strings.TrimSpace(between) == "" {
			// drop pure whitespace between two encoded words
		} else {
			b.WriteString(between)
		}
		b.WriteString(decodeOneWord(value[start:end]))
		prevEnd = end
		prevWasEncoded = true
	}
	b.WriteString(value[prevEnd:])
	return b.String()
}

// DecodeEncodedWord decodes a single RFC 2047 token. Malformed or
// unrecognized input is returned unchanged, matching original_source's
// "passthrough on failure" behavior.
func DecodeEncodedWord(word string) string {
	if !encodedWordPattern.MatchString(word) {
		return word
	}
	m := encodedWordPattern.FindStringSubmatch(word)
	if m == nil || m[0] != word {
		return word
	}
	return decodeOneWord(word)
}

func decodeOneWord(word string) string {
	m := encodedWordPattern.FindStringSubmatch(word)
	if m == nil {
		return word
	}
	charset, enc, text := m[1], strings.ToUpper(m[2]), m[3]

	var raw []byte
	var err error
	switch enc {
	case "B":
		raw, err = base64.StdEncoding.DecodeString(text)
	case "Q":
		raw, err = decodeQuotedPrintableWord(text)
	default:
		return word
	}
	if err != nil {
		return word
	}

	decoded := decodeCharset(raw, charset)
	if decoded == "" && len(raw) > 0 {
		return word
	}
	return decoded
}

// decodeQuotedPrintableWord decodes RFC 2047's Q encoding: '_' means space,
// "=XX" means the hex byte XX, anything else is passed through literally.
func decodeQuotedPrintableWord(text string) ([]byte, error) {
	var out []byte
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '_':
			out = append(out, ' ')
		case '=':
			if i+2 >= len(text) {
				out = append(out, text[i])
				continue
			}
			hi, okHi := hexVal(text[i+1])
			lo, okLo := hexVal(text[i+2])
			if !okHi || !okLo {
				out = append(out, text[i])
				continue
			}
			out = append(out, byte(hi<<4|lo))
			i += 2
		default:
			out = append(out, text[i])
		}
	}
	return out, nil
}

func hexVal(c byte) (int, bool) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), true
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10, true
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10, true
	default:
		return 0, false
	}
}

// decodeCharset converts raw bytes in the named charset to a UTF-8 string.
// UTF-8 passes through; ISO-8859-1 and Windows-1252 go through
// golang.org/x/text/encoding/charmap; anything else is treated as already
// UTF-8 (a lossy but panic-free fallback), matching original_source's
// "unknown charset -> lossy conversion" behavior.
func decodeCharset(raw []byte, charset string) string {
	switch strings.ToUpper(charset) {
	case "UTF-8", "UTF8", "US-ASCII", "ASCII":
		return string(raw)
	case "ISO-8859-1", "LATIN1":
		out, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
		if err != nil {
			return string(raw)
		}
		return string(out)
	case "WINDOWS-1252", "CP1252":
		out, err := charmap.Windows1252.NewDecoder().Bytes(raw)
		if err != nil {
			return string(raw)
		}
		return string(out)
	default:
		return string(raw)
	}
}
