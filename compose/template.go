package compose

import (
	"bytes"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// DefaultTemplate is the built-in message template used when neither a
// template file nor an inline override is available.
const DefaultTemplate = "🔴 配信開始しました！ {title}\n{now}\n{url}"

// legacyDecodings is the ordered list of decoders tried when template file
// bytes are not valid UTF-8. EUC-JP comes first: Shift_JIS accepts almost any
// byte in the half-width katakana range, so it would silently misread EUC-JP
// input, while EUC-JP rejects typical Shift_JIS lead bytes outright.
var legacyDecodings = []encoding.Encoding{
	japanese.EUCJP,
	japanese.ShiftJIS,
}

// ResolveTemplate picks the message template. The first candidate file that
// is readable and non-blank wins; otherwise the inline override applies, and
// the built-in default is the last resort.
func ResolveTemplate(paths []string, override, builtin string) string {
	for _, path := range paths {
		if path == "" {
			continue
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if text := strings.TrimSpace(DecodeText(raw)); text != "" {
			return text
		}
	}
	if override != "" {
		return override
	}
	return builtin
}

// DecodeText decodes template file bytes. UTF-8 is preferred, the common
// Japanese legacy encodings are tried next, and the final fallback is a lossy
// UTF-8 interpretation so a template read never fails outright.
func DecodeText(raw []byte) string {
	// ISO-2022-JP is 7-bit and would pass UTF-8 validation with its escape
	// sequences intact, so it is recognized by its ESC markers first.
	if bytes.ContainsRune(raw, 0x1b) {
		if text, ok := decodeClean(japanese.ISO2022JP, raw); ok {
			return text
		}
	}

	if utf8.Valid(raw) {
		return string(raw)
	}

	for _, enc := range legacyDecodings {
		if text, ok := decodeClean(enc, raw); ok {
			return text
		}
	}

	return strings.ToValidUTF8(string(raw), string(utf8.RuneError))
}

// decodeClean runs one decoder and accepts the result only when it produced
// valid UTF-8 with no replacement runes, i.e. every input byte had a meaning
// in that encoding.
func decodeClean(enc encoding.Encoding, raw []byte) (string, bool) {
	text, _, err := transform.Bytes(enc.NewDecoder(), raw)
	if err != nil || !utf8.Valid(text) || bytes.ContainsRune(text, utf8.RuneError) {
		return "", false
	}
	return string(text), true
}
