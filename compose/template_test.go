package compose

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"
)

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestResolveTemplateOrdering(t *testing.T) {
	filePath := writeTemp(t, "template.txt", []byte("from file {url}\n"))
	blankPath := writeTemp(t, "blank.txt", []byte("  \n\t  "))

	tests := []struct {
		name     string
		paths    []string
		override string
		want     string
	}{
		{
			name:     "file wins over override",
			paths:    []string{filePath},
			override: "from override {url}",
			want:     "from file {url}",
		},
		{
			name:     "blank file falls through to override",
			paths:    []string{blankPath},
			override: "from override {url}",
			want:     "from override {url}",
		},
		{
			name:     "missing file falls through to override",
			paths:    []string{filepath.Join(t.TempDir(), "nope.txt")},
			override: "from override {url}",
			want:     "from override {url}",
		},
		{
			name:  "no file and no override uses builtin",
			paths: nil,
			want:  DefaultTemplate,
		},
		{
			name:     "second candidate is honored",
			paths:    []string{filepath.Join(t.TempDir(), "nope.txt"), filePath},
			override: "from override {url}",
			want:     "from file {url}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveTemplate(tt.paths, tt.override, DefaultTemplate)
			if got != tt.want {
				t.Errorf("ResolveTemplate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDefaultTemplatePlaceholders(t *testing.T) {
	for _, ph := range []string{"{title}", "{now}", "{url}"} {
		if !strings.Contains(DefaultTemplate, ph) {
			t.Errorf("DefaultTemplate missing %s", ph)
		}
	}
}

func TestDecodeText(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
		want string
	}{
		{
			name: "utf-8 passes through",
			raw:  []byte("配信開始 {url}"),
			want: "配信開始 {url}",
		},
		{
			name: "shift_jis",
			// 配信 in Shift_JIS
			raw:  []byte{0x94, 0x7a, 0x90, 0x4d},
			want: "配信",
		},
		{
			name: "euc-jp",
			// 配信 in EUC-JP
			raw:  []byte{0xc7, 0xdb, 0xbf, 0xae},
			want: "配信",
		},
		{
			name: "iso-2022-jp",
			// ESC $ B <配信> ESC ( B
			raw:  []byte{0x1b, 0x24, 0x42, 0x47, 0x5b, 0x3f, 0x2e, 0x1b, 0x28, 0x42},
			want: "配信",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DecodeText(tt.raw); got != tt.want {
				t.Errorf("DecodeText() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestDecodeTextNeverFails checks the lossy last resort: any byte soup still
// yields valid UTF-8 instead of an error.
func TestDecodeTextNeverFails(t *testing.T) {
	got := DecodeText([]byte{0xff, 0xfe, 0xfd, 'o', 'k'})
	if !utf8.ValidString(got) {
		t.Errorf("DecodeText() produced invalid UTF-8: %q", got)
	}
	if !strings.Contains(got, "ok") {
		t.Errorf("DecodeText() lost decodable content: %q", got)
	}
}
