package filename

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"clean name untouched", "clip_720p.mp4", "clip_720p.mp4"},
		{"spaces become dashes", "my holiday video.mp4", "my-holiday-video.mp4"},
		{"path separators stripped", "../../etc/passwd", "etc-passwd"},
		{"windows reserved chars", `a<b>c:d"e|f?g*h.mp4`, "a-b-c-d-e-f-g-h.mp4"},
		{"collapsed dashes", "a---b___c.mp4", "a-b-c.mp4"},
		{"leading dots stripped", "..hidden.mp4", "hidden.mp4"},
		{"empty input", "", ""},
		{"whitespace only", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.input))
		})
	}
}

func TestSanitizeTruncationKeepsExtension(t *testing.T) {
	long := strings.Repeat("a", 200) + ".mp4"
	got := Sanitize(long)
	assert.LessOrEqual(t, len(got), MaxNameLen)
	assert.True(t, strings.HasSuffix(got, ".mp4"))
}

func TestSanitizeTruncationValidUTF8(t *testing.T) {
	// Multibyte runes must not be split at the byte cut. The leading ASCII
	// byte shifts the cut into the middle of a two-byte rune.
	long := "a" + strings.Repeat("ведео", 40) + ".mkv"
	got := Sanitize(long)
	assert.LessOrEqual(t, len(got), MaxNameLen)
	assert.True(t, utf8.ValidString(got))
	assert.True(t, strings.HasSuffix(got, ".mkv"))
}
