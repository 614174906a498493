package ffmpeg

import "fmt"

// ScaleFilter represents a scale filter.
type ScaleFilter struct {
	Width  int // Use -1 or -2 for auto-calculate maintaining aspect ratio
	Height int // Use -2 to ensure even dimensions (required for h264)
}

// String returns the ffmpeg filter string.
func (s ScaleFilter) String() string {
	return fmt.Sprintf("scale=%d:%d", s.Width, s.Height)
}

// Scale adds a scale filter.
// Use -2 for width or height to auto-calculate while maintaining aspect ratio
// and ensuring even dimensions (required for h264).
func Scale(width, height int) Option {
	return Filter(ScaleFilter{width, height}.String())
}

// ScaleWidth scales to a specific width, auto-calculating height with even dimensions.
func ScaleWidth(width int) Option {
	return Scale(width, -2)
}

// DrawtextFilter renders a text overlay at a fixed position.
type DrawtextFilter struct {
	Text      string
	FontSize  int
	FontColor string
	X, Y      string // drawtext position expressions
}

// String returns the ffmpeg filter string.
func (d DrawtextFilter) String() string {
	size := d.FontSize
	if size <= 0 {
		size = 24
	}
	color := d.FontColor
	if color == "" {
		color = "white"
	}
	x, y := d.X, d.Y
	if x == "" {
		x = "10"
	}
	if y == "" {
		y = "10"
	}
	return fmt.Sprintf("drawtext=text='%s':fontsize=%d:fontcolor=%s:x=%s:y=%s",
		escapeFilterText(d.Text), size, color, x, y)
}

// Drawtext adds a text overlay filter.
func Drawtext(text string) Option {
	return Filter(DrawtextFilter{Text: text}.String())
}

// EvenDimensions ensures output dimensions are divisible by 2 (required for
// h264). Apply after any crop filter that may produce odd dimensions.
func EvenDimensions() Option {
	return Filter("scale=trunc(iw/2)*2:trunc(ih/2)*2")
}

// escapeFilterText escapes characters that terminate or alter a drawtext
// argument inside a single-quoted filter value.
func escapeFilterText(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch r {
		case '\'', ':', '\\', ',', ';', '[', ']':
			out = append(out, '\\', r)
		default:
			out = append(out, r)
		}
	}
	return string(out)
}
