// Package ffmpeg provides a composable API for building and supervising
// ffmpeg invocations: argument construction, process lifecycle, progress
// extraction from the diagnostic stream, and ffprobe metadata.
package ffmpeg

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// inputSpec is one -i entry with optional demuxer arguments.
type inputSpec struct {
	path   string
	format string // optional -f value ("concat" for the concat demuxer)
	safe0  bool   // concat demuxer -safe 0
}

// Command represents an ffmpeg command being built.
type Command struct {
	inputs        []inputSpec
	output        string
	preInput      []string // args before the first -i (input seeking etc.)
	postInput     []string // args after the inputs
	filters       []string // collected -vf filters
	audioFilters  []string // collected -af filters
	filterComplex string   // labeled graph; mutually exclusive with -vf
}

// Option modifies a Command. Options are composable and order-independent
// (ffmpeg receives args in correct order regardless of option order).
type Option interface {
	Apply(cmd *Command)
}

// OptionFunc is a function that implements Option.
type OptionFunc func(cmd *Command)

// Apply implements Option.
func (f OptionFunc) Apply(cmd *Command) { f(cmd) }

// NewCommand creates a command with a primary input and output and applies options.
func NewCommand(input, output string, opts ...Option) *Command {
	cmd := &Command{
		inputs: []inputSpec{{path: input}},
		output: output,
	}
	for _, opt := range opts {
		opt.Apply(cmd)
	}
	return cmd
}

// Build returns the complete ffmpeg argument list.
func (c *Command) Build() []string {
	args := []string{"-hide_banner", "-y"}

	args = append(args, c.preInput...)

	for _, in := range c.inputs {
		if in.format != "" {
			args = append(args, "-f", in.format)
		}
		if in.safe0 {
			args = append(args, "-safe", "0")
		}
		args = append(args, "-i", in.path)
	}

	args = append(args, c.postInput...)

	if c.filterComplex != "" {
		args = append(args, "-filter_complex", c.filterComplex)
	} else if len(c.filters) > 0 {
		args = append(args, "-vf", strings.Join(c.filters, ","))
	}

	if len(c.audioFilters) > 0 {
		args = append(args, "-af", strings.Join(c.audioFilters, ","))
	}

	// Auto-apply faststart for MP4/M4A outputs
	ext := strings.ToLower(filepath.Ext(c.output))
	if ext == ".mp4" || ext == ".m4a" || ext == ".mov" {
		args = append(args, "-movflags", "+faststart")
	}

	args = append(args, c.output)

	return args
}

// Run executes the ffmpeg command and waits for completion.
func (c *Command) Run(ctx context.Context) error {
	return run(ctx, c.Build(), nil)
}

// Start starts the command and returns a Process handle for lifecycle
// management. Each diagnostic line is forwarded to onLine as it is produced.
// The caller is responsible for calling Wait() or Stop() to reap the process.
func (c *Command) Start(ctx context.Context, onLine LineFunc) (*Process, error) {
	return Start(ctx, c.Build(), onLine)
}

// --- Input Options ---

// ExtraInput appends an additional input file (-i).
func ExtraInput(path string) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.inputs = append(cmd.inputs, inputSpec{path: path})
	})
}

// ConcatDemuxer switches the primary input to the concat demuxer
// (-f concat -safe 0 -i list). The input path must be a concat list file.
func ConcatDemuxer() Option {
	return OptionFunc(func(cmd *Command) {
		cmd.inputs[0].format = "concat"
		cmd.inputs[0].safe0 = true
	})
}

// --- Seeking Options ---

// Seek sets the start position (input seeking, before -i).
func Seek(start time.Duration) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.preInput = append(cmd.preInput, "-ss", formatDuration(start))
	})
}

// Duration sets the output duration (-t).
func Duration(d time.Duration) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.postInput = append(cmd.postInput, "-t", formatDuration(d))
	})
}

// SeekTo sets start position and calculates duration from start to end.
func SeekTo(start, end time.Duration) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.preInput = append(cmd.preInput, "-ss", formatDuration(start))
		duration := end - start
		if duration > 0 {
			cmd.postInput = append(cmd.postInput, "-t", formatDuration(duration))
		}
	})
}

// --- Video Codec Options ---

// VideoCodec sets the video codec (-c:v).
func VideoCodec(codec string) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.postInput = append(cmd.postInput, "-c:v", codec)
	})
}

// CRF sets the constant rate factor.
func CRF(value int) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.postInput = append(cmd.postInput, "-crf", itoa(value))
	})
}

// Preset sets the encoding preset (ultrafast, fast, medium, etc.).
func Preset(name string) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.postInput = append(cmd.postInput, "-preset", name)
	})
}

// PixelFormat sets the pixel format (-pix_fmt).
func PixelFormat(fmt string) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.postInput = append(cmd.postInput, "-pix_fmt", fmt)
	})
}

// Threads limits encoder thread usage (-threads).
func Threads(n int) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.postInput = append(cmd.postInput, "-threads", itoa(n))
	})
}

// --- Audio Codec Options ---

// AudioCodec sets the audio codec (-c:a).
func AudioCodec(codec string) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.postInput = append(cmd.postInput, "-c:a", codec)
	})
}

// AudioBitrate sets the audio bitrate (-b:a).
func AudioBitrate(bitrate string) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.postInput = append(cmd.postInput, "-b:a", bitrate)
	})
}

// SubtitleCodec sets the subtitle codec (-c:s).
func SubtitleCodec(codec string) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.postInput = append(cmd.postInput, "-c:s", codec)
	})
}

// --- Stream Copy Options (variables, not functions) ---

// CopyVideo copies the video stream without re-encoding (-c:v copy).
var CopyVideo Option = OptionFunc(func(cmd *Command) {
	cmd.postInput = append(cmd.postInput, "-c:v", "copy")
})

// CopyAudio copies the audio stream without re-encoding (-c:a copy).
var CopyAudio Option = OptionFunc(func(cmd *Command) {
	cmd.postInput = append(cmd.postInput, "-c:a", "copy")
})

// CopyAll copies all streams without re-encoding (-c copy).
var CopyAll Option = OptionFunc(func(cmd *Command) {
	cmd.postInput = append(cmd.postInput, "-c", "copy")
})

// NoAudio disables audio in the output (-an).
var NoAudio Option = OptionFunc(func(cmd *Command) {
	cmd.postInput = append(cmd.postInput, "-an")
})

// NoVideo disables video in the output (-vn).
var NoVideo Option = OptionFunc(func(cmd *Command) {
	cmd.postInput = append(cmd.postInput, "-vn")
})

// NoSubtitles disables subtitles in the output (-sn).
var NoSubtitles Option = OptionFunc(func(cmd *Command) {
	cmd.postInput = append(cmd.postInput, "-sn")
})

// MapAll maps all streams from the first input (-map 0).
var MapAll Option = OptionFunc(func(cmd *Command) {
	cmd.postInput = append(cmd.postInput, "-map", "0")
})

// MapStream maps a specific stream (-map {spec}).
func MapStream(spec string) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.postInput = append(cmd.postInput, "-map", spec)
	})
}

// --- Filter Options ---

// Filter adds a video filter to the filter chain.
func Filter(f string) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.filters = append(cmd.filters, f)
	})
}

// AudioFilter adds an audio filter to the filter chain.
func AudioFilter(f string) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.audioFilters = append(cmd.audioFilters, f)
	})
}

// FilterComplex sets a labeled filter graph. It takes precedence over the
// plain -vf chain; planners must fold any accumulated plain filters into the
// graph themselves.
func FilterComplex(graph string) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.filterComplex = graph
	})
}

// --- Output Options ---

// Frames sets the number of video frames to output (-frames:v).
func Frames(n int) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.postInput = append(cmd.postInput, "-frames:v", itoa(n))
	})
}

// Quality sets the output quality for images (-q:v).
func Quality(q int) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.postInput = append(cmd.postInput, "-q:v", itoa(q))
	})
}

// Metadata sets a metadata key-value pair.
func Metadata(key, value string) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.postInput = append(cmd.postInput, "-metadata", key+"="+value)
	})
}

// ExtraArgs adds raw arguments (escape hatch for unsupported options).
func ExtraArgs(args ...string) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.postInput = append(cmd.postInput, args...)
	})
}

// --- Utility ---

func formatDuration(d time.Duration) string {
	// Seconds with millisecond precision, the form ffmpeg accepts everywhere.
	secs := d.Seconds()
	return strconv.FormatFloat(secs, 'f', 3, 64)
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
