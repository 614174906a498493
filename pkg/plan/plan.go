// Package plan translates high-level operation requests into concrete
// ffmpeg invocations. All validation happens here, before any process is
// launched; a planning failure never leaves files behind.
package plan

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lumenmedia/encodebot/pkg/ffmpeg"
)

// Encoding defaults, overridable per request.
const (
	DefaultCodec        = "libx264"
	DefaultPreset       = "medium"
	DefaultCRF          = 28
	DefaultAudioBitrate = "128k"

	// CompressCRF is the aggressive quality factor used by the one-tap
	// compress action.
	CompressCRF = 35
)

// Spec is the concrete recipe for one external-process invocation.
//
// The process writes to WorkPath; the coordinator renames WorkPath to
// OutputPath only after a zero exit code, so a killed process can never
// leave a corrupt file at the intended output location.
type Spec struct {
	// Args is the full ffmpeg argument list (binary name excluded).
	Args []string
	// OutputPath is the final intended output location.
	OutputPath string
	// WorkPath is the temporary path the process writes to.
	WorkPath string
	// Extras are auxiliary temp files (concat lists) that must be removed
	// after the process exits, regardless of outcome.
	Extras []string
	// TargetDuration is the expected output duration in seconds when the
	// planner knows it ahead of time (trim). Zero means unknown; progress
	// consumers fall back to probing the source.
	TargetDuration float64
}

// Error is a planning-time rejection: the request itself is invalid and no
// process was launched. The reason is safe to surface to the user verbatim.
type Error struct {
	Reason string
}

func (e *Error) Error() string { return e.Reason }

func errorf(format string, args ...any) *Error {
	return &Error{Reason: fmt.Sprintf(format, args...)}
}

// Operation is one plannable action against one or more source files.
type Operation interface {
	// Name identifies the operation in notifications and logs ("transcode",
	// "trim", ...).
	Name() string
	// Plan builds the process spec. inputs are local source paths, outDir is
	// the job workspace where all outputs and scratch files must land.
	Plan(inputs []string, outDir string) (*Spec, error)
}

// Transcode re-encodes a video at a target resolution with optional
// watermarking.
type Transcode struct {
	Resolution     string // quality token, e.g. "720p"; unknown tokens fall back to 720p
	Codec          string
	Preset         string
	CRF            int
	AudioBitrate   string
	WatermarkText  string
	WatermarkImage string
	Threads        int
}

func (t Transcode) Name() string { return "transcode" }

func (t Transcode) Plan(inputs []string, outDir string) (*Spec, error) {
	input, err := singleInput(inputs)
	if err != nil {
		return nil, err
	}
	if t.CRF < 0 || t.CRF > 51 {
		return nil, errorf("crf must be between 0 and 51, got %d", t.CRF)
	}
	if t.WatermarkImage != "" {
		if _, err := os.Stat(t.WatermarkImage); err != nil {
			return nil, errorf("watermark image not found: %s", t.WatermarkImage)
		}
	}

	codec := t.Codec
	if codec == "" {
		codec = DefaultCodec
	}
	preset := t.Preset
	if preset == "" {
		preset = DefaultPreset
	}
	crf := t.CRF
	if crf == 0 {
		crf = DefaultCRF
	}
	audioBitrate := t.AudioBitrate
	if audioBitrate == "" {
		audioBitrate = DefaultAudioBitrate
	}

	token := t.Resolution
	if _, ok := resolutionTable[token]; !ok {
		token = DefaultResolution
	}
	dims := ResolutionDims(token)

	out := outputPath(outDir, input, "_"+token, ".mp4")
	work := workPath(out)

	opts := []ffmpeg.Option{
		ffmpeg.VideoCodec(codec),
		ffmpeg.Preset(preset),
		ffmpeg.CRF(crf),
		ffmpeg.AudioCodec("aac"),
		ffmpeg.AudioBitrate(audioBitrate),
	}
	if t.Threads > 0 {
		opts = append(opts, ffmpeg.Threads(t.Threads))
	}

	// The scale and any watermark must compose into one chain; an image
	// watermark needs a labeled graph so the overlay source can be declared.
	chain := []string{ffmpeg.ScaleFilter{Width: dims.Width, Height: dims.Height}.String()}
	if t.WatermarkText != "" {
		chain = append(chain, ffmpeg.DrawtextFilter{Text: t.WatermarkText}.String())
	}
	if t.WatermarkImage != "" {
		graph := fmt.Sprintf("[0:v]%s[base];movie=%s[wm];[base][wm]overlay=10:10",
			strings.Join(chain, ","), t.WatermarkImage)
		opts = append(opts, ffmpeg.FilterComplex(graph))
	} else {
		for _, f := range chain {
			opts = append(opts, ffmpeg.Filter(f))
		}
	}

	return &Spec{
		Args:       ffmpeg.NewCommand(input, work, opts...).Build(),
		OutputPath: out,
		WorkPath:   work,
	}, nil
}

// Trim cuts the stretch between Start and End out of the source without
// re-encoding. Stream copy snaps to keyframes, so the boundaries are
// approximate by up to a group-of-pictures.
type Trim struct {
	Start string
	End   string
}

func (t Trim) Name() string { return "trim" }

func (t Trim) Plan(inputs []string, outDir string) (*Spec, error) {
	input, err := singleInput(inputs)
	if err != nil {
		return nil, err
	}
	start, err := ParseTimecode(t.Start)
	if err != nil {
		return nil, errorf("invalid start time: %v", err)
	}
	end, err := ParseTimecode(t.End)
	if err != nil {
		return nil, errorf("invalid end time: %v", err)
	}
	if start >= end {
		return nil, errorf("start time %s must be before end time %s", t.Start, t.End)
	}

	out := outputPath(outDir, input, "_trimmed", "")
	work := workPath(out)

	return &Spec{
		Args: ffmpeg.NewCommand(input, work,
			ffmpeg.SeekTo(start, end),
			ffmpeg.CopyAll,
		).Build(),
		OutputPath:     out,
		WorkPath:       work,
		TargetDuration: (end - start).Seconds(),
	}, nil
}

// aspectTable maps aspect-ratio tokens to crop expressions. Cropping never
// letterboxes: the larger dimension is cut down to reach the target ratio.
var aspectTable = map[string]string{
	"16:9": "crop=ih*16/9:ih",
	"9:16": "crop=iw:iw*16/9",
	"1:1":  "crop=min(iw\\,ih):min(iw\\,ih)",
	"4:3":  "crop=ih*4/3:ih",
}

// Crop cuts the frame down to a target aspect ratio.
type Crop struct {
	AspectRatio string
}

func (c Crop) Name() string { return "crop" }

func (c Crop) Plan(inputs []string, outDir string) (*Spec, error) {
	input, err := singleInput(inputs)
	if err != nil {
		return nil, err
	}
	expr, ok := aspectTable[c.AspectRatio]
	if !ok {
		return nil, errorf("unsupported aspect ratio %q (supported: 16:9, 9:16, 1:1, 4:3)", c.AspectRatio)
	}

	out := outputPath(outDir, input, "_cropped", ".mp4")
	work := workPath(out)

	return &Spec{
		Args: ffmpeg.NewCommand(input, work,
			ffmpeg.Filter(expr),
			ffmpeg.EvenDimensions(),
			ffmpeg.CopyAudio,
		).Build(),
		OutputPath: out,
		WorkPath:   work,
	}, nil
}

// Compress re-encodes with a high CRF to shrink the file.
type Compress struct {
	CRF int
}

func (c Compress) Name() string { return "compress" }

func (c Compress) Plan(inputs []string, outDir string) (*Spec, error) {
	input, err := singleInput(inputs)
	if err != nil {
		return nil, err
	}
	crf := c.CRF
	if crf == 0 {
		crf = CompressCRF
	}
	if crf < 0 || crf > 51 {
		return nil, errorf("crf must be between 0 and 51, got %d", crf)
	}

	out := outputPath(outDir, input, "_compressed", ".mp4")
	work := workPath(out)

	return &Spec{
		Args: ffmpeg.NewCommand(input, work,
			ffmpeg.VideoCodec(DefaultCodec),
			ffmpeg.CRF(crf),
			ffmpeg.AudioCodec("aac"),
			ffmpeg.AudioBitrate("96k"),
		).Build(),
		OutputPath: out,
		WorkPath:   work,
	}, nil
}

// ExtractAudio copies the audio stream out of the container.
type ExtractAudio struct{}

func (ExtractAudio) Name() string { return "extract audio" }

func (ExtractAudio) Plan(inputs []string, outDir string) (*Spec, error) {
	input, err := singleInput(inputs)
	if err != nil {
		return nil, err
	}
	out := outputPath(outDir, input, "_audio", ".m4a")
	work := workPath(out)

	return &Spec{
		Args: ffmpeg.NewCommand(input, work,
			ffmpeg.NoVideo,
			ffmpeg.CopyAudio,
		).Build(),
		OutputPath: out,
		WorkPath:   work,
	}, nil
}

// ExtractThumbnail grabs a single frame as a JPEG.
type ExtractThumbnail struct {
	AtTime string // defaults to one second in
}

func (ExtractThumbnail) Name() string { return "extract thumbnail" }

func (e ExtractThumbnail) Plan(inputs []string, outDir string) (*Spec, error) {
	input, err := singleInput(inputs)
	if err != nil {
		return nil, err
	}
	at := e.AtTime
	if at == "" {
		at = "00:00:01"
	}
	offset, err := ParseTimecode(at)
	if err != nil {
		return nil, errorf("invalid thumbnail time: %v", err)
	}

	out := outputPath(outDir, input, "_thumb", ".jpg")
	work := workPath(out)

	return &Spec{
		Args: ffmpeg.NewCommand(input, work,
			ffmpeg.Seek(offset),
			ffmpeg.Frames(1),
			ffmpeg.Quality(4),
		).Build(),
		OutputPath: out,
		WorkPath:   work,
	}, nil
}

// ExtractSubtitle pulls the first subtitle stream out as SRT.
type ExtractSubtitle struct{}

func (ExtractSubtitle) Name() string { return "extract subtitle" }

func (ExtractSubtitle) Plan(inputs []string, outDir string) (*Spec, error) {
	input, err := singleInput(inputs)
	if err != nil {
		return nil, err
	}
	out := outputPath(outDir, input, "", ".srt")
	work := workPath(out)

	return &Spec{
		Args: ffmpeg.NewCommand(input, work,
			ffmpeg.MapStream("0:s:0"),
		).Build(),
		OutputPath: out,
		WorkPath:   work,
	}, nil
}

// AddSubtitle attaches a subtitle file, either burned into the pixels
// (re-encode) or soft-muxed as a selectable stream (stream copy). The two
// are mutually exclusive planning branches.
type AddSubtitle struct {
	Path   string
	BurnIn bool
}

func (s AddSubtitle) Name() string {
	if s.BurnIn {
		return "burn subtitle"
	}
	return "add subtitle"
}

func (s AddSubtitle) Plan(inputs []string, outDir string) (*Spec, error) {
	input, err := singleInput(inputs)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(s.Path); err != nil {
		return nil, errorf("subtitle file not found: %s", s.Path)
	}

	out := outputPath(outDir, input, "_subbed", ".mp4")
	work := workPath(out)

	var opts []ffmpeg.Option
	if s.BurnIn {
		opts = []ffmpeg.Option{
			ffmpeg.Filter("subtitles=" + s.Path),
			ffmpeg.CopyAudio,
		}
	} else {
		opts = []ffmpeg.Option{
			ffmpeg.ExtraInput(s.Path),
			ffmpeg.MapStream("0"),
			ffmpeg.MapStream("1:0"),
			ffmpeg.CopyAll,
			ffmpeg.SubtitleCodec("mov_text"),
		}
	}

	return &Spec{
		Args:       ffmpeg.NewCommand(input, work, opts...).Build(),
		OutputPath: out,
		WorkPath:   work,
	}, nil
}

// RemoveSubtitle strips all subtitle streams, copying everything else.
type RemoveSubtitle struct{}

func (RemoveSubtitle) Name() string { return "remove subtitle" }

func (RemoveSubtitle) Plan(inputs []string, outDir string) (*Spec, error) {
	input, err := singleInput(inputs)
	if err != nil {
		return nil, err
	}
	out := outputPath(outDir, input, "_nosub", "")
	work := workPath(out)

	return &Spec{
		Args: ffmpeg.NewCommand(input, work,
			ffmpeg.CopyAll,
			ffmpeg.NoSubtitles,
		).Build(),
		OutputPath: out,
		WorkPath:   work,
	}, nil
}

// AddAudio replaces the audio track with an external file.
type AddAudio struct {
	AudioPath string
}

func (AddAudio) Name() string { return "add audio" }

func (a AddAudio) Plan(inputs []string, outDir string) (*Spec, error) {
	input, err := singleInput(inputs)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(a.AudioPath); err != nil {
		return nil, errorf("audio file not found: %s", a.AudioPath)
	}

	out := outputPath(outDir, input, "_audio_added", ".mp4")
	work := workPath(out)

	return &Spec{
		Args: ffmpeg.NewCommand(input, work,
			ffmpeg.ExtraInput(a.AudioPath),
			ffmpeg.CopyVideo,
			ffmpeg.AudioCodec("aac"),
			ffmpeg.MapStream("0:v:0"),
			ffmpeg.MapStream("1:a:0"),
		).Build(),
		OutputPath: out,
		WorkPath:   work,
	}, nil
}

// RemoveAudio strips all audio streams, copying video.
type RemoveAudio struct{}

func (RemoveAudio) Name() string { return "remove audio" }

func (RemoveAudio) Plan(inputs []string, outDir string) (*Spec, error) {
	input, err := singleInput(inputs)
	if err != nil {
		return nil, err
	}
	out := outputPath(outDir, input, "_muted", "")
	work := workPath(out)

	return &Spec{
		Args: ffmpeg.NewCommand(input, work,
			ffmpeg.CopyVideo,
			ffmpeg.NoAudio,
		).Build(),
		OutputPath: out,
		WorkPath:   work,
	}, nil
}

// MergeSequence concatenates all inputs in order via the concat demuxer.
// The generated list file is recorded in Extras so the coordinator removes
// it whatever the outcome.
type MergeSequence struct{}

func (MergeSequence) Name() string { return "merge" }

func (MergeSequence) Plan(inputs []string, outDir string) (*Spec, error) {
	if len(inputs) < 2 {
		return nil, errorf("merge needs at least 2 inputs, got %d", len(inputs))
	}

	var list strings.Builder
	for _, p := range inputs {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, errorf("cannot resolve merge input %s: %v", p, err)
		}
		// Concat list syntax: single quotes in the path are closed, escaped,
		// and reopened.
		fmt.Fprintf(&list, "file '%s'\n", strings.ReplaceAll(abs, "'", `'\''`))
	}

	listPath := filepath.Join(outDir, fmt.Sprintf("concat-%d.txt", time.Now().UnixNano()))
	if err := os.WriteFile(listPath, []byte(list.String()), 0o644); err != nil {
		return nil, errorf("cannot write concat list: %v", err)
	}

	out := outputPath(outDir, inputs[0], "_merged", "")
	work := workPath(out)

	return &Spec{
		Args: ffmpeg.NewCommand(listPath, work,
			ffmpeg.ConcatDemuxer(),
			ffmpeg.CopyAll,
		).Build(),
		OutputPath: out,
		WorkPath:   work,
		Extras:     []string{listPath},
	}, nil
}

// singleInput unwraps the single source path operations other than merge expect.
func singleInput(inputs []string) (string, error) {
	if len(inputs) != 1 {
		return "", errorf("operation needs exactly 1 input, got %d", len(inputs))
	}
	return inputs[0], nil
}

// outputPath builds the final output location inside the job workspace.
// An empty ext keeps the input's extension.
func outputPath(outDir, input, suffix, ext string) string {
	base := filepath.Base(input)
	inExt := filepath.Ext(base)
	stem := strings.TrimSuffix(base, inExt)
	if ext == "" {
		ext = inExt
		if ext == "" {
			ext = ".mp4"
		}
	}
	return filepath.Join(outDir, stem+suffix+ext)
}

// workPath derives the temporary path the process writes to. The extension
// is preserved so ffmpeg still infers the right container.
func workPath(out string) string {
	ext := filepath.Ext(out)
	return strings.TrimSuffix(out, ext) + ".part" + ext
}
