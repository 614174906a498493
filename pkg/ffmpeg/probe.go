package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
)

// ProbeResult contains media file metadata. Missing pieces degrade to
// documented defaults (duration 0, absent stream "none", unnamed codec
// "unknown") rather than failing the probe.
type ProbeResult struct {
	// Video properties
	Width       int
	Height      int
	FPS         float64
	VideoCodec  string // codec name, "none" when the file has no video stream
	PixelFormat string

	// Audio properties
	AudioCodec      string // codec name, "none" when the file has no audio stream
	AudioChannels   int
	AudioSampleRate int

	// File properties
	Duration   float64 // seconds
	Size       int64   // bytes
	Bitrate    int64   // bits per second
	FormatName string

	// Stream counts
	VideoStreams int
	AudioStreams int
}

// HasVideo reports whether the file contains at least one video stream.
func (r *ProbeResult) HasVideo() bool { return r.VideoStreams > 0 }

// HasAudio reports whether the file contains at least one audio stream.
func (r *ProbeResult) HasAudio() bool { return r.AudioStreams > 0 }

// ffprobeOutput matches ffprobe JSON output structure.
type ffprobeOutput struct {
	Format struct {
		FormatName string `json:"format_name"`
		Duration   string `json:"duration"`
		Size       string `json:"size"`
		BitRate    string `json:"bit_rate"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		CodecName string `json:"codec_name"`

		// Video properties
		Width       int    `json:"width"`
		Height      int    `json:"height"`
		RFrameRate  string `json:"r_frame_rate"`
		PixelFormat string `json:"pix_fmt"`

		// Audio properties
		SampleRate string `json:"sample_rate"`
		Channels   int    `json:"channels"`
	} `json:"streams"`
}

// Probe runs ffprobe on a file and returns its metadata. Descriptors are
// computed on demand and never cached across files.
func Probe(ctx context.Context, path string) (*ProbeResult, error) {
	args := []string{
		"-hide_banner",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	}

	cmd := exec.CommandContext(ctx, "ffprobe", args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffprobe: %w: %s", err, stderr.String())
	}

	return parseProbeOutput(stdout.Bytes())
}

// parseProbeOutput decodes ffprobe JSON into a ProbeResult.
func parseProbeOutput(data []byte) (*ProbeResult, error) {
	var output ffprobeOutput
	if err := json.Unmarshal(data, &output); err != nil {
		return nil, fmt.Errorf("ffprobe: failed to parse output: %w", err)
	}

	result := &ProbeResult{
		VideoCodec: "none",
		AudioCodec: "none",
	}

	if output.Format.Duration != "" {
		result.Duration, _ = strconv.ParseFloat(output.Format.Duration, 64)
	}
	if output.Format.BitRate != "" {
		result.Bitrate, _ = strconv.ParseInt(output.Format.BitRate, 10, 64)
	}
	if output.Format.Size != "" {
		result.Size, _ = strconv.ParseInt(output.Format.Size, 10, 64)
	}
	result.FormatName = output.Format.FormatName

	for _, stream := range output.Streams {
		switch stream.CodecType {
		case "video":
			result.VideoStreams++
			// Only take first video stream metadata
			if result.VideoStreams == 1 {
				result.Width = stream.Width
				result.Height = stream.Height
				result.VideoCodec = codecOrUnknown(stream.CodecName)
				result.PixelFormat = stream.PixelFormat
				result.FPS = parseFrameRate(stream.RFrameRate)
			}

		case "audio":
			result.AudioStreams++
			if result.AudioStreams == 1 {
				result.AudioCodec = codecOrUnknown(stream.CodecName)
				result.AudioChannels = stream.Channels
				if stream.SampleRate != "" {
					result.AudioSampleRate, _ = strconv.Atoi(stream.SampleRate)
				}
			}
		}
	}

	return result, nil
}

func codecOrUnknown(name string) string {
	if name == "" {
		return "unknown"
	}
	return name
}

// parseFrameRate parses ffprobe frame rate format (e.g., "30/1" or "30000/1001").
func parseFrameRate(rate string) float64 {
	var num, den int
	_, err := fmt.Sscanf(rate, "%d/%d", &num, &den)
	if err != nil || den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// ProbeDuration is a convenience function that returns just the duration.
func ProbeDuration(ctx context.Context, path string) (float64, error) {
	result, err := Probe(ctx, path)
	if err != nil {
		return 0, err
	}
	return result.Duration, nil
}
