package plan

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func argString(t *testing.T, s *Spec) string {
	t.Helper()
	return strings.Join(s.Args, " ")
}

func TestTranscodePlan(t *testing.T) {
	dir := t.TempDir()

	spec, err := Transcode{Resolution: "480p"}.Plan([]string{"/in/movie.mkv"}, dir)
	require.NoError(t, err)

	args := argString(t, spec)
	assert.Contains(t, args, "scale=854:480")
	assert.Contains(t, args, "-c:v libx264")
	assert.Contains(t, args, "-preset medium")
	assert.Contains(t, args, "-crf 28")
	assert.Contains(t, args, "-c:a aac")
	assert.Equal(t, filepath.Join(dir, "movie_480p.mp4"), spec.OutputPath)
	assert.Equal(t, filepath.Join(dir, "movie_480p.part.mp4"), spec.WorkPath)
	// The process must never write to the final path directly.
	assert.NotContains(t, spec.Args, spec.OutputPath)
	assert.Contains(t, spec.Args, spec.WorkPath)
	// Output runs as long as the source, so the total comes from probing.
	assert.Zero(t, spec.TargetDuration)
}

func TestTranscodeUnknownResolutionFallsBack(t *testing.T) {
	spec, err := Transcode{Resolution: "999p"}.Plan([]string{"/in/a.mp4"}, t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, argString(t, spec), "scale=1280:720")
	assert.Contains(t, spec.OutputPath, "_720p")
}

func TestTranscodeCRFValidation(t *testing.T) {
	_, err := Transcode{Resolution: "720p", CRF: 52}.Plan([]string{"/in/a.mp4"}, t.TempDir())
	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Reason, "crf")
}

func TestTranscodeTextWatermark(t *testing.T) {
	spec, err := Transcode{Resolution: "720p", WatermarkText: "hello"}.Plan([]string{"/in/a.mp4"}, t.TempDir())
	require.NoError(t, err)
	args := argString(t, spec)
	assert.Contains(t, args, "drawtext=text='hello'")
	assert.NotContains(t, args, "-filter_complex")
}

func TestTranscodeImageWatermark(t *testing.T) {
	dir := t.TempDir()
	wm := filepath.Join(dir, "logo.png")
	require.NoError(t, os.WriteFile(wm, []byte("png"), 0o644))

	spec, err := Transcode{Resolution: "720p", WatermarkImage: wm}.Plan([]string{"/in/a.mp4"}, dir)
	require.NoError(t, err)
	args := argString(t, spec)
	assert.Contains(t, args, "-filter_complex")
	assert.Contains(t, args, "[0:v]scale=1280:720[base];movie="+wm+"[wm];[base][wm]overlay=10:10")
	// A labeled graph and a plain -vf chain are mutually exclusive.
	assert.NotContains(t, spec.Args, "-vf")
}

func TestTranscodeMissingWatermarkImage(t *testing.T) {
	_, err := Transcode{Resolution: "720p", WatermarkImage: "/nope/logo.png"}.Plan([]string{"/in/a.mp4"}, t.TempDir())
	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Reason, "watermark image")
}

func TestTrimPlan(t *testing.T) {
	dir := t.TempDir()

	spec, err := Trim{Start: "00:00:10", End: "00:00:40"}.Plan([]string{"/in/clip.mp4"}, dir)
	require.NoError(t, err)

	args := argString(t, spec)
	assert.Contains(t, args, "-ss 10.000")
	assert.Contains(t, args, "-t 30.000")
	assert.Contains(t, args, "-c copy")
	assert.Equal(t, filepath.Join(dir, "clip_trimmed.mp4"), spec.OutputPath)
	// The cut's length, not the source's, is the progress total.
	assert.Equal(t, 30.0, spec.TargetDuration)
}

func TestTrimValidation(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
		wantReason string
	}{
		{"start after end", "40", "10", "before end"},
		{"start equals end", "10", "10", "before end"},
		{"bad start", "ten", "20", "invalid start"},
		{"bad end", "10", "1:99", "invalid end"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Trim{Start: tt.start, End: tt.end}.Plan([]string{"/in/a.mp4"}, t.TempDir())
			var perr *Error
			require.ErrorAs(t, err, &perr)
			assert.Contains(t, perr.Reason, tt.wantReason)
		})
	}
}

func TestCropPlan(t *testing.T) {
	tests := []struct {
		ratio string
		want  string
	}{
		{"16:9", "crop=ih*16/9:ih"},
		{"9:16", "crop=iw:iw*16/9"},
		{"1:1", "crop=min(iw\\,ih):min(iw\\,ih)"},
		{"4:3", "crop=ih*4/3:ih"},
	}
	for _, tt := range tests {
		t.Run(tt.ratio, func(t *testing.T) {
			spec, err := Crop{AspectRatio: tt.ratio}.Plan([]string{"/in/a.mp4"}, t.TempDir())
			require.NoError(t, err)
			args := argString(t, spec)
			assert.Contains(t, args, tt.want)
			// Crops may produce odd dimensions; the chain must re-even them.
			assert.Contains(t, args, "scale=trunc(iw/2)*2:trunc(ih/2)*2")
			assert.Contains(t, args, "-c:a copy")
		})
	}
}

func TestCropUnsupportedRatio(t *testing.T) {
	_, err := Crop{AspectRatio: "21:9"}.Plan([]string{"/in/a.mp4"}, t.TempDir())
	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Reason, "unsupported aspect ratio")
}

func TestCompressPlan(t *testing.T) {
	spec, err := Compress{}.Plan([]string{"/in/big.mov"}, t.TempDir())
	require.NoError(t, err)
	args := argString(t, spec)
	assert.Contains(t, args, "-crf 35")
	assert.Contains(t, args, "-b:a 96k")
	assert.Contains(t, spec.OutputPath, "big_compressed.mp4")
}

func TestExtractAudioPlan(t *testing.T) {
	spec, err := ExtractAudio{}.Plan([]string{"/in/song.mp4"}, t.TempDir())
	require.NoError(t, err)
	args := argString(t, spec)
	assert.Contains(t, args, "-vn")
	assert.Contains(t, args, "-c:a copy")
	assert.True(t, strings.HasSuffix(spec.OutputPath, "song_audio.m4a"))
	assert.Contains(t, args, "-movflags +faststart")
}

func TestExtractThumbnailPlan(t *testing.T) {
	spec, err := ExtractThumbnail{}.Plan([]string{"/in/a.mp4"}, t.TempDir())
	require.NoError(t, err)
	args := argString(t, spec)
	assert.Contains(t, args, "-ss 1.000")
	assert.Contains(t, args, "-frames:v 1")
	assert.True(t, strings.HasSuffix(spec.OutputPath, "a_thumb.jpg"))
}

func TestExtractSubtitlePlan(t *testing.T) {
	spec, err := ExtractSubtitle{}.Plan([]string{"/in/a.mkv"}, t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, argString(t, spec), "-map 0:s:0")
	assert.True(t, strings.HasSuffix(spec.OutputPath, "a.srt"))
}

func TestAddSubtitleSoft(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "subs.srt")
	require.NoError(t, os.WriteFile(sub, []byte("1\n"), 0o644))

	spec, err := AddSubtitle{Path: sub}.Plan([]string{"/in/a.mp4"}, dir)
	require.NoError(t, err)
	args := argString(t, spec)
	assert.Contains(t, args, "-i "+sub)
	assert.Contains(t, args, "-map 0 -map 1:0")
	assert.Contains(t, args, "-c copy")
	assert.Contains(t, args, "-c:s mov_text")
}

func TestAddSubtitleBurnIn(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "subs.srt")
	require.NoError(t, os.WriteFile(sub, []byte("1\n"), 0o644))

	spec, err := AddSubtitle{Path: sub, BurnIn: true}.Plan([]string{"/in/a.mp4"}, dir)
	require.NoError(t, err)
	args := argString(t, spec)
	assert.Contains(t, args, "-vf subtitles="+sub)
	assert.NotContains(t, args, "-c copy")
}

func TestAddSubtitleMissingFile(t *testing.T) {
	_, err := AddSubtitle{Path: "/nope.srt"}.Plan([]string{"/in/a.mp4"}, t.TempDir())
	var perr *Error
	require.ErrorAs(t, err, &perr)
}

func TestRemoveSubtitlePlan(t *testing.T) {
	spec, err := RemoveSubtitle{}.Plan([]string{"/in/a.mkv"}, t.TempDir())
	require.NoError(t, err)
	args := argString(t, spec)
	assert.Contains(t, args, "-c copy")
	assert.Contains(t, args, "-sn")
	assert.True(t, strings.HasSuffix(spec.OutputPath, "a_nosub.mkv"))
}

func TestAddAudioPlan(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "track.mp3")
	require.NoError(t, os.WriteFile(audio, []byte("mp3"), 0o644))

	spec, err := AddAudio{AudioPath: audio}.Plan([]string{"/in/a.mp4"}, dir)
	require.NoError(t, err)
	args := argString(t, spec)
	assert.Contains(t, args, "-i "+audio)
	assert.Contains(t, args, "-c:v copy")
	assert.Contains(t, args, "-map 0:v:0 -map 1:a:0")
}

func TestRemoveAudioPlan(t *testing.T) {
	spec, err := RemoveAudio{}.Plan([]string{"/in/a.mp4"}, t.TempDir())
	require.NoError(t, err)
	args := argString(t, spec)
	assert.Contains(t, args, "-c:v copy")
	assert.Contains(t, args, "-an")
}

func TestMergeSequencePlan(t *testing.T) {
	dir := t.TempDir()

	spec, err := MergeSequence{}.Plan([]string{"/in/part one.mp4", "/in/two.mp4"}, dir)
	require.NoError(t, err)

	args := argString(t, spec)
	assert.Contains(t, args, "-f concat")
	assert.Contains(t, args, "-safe 0")
	assert.Contains(t, args, "-c copy")

	require.Len(t, spec.Extras, 1)
	list, err := os.ReadFile(spec.Extras[0])
	require.NoError(t, err)
	assert.Equal(t, "file '/in/part one.mp4'\nfile '/in/two.mp4'\n", string(list))
	assert.Equal(t, dir, filepath.Dir(spec.Extras[0]))
}

func TestMergeSequenceNeedsTwoInputs(t *testing.T) {
	_, err := MergeSequence{}.Plan([]string{"/in/one.mp4"}, t.TempDir())
	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Reason, "at least 2")
}

func TestSingleInputOperationsRejectMultiple(t *testing.T) {
	_, err := Compress{}.Plan([]string{"/a.mp4", "/b.mp4"}, t.TempDir())
	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Reason, "exactly 1")
}
