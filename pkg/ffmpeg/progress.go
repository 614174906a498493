package ffmpeg

import (
	"regexp"
	"strconv"
	"time"
)

// timestampRe matches the time= marker ffmpeg embeds in its stderr stats
// lines, e.g. "frame= 120 fps= 30 q=28.0 size=1024KiB time=00:00:04.02 ...".
var timestampRe = regexp.MustCompile(`time=(\d+):(\d{2}):(\d{2}(?:\.\d+)?)`)

// Sample is one normalized progress observation for a running job.
type Sample struct {
	// MediaSeconds is how far into the media the encoder has progressed.
	MediaSeconds float64
	// Percent is MediaSeconds relative to the source duration, clamped to
	// [0,100]. Meaningless when Indeterminate is set.
	Percent float64
	// Indeterminate is set when the source duration is unknown or zero;
	// consumers should show a spinner rather than a bar.
	Indeterminate bool
	// Speed is media seconds processed per wall-clock second.
	Speed float64
	// ETA is the estimated remaining wall time. Valid only when ETAKnown.
	ETA time.Duration
	// ETAKnown is false when speed is zero or the duration is unknown.
	ETAKnown bool
	// Elapsed is wall time since the tracker was created.
	Elapsed time.Duration
}

// Tracker converts diagnostic lines into progress samples for one job.
// Percent is monotonically non-decreasing across the tracker's lifetime even
// if the underlying timestamps jitter backwards.
type Tracker struct {
	duration    float64
	started     time.Time
	now         func() time.Time
	lastPercent float64
}

// NewTracker creates a tracker for a source of the given duration in seconds.
// A zero or negative duration puts the tracker in indeterminate mode.
func NewTracker(durationSeconds float64) *Tracker {
	return &Tracker{
		duration: durationSeconds,
		started:  time.Now(),
		now:      time.Now,
	}
}

// Line inspects one diagnostic line. It returns a sample and true when the
// line carries a recognizable timestamp marker; anything else is ordinary
// encoder noise and yields false.
func (t *Tracker) Line(line string) (Sample, bool) {
	m := timestampRe.FindStringSubmatch(line)
	if m == nil {
		return Sample{}, false
	}

	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	seconds, _ := strconv.ParseFloat(m[3], 64)
	media := float64(hours)*3600 + float64(minutes)*60 + seconds

	elapsed := t.now().Sub(t.started)

	s := Sample{
		MediaSeconds: media,
		Elapsed:      elapsed,
	}

	if secs := elapsed.Seconds(); secs > 0 {
		s.Speed = media / secs
	}

	if t.duration <= 0 {
		s.Indeterminate = true
		return s, true
	}

	pct := media / t.duration * 100
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	if pct < t.lastPercent {
		pct = t.lastPercent
	}
	t.lastPercent = pct
	s.Percent = pct

	if s.Speed > 0 {
		remaining := t.duration - media
		if remaining < 0 {
			remaining = 0
		}
		s.ETA = time.Duration(remaining / s.Speed * float64(time.Second))
		s.ETAKnown = true
	}

	return s, true
}
