package captions

import (
	"fmt"
	"sort"
	"strings"
)

// Segment is one caption line with its timing in seconds.
type Segment struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// End returns the time the segment stops being displayed.
func (s Segment) End() float64 {
	return s.Start + s.Duration
}

// Track is what a single strategy produced for one language hint.
type Track struct {
	Language string
	Segments []Segment
}

// Transcript is a normalized caption track for a video.
type Transcript struct {
	VideoID  string    `json:"video_id"`
	Language string    `json:"language"`
	Source   string    `json:"source"`
	Segments []Segment `json:"segments"`
}

// Meta holds values derived from a transcript.
type Meta struct {
	WordCount         int     `json:"word_count"`
	SegmentCount      int     `json:"segment_count"`
	TotalDuration     float64 `json:"total_duration"`
	DurationFormatted string  `json:"duration_formatted"`
}

// Record is the per-segment wire shape consumed by the analysis layer.
type Record struct {
	SegmentID string  `json:"segment_id"`
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
	Timestamp string  `json:"timestamp"`
	Text      string  `json:"text"`
}

// Normalize trims and collapses whitespace, drops empty segments, clamps
// negative timings, sorts by start time and removes segments that repeat
// both the start time and the text of an earlier one.
func Normalize(segments []Segment) []Segment {
	out := make([]Segment, 0, len(segments))
	for _, s := range segments {
		s.Text = strings.Join(strings.Fields(s.Text), " ")
		if s.Text == "" {
			continue
		}
		if s.Start < 0 {
			s.Start = 0
		}
		if s.Duration < 0 {
			s.Duration = 0
		}
		out = append(out, s)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start < out[j].Start
	})

	type key struct {
		start float64
		text  string
	}
	seen := make(map[key]struct{}, len(out))
	deduped := out[:0]
	for _, s := range out {
		k := key{s.Start, s.Text}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		deduped = append(deduped, s)
	}
	return deduped
}

// Meta computes word count, segment count and total duration.
func (t *Transcript) Meta() Meta {
	m := Meta{SegmentCount: len(t.Segments)}
	for _, s := range t.Segments {
		m.WordCount += len(strings.Fields(s.Text))
	}
	if n := len(t.Segments); n > 0 {
		m.TotalDuration = t.Segments[n-1].End()
	}
	m.DurationFormatted = FormatTimestamp(m.TotalDuration)
	return m
}

// Text joins all segments into a single paragraph.
func (t *Transcript) Text() string {
	parts := make([]string, len(t.Segments))
	for i, s := range t.Segments {
		parts[i] = s.Text
	}
	return strings.Join(parts, " ")
}

// Timestamped renders one "[m:ss] text" line per segment.
func (t *Transcript) Timestamped() string {
	var sb strings.Builder
	for _, s := range t.Segments {
		fmt.Fprintf(&sb, "[%s] %s\n", FormatTimestamp(s.Start), s.Text)
	}
	return sb.String()
}

// SRT renders the transcript in SubRip format.
func (t *Transcript) SRT() string {
	var sb strings.Builder
	for i, s := range t.Segments {
		fmt.Fprintf(&sb, "%d\n%s --> %s\n%s\n\n", i+1, formatSRTTime(s.Start), formatSRTTime(s.End()), s.Text)
	}
	return sb.String()
}

// Records converts segments to the indexed downstream form.
func (t *Transcript) Records() []Record {
	records := make([]Record, len(t.Segments))
	for i, s := range t.Segments {
		records[i] = Record{
			SegmentID: SegmentID(i),
			Start:     s.Start,
			End:       s.End(),
			Timestamp: FormatTimestamp(s.Start),
			Text:      s.Text,
		}
	}
	return records
}

// SegmentID returns the stable identifier of the i-th segment.
func SegmentID(i int) string {
	return fmt.Sprintf("seg_%04d", i)
}

// FormatTimestamp renders seconds as m:ss, or h:mm:ss past the hour.
func FormatTimestamp(seconds float64) string {
	total := int(seconds)
	if total < 0 {
		total = 0
	}
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func formatSRTTime(seconds float64) string {
	ms := int(seconds*1000 + 0.5)
	h := ms / 3600000
	ms %= 3600000
	m := ms / 60000
	ms %= 60000
	s := ms / 1000
	ms %= 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}
