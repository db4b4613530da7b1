package captions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   []Segment
		want []Segment
	}{
		{
			name: "empty input",
			in:   nil,
			want: []Segment{},
		},
		{
			name: "drops blank text and collapses whitespace",
			in: []Segment{
				{Text: "  hello\n  world ", Start: 1, Duration: 1},
				{Text: " \n\t", Start: 2, Duration: 1},
			},
			want: []Segment{{Text: "hello world", Start: 1, Duration: 1}},
		},
		{
			name: "sorts by start",
			in: []Segment{
				{Text: "b", Start: 5, Duration: 1},
				{Text: "a", Start: 1, Duration: 1},
				{Text: "c", Start: 9, Duration: 1},
			},
			want: []Segment{
				{Text: "a", Start: 1, Duration: 1},
				{Text: "b", Start: 5, Duration: 1},
				{Text: "c", Start: 9, Duration: 1},
			},
		},
		{
			name: "removes duplicate start and text",
			in: []Segment{
				{Text: "same", Start: 3, Duration: 1},
				{Text: "same", Start: 3, Duration: 2},
				{Text: "other", Start: 3, Duration: 1},
				{Text: "same", Start: 4, Duration: 1},
			},
			want: []Segment{
				{Text: "same", Start: 3, Duration: 1},
				{Text: "other", Start: 3, Duration: 1},
				{Text: "same", Start: 4, Duration: 1},
			},
		},
		{
			name: "clamps negative timings",
			in:   []Segment{{Text: "x", Start: -1, Duration: -2}},
			want: []Segment{{Text: "x", Start: 0, Duration: 0}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.in)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeInvariants(t *testing.T) {
	in := []Segment{
		{Text: "c", Start: 30, Duration: 2},
		{Text: "a", Start: 10, Duration: 2},
		{Text: "a", Start: 10, Duration: 2},
		{Text: "", Start: 5, Duration: 1},
		{Text: "b", Start: 20, Duration: -1},
	}

	got := Normalize(in)

	seen := map[[2]any]bool{}
	for i, s := range got {
		assert.NotEmpty(t, s.Text)
		assert.GreaterOrEqual(t, s.Duration, 0.0)
		if i > 0 {
			assert.LessOrEqual(t, got[i-1].Start, s.Start)
		}
		k := [2]any{s.Start, s.Text}
		assert.False(t, seen[k], "duplicate %v", k)
		seen[k] = true
	}
}

func TestTranscriptMeta(t *testing.T) {
	tr := &Transcript{Segments: []Segment{
		{Text: "one two", Start: 0, Duration: 2},
		{Text: "three", Start: 2, Duration: 3},
		{Text: "four five six", Start: 70, Duration: 5.5},
	}}

	meta := tr.Meta()
	assert.Equal(t, 6, meta.WordCount)
	assert.Equal(t, 3, meta.SegmentCount)
	assert.InDelta(t, 75.5, meta.TotalDuration, 1e-9)
	assert.Equal(t, "1:15", meta.DurationFormatted)

	empty := (&Transcript{}).Meta()
	assert.Zero(t, empty.TotalDuration)
	assert.Equal(t, "0:00", empty.DurationFormatted)
}

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0:00"},
		{9.9, "0:09"},
		{65, "1:05"},
		{3599, "59:59"},
		{3600, "1:00:00"},
		{3725, "1:02:05"},
		{-3, "0:00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatTimestamp(tt.in), "FormatTimestamp(%v)", tt.in)
	}
}

func TestTranscriptRenderers(t *testing.T) {
	tr := &Transcript{Segments: []Segment{
		{Text: "hello", Start: 1.5, Duration: 2},
		{Text: "world", Start: 61, Duration: 1.25},
	}}

	assert.Equal(t, "hello world", tr.Text())
	assert.Equal(t, "[0:01] hello\n[1:01] world\n", tr.Timestamped())
	assert.Equal(t,
		"1\n00:00:01,500 --> 00:00:03,500\nhello\n\n2\n00:01:01,000 --> 00:01:02,250\nworld\n\n",
		tr.SRT())

	records := tr.Records()
	require.Len(t, records, 2)
	assert.Equal(t, Record{SegmentID: "seg_0000", Start: 1.5, End: 3.5, Timestamp: "0:01", Text: "hello"}, records[0])
	assert.Equal(t, "seg_0001", records[1].SegmentID)
	assert.InDelta(t, 62.25, records[1].End, 1e-9)
}
