package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MAjunjie0415/deepread-cc/internal/captions"
)

func TestParseDeepReadingCoercesScores(t *testing.T) {
	raw := `{"main_lines": [
		{"id": 9, "title": "missing total", "score": {"breakdown": {"relevance": 80, "novelty": 60, "actionability": 40, "credibility": 100}}},
		{"id": 3, "title": "out of range", "score": {"total": 120, "breakdown": {"relevance": 150, "novelty": -5, "actionability": 50, "credibility": 50}}},
		{"id": 4, "title": "rounded", "score": {"total": 88.44, "breakdown": {"relevance": 90, "novelty": 90, "actionability": 90, "credibility": 90}}},
		{"id": 5, "title": "dropped", "score": {"total": 10}}
	]}`
	records := testTranscript().Records()

	reading, err := parseDeepReading(raw, records, analysisOptions{Weights: DefaultScoringWeights, MaxMainLines: 3})
	require.NoError(t, err)
	require.Len(t, reading.MainLines, 3)

	first := reading.MainLines[0]
	assert.Equal(t, 1, first.ID)
	assert.InDelta(t, 70.0, first.Score.Total, 1e-9) // 80*.4 + 60*.25 + 40*.2 + 100*.15

	second := reading.MainLines[1]
	assert.Equal(t, 2, second.ID)
	assert.Equal(t, 100.0, second.Score.Total)
	assert.Equal(t, 100.0, second.Score.Breakdown.Relevance)
	assert.Equal(t, 0.0, second.Score.Breakdown.Novelty)

	third := reading.MainLines[2]
	assert.Equal(t, 3, third.ID)
	assert.Equal(t, 88.4, third.Score.Total)

	for _, line := range reading.MainLines {
		assert.NotNil(t, line.KeyPoints)
		assert.NotNil(t, line.Unsupported)
	}
	assert.NotNil(t, reading.TopSegments)
	assert.NotNil(t, reading.Flashcards)
	assert.NotNil(t, reading.FollowupQuestions)

	assert.Equal(t, ReadingMeta{WordCount: 13, ParagraphCount: 3, TimestampsPresent: true}, reading.Meta)
}

func TestParseDeepReadingStripsFences(t *testing.T) {
	reading, err := parseDeepReading(deepReadingReply, nil, analysisOptions{Weights: DefaultScoringWeights, MaxMainLines: 3})
	require.NoError(t, err)
	require.Len(t, reading.MainLines, 1)
	assert.Equal(t, "Price on value", reading.MainLines[0].Title)
	assert.Equal(t, "seg_0001", reading.MainLines[0].KeyPoints[0].Evidence.SegmentID)
	assert.Equal(t, "# Pricing\nCharge more, measure churn.", reading.HumanNote)
	assert.Equal(t, ReadingMeta{}, reading.Meta)
}

func TestParseDeepReadingInvalidJSON(t *testing.T) {
	_, err := parseDeepReading("I could not read this video", nil, analysisOptions{MaxMainLines: 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing deep reading")
}

func TestParseDrillDown(t *testing.T) {
	d, err := parseDrillDown(drillDownReply)
	require.NoError(t, err)
	assert.Contains(t, d.LongForm, "Price on value")
	assert.Equal(t, []string{"Why price", "How to test"}, d.TeachingOutline)

	d, err = parseDrillDown(`{"long_form": "text"}`)
	require.NoError(t, err)
	assert.NotNil(t, d.TeachingOutline)
	assert.NotNil(t, d.KeySlides)

	_, err = parseDrillDown(`{"long_form": "  ", "key_slides": ["a"]}`)
	require.Error(t, err)
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding space", "  \n```json\n{}\n```\n ", `{}`},
		{"single line", "```{\"a\":1}```", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripFences(tt.in))
		})
	}
}

func TestScoringWeightsNormalized(t *testing.T) {
	tests := []struct {
		name string
		in   ScoringWeights
		want ScoringWeights
	}{
		{"already normalized", DefaultScoringWeights, DefaultScoringWeights},
		{"scaled", ScoringWeights{Relevance: 2, Novelty: 1, Actionability: 1}, ScoringWeights{Relevance: 0.5, Novelty: 0.25, Actionability: 0.25}},
		{"negative counts as zero", ScoringWeights{Relevance: 1, Novelty: -3, Credibility: 1}, ScoringWeights{Relevance: 0.5, Credibility: 0.5}},
		{"all zero", ScoringWeights{}, DefaultScoringWeights},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Normalized()
			assert.InDelta(t, tt.want.Relevance, got.Relevance, 1e-9)
			assert.InDelta(t, tt.want.Novelty, got.Novelty, 1e-9)
			assert.InDelta(t, tt.want.Actionability, got.Actionability, 1e-9)
			assert.InDelta(t, tt.want.Credibility, got.Credibility, 1e-9)
		})
	}
}

func TestResolveDefaults(t *testing.T) {
	opts := (&DeepReadingRequest{}).resolve()
	assert.Equal(t, DefaultInterests(), opts.Interests)
	assert.Equal(t, DefaultScoringWeights, opts.Weights)
	assert.Equal(t, DefaultMaxMainLines, opts.MaxMainLines)
	assert.Equal(t, "zh", opts.Lang)
}

func TestResolveCustom(t *testing.T) {
	req := &DeepReadingRequest{
		Interests:      map[string]float64{"Business": 0.3, "AI": 0.9, " ": 1, "Art": 0.3, "Law": 7},
		MaxMainLines:   5,
		ScoringWeights: &ScoringWeights{Relevance: 1, Novelty: 1},
		Lang:           " EN ",
	}
	opts := req.resolve()
	assert.Equal(t, []Interest{
		{Label: "Law", Weight: 1},
		{Label: "AI", Weight: 0.9},
		{Label: "Art", Weight: 0.3},
		{Label: "Business", Weight: 0.3},
	}, opts.Interests)
	assert.Equal(t, ScoringWeights{Relevance: 0.5, Novelty: 0.5}, opts.Weights)
	assert.Equal(t, 5, opts.MaxMainLines)
	assert.Equal(t, "en", opts.Lang)
}

func TestPromptTranscript(t *testing.T) {
	records := []captions.Record{
		{SegmentID: "seg_0000", Timestamp: "0:00", Text: "hello"},
		{SegmentID: "seg_0001", Timestamp: "1:02:03", Text: "world"},
	}
	assert.Equal(t, "[seg_0000 0:00] hello\n[seg_0001 1:02:03] world\n", PromptTranscript(records))
	assert.Empty(t, PromptTranscript(nil))
}
