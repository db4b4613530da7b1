package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadingMarkdown(t *testing.T) {
	transcript := testTranscript()
	reading, err := parseDeepReading(deepReadingReply, transcript.Records(), analysisOptions{Weights: DefaultScoringWeights, MaxMainLines: 3})
	require.NoError(t, err)
	reading.MainLines[0].Unsupported = []string{"Churn always drops"}

	md := ReadingMarkdown(&VideoReading{Transcript: transcript, Reading: reading})
	containsAll(t, md,
		"# dQw4w9WgXcQ",
		"0:07 · 13 words · captions en via timedtext",
		"### 1. Price on value (70.0)",
		"Relevance 80 · Novelty 60 · Actionability 40 · Credibility 100",
		"- Charge more `[0:03]` \"charge more than you think\"",
		"- ~~Churn always drops~~ (no evidence)",
		"## Worth re-watching",
		"`0:03–0:05` the core claim",
		"1. **Who owns pricing?**",
		"- How do you measure value?",
		"## Note",
	)

	md = ReadingMarkdown(&VideoReading{
		Transcript: transcript,
		Metadata:   &VideoMetadata{Title: "Pricing 101"},
		Reading:    &DeepReading{},
	})
	assert.Contains(t, md, "# Pricing 101")
	assert.NotContains(t, md, "## Flashcards")
	assert.NotContains(t, md, "## Note")
}

func TestDrillDownMarkdown(t *testing.T) {
	d, err := parseDrillDown(drillDownReply)
	require.NoError(t, err)

	md := DrillDownMarkdown(d)
	containsAll(t, md, "## Price on value", "## Teaching outline", "- How to test", "## Key slides", "- Value first")

	md = DrillDownMarkdown(&DrillDown{LongForm: "body"})
	assert.Equal(t, "body\n\n", md)
}
