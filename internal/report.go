package internal

import (
	"fmt"
	"strings"

	"github.com/MAjunjie0415/deepread-cc/internal/captions"
)

// ReadingMarkdown formats a deep reading as Markdown for the terminal
func ReadingMarkdown(vr *VideoReading) string {
	var sb strings.Builder
	r := vr.Reading

	title := vr.Transcript.VideoID
	if vr.Metadata != nil && vr.Metadata.Title != "" {
		title = vr.Metadata.Title
	}
	fmt.Fprintf(&sb, "# %s\n\n", title)

	meta := vr.Transcript.Meta()
	fmt.Fprintf(&sb, "*%s · %d words · captions %s via %s*\n\n",
		meta.DurationFormatted, meta.WordCount, vr.Transcript.Language, vr.Transcript.Source)

	sb.WriteString("## Main lines\n\n")
	for _, line := range r.MainLines {
		fmt.Fprintf(&sb, "### %d. %s (%.1f)\n\n", line.ID, line.Title, line.Score.Total)
		if line.Definition != "" {
			fmt.Fprintf(&sb, "%s\n\n", line.Definition)
		}
		b := line.Score.Breakdown
		fmt.Fprintf(&sb, "Relevance %.0f · Novelty %.0f · Actionability %.0f · Credibility %.0f\n\n",
			b.Relevance, b.Novelty, b.Actionability, b.Credibility)
		for _, kp := range line.KeyPoints {
			fmt.Fprintf(&sb, "- %s", kp.Point)
			if kp.Evidence.EvidenceFound {
				fmt.Fprintf(&sb, " `[%s]`", kp.Evidence.Timestamp)
				if kp.Evidence.Quote != "" {
					fmt.Fprintf(&sb, " \"%s\"", kp.Evidence.Quote)
				}
			}
			sb.WriteString("\n")
		}
		for _, u := range line.Unsupported {
			fmt.Fprintf(&sb, "- ~~%s~~ (no evidence)\n", u)
		}
		sb.WriteString("\n")
	}

	if len(r.TopSegments) > 0 {
		sb.WriteString("## Worth re-watching\n\n")
		for _, s := range r.TopSegments {
			fmt.Fprintf(&sb, "- `%s–%s` %s\n", captions.FormatTimestamp(s.Start), captions.FormatTimestamp(s.End), s.ReasonToReview)
		}
		sb.WriteString("\n")
	}

	if len(r.Flashcards) > 0 {
		sb.WriteString("## Flashcards\n\n")
		for i, c := range r.Flashcards {
			fmt.Fprintf(&sb, "%d. **%s**\n   %s\n", i+1, c.Q, c.A)
		}
		sb.WriteString("\n")
	}

	if len(r.FollowupQuestions) > 0 {
		sb.WriteString("## Follow-up questions\n\n")
		for _, q := range r.FollowupQuestions {
			fmt.Fprintf(&sb, "- %s\n", q)
		}
		sb.WriteString("\n")
	}

	if r.HumanNote != "" {
		sb.WriteString("## Note\n\n")
		sb.WriteString(r.HumanNote)
		sb.WriteString("\n")
	}

	return sb.String()
}

// DrillDownMarkdown formats a drill-down as Markdown for the terminal
func DrillDownMarkdown(d *DrillDown) string {
	var sb strings.Builder
	sb.WriteString(d.LongForm)
	sb.WriteString("\n\n")

	if len(d.TeachingOutline) > 0 {
		sb.WriteString("## Teaching outline\n\n")
		for _, item := range d.TeachingOutline {
			fmt.Fprintf(&sb, "- %s\n", item)
		}
		sb.WriteString("\n")
	}
	if len(d.KeySlides) > 0 {
		sb.WriteString("## Key slides\n\n")
		for _, item := range d.KeySlides {
			fmt.Fprintf(&sb, "- %s\n", item)
		}
	}
	return sb.String()
}
