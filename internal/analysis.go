package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/MAjunjie0415/deepread-cc/internal/captions"
)

// ErrInvalidMainLine is returned when a drill-down names a main line that does not exist.
var ErrInvalidMainLine = errors.New("invalid main line index")

const (
	DefaultMaxMainLines = 3
	DefaultWordLimit    = 1500
	DefaultLang         = "zh"
)

// Interest is a topic the reader cares about and how much.
type Interest struct {
	Label  string  `json:"label"`
	Weight float64 `json:"weight"`
}

// DefaultInterests returns the reader profile used when none is given.
func DefaultInterests() []Interest {
	return []Interest{
		{Label: "AI", Weight: 0.5},
		{Label: "Technology", Weight: 0.3},
		{Label: "Business", Weight: 0.2},
		{Label: "Psychology", Weight: 0.1},
		{Label: "Science", Weight: 0.4},
	}
}

// ScoringWeights weigh the breakdown dimensions into a main line's total.
type ScoringWeights struct {
	Relevance     float64 `json:"relevance"`
	Novelty       float64 `json:"novelty"`
	Actionability float64 `json:"actionability"`
	Credibility   float64 `json:"credibility"`
}

// DefaultScoringWeights favours relevance, then novelty.
var DefaultScoringWeights = ScoringWeights{
	Relevance:     0.4,
	Novelty:       0.25,
	Actionability: 0.2,
	Credibility:   0.15,
}

// Normalized scales the weights to sum to 1. Negative weights count as 0 and
// all-zero weights fall back to the defaults.
func (w ScoringWeights) Normalized() ScoringWeights {
	w.Relevance = math.Max(w.Relevance, 0)
	w.Novelty = math.Max(w.Novelty, 0)
	w.Actionability = math.Max(w.Actionability, 0)
	w.Credibility = math.Max(w.Credibility, 0)

	sum := w.Relevance + w.Novelty + w.Actionability + w.Credibility
	if sum == 0 {
		return DefaultScoringWeights
	}
	return ScoringWeights{
		Relevance:     w.Relevance / sum,
		Novelty:       w.Novelty / sum,
		Actionability: w.Actionability / sum,
		Credibility:   w.Credibility / sum,
	}
}

// DeepReadingRequest is the input of a deep reading analysis
type DeepReadingRequest struct {
	Transcript     []captions.Record  `json:"transcript"`
	Interests      map[string]float64 `json:"interests,omitempty"`
	MaxMainLines   int                `json:"max_main_lines,omitempty"`
	ScoringWeights *ScoringWeights    `json:"scoring_weights,omitempty"`
	Lang           string             `json:"lang,omitempty"`
}

// DrillDownRequest asks for a long-form article about one main line
type DrillDownRequest struct {
	MainLineIndex int               `json:"main_line_index"`
	Transcript    []captions.Record `json:"transcript"`
	WordLimit     int               `json:"word_limit,omitempty"`
	Lang          string            `json:"lang,omitempty"`
	MainLine      *MainLine         `json:"main_line,omitempty"`
}

type Evidence struct {
	SegmentID     string `json:"segment_id"`
	Timestamp     string `json:"timestamp"`
	Quote         string `json:"quote"`
	EvidenceFound bool   `json:"evidence_found"`
}

type KeyPoint struct {
	Point    string   `json:"point"`
	Evidence Evidence `json:"evidence"`
}

type ScoreBreakdown struct {
	Relevance     float64 `json:"relevance"`
	Novelty       float64 `json:"novelty"`
	Actionability float64 `json:"actionability"`
	Credibility   float64 `json:"credibility"`
}

type Score struct {
	Total     float64        `json:"total"`
	Breakdown ScoreBreakdown `json:"breakdown"`
}

type MainLine struct {
	ID          int        `json:"id"`
	Title       string     `json:"title"`
	Definition  string     `json:"definition"`
	KeyPoints   []KeyPoint `json:"key_points"`
	Score       Score      `json:"score"`
	Unsupported []string   `json:"unsupported"`
}

type TopSegment struct {
	SegmentID      string  `json:"segment_id"`
	Start          float64 `json:"start"`
	End            float64 `json:"end"`
	ReasonToReview string  `json:"reason_to_review"`
}

type Flashcard struct {
	Q             string `json:"q"`
	A             string `json:"a"`
	SourceSegment string `json:"source_segment"`
}

type ReadingMeta struct {
	WordCount         int  `json:"word_count"`
	ParagraphCount    int  `json:"paragraph_count"`
	TimestampsPresent bool `json:"timestamps_present"`
}

// DeepReading is the structured analysis of one transcript
type DeepReading struct {
	Meta              ReadingMeta  `json:"meta"`
	MainLines         []MainLine   `json:"main_lines"`
	TopSegments       []TopSegment `json:"top_segments"`
	Flashcards        []Flashcard  `json:"flashcards"`
	FollowupQuestions []string     `json:"followup_questions"`
	HumanNote         string       `json:"human_note"`
}

// DrillDown is the long-form article for one main line
type DrillDown struct {
	LongForm        string   `json:"long_form"`
	TeachingOutline []string `json:"teaching_outline"`
	KeySlides       []string `json:"key_slides"`
}

// analysisOptions are the resolved knobs of a deep reading request
type analysisOptions struct {
	Interests    []Interest
	Weights      ScoringWeights
	MaxMainLines int
	Lang         string
}

// resolve fills defaults and normalizes the request's knobs
func (r *DeepReadingRequest) resolve() analysisOptions {
	opts := analysisOptions{
		Interests:    DefaultInterests(),
		Weights:      DefaultScoringWeights,
		MaxMainLines: r.MaxMainLines,
		Lang:         normalizeLang(r.Lang),
	}
	if len(r.Interests) > 0 {
		opts.Interests = interestsFromMap(r.Interests)
	}
	if r.ScoringWeights != nil {
		opts.Weights = r.ScoringWeights.Normalized()
	}
	if opts.MaxMainLines <= 0 {
		opts.MaxMainLines = DefaultMaxMainLines
	}
	return opts
}

// interestsFromMap sorts interests by weight, heaviest first, then by label
func interestsFromMap(m map[string]float64) []Interest {
	out := make([]Interest, 0, len(m))
	for label, weight := range m {
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}
		out = append(out, Interest{Label: label, Weight: clamp(weight, 0, 1)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].Label < out[j].Label
	})
	return out
}

func normalizeLang(lang string) string {
	switch strings.ToLower(strings.TrimSpace(lang)) {
	case "en":
		return "en"
	default:
		return DefaultLang
	}
}

// PromptTranscript renders records one per line as "[seg_0000 0:00] text",
// the form the prompts cite evidence from.
func PromptTranscript(records []captions.Record) string {
	var sb strings.Builder
	for _, r := range records {
		fmt.Fprintf(&sb, "[%s %s] %s\n", r.SegmentID, r.Timestamp, r.Text)
	}
	return sb.String()
}

// stripFences removes a Markdown code fence around a model reply
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:] // language tag
	}
	s = strings.TrimSpace(s)
	return strings.TrimSpace(strings.TrimSuffix(s, "```"))
}

// parseDeepReading decodes a model reply and coerces it into a consistent
// DeepReading: breakdown scores clamped to 0..100, missing totals computed
// from the weights, at most opts.MaxMainLines main lines numbered from 1.
func parseDeepReading(raw string, records []captions.Record, opts analysisOptions) (*DeepReading, error) {
	var reading DeepReading
	if err := json.Unmarshal([]byte(stripFences(raw)), &reading); err != nil {
		return nil, fmt.Errorf("parsing deep reading: %w", err)
	}

	// A zero total is treated as missing.
	for i := range reading.MainLines {
		line := &reading.MainLines[i]
		b := &line.Score.Breakdown
		b.Relevance = clamp(b.Relevance, 0, 100)
		b.Novelty = clamp(b.Novelty, 0, 100)
		b.Actionability = clamp(b.Actionability, 0, 100)
		b.Credibility = clamp(b.Credibility, 0, 100)
		if line.Score.Total <= 0 {
			line.Score.Total = weightedTotal(*b, opts.Weights)
		}
		line.Score.Total = round1(clamp(line.Score.Total, 0, 100))
		if line.KeyPoints == nil {
			line.KeyPoints = []KeyPoint{}
		}
		if line.Unsupported == nil {
			line.Unsupported = []string{}
		}
	}

	if len(reading.MainLines) > opts.MaxMainLines {
		reading.MainLines = reading.MainLines[:opts.MaxMainLines]
	}
	for i := range reading.MainLines {
		reading.MainLines[i].ID = i + 1
	}

	reading.Meta = transcriptMeta(records)
	if reading.TopSegments == nil {
		reading.TopSegments = []TopSegment{}
	}
	if reading.Flashcards == nil {
		reading.Flashcards = []Flashcard{}
	}
	if reading.FollowupQuestions == nil {
		reading.FollowupQuestions = []string{}
	}
	return &reading, nil
}

// parseDrillDown decodes a drill-down reply
func parseDrillDown(raw string) (*DrillDown, error) {
	var d DrillDown
	if err := json.Unmarshal([]byte(stripFences(raw)), &d); err != nil {
		return nil, fmt.Errorf("parsing drill-down: %w", err)
	}
	if strings.TrimSpace(d.LongForm) == "" {
		return nil, errors.New("parsing drill-down: empty long_form")
	}
	if d.TeachingOutline == nil {
		d.TeachingOutline = []string{}
	}
	if d.KeySlides == nil {
		d.KeySlides = []string{}
	}
	return &d, nil
}

// transcriptMeta counts words and paragraphs of the analysed transcript.
// Each caption segment counts as a paragraph.
func transcriptMeta(records []captions.Record) ReadingMeta {
	meta := ReadingMeta{ParagraphCount: len(records)}
	for _, r := range records {
		meta.WordCount += len(strings.Fields(r.Text))
		if r.Timestamp != "" {
			meta.TimestampsPresent = true
		}
	}
	return meta
}

func weightedTotal(b ScoreBreakdown, w ScoringWeights) float64 {
	return b.Relevance*w.Relevance + b.Novelty*w.Novelty + b.Actionability*w.Actionability + b.Credibility*w.Credibility
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Min(math.Max(v, lo), hi)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
