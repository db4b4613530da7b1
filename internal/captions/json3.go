package captions

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// json3 is YouTube's JSON caption format (fmt=json3).
type json3 struct {
	Events []json3Event `json:"events"`
}

type json3Event struct {
	TStartMs    millis     `json:"tStartMs"`
	DDurationMs millis     `json:"dDurationMs"`
	Segs        []json3Seg `json:"segs"`
}

type json3Seg struct {
	UTF8 string `json:"utf8"`
}

// millis accepts a number, a quoted number or null.
type millis float64

func (m *millis) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*m = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*m = millis(v)
	return nil
}

// parseJSON3 decodes a json3 body into segments. An empty body is zero
// events; anything else that does not decode is ErrMalformed.
func parseJSON3(body []byte) ([]Segment, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, nil
	}

	var doc json3
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, malformed("json3", err)
	}

	segments := make([]Segment, 0, len(doc.Events))
	for _, ev := range doc.Events {
		if len(ev.Segs) == 0 {
			continue
		}
		var sb strings.Builder
		for _, seg := range ev.Segs {
			sb.WriteString(seg.UTF8)
		}
		text := strings.TrimSpace(strings.ReplaceAll(sb.String(), "\n", " "))
		if text == "" {
			continue
		}
		segments = append(segments, Segment{
			Text:     text,
			Start:    float64(ev.TStartMs) / 1000,
			Duration: float64(ev.DDurationMs) / 1000,
		})
	}
	return segments, nil
}

// JSON3Document is a transcript rendered back into the json3 event shape,
// tagged with the language and the strategy that produced it.
type JSON3Document struct {
	Events []json3Event `json:"events"`
	Lang   string       `json:"lang"`
	Source string       `json:"source"`
}

// JSON3 renders t in the json3 event shape.
func (t *Transcript) JSON3() JSON3Document {
	doc := JSON3Document{
		Events: make([]json3Event, len(t.Segments)),
		Lang:   t.Language,
		Source: t.Source,
	}
	for i, s := range t.Segments {
		doc.Events[i] = json3Event{
			TStartMs:    millis(s.Start * 1000),
			DDurationMs: millis(s.Duration * 1000),
			Segs:        []json3Seg{{UTF8: s.Text}},
		}
	}
	return doc
}
