package captions

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupadataFetch(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		status   int
		want     []Segment
		wantLang string
		wantErr  error
	}{
		{
			name:     "chunk array in milliseconds",
			body:     `{"content":[{"text":"hello","offset":1500,"duration":2000,"lang":"en"},{"text":"there","offset":3500,"duration":1000}],"lang":"en","availableLangs":["en","de"]}`,
			want:     []Segment{{Text: "hello", Start: 1.5, Duration: 2}, {Text: "there", Start: 3.5, Duration: 1}},
			wantLang: "en",
		},
		{
			name:     "plain text is split into sentences",
			body:     `{"content":"First one. Second one! Third?","lang":"en"}`,
			want:     []Segment{{Text: "First one", Start: 0, Duration: 3}, {Text: "Second one", Start: 3, Duration: 3}, {Text: "Third", Start: 6, Duration: 3}},
			wantLang: "en",
		},
		{
			name:     "missing lang falls back to the hint",
			body:     `{"content":[]}`,
			want:     []Segment{},
			wantLang: "de",
		},
		{
			name:    "unexpected content shape",
			body:    `{"content":42}`,
			wantErr: ErrMalformed,
		},
		{
			name:    "not json",
			body:    `upstream exploded`,
			wantErr: ErrMalformed,
		},
		{
			name:    "404",
			status:  http.StatusNotFound,
			wantErr: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v1/transcript", r.URL.Path)
				assert.Equal(t, "key-123", r.Header.Get("x-api-key"))
				assert.Equal(t, "https://www.youtube.com/watch?v="+testVideoID, r.URL.Query().Get("url"))
				assert.Equal(t, "de", r.URL.Query().Get("lang"))
				if tt.status != 0 {
					w.WriteHeader(tt.status)
					return
				}
				_, _ = w.Write([]byte(tt.body))
			})

			s := NewSupadata(testRequester(srv.Client(), time.Second), srv.URL, "key-123")
			track, err := s.Fetch(context.Background(), Request{VideoID: testVideoID, Language: "de"})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, track.Segments)
			assert.Equal(t, tt.wantLang, track.Language)
		})
	}
}

func TestSplitSentences(t *testing.T) {
	assert.Empty(t, splitSentences(""))
	assert.Empty(t, splitSentences("...!?"))
	got := splitSentences("no terminator")
	require.Len(t, got, 1)
	assert.Equal(t, Segment{Text: "no terminator", Start: 0, Duration: 3}, got[0])
}
