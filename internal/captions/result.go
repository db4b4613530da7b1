package captions

// Result is the shape handed to downstream consumers: either a successful
// transcript with its metadata or a classified failure.
type Result struct {
	Success    bool      `json:"success"`
	VideoID    string    `json:"video_id,omitempty"`
	Language   string    `json:"language,omitempty"`
	Source     string    `json:"source,omitempty"`
	Transcript []Record  `json:"transcript,omitempty"`
	Meta       *Meta     `json:"meta,omitempty"`
	ErrorKind  ErrorKind `json:"error_kind,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// NewResult converts the outcome of Fetcher.Fetch into a Result.
func NewResult(t *Transcript, err error) Result {
	if err != nil {
		return Result{
			Success:   false,
			ErrorKind: ErrorKindOf(err),
			Error:     err.Error(),
		}
	}
	meta := t.Meta()
	return Result{
		Success:    true,
		VideoID:    t.VideoID,
		Language:   t.Language,
		Source:     t.Source,
		Transcript: t.Records(),
		Meta:       &meta,
	}
}
