package nsg

// Job stages as reported by the gateway. The server owns this vocabulary;
// anything unrecognized is passed through untouched.
const (
	StageQueue     = "QUEUE"
	StageSubmitted = "SUBMITTED"
	StageRunning   = "RUNNING"
	StageCompleted = "COMPLETED"
	StageFailed    = "FAILED"
)

// JobSummary is one entry of the authenticated user's job collection.
type JobSummary struct {
	JobID string `json:"job_id"`
	URL   string `json:"url"`
}

// JobStatus is the full server-side state of a single job.
type JobStatus struct {
	JobID         string       `json:"job_id"`
	Stage         string       `json:"stage"`
	Failed        bool         `json:"failed"`
	DateSubmitted string       `json:"date_submitted,omitempty"`
	SelfURI       string       `json:"self_uri"`
	ResultsURI    string       `json:"results_uri,omitempty"`
	Messages      []JobMessage `json:"messages,omitempty"`
}

// JobMessage is one stage-transition message. Text may be empty when the
// server emits a bare transition marker.
type JobMessage struct {
	Stage     string `json:"stage"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp,omitempty"`
}

// OutputFile is one entry of a completed job's output manifest.
type OutputFile struct {
	Filename    string `json:"filename"`
	DownloadURI string `json:"download_uri"`
	Size        uint64 `json:"size"`
}

// DownloadedFile records one finished transfer.
type DownloadedFile struct {
	Filename  string `json:"filename"`
	LocalPath string `json:"local_path"`
	Size      uint64 `json:"size"`
}

// HasResults reports whether the job's outputs are retrievable yet.
func (s JobStatus) HasResults() bool {
	return s.ResultsURI != ""
}
