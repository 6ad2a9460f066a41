package domain

import "time"

// ProgressPhase tags a ProgressEvent as an in-flight update or the single
// terminal event of a transfer.
type ProgressPhase string

const (
	PhaseDownloading ProgressPhase = "downloading"
	PhaseFinished    ProgressPhase = "finished"
)

// ProgressEvent is emitted during one download invocation. Events are
// informational only and never persisted. Within one invocation percentages
// are non-decreasing and exactly one finished event closes the stream.
type ProgressEvent struct {
	Phase      ProgressPhase `json:"phase"`
	Percent    float64       `json:"percent"`
	Downloaded int64         `json:"downloaded_bytes"`
	Total      int64         `json:"total_bytes"`
	Speed      float64       `json:"speed_bps"`
	ETA        time.Duration `json:"eta"`
}

// DownloadedMB returns transferred bytes in megabytes.
func (e ProgressEvent) DownloadedMB() float64 {
	return float64(e.Downloaded) / (1024 * 1024)
}

// TotalMB returns the total size in megabytes, 0 if unknown.
func (e ProgressEvent) TotalMB() float64 {
	return float64(e.Total) / (1024 * 1024)
}
