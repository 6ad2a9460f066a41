package domain

// DownloadResult is produced once per download attempt sequence, after all
// retries complete. On success the caller owns the artifact at FilePath and
// is responsible for deleting it once delivered.
type DownloadResult struct {
	Success bool `json:"success"`

	FilePath        string `json:"file_path,omitempty"`
	FileName        string `json:"file_name,omitempty"`
	FileSize        int64  `json:"file_size,omitempty"`
	Duration        int    `json:"duration,omitempty"`
	Width           int    `json:"width,omitempty"`
	Height          int    `json:"height,omitempty"`
	HasAudio        bool   `json:"has_audio,omitempty"`
	ObtainedQuality string `json:"obtained_quality,omitempty"`

	// Kind carries the failure taxonomy name on unsuccessful results so
	// consumers can branch on it without parsing Error.
	Kind  string `json:"kind,omitempty"`
	Error string `json:"error,omitempty"`
}

// FileSizeMB returns the artifact size in megabytes.
func (r *DownloadResult) FileSizeMB() float64 {
	return float64(r.FileSize) / (1024 * 1024)
}
