package domain

import (
	"fmt"
	"sort"
)

// VideoReference is a validated upstream video URL. Construct it through
// validation.ParseReference; the zero value is not a valid reference.
type VideoReference struct {
	url string
}

// NewReference wraps an already-validated URL. Callers outside the
// validation package should not build references directly.
func NewReference(url string) VideoReference {
	return VideoReference{url: url}
}

// URL returns the underlying upstream URL.
func (r VideoReference) URL() string {
	return r.url
}

// IsZero reports whether the reference was never validated.
func (r VideoReference) IsZero() bool {
	return r.url == ""
}

// FormatDescriptor describes one encoded stream variant offered by the
// extraction backend. ID is an opaque backend token.
type FormatDescriptor struct {
	ID         string `json:"format_id"`
	Resolution string `json:"resolution"`
	Ext        string `json:"ext"`
	FileSize   int64  `json:"filesize,omitempty"`
	VCodec     string `json:"vcodec,omitempty"`
	ACodec     string `json:"acodec,omitempty"`
	HasAudio   bool   `json:"has_audio"`
	Height     int    `json:"height,omitempty"`
}

// VideoMetadata holds the normalized result of one metadata resolution.
// It lives only for the duration of one user interaction.
type VideoMetadata struct {
	Title      string             `json:"title"`
	Duration   int                `json:"duration"`
	Channel    string             `json:"channel"`
	UploadDate string             `json:"upload_date"`
	Thumbnail  string             `json:"thumbnail,omitempty"`
	ViewCount  int64              `json:"view_count"`
	Width      int                `json:"width,omitempty"`
	Height     int                `json:"height,omitempty"`
	Formats    []FormatDescriptor `json:"formats"`
}

// DurationString renders the duration as H:MM:SS, or M:SS under an hour.
func (m *VideoMetadata) DurationString() string {
	hours := m.Duration / 3600
	minutes := (m.Duration % 3600) / 60
	secs := m.Duration % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%d:%02d", minutes, secs)
}

// SortFormats orders descriptors by descending height, ties broken by audio
// presence, then by declared size descending. The order is stable so equal
// entries keep their backend order.
func SortFormats(formats []FormatDescriptor) {
	sort.SliceStable(formats, func(i, j int) bool {
		a, b := formats[i], formats[j]
		if a.Height != b.Height {
			return a.Height > b.Height
		}
		if a.HasAudio != b.HasAudio {
			return a.HasAudio
		}
		return a.FileSize > b.FileSize
	})
}
