package ytdlp

// RawInfo mirrors the metadata JSON emitted by yt-dlp -J.
type RawInfo struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	Duration   float64        `json:"duration"`
	Channel    string         `json:"channel"`
	Uploader   string         `json:"uploader"`
	UploadDate string         `json:"upload_date"`
	ViewCount  int64          `json:"view_count"`
	Thumbnail  string         `json:"thumbnail"`
	Thumbnails []RawThumbnail `json:"thumbnails"`
	Formats    []RawFormat    `json:"formats"`
	Width      int            `json:"width"`
	Height     int            `json:"height"`
}

// RawFormat is one stream variant as reported by the backend.
type RawFormat struct {
	FormatID string  `json:"format_id"`
	Ext      string  `json:"ext"`
	Height   int     `json:"height"`
	Width    int     `json:"width"`
	FPS      float64 `json:"fps"`
	FileSize int64   `json:"filesize"`
	VCodec   string  `json:"vcodec"`
	ACodec   string  `json:"acodec"`
}

// RawThumbnail is one entry of the thumbnails list.
type RawThumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// ChannelName returns the channel field, falling back to the uploader.
func (i *RawInfo) ChannelName() string {
	if i.Channel != "" {
		return i.Channel
	}
	return i.Uploader
}

// BestThumbnail prefers the direct thumbnail URL, falling back to the
// highest-resolution entry of the thumbnails list.
func (i *RawInfo) BestThumbnail() string {
	if i.Thumbnail != "" {
		return i.Thumbnail
	}

	var best RawThumbnail
	for _, t := range i.Thumbnails {
		if t.Width*t.Height > best.Width*best.Height {
			best = t
		}
	}
	return best.URL
}
