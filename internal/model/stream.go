package model

import "time"

// StreamType classifies the transport a DetectedStream was observed
// carrying.
type StreamType string

const (
	StreamTypeHLS     StreamType = "hls"
	StreamTypeDASH    StreamType = "dash"
	StreamTypeDirect  StreamType = "direct"
	StreamTypeYTDLP   StreamType = "ytdlp"
	StreamTypeUnknown StreamType = "unknown"
)

// Protection classifies the content-protection signalling on a stream.
// The engine never attempts to decrypt or circumvent protection; it only
// detects and refuses.
type Protection string

const (
	ProtectionNone    Protection = "none"
	ProtectionDRM     Protection = "drm"
	ProtectionUnknown Protection = "unknown"
)

// DetectedStream is a stream the browser extension observed and handed to
// the companion for possible download.
type DetectedStream struct {
	ID         string         `json:"id"`
	SourceURL  string         `json:"sourceUrl"`
	Type       StreamType     `json:"type"`
	Protection Protection     `json:"protection"`
	Qualities  []VideoQuality `json:"qualities"`
	Audios     []AudioTrack   `json:"audios"`

	Title     string        `json:"title"`
	Duration  time.Duration `json:"duration"`
	Thumbnail string        `json:"thumbnail,omitempty"`

	PageURL   string `json:"pageUrl"`
	PageTitle string `json:"pageTitle"`

	DetectedAt time.Time `json:"detectedAt"`
}

// IsDRM reports whether this stream's protection is flagged as DRM.
func (s DetectedStream) IsDRM() bool {
	return s.Protection == ProtectionDRM
}
