package model

import "fmt"

// VideoQuality describes one selectable video rendition. It is immutable
// once returned by a parser.
type VideoQuality struct {
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	BitrateBPS int64   `json:"bitrateBps"` // 0 if unknown
	FrameRate  float64 `json:"frameRate"`
	Label      string  `json:"label"`
}

// AudioTrack describes one selectable audio rendition. Language defaults
// to "und" (undetermined) when the manifest does not specify one.
type AudioTrack struct {
	Language   string `json:"language"`
	BitrateBPS int64  `json:"bitrateBps"`
	Label      string `json:"label"`
}

// DefaultLanguage is used when a manifest omits an explicit language tag.
const DefaultLanguage = "und"

// LabelForHeightOrBitrate implements the shared HLS/DASH labeling rule:
// prefer a height-derived label, fall back to a bitrate bucket, and
// finally "Unknown" when neither is available.
func LabelForHeightOrBitrate(height int, bitrateBPS int64) string {
	if height > 0 {
		switch height {
		case 2160:
			return "4K"
		case 1440:
			return "1440p"
		case 1080:
			return "1080p"
		case 720:
			return "720p"
		case 480:
			return "480p"
		case 360:
			return "360p"
		default:
			return fmt.Sprintf("%dp", height)
		}
	}
	if bitrateBPS > 0 {
		switch {
		case bitrateBPS >= 8_000_000:
			return "High"
		case bitrateBPS >= 4_000_000:
			return "Medium"
		default:
			return "Low"
		}
	}
	return "Unknown"
}

// NewVideoQuality builds a VideoQuality with its Label derived per the
// shared labeling rule.
func NewVideoQuality(width, height int, bitrateBPS int64, frameRate float64) VideoQuality {
	return VideoQuality{
		Width:      width,
		Height:     height,
		BitrateBPS: bitrateBPS,
		FrameRate:  frameRate,
		Label:      LabelForHeightOrBitrate(height, bitrateBPS),
	}
}

// NewAudioTrack builds an AudioTrack, defaulting Language to "und".
func NewAudioTrack(language string, bitrateBPS int64) AudioTrack {
	if language == "" {
		language = DefaultLanguage
	}
	label := language
	if bitrateBPS > 0 {
		label = fmt.Sprintf("%s (%dkbps)", language, bitrateBPS/1000)
	}
	return AudioTrack{
		Language:   language,
		BitrateBPS: bitrateBPS,
		Label:      label,
	}
}
