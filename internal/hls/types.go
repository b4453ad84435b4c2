// Package hls parses HLS (HTTP Live Streaming) manifests: master
// playlists listing variants, and media playlists listing segments.
// Parsing is best-effort — a malformed numeric attribute becomes zero
// rather than aborting the parse; only a missing #EXTM3U header is
// fatal.
package hls

// Kind discriminates the two HLS playlist shapes.
type Kind string

const (
	KindMaster Kind = "master"
	KindMedia  Kind = "media"
)

// Playlist is the tagged union of Master and Media playlists. Exactly one
// of Master or Media is populated, selected by Kind.
type Playlist struct {
	Kind   Kind
	Master *MasterPlaylist
	Media  *MediaPlaylist
}

// Resolution is a parsed "WxH" RESOLUTION attribute.
type Resolution struct {
	Width  int
	Height int
}

// AudioRendition is one #EXT-X-MEDIA:TYPE=AUDIO entry.
type AudioRendition struct {
	GroupID    string
	Name       string
	Language   string
	URI        string
	Default    bool
	AutoSelect bool
}

// Variant is one #EXT-X-STREAM-INF entry paired with its playlist URL.
type Variant struct {
	URL           string
	BandwidthBPS  int64
	Resolution    *Resolution
	Codecs        string
	FrameRate     float64
	AudioGroupRef string
}

// MasterPlaylist lists variants and named audio-rendition groups.
type MasterPlaylist struct {
	Variants    []Variant
	AudioGroups map[string][]AudioRendition
	IsDRM       bool
}

// ByteRange is a parsed #EXT-X-BYTERANGE (or EXT-X-MAP BYTERANGE)
// attribute: Length bytes, optionally starting at Offset.
type ByteRange struct {
	Length int64
	Offset *int64
}

// KeyDescriptor is the most recently seen #EXT-X-KEY, inherited by every
// following segment until superseded.
type KeyDescriptor struct {
	Method    string
	URI       string
	IV        string
	KeyFormat string
}

// InitSegment is an #EXT-X-MAP initialization segment.
type InitSegment struct {
	URI       string
	ByteRange *ByteRange
}

// Segment is one media-playlist entry.
type Segment struct {
	URI       string
	Duration  float64
	ByteRange *ByteRange
	Key       *KeyDescriptor
}

// MediaPlaylist lists segments in playback order.
type MediaPlaylist struct {
	TargetDuration float64
	Segments       []Segment
	TotalDuration  float64
	IsDRM          bool
	LastKey        *KeyDescriptor
	Map            *InitSegment
}
