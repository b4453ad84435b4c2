// Package dash parses DASH (Dynamic Adaptive Streaming over HTTP)
// manifests (MPDs): XML documents describing adaptation sets and
// representations, and materializes segment URLs from SegmentTemplate,
// SegmentTimeline, or SegmentList addressing.
package dash

// Mode is the MPD @type attribute.
type Mode string

const (
	ModeStatic  Mode = "static"
	ModeDynamic Mode = "dynamic"
)

// ContentType classifies an AdaptationSet.
type ContentType string

const (
	ContentTypeVideo ContentType = "video"
	ContentTypeAudio ContentType = "audio"
	ContentTypeText  ContentType = "text"
)

// ContentProtection is one <ContentProtection> child of an AdaptationSet.
type ContentProtection struct {
	SchemeIDURI string
	PSSH        string
}

// Representation is a concrete encoding within an AdaptationSet, with its
// segment plan already materialized.
type Representation struct {
	ID           string
	BandwidthBPS int64
	Width        int
	Height       int
	FrameRate    float64
	Codecs       string
	MimeType     string
	BaseURL      string

	// InitializationURL is the resolved initialization segment URL, or
	// "" if the representation has none.
	InitializationURL string
	// SegmentURLs are the resolved media segment URLs in playback
	// order. Empty means the plan could not be resolved; the caller
	// reports that as an unresolvable-segments error, not the parser.
	SegmentURLs []string
}

// AdaptationSet groups representations that are alternatives of the same
// content.
type AdaptationSet struct {
	ContentType        ContentType
	Language           string
	Representations    []Representation
	ContentProtections []ContentProtection
	IsDRM              bool
}

// Manifest is a parsed MPD.
type Manifest struct {
	Mode           Mode
	DurationKnown  bool
	DurationSecs   float64
	BaseURL        string
	AdaptationSets []AdaptationSet
	IsDRM          bool
}
