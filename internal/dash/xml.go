package dash

import "encoding/xml"

// The xml* structs mirror the MPD document shape closely enough for
// encoding/xml.Unmarshal to populate them; they are converted to the
// public Manifest/AdaptationSet/Representation types in parse.go.

type mpdXML struct {
	XMLName                   xml.Name    `xml:"MPD"`
	Type                      string      `xml:"type,attr"`
	MediaPresentationDuration string      `xml:"mediaPresentationDuration,attr"`
	BaseURL                   string      `xml:"BaseURL"`
	Periods                   []periodXML `xml:"Period"`
}

type periodXML struct {
	AdaptationSets []adaptationSetXML `xml:"AdaptationSet"`
}

type adaptationSetXML struct {
	ContentType        string                 `xml:"contentType,attr"`
	MimeType           string                 `xml:"mimeType,attr"`
	Lang               string                 `xml:"lang,attr"`
	ContentProtections []contentProtectionXML `xml:"ContentProtection"`
	SegmentTemplate    *segmentTemplateXML    `xml:"SegmentTemplate"`
	Representations    []representationXML    `xml:"Representation"`
}

type contentProtectionXML struct {
	SchemeIDURI string `xml:"schemeIdUri,attr"`
	PSSH        string `xml:"pssh"`
}

type representationXML struct {
	ID              string              `xml:"id,attr"`
	Bandwidth       int64               `xml:"bandwidth,attr"`
	Width           int                 `xml:"width,attr"`
	Height          int                 `xml:"height,attr"`
	FrameRate       string              `xml:"frameRate,attr"`
	Codecs          string              `xml:"codecs,attr"`
	MimeType        string              `xml:"mimeType,attr"`
	BaseURL         string              `xml:"BaseURL"`
	SegmentTemplate *segmentTemplateXML `xml:"SegmentTemplate"`
	SegmentList     *segmentListXML     `xml:"SegmentList"`
}

type segmentTemplateXML struct {
	Media           string              `xml:"media,attr"`
	Initialization  string              `xml:"initialization,attr"`
	StartNumber     *int64              `xml:"startNumber,attr"`
	Duration        *int64              `xml:"duration,attr"`
	Timescale       *int64              `xml:"timescale,attr"`
	SegmentTimeline *segmentTimelineXML `xml:"SegmentTimeline"`
}

type segmentTimelineXML struct {
	S []sXML `xml:"S"`
}

type sXML struct {
	T *int64 `xml:"t,attr"`
	D int64  `xml:"d,attr"`
	R *int64 `xml:"r,attr"`
}

type segmentListXML struct {
	Initialization *initializationXML `xml:"Initialization"`
	SegmentURLs    []segmentURLXML    `xml:"SegmentURL"`
}

type initializationXML struct {
	SourceURL string `xml:"sourceURL,attr"`
}

type segmentURLXML struct {
	Media string `xml:"media,attr"`
}
