package dash

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/grabkit/companion/internal/apperr"
	"github.com/grabkit/companion/internal/urltemplate"
	"golang.org/x/net/html/charset"
)

// Parse turns a raw MPD document into a typed Manifest. manifestURL is
// the absolute URL the document was fetched from.
func Parse(body []byte, manifestURL string) (*Manifest, error) {
	var doc mpdXML
	decoder := xml.NewDecoder(bytes.NewReader(body))
	decoder.CharsetReader = charset.NewReaderLabel
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidManifest, err)
	}
	if doc.XMLName.Local != "MPD" {
		return nil, fmt.Errorf("%w: no root MPD element", apperr.ErrInvalidManifest)
	}

	manifestBase, _ := url.Parse(manifestURL)

	m := &Manifest{Mode: ModeStatic}
	if strings.EqualFold(doc.Type, "dynamic") {
		m.Mode = ModeDynamic
	}

	if secs, ok := parseISO8601Duration(doc.MediaPresentationDuration); ok {
		m.DurationKnown = true
		m.DurationSecs = secs
	}

	base := manifestBase
	if doc.BaseURL != "" {
		resolved := urltemplate.Resolve(manifestBase, doc.BaseURL)
		m.BaseURL = resolved
		if u, err := url.Parse(resolved); err == nil {
			base = u
		}
	}

	for _, period := range doc.Periods {
		for _, asXML := range period.AdaptationSets {
			as := buildAdaptationSet(base, asXML, m.DurationSecs)
			m.AdaptationSets = append(m.AdaptationSets, as)
			if as.IsDRM {
				m.IsDRM = true
			}
		}
	}

	sortRepresentations(m.AdaptationSets)

	return m, nil
}

func buildAdaptationSet(manifestBase *url.URL, x adaptationSetXML, periodDurationSecs float64) AdaptationSet {
	as := AdaptationSet{
		ContentType: deriveContentType(x.ContentType, x.MimeType),
		Language:    x.Lang,
	}

	for _, cp := range x.ContentProtections {
		as.ContentProtections = append(as.ContentProtections, ContentProtection{
			SchemeIDURI: cp.SchemeIDURI,
			PSSH:        strings.TrimSpace(cp.PSSH),
		})
	}
	if len(as.ContentProtections) > 0 {
		as.IsDRM = true
	}
	for _, cp := range as.ContentProtections {
		if isKnownDRMScheme(cp.SchemeIDURI) {
			as.IsDRM = true
		}
	}

	for _, repXML := range x.Representations {
		as.Representations = append(as.Representations, buildRepresentation(manifestBase, repXML, x.SegmentTemplate, periodDurationSecs))
	}

	return as
}

func buildRepresentation(manifestBase *url.URL, x representationXML, inheritedTemplate *segmentTemplateXML, periodDurationSecs float64) Representation {
	base := manifestBase
	if x.BaseURL != "" {
		if resolved, err := url.Parse(urltemplate.Resolve(manifestBase, x.BaseURL)); err == nil {
			base = resolved
		}
	}

	rep := Representation{
		ID:           x.ID,
		BandwidthBPS: x.Bandwidth,
		Width:        x.Width,
		Height:       x.Height,
		FrameRate:    parseFrameRate(x.FrameRate),
		Codecs:       x.Codecs,
		MimeType:     x.MimeType,
	}
	if base != nil {
		rep.BaseURL = base.String()
	}

	switch {
	case x.SegmentList != nil:
		rep.InitializationURL, rep.SegmentURLs = materializeSegmentList(base, x.SegmentList)
	case x.SegmentTemplate != nil:
		rep.InitializationURL, rep.SegmentURLs = materializeTemplate(base, rep.ID, rep.BandwidthBPS, x.SegmentTemplate, periodDurationSecs)
	case inheritedTemplate != nil:
		rep.InitializationURL, rep.SegmentURLs = materializeTemplate(base, rep.ID, rep.BandwidthBPS, inheritedTemplate, periodDurationSecs)
	}

	return rep
}

func deriveContentType(explicit, mimeType string) ContentType {
	switch strings.ToLower(explicit) {
	case "video":
		return ContentTypeVideo
	case "audio":
		return ContentTypeAudio
	case "text":
		return ContentTypeText
	}
	switch {
	case strings.HasPrefix(mimeType, "audio/"):
		return ContentTypeAudio
	case strings.HasPrefix(mimeType, "text/"):
		return ContentTypeText
	default:
		return ContentTypeVideo
	}
}

// sortRepresentations applies the shared ordering invariant: video
// representations sort descending by bandwidth, audio ascending.
func sortRepresentations(sets []AdaptationSet) {
	for i := range sets {
		reps := sets[i].Representations
		ascending := sets[i].ContentType == ContentTypeAudio
		sort.SliceStable(reps, func(a, b int) bool {
			if ascending {
				return reps[a].BandwidthBPS < reps[b].BandwidthBPS
			}
			return reps[a].BandwidthBPS > reps[b].BandwidthBPS
		})
	}
}

func parseFrameRate(s string) float64 {
	if s == "" {
		return 0
	}
	if strings.Contains(s, "/") {
		parts := strings.SplitN(s, "/", 2)
		num, err1 := strconv.ParseFloat(parts[0], 64)
		den, err2 := strconv.ParseFloat(parts[1], 64)
		if err1 != nil || err2 != nil || den == 0 {
			return 0
		}
		return num / den
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// parseISO8601Duration parses a subset of ISO-8601 durations of the form
// PT#H#M#S, returning total seconds.
func parseISO8601Duration(s string) (float64, bool) {
	if !strings.HasPrefix(s, "PT") {
		return 0, false
	}
	rest := s[2:]
	var hours, minutes, seconds float64
	var num strings.Builder
	for _, r := range rest {
		switch {
		case r >= '0' && r <= '9' || r == '.':
			num.WriteRune(r)
		case r == 'H':
			hours, _ = strconv.ParseFloat(num.String(), 64)
			num.Reset()
		case r == 'M':
			minutes, _ = strconv.ParseFloat(num.String(), 64)
			num.Reset()
		case r == 'S':
			seconds, _ = strconv.ParseFloat(num.String(), 64)
			num.Reset()
		}
	}
	return hours*3600 + minutes*60 + seconds, true
}
