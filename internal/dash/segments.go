package dash

import (
	"math"
	"net/url"

	"github.com/grabkit/companion/internal/urltemplate"
)

const defaultStartNumber = int64(1)

// materializeTemplate expands a SegmentTemplate into an initialization
// URL and an ordered list of media segment URLs.
//
// When the template carries a SegmentTimeline, segment count and timing
// come from the timeline's S entries. When it doesn't but has both
// duration and timescale, segment count is derived from
// periodDurationSecs rather than returning an empty plan.
func materializeTemplate(base *url.URL, repID string, bandwidth int64, tmpl *segmentTemplateXML, periodDurationSecs float64) (initURL string, segURLs []string) {
	if tmpl == nil {
		return "", nil
	}

	startNumber := defaultStartNumber
	if tmpl.StartNumber != nil {
		startNumber = *tmpl.StartNumber
	}

	if tmpl.Initialization != "" {
		expanded := urltemplate.Expand(tmpl.Initialization, urltemplate.Vars{
			RepresentationID: repID,
			Bandwidth:        bandwidth,
		})
		initURL = urltemplate.Resolve(base, expanded)
	}

	switch {
	case tmpl.SegmentTimeline != nil && len(tmpl.SegmentTimeline.S) > 0:
		segURLs = materializeTimeline(base, repID, bandwidth, tmpl.Media, startNumber, tmpl.SegmentTimeline.S)

	case tmpl.Duration != nil && tmpl.Timescale != nil && *tmpl.Timescale > 0 && periodDurationSecs > 0:
		segDurationSecs := float64(*tmpl.Duration) / float64(*tmpl.Timescale)
		count := int64(math.Ceil(periodDurationSecs / segDurationSecs))
		for i := int64(0); i < count; i++ {
			number := startNumber + i
			segURLs = append(segURLs, expandMedia(base, repID, bandwidth, tmpl.Media, &number, nil))
		}
	}

	return initURL, segURLs
}

func materializeTimeline(base *url.URL, repID string, bandwidth int64, mediaTemplate string, startNumber int64, entries []sXML) []string {
	var urls []string
	number := startNumber
	var currentTime int64

	for _, s := range entries {
		if s.T != nil {
			currentTime = *s.T
		}
		repeat := int64(0)
		if s.R != nil {
			repeat = *s.R
		}
		for i := int64(0); i <= repeat; i++ {
			t := currentTime
			n := number
			urls = append(urls, expandMedia(base, repID, bandwidth, mediaTemplate, &n, &t))
			currentTime += s.D
			number++
		}
	}
	return urls
}

func expandMedia(base *url.URL, repID string, bandwidth int64, mediaTemplate string, number, timestamp *int64) string {
	expanded := urltemplate.Expand(mediaTemplate, urltemplate.Vars{
		RepresentationID: repID,
		Bandwidth:        bandwidth,
		Number:           number,
		Time:             timestamp,
	})
	return urltemplate.Resolve(base, expanded)
}

// materializeSegmentList resolves an explicit <SegmentList> in document
// order, overriding any SegmentTemplate.
func materializeSegmentList(base *url.URL, list *segmentListXML) (initURL string, segURLs []string) {
	if list == nil {
		return "", nil
	}
	if list.Initialization != nil {
		initURL = urltemplate.Resolve(base, list.Initialization.SourceURL)
	}
	for _, su := range list.SegmentURLs {
		segURLs = append(segURLs, urltemplate.Resolve(base, su.Media))
	}
	return initURL, segURLs
}
