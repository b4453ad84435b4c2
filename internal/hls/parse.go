package hls

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/grabkit/companion/internal/apperr"
)

const defaultAudioGroup = "default"

// Parse turns a raw HLS manifest body into a typed Playlist. manifestURL
// is the absolute URL the body was fetched from, used to resolve
// relative segment/variant URIs.
func Parse(body []byte, manifestURL string) (*Playlist, error) {
	text := string(body)
	lines := strings.Split(text, "\n")

	firstLine := ""
	for _, l := range lines {
		firstLine = strings.TrimSpace(strings.Trim(l, "\ufeff"))
		break
	}
	if !strings.HasPrefix(firstLine, "#EXTM3U") {
		return nil, fmt.Errorf("%w: missing #EXTM3U header", apperr.ErrInvalidManifest)
	}

	base, _ := url.Parse(manifestURL)

	if strings.Contains(text, "#EXT-X-STREAM-INF:") {
		return parseMaster(lines, text, base)
	}
	return parseMedia(lines, text, base)
}

func resolve(base *url.URL, ref string) string {
	if ref == "" {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	if u.IsAbs() {
		return u.String()
	}
	if base == nil {
		return ref
	}
	return base.ResolveReference(u).String()
}

func parseMaster(lines []string, rawText string, base *url.URL) (*Playlist, error) {
	m := &MasterPlaylist{
		AudioGroups: make(map[string][]AudioRendition),
	}

	var pendingStreamInf map[string]string
	drm := bodyMentionsDRM(rawText)

	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, "#EXT-X-MEDIA:"):
			attrs := parseAttributes(strings.TrimPrefix(line, "#EXT-X-MEDIA:"))
			if strings.EqualFold(attrs["TYPE"], "AUDIO") {
				groupID := attrs["GROUP-ID"]
				if groupID == "" {
					groupID = defaultAudioGroup
				}
				rendition := AudioRendition{
					GroupID:    groupID,
					Name:       attrs["NAME"],
					Language:   attrs["LANGUAGE"],
					URI:        resolve(base, attrs["URI"]),
					Default:    strings.EqualFold(attrs["DEFAULT"], "YES"),
					AutoSelect: strings.EqualFold(attrs["AUTOSELECT"], "YES"),
				}
				m.AudioGroups[groupID] = append(m.AudioGroups[groupID], rendition)
			}

		case strings.HasPrefix(line, "#EXT-X-STREAM-INF:"):
			pendingStreamInf = parseAttributes(strings.TrimPrefix(line, "#EXT-X-STREAM-INF:"))

		case strings.HasPrefix(line, "#EXT-X-KEY:") || strings.HasPrefix(line, "#EXT-X-SESSION-KEY:"):
			prefix := "#EXT-X-KEY:"
			if strings.HasPrefix(line, "#EXT-X-SESSION-KEY:") {
				prefix = "#EXT-X-SESSION-KEY:"
			}
			attrs := parseAttributes(strings.TrimPrefix(line, prefix))
			key := &KeyDescriptor{
				Method:    attrs["METHOD"],
				URI:       attrs["URI"],
				IV:        attrs["IV"],
				KeyFormat: attrs["KEYFORMAT"],
			}
			if keyIsDRM(key) {
				drm = true
			}

		case strings.HasPrefix(line, "#"):
			// Unrecognized tag or comment; ignored.

		default:
			if pendingStreamInf == nil {
				continue
			}
			variant := Variant{
				URL:           resolve(base, line),
				BandwidthBPS:  parseIntAttr(pendingStreamInf["BANDWIDTH"]),
				Codecs:        pendingStreamInf["CODECS"],
				FrameRate:     parseFloatAttr(pendingStreamInf["FRAME-RATE"]),
				AudioGroupRef: pendingStreamInf["AUDIO"],
			}
			if res, ok := parseResolution(pendingStreamInf["RESOLUTION"]); ok {
				variant.Resolution = &res
			}
			m.Variants = append(m.Variants, variant)
			pendingStreamInf = nil
		}
	}

	sort.SliceStable(m.Variants, func(i, j int) bool {
		return m.Variants[i].BandwidthBPS > m.Variants[j].BandwidthBPS
	})

	m.IsDRM = drm

	return &Playlist{Kind: KindMaster, Master: m}, nil
}

func parseMedia(lines []string, rawText string, base *url.URL) (*Playlist, error) {
	media := &MediaPlaylist{}

	var currentKey *KeyDescriptor
	var pendingDuration float64
	var pendingRange *ByteRange
	var nextRangeOffset int64
	drm := false

	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, "#EXT-X-TARGETDURATION:"):
			media.TargetDuration = parseFloatAttr(strings.TrimPrefix(line, "#EXT-X-TARGETDURATION:"))

		case strings.HasPrefix(line, "#EXT-X-KEY:"):
			attrs := parseAttributes(strings.TrimPrefix(line, "#EXT-X-KEY:"))
			currentKey = &KeyDescriptor{
				Method:    attrs["METHOD"],
				URI:       resolve(base, attrs["URI"]),
				IV:        attrs["IV"],
				KeyFormat: attrs["KEYFORMAT"],
			}
			if keyIsDRM(currentKey) {
				drm = true
			}

		case strings.HasPrefix(line, "#EXT-X-MAP:"):
			attrs := parseAttributes(strings.TrimPrefix(line, "#EXT-X-MAP:"))
			initSeg := &InitSegment{URI: resolve(base, attrs["URI"])}
			if br, ok := parseByteRange(attrs["BYTERANGE"]); ok {
				initSeg.ByteRange = &br
			}
			media.Map = initSeg

		case strings.HasPrefix(line, "#EXT-X-BYTERANGE:"):
			if br, ok := parseByteRange(strings.TrimPrefix(line, "#EXT-X-BYTERANGE:")); ok {
				// A missing @offset continues from the end of the previous
				// media segment's range, per the BYTERANGE attribute rule.
				if br.Offset == nil {
					offset := nextRangeOffset
					br.Offset = &offset
				}
				nextRangeOffset = *br.Offset + br.Length
				pendingRange = &br
			}

		case strings.HasPrefix(line, "#EXTINF:"):
			payload := strings.TrimPrefix(line, "#EXTINF:")
			durStr := payload
			if comma := strings.IndexByte(payload, ','); comma >= 0 {
				durStr = payload[:comma]
			}
			d, err := strconv.ParseFloat(strings.TrimSpace(durStr), 64)
			if err != nil {
				d = 0
			}
			pendingDuration = d

		case strings.HasPrefix(line, "#"):
			// Unrecognized tag or comment; ignored.

		default:
			seg := Segment{
				URI:       resolve(base, line),
				Duration:  pendingDuration,
				ByteRange: pendingRange,
				Key:       currentKey,
			}
			media.Segments = append(media.Segments, seg)
			media.TotalDuration += pendingDuration
			pendingDuration = 0
			pendingRange = nil
		}
	}

	media.LastKey = currentKey
	media.IsDRM = drm || bodyMentionsDRM(rawText)

	return &Playlist{Kind: KindMedia, Media: media}, nil
}

func parseIntAttr(s string) int64 {
	if s == "" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func parseFloatAttr(s string) float64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

func parseResolution(s string) (Resolution, bool) {
	parts := strings.SplitN(s, "x", 2)
	if len(parts) != 2 {
		return Resolution{}, false
	}
	w, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	h, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil {
		return Resolution{}, false
	}
	return Resolution{Width: w, Height: h}, true
}

// parseByteRange parses an EXT-X-BYTERANGE value: "<length>[@<offset>]".
func parseByteRange(s string) (ByteRange, bool) {
	if s == "" {
		return ByteRange{}, false
	}
	parts := strings.SplitN(s, "@", 2)
	length, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
	if err != nil {
		return ByteRange{}, false
	}
	br := ByteRange{Length: length}
	if len(parts) == 2 {
		offset, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
		if err == nil {
			br.Offset = &offset
		}
	}
	return br, true
}
