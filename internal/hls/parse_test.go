package hls

import (
	"errors"
	"strings"
	"testing"

	"github.com/grabkit/companion/internal/apperr"
)

func TestParse_RejectsMissingHeader(t *testing.T) {
	_, err := Parse([]byte("not a playlist\n"), "https://example.com/master.m3u8")
	if !errors.Is(err, apperr.ErrInvalidManifest) {
		t.Fatalf("expected ErrInvalidManifest, got %v", err)
	}
}

func TestParse_MasterVariantsSortedByBandwidthDescending(t *testing.T) {
	manifest := "#EXTM3U\n" +
		"#EXT-X-STREAM-INF:BANDWIDTH=1000000,RESOLUTION=640x360\n" +
		"lo.m3u8\n" +
		"#EXT-X-STREAM-INF:BANDWIDTH=5000000,RESOLUTION=1920x1080\n" +
		"hi.m3u8\n"

	pl, err := Parse([]byte(manifest), "https://example.com/master.m3u8")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if pl.Kind != KindMaster {
		t.Fatalf("expected master playlist, got %s", pl.Kind)
	}

	variants := pl.Master.Variants
	if len(variants) != 2 {
		t.Fatalf("expected 2 variants, got %d", len(variants))
	}
	if variants[0].BandwidthBPS != 5_000_000 || variants[1].BandwidthBPS != 1_000_000 {
		t.Fatalf("variants not sorted descending: %+v", variants)
	}

	labels := []string{variants[0].VideoQuality().Label, variants[1].VideoQuality().Label}
	if labels[0] != "1080p" || labels[1] != "360p" {
		t.Errorf("unexpected labels: %v", labels)
	}
	if !strings.HasSuffix(variants[0].URL, "hi.m3u8") {
		t.Errorf("expected first variant URL to resolve to hi.m3u8, got %s", variants[0].URL)
	}
}

func TestParse_AES128IsNotDRM(t *testing.T) {
	manifest := "#EXTM3U\n" +
		"#EXT-X-TARGETDURATION:10\n" +
		"#EXT-X-KEY:METHOD=AES-128,URI=\"k.bin\"\n" +
		"#EXTINF:10.0,\n" +
		"segment-0.ts\n"

	pl, err := Parse([]byte(manifest), "https://example.com/media.m3u8")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if pl.Kind != KindMedia {
		t.Fatalf("expected media playlist, got %s", pl.Kind)
	}
	if pl.Media.IsDRM {
		t.Error("AES-128 must not be classified as DRM")
	}
}

func TestParse_SampleAESIsDRM(t *testing.T) {
	manifest := "#EXTM3U\n" +
		"#EXT-X-KEY:METHOD=SAMPLE-AES,KEYFORMAT=\"com.apple.streamingkeydelivery\"\n" +
		"#EXT-X-STREAM-INF:BANDWIDTH=1000000\n" +
		"variant.m3u8\n"

	pl, err := Parse([]byte(manifest), "https://example.com/master.m3u8")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !pl.Master.IsDRM {
		t.Error("expected SAMPLE-AES with apple keyformat to be classified as DRM")
	}
}

func TestParse_ByteRangeAndMap(t *testing.T) {
	manifest := "#EXTM3U\n" +
		"#EXT-X-MAP:URI=\"init.mp4\"\n" +
		"#EXT-X-BYTERANGE:1000@0\n" +
		"#EXTINF:6.0,\n" +
		"seg0.m4s\n" +
		"#EXT-X-BYTERANGE:2000@1000\n" +
		"#EXTINF:6.0,\n" +
		"seg0.m4s\n"

	pl, err := Parse([]byte(manifest), "https://example.com/media.m3u8")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if pl.Media.Map == nil || !strings.HasSuffix(pl.Media.Map.URI, "init.mp4") {
		t.Fatalf("expected EXT-X-MAP to be captured, got %+v", pl.Media.Map)
	}
	if len(pl.Media.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(pl.Media.Segments))
	}
	first := pl.Media.Segments[0]
	if first.ByteRange == nil || first.ByteRange.Length != 1000 || *first.ByteRange.Offset != 0 {
		t.Errorf("unexpected byte range for first segment: %+v", first.ByteRange)
	}
}

func TestParse_TotalDurationSumsSegments(t *testing.T) {
	manifest := "#EXTM3U\n" +
		"#EXTINF:5.5,\n" +
		"a.ts\n" +
		"#EXTINF:4.5,\n" +
		"b.ts\n"

	pl, err := Parse([]byte(manifest), "https://example.com/media.m3u8")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if pl.Media.TotalDuration != 10.0 {
		t.Errorf("expected total duration 10.0, got %v", pl.Media.TotalDuration)
	}
}

func TestParse_AudioGroups(t *testing.T) {
	manifest := "#EXTM3U\n" +
		"#EXT-X-MEDIA:TYPE=AUDIO,GROUP-ID=\"aud\",NAME=\"English\",DEFAULT=YES,URI=\"en.m3u8\"\n" +
		"#EXT-X-STREAM-INF:BANDWIDTH=1000000,AUDIO=\"aud\"\n" +
		"variant.m3u8\n"

	pl, err := Parse([]byte(manifest), "https://example.com/master.m3u8")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	renditions, ok := pl.Master.AudioGroups["aud"]
	if !ok || len(renditions) != 1 {
		t.Fatalf("expected 1 rendition in group 'aud', got %+v", pl.Master.AudioGroups)
	}
	if !renditions[0].Default {
		t.Error("expected DEFAULT=YES to be parsed as true")
	}
	if pl.Master.Variants[0].AudioGroupRef != "aud" {
		t.Errorf("expected variant audio group ref 'aud', got %s", pl.Master.Variants[0].AudioGroupRef)
	}
}
