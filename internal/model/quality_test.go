package model

import "testing"

func TestLabelForHeightOrBitrate(t *testing.T) {
	tests := []struct {
		height   int
		bitrate  int64
		expected string
	}{
		{2160, 0, "4K"},
		{1440, 0, "1440p"},
		{1080, 5_000_000, "1080p"},
		{720, 0, "720p"},
		{480, 0, "480p"},
		{360, 0, "360p"},
		{144, 0, "144p"},
		{0, 9_000_000, "High"},
		{0, 5_000_000, "Medium"},
		{0, 500_000, "Low"},
		{0, 0, "Unknown"},
	}

	for _, test := range tests {
		result := LabelForHeightOrBitrate(test.height, test.bitrate)
		if result != test.expected {
			t.Errorf("LabelForHeightOrBitrate(%d, %d) = %s, expected %s", test.height, test.bitrate, result, test.expected)
		}
	}
}

func TestNewAudioTrack_DefaultsLanguage(t *testing.T) {
	track := NewAudioTrack("", 0)
	if track.Language != DefaultLanguage {
		t.Errorf("expected default language %q, got %q", DefaultLanguage, track.Language)
	}
}
