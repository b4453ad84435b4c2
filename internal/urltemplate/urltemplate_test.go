package urltemplate

import (
	"net/url"
	"testing"
)

func TestResolve(t *testing.T) {
	base, _ := url.Parse("https://cdn.example.com/videos/master.m3u8")

	tests := []struct {
		ref      string
		expected string
	}{
		{"segment-1.ts", "https://cdn.example.com/videos/segment-1.ts"},
		{"/abs/path.ts", "https://cdn.example.com/abs/path.ts"},
		{"https://other.example.com/x.ts", "https://other.example.com/x.ts"},
	}

	for _, test := range tests {
		result := Resolve(base, test.ref)
		if result != test.expected {
			t.Errorf("Resolve(%q) = %q, expected %q", test.ref, result, test.expected)
		}
	}
}

func TestExpand_NumberWidthFormat(t *testing.T) {
	tmpl := "v_$RepresentationID$_$Number%05d$.m4s"
	n := int64(1)
	got := Expand(tmpl, Vars{RepresentationID: "v1", Number: &n})
	if got != "v_v1_00001.m4s" {
		t.Errorf("Expand() = %q, expected v_v1_00001.m4s", got)
	}

	n = 3
	got = Expand(tmpl, Vars{RepresentationID: "v1", Number: &n})
	if got != "v_v1_00003.m4s" {
		t.Errorf("Expand() = %q, expected v_v1_00003.m4s", got)
	}
}

func TestExpand_TimeAndBandwidth(t *testing.T) {
	tmpl := "chunk-$Time$-$Bandwidth$.m4s"
	tm := int64(500)
	got := Expand(tmpl, Vars{Bandwidth: 128000, Time: &tm})
	if got != "chunk-500-128000.m4s" {
		t.Errorf("Expand() = %q, expected chunk-500-128000.m4s", got)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in       string
		maxRunes int
		expected string
	}{
		{`My<Video>:Title"/\|?*`, 200, "MyVideoTitle"},
		{"  multiple   spaces  here  ", 200, "multiple spaces here"},
		{"exact", 3, "exa"},
	}

	for _, test := range tests {
		result := SanitizeFilename(test.in, test.maxRunes)
		if result != test.expected {
			t.Errorf("SanitizeFilename(%q, %d) = %q, expected %q", test.in, test.maxRunes, result, test.expected)
		}
	}
}
