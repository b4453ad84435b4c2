package encoder

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteConcatList_QuotesPaths(t *testing.T) {
	dir := t.TempDir()
	outputPath := filepath.Join(dir, "out.mp4")

	listPath, err := writeConcatList([]string{
		filepath.Join(dir, "seg0.ts"),
		filepath.Join(dir, "it's a segment.ts"),
	}, outputPath)
	if err != nil {
		t.Fatalf("writeConcatList: %v", err)
	}
	defer os.Remove(listPath)

	body, err := os.ReadFile(listPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(body), "seg0.ts") {
		t.Errorf("expected seg0.ts in list, got: %s", body)
	}
	if !strings.Contains(string(body), `it'\''s a segment.ts`) {
		t.Errorf("expected escaped quote in list, got: %s", body)
	}
}

func TestMerge_NoSegmentsReturnsInvalidManifest(t *testing.T) {
	e := &Encoder{binPath: "ffmpeg"}
	_, err := e.Merge(context.Background(), nil, "out.mp4")
	if err == nil {
		t.Fatal("expected error for empty segment list")
	}
}
