package model

import (
	"encoding/json"
	"testing"
)

func TestDownloadProgressMessage_JSONShape(t *testing.T) {
	msg := NewDownloadProgress(42, "job-1", DownloadProgress{
		DownloadedBytes: 100,
		TotalBytes:      200,
		Percentage:      50,
	}, StatusDownloading)

	raw, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if decoded["type"] != string(MessageTypeDownloadProg) {
		t.Errorf("expected type %q, got %v", MessageTypeDownloadProg, decoded["type"])
	}
	if decoded["timestamp"].(float64) != 42 {
		t.Errorf("expected timestamp 42, got %v", decoded["timestamp"])
	}
	if decoded["jobId"] != "job-1" {
		t.Errorf("expected jobId job-1, got %v", decoded["jobId"])
	}
}

func TestMessage_KindAndSentAt(t *testing.T) {
	var m Message = NewPing(7)
	if m.Kind() != MessageTypePing {
		t.Errorf("expected kind PING, got %s", m.Kind())
	}
	if m.SentAt() != 7 {
		t.Errorf("expected timestamp 7, got %d", m.SentAt())
	}
}
