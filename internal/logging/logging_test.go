package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "debug")

	log.WithField("entity_id", "j1").Info("saved")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}
	if entry["msg"] != "saved" {
		t.Errorf("msg = %v, want saved", entry["msg"])
	}
	if entry["entity_id"] != "j1" {
		t.Errorf("entity_id = %v, want j1", entry["entity_id"])
	}
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "warn")

	log.Info("suppressed")
	if buf.Len() != 0 {
		t.Error("info entry should be suppressed at warn level")
	}

	log.Warn("emitted")
	if buf.Len() == 0 {
		t.Error("warn entry should be emitted")
	}
}

func TestNewUnknownLevelFallsBack(t *testing.T) {
	log := New(&bytes.Buffer{}, "shouting")
	if log.GetLevel() != logrus.InfoLevel {
		t.Errorf("level = %s, want info", log.GetLevel())
	}
}

func TestGlobalLogger(t *testing.T) {
	if L() == nil {
		t.Fatal("expected a global logger")
	}
	if L() != L() {
		t.Error("L should return the same instance")
	}
}
