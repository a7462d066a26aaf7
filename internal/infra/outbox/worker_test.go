package outbox

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTopicFor(t *testing.T) {
	w := &Worker{}
	if got := w.topicFor("booking.created"); got != "booking.events.v1" {
		t.Errorf("topicFor = %s, want booking.events.v1", got)
	}

	w.TopicPrefix = "staging."
	if got := w.topicFor("booking.cancelled"); got != "staging.booking.events.v1" {
		t.Errorf("prefixed topicFor = %s, want staging.booking.events.v1", got)
	}
}

func TestFormatPayloadCloudEvents(t *testing.T) {
	w := &Worker{Source: "app://albergo-test"}
	doc := &EventDocument{
		ID:         "ob-1",
		Name:       "booking.created",
		Payload:    []byte(`{"booking_id":"bk-1","reference":"ALB-2025-AABBCCDD"}`),
		OccurredAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	payload, headers, err := w.formatPayload(doc)
	if err != nil {
		t.Fatalf("formatPayload: %v", err)
	}
	if headers["content-type"] != "application/cloudevents+json" {
		t.Errorf("content-type header = %s", headers["content-type"])
	}

	var evt map[string]any
	if err := json.Unmarshal(payload, &evt); err != nil {
		t.Fatalf("payload not valid JSON: %v", err)
	}
	if evt["type"] != "booking.created.v1" {
		t.Errorf("type = %v, want booking.created.v1", evt["type"])
	}
	if evt["source"] != "app://albergo-test" {
		t.Errorf("source = %v", evt["source"])
	}
	data, ok := evt["data"].(map[string]any)
	if !ok || data["booking_id"] != "bk-1" {
		t.Errorf("data not carried through: %v", evt["data"])
	}
}

func TestFormatPayloadRejectsBadData(t *testing.T) {
	w := &Worker{}
	doc := &EventDocument{ID: "ob-1", Name: "booking.created", Payload: []byte(`garbage`)}
	if _, _, err := w.formatPayload(doc); err == nil {
		t.Error("expected error for undecodable payload")
	}
}
