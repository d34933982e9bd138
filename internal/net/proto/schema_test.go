package proto

import (
	"encoding/json"
	"strings"
	"testing"
)

func schemaJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal schema: %v", err)
	}
	return string(data)
}

func TestStateSchemaCoversSnapshotShape(t *testing.T) {
	doc := schemaJSON(t, StateSchema())
	for _, field := range []string{`"state"`, `"tick"`, `"customers"`, `"items"`, `"archetype"`} {
		if !strings.Contains(doc, field) {
			t.Fatalf("state schema missing %s", field)
		}
	}
}

func TestClientSchemaCoversEnvelopeFields(t *testing.T) {
	doc := schemaJSON(t, ClientSchema())
	for _, field := range []string{`"type"`, `"customerId"`, `"dx"`, `"dy"`, `"sentAt"`} {
		if !strings.Contains(doc, field) {
			t.Fatalf("client schema missing %s", field)
		}
	}
}
