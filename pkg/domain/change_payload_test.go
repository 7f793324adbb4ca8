package domain

import (
	"encoding/json"
	"testing"
)

func TestChangePayloadDefinedAndRaw(t *testing.T) {
	undefined := UndefinedChangePayload()
	if undefined.Defined() {
		t.Fatalf("expected undefined payload to be not defined")
	}
	if undefined.Raw() != nil {
		t.Fatalf("expected undefined payload to return nil raw bytes")
	}

	raw := json.RawMessage(`{"id":"QR1"}`)
	defined := NewChangePayload(raw)
	if !defined.Defined() {
		t.Fatalf("expected payload to be defined")
	}
	got := defined.Raw()
	if string(got) != string(raw) {
		t.Fatalf("unexpected raw payload %s", got)
	}
	// Mutating the returned bytes must not affect the payload.
	got[0] = 'X'
	if string(defined.Raw()) != string(raw) {
		t.Fatalf("payload bytes were not isolated from caller mutation")
	}
}

func TestDecodeChangePayload(t *testing.T) {
	meal := Meal{Base: Base{ID: "QR1"}, Status: StatusLogged}
	payload, err := NewChangePayloadFromValue(meal)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	decoded, ok := DecodeChangePayload[Meal](payload)
	if !ok {
		t.Fatalf("expected payload to decode")
	}
	if decoded.ID != "QR1" || decoded.Status != StatusLogged {
		t.Fatalf("unexpected decoded meal %+v", decoded)
	}

	if _, ok := DecodeChangePayload[Meal](UndefinedChangePayload()); ok {
		t.Fatalf("expected undefined payload to fail decoding")
	}
	if _, ok := DecodeChangePayload[Meal](NewChangePayload(json.RawMessage("not json"))); ok {
		t.Fatalf("expected malformed payload to fail decoding")
	}
}
