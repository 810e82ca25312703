package store

import (
	"reflect"
	"testing"

	"github.com/roach88/paradox/internal/counts"
)

func TestMarshalCounts_SortedKeys(t *testing.T) {
	h := counts.MustNew(2, 1024, map[string]int{"11": 424, "00": 600})

	got, err := marshalCounts(h)
	if err != nil {
		t.Fatalf("marshalCounts() failed: %v", err)
	}
	want := `{"00":600,"11":424}`
	if got != want {
		t.Errorf("marshalCounts() = %q, want %q", got, want)
	}
}

func TestMarshalCounts_Empty(t *testing.T) {
	got, err := marshalCounts(counts.Empty(2, 1024))
	if err != nil {
		t.Fatalf("marshalCounts() failed: %v", err)
	}
	if got != "{}" {
		t.Errorf("marshalCounts() = %q, want %q", got, "{}")
	}
}

func TestCounts_RoundTrip(t *testing.T) {
	h := counts.MustNew(3, 4096, map[string]int{"000": 2000, "011": 96, "111": 2000})

	data, err := marshalCounts(h)
	if err != nil {
		t.Fatalf("marshalCounts() failed: %v", err)
	}
	got, err := unmarshalCounts(data, h.Width(), h.Shots())
	if err != nil {
		t.Fatalf("unmarshalCounts() failed: %v", err)
	}
	if !reflect.DeepEqual(got, h) {
		t.Errorf("round trip = %+v, want %+v", got, h)
	}
}

func TestUnmarshalCounts_EmptyObject(t *testing.T) {
	h, err := unmarshalCounts("{}", 2, 512)
	if err != nil {
		t.Fatalf("unmarshalCounts() failed: %v", err)
	}
	if !h.IsEmpty() {
		t.Error("histogram not empty")
	}
	if h.Width() != 2 || h.Shots() != 512 {
		t.Errorf("dims = (%d,%d), want (2,512)", h.Width(), h.Shots())
	}
}

func TestUnmarshalCounts_InvalidJSON(t *testing.T) {
	if _, err := unmarshalCounts("{", 2, 512); err == nil {
		t.Error("unmarshalCounts() with truncated JSON succeeded, want error")
	}
}

func TestUnmarshalCounts_BadKeyRejected(t *testing.T) {
	// Keys wider than the register cannot come from a decode, so the
	// histogram constructor rejects them on the way back in.
	if _, err := unmarshalCounts(`{"00000":1}`, 2, 512); err == nil {
		t.Error("unmarshalCounts() with oversized key succeeded, want error")
	}
}
