//go:build linux

package inputs

import "testing"

// The kernel can dispatch an edge event before Open has stored the line
// handle, and again after Close has released it; sampling in either window
// must be a no-op rather than a nil dereference.
func TestSampleWithoutLineHandle(t *testing.T) {
	s := &HardwareSource{}
	s.sample()
	if s.ConsumeChanged() {
		t.Error("nothing was read; no change should be recorded")
	}
}

func TestSampleAfterClose(t *testing.T) {
	s := &HardwareSource{}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	s.sample()
	if s.ConsumeChanged() {
		t.Error("nothing was read; no change should be recorded")
	}
}
