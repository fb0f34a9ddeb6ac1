package bvh

import (
	"errors"
	"strings"
	"testing"

	"github.com/bodytrace/mocap/internal/skeleton"
)

func TestAddRejectsWrongLength(t *testing.T) {
	a := NewAccumulator(57, DefaultFrameTime)

	for _, n := range []int{0, 1, 56, 58} {
		if err := a.Add(make([]float64, n)); !errors.Is(err, ErrChannelCount) {
			t.Errorf("Add with %d values: got %v, want ErrChannelCount", n, err)
		}
	}
	if a.Len() != 0 {
		t.Errorf("rejected frames must not accumulate: Len = %d", a.Len())
	}

	if err := a.Add(make([]float64, 57)); err != nil {
		t.Errorf("Add with matching length: %v", err)
	}
	if a.Len() != 1 {
		t.Errorf("Len = %d, want 1", a.Len())
	}
}

func TestAddCopiesInput(t *testing.T) {
	a := NewAccumulator(3, 0)
	frame := []float64{1, 2, 3}
	if err := a.Add(frame); err != nil {
		t.Fatal(err)
	}
	frame[0] = 99

	if got := a.Frames()[0][0]; got != 1 {
		t.Errorf("stored frame aliases caller slice: got %v, want 1", got)
	}
}

func TestFramesInsertionOrder(t *testing.T) {
	a := NewAccumulator(1, 0)
	for i := 0; i < 5; i++ {
		if err := a.Add([]float64{float64(i)}); err != nil {
			t.Fatal(err)
		}
	}
	for i, f := range a.Frames() {
		if f[0] != float64(i) {
			t.Errorf("frame %d = %v, want %d", i, f[0], i)
		}
	}
}

func TestDefaultFrameTimeFallback(t *testing.T) {
	if got := NewAccumulator(57, 0).FrameTime(); got != DefaultFrameTime {
		t.Errorf("FrameTime = %v, want %v", got, DefaultFrameTime)
	}
	if got := NewAccumulator(57, 0.05).FrameTime(); got != 0.05 {
		t.Errorf("FrameTime = %v, want 0.05", got)
	}
}

func TestRenderEmptySession(t *testing.T) {
	h := skeleton.New()
	a := NewAccumulator(h.TotalChannels(), DefaultFrameTime)

	doc, err := NewSerializer(h).Render(a)
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(doc, "\nMOTION\nFrames: 0\nFrame Time: 0.033333\n") {
		t.Errorf("empty session motion block malformed:\n%s", tail(doc, 120))
	}
	if !strings.HasSuffix(doc, "Frame Time: 0.033333\n") {
		t.Error("empty session must contain no frame data lines")
	}
}

func TestRenderRoundTrip(t *testing.T) {
	h := skeleton.New()
	a := NewAccumulator(h.TotalChannels(), DefaultFrameTime)

	const k = 7
	for i := 0; i < k; i++ {
		frame := make([]float64, h.TotalChannels())
		frame[0] = float64(i) + 0.5
		if err := a.Add(frame); err != nil {
			t.Fatal(err)
		}
	}

	doc, err := NewSerializer(h).Render(a)
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(doc, "Frames: 7\n") {
		t.Error("Frames count does not match accumulated frames")
	}

	_, motion, ok := strings.Cut(doc, "Frame Time: ")
	if !ok {
		t.Fatal("no Frame Time line")
	}
	lines := strings.Split(strings.TrimSuffix(motion, "\n"), "\n")
	// First entry is the Frame Time value itself.
	dataLines := lines[1:]
	if len(dataLines) != k {
		t.Fatalf("got %d data lines, want %d", len(dataLines), k)
	}
	for i, line := range dataLines {
		values := strings.Fields(line)
		if len(values) != h.TotalChannels() {
			t.Errorf("line %d has %d values, want %d", i, len(values), h.TotalChannels())
		}
	}
	if !strings.HasPrefix(dataLines[2], "2.500000 ") {
		t.Errorf("six-decimal formatting: line 2 starts %q", dataLines[2][:min(len(dataLines[2]), 12)])
	}
}

func TestRenderAfterReset(t *testing.T) {
	h := skeleton.New()
	a := NewAccumulator(h.TotalChannels(), DefaultFrameTime)
	if err := a.Add(make([]float64, h.TotalChannels())); err != nil {
		t.Fatal(err)
	}
	a.Reset()

	doc, err := NewSerializer(h).Render(a)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(doc, "Frames: 0\n") {
		t.Error("reset session must render Frames: 0")
	}
}

func TestExportFileFailureKeepsFrames(t *testing.T) {
	h := skeleton.New()
	a := NewAccumulator(h.TotalChannels(), DefaultFrameTime)
	if err := a.Add(make([]float64, h.TotalChannels())); err != nil {
		t.Fatal(err)
	}

	s := NewSerializer(h)
	if err := s.ExportFile("/nonexistent-dir/capture.bvh", a); err == nil {
		t.Fatal("expected export failure for unwritable path")
	}
	if a.Len() != 1 {
		t.Errorf("frames lost after failed export: Len = %d", a.Len())
	}

	// A subsequent export to a writable path succeeds with the same data.
	path := t.TempDir() + "/capture.bvh"
	if err := s.ExportFile(path, a); err != nil {
		t.Fatalf("re-export after failure: %v", err)
	}
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
