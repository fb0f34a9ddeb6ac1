// Package bvh accumulates per-frame channel vectors for a recording
// session and renders them as a BVH motion document.
package bvh

import (
	"errors"
	"fmt"
	"sync"
)

// DefaultFrameTime is the per-frame duration in seconds (~30fps).
const DefaultFrameTime = 0.033333

// ErrChannelCount is returned when a frame's scalar count does not match
// the hierarchy's total channel count.
var ErrChannelCount = errors.New("channel vector length mismatch")

// Accumulator owns the ordered, append-only list of channel vectors for
// one recording session. The frame time is fixed for the session's life.
// Safe for concurrent use: the capture producer appends while the export
// path iterates.
type Accumulator struct {
	mu        sync.Mutex
	channels  int
	frameTime float64
	frames    [][]float64
}

// NewAccumulator creates an accumulator for vectors of the given channel
// count. A zero or negative frameTime falls back to DefaultFrameTime.
func NewAccumulator(channels int, frameTime float64) *Accumulator {
	if frameTime <= 0 {
		frameTime = DefaultFrameTime
	}
	return &Accumulator{channels: channels, frameTime: frameTime}
}

// Add appends one channel vector in arrival order. Vectors whose length
// does not match the session's channel count are rejected and the
// accumulator left unchanged.
func (a *Accumulator) Add(frame []float64) error {
	if len(frame) != a.channels {
		return fmt.Errorf("%w: got %d values, want %d", ErrChannelCount, len(frame), a.channels)
	}
	own := make([]float64, len(frame))
	copy(own, frame)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.frames = append(a.frames, own)
	return nil
}

// Len reports the number of accumulated frames.
func (a *Accumulator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.frames)
}

// FrameTime reports the session's fixed seconds-per-frame.
func (a *Accumulator) FrameTime() float64 { return a.frameTime }

// Channels reports the per-frame scalar count the session accepts.
func (a *Accumulator) Channels() int { return a.channels }

// Frames returns the accumulated vectors in insertion order. The outer
// slice is a snapshot; the inner slices are the stored vectors and must
// not be mutated by callers.
func (a *Accumulator) Frames() [][]float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([][]float64, len(a.frames))
	copy(out, a.frames)
	return out
}

// Reset discards all accumulated frames, starting a new session with the
// same channel count and frame time.
func (a *Accumulator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.frames = nil
}
