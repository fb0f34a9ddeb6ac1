package detector

import (
	"io"
	"math"
	"sync"
	"time"

	"github.com/bodytrace/mocap/internal/landmark"
)

// Mock is a synthetic detection backend that emits an articulated
// standing pose with a gentle arm swing at a fixed cadence. It stands in
// for the external pose process in dev mode and in tests.
type Mock struct {
	ticker *time.Ticker
	start  time.Time
	tick   int

	closeOnce sync.Once
	done      chan struct{}
}

// NewMock creates a mock backend producing one frame per interval.
func NewMock(interval time.Duration) *Mock {
	if interval <= 0 {
		interval = 33 * time.Millisecond
	}
	return &Mock{
		ticker: time.NewTicker(interval),
		start:  time.Now(),
		done:   make(chan struct{}),
	}
}

// Detect waits for the next cadence tick and returns a synthetic frame.
func (m *Mock) Detect() (*Result, error) {
	select {
	case <-m.done:
		return nil, io.EOF
	case <-m.ticker.C:
	}
	m.tick++
	return &Result{
		Timestamp: time.Since(m.start).Seconds(),
		Body:      MockBody(float64(m.tick) * 0.1),
	}, nil
}

// Close stops the cadence; subsequent Detect calls return io.EOF.
func (m *Mock) Close() error {
	m.closeOnce.Do(func() {
		m.ticker.Stop()
		close(m.done)
	})
	return nil
}

// MockBody returns a valid 33-point standing pose. phase advances the arm
// swing; zero gives a neutral stance.
func MockBody(phase float64) []landmark.Point {
	sway := 0.05 * math.Sin(phase)

	body := make([]landmark.Point, landmark.FrameSize)
	for i := range body {
		body[i] = landmark.Point{X: 0.5, Y: 0.5, Visibility: 1}
	}

	set := func(i int, x, y float64) {
		body[i] = landmark.Point{X: x, Y: y, Visibility: 1}
	}
	set(landmark.Nose, 0.5, 0.2)
	set(landmark.LeftShoulder, 0.42, 0.3)
	set(landmark.RightShoulder, 0.58, 0.3)
	set(landmark.LeftElbow, 0.38, 0.4+sway)
	set(landmark.RightElbow, 0.62, 0.4-sway)
	set(landmark.LeftWrist, 0.36, 0.5+sway)
	set(landmark.RightWrist, 0.64, 0.5-sway)
	set(landmark.LeftHip, 0.45, 0.52)
	set(landmark.RightHip, 0.55, 0.52)
	set(landmark.LeftKnee, 0.45, 0.68)
	set(landmark.RightKnee, 0.55, 0.68)
	set(landmark.LeftAnkle, 0.45, 0.84)
	set(landmark.RightAnkle, 0.55, 0.84)
	set(landmark.LeftFootIndex, 0.45, 0.87)
	set(landmark.RightFootIndex, 0.55, 0.87)
	return body
}
