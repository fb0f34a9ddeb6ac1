// Package detector abstracts the external pose-estimation subsystem. The
// detection itself is a black box running out of process; what arrives
// here is its per-frame landmark output. A Detector is an injected
// strategy chosen at construction time, not looked up by name at runtime.
package detector

import (
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/bodytrace/mocap/internal/landmark"
)

// Result is one detection cycle's output: the body pose plus optional
// hand and face landmark sets. Body carries 33 entries when a subject was
// detected and is empty otherwise; hands and faces pass through untouched.
type Result struct {
	Timestamp float64          `json:"timestamp"`
	Body      []landmark.Point `json:"body"`
	LeftHand  []landmark.Point `json:"left_hand"`
	RightHand []landmark.Point `json:"right_hand"`
	Face      []landmark.Point `json:"face"`
}

// Detector is the capability set every detection backend implements.
type Detector interface {
	// Detect blocks until the next frame is available. It returns io.EOF
	// when the source is exhausted or closed.
	Detect() (*Result, error)
	// Close releases the backend's resources.
	Close() error
}

// Open constructs the backend for the given name and source.
//
// Backends:
//   - "mock": synthetic pose generator at the given frame interval,
//     source ignored. Used in dev mode.
//   - "stream": newline-delimited JSON frames from an external pose
//     process. Source is "-" for stdin, "tcp://host:port" for a socket,
//     or a file/FIFO path.
func Open(backend, source string, interval time.Duration) (Detector, error) {
	switch backend {
	case "mock":
		return NewMock(interval), nil
	case "stream":
		switch {
		case source == "-":
			return NewStream(os.Stdin), nil
		case strings.HasPrefix(source, "tcp://"):
			conn, err := net.Dial("tcp", strings.TrimPrefix(source, "tcp://"))
			if err != nil {
				return nil, fmt.Errorf("failed to connect to pose stream: %w", err)
			}
			return NewStream(conn), nil
		default:
			f, err := os.Open(source)
			if err != nil {
				return nil, fmt.Errorf("failed to open pose stream: %w", err)
			}
			return NewStream(f), nil
		}
	default:
		return nil, fmt.Errorf("unknown detector backend %q", backend)
	}
}
