package detector

import (
	"bufio"
	"encoding/json"
	"io"

	"github.com/bodytrace/mocap/internal/monitoring"
)

// Stream reads newline-delimited JSON detection results from an external
// pose process. Malformed lines are logged and skipped; the stream keeps
// going until its source ends.
type Stream struct {
	src  io.ReadCloser
	scan *bufio.Scanner
}

// streamBufferSize bounds a single NDJSON line. Face meshes run to
// hundreds of landmarks, so lines can reach a few hundred KB.
const streamBufferSize = 4 * 1024 * 1024

// NewStream wraps an NDJSON source as a Detector.
func NewStream(src io.ReadCloser) *Stream {
	scan := bufio.NewScanner(src)
	scan.Buffer(make([]byte, 64*1024), streamBufferSize)
	return &Stream{src: src, scan: scan}
}

// Detect returns the next well-formed frame from the source.
func (s *Stream) Detect() (*Result, error) {
	for s.scan.Scan() {
		line := s.scan.Bytes()
		if len(line) == 0 {
			continue
		}
		var r Result
		if err := json.Unmarshal(line, &r); err != nil {
			monitoring.Logf("detector: skipping malformed frame: %v", err)
			continue
		}
		return &r, nil
	}
	if err := s.scan.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// Close closes the underlying source.
func (s *Stream) Close() error {
	return s.src.Close()
}
