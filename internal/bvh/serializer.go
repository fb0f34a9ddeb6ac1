package bvh

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bodytrace/mocap/internal/skeleton"
)

// Serializer renders a hierarchy plus an accumulated session as a BVH
// document. The grammar is rigid: downstream tools tokenize the exact
// keywords, casing and whitespace emitted here.
type Serializer struct {
	hier *skeleton.Hierarchy
}

// NewSerializer creates a serializer for the given hierarchy.
func NewSerializer(h *skeleton.Hierarchy) *Serializer {
	return &Serializer{hier: h}
}

// Write renders the full document: the HIERARCHY block, a blank line,
// then the MOTION block with one line of space-separated scalars per
// frame at six-decimal precision.
func (s *Serializer) Write(w io.Writer, a *Accumulator) error {
	bw := bufio.NewWriter(w)

	if err := s.hier.WriteHierarchy(bw); err != nil {
		return err
	}
	frames := a.Frames()
	if _, err := fmt.Fprintf(bw, "\nMOTION\nFrames: %d\nFrame Time: %.6f\n", len(frames), a.FrameTime()); err != nil {
		return err
	}
	for _, frame := range frames {
		for i, v := range frame {
			if i > 0 {
				if err := bw.WriteByte(' '); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprintf(bw, "%.6f", v); err != nil {
				return err
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Render returns the document as a string.
func (s *Serializer) Render(a *Accumulator) (string, error) {
	var sb strings.Builder
	if err := s.Write(&sb, a); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// ExportFile writes the document to path. On failure the accumulated
// frames are untouched and remain exportable.
func (s *Serializer) ExportFile(path string, a *Accumulator) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create motion file: %w", err)
	}
	if err := s.Write(f, a); err != nil {
		f.Close()
		return fmt.Errorf("failed to write motion file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close motion file: %w", err)
	}
	return nil
}
