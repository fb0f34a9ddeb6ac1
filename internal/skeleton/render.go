package skeleton

import (
	"fmt"
	"io"
	"strings"
)

// indent is the per-depth indentation of the HIERARCHY block. Downstream
// tools tokenize the format, but the canonical files are written with
// four-space nesting and we match them byte for byte.
const indent = "    "

// WriteHierarchy renders the HIERARCHY section of a BVH document.
func (h *Hierarchy) WriteHierarchy(w io.Writer) error {
	if _, err := io.WriteString(w, "HIERARCHY\n"); err != nil {
		return err
	}
	return writeBone(w, h.root, 0, "ROOT")
}

func writeBone(w io.Writer, b *Bone, depth int, keyword string) error {
	pad := strings.Repeat(indent, depth)
	if _, err := fmt.Fprintf(w, "%s%s %s\n%s{\n", pad, keyword, b.Name, pad); err != nil {
		return err
	}

	inner := pad + indent
	if _, err := fmt.Fprintf(w, "%sOFFSET %s\n", inner, offsetString(b.Offset)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%sCHANNELS %d %s\n", inner, len(b.Channels), channelString(b.Channels)); err != nil {
		return err
	}

	for _, c := range b.Children {
		if err := writeBone(w, c, depth+1, "JOINT"); err != nil {
			return err
		}
	}

	if b.EndSite != nil {
		if _, err := fmt.Fprintf(w, "%sEnd Site\n%s{\n%s%sOFFSET %s\n%s}\n",
			inner, inner, inner, indent, offsetString(*b.EndSite), inner); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "%s}\n", pad)
	return err
}

func offsetString(o [3]float64) string {
	return fmt.Sprintf("%.1f %.1f %.1f", o[0], o[1], o[2])
}

func channelString(channels []Channel) string {
	names := make([]string, len(channels))
	for i, c := range channels {
		names[i] = string(c)
	}
	return strings.Join(names, " ")
}
