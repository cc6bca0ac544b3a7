// Package decompose implements content-addressed chunk storage for PSD
// files: splitting a file into chunks along its block-tree boundaries,
// writing each unique chunk's bytes once into a shared pool, and
// reconstructing a file from its manifest of chunk hashes.
package decompose

import (
	"io"
	"strings"

	"github.com/deepteams/psddiff/internal/psdformat"
)

// Range is one chunk's byte extent within the source file.
type Range struct {
	Offset int64
	Length int64
}

// Plan walks r's block tree and returns the ordered list of chunk ranges
// that partition the file: each image-resource record, each per-layer
// record body, each channel-data payload, and the trailing image data are
// their own chunk; everything else (header, section-length wrappers,
// padding) is folded into the smallest number of literal chunks that fill
// the gaps between them. The split is a pure function of the file's
// structure, so two runs over the same bytes produce the same plan.
func Plan(r io.Reader) ([]Range, error) {
	rd := psdformat.NewReader(r)
	var ranges []Range
	var cursor int64
	for {
		ev, err := rd.Next()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		if ev.Kind != psdformat.EventContainer {
			continue
		}
		c := ev.Container
		if !isSignificant(c.Path) {
			continue
		}
		if c.Offset > cursor {
			ranges = append(ranges, Range{Offset: cursor, Length: c.Offset - cursor})
		}
		ranges = append(ranges, Range{Offset: c.Offset, Length: c.Length})
		cursor = c.End()
	}
	return ranges, nil
}

// isSignificant reports whether a container path names one of the units
// chunked individually: an image-resource record, a layer record body, a
// channel's payload, or the trailing image data. Everything else (the
// header, the color-mode and layer-mask wrapper overhead, padding) is left
// for Plan to fold into the surrounding literal gap.
func isSignificant(path string) bool {
	if path == "image_data" {
		return true
	}
	segs := strings.Split(path, ".")
	switch len(segs) {
	case 2:
		return segs[0] == "resources" && strings.HasPrefix(segs[1], "resource_{")
	case 3:
		return segs[0] == "layer_mask" && segs[1] == "layers_info" && strings.HasPrefix(segs[2], "layer_{")
	case 4:
		return segs[0] == "layer_mask" && segs[1] == "layers_info" &&
			strings.HasPrefix(segs[2], "layer_{") && strings.HasPrefix(segs[3], "channel_{")
	default:
		return false
	}
}
