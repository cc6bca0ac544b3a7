package psdformat

import "io"

// ReadRange fetches the bytes of a Leaf or Container from a separately
// held io.ReaderAt. The Reader itself never retains leaf payloads past the
// point it yields them; callers that need the bytes re-read them from the
// source at the reported offset, which is what keeps the streaming
// descent's memory bound proportional to one leaf at a time instead of the
// whole file.
func ReadRange(ra io.ReaderAt, offset, length int64) ([]byte, error) {
	buf := make([]byte, length)
	if _, err := ra.ReadAt(buf, offset); err != nil {
		return nil, err
	}
	return buf, nil
}
