package diffengine

import "io"

// countingWriter discards bytes but records how many were written.
type countingWriter struct{ n uint64 }

func (c *countingWriter) Write(p []byte) (int, error) {
	c.n += uint64(len(p))
	return len(p), nil
}

// Measure runs the same lockstep comparison as Create but only reports the
// byte length the resulting PSDDIFF1 stream would occupy, without
// allocating or retaining any of it.
func Measure(a io.ReaderAt, aSize int64, b io.ReaderAt, bSize int64) (uint64, error) {
	var cw countingWriter
	if err := Create(a, aSize, b, bSize, &cw); err != nil {
		return 0, err
	}
	return cw.n, nil
}
