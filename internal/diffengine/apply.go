package diffengine

import (
	"errors"
	"io"

	"github.com/deepteams/psddiff/internal/diffcodec"
)

// Errors specific to applying a diff to a source stream.
var (
	// ErrUnappliedTail means the diff ended before the source did.
	ErrUnappliedTail = errors.New("diffengine: unapplied tail: source has bytes the diff never consumed")
	// ErrOverApplied means the diff tried to consume more source bytes
	// than the source actually had.
	ErrOverApplied = errors.New("diffengine: over-applied: diff consumed past end of source")
)

// Apply reads one PSDDIFF1 stream from diff and applies it to source,
// writing the result to out. source is consumed sequentially; Apply never
// seeks it, so a plain io.Reader (not an io.ReaderAt) is sufficient.
func Apply(source io.Reader, diff io.Reader, out io.Writer) error {
	dr := diffcodec.NewReader(diff)
	for {
		a, err := dr.Next()
		if err != nil {
			if isEOF(err) {
				break
			}
			return err
		}
		if err := applyOne(a, source, out); err != nil {
			return err
		}
	}
	// The diff is exhausted; the source must be too.
	var probe [1]byte
	n, err := io.ReadFull(source, probe[:])
	if n > 0 {
		return ErrUnappliedTail
	}
	if err != nil && !isEOF(err) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return err
	}
	return nil
}

func applyOne(a diffcodec.Action, source io.Reader, out io.Writer) error {
	switch a.Kind {
	case diffcodec.Skip:
		return copySource(source, out, a.Len)
	case diffcodec.Remove:
		return discardSource(source, a.Len)
	case diffcodec.Add:
		_, err := out.Write(a.Data)
		return err
	case diffcodec.Replace, diffcodec.ReplaceEqual:
		if err := discardSource(source, a.SourceConsumed()); err != nil {
			return err
		}
		_, err := out.Write(a.Data)
		return err
	}
	return diffcodec.ErrUnknownAction
}

func copySource(source io.Reader, out io.Writer, n uint32) error {
	buf := getBuf(int(n))
	defer putBuf(buf)
	if _, err := io.ReadFull(source, buf); err != nil {
		return wrapSourceErr(err)
	}
	_, err := out.Write(buf)
	return err
}

func discardSource(source io.Reader, n uint32) error {
	if n == 0 {
		return nil
	}
	buf := getBuf(int(n))
	defer putBuf(buf)
	if _, err := io.ReadFull(source, buf); err != nil {
		return wrapSourceErr(err)
	}
	return nil
}

func wrapSourceErr(err error) error {
	if isEOF(err) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrOverApplied
	}
	return err
}
