package diffengine

import (
	"io"

	"github.com/deepteams/psddiff/internal/diffcodec"
)

// cursor exposes a diff stream's contribution to the intermediate stream
// that sits between a combine's L and R halves. A Skip contributes bytes
// copied verbatim from A; Add/Replace/ReplaceEqual contribute their
// literal payload.
type cursor struct {
	r         *diffcodec.Reader
	kind      diffcodec.Kind
	remaining uint32
	literal   []byte // unread tail of the current action's literal payload, if any
	done      bool
}

// fillR advances to the next R action. Every R action except Add consumes
// some number of intermediate bytes (Remove consumes them without
// producing any); for an Add, remaining is its payload length, which
// combinePair emits directly without consulting L.
func (c *cursor) fillR() error {
	if c.remaining > 0 || c.done {
		return nil
	}
	a, err := c.r.Next()
	if err != nil {
		if isEOF(err) {
			c.done = true
			return nil
		}
		return err
	}
	c.kind = a.Kind
	switch a.Kind {
	case diffcodec.Skip, diffcodec.Remove:
		c.remaining = a.Len
		c.literal = nil
	case diffcodec.Add:
		c.remaining = uint32(len(a.Data))
		c.literal = a.Data
	case diffcodec.Replace, diffcodec.ReplaceEqual:
		c.remaining = a.SourceConsumed()
		c.literal = a.Data
	}
	return nil
}

// fillL advances to the next L action that actually contributes bytes to
// the intermediate stream. L's Removes discard A bytes without ever
// producing an intermediate byte, so they never interact with R at all;
// fillL passes each one straight through to the combined output (merged
// with whatever Remove run is already pending) and keeps scanning. The A
// bytes consumed by an L Replace/ReplaceEqual are passed through the same
// way, as a Remove, since only its literal payload reaches the
// intermediate stream.
func (l *cursor) fillL(emitter *actionEmitter) error {
	for l.remaining == 0 && !l.done {
		a, err := l.r.Next()
		if err != nil {
			if isEOF(err) {
				l.done = true
				return nil
			}
			return err
		}
		if a.Kind == diffcodec.Remove {
			if err := emitter.startRemove(a.Len); err != nil {
				return err
			}
			continue
		}
		l.kind = a.Kind
		switch a.Kind {
		case diffcodec.Skip:
			l.remaining = a.Len
			l.literal = nil
		case diffcodec.Add:
			l.remaining = uint32(len(a.Data))
			l.literal = a.Data
		case diffcodec.Replace, diffcodec.ReplaceEqual:
			if n := a.SourceConsumed(); n > 0 {
				if err := emitter.startRemove(n); err != nil {
					return err
				}
			}
			// l.remaining tracks bytes owed to the intermediate stream
			// (B), not bytes consumed from A, so this is len(a.Data),
			// not a.SourceConsumed() (RemoveLen) as in fillR.
			l.remaining = uint32(len(a.Data))
			l.literal = a.Data
		}
	}
	return nil
}

// take consumes up to n bytes from the current span, returning the actual
// amount taken and the literal bytes consumed, if any.
func (c *cursor) take(n uint32) (taken uint32, lit []byte) {
	taken = n
	if taken > c.remaining {
		taken = c.remaining
	}
	if c.literal != nil {
		litTaken := taken
		if litTaken > uint32(len(c.literal)) {
			litTaken = uint32(len(c.literal))
		}
		lit = c.literal[:litTaken]
		c.literal = c.literal[litTaken:]
	}
	c.remaining -= taken
	return taken, lit
}

func (c *cursor) isLiteral() bool {
	return c.kind == diffcodec.Add || c.kind == diffcodec.Replace || c.kind == diffcodec.ReplaceEqual
}

// Combine folds two or more diff streams, applied in order, into a single
// equivalent diff stream. The n-ary combine is a left-associative fold of
// pairwise combines, so order matters.
func Combine(diffs []io.Reader, out io.Writer) error {
	if len(diffs) == 0 {
		return diffcodec.NewWriter(out).Flush()
	}
	if len(diffs) == 1 {
		return copyStream(diffs[0], out)
	}
	acc := diffs[0]
	for i := 1; i < len(diffs); i++ {
		var buf pipeBuffer
		if err := combinePair(acc, diffs[i], &buf); err != nil {
			return err
		}
		acc = &buf
	}
	return copyStream(acc, out)
}

func copyStream(r io.Reader, out io.Writer) error {
	_, err := io.Copy(out, r)
	return err
}

// pipeBuffer is an in-memory byte buffer satisfying both io.Reader and
// io.Writer, used to chain pairwise combines: the n-ary combine is a fold
// over however many diffs the caller supplies, not expected to run over
// unbounded chains, so buffering each intermediate diff stream is fine.
type pipeBuffer struct {
	data []byte
	pos  int
}

func (b *pipeBuffer) Write(p []byte) (int, error) {
	b.data = append(b.data, p...)
	return len(p), nil
}

func (b *pipeBuffer) Read(p []byte) (int, error) {
	if b.pos >= len(b.data) {
		return 0, io.EOF
	}
	n := copy(p, b.data[b.pos:])
	b.pos += n
	return n, nil
}

// combinePair implements the pairwise transition table: L's actions
// describe how the intermediate stream is sourced from A, R's describe
// how the intermediate stream is transformed into the final output.
func combinePair(lr, rr io.Reader, out io.Writer) error {
	l := &cursor{r: diffcodec.NewReader(lr)}
	r := &cursor{r: diffcodec.NewReader(rr)}
	dw := diffcodec.NewWriter(out)
	emitter := &actionEmitter{w: dw}

	for {
		if r.remaining == 0 && len(r.literal) > 0 {
			// An R Replace whose payload is longer than the bytes it
			// consumes still owes the rest of its payload to the output.
			if err := emitter.startAdd(r.literal); err != nil {
				return err
			}
			r.literal = nil
		}
		if err := r.fillR(); err != nil {
			return err
		}
		if r.done {
			break
		}
		if r.kind == diffcodec.Add {
			_, lit := r.take(r.remaining)
			if err := emitter.startAdd(lit); err != nil {
				return err
			}
			continue
		}
		if err := l.fillL(emitter); err != nil {
			return err
		}
		if l.done {
			return ErrOverApplied
		}

		want := r.remaining
		if l.remaining < want {
			want = l.remaining
		}
		if want == 0 {
			continue
		}
		lWasLiteral := l.isLiteral()
		_, lLit := l.take(want)
		_, rLit := r.take(want)

		var err error
		switch {
		case lWasLiteral && r.kind == diffcodec.Remove:
			// Both sides cancel: the literal is discarded, nothing emitted.
		case lWasLiteral && r.kind == diffcodec.Skip:
			err = emitter.startAdd(lLit)
		case lWasLiteral:
			// r.kind is Replace or ReplaceEqual.
			err = emitter.startAdd(rLit)
		case r.kind == diffcodec.Skip:
			err = emitter.startSkip(want)
		case r.kind == diffcodec.Remove:
			err = emitter.startRemove(want)
		default:
			// r.kind is Replace or ReplaceEqual, l supplied bytes from A.
			err = emitter.startReplace(want, rLit)
		}
		if err != nil {
			return err
		}
	}
	// R is exhausted; any leftover L (including trailing Removes) must
	// still be accounted for, or L produced more of the intermediate
	// stream than R ever consumed.
	if err := l.fillL(emitter); err != nil {
		return err
	}
	if l.remaining > 0 {
		return ErrUnappliedTail
	}
	if err := emitter.flush(); err != nil {
		return err
	}
	return dw.Flush()
}
