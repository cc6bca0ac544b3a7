package diffengine

import (
	"bytes"
	"io"

	"github.com/deepteams/psddiff/internal/diffcodec"
	"github.com/deepteams/psddiff/internal/psdformat"
)

// Create walks the block trees of a and b in lockstep and writes a
// PSDDIFF1 edit script to w describing how to turn a's bytes into b's.
func Create(a io.ReaderAt, aSize int64, b io.ReaderAt, bSize int64, w io.Writer) error {
	leavesA, err := leaves(psdformat.NewReader(io.NewSectionReader(a, 0, aSize)))
	if err != nil {
		return err
	}
	leavesB, err := leaves(psdformat.NewReader(io.NewSectionReader(b, 0, bSize)))
	if err != nil {
		return err
	}

	dw := diffcodec.NewWriter(w)
	emitter := &actionEmitter{w: dw}
	for _, o := range align(leavesA, leavesB) {
		if err := emitter.consume(o, a, b); err != nil {
			return err
		}
	}
	if err := emitter.flush(); err != nil {
		return err
	}
	return dw.Flush()
}

// actionEmitter accumulates structurally-adjacent ops of the same kind
// into a single coalesced Action before writing it, so that e.g. a run of
// a hundred unchanged layer channels becomes one Skip instead of a
// hundred. Only the bytes of the action currently being accumulated are
// held in memory; everything already flushed has been written out.
type actionEmitter struct {
	w      *diffcodec.Writer
	kind   diffcodec.Kind
	length uint32 // Skip/Remove length, or Replace's removeLen
	data   []byte // Add/Replace payload accumulated so far
	has    bool
}

func (e *actionEmitter) flush() error {
	if !e.has {
		return nil
	}
	var a diffcodec.Action
	switch e.kind {
	case diffcodec.Skip:
		a = diffcodec.NewSkip(e.length)
	case diffcodec.Remove:
		a = diffcodec.NewRemove(e.length)
	case diffcodec.Add:
		a = diffcodec.NewAdd(e.data)
	case diffcodec.Replace, diffcodec.ReplaceEqual:
		a = diffcodec.NewReplace(e.length, e.data)
	}
	e.has = false
	e.length = 0
	e.data = nil
	return e.w.Write(a)
}

func (e *actionEmitter) startSkip(n uint32) error {
	if e.has && e.kind == diffcodec.Skip {
		e.length += n
		return nil
	}
	if err := e.flush(); err != nil {
		return err
	}
	e.kind, e.length, e.has = diffcodec.Skip, n, true
	return nil
}

func (e *actionEmitter) startRemove(n uint32) error {
	if e.has && e.kind == diffcodec.Remove {
		e.length += n
		return nil
	}
	if err := e.flush(); err != nil {
		return err
	}
	e.kind, e.length, e.has = diffcodec.Remove, n, true
	return nil
}

func (e *actionEmitter) startAdd(data []byte) error {
	if e.has && e.kind == diffcodec.Add {
		e.data = append(e.data, data...)
		return nil
	}
	if err := e.flush(); err != nil {
		return err
	}
	e.kind, e.data, e.has = diffcodec.Add, append([]byte(nil), data...), true
	return nil
}

func (e *actionEmitter) startReplace(removeLen uint32, data []byte) error {
	if e.has && (e.kind == diffcodec.Replace || e.kind == diffcodec.ReplaceEqual) {
		e.length += removeLen
		e.data = append(e.data, data...)
		return nil
	}
	if err := e.flush(); err != nil {
		return err
	}
	e.kind, e.length, e.data, e.has = diffcodec.Replace, removeLen, append([]byte(nil), data...), true
	return nil
}

func (e *actionEmitter) consume(o op, a, b io.ReaderAt) error {
	switch o.kind {
	case opRemove:
		return e.startRemove(uint32(o.aLeaf.Length))
	case opAdd:
		data, err := readLeaf(b, o.bLeaf)
		if err != nil {
			return err
		}
		err = e.startAdd(data)
		putBuf(data)
		return err
	case opCompare:
		return e.consumeCompare(o, a, b)
	}
	return nil
}

func (e *actionEmitter) consumeCompare(o op, a, b io.ReaderAt) error {
	if o.aLeaf.Length != o.bLeaf.Length {
		data, err := readLeaf(b, o.bLeaf)
		if err != nil {
			return err
		}
		err = e.startReplace(uint32(o.aLeaf.Length), data)
		putBuf(data)
		return err
	}

	aData, err := readLeaf(a, o.aLeaf)
	if err != nil {
		return err
	}
	bData, err := readLeaf(b, o.bLeaf)
	if err != nil {
		putBuf(aData)
		return err
	}
	equal := bytes.Equal(aData, bData)
	var startErr error
	if equal {
		startErr = e.startSkip(uint32(o.aLeaf.Length))
	} else {
		startErr = e.startReplace(uint32(o.aLeaf.Length), bData)
	}
	putBuf(aData)
	putBuf(bData)
	return startErr
}

func readLeaf(ra io.ReaderAt, l psdformat.Leaf) ([]byte, error) {
	buf := getBuf(int(l.Length))
	if _, err := ra.ReadAt(buf, l.Offset); err != nil {
		putBuf(buf)
		return nil, err
	}
	return buf, nil
}
