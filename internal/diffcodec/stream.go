package diffcodec

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
)

// Magic is the 8-byte ASCII prefix of every PSDDIFF1 stream.
var Magic = [8]byte{'P', 'S', 'D', 'D', 'I', 'F', 'F', '1'}

// Version is the only wire version this package understands.
const Version uint16 = 1

// ByteOrder is the integer encoding used throughout PSDDIFF1.
var ByteOrder = binary.BigEndian

// Errors returned while reading a PSDDIFF1 stream.
var (
	ErrMagicMismatch   = errors.New("diffcodec: magic mismatch")
	ErrVersionMismatch = errors.New("diffcodec: version mismatch")
	ErrUnknownAction   = errors.New("diffcodec: unknown action code")
	ErrTruncated       = errors.New("diffcodec: truncated diff stream")
)

// Writer serializes an Action stream into the PSDDIFF1 wire format. The
// header (magic + version) is written lazily, on the first Write or on an
// explicit Flush; a Writer given no actions produces a well-formed
// (header-only) stream only once Flush is called.
type Writer struct {
	w           io.Writer
	wroteHeader bool
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (dw *Writer) writeHeader() error {
	if dw.wroteHeader {
		return nil
	}
	var hdr [10]byte
	copy(hdr[:8], Magic[:])
	ByteOrder.PutUint16(hdr[8:10], Version)
	if _, err := dw.w.Write(hdr[:]); err != nil {
		return err
	}
	dw.wroteHeader = true
	return nil
}

// Flush ensures the header has been written even if no actions follow
// (an empty source produces a header-only, action-less diff).
func (dw *Writer) Flush() error {
	return dw.writeHeader()
}

// Write serializes one action.
func (dw *Writer) Write(a Action) error {
	if err := dw.writeHeader(); err != nil {
		return err
	}
	switch a.Kind {
	case Skip:
		return dw.writeLen(byte(Skip), a.Len)
	case Remove:
		return dw.writeLen(byte(Remove), a.Len)
	case ReplaceEqual:
		return dw.writeLenData(byte(ReplaceEqual), a.Len, a.Data)
	case Add:
		return dw.writeLenData(byte(Add), uint32(len(a.Data)), a.Data)
	case Replace:
		var hdr [9]byte
		hdr[0] = byte(Replace)
		ByteOrder.PutUint32(hdr[1:5], a.RemoveLen)
		ByteOrder.PutUint32(hdr[5:9], uint32(len(a.Data)))
		if _, err := dw.w.Write(hdr[:]); err != nil {
			return err
		}
		_, err := dw.w.Write(a.Data)
		return err
	default:
		return ErrUnknownAction
	}
}

func (dw *Writer) writeLen(code byte, n uint32) error {
	var hdr [5]byte
	hdr[0] = code
	ByteOrder.PutUint32(hdr[1:5], n)
	_, err := dw.w.Write(hdr[:])
	return err
}

func (dw *Writer) writeLenData(code byte, n uint32, data []byte) error {
	var hdr [5]byte
	hdr[0] = code
	ByteOrder.PutUint32(hdr[1:5], n)
	if _, err := dw.w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := dw.w.Write(data)
	return err
}

// Reader deserializes a PSDDIFF1 stream into an Action sequence.
type Reader struct {
	r            *bufio.Reader
	readerHeader bool
}

// NewReader wraps r. The magic and version are validated on the first
// call to Next, not at construction, so construction never fails on I/O.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

func (dr *Reader) readHeader() error {
	if dr.readerHeader {
		return nil
	}
	var hdr [10]byte
	if _, err := io.ReadFull(dr.r, hdr[:]); err != nil {
		return wrapTruncated(err)
	}
	var magic [8]byte
	copy(magic[:], hdr[:8])
	if magic != Magic {
		return ErrMagicMismatch
	}
	if ByteOrder.Uint16(hdr[8:10]) != Version {
		return ErrVersionMismatch
	}
	dr.readerHeader = true
	return nil
}

// Next returns the next Action, or io.EOF once the stream is exhausted.
func (dr *Reader) Next() (Action, error) {
	if err := dr.readHeader(); err != nil {
		return Action{}, err
	}
	codeByte, err := dr.r.ReadByte()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Action{}, io.EOF
		}
		return Action{}, wrapTruncated(err)
	}
	switch Kind(codeByte) {
	case Skip:
		n, err := dr.readU32()
		if err != nil {
			return Action{}, err
		}
		return Action{Kind: Skip, Len: n}, nil
	case Remove:
		n, err := dr.readU32()
		if err != nil {
			return Action{}, err
		}
		return Action{Kind: Remove, Len: n}, nil
	case Add:
		n, err := dr.readU32()
		if err != nil {
			return Action{}, err
		}
		data, err := dr.readData(n)
		if err != nil {
			return Action{}, err
		}
		return Action{Kind: Add, Data: data}, nil
	case ReplaceEqual:
		n, err := dr.readU32()
		if err != nil {
			return Action{}, err
		}
		data, err := dr.readData(n)
		if err != nil {
			return Action{}, err
		}
		return Action{Kind: ReplaceEqual, Len: n, Data: data}, nil
	case Replace:
		removeLen, err := dr.readU32()
		if err != nil {
			return Action{}, err
		}
		dataLen, err := dr.readU32()
		if err != nil {
			return Action{}, err
		}
		data, err := dr.readData(dataLen)
		if err != nil {
			return Action{}, err
		}
		return Action{Kind: Replace, RemoveLen: removeLen, Data: data}, nil
	default:
		return Action{}, ErrUnknownAction
	}
}

func (dr *Reader) readU32() (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(dr.r, b[:]); err != nil {
		return 0, wrapTruncated(err)
	}
	return ByteOrder.Uint32(b[:]), nil
}

func (dr *Reader) readData(n uint32) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(dr.r, buf); err != nil {
		return nil, wrapTruncated(err)
	}
	return buf, nil
}

func wrapTruncated(err error) error {
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return ErrTruncated
	}
	return err
}
