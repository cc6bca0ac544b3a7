package psdformat

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
)

// EventKind distinguishes the two kinds of item a Reader yields.
type EventKind byte

const (
	EventLeaf EventKind = iota
	EventContainer
)

// Event is a single item pulled from a Reader: either a leaf block or a
// container boundary (containers are yielded for coarser-granularity
// callers such as the decomposer; diff-engine clients only care about
// leaves, which they get from the same stream).
type Event struct {
	Kind      EventKind
	Leaf      Leaf
	Container Container
}

// Reader performs a streaming descent over a PSD/PSB byte stream, yielding
// a lazy sequence of Events in file order. The underlying walk runs on its
// own goroutine and blocks on each send until the caller calls Next, so no
// leaf bytes are buffered ahead of what the caller has actually pulled.
type Reader struct {
	events  chan Event
	done    chan struct{}
	errCh   chan error
	dialect Dialect
	started bool
	closed  bool
	err     error
}

// NewReader begins a streaming parse of r on a background goroutine, which
// advances one event at a time as the caller pulls with Next.
func NewReader(r io.Reader) *Reader {
	rd := &Reader{
		events: make(chan Event),
		done:   make(chan struct{}),
		errCh:  make(chan error, 1),
	}
	w := &walker{
		r:  bufio.NewReaderSize(r, 64*1024),
		rd: rd,
	}
	go func() {
		defer close(rd.events)
		err := w.walk()
		rd.dialect = w.dialect
		rd.errCh <- err
	}()
	rd.started = true
	return rd
}

// Dialect returns the dialect detected from the header. It is recorded when
// the walk finishes, so it is only valid once Next has returned io.EOF;
// before that it reports DialectUnknown.
func (rd *Reader) Dialect() Dialect { return rd.dialect }

// Next returns the next Event in file order, or io.EOF when the stream is
// exhausted. A non-EOF, non-nil error means the underlying bytes are
// malformed or truncated; the Reader must not be used further.
func (rd *Reader) Next() (Event, error) {
	if rd.err != nil {
		return Event{}, rd.err
	}
	ev, ok := <-rd.events
	if !ok {
		// The walk goroutine has finished; pick up its terminal error.
		err := <-rd.errCh
		if err == nil {
			err = io.EOF
		}
		rd.err = err
		return Event{}, err
	}
	return ev, nil
}

// Close releases the walker goroutine if the caller stops pulling before
// reaching EOF. It is safe to call multiple times and after Next has
// already returned an error.
func (rd *Reader) Close() error {
	if rd.closed {
		return nil
	}
	rd.closed = true
	close(rd.done)
	// Drain so the goroutine's blocked send (if any) unblocks via its
	// done-channel select and the goroutine can exit.
	for range rd.events {
	}
	return nil
}

// errClosed is returned internally by a send that loses the race against
// Close; it is never surfaced past Reader.Next (Close supersedes it).
var errClosed = errors.New("psdformat: reader closed")

// walker holds the mutable state of one descent over a source stream.
type walker struct {
	r       *bufio.Reader
	rd      *Reader
	offset  int64
	dialect Dialect
}

func (w *walker) send(e Event) error {
	select {
	case w.rd.events <- e:
		return nil
	case <-w.rd.done:
		return errClosed
	}
}

func (w *walker) sendLeaf(path string, offset, length int64) error {
	return w.send(Event{Kind: EventLeaf, Leaf: Leaf{Path: path, Offset: offset, Length: length}})
}

func (w *walker) sendContainer(path string, offset, length int64) error {
	return w.send(Event{Kind: EventContainer, Container: Container{Path: path, Offset: offset, Length: length}})
}

// readBytes reads exactly n bytes from the source, advancing the running
// offset, and returns them in a freshly allocated slice (safe to retain).
func (w *walker) readBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(w.r, buf); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, ErrTruncatedInput
		}
		return nil, err
	}
	w.offset += int64(n)
	return buf, nil
}

// skip discards n bytes without allocating, advancing the running offset.
func (w *walker) skip(n int64) error {
	if n <= 0 {
		return nil
	}
	discarded, err := w.r.Discard(int(n))
	w.offset += int64(discarded)
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return ErrTruncatedInput
		}
		return err
	}
	return nil
}

// leaf reads n bytes and emits them as a leaf at path, returning the bytes.
func (w *walker) leaf(path string, n int) ([]byte, error) {
	off := w.offset
	buf, err := w.readBytes(n)
	if err != nil {
		return nil, err
	}
	if err := w.sendLeaf(path, off, int64(n)); err != nil {
		return nil, err
	}
	return buf, nil
}

// skipLeaf discards n bytes but still emits them as a (content-opaque)
// leaf, preserving the invariant that a container's children partition its
// length exactly, including padding.
func (w *walker) skipLeaf(path string, n int64) error {
	if n <= 0 {
		return nil
	}
	off := w.offset
	if err := w.skip(n); err != nil {
		return err
	}
	return w.sendLeaf(path, off, n)
}

// readU32Len reads a fixed 32-bit big-endian length field (used for
// sections whose length width never depends on dialect).
func (w *walker) readU32Len(path string) (uint32, error) {
	b, err := w.leaf(path, 4)
	if err != nil {
		return 0, err
	}
	return ByteOrder.Uint32(b), nil
}

// readU16 reads a fixed 16-bit big-endian value as a leaf.
func (w *walker) readU16(path string) (uint16, error) {
	b, err := w.leaf(path, 2)
	if err != nil {
		return 0, err
	}
	return ByteOrder.Uint16(b), nil
}

// readU8 reads a single byte as a leaf.
func (w *walker) readU8(path string) (byte, error) {
	b, err := w.leaf(path, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// readLw reads a length field whose width depends on dialect: 4 bytes for
// PSD, 8 bytes for PSB.
func (w *walker) readLw(path string) (uint64, error) {
	if w.dialect == DialectPSB {
		b, err := w.leaf(path, 8)
		if err != nil {
			return 0, err
		}
		return ByteOrder.Uint64(b), nil
	}
	b, err := w.leaf(path, 4)
	if err != nil {
		return 0, err
	}
	return uint64(ByteOrder.Uint32(b)), nil
}

func checkLen(n uint64) error {
	if n > MaxReasonableLength {
		return ErrLengthOverflow
	}
	return nil
}

// walk drives the full grammar: header, color-mode section, image
// resources, layer & mask resources, image data.
func (w *walker) walk() error {
	if err := w.parseHeader(); err != nil {
		return err
	}
	if err := w.parseColorModeSection(); err != nil {
		return err
	}
	if err := w.parseImageResources(); err != nil {
		return err
	}
	if err := w.parseLayerAndMaskSection(); err != nil {
		return err
	}
	return w.parseImageData()
}

// --- Header ---

func (w *walker) parseHeader() error {
	start := w.offset
	sig, err := w.leaf("header.signature", 4)
	if err != nil {
		return err
	}
	if !bytes.Equal(sig, fileSignature[:]) {
		return ErrBadSignature
	}
	verBuf, err := w.leaf("header.version", 2)
	if err != nil {
		return err
	}
	version := ByteOrder.Uint16(verBuf)
	dialect, ok := dialectForVersion(version)
	if !ok {
		return ErrBadVersion
	}
	w.dialect = dialect

	if _, err := w.leaf("header.reserved", headerReserved); err != nil {
		return err
	}
	if _, err := w.readU16("header.channels"); err != nil {
		return err
	}
	if _, err := w.readU32Len("header.height"); err != nil {
		return err
	}
	if _, err := w.readU32Len("header.width"); err != nil {
		return err
	}
	if _, err := w.readU16("header.depth"); err != nil {
		return err
	}
	if _, err := w.readU16("header.color_mode"); err != nil {
		return err
	}
	if w.offset-start != headerSize {
		return fmt.Errorf("psdformat: internal header size mismatch: %d", w.offset-start)
	}
	return w.sendContainer("header", start, headerSize)
}

// --- Color mode section ---

func (w *walker) parseColorModeSection() error {
	start := w.offset
	n, err := w.readU32Len("color_mode.length")
	if err != nil {
		return err
	}
	if err := checkLen(uint64(n)); err != nil {
		return err
	}
	if n > 0 {
		if err := w.skipLeaf("color_mode.data", int64(n)); err != nil {
			return err
		}
	}
	return w.sendContainer("color_mode", start, w.offset-start)
}

// --- Image resources ---

func (w *walker) parseImageResources() error {
	start := w.offset
	n, err := w.readU32Len("resources.length")
	if err != nil {
		return err
	}
	if err := checkLen(uint64(n)); err != nil {
		return err
	}
	end := w.offset + int64(n)
	i := 0
	for w.offset < end {
		if err := w.parseImageResourceRecord(i, end); err != nil {
			return err
		}
		i++
		if w.offset > end {
			return ErrLengthOverflow
		}
	}
	return w.sendContainer("resources", start, w.offset-start)
}

func (w *walker) parseImageResourceRecord(index int, sectionEnd int64) error {
	path := indexed("resources", "resource", index)
	recStart := w.offset

	sig, err := w.leaf(join(path, "signature"), resourceSignatureSize)
	if err != nil {
		return err
	}
	if !bytes.Equal(sig, resourceSignature[:]) {
		return ErrBadSignature
	}
	if _, err := w.readU16(join(path, "id")); err != nil {
		return err
	}
	nameLenByte, err := w.readU8(join(path, "name_length"))
	if err != nil {
		return err
	}
	nameLen := nameFieldLen(int(nameLenByte), 2)
	if w.offset+int64(nameLen) > sectionEnd {
		return ErrLengthOverflow
	}
	if nameLen > 0 {
		if _, err := w.leaf(join(path, "name"), nameLen); err != nil {
			return err
		}
	}
	dataLen, err := w.readU32Len(join(path, "data_length"))
	if err != nil {
		return err
	}
	padded := int64(padTo(int(dataLen), 2))
	if w.offset+padded > sectionEnd {
		return ErrLengthOverflow
	}
	if padded > 0 {
		if _, err := w.leaf(join(path, "data"), int(padded)); err != nil {
			return err
		}
	}
	return w.sendContainer(path, recStart, w.offset-recStart)
}

// --- Layer & mask resources ---

func (w *walker) parseLayerAndMaskSection() error {
	start := w.offset
	n, err := w.readLw("layer_mask.length")
	if err != nil {
		return err
	}
	if err := checkLen(n); err != nil {
		return err
	}
	end := w.offset + int64(n)

	if err := w.parseLayersInfo(end); err != nil {
		return err
	}
	if err := w.parseGlobalMask(end); err != nil {
		return err
	}
	if w.offset < end {
		if err := w.skipLeaf("layer_mask.additional_layer_information", end-w.offset); err != nil {
			return err
		}
	}
	return w.sendContainer("layer_mask", start, w.offset-start)
}

func (w *walker) parseLayersInfo(sectionEnd int64) error {
	start := w.offset
	n, err := w.readLw("layer_mask.layers_info.length")
	if err != nil {
		return err
	}
	if err := checkLen(n); err != nil {
		return err
	}
	if w.offset+int64(n) > sectionEnd {
		return ErrLengthOverflow
	}
	innerEnd := w.offset + int64(n)

	if n == 0 {
		return w.sendContainer("layer_mask.layers_info", start, w.offset-start)
	}

	countBuf, err := w.leaf("layer_mask.layers_info.layer_count", layerCountSize)
	if err != nil {
		return err
	}
	rawCount := int16(ByteOrder.Uint16(countBuf))
	count := int(rawCount)
	if count < 0 {
		count = -count
	}

	layers := make([]layerRecord, count)
	for i := 0; i < count; i++ {
		lr, err := w.parseLayerRecord(i, innerEnd)
		if err != nil {
			return err
		}
		layers[i] = lr
	}
	for i := 0; i < count; i++ {
		if err := w.parseChannelData(i, layers[i], innerEnd); err != nil {
			return err
		}
	}
	if w.offset < innerEnd {
		if err := w.skipLeaf("layer_mask.layers_info.padding", innerEnd-w.offset); err != nil {
			return err
		}
	}
	return w.sendContainer("layer_mask.layers_info", start, w.offset-start)
}

// layerRecord holds just enough of a parsed layer record to drive channel
// data reading afterward (channel ids and lengths).
type layerRecord struct {
	channels []channelDescriptor
}

type channelDescriptor struct {
	id     int16
	length int64
}

func (w *walker) parseLayerRecord(index int, sectionEnd int64) (layerRecord, error) {
	path := indexed("layer_mask.layers_info", "layer", index)
	recStart := w.offset

	if _, err := w.leaf(join(path, "rect"), layerRectSize); err != nil {
		return layerRecord{}, err
	}
	chCountBuf, err := w.leaf(join(path, "channel_count"), layerChannelCount)
	if err != nil {
		return layerRecord{}, err
	}
	chCount := int(ByteOrder.Uint16(chCountBuf))

	channels := make([]channelDescriptor, chCount)
	for i := 0; i < chCount; i++ {
		cp := indexed(path, "channel_info", i)
		idBuf, err := w.leaf(join(cp, "id"), channelIDSize)
		if err != nil {
			return layerRecord{}, err
		}
		length, err := w.readLw(join(cp, "length"))
		if err != nil {
			return layerRecord{}, err
		}
		channels[i] = channelDescriptor{id: int16(ByteOrder.Uint16(idBuf)), length: int64(length)}
	}

	if _, err := w.leaf(join(path, "blend_signature"), blendSignatureSize); err != nil {
		return layerRecord{}, err
	}
	if _, err := w.leaf(join(path, "blend_key"), blendKeySize); err != nil {
		return layerRecord{}, err
	}
	if _, err := w.leaf(join(path, "opacity_clipping_flags_filler"), layerFlagsFixedSize); err != nil {
		return layerRecord{}, err
	}

	extraLen, err := w.readU32Len(join(path, "extra_data_length"))
	if err != nil {
		return layerRecord{}, err
	}
	if w.offset+int64(extraLen) > sectionEnd {
		return layerRecord{}, ErrLengthOverflow
	}
	if err := w.parseLayerExtraData(path, int64(extraLen)); err != nil {
		return layerRecord{}, err
	}

	if err := w.sendContainer(path, recStart, w.offset-recStart); err != nil {
		return layerRecord{}, err
	}
	return layerRecord{channels: channels}, nil
}

func (w *walker) parseLayerExtraData(layerPath string, extraLen int64) error {
	path := join(layerPath, "extra_data")
	start := w.offset
	end := start + extraLen

	maskLen, err := w.readU32Len(join(path, "mask_data_length"))
	if err != nil {
		return err
	}
	if w.offset+int64(maskLen) > end {
		return ErrLengthOverflow
	}
	if maskLen > 0 {
		if _, err := w.leaf(join(path, "mask_data"), int(maskLen)); err != nil {
			return err
		}
	}

	blendLen, err := w.readU32Len(join(path, "blending_ranges_length"))
	if err != nil {
		return err
	}
	if w.offset+int64(blendLen) > end {
		return ErrLengthOverflow
	}
	if blendLen > 0 {
		if _, err := w.leaf(join(path, "blending_ranges"), int(blendLen)); err != nil {
			return err
		}
	}

	nameLenByte, err := w.readU8(join(path, "name_length"))
	if err != nil {
		return err
	}
	nameLen := nameFieldLen(int(nameLenByte), 4)
	if w.offset+int64(nameLen) > end {
		return ErrLengthOverflow
	}
	if nameLen > 0 {
		if _, err := w.leaf(join(path, "name"), nameLen); err != nil {
			return err
		}
	}

	if w.offset < end {
		if err := w.skipLeaf(join(path, "additional_data"), end-w.offset); err != nil {
			return err
		}
	}
	return w.sendContainer(path, start, w.offset-start)
}

func (w *walker) parseChannelData(index int, lr layerRecord, sectionEnd int64) error {
	layerPath := indexed("layer_mask.layers_info", "layer", index)
	for ci, ch := range lr.channels {
		path := indexed(layerPath, "channel", ci)
		start := w.offset
		if ch.length < compressionMethodSize {
			return ErrLengthOverflow
		}
		if w.offset+ch.length > sectionEnd {
			return ErrLengthOverflow
		}
		if _, err := w.readU16(join(path, "compression_method")); err != nil {
			return err
		}
		payloadLen := ch.length - compressionMethodSize
		if payloadLen > 0 {
			if err := w.skipLeaf(join(path, "data"), payloadLen); err != nil {
				return err
			}
		}
		if err := w.sendContainer(path, start, w.offset-start); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) parseGlobalMask(sectionEnd int64) error {
	start := w.offset
	if w.offset+4 > sectionEnd {
		// No room left for a global mask length field; treat as absent.
		return nil
	}
	n, err := w.readU32Len("layer_mask.global_mask.length")
	if err != nil {
		return err
	}
	if w.offset+int64(n) > sectionEnd {
		return ErrLengthOverflow
	}
	if n > 0 {
		if err := w.skipLeaf("layer_mask.global_mask.data", int64(n)); err != nil {
			return err
		}
	}
	return w.sendContainer("layer_mask.global_mask", start, w.offset-start)
}

// --- Image data ---

func (w *walker) parseImageData() error {
	start := w.offset
	if _, err := w.readU16("image_data.compression_method"); err != nil {
		return err
	}
	// Remainder of the stream, to EOF: read in chunks so huge image data
	// is never buffered, only counted.
	var total int64
	buf := make([]byte, 1<<20)
	for {
		n, err := w.r.Read(buf)
		if n > 0 {
			total += int64(n)
			w.offset += int64(n)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
	}
	if total > 0 {
		if err := w.sendLeaf("image_data.data", start+2, total); err != nil {
			return err
		}
	}
	return w.sendContainer("image_data", start, w.offset-start)
}
