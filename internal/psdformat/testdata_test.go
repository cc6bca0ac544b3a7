package psdformat

import "encoding/binary"

// buildMinimalPSD constructs the smallest well-formed PSD/PSB byte string:
// header, empty color-mode section, empty image resources, empty layer &
// mask section (layer_count == 0), and a trailing image-data section whose
// pixel payload is imageData.
func buildMinimalPSD(psb bool, imageData []byte) []byte {
	var buf []byte
	put16 := func(v uint16) { buf = append(buf, byte(v>>8), byte(v)) }
	put32 := func(v uint32) {
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], v)
		buf = append(buf, b[:]...)
	}
	put64 := func(v uint64) {
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], v)
		buf = append(buf, b[:]...)
	}

	// header
	buf = append(buf, '8', 'B', 'P', 'S')
	if psb {
		put16(2)
	} else {
		put16(1)
	}
	buf = append(buf, make([]byte, 6)...) // reserved
	put16(1)                              // channels
	put32(1)                               // height
	put32(1)                               // width
	put16(8)                               // depth
	put16(3)                               // color_mode (RGB)

	// color mode section: empty
	put32(0)

	// image resources: empty
	put32(0)

	// layer & mask section
	if psb {
		lmStart := len(buf)
		put64(0) // placeholder length, patched below
		bodyStart := len(buf)
		put64(0) // layers_info length == 0
		put32(0) // global mask length == 0
		lmLen := uint64(len(buf) - bodyStart)
		binary.BigEndian.PutUint64(buf[lmStart:lmStart+8], lmLen)
	} else {
		lmStart := len(buf)
		put32(0)
		bodyStart := len(buf)
		put32(0) // layers_info length == 0
		put32(0) // global mask length == 0
		lmLen := uint32(len(buf) - bodyStart)
		binary.BigEndian.PutUint32(buf[lmStart:lmStart+4], lmLen)
	}

	// image data
	put16(0) // compression: raw
	buf = append(buf, imageData...)

	return buf
}
