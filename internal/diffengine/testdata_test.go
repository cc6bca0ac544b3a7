package diffengine

import "encoding/binary"

// buildPSD constructs a minimal well-formed PSD byte string (no layers, no
// image resources) whose trailing image-data leaf is imageData, for
// exercising Create/Apply/Combine without depending on psdformat's own
// (unexported) test fixtures.
func buildPSD(imageData []byte) []byte {
	var buf []byte
	put16 := func(v uint16) { buf = append(buf, byte(v>>8), byte(v)) }
	put32 := func(v uint32) {
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], v)
		buf = append(buf, b[:]...)
	}

	buf = append(buf, '8', 'B', 'P', 'S')
	put16(1) // version: PSD
	buf = append(buf, make([]byte, 6)...)
	put16(1)          // channels
	put32(1)          // height
	put32(1)          // width
	put16(8)          // depth
	put16(3)          // color_mode
	put32(0)          // color mode section: empty
	put32(0)          // image resources: empty
	put32(8)          // layer & mask section length
	put32(0)          // layers_info length == 0
	put32(0)          // global mask length == 0
	put16(0)          // image data compression
	buf = append(buf, imageData...)
	return buf
}
