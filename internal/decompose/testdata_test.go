package decompose

import "encoding/binary"

// psdBuilder assembles a well-formed minimal PSD byte string with one
// image resource record, one layer with one channel, and a trailing
// image-data payload, so chunker.go's significant-container matching has
// a real example of each unit kind to exercise.
type psdBuilder struct {
	buf []byte
}

func (b *psdBuilder) put8(v byte)    { b.buf = append(b.buf, v) }
func (b *psdBuilder) put16(v uint16) { var a [2]byte; binary.BigEndian.PutUint16(a[:], v); b.buf = append(b.buf, a[:]...) }
func (b *psdBuilder) put32(v uint32) { var a [4]byte; binary.BigEndian.PutUint32(a[:], v); b.buf = append(b.buf, a[:]...) }
func (b *psdBuilder) raw(p []byte)   { b.buf = append(b.buf, p...) }
func (b *psdBuilder) zeros(n int)    { b.buf = append(b.buf, make([]byte, n)...) }

// buildPSD returns a PSD whose image resource data is resourceData, whose
// single layer's single channel payload is channelData, and whose
// trailing image data is imageData.
func buildPSD(resourceData, channelData, imageData []byte) []byte {
	b := &psdBuilder{}

	// --- header ---
	b.raw([]byte("8BPS"))
	b.put16(1) // version: PSD
	b.zeros(6)
	b.put16(1) // channels
	b.put32(1) // height
	b.put32(1) // width
	b.put16(8) // depth
	b.put16(3) // color_mode

	// --- color mode section ---
	b.put32(0)

	// --- image resources ---
	var rec psdBuilder
	rec.raw([]byte("8BIM"))
	rec.put16(1000) // id
	rec.put8(0)     // name_length: empty name, padded to 2 -> 1 byte total
	rec.zeros(1)
	rec.put32(uint32(len(resourceData)))
	rec.raw(resourceData)
	if len(resourceData)%2 != 0 {
		rec.put8(0)
	}
	b.put32(uint32(len(rec.buf)))
	b.raw(rec.buf)

	// --- layer & mask section ---
	var layerRec psdBuilder
	layerRec.zeros(16) // rect
	layerRec.put16(1)  // channel_count
	layerRec.put16(0)  // channel id
	layerRec.put32(uint32(compressionMethodWidth + len(channelData)))
	layerRec.raw([]byte("8BIM")) // blend signature
	layerRec.raw([]byte("norm")) // blend key
	layerRec.zeros(4)            // opacity/clipping/flags/filler

	var extra psdBuilder
	extra.put32(0) // mask data length
	extra.put32(0) // blending ranges length
	extra.put8(0)  // name length byte: padded to 4 -> 3 bytes total
	extra.zeros(3)
	layerRec.put32(uint32(len(extra.buf)))
	layerRec.raw(extra.buf)

	var layersInfo psdBuilder
	layersInfo.put16(1) // layer_count
	layersInfo.raw(layerRec.buf)
	layersInfo.put16(0) // channel compression method
	layersInfo.raw(channelData)

	var layerMask psdBuilder
	layerMask.put32(uint32(len(layersInfo.buf)))
	layerMask.raw(layersInfo.buf)
	layerMask.put32(0) // global mask length

	b.put32(uint32(len(layerMask.buf)))
	b.raw(layerMask.buf)

	// --- image data ---
	b.put16(0) // compression method
	b.raw(imageData)

	return b.buf
}

const compressionMethodWidth = 2
