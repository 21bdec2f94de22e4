package encode

import "encoding/binary"

// Fixed huge sizes used in place of a true (unknowable, since the stream is
// open-ended) data size — see spec.md §4.2 and §8 E1/E2, and
// original_source's enums.rs StreamSize variants. Two sizes exist per word
// width because the embedded size depends on the chosen framing mode: a
// chunked response (the renderer reads Transfer-Encoding framing, not this
// field) gets the "plain huge" 0x7FFFFFFF/0x7FFFFFFFFFFFFFFF value, while a
// fixed-Content-Length response gets MAX-1. For WAV that equals the
// advertised Content-Length (u32::MAX-1); the server advertises the same
// u32 value for RF64, whose ds64 sizes are u64::MAX-1.
const (
	u32ChunkedSize uint32 = 0x7FFFFFFF
	u32FixedSize   uint32 = 0xFFFFFFFE
	u64ChunkedSize uint64 = 0x7FFFFFFFFFFFFFFF
	u64FixedSize   uint64 = 0xFFFFFFFFFFFFFFFE
)

func wavRiffSize(chunked bool) uint32 {
	if chunked {
		return u32ChunkedSize
	}
	return u32FixedSize
}

func rf64DataSize(chunked bool) uint64 {
	if chunked {
		return u64ChunkedSize
	}
	return u64FixedSize
}

// WAVHeader builds the 44-byte RIFF/WAVE prelude spec.md §8 E1/E2 pins byte
// for byte: a RIFF header with a deliberately huge data size (0x7FFFFFFF
// when the response is chunked, u32::MAX-1 when Content-Length is fixed,
// per spec.md §4.2/§8 property 4), a "fmt " chunk (PCM, 2 channels,
// sampleRateHz, bitsPerSample), and a "data" chunk header with the same
// size. The body following this header is little-endian PCM
// (LPCM16LE/LPCM24LE), not the big-endian streaming framing used for the
// raw LPCM format.
func WAVHeader(sampleRateHz, bitsPerSample int, chunked bool) []byte {
	const channels = 2
	byteRate := sampleRateHz * channels * (bitsPerSample / 8)
	blockAlign := channels * (bitsPerSample / 8)
	size := wavRiffSize(chunked)

	h := make([]byte, 44)
	copy(h[0:4], "RIFF")
	binary.LittleEndian.PutUint32(h[4:8], size)
	copy(h[8:12], "WAVE")
	copy(h[12:16], "fmt ")
	binary.LittleEndian.PutUint32(h[16:20], 16) // fmt chunk size
	binary.LittleEndian.PutUint16(h[20:22], 1)  // PCM
	binary.LittleEndian.PutUint16(h[22:24], channels)
	binary.LittleEndian.PutUint32(h[24:28], uint32(sampleRateHz))
	binary.LittleEndian.PutUint32(h[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(h[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(h[34:36], uint16(bitsPerSample))
	copy(h[36:40], "data")
	binary.LittleEndian.PutUint32(h[40:44], size)
	return h
}

// RF64Header builds the RF64/ds64 prelude that legalizes 64-bit sizes for
// renderers that accept RF64. Layout: "RF64" + 0xFFFFFFFF placeholder size,
// "WAVE", a "ds64" chunk carrying the real 64-bit RIFF and data sizes (the
// chunked-vs-fixed huge value chosen the same way as WAVHeader's, per
// spec.md §8 property 4's "chunk sizes match the chosen StreamSize mode"),
// then a "fmt " chunk laid out as in WAVHeader, then the "data" chunk id
// with no size field after it (the sizes live only in ds64). 76 bytes
// total.
func RF64Header(sampleRateHz, bitsPerSample int, chunked bool) []byte {
	const channels = 2
	byteRate := sampleRateHz * channels * (bitsPerSample / 8)
	blockAlign := channels * (bitsPerSample / 8)
	size := rf64DataSize(chunked)

	h := make([]byte, 76)
	copy(h[0:4], "RF64")
	binary.LittleEndian.PutUint32(h[4:8], 0xFFFFFFFF)
	copy(h[8:12], "WAVE")

	copy(h[12:16], "ds64")
	binary.LittleEndian.PutUint32(h[16:20], 28) // ds64 chunk size
	binary.LittleEndian.PutUint64(h[20:28], size)
	binary.LittleEndian.PutUint64(h[28:36], size)
	binary.LittleEndian.PutUint64(h[36:44], 0) // sample count, unknown for a live stream
	binary.LittleEndian.PutUint32(h[44:48], 0) // table length, no table entries

	copy(h[48:52], "fmt ")
	binary.LittleEndian.PutUint32(h[52:56], 16)
	binary.LittleEndian.PutUint16(h[56:58], 1)
	binary.LittleEndian.PutUint16(h[58:60], channels)
	binary.LittleEndian.PutUint32(h[60:64], uint32(sampleRateHz))
	binary.LittleEndian.PutUint32(h[64:68], uint32(byteRate))
	binary.LittleEndian.PutUint16(h[68:70], uint16(blockAlign))
	binary.LittleEndian.PutUint16(h[70:72], uint16(bitsPerSample))

	copy(h[72:76], "data")
	return h
}
