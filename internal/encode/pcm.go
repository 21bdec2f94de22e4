// Package encode turns captured f32 frames into the wire formats renderers
// ask for: big-endian LPCM16/24, little-endian WAV/RF64-bodied PCM, and
// FLAC. All conversions are stateless per-call transforms except the FLAC
// bridge, which owns an encoder for the lifetime of a session.
package encode

// clampRound converts one f32 sample to a signed integer sample using
// clamp(x,-1,1) * maxPos, rounded half away from zero rather than
// truncated. Both signs scale by maxPos, so the result lies in
// [-maxPos, maxPos]: -1.0 maps to -maxPos, never to the type's minimum
// minVal. It mirrors original_source/src/utils/flacstream.rs's
// to_i32_sample, not i24.rs's formula, whose 24-bit range is not symmetric
// around zero (see DESIGN.md).
func clampRound(x float32, maxPos, minVal float64) int64 {
	s := float64(x)
	if s > 1 {
		s = 1
	} else if s < -1 {
		s = -1
	}
	if s >= 0 {
		return int64(s*maxPos + 0.5)
	}
	return int64(s*maxPos - 0.5)
}

const (
	int16MaxPos = 32767
	int16MinVal = -32768
	int24MaxPos = 8388607
	int24MinVal = -8388608
)

// LPCM16BE encodes interleaved f32 samples as big-endian signed 16-bit PCM,
// appending to dst and returning the grown slice.
func LPCM16BE(dst []byte, samples []float32) []byte {
	for _, x := range samples {
		v := clampRound(x, int16MaxPos, int16MinVal)
		dst = append(dst, byte(v>>8), byte(v))
	}
	return dst
}

// LPCM24BE encodes interleaved f32 samples as big-endian signed 24-bit PCM
// (three bytes per sample, MSB first), appending to dst.
func LPCM24BE(dst []byte, samples []float32) []byte {
	for _, x := range samples {
		v := clampRound(x, int24MaxPos, int24MinVal)
		dst = append(dst, byte(v>>16), byte(v>>8), byte(v))
	}
	return dst
}

// LPCM16LE encodes interleaved f32 samples as little-endian signed 16-bit
// PCM, the WAV-body convention used after the RIFF/ds64 prelude.
func LPCM16LE(dst []byte, samples []float32) []byte {
	for _, x := range samples {
		v := clampRound(x, int16MaxPos, int16MinVal)
		dst = append(dst, byte(v), byte(v>>8))
	}
	return dst
}

// LPCM24LE encodes interleaved f32 samples as little-endian signed 24-bit
// PCM (three bytes per sample, LSB first).
func LPCM24LE(dst []byte, samples []float32) []byte {
	for _, x := range samples {
		v := clampRound(x, int24MaxPos, int24MinVal)
		dst = append(dst, byte(v), byte(v>>8), byte(v>>16))
	}
	return dst
}

// ToInt32s converts interleaved f32 samples to the right-justified int32
// values github.com/drgolem/go-flac's ProcessInterleaved expects at the
// given bit depth (16 or 24).
func ToInt32s(dst []int32, samples []float32, bitsPerSample int) []int32 {
	maxPos, minVal := int24MaxPos, float64(int24MinVal)
	if bitsPerSample == 16 {
		maxPos, minVal = int16MaxPos, int16MinVal
	}
	for _, x := range samples {
		dst = append(dst, int32(clampRound(x, float64(maxPos), minVal)))
	}
	return dst
}
