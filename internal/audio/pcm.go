package audio

// TargetSampleRate is the capture-side rate for outgoing audio.
const TargetSampleRate = 16000

// Wire encodings accepted on the playback side.
const (
	EncodingPCM16 = "pcm16"
	EncodingULaw  = "ulaw"
)

// EncodePCM16 converts normalized float samples to 16-bit little-endian
// linear PCM. Samples are clamped to [-1, 1] and scaled asymmetrically
// (32767 positive, 32768 negative) so both rails are representable.
func EncodePCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		var v int16
		if s >= 0 {
			v = int16(s * 32767)
		} else {
			v = int16(s * 32768)
		}
		out[2*i] = byte(uint16(v))
		out[2*i+1] = byte(uint16(v) >> 8)
	}
	return out
}

// DecodePCM16 converts 16-bit little-endian linear PCM to normalized
// float samples. A trailing odd byte is ignored.
func DecodePCM16(data []byte) []float32 {
	n := len(data) / 2
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		v := int16(uint16(data[2*i]) | uint16(data[2*i+1])<<8)
		out[i] = float32(v) / 32768
	}
	return out
}

// ulawTable maps each μ-law code to its linear PCM value (ITU-T G.711).
var ulawTable = buildULawTable()

func buildULawTable() [256]int16 {
	var table [256]int16
	for i := 0; i < 256; i++ {
		b := ^byte(i)
		sign := b & 0x80
		exponent := (b >> 4) & 0x07
		mantissa := b & 0x0F
		magnitude := ((int32(mantissa) << 3) + 0x84) << exponent
		magnitude -= 0x84
		if sign != 0 {
			magnitude = -magnitude
		}
		table[i] = int16(magnitude)
	}
	return table
}

// DecodeULaw converts 8-bit μ-law bytes to normalized float samples.
func DecodeULaw(data []byte) []float32 {
	out := make([]float32, len(data))
	for i, b := range data {
		out[i] = float32(ulawTable[b]) / 32768
	}
	return out
}

// ULawToPCM16 returns the linear value of a single μ-law code.
func ULawToPCM16(b byte) int16 { return ulawTable[b] }

// EncodeULaw compands 16-bit little-endian linear PCM to 8-bit μ-law,
// used for the outbound telephony leg.
func EncodeULaw(pcm []byte) []byte {
	n := len(pcm) / 2
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		v := int16(uint16(pcm[2*i]) | uint16(pcm[2*i+1])<<8)
		out[i] = pcm16ToULaw(v)
	}
	return out
}

func pcm16ToULaw(sample int16) byte {
	const (
		bias = 0x84
		clip = 32635
	)
	sign := byte(0)
	s := int32(sample)
	if s < 0 {
		s = -s
		sign = 0x80
	}
	if s > clip {
		s = clip
	}
	s += bias
	exponent := 7
	for mask := int32(0x4000); exponent > 0 && s&mask == 0; mask >>= 1 {
		exponent--
	}
	mantissa := byte((s >> uint(exponent+3)) & 0x0F)
	return ^(sign | byte(exponent)<<4 | mantissa)
}
