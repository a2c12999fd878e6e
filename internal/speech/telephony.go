package speech

import (
	"bytes"
	"encoding/base64"
	"fmt"

	soxr "github.com/zaf/resample"

	"github.com/shreesha345/RudraOne-1/internal/audio"
)

// TelephonyRate is the narrowband rate spoken on the phone leg.
const TelephonyRate = 8000

// TelephonyChunkBytes is 100ms of 8kHz μ-law per outbound frame.
const TelephonyChunkBytes = 800

// Downsample48kTo8k converts 48kHz PCM16LE to 8kHz PCM16LE.
func Downsample48kTo8k(pcm []byte) ([]byte, error) {
	if len(pcm) < 2 {
		return nil, nil
	}
	var buf bytes.Buffer
	r, err := soxr.New(&buf, float64(OutputSampleRate), float64(TelephonyRate), 1, soxr.I16, soxr.HighQ)
	if err != nil {
		return nil, fmt.Errorf("create resampler: %w", err)
	}
	if _, err := r.Write(pcm[:len(pcm)-len(pcm)%2]); err != nil {
		r.Close()
		return nil, fmt.Errorf("resample write: %w", err)
	}
	if err := r.Close(); err != nil {
		return nil, fmt.Errorf("resample flush: %w", err)
	}
	return buf.Bytes(), nil
}

// ULawChunks compands 8kHz PCM16LE to μ-law and splits it into
// base64-encoded frames of at most chunkBytes μ-law bytes each.
func ULawChunks(pcm8k []byte, chunkBytes int) []string {
	if chunkBytes <= 0 {
		chunkBytes = TelephonyChunkBytes
	}
	ulaw := audio.EncodeULaw(pcm8k)
	var out []string
	for off := 0; off < len(ulaw); off += chunkBytes {
		end := off + chunkBytes
		if end > len(ulaw) {
			end = len(ulaw)
		}
		out = append(out, base64.StdEncoding.EncodeToString(ulaw[off:end]))
	}
	return out
}

// ToTelephony runs the full outbound conversion for synthesized speech.
func ToTelephony(pcm48k []byte) ([]string, error) {
	pcm8k, err := Downsample48kTo8k(pcm48k)
	if err != nil {
		return nil, err
	}
	return ULawChunks(pcm8k, TelephonyChunkBytes), nil
}
