package audio

import (
	"math"
	"testing"
)

func TestPCM16RoundTrip_WithinOneQuantizationStep(t *testing.T) {
	in := []float32{0, 0.5, -0.5, 0.25, -0.25, 0.999, -0.999, 1, -1}
	out := DecodePCM16(EncodePCM16(in))
	if len(out) != len(in) {
		t.Fatalf("length mismatch: got %d want %d", len(out), len(in))
	}
	const step = 1.0 / 32768
	for i := range in {
		if diff := math.Abs(float64(in[i] - out[i])); diff > step {
			t.Fatalf("sample %d: %f -> %f, error %f exceeds one step", i, in[i], out[i], diff)
		}
	}
}

func TestEncodePCM16_ClampsOutOfRange(t *testing.T) {
	b := EncodePCM16([]float32{2, -2})
	v0 := int16(uint16(b[0]) | uint16(b[1])<<8)
	v1 := int16(uint16(b[2]) | uint16(b[3])<<8)
	if v0 != 32767 {
		t.Fatalf("expected positive rail 32767, got %d", v0)
	}
	if v1 != -32768 {
		t.Fatalf("expected negative rail -32768, got %d", v1)
	}
}

func TestULawTable_StableAndSignCorrect(t *testing.T) {
	for i := 0; i < 256; i++ {
		b := byte(i)
		first := ULawToPCM16(b)
		second := ULawToPCM16(b)
		if first != second {
			t.Fatalf("code %#02x: decode not stable (%d vs %d)", b, first, second)
		}
		if b < 0x80 && first > 0 {
			t.Fatalf("code %#02x: negative code decoded positive (%d)", b, first)
		}
		if b >= 0x80 && first < 0 {
			t.Fatalf("code %#02x: positive code decoded negative (%d)", b, first)
		}
	}
}

func TestULawTable_MonotonicPerSign(t *testing.T) {
	// Positive codes: magnitude decreases as the code increases.
	for b := 0x80; b < 0xFF; b++ {
		if ULawToPCM16(byte(b)) <= ULawToPCM16(byte(b+1)) {
			t.Fatalf("positive segment not monotonic at %#02x", b)
		}
	}
	// Negative codes: value increases toward zero as the code increases.
	for b := 0x00; b < 0x7F; b++ {
		if ULawToPCM16(byte(b)) >= ULawToPCM16(byte(b+1)) {
			t.Fatalf("negative segment not monotonic at %#02x", b)
		}
	}
}

func TestULawEncodeDecode_ApproximatesInput(t *testing.T) {
	values := []int16{0, 100, -100, 1000, -1000, 8000, -8000, 30000, -30000}
	pcm := make([]byte, len(values)*2)
	for i, v := range values {
		pcm[2*i] = byte(uint16(v))
		pcm[2*i+1] = byte(uint16(v) >> 8)
	}
	decoded := DecodeULaw(EncodeULaw(pcm))
	for i, v := range values {
		want := float64(v) / 32768
		got := float64(decoded[i])
		// Companding error grows with magnitude; 3% of full scale is
		// generous for the largest segments.
		if math.Abs(got-want) > 0.03 {
			t.Fatalf("value %d: got %f want %f", v, got, want)
		}
		if v > 0 && got < 0 || v < 0 && got > 0 {
			t.Fatalf("value %d: sign flipped to %f", v, got)
		}
	}
}

func TestCapture_ChunksFixedFrames(t *testing.T) {
	var frames [][]byte
	c := NewCapture(4096, func(pcm []byte) { frames = append(frames, pcm) })

	c.Push(make([]float32, 5000))
	if len(frames) != 1 {
		t.Fatalf("expected 1 frame after 5000 samples, got %d", len(frames))
	}
	if len(frames[0]) != 4096*2 {
		t.Fatalf("expected 8192-byte frame, got %d", len(frames[0]))
	}

	c.Push(make([]float32, 3192))
	if len(frames) != 2 {
		t.Fatalf("expected 2 frames after second push, got %d", len(frames))
	}

	c.Flush()
	if len(frames) != 3 {
		t.Fatalf("expected flush to emit the remainder, got %d frames", len(frames))
	}
	if len(frames[2]) != (5000+3192-2*4096)*2 {
		t.Fatalf("unexpected remainder size %d", len(frames[2]))
	}
}

func TestFilterChain_Reproducible(t *testing.T) {
	in := make([]float32, 512)
	for i := range in {
		in[i] = float32(math.Sin(2 * math.Pi * 440 * float64(i) / 16000))
	}
	a := append([]float32(nil), in...)
	b := append([]float32(nil), in...)
	NewFilterChain(16000).Process(a)
	NewFilterChain(16000).Process(b)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("chain output differs at %d: %f vs %f", i, a[i], b[i])
		}
	}
}

func TestFilterChain_BlocksDC(t *testing.T) {
	in := make([]float32, 16000)
	for i := range in {
		in[i] = 0.5
	}
	out := NewFilterChain(16000).Process(in)
	tail := out[len(out)-100:]
	for _, s := range tail {
		if math.Abs(float64(s)) > 0.01 {
			t.Fatalf("expected DC to be rejected, got %f in tail", s)
		}
	}
}
