package audio

import "math"

// biquad is a direct-form-I second-order section.
type biquad struct {
	b0, b1, b2, a1, a2 float64
	x1, x2, y1, y2     float64
}

func (f *biquad) process(s float64) float64 {
	y := f.b0*s + f.b1*f.x1 + f.b2*f.x2 - f.a1*f.y1 - f.a2*f.y2
	f.x2, f.x1 = f.x1, s
	f.y2, f.y1 = f.y1, y
	return y
}

// RBJ cookbook coefficient builders.

func newHighPass(sampleRate, freq, q float64) *biquad {
	w0 := 2 * math.Pi * freq / sampleRate
	alpha := math.Sin(w0) / (2 * q)
	cosW0 := math.Cos(w0)
	a0 := 1 + alpha
	return &biquad{
		b0: (1 + cosW0) / 2 / a0,
		b1: -(1 + cosW0) / a0,
		b2: (1 + cosW0) / 2 / a0,
		a1: -2 * cosW0 / a0,
		a2: (1 - alpha) / a0,
	}
}

func newLowPass(sampleRate, freq, q float64) *biquad {
	w0 := 2 * math.Pi * freq / sampleRate
	alpha := math.Sin(w0) / (2 * q)
	cosW0 := math.Cos(w0)
	a0 := 1 + alpha
	return &biquad{
		b0: (1 - cosW0) / 2 / a0,
		b1: (1 - cosW0) / a0,
		b2: (1 - cosW0) / 2 / a0,
		a1: -2 * cosW0 / a0,
		a2: (1 - alpha) / a0,
	}
}

func newPeaking(sampleRate, freq, q, gainDB float64) *biquad {
	a := math.Pow(10, gainDB/40)
	w0 := 2 * math.Pi * freq / sampleRate
	alpha := math.Sin(w0) / (2 * q)
	cosW0 := math.Cos(w0)
	a0 := 1 + alpha/a
	return &biquad{
		b0: (1 + alpha*a) / a0,
		b1: -2 * cosW0 / a0,
		b2: (1 - alpha*a) / a0,
		a1: -2 * cosW0 / a0,
		a2: (1 - alpha/a) / a0,
	}
}

// compressor is a conservative feed-forward dynamics compressor with an
// exponential envelope follower.
type compressor struct {
	thresholdDB float64
	ratio       float64
	attack      float64
	release     float64
	envelope    float64
}

func newCompressor(sampleRate, thresholdDB, ratio, attackMs, releaseMs float64) *compressor {
	return &compressor{
		thresholdDB: thresholdDB,
		ratio:       ratio,
		attack:      math.Exp(-1 / (sampleRate * attackMs / 1000)),
		release:     math.Exp(-1 / (sampleRate * releaseMs / 1000)),
	}
}

func (c *compressor) process(s float64) float64 {
	level := math.Abs(s)
	if level > c.envelope {
		c.envelope = c.attack*c.envelope + (1-c.attack)*level
	} else {
		c.envelope = c.release*c.envelope + (1-c.release)*level
	}
	if c.envelope <= 0 {
		return s
	}
	levelDB := 20 * math.Log10(c.envelope)
	if levelDB <= c.thresholdDB {
		return s
	}
	overDB := levelDB - c.thresholdDB
	gainDB := -(overDB - overDB/c.ratio)
	return s * math.Pow(10, gainDB/20)
}

// FilterChain is the playback conditioning chain: high-pass 80 Hz, presence
// boost at 2.5 kHz, low-pass 7 kHz, fixed gain, and compression. Applied
// identically to every scheduled buffer.
type FilterChain struct {
	highPass *biquad
	presence *biquad
	lowPass  *biquad
	gain     float64
	comp     *compressor
}

// NewFilterChain builds the chain for the given playback sample rate.
func NewFilterChain(sampleRate int) *FilterChain {
	sr := float64(sampleRate)
	return &FilterChain{
		highPass: newHighPass(sr, 80, 0.707),
		presence: newPeaking(sr, 2500, 1.0, 4),
		lowPass:  newLowPass(sr, 7000, 0.707),
		gain:     1.5,
		comp:     newCompressor(sr, -24, 3, 3, 250),
	}
}

// Process conditions samples in place and returns the same slice.
func (fc *FilterChain) Process(samples []float32) []float32 {
	for i, s := range samples {
		v := float64(s)
		v = fc.highPass.process(v)
		v = fc.presence.process(v)
		v = fc.lowPass.process(v)
		v *= fc.gain
		v = fc.comp.process(v)
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		samples[i] = float32(v)
	}
	return samples
}
