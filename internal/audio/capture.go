package audio

// DefaultFrameSamples is the capture frame size in samples (256ms at 16 kHz).
const DefaultFrameSamples = 4096

// Capture chunks a mono 16 kHz sample stream into fixed-size PCM16LE
// frames ready for transport encoding. Not safe for concurrent use; the
// capture device feeds it from a single goroutine.
type Capture struct {
	frameSamples int
	buf          []float32
	onFrame      func(pcm []byte)
}

// NewCapture constructs a capture chunker. frameSamples <= 0 selects the
// default. onFrame receives each complete frame as little-endian PCM16.
func NewCapture(frameSamples int, onFrame func(pcm []byte)) *Capture {
	if frameSamples <= 0 {
		frameSamples = DefaultFrameSamples
	}
	return &Capture{frameSamples: frameSamples, onFrame: onFrame}
}

// Push appends samples and emits every complete frame.
func (c *Capture) Push(samples []float32) {
	c.buf = append(c.buf, samples...)
	for len(c.buf) >= c.frameSamples {
		frame := EncodePCM16(c.buf[:c.frameSamples])
		copy(c.buf, c.buf[c.frameSamples:])
		c.buf = c.buf[:len(c.buf)-c.frameSamples]
		if c.onFrame != nil {
			c.onFrame(frame)
		}
	}
}

// Flush emits any buffered remainder as a short final frame.
func (c *Capture) Flush() {
	if len(c.buf) == 0 {
		return
	}
	frame := EncodePCM16(c.buf)
	c.buf = c.buf[:0]
	if c.onFrame != nil {
		c.onFrame(frame)
	}
}
