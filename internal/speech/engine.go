package speech

import "context"

// OutputSampleRate is the rate every backend synthesizes at. The
// telephony leg downsamples from here.
const OutputSampleRate = 48000

// Engine synthesizes dispatcher speech as 48kHz mono PCM16LE.
type Engine interface {
	Synthesize(ctx context.Context, text, language string) ([]byte, error)
}

// elevenVoices maps a language code to the ElevenLabs voice used for it.
// Languages without an entry fall back to the English voice.
var elevenVoices = map[string]string{
	"en": "21m00Tcm4TlvDq8ikWAM",
	"hi": "zT03pEAEi0VHKciJODfn",
	"es": "VR6AewLTigWG4xSOukaG",
	"fr": "ThT5KcBeYPX3keUQqHPh",
	"ar": "pFZP5JQG7iQjIQuC4Bku",
}

func voiceFor(language string) string {
	if v, ok := elevenVoices[language]; ok {
		return v
	}
	return elevenVoices["en"]
}
