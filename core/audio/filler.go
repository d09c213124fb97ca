package audio

// Filler supplies audio to an output device. Fill writes up to len(out)
// bytes of audio, pads the remainder with silence and returns how many
// bytes were real audio.
type Filler interface {
	Fill(out []byte) int
}
