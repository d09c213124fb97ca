package events

const (
	// KindInputTranscript identifies transcription of user speech.
	KindInputTranscript Kind = "transcript.input"
	// KindOutputTranscript identifies transcription of model speech.
	KindOutputTranscript Kind = "transcript.output"
)

// InputTranscript carries transcribed user speech.
type InputTranscript struct {
	Base
	Text string
	// Finished is set when the backend marks the transcription as final.
	Finished bool
}

// NewInputTranscript creates an input transcript event.
func NewInputTranscript(text string, finished bool) InputTranscript {
	return InputTranscript{Base: NewBase(KindInputTranscript), Text: text, Finished: finished}
}

// OutputTranscript carries transcribed model speech.
type OutputTranscript struct {
	Base
	Text     string
	Finished bool
}

// NewOutputTranscript creates an output transcript event.
func NewOutputTranscript(text string, finished bool) OutputTranscript {
	return OutputTranscript{Base: NewBase(KindOutputTranscript), Text: text, Finished: finished}
}
