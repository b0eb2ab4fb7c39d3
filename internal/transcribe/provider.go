package transcribe

// Wire shapes of the streaming speech-to-text provider. The contract is
// fixed by the provider and only consumed here: one JSON session config
// after dial, binary audio afterwards, JSON events back.

const (
	eventBegin       = "Begin"
	eventTurn        = "Turn"
	eventTermination = "Termination"
	eventError       = "Error"

	msgTerminate = "Terminate"
)

// sessionConfig is the first message sent after the socket opens.
type sessionConfig struct {
	Type           string `json:"type"`
	SampleRate     int    `json:"sample_rate"`
	Channels       int    `json:"channels"`
	Language       string `json:"language"`
	InterimResults bool   `json:"interim_results"`
}

// providerEvent is every message the provider sends back. Fields are
// populated depending on Type.
type providerEvent struct {
	Type       string `json:"type"`
	Transcript string `json:"transcript,omitempty"`
	EndOfTurn  bool   `json:"end_of_turn,omitempty"`
	Error      string `json:"error,omitempty"`
}

// terminateMessage asks the provider to flush and close the session.
type terminateMessage struct {
	Type string `json:"type"`
}
