package platform

// StreamStatus is the lifecycle state of one platform's leg of a live stream.
type StreamStatus string

const (
	StreamStatusReady StreamStatus = "READY"
	StreamStatusLive  StreamStatus = "LIVE"
	StreamStatusError StreamStatus = "ERROR"
	StreamStatusEnded StreamStatus = "ENDED"
)

// MessageType classifies a diagnostic message attached to a provider stream.
type MessageType string

const (
	MessageTypeInfo  MessageType = "info"
	MessageTypeError MessageType = "error"
)

// Message is one diagnostic produced by the last provider operation.
type Message struct {
	Type    MessageType `json:"type"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
}

// StreamData is the provider-facing portion of a live stream leg. Adapters
// fill it on create and mutate it in place on start/end. Remote failures are
// recorded as status + messages, never returned as errors.
type StreamData struct {
	BroadcastID *string      `json:"broadcast_id"`
	StreamURL   *string      `json:"stream_url"`
	Status      StreamStatus `json:"stream_status"`
	Messages    []Message    `json:"messages,omitempty"`
}

// ErrorStream builds the StreamData for a failed remote create call.
func ErrorStream(code, message string) *StreamData {
	return &StreamData{
		Status: StreamStatusError,
		Messages: []Message{{
			Type:    MessageTypeError,
			Code:    code,
			Message: message,
		}},
	}
}

// SetLive transitions the leg to LIVE, clearing diagnostics from previous
// operations.
func (d *StreamData) SetLive() {
	d.Status = StreamStatusLive
	d.Messages = nil
}

// SetEnded transitions the leg to its terminal state.
func (d *StreamData) SetEnded() {
	d.Status = StreamStatusEnded
}

// SetError records a failed operation on the leg.
func (d *StreamData) SetError(code, message string) {
	d.Status = StreamStatusError
	d.Messages = []Message{{
		Type:    MessageTypeError,
		Code:    code,
		Message: message,
	}}
}
