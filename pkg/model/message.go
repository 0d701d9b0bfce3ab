package model

// MessageKind tags a validation message.
type MessageKind uint8

const (
	// KindMessage is a user-facing error.
	KindMessage MessageKind = iota
	// KindSkipped marks a check that was intentionally not run for the
	// current input; the field keeps whatever error it had before.
	KindSkipped
	// KindDeferred marks a check that cannot be decided on the client and
	// must be settled by a later validation tier (usually the server).
	KindDeferred
)

func (k MessageKind) String() string {
	switch k {
	case KindSkipped:
		return "skipped"
	case KindDeferred:
		return "deferred"
	default:
		return "message"
	}
}

// Message is a single validation outcome for a field.
type Message struct {
	Kind MessageKind
	Text string
}

// Text returns a user-facing error message.
func Text(text string) Message {
	return Message{Kind: KindMessage, Text: text}
}

// Skipped returns the marker for a check that was not run.
func Skipped() Message {
	return Message{Kind: KindSkipped}
}

// Deferred returns the marker for a check that needs another tier. The
// reason is for logs only and is never displayed.
func Deferred(reason string) Message {
	return Message{Kind: KindDeferred, Text: reason}
}

// Messages is the outcome list of one field.
type Messages []Message

// Texts returns the user-facing messages only.
func (m Messages) Texts() []string {
	out := make([]string, 0, len(m))
	for _, msg := range m {
		if msg.Kind == KindMessage {
			out = append(out, msg.Text)
		}
	}
	return out
}

// HasSkipped reports whether any check was skipped.
func (m Messages) HasSkipped() bool { return m.has(KindSkipped) }

// HasDeferred reports whether any check was deferred.
func (m Messages) HasDeferred() bool { return m.has(KindDeferred) }

// OnlyMarkers reports whether the list carries control markers and no
// user-facing message.
func (m Messages) OnlyMarkers() bool {
	return len(m) > 0 && !m.has(KindMessage)
}

func (m Messages) has(kind MessageKind) bool {
	for _, msg := range m {
		if msg.Kind == kind {
			return true
		}
	}
	return false
}

// ErrorMap is the validator output keyed by field name.
type ErrorMap map[string]Messages

// Add appends messages to name.
func (e ErrorMap) Add(name string, msgs ...Message) {
	e[name] = append(e[name], msgs...)
}

// HasDeferred reports whether any field carries a deferred marker.
func (e ErrorMap) HasDeferred() bool {
	for _, msgs := range e {
		if msgs.HasDeferred() {
			return true
		}
	}
	return false
}

// HasMessages reports whether any field carries a user-facing message.
func (e ErrorMap) HasMessages() bool {
	for _, msgs := range e {
		if msgs.has(KindMessage) {
			return true
		}
	}
	return false
}
