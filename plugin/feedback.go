package plugin

// Severity classifies a feedback message.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityInfo    Severity = "info"
	SeverityError   Severity = "error"
)

// Message is one user-facing feedback line.
type Message struct {
	Severity Severity `json:"severity"`
	Text     string   `json:"text"`
}

// Feedback is an append-only, ordered log of messages collected during one
// installer invocation.
type Feedback struct {
	messages []Message
}

// NewFeedback creates an empty feedback log.
func NewFeedback() *Feedback {
	return &Feedback{}
}

// Success appends a success message.
func (f *Feedback) Success(text string) { f.add(SeveritySuccess, text) }

// Info appends an informational message.
func (f *Feedback) Info(text string) { f.add(SeverityInfo, text) }

// Error appends an error message.
func (f *Feedback) Error(text string) { f.add(SeverityError, text) }

func (f *Feedback) add(sev Severity, text string) {
	f.messages = append(f.messages, Message{Severity: sev, Text: text})
}

// Messages returns a copy of all messages in append order.
func (f *Feedback) Messages() []Message {
	return append([]Message{}, f.messages...)
}

// Texts returns the message texts in append order.
func (f *Feedback) Texts() []string {
	texts := make([]string, len(f.messages))
	for i, m := range f.messages {
		texts[i] = m.Text
	}
	return texts
}

// Len returns the number of messages.
func (f *Feedback) Len() int {
	return len(f.messages)
}
