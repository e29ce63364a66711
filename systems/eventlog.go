package systems

// Tone classifies a narration entry for presentation.
type Tone uint8

const (
	Neutral Tone = iota
	Positive
	Negative
)

// String returns the tone name.
func (t Tone) String() string {
	switch t {
	case Neutral:
		return "neutral"
	case Positive:
		return "positive"
	case Negative:
		return "negative"
	default:
		return "unknown"
	}
}

// Entry is one line of narration.
type Entry struct {
	Tick int64  `json:"tick"`
	Text string `json:"text"`
	Tone Tone   `json:"tone"`
}

// EventLog is a bounded, newest-first narration feed.
// Adding to a full log overwrites the oldest entry.
type EventLog struct {
	buf   []Entry
	head  int // next write slot
	count int

	// OnAdd, if set, observes every entry, including ones later overwritten.
	OnAdd func(Entry)
}

// NewEventLog creates a log holding at most capacity entries.
func NewEventLog(capacity int) *EventLog {
	if capacity < 1 {
		capacity = 1
	}
	return &EventLog{buf: make([]Entry, capacity)}
}

// Add records an entry.
func (l *EventLog) Add(tick int64, text string, tone Tone) {
	e := Entry{Tick: tick, Text: text, Tone: tone}
	l.buf[l.head] = e
	l.head = (l.head + 1) % len(l.buf)
	if l.count < len(l.buf) {
		l.count++
	}
	if l.OnAdd != nil {
		l.OnAdd(e)
	}
}

// Entries returns the retained entries, newest first.
func (l *EventLog) Entries() []Entry {
	out := make([]Entry, l.count)
	for i := 0; i < l.count; i++ {
		idx := (l.head - 1 - i + len(l.buf)) % len(l.buf)
		out[i] = l.buf[idx]
	}
	return out
}

// Len returns the number of retained entries.
func (l *EventLog) Len() int {
	return l.count
}

// Reset empties the log. OnAdd is kept.
func (l *EventLog) Reset() {
	l.head = 0
	l.count = 0
	clear(l.buf)
}
