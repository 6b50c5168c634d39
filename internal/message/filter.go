package message

// Records returns the RECORD messages of log in order.
func Records(log []Message) []*Record {
	var out []*Record
	for _, m := range log {
		if r, ok := m.(*Record); ok {
			out = append(out, r)
		}
	}
	return out
}

// States returns the STATE messages of log in order.
func States(log []Message) []*State {
	var out []*State
	for _, m := range log {
		if s, ok := m.(*State); ok {
			out = append(out, s)
		}
	}
	return out
}

// Checkpointed returns the RECORD and STATE messages of log in order,
// dropping every other message type.
func Checkpointed(log []Message) []Message {
	out := make([]Message, 0, len(log))
	for _, m := range log {
		switch m.(type) {
		case *Record, *State:
			out = append(out, m)
		case *Other:
		}
	}
	return out
}

// Counts tallies a log by message type.
func Counts(log []Message) map[Type]int {
	counts := make(map[Type]int)
	for _, m := range log {
		counts[m.Type()]++
	}
	return counts
}
