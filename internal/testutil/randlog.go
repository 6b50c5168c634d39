package testutil

import (
	"fmt"

	"pgregory.net/rand"

	"github.com/as42sl/airbyte/internal/message"
)

// RandomLog returns a reproducible log of n messages drawn from seed. It
// mixes records and per-stream states across three streams with the odd
// LOG message, and sometimes repeats the previous checkpoint verbatim so
// duplicate batches occur.
func RandomLog(seed uint64, n int) ([]message.Message, error) {
	r := rand.New(seed)
	streams := []string{"users", "orders", "countries"}
	cursors := make(map[string]int)

	log := make([]message.Message, 0, n)
	var prev []message.Message
	for len(log) < n {
		stream := streams[r.Intn(len(streams))]
		var (
			m   message.Message
			err error
		)
		switch roll := r.Intn(10); {
		case roll < 6:
			cursors[stream]++
			m, err = message.NewRecord(stream, map[string]any{"id": len(log), CursorField: cursors[stream]}, 0)
		case roll < 8:
			m, err = message.NewStreamState(stream, map[string]any{CursorField: cursors[stream]})
		case roll < 9 && len(prev) > 0:
			// Replay the last batch so Dedup has something to drop.
			for _, p := range prev {
				if len(log) < n {
					log = append(log, p)
				}
			}
			continue
		default:
			m, err = message.NewOther(message.TypeLog, "log", map[string]any{"message": fmt.Sprintf("tick %d", len(log))})
		}
		if err != nil {
			return nil, err
		}
		if st, ok := m.(*message.State); ok {
			prev = []message.Message{st}
		} else if rec, ok := m.(*message.Record); ok && len(prev) > 0 {
			prev = append(prev, rec)
		}
		log = append(log, m)
	}
	return log, nil
}
