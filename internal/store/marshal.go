package store

import (
	"fmt"
	"time"

	"github.com/as42sl/airbyte/internal/canon"
	"github.com/as42sl/airbyte/internal/message"
)

const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

// messageRow derives the stored columns of a message.
func messageRow(runID string, seq int64, m message.Message) (MessageRow, error) {
	fp, err := canon.FingerprintJSONNFC(canon.DomainMessage, m.Raw())
	if err != nil {
		return MessageRow{}, fmt.Errorf("message %d: %w", seq, err)
	}
	row := MessageRow{
		RunID:       runID,
		Seq:         seq,
		Type:        string(m.Type()),
		Fingerprint: fp,
		Body:        m.Raw(),
	}
	switch v := m.(type) {
	case *message.Record:
		row.Stream = v.Stream
	case *message.State:
		if v.IsPerStream() {
			row.Stream = v.Stream.Descriptor.Name
		}
	case *message.Other:
	}
	return row, nil
}
