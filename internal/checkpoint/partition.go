package checkpoint

import (
	"fmt"

	"github.com/as42sl/airbyte/internal/canon"
	"github.com/as42sl/airbyte/internal/message"
)

// Batch is a checkpoint anchored by exactly one STATE message.
type Batch struct {
	Anchor  *message.State
	Records []*message.Record
}

// Partition groups log into batches in log order. A log without STATE
// messages yields no batches. Records emitted before the first STATE are not
// anchored by any checkpoint and are not part of any batch; see Unanchored.
func Partition(log []message.Message) []Batch {
	filtered := message.Checkpointed(log)

	var batches []Batch
	right := len(filtered)
	for i := len(filtered) - 1; i >= 0; i-- {
		anchor, ok := filtered[i].(*message.State)
		if !ok {
			continue
		}
		batches = append(batches, Batch{
			Anchor:  anchor,
			Records: message.Records(filtered[i+1 : right]),
		})
		right = i
	}

	for i, j := 0, len(batches)-1; i < j; i, j = i+1, j-1 {
		batches[i], batches[j] = batches[j], batches[i]
	}
	return batches
}

// Unanchored returns the records that precede the first STATE message.
func Unanchored(log []message.Message) []*message.Record {
	var out []*message.Record
	for _, m := range log {
		switch v := m.(type) {
		case *message.State:
			return out
		case *message.Record:
			out = append(out, v)
		}
	}
	return out
}

// Fingerprint hashes a batch's anchor and records by their canonical JSON,
// so batches that differ only in member order or whitespace collide.
func Fingerprint(b Batch) (string, error) {
	items := make(canon.Array, 0, len(b.Records)+1)
	anchor, err := canon.Parse(b.Anchor.Raw())
	if err != nil {
		return "", fmt.Errorf("fingerprint batch anchor: %w", err)
	}
	items = append(items, anchor)
	for i, r := range b.Records {
		v, err := canon.Parse(r.Raw())
		if err != nil {
			return "", fmt.Errorf("fingerprint batch record %d: %w", i, err)
		}
		items = append(items, v)
	}
	return canon.Fingerprint(canon.DomainBatch, items)
}

// Dedup drops every batch identical to an earlier one, keeping the first
// occurrence and the original order.
func Dedup(batches []Batch) ([]Batch, error) {
	seen := make(map[string]struct{}, len(batches))
	out := make([]Batch, 0, len(batches))
	for _, b := range batches {
		fp, err := Fingerprint(b)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[fp]; dup {
			continue
		}
		seen[fp] = struct{}{}
		out = append(out, b)
	}
	return out, nil
}
