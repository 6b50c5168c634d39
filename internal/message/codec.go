package message

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// envelope is the outer wire object of every message.
type envelope struct {
	Type   Type    `json:"type"`
	Record *Record `json:"record,omitempty"`
	State  *State  `json:"state,omitempty"`
}

// Decode parses one wire message. The returned message keeps a copy of raw.
func Decode(raw []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	value := jsontext.Value(bytes.Clone(raw))

	switch env.Type {
	case TypeRecord:
		if env.Record == nil {
			return nil, fmt.Errorf("decode message: RECORD without record payload")
		}
		if env.Record.Stream == "" {
			return nil, fmt.Errorf("decode message: RECORD without stream name")
		}
		env.Record.raw = value
		return env.Record, nil
	case TypeState:
		if env.State == nil {
			return nil, fmt.Errorf("decode message: STATE without state payload")
		}
		if env.State.Stream != nil && isNull(env.State.Stream.State) {
			env.State.Stream.State = nil
		}
		if isNull(env.State.Data) {
			env.State.Data = nil
		}
		env.State.raw = value
		return env.State, nil
	case "":
		return nil, fmt.Errorf("decode message: missing type")
	default:
		return &Other{Kind: env.Type, raw: value}, nil
	}
}

func isNull(v jsontext.Value) bool {
	return len(v) > 0 && v.Kind() == 'n'
}

// Reader decodes a connector's stdout, one JSON message per line.
// Lines that are not JSON objects are counted and skipped: connectors
// commonly print plain text before the protocol starts.
type Reader struct {
	r       *bufio.Reader
	line    int
	skipped int
}

// NewReader wraps r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReaderSize(r, 1<<20)}
}

// Next returns the next message or io.EOF.
func (rd *Reader) Next() (Message, error) {
	for {
		line, err := rd.r.ReadBytes('\n')
		if len(line) == 0 && err != nil {
			return nil, err
		}
		rd.line++
		line = bytes.TrimSpace(line)
		if len(line) == 0 || line[0] != '{' || !jsontext.Value(line).IsValid() {
			if len(line) > 0 {
				rd.skipped++
			}
			if err != nil {
				return nil, err
			}
			continue
		}
		msg, decodeErr := Decode(line)
		if decodeErr != nil {
			return nil, fmt.Errorf("line %d: %w", rd.line, decodeErr)
		}
		return msg, nil
	}
}

// Skipped returns how many non-protocol lines were ignored so far.
func (rd *Reader) Skipped() int {
	return rd.skipped
}

// ReadAll drains r into an ordered log.
func ReadAll(r io.Reader) ([]Message, error) {
	rd := NewReader(r)
	var log []Message
	for {
		msg, err := rd.Next()
		if errors.Is(err, io.EOF) {
			return log, nil
		}
		if err != nil {
			return log, err
		}
		log = append(log, msg)
	}
}

// WriteAll writes messages as JSON lines using their wire form.
func WriteAll(w io.Writer, log []Message) error {
	bw := bufio.NewWriter(w)
	for _, msg := range log {
		if _, err := bw.Write(msg.Raw()); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}
