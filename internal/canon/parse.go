package canon

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-json-experiment/json/jsontext"
)

// Parse decodes a single JSON value. Trailing data after the value is an error.
func Parse(data []byte) (Value, error) {
	dec := jsontext.NewDecoder(bytes.NewReader(data))
	v, err := decodeValue(dec)
	if err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	if _, err := dec.ReadToken(); err != io.EOF {
		return nil, fmt.Errorf("parse json: unexpected data after top-level value")
	}
	return v, nil
}

func decodeValue(dec *jsontext.Decoder) (Value, error) {
	switch dec.PeekKind() {
	case '{':
		return decodeObject(dec)
	case '[':
		return decodeArray(dec)
	case '0':
		// Read the raw value so the number literal is preserved verbatim.
		raw, err := dec.ReadValue()
		if err != nil {
			return nil, err
		}
		return Number(string(raw)), nil
	}

	tok, err := dec.ReadToken()
	if err != nil {
		return nil, err
	}
	switch tok.Kind() {
	case 'n':
		return Null{}, nil
	case 't', 'f':
		return Bool(tok.Bool()), nil
	case '"':
		return String(tok.String()), nil
	default:
		return nil, fmt.Errorf("unexpected token %v", tok.Kind())
	}
}

func decodeObject(dec *jsontext.Decoder) (Value, error) {
	if _, err := dec.ReadToken(); err != nil {
		return nil, err
	}
	obj := Object{}
	for dec.PeekKind() != '}' {
		name, err := dec.ReadToken()
		if err != nil {
			return nil, err
		}
		val, err := decodeValue(dec)
		if err != nil {
			return nil, fmt.Errorf("object[%q]: %w", name.String(), err)
		}
		obj[name.String()] = val
	}
	if _, err := dec.ReadToken(); err != nil {
		return nil, err
	}
	return obj, nil
}

func decodeArray(dec *jsontext.Decoder) (Value, error) {
	if _, err := dec.ReadToken(); err != nil {
		return nil, err
	}
	arr := Array{}
	for dec.PeekKind() != ']' {
		val, err := decodeValue(dec)
		if err != nil {
			return nil, fmt.Errorf("array[%d]: %w", len(arr), err)
		}
		arr = append(arr, val)
	}
	if _, err := dec.ReadToken(); err != nil {
		return nil, err
	}
	return arr, nil
}
