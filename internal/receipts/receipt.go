package receipts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

const (
	keyVRN       = "vrn"
	keyPeriodKey = "periodKey"
)

// Receipt is one stored submission record. It keeps the record's raw JSON
// so field order and unknown fields survive a read-write cycle.
type Receipt struct {
	VRN       string
	PeriodKey *string

	raw json.RawMessage
}

// New builds a receipt from the submission response. Local vrn and
// periodKey come first; a response field with the same name replaces the
// local value in place. A response that is not a JSON object is stored
// under "response".
func New(vrn string, periodKey *string, response json.RawMessage) (Receipt, error) {
	fields, err := objectFields(response)
	if err != nil {
		fields = []field{{key: "response", value: response}}
		if !json.Valid(response) {
			fields = nil
		}
	}

	vrnJSON, err := json.Marshal(vrn)
	if err != nil {
		return Receipt{}, err
	}
	pkJSON, err := json.Marshal(periodKey)
	if err != nil {
		return Receipt{}, err
	}

	ordered := []field{
		{key: keyVRN, value: vrnJSON},
		{key: keyPeriodKey, value: pkJSON},
	}
	for _, f := range fields {
		ordered = setField(ordered, f)
	}

	raw, err := encodeObject(ordered)
	if err != nil {
		return Receipt{}, err
	}

	var r Receipt
	if err := r.UnmarshalJSON(raw); err != nil {
		return Receipt{}, err
	}
	return r, nil
}

// MarshalJSON returns the stored record unchanged.
func (r Receipt) MarshalJSON() ([]byte, error) {
	if len(r.raw) == 0 {
		return encodeObject([]field{
			{key: keyVRN, value: mustMarshal(r.VRN)},
			{key: keyPeriodKey, value: mustMarshal(r.PeriodKey)},
		})
	}
	return r.raw, nil
}

// UnmarshalJSON keeps data as the raw record and extracts vrn and periodKey.
func (r *Receipt) UnmarshalJSON(data []byte) error {
	var head struct {
		VRN       string  `json:"vrn"`
		PeriodKey *string `json:"periodKey"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return fmt.Errorf("invalid receipt: %w", err)
	}
	r.VRN = head.VRN
	r.PeriodKey = head.PeriodKey
	r.raw = append(json.RawMessage(nil), data...)
	return nil
}

// Field returns the raw value of a top-level field.
func (r Receipt) Field(name string) (json.RawMessage, bool) {
	fields, err := objectFields(r.raw)
	if err != nil {
		return nil, false
	}
	for _, f := range fields {
		if f.key == name {
			return f.value, true
		}
	}
	return nil, false
}

// Keys returns the top-level field names in stored order.
func (r Receipt) Keys() []string {
	fields, err := objectFields(r.raw)
	if err != nil {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for _, f := range fields {
		keys = append(keys, f.key)
	}
	return keys
}

// StringField returns the value of a top-level string field, or "".
func (r Receipt) StringField(name string) string {
	raw, ok := r.Field(name)
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

type field struct {
	key   string
	value json.RawMessage
}

// setField replaces the value of an existing key in place or appends it.
func setField(fields []field, f field) []field {
	for i := range fields {
		if fields[i].key == f.key {
			fields[i].value = f.value
			return fields
		}
	}
	return append(fields, f)
}

// objectFields decodes a JSON object into its fields in document order.
func objectFields(data []byte) ([]field, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("not a JSON object")
	}

	var fields []field
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		fields = setField(fields, field{key: key, value: value})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("trailing data after JSON object")
	}
	return fields, nil
}

func encodeObject(fields []field) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(f.value)
	}
	buf.WriteByte('}')

	var compact bytes.Buffer
	if err := json.Compact(&compact, buf.Bytes()); err != nil {
		return nil, err
	}
	return compact.Bytes(), nil
}

func mustMarshal(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
