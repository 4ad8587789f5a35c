package scoring

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Score pairs a condition with its match percentage in [0, 100].
type Score struct {
	Condition  string
	Percentage float64
}

// Result is an ordered set of scores. It encodes as a JSON object whose key
// order follows the slice order, and decodes back preserving that order.
type Result []Score

// Map returns the scores keyed by condition name.
func (r Result) Map() map[string]float64 {
	m := make(map[string]float64, len(r))
	for _, s := range r {
		m[s.Condition] = s.Percentage
	}
	return m
}

func (r Result) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, s := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(s.Condition)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(s.Percentage)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r *Result) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*r = nil
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("scores: expected object, got %v", tok)
	}
	out := Result{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("scores: expected key, got %v", tok)
		}
		var pct float64
		if err := dec.Decode(&pct); err != nil {
			return fmt.Errorf("scores: %s: %w", name, err)
		}
		out = append(out, Score{Condition: name, Percentage: pct})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*r = out
	return nil
}
