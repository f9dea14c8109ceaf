package analyzer

import (
	"bytes"

	"github.com/goccy/go-json"
)

// Insights maps category names to their insight lists and remembers the
// order in which categories were first added.
type Insights struct {
	order  []string
	values map[string][]string
}

func NewInsights() *Insights {
	return &Insights{values: make(map[string][]string)}
}

// Set stores insights for category. A category that is already present
// keeps its position and takes the new value.
func (in *Insights) Set(category string, insights []string) {
	if _, exists := in.values[category]; !exists {
		in.order = append(in.order, category)
	}
	if insights == nil {
		insights = []string{}
	}
	in.values[category] = insights
}

func (in *Insights) Get(category string) ([]string, bool) {
	v, ok := in.values[category]
	return v, ok
}

func (in *Insights) Keys() []string {
	return append([]string(nil), in.order...)
}

func (in *Insights) Len() int {
	return len(in.order)
}

// Map returns an unordered copy.
func (in *Insights) Map() map[string][]string {
	out := make(map[string][]string, len(in.values))
	for k, v := range in.values {
		out[k] = v
	}
	return out
}

// MarshalJSON encodes a JSON object with keys in insertion order.
func (in *Insights) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range in.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(in.values[key])
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

// Aggregate folds outcomes, in dispatch order, into one Insights value.
// Failed outcomes are skipped; a repeated category takes the later value.
func Aggregate(outcomes []Outcome) *Insights {
	out := NewInsights()
	for _, o := range outcomes {
		if !o.OK() {
			continue
		}
		out.Set(o.Category, o.Insights)
	}
	return out
}
