package charts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// Kind is the mark type of a chart.
type Kind string

const (
	KindBar  Kind = "bar"
	KindLine Kind = "line"
)

// Chart identifiers. Ticker tabs always produce the first three; the volume
// tab produces the next three.
const (
	IDAvgDiff       = "avg_diff"
	IDUpProb        = "up_prob"
	IDCounts        = "counts"
	IDYearlyVolume  = "yearly_volume"
	IDAverageVolume = "average_volume"
	IDVolumeCounts  = "volume_counts"
	IDEconomic      = "economic"
)

// MaxGroups is the most series groups a descriptor holds.
const MaxGroups = 2

// Number is a chart value. NaN encodes as JSON null.
type Number float64

// MarshalJSON implements json.Marshaler.
func (n Number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*n = Number(math.NaN())
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*n = Number(f)
	return nil
}

// IsNull reports whether the value is missing.
func (n Number) IsNull() bool {
	return math.IsNaN(float64(n))
}

func numbers(values []float64) []Number {
	out := make([]Number, len(values))
	for i, v := range values {
		out[i] = Number(v)
	}
	return out
}

// Series is one named run of values over a group's labels. Errors, when
// present, are symmetric error bar half-widths.
type Series struct {
	Name   string   `json:"name"`
	Values []Number `json:"values"`
	Errors []Number `json:"errors,omitempty"`
}

// Group is the data of one table in a chart: the primary table or its
// paired variant.
type Group struct {
	Label  string   `json:"label"`
	Labels []string `json:"labels"`
	Series []Series `json:"series"`
}

// RefLine is a horizontal reference line.
type RefLine struct {
	Value float64 `json:"value"`
	Label string  `json:"label,omitempty"`
}

// Range bounds the y axis.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Span is a shaded x interval on a date axis, as YYYY-MM-DD.
type Span struct {
	Label string `json:"label,omitempty"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// Descriptor is a renderer-neutral chart.
type Descriptor struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Kind     Kind      `json:"kind"`
	Groups   []Group   `json:"groups"`
	Stacked  bool      `json:"stacked"`
	RefLines []RefLine `json:"ref_lines,omitempty"`
	YRange   *Range    `json:"y_range,omitempty"`
	Spans    []Span    `json:"spans,omitempty"`
	Legend   string    `json:"legend,omitempty"`
	Width    int       `json:"width"`
	Height   int       `json:"height"`
}

// Validate checks the group count and that every series lines up with its
// group's labels.
func (d Descriptor) Validate() error {
	if len(d.Groups) == 0 {
		return fmt.Errorf("chart %s has no data", d.ID)
	}
	if len(d.Groups) > MaxGroups {
		return fmt.Errorf("chart %s: %w", d.ID, ErrTooManyGroups)
	}
	for _, g := range d.Groups {
		for _, s := range g.Series {
			if len(s.Values) != len(g.Labels) {
				return fmt.Errorf("chart %s: series %s has %d values for %d labels", d.ID, s.Name, len(s.Values), len(g.Labels))
			}
			if s.Errors != nil && len(s.Errors) != len(s.Values) {
				return fmt.Errorf("chart %s: series %s has %d error bars for %d values", d.ID, s.Name, len(s.Errors), len(s.Values))
			}
		}
	}
	return nil
}

// Result is the outcome of a build. Warnings name optional inputs that
// were left out.
type Result struct {
	Descriptors []Descriptor `json:"descriptors"`
	Warnings    []string     `json:"warnings,omitempty"`
}

// Find returns the descriptor with the given ID.
func (r Result) Find(id string) (Descriptor, bool) {
	for _, d := range r.Descriptors {
		if d.ID == id {
			return d, true
		}
	}
	return Descriptor{}, false
}
