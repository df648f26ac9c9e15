package progress

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// EntityStat is the completion snapshot of one entity for a single render.
// JSON names follow the statistics payload the dashboard was built around.
type EntityStat struct {
	Name    string  `json:"tabela,omitempty"`
	Total   int     `json:"qtd"`
	Pending int     `json:"qtdPendente"`
	Percent float64 `json:"percentualConclusao"`
}

// Classification classifies the stat.
func (s EntityStat) Classification() Classification {
	return Classify(s.Percent, s.Total)
}

// UnmarshalJSON accepts numbers or numeric strings for every numeric field
// and defaults anything missing or malformed to zero.
func (s *EntityStat) UnmarshalJSON(b []byte) error {
	var raw struct {
		Name    string `json:"tabela"`
		Total   any    `json:"qtd"`
		Pending any    `json:"qtdPendente"`
		Percent any    `json:"percentualConclusao"`
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	*s = EntityStat{
		Name:    raw.Name,
		Total:   ParseCount(raw.Total),
		Pending: ParseCount(raw.Pending),
		Percent: ParsePercent(raw.Percent),
	}
	return nil
}

// ParsePercent coerces numeric-like input to a float. Missing, non-numeric
// and NaN input is 0.
func ParsePercent(v any) float64 {
	var f float64
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case int32:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) {
		return 0
	}
	return f
}

// ParseCount coerces numeric-like input to a row count. Fractions are
// truncated, negatives are 0 and values past math.MaxInt32 are clamped to it.
func ParseCount(v any) int {
	f := ParsePercent(v)
	switch {
	case f <= 0:
		return 0
	case f >= math.MaxInt32:
		return math.MaxInt32
	}
	return int(f)
}

// FormatPercent prints a percent the way it was given: 80 → "80",
// 85.5 → "85.5".
func FormatPercent(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
