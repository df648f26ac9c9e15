// Package progress classifies entity completion and renders progress bars.
package progress

// Label is the completion status of an entity.
type Label int

const (
	NotApplicable Label = iota
	Pending
	Partial
	InProgress
	Completed
)

var labels = [...]struct {
	name  string
	text  string
	class string
}{
	NotApplicable: {"NotApplicable", "Não se aplica", "status-inaplicavel"},
	Pending:       {"Pending", "Pendente", "status-pendente"},
	Partial:       {"Partial", "Parcial", "status-parcial"},
	InProgress:    {"InProgress", "Em Andamento", "status-andamento"},
	Completed:     {"Completed", "Concluído", "status-concluido"},
}

func (l Label) valid() bool { return l >= 0 && int(l) < len(labels) }

// String returns the label's identifier, e.g. "InProgress".
func (l Label) String() string {
	if !l.valid() {
		return "Unknown"
	}
	return labels[l].name
}

// Text is the Portuguese text shown in the status cell.
func (l Label) Text() string {
	if !l.valid() {
		return ""
	}
	return labels[l].text
}

// Class is the CSS class applied to the status cell.
func (l Label) Class() string {
	if !l.valid() {
		return ""
	}
	return labels[l].class
}

// Color is the fill color token of a progress bar.
type Color int

const (
	Neutral Color = iota
	Red
	Amber
	Blue
	Green
)

var colors = [...]struct{ name, hex string }{
	Neutral: {"Neutral", "#6b7280"},
	Red:     {"Red", "#ef4444"},
	Amber:   {"Amber", "#f59e0b"},
	Blue:    {"Blue", "#3b82f6"},
	Green:   {"Green", "#10b981"},
}

func (c Color) String() string {
	if c < 0 || int(c) >= len(colors) {
		return "Unknown"
	}
	return colors[c].name
}

// Hex resolves the token to a concrete CSS color.
func (c Color) Hex() string {
	if c < 0 || int(c) >= len(colors) {
		return colors[Neutral].hex
	}
	return colors[c].hex
}

// Classification is the derived status of one entity.
type Classification struct {
	Label Label
	Color Color
}

// Classify maps a completion percent and record count to a status. Rules are
// evaluated in order and the first match wins; a zero count makes the percent
// meaningless. Out-of-range percents are not clamped.
func Classify(percent float64, total int) Classification {
	switch {
	case total == 0:
		return Classification{NotApplicable, Neutral}
	case percent == 100:
		return Classification{Completed, Green}
	case percent >= 70:
		return Classification{InProgress, Blue}
	case percent >= 40:
		return Classification{Partial, Amber}
	default:
		return Classification{Pending, Red}
	}
}
