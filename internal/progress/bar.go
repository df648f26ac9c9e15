package progress

import (
	"fmt"
	"html/template"
)

const (
	trackColor = "#e5e7eb"
	textColor  = "#000000"
)

// barMarkup only ever receives formatted numbers and fixed hex colors.
const barMarkup = `<div class="progress-container" style="display: flex; align-items: center; gap: 10px;">` +
	`<div class="progress-bar" style="flex: 1; height: 20px; background: %[1]s; border-radius: 10px; overflow: hidden;">` +
	`<div class="progress-fill" style="height: 100%%; border-radius: 10px; background: %[2]s; width: %[3]s%%; display: flex; align-items: center; justify-content: center;">` +
	`<span class="progress-text" style="color: %[4]s; font-size: 11px; font-weight: bold;">%[3]s%%</span>` +
	`</div></div></div>`

// Bar renders a horizontal progress bar. The fill width is exactly percent
// (no rounding or clamping) and its color follows Classify; the label text is
// always dark so it stays legible on every fill.
func Bar(percent float64, total int) template.HTML {
	p := FormatPercent(percent)
	fill := Classify(percent, total).Color.Hex()
	return template.HTML(fmt.Sprintf(barMarkup, trackColor, fill, p, textColor))
}
