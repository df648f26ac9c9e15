package dashboard

import "time"

// Trigger identifies which control toggled the sidebar.
type Trigger int

const (
	// TriggerMain is the desktop toggle; it also swaps icon and label.
	TriggerMain Trigger = iota
	// TriggerMobile only toggles the layout.
	TriggerMobile
)

// ParseTrigger maps a form value to a Trigger, defaulting to TriggerMain.
func ParseTrigger(s string) Trigger {
	if s == "mobile" {
		return TriggerMobile
	}
	return TriggerMain
}

func (t Trigger) String() string {
	if t == TriggerMobile {
		return "mobile"
	}
	return "main"
}

// Sidebar is the collapsed/expanded state of the navigation sidebar. The
// state is not persisted; clients send it back with every toggle.
type Sidebar struct {
	Collapsed bool
	// LabelCollapsed is the state the main toggle's icon and label show.
	// The mobile trigger does not update it.
	LabelCollapsed bool
}

// Toggle returns the state after the given trigger fires.
func (s Sidebar) Toggle(t Trigger) Sidebar {
	s.Collapsed = !s.Collapsed
	if t == TriggerMain {
		s.LabelCollapsed = s.Collapsed
	}
	return s
}

// Icon is the icon class of the main toggle.
func (s Sidebar) Icon() string {
	if s.LabelCollapsed {
		return "fas fa-chevron-right"
	}
	return "fas fa-chevron-left"
}

// Label is the text of the main toggle.
func (s Sidebar) Label() string {
	if s.LabelCollapsed {
		return "Expandir Menu"
	}
	return "Recolher Menu"
}

// TimestampID is the id of the sidebar "last updated" element.
const TimestampID = "sidebar-update-date"

// TimestampLayout formats like a pt-BR locale string: 14/10/2026, 09:05:03.
const TimestampLayout = "02/01/2006, 15:04:05"

// StampTimestamp writes now into the sidebar timestamp element. It reports
// whether the element exists.
func StampTimestamp(page *Page, now time.Time) bool {
	el := page.Container(TimestampID)
	if el.Length() == 0 {
		return false
	}
	el.SetText(now.Format(TimestampLayout))
	return true
}
