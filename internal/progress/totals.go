package progress

// Totals aggregates completion across several entities.
type Totals struct {
	Total     int     `json:"total_qtd"`
	Completed int     `json:"total_concluido"`
	Pending   int     `json:"total_pendente"`
	Percent   float64 `json:"percentual_total"`
}

// Summarize adds up stats. Completed counts non-pending records; Percent is
// rounded to one decimal and is 0 when there are no records.
func Summarize(stats []EntityStat) Totals {
	var t Totals
	for _, s := range stats {
		t.Total += s.Total
		t.Completed += s.Total - s.Pending
	}
	t.Pending = t.Total - t.Completed
	if t.Total > 0 {
		t.Percent = round1(float64(t.Completed) / float64(t.Total) * 100)
	}
	return t
}

// Classification classifies the aggregate like a single entity.
func (t Totals) Classification() Classification {
	return Classify(t.Percent, t.Total)
}
