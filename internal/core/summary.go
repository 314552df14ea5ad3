package core

// CategoryTotal is the sum of amounts for one category.
type CategoryTotal struct {
	Category Category `json:"category"`
	Amount   Money    `json:"amount"`
}

// Segment is one slice of the category chart.
type Segment struct {
	Category Category `json:"category"`
	Amount   Money    `json:"amount"`
	// Percent of the full-collection total, 0-100.
	Percent float64 `json:"percent"`
}
