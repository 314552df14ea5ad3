package http

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"gastos/internal/core"
	"gastos/internal/store"
)

const storageWarning = "Saved for this session, but it could not be written to storage"

var categoryColors = map[core.Category]string{
	core.Food:      "#e76f51",
	core.Transport: "#2a9d8f",
	core.Leisure:   "#e9c46a",
	core.Household: "#264653",
	core.Health:    "#8ab17d",
	core.Other:     "#9a8c98",
}

var sortLabels = map[core.SortOrder]string{
	core.DateDesc:   "Newest first",
	core.DateAsc:    "Oldest first",
	core.AmountDesc: "Largest first",
	core.AmountAsc:  "Smallest first",
}

var templateFuncs = template.FuncMap{
	"percent": func(p float64) string {
		return strings.TrimSuffix(strings.TrimSuffix(fmt.Sprintf("%.2f", p), "0"), ".0") + "%"
	},
	"lower": strings.ToLower,
}

type option struct {
	Value    string
	Label    string
	Selected bool
}

type row struct {
	ID          core.ID
	Description string
	Amount      string
	Category    string
	Date        string
	Person      string
	Editing     bool
}

type chartSlice struct {
	Category string
	Amount   string
	Percent  float64
	Color    string
}

type chart struct {
	Slices   []chartSlice
	Gradient template.CSS
	Total    string
}

// pageData is everything index.html and its content block need.
type pageData struct {
	Form       store.Draft
	Editing    bool
	EditingID  core.ID
	Problems   map[string]string
	Categories []option
	Filters    []option
	Sorts      []option
	Rows       []row
	Count      int
	Total      string
	Chart      chart
	Notice     string
}

func (s *Server) pageData(problems map[string]string, notice string) pageData {
	form := s.store.Form()
	editingID, editing := s.store.Editing()
	criteria := s.store.Criteria()
	view := s.store.View()

	data := pageData{
		Form:      form,
		Editing:   editing,
		EditingID: editingID,
		Problems:  problems,
		Count:     len(view),
		Total:     core.DeriveTotal(view).Display(s.currency),
		Chart:     s.chart(s.store.Segments()),
		Notice:    notice,
	}

	data.Filters = append(data.Filters, option{Value: core.FilterAll, Label: "All categories", Selected: criteria.Category == ""})
	for _, c := range core.Categories() {
		data.Categories = append(data.Categories, option{Value: c.String(), Label: c.String(), Selected: strings.EqualFold(form.Category, c.String())})
		data.Filters = append(data.Filters, option{Value: c.String(), Label: c.String(), Selected: criteria.Category == c})
	}
	for _, o := range core.SortOrders() {
		data.Sorts = append(data.Sorts, option{Value: string(o), Label: sortLabels[o], Selected: criteria.Sort == o})
	}

	data.Rows = make([]row, 0, len(view))
	for _, e := range view {
		data.Rows = append(data.Rows, row{
			ID:          e.ID,
			Description: e.Description,
			Amount:      e.Amount.Display(s.currency),
			Category:    e.Category.String(),
			Date:        e.Date.String(),
			Person:      e.Person,
			Editing:     editing && e.ID == editingID,
		})
	}
	return data
}

// chart lays the segments out as a conic-gradient pie, each slice starting
// where the previous one ended.
func (s *Server) chart(segments []core.Segment) chart {
	var c chart
	var total core.Money
	var stops []string
	start := 0.0
	for i, seg := range segments {
		total = total.Add(seg.Amount)
		end := start + seg.Percent
		if i == len(segments)-1 {
			end = 100
		}
		color := categoryColors[seg.Category]
		stops = append(stops, fmt.Sprintf("%s %.2f%% %.2f%%", color, start, end))
		c.Slices = append(c.Slices, chartSlice{
			Category: seg.Category.String(),
			Amount:   seg.Amount.Display(s.currency),
			Percent:  seg.Percent,
			Color:    color,
		})
		start = end
	}
	c.Total = total.Display(s.currency)
	if len(stops) > 0 {
		c.Gradient = template.CSS("conic-gradient(" + strings.Join(stops, ", ") + ")")
	}
	return c
}

// render executes name into a buffer so a template error never leaves a
// half-written response.
func (s *Server) render(name string, data any) ([]byte, error) {
	if s.templates == nil {
		return nil, fmt.Errorf("templates not loaded")
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}
