package prompt

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// column is one numeric series pulled out of a tabular report.
type column struct {
	Name   string
	Values []float64
}

func (c column) first() float64 { return c.Values[0] }
func (c column) last() float64  { return c.Values[len(c.Values)-1] }

func (c column) sum() float64 {
	var s float64
	for _, v := range c.Values {
		s += v
	}
	return s
}

func (c column) changePercent() float64 {
	if c.first() == 0 {
		return 0
	}
	return round2((c.last() - c.first()) / math.Abs(c.first()) * 100)
}

// table is the parsed form of a CSV report.
type table struct {
	Rows    int
	Headers []string
	Numeric []column
}

// parseTable reads content as CSV, falling back to ';' as separator.
// ok is false when the content has no header plus at least one data row.
func parseTable(content string) (table, bool) {
	var best [][]string
	for _, sep := range []rune{',', ';', '\t'} {
		r := csv.NewReader(strings.NewReader(content))
		r.Comma = sep
		r.FieldsPerRecord = -1
		r.TrimLeadingSpace = true
		recs, err := r.ReadAll()
		if err != nil || len(recs) < 2 {
			continue
		}
		if len(recs[0]) > 1 {
			best = recs
			break
		}
		if best == nil {
			best = recs
		}
	}
	if best == nil {
		return table{}, false
	}

	t := table{Rows: len(best) - 1, Headers: best[0]}
	for i, h := range t.Headers {
		col := column{Name: strings.TrimSpace(h)}
		numeric := true
		for _, rec := range best[1:] {
			if i >= len(rec) || strings.TrimSpace(rec[i]) == "" {
				continue
			}
			v, ok := parseNumber(rec[i])
			if !ok {
				numeric = false
				break
			}
			col.Values = append(col.Values, v)
		}
		if numeric && len(col.Values) > 0 && col.Name != "" {
			t.Numeric = append(t.Numeric, col)
		}
	}
	return t, true
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "%")
	s = strings.TrimLeft(s, "$€£₺")
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

// unitFor guesses a unit from the column header.
func unitFor(name string) string {
	n := strings.ToLower(name)
	switch {
	case strings.Contains(n, "%"), strings.Contains(n, "rate"), strings.Contains(n, "percent"), strings.Contains(n, "margin"):
		return "%"
	case strings.Contains(n, "revenue"), strings.Contains(n, "sales"), strings.Contains(n, "cost"),
		strings.Contains(n, "price"), strings.Contains(n, "profit"), strings.Contains(n, "usd"):
		return "USD"
	case strings.Contains(n, "count"), strings.Contains(n, "users"), strings.Contains(n, "orders"), strings.Contains(n, "customers"):
		return "count"
	}
	return ""
}

func categoryFor(name string) string {
	switch unitFor(name) {
	case "USD":
		return "Financial"
	case "%":
		return "Performance"
	case "count":
		return "Volume"
	}
	return "General"
}

// AnalyzeReportContent derives summary, KPIs, trends and action items from a
// tabular report without calling a model. It returns a JSON string in the
// same snake_case shape the remote analysis service produces.
func AnalyzeReportContent(fileName string, content string) string {
	type KPI struct {
		Name     string  `json:"name"`
		Value    float64 `json:"value"`
		Unit     string  `json:"unit"`
		Category string  `json:"category"`
	}
	type Trend struct {
		MetricName       string  `json:"metric_name"`
		Direction        string  `json:"direction"`
		ChangePercentage float64 `json:"change_percentage"`
		TimeFrame        string  `json:"time_frame"`
	}
	type ActionItem struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Priority    string `json:"priority"`
		Category    string `json:"category"`
	}
	type Output struct {
		Summary     string       `json:"summary"`
		KPIs        []KPI        `json:"kpis"`
		Trends      []Trend      `json:"trends"`
		ActionItems []ActionItem `json:"action_items"`
	}

	out := Output{KPIs: []KPI{}, Trends: []Trend{}, ActionItems: []ActionItem{}}

	t, ok := parseTable(content)
	if !ok || len(t.Numeric) == 0 {
		out.Summary = fmt.Sprintf("%s could not be read as a table with numeric columns; no metrics were extracted.", fileName)
		b, _ := json.Marshal(out)
		return string(b)
	}

	cols := t.Numeric
	if len(cols) > 8 {
		cols = cols[:8]
	}

	var ups, downs []string
	for _, c := range cols {
		out.KPIs = append(out.KPIs, KPI{
			Name:     c.Name,
			Value:    round2(c.last()),
			Unit:     unitFor(c.Name),
			Category: categoryFor(c.Name),
		})
		if len(c.Values) < 2 {
			continue
		}
		pct := c.changePercent()
		dir := "Stable"
		switch {
		case pct > 1:
			dir = "Up"
			ups = append(ups, c.Name)
		case pct < -1:
			dir = "Down"
			downs = append(downs, c.Name)
		}
		out.Trends = append(out.Trends, Trend{
			MetricName:       c.Name,
			Direction:        dir,
			ChangePercentage: pct,
			TimeFrame:        fmt.Sprintf("%d periods", len(c.Values)),
		})
		if dir == "Down" {
			prio := "Medium"
			if pct <= -10 {
				prio = "High"
			}
			out.ActionItems = append(out.ActionItems, ActionItem{
				Title:       "Investigate decline in " + c.Name,
				Description: fmt.Sprintf("%s fell %.2f%% from %.2f to %.2f over the reported period.", c.Name, -pct, c.first(), c.last()),
				Priority:    prio,
				Category:    categoryFor(c.Name),
			})
		}
	}

	if len(out.ActionItems) == 0 {
		out.ActionItems = append(out.ActionItems, ActionItem{
			Title:       "Keep monitoring key metrics",
			Description: "No metric declined over the reported period. Review targets in the next reporting cycle.",
			Priority:    "Low",
			Category:    "General",
		})
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s contains %d rows and %d numeric columns.", fileName, t.Rows, len(t.Numeric))
	if len(ups) > 0 {
		fmt.Fprintf(&b, " Increasing: %s.", strings.Join(ups, ", "))
	}
	if len(downs) > 0 {
		fmt.Fprintf(&b, " Decreasing: %s.", strings.Join(downs, ", "))
	}
	if len(ups) == 0 && len(downs) == 0 {
		b.WriteString(" All tracked metrics are stable.")
	}
	out.Summary = b.String()

	data, err := json.Marshal(out)
	if err != nil {
		return `{"summary":"Analysis error; ensure content is readable and try again.","kpis":[],"trends":[],"action_items":[]}`
	}
	return string(data)
}

// AnswerQuestion answers simple questions about the columns of a tabular
// report. It returns "" when it cannot say anything useful.
func AnswerQuestion(content string, question string) string {
	t, ok := parseTable(content)
	if !ok {
		return ""
	}
	q := strings.ToLower(question)

	var hits []column
	for _, c := range t.Numeric {
		if strings.Contains(q, strings.ToLower(c.Name)) {
			hits = append(hits, c)
		}
	}
	if len(hits) == 0 {
		names := make([]string, 0, len(t.Headers))
		for _, h := range t.Headers {
			names = append(names, strings.TrimSpace(h))
		}
		sort.Strings(names)
		return fmt.Sprintf("The report has %d rows with columns: %s.", t.Rows, strings.Join(names, ", "))
	}

	parts := make([]string, 0, len(hits))
	for _, c := range hits {
		n := float64(len(c.Values))
		s := fmt.Sprintf("%s: latest %.2f, total %.2f, average %.2f", c.Name, c.last(), c.sum(), c.sum()/n)
		if len(c.Values) > 1 {
			s += fmt.Sprintf(", change %.2f%%", c.changePercent())
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, "; ") + "."
}
