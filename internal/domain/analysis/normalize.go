package analysis

import (
	"strings"
	"unicode"
)

var prioritySynonyms = map[string]Priority{
	"high":     PriorityHigh,
	"critical": PriorityHigh,
	"urgent":   PriorityHigh,
	"yüksek":   PriorityHigh,
	"medium":   PriorityMedium,
	"normal":   PriorityMedium,
	"moderate": PriorityMedium,
	"orta":     PriorityMedium,
	"low":      PriorityLow,
	"minor":    PriorityLow,
	"düşük":    PriorityLow,
}

var directionSynonyms = map[string]Direction{
	"up":        DirectionUp,
	"increase":  DirectionUp,
	"rising":    DirectionUp,
	"yukarı":    DirectionUp,
	"artış":     DirectionUp,
	"down":      DirectionDown,
	"decrease":  DirectionDown,
	"falling":   DirectionDown,
	"aşağı":     DirectionDown,
	"azalış":    DirectionDown,
	"stable":    DirectionStable,
	"steady":    DirectionStable,
	"unchanged": DirectionStable,
	"stabil":    DirectionStable,
	"sabit":     DirectionStable,
}

// NormalizePriority maps a free-form priority onto High/Medium/Low.
// Unknown or empty input is Medium.
func NormalizePriority(raw string) Priority {
	for _, key := range foldKeys(raw) {
		if p, ok := prioritySynonyms[key]; ok {
			return p
		}
	}
	return PriorityMedium
}

// NormalizeDirection maps a free-form direction onto Up/Down/Stable.
// Unknown or empty input is Stable.
func NormalizeDirection(raw string) Direction {
	for _, key := range foldKeys(raw) {
		if d, ok := directionSynonyms[key]; ok {
			return d
		}
	}
	return DirectionStable
}

// foldKeys returns the lookup keys for raw: the plain lower-case form and the
// Turkish-case form, so "AZALIŞ" and "HIGH" both resolve.
func foldKeys(raw string) [2]string {
	s := strings.TrimSpace(raw)
	return [2]string{
		strings.ToLower(s),
		strings.ToLowerSpecial(unicode.TurkishCase, s),
	}
}

// Normalize converts a decoded wire payload into the internal vocabulary.
func Normalize(p Payload) Result {
	res := EmptyResult()
	res.Summary = p.Summary

	for _, k := range p.KPIs {
		res.KPIs = append(res.KPIs, KPI{
			Name:     k.Name,
			Value:    k.Value,
			Unit:     k.Unit,
			Category: k.Category,
		})
	}
	for _, t := range p.Trends {
		res.Trends = append(res.Trends, Trend{
			MetricName:       t.MetricName,
			Direction:        NormalizeDirection(t.Direction),
			ChangePercentage: t.ChangePercentage,
			TimeFrame:        t.TimeFrame,
		})
	}
	for _, a := range p.ActionItems {
		res.ActionItems = append(res.ActionItems, ActionItem{
			Title:       a.Title,
			Description: a.Description,
			Priority:    NormalizePriority(a.Priority),
			Category:    a.Category,
		})
	}
	return res
}
