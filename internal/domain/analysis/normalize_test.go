package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePrioritySynonyms(t *testing.T) {
	cases := map[string]Priority{
		"high":     PriorityHigh,
		"HIGH":     PriorityHigh,
		" High ":   PriorityHigh,
		"critical": PriorityHigh,
		"urgent":   PriorityHigh,
		"Urgent":   PriorityHigh,
		"yüksek":   PriorityHigh,
		"YÜKSEK":   PriorityHigh,
		"medium":   PriorityMedium,
		"normal":   PriorityMedium,
		"moderate": PriorityMedium,
		"orta":     PriorityMedium,
		"ORTA":     PriorityMedium,
		"low":      PriorityLow,
		"minor":    PriorityLow,
		"düşük":    PriorityLow,
		"DÜŞÜK":    PriorityLow,
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizePriority(in), "input %q", in)
	}
}

func TestNormalizePriorityUnmappedIsMedium(t *testing.T) {
	for _, in := range []string{"", "   ", "asap", "p0", "123", "highest"} {
		assert.Equal(t, PriorityMedium, NormalizePriority(in), "input %q", in)
	}
}

func TestNormalizeDirectionSynonyms(t *testing.T) {
	cases := map[string]Direction{
		"up":        DirectionUp,
		"UP":        DirectionUp,
		"increase":  DirectionUp,
		"rising":    DirectionUp,
		"yukarı":    DirectionUp,
		"YUKARI":    DirectionUp,
		"artış":     DirectionUp,
		"ARTIŞ":     DirectionUp,
		"down":      DirectionDown,
		"decrease":  DirectionDown,
		"falling":   DirectionDown,
		"aşağı":     DirectionDown,
		"AŞAĞI":     DirectionDown,
		"azalış":    DirectionDown,
		"AZALIŞ":    DirectionDown,
		"stable":    DirectionStable,
		"steady":    DirectionStable,
		"unchanged": DirectionStable,
		"stabil":    DirectionStable,
		"sabit":     DirectionStable,
		"Sabit":     DirectionStable,
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeDirection(in), "input %q", in)
	}
}

func TestNormalizeDirectionUnmappedIsStable(t *testing.T) {
	for _, in := range []string{"", "sideways", "flat-ish", "↑"} {
		assert.Equal(t, DirectionStable, NormalizeDirection(in), "input %q", in)
	}
}

func TestNormalizeMapsEveryEntry(t *testing.T) {
	p := Payload{
		Summary: "quarter looked fine",
		KPIs:    []WireKPI{{Name: "Revenue", Value: 100, Unit: "%", Category: "Finance"}},
		Trends: []WireTrend{
			{MetricName: "Sales", Direction: "rising", ChangePercentage: 4.5, TimeFrame: "Q1"},
			{MetricName: "Churn", Direction: "???"},
		},
		ActionItems: []WireActionItem{
			{Title: "Follow up", Priority: "urgent", Category: "Sales"},
			{Title: "Tidy", Priority: ""},
		},
	}

	res := Normalize(p)

	assert.Equal(t, "quarter looked fine", res.Summary)
	assert.Equal(t, []KPI{{Name: "Revenue", Value: 100, Unit: "%", Category: "Finance"}}, res.KPIs)
	assert.Equal(t, DirectionUp, res.Trends[0].Direction)
	assert.Equal(t, 4.5, res.Trends[0].ChangePercentage)
	assert.Equal(t, DirectionStable, res.Trends[1].Direction)
	assert.Equal(t, PriorityHigh, res.ActionItems[0].Priority)
	assert.Equal(t, PriorityMedium, res.ActionItems[1].Priority)
}

func TestNormalizeEmptyPayloadHasNonNilLists(t *testing.T) {
	res := Normalize(Payload{})
	assert.NotNil(t, res.KPIs)
	assert.NotNil(t, res.Trends)
	assert.NotNil(t, res.ActionItems)
	assert.Empty(t, res.KPIs)
}
