package analysis

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrMalformedPayload means the AI response is not a JSON object at all.
var ErrMalformedPayload = errors.New("malformed analysis payload")

// Field aliases accepted on the wire. The AI backend is not consistent about
// snake_case vs camelCase, so every logical field has a fixed alias list.
var (
	summaryAliases     = []string{"summary", "Summary"}
	kpisAliases        = []string{"kpis", "KPIs", "Kpis", "key_metrics", "keyMetrics"}
	trendsAliases      = []string{"trends", "Trends"}
	actionItemsAliases = []string{"action_items", "actionItems", "ActionItems"}

	nameAliases        = []string{"name", "Name"}
	valueAliases       = []string{"value", "Value"}
	unitAliases        = []string{"unit", "Unit"}
	categoryAliases    = []string{"category", "Category"}
	metricNameAliases  = []string{"metric_name", "metricName", "MetricName"}
	directionAliases   = []string{"direction", "Direction"}
	changePctAliases   = []string{"change_percentage", "changePercentage", "ChangePercentage"}
	timeFrameAliases   = []string{"time_frame", "timeFrame", "TimeFrame"}
	titleAliases       = []string{"title", "Title"}
	descriptionAliases = []string{"description", "Description"}
	priorityAliases    = []string{"priority", "Priority"}
)

// Payload is the AI backend's analysis response as received, before enum
// normalization. Missing fields decode to zero values.
type Payload struct {
	Summary     string
	KPIs        []WireKPI
	Trends      []WireTrend
	ActionItems []WireActionItem
}

type WireKPI struct {
	Name     string
	Value    float64
	Unit     string
	Category string
}

type WireTrend struct {
	MetricName       string
	Direction        string
	ChangePercentage float64
	TimeFrame        string
}

type WireActionItem struct {
	Title       string
	Description string
	Priority    string
	Category    string
}

// DecodePayload parses an AI analysis response. Only a body that is not a
// JSON object is an error; bad individual fields fall back to zero values.
func DecodePayload(data []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return p, nil
}

func (p *Payload) UnmarshalJSON(data []byte) error {
	fields, err := objectFields(data)
	if err != nil {
		return err
	}
	p.Summary = flexString(lookup(fields, summaryAliases))
	p.KPIs = decodeList[WireKPI](lookup(fields, kpisAliases))
	p.Trends = decodeList[WireTrend](lookup(fields, trendsAliases))
	p.ActionItems = decodeList[WireActionItem](lookup(fields, actionItemsAliases))
	return nil
}

func (k *WireKPI) UnmarshalJSON(data []byte) error {
	fields, err := objectFields(data)
	if err != nil {
		return err
	}
	k.Name = flexString(lookup(fields, nameAliases))
	k.Value = flexFloat(lookup(fields, valueAliases))
	k.Unit = flexString(lookup(fields, unitAliases))
	k.Category = flexString(lookup(fields, categoryAliases))
	return nil
}

func (t *WireTrend) UnmarshalJSON(data []byte) error {
	fields, err := objectFields(data)
	if err != nil {
		return err
	}
	t.MetricName = flexString(lookup(fields, metricNameAliases))
	t.Direction = flexString(lookup(fields, directionAliases))
	t.ChangePercentage = flexFloat(lookup(fields, changePctAliases))
	t.TimeFrame = flexString(lookup(fields, timeFrameAliases))
	return nil
}

func (a *WireActionItem) UnmarshalJSON(data []byte) error {
	fields, err := objectFields(data)
	if err != nil {
		return err
	}
	a.Title = flexString(lookup(fields, titleAliases))
	a.Description = flexString(lookup(fields, descriptionAliases))
	a.Priority = flexString(lookup(fields, priorityAliases))
	a.Category = flexString(lookup(fields, categoryAliases))
	return nil
}

func objectFields(data []byte) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		// literal null
		return nil, errors.New("expected JSON object, got null")
	}
	return fields, nil
}

// lookup returns the first alias present in fields, in alias-table order.
// An explicit null counts as absent.
func lookup(fields map[string]json.RawMessage, aliases []string) json.RawMessage {
	for _, a := range aliases {
		v, ok := fields[a]
		if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			continue
		}
		return v
	}
	return nil
}

// decodeList accepts an array or a single object. Entries that are not
// objects are dropped.
func decodeList[T any](raw json.RawMessage) []T {
	out := make([]T, 0)
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return out
	}

	var elems []json.RawMessage
	switch raw[0] {
	case '[':
		if err := json.Unmarshal(raw, &elems); err != nil {
			return out
		}
	case '{':
		elems = []json.RawMessage{raw}
	default:
		return out
	}

	for _, e := range elems {
		e = bytes.TrimSpace(e)
		if len(e) == 0 || e[0] != '{' {
			continue
		}
		var item T
		if err := json.Unmarshal(e, &item); err != nil {
			continue
		}
		out = append(out, item)
	}
	return out
}

func flexString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	case 't', 'f':
		return string(raw)
	case 'n', '{', '[':
		return ""
	default:
		// number: keep the literal as sent
		return string(raw)
	}
}

func flexFloat(raw json.RawMessage) float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0
		}
		return parseNumeric(s)
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0
	}
	return f
}

// parseNumeric reads values such as "12.5", "12.5%", "+3", "1,200".
func parseNumeric(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "%")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
