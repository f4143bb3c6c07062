package catalogue

import "strings"

// FilterCategory is a predefined bundle segment.
type FilterCategory string

const (
	FilterAll       FilterCategory = "all"
	FilterData      FilterCategory = "data"
	FilterVoice     FilterCategory = "voice"
	FilterSMS       FilterCategory = "sms"
	FilterCombo     FilterCategory = "combo"
	FilterCheap     FilterCategory = "cheap"
	FilterUnlimited FilterCategory = "unlimited"
	FilterNight     FilterCategory = "night"
	FilterSocial    FilterCategory = "social"
)

// CheapThreshold is the inclusive cost ceiling of the cheap segment, in
// currency units.
const CheapThreshold = 500

// FilterCategories lists every segment in display order.
var FilterCategories = []FilterCategory{
	FilterAll, FilterData, FilterVoice, FilterSMS, FilterCombo,
	FilterCheap, FilterUnlimited, FilterNight, FilterSocial,
}

// keyword segments match against the lowercased bundle name.
var keywordFilters = map[FilterCategory][]string{
	FilterNight:  {"night"},
	FilterSocial: {"whatsapp", "tiktok", "social"},
}

// ParseFilterCategory resolves a segment label; blank means all.
func ParseFilterCategory(value string) (FilterCategory, bool) {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if trimmed == "" {
		return FilterAll, true
	}
	for _, category := range FilterCategories {
		if string(category) == trimmed {
			return category, true
		}
	}
	return "", false
}

// Filter selects records by segment and free-text search. Both criteria
// compose with logical AND; the zero value selects everything.
type Filter struct {
	Category FilterCategory
	Search   string
}

// Apply evaluates the filter against the flattened list. The operation
// is pure; it never mutates or caches the input.
func (f Filter) Apply(records []Record) []Record {
	out := make([]Record, 0, len(records))
	for _, record := range records {
		if !f.matchesCategory(record) {
			continue
		}
		if !f.matchesSearch(record) {
			continue
		}
		out = append(out, record)
	}
	return out
}

func (f Filter) matchesCategory(record Record) bool {
	switch f.Category {
	case FilterAll, "":
		return true
	case FilterData:
		return record.Type == "Data"
	case FilterVoice:
		return record.Type == "Voice"
	case FilterSMS:
		return record.Type == "SMS"
	case FilterCombo:
		return record.Combo
	case FilterCheap:
		return record.Cost.Value <= CheapThreshold
	case FilterUnlimited:
		return record.IsUnlimited()
	case FilterNight, FilterSocial:
		name := strings.ToLower(record.Name)
		for _, keyword := range keywordFilters[f.Category] {
			if strings.Contains(name, keyword) {
				return true
			}
		}
		return false
	default:
		return true
	}
}

func (f Filter) matchesSearch(record Record) bool {
	term := strings.ToLower(strings.TrimSpace(f.Search))
	if term == "" {
		return true
	}
	for _, haystack := range []string{record.Name, record.Description, record.Type, record.ProductName} {
		if strings.Contains(strings.ToLower(haystack), term) {
			return true
		}
	}
	return false
}
