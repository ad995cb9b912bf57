package structs

import (
	"encoding/json"
	"sort"
)

// NutrientTotals is one formatted total block of the aggregation payload.
type NutrientTotals struct {
	TotalCalories string `json:"total_calories"`
	TotalCarbs    string `json:"total_carbs"`
	TotalProtein  string `json:"total_protein"`
	TotalFat      string `json:"total_fat"`
}

// DailyTotals is the aggregation payload for one (owner, date).
// Slots holds only the meal slots that have entries.
type DailyTotals struct {
	Slots map[string]NutrientTotals
	Daily NutrientTotals
	Date  string
}

// MarshalJSON flattens the slot groups next to the "daily" and "date" keys.
func (d DailyTotals) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(d.Slots)+2)
	for slot, totals := range d.Slots {
		out[slot] = totals
	}
	out["daily"] = d.Daily
	out["date"] = d.Date
	return json.Marshal(out)
}

func (d *DailyTotals) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	d.Slots = make(map[string]NutrientTotals)
	for key, value := range raw {
		switch key {
		case "date":
			if err := json.Unmarshal(value, &d.Date); err != nil {
				return err
			}
		case "daily":
			if err := json.Unmarshal(value, &d.Daily); err != nil {
				return err
			}
		default:
			var totals NutrientTotals
			if err := json.Unmarshal(value, &totals); err != nil {
				return err
			}
			d.Slots[key] = totals
		}
	}
	return nil
}

// SlotNames returns the slot keys present, sorted.
func (d DailyTotals) SlotNames() []string {
	names := make([]string, 0, len(d.Slots))
	for name := range d.Slots {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
