package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zennieheo/hackathon2024-BE/apperr"
	"github.com/zennieheo/hackathon2024-BE/enums"
)

const (
	msgRequired    = "This field is required."
	msgNull        = "This field may not be null."
	msgNumber      = "A valid number is required."
	msgNonNegative = "Ensure this value is greater than or equal to 0."
	msgMaxDigits   = "Ensure that there are no more than 14 digits in total."
	msgMaxPlaces   = "Ensure that there are no more than 4 decimal places."
	msgMaxWhole    = "Ensure that there are no more than 10 digits before the decimal point."

	// quantities are stored as decimal(14,4)
	maxDigits        = 14
	maxDecimalPlaces = 4
)

var (
	ErrDateRequired = apperr.Validation("date is required")
	ErrDateFormat   = apperr.Validation("Invalid date format. Use YYYY-MM-DD.")

	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// NewEntry is a caller-submitted intake item before it is stamped and stored.
// Nil quantities are missing.
type NewEntry struct {
	MealSlot      string
	Calories      *decimal.Decimal
	Carbohydrates *decimal.Decimal
	Protein       *decimal.Decimal
	Fat           *decimal.Decimal
}

// ParseDate checks a YYYY-MM-DD value and returns it unchanged.
func ParseDate(value string) (string, error) {
	if value == "" {
		return "", ErrDateRequired
	}
	if !datePattern.MatchString(value) {
		return "", ErrDateFormat
	}
	if _, err := time.Parse(enums.DateLayout, value); err != nil {
		return "", ErrDateFormat
	}
	return value, nil
}

func ParseMealSlot(value string) (enums.MealSlot, error) {
	slot := enums.MealSlot(value)
	if !slot.Valid() {
		return "", fmt.Errorf("%q is not a valid choice", value)
	}
	return slot, nil
}

// ParseQuantity accepts a JSON number or a numeric JSON string.
func ParseQuantity(raw json.RawMessage) (decimal.Decimal, error) {
	raw = bytes.TrimSpace(raw)
	text := string(raw)
	if len(raw) > 0 && raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return decimal.Zero, err
		}
	}
	return decimal.NewFromString(strings.TrimSpace(text))
}

// checkPrecision reports why value does not fit decimal(14,4), or "" when it does.
// It reads the exponent and coefficient only, so oversized input is never rescaled.
func checkPrecision(value decimal.Decimal) string {
	exp := int(value.Exponent())
	if exp > maxDigits || exp < -maxDigits {
		return msgMaxDigits
	}

	digits, places := value.NumDigits(), 0
	switch {
	case exp >= 0:
		digits += exp
	case -exp > digits:
		digits, places = -exp, -exp
	default:
		places = -exp
	}

	switch {
	case digits > maxDigits:
		return msgMaxDigits
	case places > maxDecimalPlaces:
		return msgMaxPlaces
	case digits-places > maxDigits-maxDecimalPlaces:
		return msgMaxWhole
	}
	return ""
}

// DecodeEntry reads one entry object, reporting every bad field with prefix.
func DecodeEntry(fields map[string]json.RawMessage, prefix string, problems apperr.FieldErrors) NewEntry {
	var entry NewEntry

	if raw, ok := fields["meal_slot"]; !ok || isNull(raw) {
		problems.Add(prefix+"meal_slot", msgRequired)
	} else {
		var slot string
		if err := json.Unmarshal(raw, &slot); err != nil {
			problems.Add(prefix+"meal_slot", "Not a valid string.")
		} else {
			entry.MealSlot = slot
		}
	}

	entry.Calories = decodeQuantity(fields, "calories", prefix, problems)
	entry.Carbohydrates = decodeQuantity(fields, "carbohydrates", prefix, problems)
	entry.Protein = decodeQuantity(fields, "protein", prefix, problems)
	entry.Fat = decodeQuantity(fields, "fat", prefix, problems)
	return entry
}

func decodeQuantity(fields map[string]json.RawMessage, name, prefix string, problems apperr.FieldErrors) *decimal.Decimal {
	raw, ok := fields[name]
	if !ok {
		problems.Add(prefix+name, msgRequired)
		return nil
	}
	if isNull(raw) {
		problems.Add(prefix+name, msgNull)
		return nil
	}
	value, err := ParseQuantity(raw)
	if err != nil {
		problems.Add(prefix+name, msgNumber)
		return nil
	}
	return &value
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

// Validate adds every problem of the entry to problems under prefix.
func (e NewEntry) Validate(prefix string, problems apperr.FieldErrors) {
	if e.MealSlot == "" {
		if _, reported := problems[prefix+"meal_slot"]; !reported {
			problems.Add(prefix+"meal_slot", msgRequired)
		}
	} else if _, err := ParseMealSlot(e.MealSlot); err != nil {
		problems.Add(prefix+"meal_slot", fmt.Sprintf("%q is not a valid choice.", e.MealSlot))
	}

	quantities := []struct {
		name  string
		value *decimal.Decimal
	}{
		{"calories", e.Calories},
		{"carbohydrates", e.Carbohydrates},
		{"protein", e.Protein},
		{"fat", e.Fat},
	}
	for _, q := range quantities {
		if q.value == nil {
			if _, reported := problems[prefix+q.name]; !reported {
				problems.Add(prefix+q.name, msgRequired)
			}
			continue
		}
		if msg := checkPrecision(*q.value); msg != "" {
			problems.Add(prefix+q.name, msg)
			continue
		}
		if q.value.IsNegative() {
			problems.Add(prefix+q.name, msgNonNegative)
		}
	}
}
