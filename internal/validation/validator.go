package validation

import (
	"time"

	validatorv10 "github.com/go-playground/validator/v10"
)

// MinLeadDays is the minimum number of calendar days between today and the
// delivery date. The bakery needs two days of lead time on every order.
const MinLeadDays = 2

const dateLayout = "2006-01-02"

// Delivery time slots are half-hour steps inside opening hours.
const (
	slotOpenHour  = 8
	slotCloseHour = 20
)

// New returns a configured validator with the delivery-date and time-slot
// rules registered. nowFunc supplies "today" so the lead-time rule is
// testable.
func New(nowFunc func() time.Time) *validatorv10.Validate {
	v := validatorv10.New()

	// delivery_lead: date is parseable and at least MinLeadDays calendar
	// days from today.
	_ = v.RegisterValidation("delivery_lead", func(fl validatorv10.FieldLevel) bool {
		d, err := time.Parse(dateLayout, fl.Field().String())
		if err != nil {
			return false
		}
		return !d.Before(MinDeliveryDate(nowFunc()))
	})

	// delivery_slot: HH:MM on a half-hour boundary between 08:00 and 20:00
	// inclusive.
	_ = v.RegisterValidation("delivery_slot", func(fl validatorv10.FieldLevel) bool {
		return ValidSlot(fl.Field().String())
	})

	return v
}

// MinDeliveryDate is the earliest acceptable delivery date given "now":
// today plus the lead time, at midnight UTC.
func MinDeliveryDate(now time.Time) time.Time {
	today := now.UTC().Truncate(24 * time.Hour)
	return today.AddDate(0, 0, MinLeadDays)
}

// ValidSlot reports whether s is a half-hour slot inside opening hours.
func ValidSlot(s string) bool {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return false
	}
	if t.Minute() != 0 && t.Minute() != 30 {
		return false
	}
	if t.Hour() < slotOpenHour {
		return false
	}
	if t.Hour() > slotCloseHour || (t.Hour() == slotCloseHour && t.Minute() != 0) {
		return false
	}
	return true
}
