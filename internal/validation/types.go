package validation

// OrderDetails is the input captured on the order-details step.
type OrderDetails struct {
	// Name of the order recipient. Independent from the account display name
	// once the user edits it.
	Name string `json:"name" validate:"required"`

	// Date is the delivery date (YYYY-MM-DD). Must honor the minimum lead
	// time regardless of any date-picker constraint upstream.
	Date string `json:"date" validate:"required,delivery_lead"`

	// Time is the optional half-hour slot (HH:MM), collected only in
	// deployments that schedule delivery times.
	Time string `json:"time,omitempty" validate:"omitempty,delivery_slot"`
}
