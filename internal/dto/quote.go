package dto

// QuoteRequest asks for a price quote for a prospective stay. CheckOut is
// the departure day; the last billed night is the day before.
type QuoteRequest struct {
	CheckIn  string `json:"check_in" validate:"required"`
	CheckOut string `json:"check_out" validate:"required"`
	Guests   int    `json:"guests" validate:"required,min=1"`
}

// QuoteNight is one billed night within a quote.
type QuoteNight struct {
	Date  string  `json:"date"`
	Price float64 `json:"price"`
}

// QuoteResponse is the resolved quote for a stay.
type QuoteResponse struct {
	PropertyID  string       `json:"property_id"`
	CheckIn     string       `json:"check_in"`
	CheckOut    string       `json:"check_out"`
	Nights      int          `json:"nights"`
	Currency    string       `json:"currency"`
	NightlyAvg  float64      `json:"nightly_avg"`
	Subtotal    float64      `json:"subtotal"`
	CleaningFee float64      `json:"cleaning_fee"`
	Total       float64      `json:"total"`
	MinNights   int          `json:"min_nights"`
	MaxNights   int          `json:"max_nights"`
	Breakdown   []QuoteNight `json:"breakdown"`
	Warnings    []string     `json:"warnings,omitempty"`
}
