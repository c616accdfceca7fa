package domain

// Reservation is the canonical booking record. Field spellings the PMS
// uses interchangeably are folded together by NormalizeReservation; the
// rest of the pipeline reads only this shape.
type Reservation struct {
	ID                    int64   `json:"reservation_id"`
	CheckIn               Date    `json:"check_in_date"`
	CheckOut              Date    `json:"check_out_date"`
	Adults                int     `json:"adults"`
	Children              int     `json:"children"`
	AdditionalBeds        int     `json:"additional_beds"`
	Price                 float64 `json:"price"`
	Advance               float64 `json:"advance"`
	Regime                string  `json:"regime"`
	RateID                string  `json:"rate_id,omitempty"`
	PromotionalCode       string  `json:"promotional_code,omitempty"`
	Status                string  `json:"status"`
	SpaceID               string  `json:"space_id,omitempty"`
	SpaceTypeID           string  `json:"space_type_id,omitempty"`
	SpaceSubtypeID        string  `json:"space_subtype_id,omitempty"`
	OperatorID            string  `json:"operator_id,omitempty"`
	OperatorReservationID string  `json:"operator_reservation_id,omitempty"`
	MasterReservationID   int64   `json:"master_reservation_id,omitempty"`
	Paid                  *bool   `json:"is_paid,omitempty"`
	ClientID              string  `json:"client_id,omitempty"`
	ClientName            string  `json:"client_name,omitempty"`
	Client                *Client `json:"client,omitempty"`
	Observations          string  `json:"observations,omitempty"`
	CreatedAt             string  `json:"created_at,omitempty"`

	Charges           []Charge `json:"charges,omitempty"`
	PredefinedCharges []Charge `json:"predefined_charges,omitempty"`

	// Derived by enrichment. Always populated, possibly with fallbacks.
	OperatorName  string `json:"operator_name"`
	RegimeName    string `json:"regime_name"`
	SpaceTypeName string `json:"space_type_name"`
	ExtrasText    string `json:"extras_text"`
	// BillingTotal is nil when the billing lookup failed.
	BillingTotal *float64 `json:"billing_total"`
	IsFullyPaid  *bool    `json:"is_fully_paid"`
}

type Client struct {
	ID           string `json:"id,omitempty"`
	Name         string `json:"name,omitempty"`
	Surname      string `json:"surname,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Email        string `json:"email,omitempty"`
	Document     string `json:"document,omitempty"`
	Nationality  string `json:"nationality,omitempty"`
	Observations string `json:"observations,omitempty"`
}

// Charge is one extra line on a reservation.
type Charge struct {
	ExtraID  string  `json:"extra_id"`
	Name     string  `json:"name,omitempty"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price,omitempty"`
}

// Guests counts adults and children. Additional beds are not guests.
func (r *Reservation) Guests() int {
	return r.Adults + r.Children
}

func (r *Reservation) Nights() int {
	if r.CheckIn.IsZero() || r.CheckOut.IsZero() {
		return 0
	}
	return r.CheckIn.DaysUntil(r.CheckOut)
}

// AllCharges returns charges then predefined charges.
func (r *Reservation) AllCharges() []Charge {
	out := make([]Charge, 0, len(r.Charges)+len(r.PredefinedCharges))
	out = append(out, r.Charges...)
	return append(out, r.PredefinedCharges...)
}
