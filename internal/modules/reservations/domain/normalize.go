package domain

import (
	"fmt"

	"aviratoDash/internal/shared/normalization"
)

// NormalizeReservation folds the snake_case and camelCase spellings of a
// listing record into a Reservation. A missing id or an unparseable stay
// date is reported as ErrDataIntegrity.
func NormalizeReservation(raw map[string]any) (*Reservation, error) {
	id := normalization.Int64(raw, "reservation_id", "reservationId", "id")
	if id == 0 {
		return nil, fmt.Errorf("%w: reservation without id", ErrDataIntegrity)
	}

	checkIn, err := ParseDate(normalization.String(raw, "check_in_date", "checkInDate", "check_in", "checkIn", "arrival_date"))
	if err != nil {
		return nil, fmt.Errorf("%w: reservation %d check-in: %w", ErrDataIntegrity, id, err)
	}
	checkOut, err := ParseDate(normalization.String(raw, "check_out_date", "checkOutDate", "check_out", "checkOut", "departure_date"))
	if err != nil {
		return nil, fmt.Errorf("%w: reservation %d check-out: %w", ErrDataIntegrity, id, err)
	}

	r := &Reservation{
		ID:                    id,
		CheckIn:               checkIn,
		CheckOut:              checkOut,
		Adults:                normalization.Int(raw, "adults", "adult", "num_adults"),
		Children:              normalization.Int(raw, "children", "kids", "num_children"),
		AdditionalBeds:        normalization.Int(raw, "additional_beds", "additionalBeds"),
		Price:                 normalization.Float(raw, "price", "total_price", "totalPrice"),
		Advance:               normalization.Float(raw, "advance", "deposit"),
		Regime:                normalization.String(raw, "regime", "regime_code", "regimeCode", "board"),
		RateID:                normalization.String(raw, "rate_id", "rateId"),
		PromotionalCode:       normalization.String(raw, "promotional_code", "promotionalCode"),
		Status:                normalization.String(raw, "status", "state", "reservation_status"),
		SpaceID:               normalization.String(raw, "space_id", "spaceId"),
		SpaceTypeID:           normalization.String(raw, "space_type_id", "spaceTypeId"),
		SpaceSubtypeID:        normalization.String(raw, "space_subtype_id", "spaceSubtypeId"),
		OperatorID:            normalization.String(raw, "operator_id", "operatorId", "channel_id", "channelId"),
		OperatorReservationID: normalization.String(raw, "operator_reservation_id", "operatorReservationId"),
		MasterReservationID:   normalization.Int64(raw, "master_reservation_id", "masterReservationId"),
		Paid:                  normalization.Bool(raw, "is_paid", "isPaid", "paid"),
		IsFullyPaid:           normalization.Bool(raw, "is_fully_paid", "isFullyPaid"),
		ClientID:              normalization.String(raw, "client_id", "clientId"),
		ClientName:            normalization.String(raw, "client_name", "clientName"),
		Client:                normalizeClient(normalization.Object(raw, "client", "customer", "guest")),
		Observations:          normalization.String(raw, "observations", "notes", "comments"),
		CreatedAt:             normalization.String(raw, "created_at", "createdAt"),
		Charges:               normalizeCharges(normalization.Objects(raw, "charges", "extras")),
		PredefinedCharges:     normalizeCharges(normalization.Objects(raw, "predefinedCharges", "predefined_charges")),
	}
	return r, nil
}

func normalizeClient(raw map[string]any) *Client {
	if len(raw) == 0 {
		return nil
	}
	c := &Client{
		ID:           normalization.String(raw, "id", "client_id", "clientId"),
		Name:         normalization.String(raw, "name", "first_name", "firstName"),
		Surname:      normalization.String(raw, "surname", "last_name", "lastName", "surnames"),
		Phone:        normalization.String(raw, "phone", "telephone", "mobile"),
		Email:        normalization.String(raw, "email", "mail"),
		Document:     normalization.String(raw, "document", "dni", "passport"),
		Nationality:  normalization.String(raw, "nationality", "country"),
		Observations: normalization.String(raw, "observations", "notes"),
	}
	if *c == (Client{}) {
		return nil
	}
	return c
}

func normalizeCharges(items []map[string]any) []Charge {
	if len(items) == 0 {
		return nil
	}
	out := make([]Charge, 0, len(items))
	for _, raw := range items {
		ch := Charge{
			ExtraID:  normalization.String(raw, "extra_id", "extraId", "id_extra", "product_id", "id"),
			Name:     normalization.String(raw, "name", "concept", "description"),
			Quantity: normalization.Int(raw, "quantity", "qty", "units"),
			Price:    normalization.Float(raw, "price", "total", "unit_price"),
		}
		if ch.Quantity <= 0 {
			ch.Quantity = 1
		}
		out = append(out, ch)
	}
	return out
}
