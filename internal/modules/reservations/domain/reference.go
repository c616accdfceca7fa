package domain

import "aviratoDash/internal/shared/normalization"

type Operator struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Regime struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type SpaceSubtype struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	SpaceTypeID string `json:"space_type_id,omitempty"`
}

// SpaceType groups subtypes; the PMS nests subtypes inside each type.
type SpaceType struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Subtypes []SpaceSubtype `json:"subtypes,omitempty"`
}

type Extra struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price,omitempty"`
}

type Invoice struct {
	ID            string  `json:"id"`
	Number        string  `json:"number,omitempty"`
	ReservationID int64   `json:"reservation_id,omitempty"`
	Total         float64 `json:"total"`
}

func NormalizeOperator(raw map[string]any) (Operator, bool) {
	op := Operator{
		ID:   normalization.String(raw, "id", "operator_id", "operatorId"),
		Name: normalization.String(raw, "name", "operator_name", "operatorName", "description"),
	}
	return op, op.ID != "" && op.Name != ""
}

func NormalizeRegime(raw map[string]any) (Regime, bool) {
	r := Regime{
		Code: normalization.String(raw, "code", "regime", "id", "regime_code"),
		Name: normalization.String(raw, "name", "description", "regime_name"),
	}
	return r, r.Code != "" && r.Name != ""
}

func NormalizeSpaceType(raw map[string]any) (SpaceType, bool) {
	st := SpaceType{
		ID:   normalization.String(raw, "id", "space_type_id", "spaceTypeId"),
		Name: normalization.String(raw, "name", "description"),
	}
	for _, item := range normalization.Objects(raw, "subtypes", "space_subtypes", "spaceSubtypes", "sub_types") {
		sub := SpaceSubtype{
			ID:          normalization.String(item, "id", "space_subtype_id", "spaceSubtypeId"),
			Name:        normalization.String(item, "name", "description"),
			SpaceTypeID: st.ID,
		}
		if sub.ID != "" && sub.Name != "" {
			st.Subtypes = append(st.Subtypes, sub)
		}
	}
	return st, st.ID != "" || len(st.Subtypes) > 0
}

func NormalizeExtra(raw map[string]any) (Extra, bool) {
	e := Extra{
		ID:    normalization.String(raw, "id", "extra_id", "extraId"),
		Name:  normalization.String(raw, "name", "description", "concept"),
		Price: normalization.Float(raw, "price", "unit_price"),
	}
	return e, e.ID != "" && e.Name != ""
}

func NormalizeInvoice(raw map[string]any) Invoice {
	return Invoice{
		ID:            normalization.String(raw, "id", "bill_id", "billId", "invoice_id"),
		Number:        normalization.String(raw, "number", "bill_number", "billNumber"),
		ReservationID: normalization.Int64(raw, "reservation_id", "reservationId"),
		Total:         normalization.Float(raw, "total", "amount", "total_amount", "totalAmount"),
	}
}

// OperatorFallback names an operator missing from every catalog.
func OperatorFallback(id string) string {
	if id == "" {
		return NotAvailableLabel
	}
	return "Operador " + id
}

// SpaceFallback names a room type missing from the space catalog.
func SpaceFallback(id string) string {
	if id == "" {
		return NotAvailableLabel
	}
	return "Type " + id
}

// RegimeFallback shows the raw régime code when the catalog lacks it.
func RegimeFallback(code string) string {
	if code == "" {
		return NotAvailableLabel
	}
	return code
}
