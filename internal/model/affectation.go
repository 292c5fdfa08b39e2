package model

// UnknownReference replaces decision and order numbers left blank.
const UnknownReference = "UNKNOWN"

// Affectation assigns an equipment to an organizational unit.
type Affectation struct {
	EquipmentID     int64  `json:"ideqpt" validate:"required,gt=0"`
	UnitID          int64  `json:"idunite" validate:"required,gt=0"`
	Date            Date   `json:"dateaffec"`
	DecisionNumber  string `json:"num_decision_affectation"`
	OrderNumber     string `json:"num_ordre"`
	UnitDesignation string `json:"uniteDesignation,omitempty"`
}

// WithDefaults fills blank references with UnknownReference.
func (a Affectation) WithDefaults() Affectation {
	if a.DecisionNumber == "" {
		a.DecisionNumber = UnknownReference
	}
	if a.OrderNumber == "" {
		a.OrderNumber = UnknownReference
	}
	return a
}
