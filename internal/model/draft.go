package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// EquipmentDraft is the equipment form as submitted by the console.
// A non-zero EquipmentID puts the submission in edit mode.
type EquipmentDraft struct {
	EquipmentID      int64            `json:"idEqpt,omitempty"`
	Design           string           `json:"design" validate:"notblank"`
	State            string           `json:"etat" validate:"notblank,equipment_state"`
	TypeID           int64            `json:"idType" validate:"required,gt=0"`
	CategoryID       int64            `json:"idCat" validate:"required,gt=0"`
	BrandID          int64            `json:"idMarq" validate:"required,gt=0"`
	GroupID          *int64           `json:"idGrpIdq,omitempty"`
	SerialNumber     string           `json:"numSerie,omitempty"`
	Position         string           `json:"position,omitempty"`
	ServiceDate      *Date            `json:"dateMiseService,omitempty"`
	ManufactureYear  *int             `json:"AnnéeFabrication,omitempty" validate:"omitempty,gte=1900,lte=2100"`
	AcquisitionDate  *Date            `json:"dateAcquisition,omitempty"`
	AcquisitionValue *decimal.Decimal `json:"valeurAcquisition,omitempty"`
	UnitID           *int64           `json:"idunite,omitempty"`
	Observation      string           `json:"observation,omitempty"`

	Characteristics []CharacteristicSelection `json:"caracteristiques,omitempty"`
	Organs          []OrganSelection          `json:"organes,omitempty"`
	Assignment      *AssignmentDraft          `json:"affectation,omitempty"`
}

// CharacteristicSelection is one checkbox of the characteristics panel.
type CharacteristicSelection struct {
	CharacteristicID int64  `json:"idcarac"`
	Selected         bool   `json:"selected"`
	Value            string `json:"valeur"`
}

// OrganSelection is one checkbox of the organs panel.
type OrganSelection struct {
	OrganID      int64  `json:"idorg"`
	Selected     bool   `json:"selected"`
	SerialNumber string `json:"numsérie"`
}

// AssignmentDraft holds the optional unit assignment fields.
type AssignmentDraft struct {
	UnitID         int64  `json:"idunite"`
	Date           *Date  `json:"dateaffec,omitempty"`
	DecisionNumber string `json:"num_decision_affectation,omitempty"`
	OrderNumber    string `json:"num_ordre,omitempty"`
}

// IsEdit reports whether the draft updates an existing equipment.
func (d EquipmentDraft) IsEdit() bool {
	return d.EquipmentID != 0
}

// Payload returns the body of the create or update call.
func (d EquipmentDraft) Payload() EquipmentPayload {
	return EquipmentPayload{
		TypeID:           d.TypeID,
		CategoryID:       d.CategoryID,
		BrandID:          d.BrandID,
		Design:           strings.TrimSpace(d.Design),
		GroupID:          d.GroupID,
		State:            d.State,
		SerialNumber:     d.SerialNumber,
		Position:         d.Position,
		ServiceDate:      d.ServiceDate,
		ManufactureYear:  d.ManufactureYear,
		AcquisitionDate:  d.AcquisitionDate,
		AcquisitionValue: d.AcquisitionValue,
		UnitID:           d.UnitID,
		Observation:      d.Observation,
	}
}

// SelectedCharacteristics returns the checked characteristics that carry a value.
func (d EquipmentDraft) SelectedCharacteristics() []CharacteristicValue {
	var out []CharacteristicValue
	for _, c := range d.Characteristics {
		value := strings.TrimSpace(c.Value)
		if c.Selected && value != "" {
			out = append(out, CharacteristicValue{CharacteristicID: c.CharacteristicID, Value: value})
		}
	}
	return out
}

// SelectedOrgans returns the checked organs.
func (d EquipmentDraft) SelectedOrgans() []OrganSerial {
	var out []OrganSerial
	for _, o := range d.Organs {
		if o.Selected {
			out = append(out, OrganSerial{OrganID: o.OrganID, SerialNumber: strings.TrimSpace(o.SerialNumber)})
		}
	}
	return out
}

// AssignmentFor builds the affectation request for equipmentID. ok is false
// unless both a unit and a date were chosen.
func (d EquipmentDraft) AssignmentFor(equipmentID int64) (Affectation, bool) {
	a := d.Assignment
	if a == nil || a.UnitID == 0 || a.Date == nil || a.Date.IsZero() {
		return Affectation{}, false
	}
	return Affectation{
		EquipmentID:    equipmentID,
		UnitID:         a.UnitID,
		Date:           *a.Date,
		DecisionNumber: strings.TrimSpace(a.DecisionNumber),
		OrderNumber:    strings.TrimSpace(a.OrderNumber),
	}.WithDefaults(), true
}
