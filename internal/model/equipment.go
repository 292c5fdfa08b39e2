package model

import (
	"github.com/shopspring/decimal"
)

func init() {
	// The remote API expects acquisition values as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// Equipment is a tracked physical asset as returned by the remote API.
// The *Designation and BrandName fields are display values the server may
// fill next to the foreign keys.
type Equipment struct {
	ID                  int64            `json:"idEqpt" validate:"required,gt=0"`
	TypeID              int64            `json:"idType" validate:"gte=0"`
	TypeDesignation     string           `json:"typeDesignation,omitempty"`
	CategoryID          int64            `json:"idCat" validate:"gte=0"`
	CategoryDesignation string           `json:"categorieDesignation,omitempty"`
	BrandID             int64            `json:"idMarq" validate:"gte=0"`
	BrandName           string           `json:"marqueNom,omitempty"`
	Code                string           `json:"codeEqp"`
	Design              string           `json:"design"`
	GroupID             *int64           `json:"idGrpIdq,omitempty"`
	GroupDesignation    string           `json:"groupeIdentiqueDesignation,omitempty"`
	State               string           `json:"etat,omitempty"`
	SerialNumber        string           `json:"numSerie,omitempty"`
	Position            string           `json:"position,omitempty"`
	ServiceDate         *Date            `json:"dateMiseService,omitempty"`
	ManufactureYear     *int             `json:"AnnéeFabrication,omitempty"`
	AcquisitionDate     *Date            `json:"dateAcquisition,omitempty"`
	AcquisitionValue    *decimal.Decimal `json:"valeurAcquisition,omitempty"`
	UnitID              *int64           `json:"idunite,omitempty"`
	UnitDesignation     string           `json:"uniteDesignation,omitempty"`
	Observation         string           `json:"observation,omitempty"`
}

// EquipmentPayload is the body of POST and PUT /equipement.
// Optional fields are omitted when absent, never sent as null.
type EquipmentPayload struct {
	TypeID           int64            `json:"idType"`
	CategoryID       int64            `json:"idCat"`
	BrandID          int64            `json:"idMarq"`
	Design           string           `json:"design"`
	GroupID          *int64           `json:"idGrpIdq,omitempty"`
	State            string           `json:"etat,omitempty"`
	SerialNumber     string           `json:"numSerie,omitempty"`
	Position         string           `json:"position,omitempty"`
	ServiceDate      *Date            `json:"dateMiseService,omitempty"`
	ManufactureYear  *int             `json:"AnnéeFabrication,omitempty"`
	AcquisitionDate  *Date            `json:"dateAcquisition,omitempty"`
	AcquisitionValue *decimal.Decimal `json:"valeurAcquisition,omitempty"`
	UnitID           *int64           `json:"idunite,omitempty"`
	Observation      string           `json:"observation,omitempty"`
}

type (
	CreateEquipment = EquipmentPayload
	UpdateEquipment = EquipmentPayload
)

// Payload returns the writable part of e, used to prefill an edit form.
func (e Equipment) Payload() EquipmentPayload {
	return EquipmentPayload{
		TypeID:           e.TypeID,
		CategoryID:       e.CategoryID,
		BrandID:          e.BrandID,
		Design:           e.Design,
		GroupID:          e.GroupID,
		State:            e.State,
		SerialNumber:     e.SerialNumber,
		Position:         e.Position,
		ServiceDate:      e.ServiceDate,
		ManufactureYear:  e.ManufactureYear,
		AcquisitionDate:  e.AcquisitionDate,
		AcquisitionValue: e.AcquisitionValue,
		UnitID:           e.UnitID,
		Observation:      e.Observation,
	}
}

// Equipment returns p as the equipment stored under id.
func (p EquipmentPayload) Equipment(id int64) Equipment {
	return Equipment{
		ID:               id,
		TypeID:           p.TypeID,
		CategoryID:       p.CategoryID,
		BrandID:          p.BrandID,
		Design:           p.Design,
		GroupID:          p.GroupID,
		State:            p.State,
		SerialNumber:     p.SerialNumber,
		Position:         p.Position,
		ServiceDate:      p.ServiceDate,
		ManufactureYear:  p.ManufactureYear,
		AcquisitionDate:  p.AcquisitionDate,
		AcquisitionValue: p.AcquisitionValue,
		UnitID:           p.UnitID,
		Observation:      p.Observation,
	}
}
