package model

import "encoding/json"

type EquipmentType struct {
	ID          int64  `json:"idType" validate:"required,gt=0"`
	Designation string `json:"designation"`
}

// Category accepts both "design" and "designation" from the API.
type Category struct {
	ID          int64  `json:"idcategorie" validate:"required,gt=0"`
	Designation string `json:"design"`
}

func (c *Category) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID          int64  `json:"idcategorie"`
		Design      string `json:"design"`
		Designation string `json:"designation"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.ID = raw.ID
	c.Designation = raw.Design
	if c.Designation == "" {
		c.Designation = raw.Designation
	}
	return nil
}

type Brand struct {
	ID   int64  `json:"idMarq" validate:"required,gt=0"`
	Name string `json:"nom"`
}

type Unit struct {
	ID          int64  `json:"idunite" validate:"required,gt=0"`
	Designation string `json:"designation"`
}

// IdenticalGroup groups equipment sharing type and brand.
type IdenticalGroup struct {
	ID          int64  `json:"idGrpIdq" validate:"required,gt=0"`
	Designation string `json:"designation"`
	TypeID      int64  `json:"idType,omitempty"`
	BrandID     int64  `json:"idMarq,omitempty"`
}

// References bundles the lookup lists used to fill the equipment form.
type References struct {
	Types      []EquipmentType  `json:"types"`
	Categories []Category       `json:"categories"`
	Brands     []Brand          `json:"brands"`
	Units      []Unit           `json:"units"`
	Groups     []IdenticalGroup `json:"groups"`
}
