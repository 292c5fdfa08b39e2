package model

// Characteristic is a catalog entry scoped to a (type, brand) pair.
type Characteristic struct {
	ID      int64  `json:"idcarac" validate:"required,gt=0"`
	Label   string `json:"libelle"`
	TypeID  int64  `json:"idType,omitempty"`
	BrandID int64  `json:"idMarq,omitempty"`
}

// EquipmentCharacteristic is a characteristic attached to one equipment with its value.
type EquipmentCharacteristic struct {
	CharacteristicID int64  `json:"idcarac" validate:"required,gt=0"`
	Label            string `json:"libelle,omitempty"`
	Value            string `json:"valeur"`
}

// CharacteristicValue is one entry of a bulk attach.
type CharacteristicValue struct {
	CharacteristicID int64  `json:"idcarac"`
	Value            string `json:"valeur"`
}

// BulkCharacteristicRequest is the body of POST /CaracteristiqueEquipement/bulk.
type BulkCharacteristicRequest struct {
	EquipmentID     int64                 `json:"ideqpt"`
	Characteristics []CharacteristicValue `json:"caracteristiques"`
}

// Organ is a component catalog entry scoped to a (type, brand) pair.
type Organ struct {
	ID      int64  `json:"idorg" validate:"required,gt=0"`
	Label   string `json:"libelle"`
	TypeID  int64  `json:"idType,omitempty"`
	BrandID int64  `json:"idMarq,omitempty"`
}

// EquipmentOrgan is an organ mounted on one equipment.
type EquipmentOrgan struct {
	OrganID      int64  `json:"idorg" validate:"required,gt=0"`
	Label        string `json:"libelle,omitempty"`
	SerialNumber string `json:"numsérie"`
}

// OrganSerial is one entry of an organ attach request.
type OrganSerial struct {
	OrganID      int64  `json:"idorg"`
	SerialNumber string `json:"numsérie"`
}

// OrganAttachRequest is the body of POST /OrganeEquipement.
type OrganAttachRequest struct {
	EquipmentID int64         `json:"ideqpt"`
	Organs      []OrganSerial `json:"organes"`
}
