package model

import (
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"
)

// EquipmentFilter is the query of GET /equipement. Only non-empty fields
// become query parameters.
type EquipmentFilter struct {
	CategoryID       *int64
	State            string
	BrandID          *int64
	TypeID           *int64
	GroupID          *int64
	ServiceDate      *Date
	ManufactureYear  *int
	AcquisitionDate  *Date
	AcquisitionValue *decimal.Decimal
	Search           string
	SortBy           string
	Ascending        *bool
}

// Values builds the query string parameters.
func (f EquipmentFilter) Values() url.Values {
	v := url.Values{}
	if f.Search != "" {
		v.Set("searchTerm", f.Search)
	}
	if f.SortBy != "" {
		v.Set("sortBy", f.SortBy)
	}
	if f.Ascending != nil {
		v.Set("ascending", strconv.FormatBool(*f.Ascending))
	}
	setInt64(v, "idCat", f.CategoryID)
	if f.State != "" {
		v.Set("etat", f.State)
	}
	setInt64(v, "idMarq", f.BrandID)
	setInt64(v, "idType", f.TypeID)
	setInt64(v, "idGrpIdq", f.GroupID)
	if f.ServiceDate != nil && !f.ServiceDate.IsZero() {
		v.Set("dateMiseService", f.ServiceDate.String())
	}
	if f.ManufactureYear != nil {
		v.Set("anneeFabrication", strconv.Itoa(*f.ManufactureYear))
	}
	if f.AcquisitionDate != nil && !f.AcquisitionDate.IsZero() {
		v.Set("dateAcquisition", f.AcquisitionDate.String())
	}
	if f.AcquisitionValue != nil {
		v.Set("valeurAcquisition", f.AcquisitionValue.String())
	}
	return v
}

func setInt64(v url.Values, key string, value *int64) {
	if value != nil {
		v.Set(key, strconv.FormatInt(*value, 10))
	}
}
