package export

import (
	"fmt"
	"io"
	"time"

	"equipment-console/internal/model"

	"github.com/xuri/excelize/v2"
)

const (
	SheetName   = "Equipements"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var equipmentHeaders = []string{
	"ID", "Code", "Désignation", "Type", "Catégorie", "Marque", "Groupe", "État",
	"N° de série", "Position", "Mise en service", "Année de fabrication",
	"Date d'acquisition", "Valeur d'acquisition", "Unité", "Observation",
}

// FileName returns the attachment name of an export made at t.
func FileName(t time.Time) string {
	return fmt.Sprintf("equipements_%s.xlsx", t.Format("2006-01-02"))
}

func equipmentRow(e model.Equipment) []interface{} {
	var serviceDate, acquisitionDate string
	if e.ServiceDate != nil {
		serviceDate = e.ServiceDate.String()
	}
	if e.AcquisitionDate != nil {
		acquisitionDate = e.AcquisitionDate.String()
	}
	var year, value interface{}
	if e.ManufactureYear != nil {
		year = *e.ManufactureYear
	}
	if e.AcquisitionValue != nil {
		value = e.AcquisitionValue.InexactFloat64()
	}
	return []interface{}{
		e.ID, e.Code, e.Design, e.TypeDesignation, e.CategoryDesignation, e.BrandName,
		e.GroupDesignation, e.State, e.SerialNumber, e.Position, serviceDate, year,
		acquisitionDate, value, e.UnitDesignation, e.Observation,
	}
}

// WriteEquipments renders items as an xlsx workbook with a bold header row.
func WriteEquipments(w io.Writer, items []model.Equipment) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := f.SetSheetRow(SheetName, "A1", &equipmentHeaders); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(equipmentHeaders))
	if err := f.SetCellStyle(SheetName, "A1", lastCol+"1", style); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, item := range items {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := equipmentRow(item)
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	f.SetColWidth(SheetName, "B", "C", 25)
	f.SetColWidth(SheetName, "D", "H", 18)
	f.SetColWidth(SheetName, "P", "P", 40)

	return f.Write(w)
}
