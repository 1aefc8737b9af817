package importer

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const reportSheet = "Unresolved"

// WriteReport saves the unresolved products as an .xlsx workbook for manual
// follow-up.
func WriteReport(filename string, unresolved []Unresolved) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", reportSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	headers := []string{"Name", "Category", "Subcategory", "URL"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(reportSheet, cell, header)
		f.SetCellStyle(reportSheet, cell, cell, headerStyle)
	}

	for i, u := range unresolved {
		row := i + 2
		f.SetCellValue(reportSheet, fmt.Sprintf("A%d", row), u.Name)
		f.SetCellValue(reportSheet, fmt.Sprintf("B%d", row), u.Category)
		f.SetCellValue(reportSheet, fmt.Sprintf("C%d", row), u.Subcategory)
		f.SetCellValue(reportSheet, fmt.Sprintf("D%d", row), u.URL)
	}

	f.SetColWidth(reportSheet, "A", "A", 45)
	f.SetColWidth(reportSheet, "B", "C", 30)
	f.SetColWidth(reportSheet, "D", "D", 60)

	if err := f.SaveAs(filename); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}
