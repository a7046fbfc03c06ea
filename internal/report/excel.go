package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

func (e *Exporter) writeWorkbook(snap Snapshot) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Fetchers"
	f.NewSheet(sheet)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	headers := []string{"Fetcher ID", "Plugin ID", "Created At", "Last Accessed At"}
	for i, h := range headers {
		cell := fmt.Sprintf("%s1", string(rune('A'+i)))
		f.SetCellValue(sheet, cell, h)
	}
	f.SetCellStyle(sheet, "A1", "D1", headerStyle)

	for i, fc := range snap.Fetchers {
		row := i + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), fc.FetcherID)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), fc.FetcherClass)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), fc.CreatedAt.Format("2006-01-02 15:04:05"))
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), fc.LastAccessedAt.Format("2006-01-02 15:04:05"))
	}

	f.SetColWidth(sheet, "A", "D", 24)

	return f.SaveAs(e.workbookPath(snap))
}
