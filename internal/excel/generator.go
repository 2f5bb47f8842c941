package excel

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/nurpe/crm-contracts/internal/model"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) Generate(rows []model.ContractRegisterRow) ([]byte, error) {
	file := excelize.NewFile()

	sheet := "Contracts"
	file.SetSheetName("Sheet1", sheet)

	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	headers := []string{"ID", "Title", "Status", "Signers", "Fields", "Created", "Sent", "Expires"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		set(cell, header)
	}

	for i, row := range rows {
		line := i + 2
		set(fmt.Sprintf("A%d", line), row.ID)
		set(fmt.Sprintf("B%d", line), row.Title)
		set(fmt.Sprintf("C%d", line), row.Status)
		set(fmt.Sprintf("D%d", line), row.SignerCount)
		set(fmt.Sprintf("E%d", line), row.FieldCount)
		set(fmt.Sprintf("F%d", line), formatDate(&row.CreatedAt))
		set(fmt.Sprintf("G%d", line), formatDate(row.SentAt))
		set(fmt.Sprintf("H%d", line), formatDate(row.ExpiresAt))
	}

	_ = file.SetColWidth(sheet, "B", "B", 40)
	_ = file.SetColWidth(sheet, "F", "H", 14)

	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "—"
	}
	return t.Format("2006-01-02")
}
