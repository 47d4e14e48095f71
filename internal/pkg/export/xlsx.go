// Package export renders plan listings as spreadsheets for the back office.
package export

import (
	"io"
	"iter"

	"github.com/xuri/excelize/v2"

	"github.com/palmmill/backoffice/internal/pkg/ledger"
)

// SheetName is the worksheet holding the plan rows.
const SheetName = "Plans"

var header = []any{
	"ID", "Date", "Goods code", "Goods name", "Category", "Load amount",
	"Customer", "Recipient", "Vehicle", "Driver", "Status", "Certificate", "Inspected", "Remarks",
}

// WritePlans streams seq into an xlsx workbook and writes it to w. Rows go
// through excelize's stream writer, which spills to a temp file on large
// sheets. Nothing is written to w when seq fails.
func WritePlans(w io.Writer, seq iter.Seq2[ledger.EnrichedPlan, error]) (int, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return 0, err
	}
	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return 0, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return 0, err
	}
	if err := sw.SetColWidth(4, 4, 28); err != nil {
		return 0, err
	}
	if err := sw.SetRow("A1", header, excelize.RowOpts{StyleID: bold}); err != nil {
		return 0, err
	}

	rows := 0
	for p, err := range seq {
		if err != nil {
			return rows, err
		}
		rows++
		cell, err := excelize.CoordinatesToCellName(1, rows+1)
		if err != nil {
			return rows, err
		}
		certificate := ""
		if p.CertificateNumber != nil {
			certificate = *p.CertificateNumber
		}
		inspected := "no"
		if p.IsInspected {
			inspected = "yes"
		}
		if err := sw.SetRow(cell, []any{
			p.ID,
			p.OccurredAt.Format("2006-01-02"),
			p.GoodsCode,
			p.GoodsName,
			string(p.Category),
			p.LoadAmount.InexactFloat64(),
			p.CustomerID,
			p.Recipient,
			p.VehicleNo,
			p.DriverName,
			string(p.Status),
			certificate,
			inspected,
			p.Remarks,
		}); err != nil {
			return rows, err
		}
	}
	if err := sw.Flush(); err != nil {
		return rows, err
	}
	_, err = f.WriteTo(w)
	return rows, err
}
