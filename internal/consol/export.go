package consol

import (
	"encoding/csv"
	"io"
	"strconv"
)

// WriteCSV serialises consolidated rows to CSV.
func WriteCSV(w io.Writer, rows []Row) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Date", "Item ID", "Item", "Supplier", "Inbound", "Outbound"}); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{
			row.Date,
			strconv.FormatInt(row.ItemID, 10),
			row.ItemName,
			row.Supplier,
			strconv.FormatInt(row.InboundTotal, 10),
			strconv.FormatInt(row.OutboundTotal, 10),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
