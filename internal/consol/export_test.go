package consol

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteCSV(t *testing.T) {
	rows := []Row{
		{Date: "2026-03-02", ItemID: 1, ItemName: "Widget", Supplier: "Acme", InboundTotal: 15, OutboundTotal: 3},
		{Date: "2026-03-01", ItemID: 2, ItemName: "Bolt, coated", Supplier: "", InboundTotal: 0, OutboundTotal: 7},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rows))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, []string{"Date", "Item ID", "Item", "Supplier", "Inbound", "Outbound"}, records[0])
	require.Equal(t, []string{"2026-03-02", "1", "Widget", "Acme", "15", "3"}, records[1])
	// Commas in item names survive the round trip.
	require.Equal(t, "Bolt, coated", records[2][2])
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
}
