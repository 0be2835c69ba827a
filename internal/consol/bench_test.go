package consol

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func BenchmarkConsolidate(b *testing.B) {
	rows := make([]MovementRow, 0, 10000)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 10000; i++ {
		direction := "IN"
		if i%3 == 0 {
			direction = "OUT"
		}
		rows = append(rows, MovementRow{
			ItemID:     int64(i%200 + 1),
			ItemName:   fmt.Sprintf("Item %03d", i%200+1),
			Supplier:   fmt.Sprintf("Supplier %d", i%7),
			Direction:  direction,
			Quantity:   int64(i%50 + 1),
			OccurredAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
	svc := NewService(stubRepo{rows: rows})
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := svc.Consolidate(ctx, Filters{}); err != nil {
			b.Fatal(err)
		}
	}
}
