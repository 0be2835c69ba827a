package alerts

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	entries []Entry
}

func (r stubRepo) LowStock(ctx context.Context) ([]Entry, error) {
	return r.entries, nil
}

func TestLowStockWorklist(t *testing.T) {
	repo := stubRepo{entries: []Entry{
		{ItemID: 2, SKU: "BLT-1", Name: "Bolt", OnHand: 0, ReorderThreshold: 20, Deficit: 20},
		{ItemID: 1, SKU: "WID-1", Name: "Widget", OnHand: 5, ReorderThreshold: 10, Deficit: 5},
	}}
	svc := NewService(repo, nil)

	entries, err := svc.LowStock(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, int64(20), entries[0].Deficit)
}

func TestPublishDelivers(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	svc := NewService(stubRepo{}, client)
	ctx := context.Background()

	sub := client.Subscribe(ctx, Channel)
	defer func() { _ = sub.Close() }()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	entries := []Entry{{ItemID: 1, SKU: "WID-1", Name: "Widget", OnHand: 5, ReorderThreshold: 10, Deficit: 5}}
	require.NoError(t, svc.Publish(ctx, entries))

	select {
	case msg := <-sub.Channel():
		var got []Entry
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		require.Len(t, got, 1)
		require.Equal(t, "WID-1", got[0].SKU)
	case <-time.After(2 * time.Second):
		t.Fatal("no alert message received")
	}
}

func TestPublishWithoutRedisIsNoop(t *testing.T) {
	svc := NewService(stubRepo{}, nil)
	require.NoError(t, svc.Publish(context.Background(), []Entry{{ItemID: 1}}))
}
