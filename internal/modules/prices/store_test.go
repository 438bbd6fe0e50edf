package prices

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esfolk/DefiHedge/internal/domain"
	testingpkg "github.com/esfolk/DefiHedge/internal/testing"
)

func TestHistoryStore_SaveAndRead(t *testing.T) {
	store := NewHistoryStore(testingpkg.NewTestDB(t, "history"), zerolog.Nop())
	ctx := context.Background()

	days := testingpkg.Days(testNow, 5)
	closes := []domain.DailyClose{
		{Date: days[0], Close: 100},
		{Date: days[1], Close: 101},
		{Date: days[2], Close: 102},
		{Date: days[3], Close: 103},
		{Date: days[4], Close: 104},
	}
	require.NoError(t, store.SaveCloses(ctx, "ETH-USD", days[0], days[4], closes, testNow))

	got, err := store.GetCloses(ctx, "ETH-USD", days[1], days[3])
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, days[1], got[0].Date)
	assert.Equal(t, 103.0, got[2].Close)

	// Upsert overwrites existing days
	require.NoError(t, store.SaveCloses(ctx, "ETH-USD", days[0], days[4],
		[]domain.DailyClose{{Date: days[4], Close: 200}}, testNow))
	got, err = store.GetCloses(ctx, "ETH-USD", days[4], days[4])
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 200.0, got[0].Close)
}

func TestHistoryStore_LastFetch(t *testing.T) {
	store := NewHistoryStore(testingpkg.NewTestDB(t, "history"), zerolog.Nop())
	ctx := context.Background()

	record, err := store.LastFetch(ctx, "BTC-USD")
	require.NoError(t, err)
	assert.Nil(t, record)

	days := testingpkg.Days(testNow, 10)
	require.NoError(t, store.SaveCloses(ctx, "BTC-USD", days[0], days[9], nil, testNow))

	record, err = store.LastFetch(ctx, "BTC-USD")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, days[0], record.Start)
	assert.Equal(t, days[9], record.End)
	assert.Equal(t, testNow.Unix(), record.FetchedAt.Unix())

	assert.True(t, record.Covers(days[2], days[9]))
	assert.False(t, record.Covers(days[0].AddDate(0, 0, -1), days[9]))
	assert.False(t, record.Covers(days[0], days[9].Add(24*time.Hour)))
}

func TestHistoryStore_PruneBefore(t *testing.T) {
	store := NewHistoryStore(testingpkg.NewTestDB(t, "history"), zerolog.Nop())
	ctx := context.Background()

	days := testingpkg.Days(testNow, 4)
	closes := []domain.DailyClose{
		{Date: days[0], Close: 1}, {Date: days[1], Close: 1}, {Date: days[2], Close: 1}, {Date: days[3], Close: 1},
	}
	require.NoError(t, store.SaveCloses(ctx, "USDC-USD", days[0], days[3], closes, testNow))

	removed, err := store.PruneBefore(ctx, days[2])
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	got, err := store.GetCloses(ctx, "USDC-USD", days[0], days[3])
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
