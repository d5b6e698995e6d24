package service

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bus-tracker/internal/model"
)

func newTestPositionService(store *memStore, n Notifier) *PositionService {
	svc := NewPositionService(fakeBusRepo{store}, fakePositionRepo{store}, n)
	svc.now = func() time.Time { return buildAt }
	return svc
}

func TestPositionService_RecordStoresAndNotifies(t *testing.T) {
	store := newMemStore()
	store.addBus(model.Bus{ID: 3, BusID: "bus-3"})
	notifier := &recordingNotifier{}
	svc := newTestPositionService(store, notifier)

	sample, err := svc.Record(context.Background(), 3, 41.0082, 28.9784)
	require.NoError(t, err)
	assert.Equal(t, int64(3), sample.BusID)
	assert.Equal(t, "41.00820000", sample.Latitude)
	assert.Equal(t, "28.97840000", sample.Longitude)
	assert.Equal(t, buildAt, sample.Timestamp)
	assert.Equal(t, []int64{3}, notifier.Calls())

	latest, err := svc.Latest(context.Background(), 3)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, sample.ID, latest.ID)
}

func TestPositionService_UnknownBus(t *testing.T) {
	notifier := &recordingNotifier{}
	svc := newTestPositionService(newMemStore(), notifier)

	_, err := svc.Record(context.Background(), 3, 1, 1)
	assert.ErrorIs(t, err, ErrBusNotFound)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, notifier.Calls())
}

func TestPositionService_RejectsInvalidCoordinates(t *testing.T) {
	store := newMemStore()
	store.addBus(model.Bus{ID: 3})
	svc := newTestPositionService(store, nil)

	cases := []struct {
		name     string
		lat, lon float64
	}{
		{name: "latitude too large", lat: 91, lon: 0},
		{name: "longitude too small", lat: 0, lon: -181},
		{name: "nan", lat: math.NaN(), lon: 0},
		{name: "inf", lat: 0, lon: math.Inf(1)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Record(context.Background(), 3, tc.lat, tc.lon)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
	assert.Empty(t, store.positions)
}

func TestPositionService_LatestWithoutSamples(t *testing.T) {
	store := newMemStore()
	store.addBus(model.Bus{ID: 3})

	latest, err := newTestPositionService(store, nil).Latest(context.Background(), 3)
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestPositionService_RecordByCode(t *testing.T) {
	store := newMemStore()
	store.addBus(model.Bus{ID: 3, BusID: "SCH-03"})
	notifier := &recordingNotifier{}
	svc := newTestPositionService(store, notifier)

	sample, err := svc.RecordByCode(context.Background(), " sch 03 ", 10, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(3), sample.BusID)
	assert.Equal(t, []int64{3}, notifier.Calls())

	_, err = svc.RecordByCode(context.Background(), "nope", 10, 20)
	assert.ErrorIs(t, err, ErrBusNotFound)

	_, err = svc.RecordByCode(context.Background(), "  ", 10, 20)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
