package infrastructure

import (
	"context"
	"sync"
	"testing"
	"time"

	"lotto/domain/entities"
	"lotto/domain/events"
	"lotto/domain/interfaces"
	"lotto/domain/services"
	"lotto/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func persistDraw(t *testing.T, factory interfaces.UnitOfWorkFactory, numbers []int64) *entities.Draw {
	t.Helper()
	ctx := context.Background()

	uow := factory.Create()
	require.NoError(t, uow.Begin(ctx))
	defer uow.Rollback()

	draw, err := uow.DrawRepository().Create(ctx, numbers)
	require.NoError(t, err)
	require.NoError(t, uow.EventBus().Publish(events.DrawEvent{DrawID: draw.ID, Numbers: draw.Numbers, Time: draw.CreatedAt}))
	require.NoError(t, uow.Commit())
	return draw
}

func nextEvent(t *testing.T, sub *Subscription) events.Event {
	t.Helper()
	select {
	case e := <-sub.Events():
		return e
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestLedger_EndToEndRound(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	broadcaster := NewBroadcaster(nil)
	sub, err := broadcaster.Subscribe("test", 64)
	require.NoError(t, err)

	factory := NewUnitOfWorkFactory(testDB.DB, broadcaster)
	ledger := services.NewBetLedger(factory)
	settlement := services.NewSettlementService(factory)

	player := testutil.CreateTestPlayer(t, testDB.DB, 100)

	placed, err := ledger.PlaceBet(ctx, player.ID, []int64{7, 8, 9})
	require.NoError(t, err)
	assert.Equal(t, int64(85), placed.Balance)

	draw := persistDraw(t, factory, []int64{7, 8, 9, 40, 50})

	snapshot, err := ledger.ActiveBetsForSettlement(ctx, draw.CreatedAt)
	require.NoError(t, err)
	require.Len(t, snapshot, 1)

	report, err := settlement.SettleDraw(ctx, draw, snapshot)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Settled)
	assert.Equal(t, int64(30), report.TotalPayout)
	assert.Equal(t, int64(115), testutil.PlayerPoints(t, testDB.DB, player.ID))

	// Re-running the same snapshot must not credit again
	again, err := settlement.SettleDraw(ctx, draw, snapshot)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Settled)
	assert.Equal(t, 1, again.Anomalies)
	assert.Equal(t, int64(115), testutil.PlayerPoints(t, testDB.DB, player.ID))

	last, err := ledger.GetLastSettledNumbers(ctx, player.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{7, 8, 9}, last)

	var seen []events.EventType
	var result events.SettlementResultEvent
	for len(seen) < 5 {
		e := nextEvent(t, sub)
		seen = append(seen, e.Type())
		if r, ok := e.(events.SettlementResultEvent); ok {
			result = r
		}
	}
	assert.Equal(t, []events.EventType{
		events.EventTypeBalanceChange,
		events.EventTypeBetPlaced,
		events.EventTypeDraw,
		events.EventTypeBalanceChange,
		events.EventTypeSettlementResult,
	}, seen)
	assert.Equal(t, int64(115), result.Balance)
	assert.Equal(t, 3, result.CorrectCount)
}

func TestLedger_ConcurrentPlacementKeepsOneActiveBet(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	factory := NewUnitOfWorkFactory(testDB.DB, NewNoopEventPublisher())
	ledger := services.NewBetLedger(factory)

	player := testutil.CreateTestPlayer(t, testDB.DB, 100)

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := int64(1); i <= 10; i++ {
		wg.Add(1)
		go func(n int64) {
			defer wg.Done()
			numbers := []int64{n}
			if n%2 == 0 {
				numbers = append(numbers, n+20)
			}
			_, err := ledger.PlaceBet(ctx, player.ID, numbers)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}

	assert.Equal(t, 1, testutil.CountActiveBets(t, testDB.DB, player.ID))

	active, err := ledger.GetActiveBet(ctx, player.ID)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, 100-active.Cost, testutil.PlayerPoints(t, testDB.DB, player.ID))
}

func TestLedger_CancelRestoresBalance(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	factory := NewUnitOfWorkFactory(testDB.DB, NewNoopEventPublisher())
	ledger := services.NewBetLedger(factory)

	player := testutil.CreateTestPlayer(t, testDB.DB, 100)

	_, err := ledger.PlaceBet(ctx, player.ID, []int64{1, 2})
	require.NoError(t, err)
	replaced, err := ledger.PlaceBet(ctx, player.ID, []int64{3, 4, 5})
	require.NoError(t, err)
	assert.Equal(t, int64(85), replaced.Balance)

	first, err := ledger.CancelActiveBet(ctx, player.ID)
	require.NoError(t, err)
	assert.True(t, first.Cancelled)
	assert.Equal(t, int64(100), first.Player.Points)

	second, err := ledger.CancelActiveBet(ctx, player.ID)
	require.NoError(t, err)
	assert.False(t, second.Cancelled)
	assert.Equal(t, int64(100), second.Player.Points)

	assert.Equal(t, 0, testutil.CountActiveBets(t, testDB.DB, player.ID))
}
