package bingo

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"musicbingo/database"
	"musicbingo/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// markAll marks every open cell of the guest's card.
func markAll(t *testing.T, c *Coordinator) {
	t.Helper()
	for _, cell := range openCells(t, c) {
		require.NoError(t, c.Mark(context.Background(), cell[0], cell[1]))
	}
}

func joinedGuest(t *testing.T, store *testStore, name string, seed int64) (*Coordinator, string) {
	t.Helper()
	code, err := newHost(t, store).Create(context.Background(), makePlaylist(26))
	require.NoError(t, err)
	guest := newGuest(t, store, name, seed)
	require.NoError(t, guest.Join(context.Background(), code))
	return guest, code
}

func assertCountsConsistent(t *testing.T, players []models.Player) {
	t.Helper()
	for _, p := range players {
		assert.Equal(t, p.Card.CountMarked(), p.MarkedCount, "player %s", p.Name)
	}
}

func TestMark(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()
	guest, code := joinedGuest(t, store, "Ana", 2)

	cell := openCells(t, guest)[0]
	require.NoError(t, guest.Mark(ctx, cell[0], cell[1]))

	me, _ := guest.Snapshot().Me()
	assert.True(t, me.Card[cell[0]][cell[1]].Marked)
	assert.Equal(t, 2, me.MarkedCount)

	remote := store.session(t, code).Players[0]
	assert.True(t, remote.Card[cell[0]][cell[1]].Marked)
	assert.Equal(t, 2, remote.MarkedCount)
	assert.Equal(t, models.StatusInProgress, store.session(t, code).Status)
}

func TestMarkAlreadyMarkedIsNoop(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()
	guest, code := joinedGuest(t, store, "Ana", 2)

	cell := openCells(t, guest)[0]
	require.NoError(t, guest.Mark(ctx, cell[0], cell[1]))
	before := store.session(t, code)
	loads, saves := store.counts()

	require.NoError(t, guest.Mark(ctx, cell[0], cell[1]))

	loads2, saves2 := store.counts()
	assert.Equal(t, loads, loads2)
	assert.Equal(t, saves, saves2)
	assert.Equal(t, before, store.session(t, code))
}

func TestMarkRejects(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()

	assert.ErrorIs(t, newTestCoordinator(t, store, 1).Mark(ctx, 0, 0), ErrNotLoggedIn)
	assert.ErrorIs(t, newHost(t, store).Mark(ctx, 0, 0), ErrNotGuest)
	assert.ErrorIs(t, newGuest(t, store, "Ben", 3).Mark(ctx, 0, 0), ErrNoActiveGame)

	guest, _ := joinedGuest(t, store, "Ana", 2)
	assert.ErrorIs(t, guest.Mark(ctx, models.CenterRow, models.CenterCol), ErrFreeCell)
	for _, cell := range [][2]int{{-1, 0}, {0, -1}, {5, 0}, {0, 5}} {
		assert.ErrorIs(t, guest.Mark(ctx, cell[0], cell[1]), ErrInvalidCell)
	}
	me, _ := guest.Snapshot().Me()
	assert.Equal(t, 1, me.MarkedCount)
}

func TestMarkIsOptimistic(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()
	guest, _ := joinedGuest(t, store, "Ana", 2)
	cell := openCells(t, guest)[0]

	var during models.Player
	store.onSave(func() {
		during, _ = guest.Snapshot().Me()
	})
	require.NoError(t, guest.Mark(ctx, cell[0], cell[1]))

	assert.True(t, during.Card[cell[0]][cell[1]].Marked)
	assert.Equal(t, 2, during.MarkedCount)
}

func TestMarkAsync(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()
	guest, code := joinedGuest(t, store, "Ana", 2)
	cell := openCells(t, guest)[0]

	release := make(chan struct{})
	store.onSave(func() { <-release })

	result, err := guest.MarkAsync(ctx, cell[0], cell[1])
	require.NoError(t, err)
	me, _ := guest.Snapshot().Me()
	assert.True(t, me.Card[cell[0]][cell[1]].Marked)
	assert.False(t, store.session(t, code).Players[0].Card[cell[0]][cell[1]].Marked)

	close(release)
	assert.NoError(t, <-result)
	assert.True(t, store.session(t, code).Players[0].Card[cell[0]][cell[1]].Marked)

	// 既にマーク済み: チャネルはすぐ閉じる
	result, err = guest.MarkAsync(ctx, cell[0], cell[1])
	require.NoError(t, err)
	_, open := <-result
	assert.False(t, open)

	_, err = guest.MarkAsync(ctx, models.CenterRow, models.CenterCol)
	assert.ErrorIs(t, err, ErrFreeCell)
}

func TestMarkRollsBackOnStoreFailure(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()
	guest, code := joinedGuest(t, store, "Ana", 2)
	cell := openCells(t, guest)[0]
	before := guest.Snapshot()

	store.failSaves(errors.New("connection reset"))
	err := guest.Mark(ctx, cell[0], cell[1])
	require.Error(t, err)
	assert.True(t, database.IsStoreError(err))

	assert.Equal(t, before.Players, guest.Snapshot().Players)
	me, _ := guest.Snapshot().Me()
	assert.False(t, me.Card[cell[0]][cell[1]].Marked)
	assert.Equal(t, 1, me.MarkedCount)

	remote := store.session(t, code).Players[0]
	assert.False(t, remote.Card[cell[0]][cell[1]].Marked)
	assert.Equal(t, 1, remote.MarkedCount)

	notes := guest.Notifications()
	require.NotEmpty(t, notes)
	assert.Equal(t, models.NotifyError, notes[len(notes)-1].Kind)

	// 復旧後は同じマスをマークできる
	store.failSaves(nil)
	require.NoError(t, guest.Mark(ctx, cell[0], cell[1]))
	assert.True(t, store.session(t, code).Players[0].Card[cell[0]][cell[1]].Marked)
}

func TestMarkLoadFailure(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()
	guest, _ := joinedGuest(t, store, "Ana", 2)
	cell := openCells(t, guest)[0]

	store.failLoads(errors.New("timeout"))
	err := guest.Mark(ctx, cell[0], cell[1])
	assert.True(t, database.IsStoreError(err))
	me, _ := guest.Snapshot().Me()
	assert.Equal(t, 1, me.MarkedCount)
}

func TestMarkSkipsPendingCells(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()
	guest, code := joinedGuest(t, store, "Ana", 2)
	cells := openCells(t, guest)

	first, err := guest.applyMark(cells[0][0], cells[0][1])
	require.NoError(t, err)
	second, err := guest.applyMark(cells[1][0], cells[1][1])
	require.NoError(t, err)

	require.NoError(t, guest.persistMark(ctx, second))
	remote := store.session(t, code).Players[0]
	assert.False(t, remote.Card[cells[0][0]][cells[0][1]].Marked)
	assert.True(t, remote.Card[cells[1][0]][cells[1][1]].Marked)
	assert.Equal(t, 2, remote.MarkedCount)

	store.failSaves(errors.New("unavailable"))
	require.Error(t, guest.persistMark(ctx, first))

	me, _ := guest.Snapshot().Me()
	assert.False(t, me.Card[cells[0][0]][cells[0][1]].Marked)
	assert.True(t, me.Card[cells[1][0]][cells[1][1]].Marked)
	assert.Equal(t, 2, me.MarkedCount)
	assert.Equal(t, me, store.session(t, code).Players[0])
}

func TestMarkedCountStaysConsistent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()
	guest, code := joinedGuest(t, store, "Ana", 2)
	rnd := rand.New(rand.NewSource(5))

	for i := 0; i < 60; i++ {
		if rnd.Intn(3) == 0 {
			store.failSaves(errors.New("flaky"))
		} else {
			store.failSaves(nil)
		}
		_ = guest.Mark(ctx, rnd.Intn(models.GridSize), rnd.Intn(models.GridSize))

		assertCountsConsistent(t, guest.Snapshot().Players)
		assertCountsConsistent(t, store.session(t, code).Players)
		if guest.Snapshot().Status == models.StatusFinished {
			break
		}
	}
}

func TestMarkWin(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()
	guest, code := joinedGuest(t, store, "Ana", 2)

	cells := openCells(t, guest)
	require.Len(t, cells, models.CardTracks)
	for _, cell := range cells[:len(cells)-1] {
		require.NoError(t, guest.Mark(ctx, cell[0], cell[1]))
	}
	assert.Equal(t, models.StatusInProgress, store.session(t, code).Status)
	assert.Equal(t, models.ScreenGameBoard, guest.Snapshot().Screen)

	last := cells[len(cells)-1]
	require.NoError(t, guest.Mark(ctx, last[0], last[1]))

	session := store.session(t, code)
	assert.Equal(t, models.StatusFinished, session.Status)
	assert.Equal(t, models.FullMarks, session.Players[0].MarkedCount)

	v := guest.Snapshot()
	assert.Equal(t, models.ScreenWinner, v.Screen)
	assert.Equal(t, models.StatusFinished, v.Status)
	require.NotNil(t, v.Winner)
	assert.Equal(t, "Ana", v.Winner.Name)

	assert.ErrorIs(t, guest.Mark(ctx, last[0], last[1]), ErrSessionEnded)
	assert.ErrorIs(t, guest.Navigate(models.ScreenHome), ErrInvalidScreen)
}

func TestMarkAfterRemoteFinish(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()
	host := newHost(t, store)
	code, err := host.Create(ctx, makePlaylist(30))
	require.NoError(t, err)

	ana := newGuest(t, store, "Ana", 2)
	require.NoError(t, ana.Join(ctx, code))
	ben := newGuest(t, store, "Ben", 3)
	require.NoError(t, ben.Join(ctx, code))

	markAll(t, ana)

	cell := openCells(t, ben)[0]
	err = ben.Mark(ctx, cell[0], cell[1])
	assert.ErrorIs(t, err, ErrSessionEnded)

	v := ben.Snapshot()
	assert.Equal(t, models.ScreenWinner, v.Screen)
	require.NotNil(t, v.Winner)
	assert.Equal(t, "Ana", v.Winner.Name)
	me, _ := v.Me()
	assert.Equal(t, 1, me.MarkedCount)

	session := store.session(t, code)
	assert.Equal(t, 1, session.Players[1].MarkedCount)
	winner, ok := session.Winner()
	require.True(t, ok)
	assert.Equal(t, "Ana", winner.Name)
}

func TestMarkAfterSessionDeleted(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()
	host := newHost(t, store)
	code, err := host.Create(ctx, makePlaylist(26))
	require.NoError(t, err)
	guest := newGuest(t, store, "Ana", 2)
	require.NoError(t, guest.Join(ctx, code))

	require.NoError(t, host.Reset(ctx))

	cell := openCells(t, guest)[0]
	assert.ErrorIs(t, guest.Mark(ctx, cell[0], cell[1]), ErrSessionVanished)
	me, _ := guest.Snapshot().Me()
	assert.Equal(t, 1, me.MarkedCount)
	assert.Nil(t, store.session(t, code))
}

func TestMarkAfterPlayerRemoved(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()
	guest, code := joinedGuest(t, store, "Ana", 2)

	table, err := store.MemoryStore.Load(ctx)
	require.NoError(t, err)
	table[code].Players = []models.Player{}
	require.NoError(t, store.MemoryStore.Save(ctx, table))

	cell := openCells(t, guest)[0]
	assert.ErrorIs(t, guest.Mark(ctx, cell[0], cell[1]), ErrPlayerMissing)
	assert.Empty(t, store.session(t, code).Players)
}
