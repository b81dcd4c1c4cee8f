package tracker_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/wonny/bazaar/internal/contracts"
	"github.com/wonny/bazaar/internal/tracker"
)

func TestDispatch(t *testing.T) {
	f := newFixture(t)
	f.source.EXPECT().FetchSnapshot(gomock.Any()).Return(marketSnapshot(), nil)
	ctx := context.Background()

	result, err := f.tracker.Dispatch(ctx, tracker.Command{Type: tracker.CommandRefresh})
	require.NoError(t, err)
	assert.Equal(t, "cycle-1", result.State.CycleID)
	assert.Nil(t, result.Detail)

	result, err = f.tracker.Dispatch(ctx, tracker.Command{Type: tracker.CommandSetSearch, Term: "sword"})
	require.NoError(t, err)
	assert.Equal(t, "sword", result.State.SearchTerm)

	result, err = f.tracker.Dispatch(ctx, tracker.Command{Type: tracker.CommandSetSort, Sort: "name"})
	require.NoError(t, err)
	assert.Equal(t, contracts.SortName, result.State.SortKey)
	assert.Equal(t, []string{"DIAMOND_SWORD", "WOODEN_SWORD"}, ids(result.State.View))

	result, err = f.tracker.Dispatch(ctx, tracker.Command{Type: tracker.CommandShowDetail, ID: "ENCHANTED_DIAMOND"})
	require.NoError(t, err)
	require.NotNil(t, result.Detail)
	assert.Equal(t, contracts.MarginPositive, result.Detail.Class)
	assert.Equal(t, int64(30), result.Detail.Volume)
}

func TestDispatch_ShowDetailUnknownIsNoop(t *testing.T) {
	f := newFixture(t)

	before := f.tracker.State()
	result, err := f.tracker.Dispatch(context.Background(), tracker.Command{Type: tracker.CommandShowDetail, ID: "NOPE"})
	require.NoError(t, err)
	assert.Nil(t, result.Detail)
	assert.Same(t, before, f.tracker.State())
	assert.Empty(t, f.sink.kinds())
}

func TestDispatch_Errors(t *testing.T) {
	f := newFixture(t)
	f.source.EXPECT().FetchSnapshot(gomock.Any()).Return(contracts.RawSnapshot{}, errors.New("timeout"))
	ctx := context.Background()

	_, err := f.tracker.Dispatch(ctx, tracker.Command{Type: tracker.CommandSetSort, Sort: "bogus"})
	assert.ErrorIs(t, err, contracts.ErrUnknownSortKey)

	_, err = f.tracker.Dispatch(ctx, tracker.Command{Type: "explode"})
	assert.ErrorIs(t, err, tracker.ErrUnknownCommand)

	result, err := f.tracker.Dispatch(ctx, tracker.Command{Type: tracker.CommandRefresh})
	var fetchErr *tracker.FetchError
	assert.True(t, errors.As(err, &fetchErr))
	require.NotNil(t, result.State)
	assert.Equal(t, tracker.UserErrorMessage, result.State.LastError)
}

func TestDispatch_EmptySortMeansDefault(t *testing.T) {
	f := newFixture(t, tracker.WithInitialView("", contracts.SortName))

	result, err := f.tracker.Dispatch(context.Background(), tracker.Command{Type: tracker.CommandSetSort})
	require.NoError(t, err)
	assert.Equal(t, contracts.DefaultSortKey, result.State.SortKey)
}
