package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/waldo/models"
)

func TestBuildLeaderboard(t *testing.T) {
	users := []models.User{
		{ID: 3, Username: "carol", Points: 500},
		{ID: 1, Username: "alice", Points: 1200},
		{ID: 4, Username: "dave", Points: 500},
		{ID: 2, Username: "bob", Points: -10},
	}

	board := BuildLeaderboard(users)
	require.Len(t, board, 4)
	assert.Equal(t, []string{"alice", "carol", "dave", "bob"},
		[]string{board[0].Username, board[1].Username, board[2].Username, board[3].Username})
	for i, e := range board {
		assert.Equal(t, i+1, e.Rank)
	}
	assert.Equal(t, uint(3), users[0].ID, "input must not be reordered")
}

func TestBuildLeaderboardEmpty(t *testing.T) {
	board := BuildLeaderboard(nil)
	assert.NotNil(t, board)
	assert.Empty(t, board)
}

func TestLeaderboardFromStore(t *testing.T) {
	store := newMemStore()
	svc := NewUserService(store, nil, nil)
	a := register(t, svc, "alice")
	b := register(t, svc, "bob")
	_, err := svc.AdjustPoints(context.Background(), b.ID, 40)
	require.NoError(t, err)

	board, err := svc.Leaderboard(context.Background())
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, b.ID, board[0].UserID)
	assert.Equal(t, 40, board[0].Points)
	assert.Equal(t, a.ID, board[1].UserID)
	assert.Equal(t, 2, board[1].Rank)
}
