//go:build integration

package repository

import (
	"testing"

	"nhl_wp/pipeline/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoalieGameRepository_FeedOrderSurvives(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	// A pulled-starter game: the finisher is listed first in the feed, the
	// starter last. Insert out of feed order to prove the query restores it.
	starter := &models.GoalieGameInput{
		GameID: "2019024001", DateTime: "2020-03-10T00:00:00Z",
		Team: "Boston Bruins", IsHome: true,
		GoalieID: "starter", GoalieName: "Starter",
		TimeOnIce: "40:00",
	}
	finisher := &models.GoalieGameInput{
		GameID: "2019024001", DateTime: "2020-03-10T00:00:00Z",
		Team: "Boston Bruins", IsHome: true,
		GoalieID: "finisher", GoalieName: "Finisher",
		TimeOnIce: "20:00",
	}

	sg, err := starter.ToGoalieGame(1)
	require.NoError(t, err)
	fg, err := finisher.ToGoalieGame(0)
	require.NoError(t, err)

	require.NoError(t, db.GoalieGames.Upsert(ctx, sg))
	require.NoError(t, db.GoalieGames.Upsert(ctx, fg))

	all, err := db.GoalieGames.ListAll(ctx)
	require.NoError(t, err)

	var order []string
	for _, gg := range all {
		if gg.GameID != "2019024001" {
			continue
		}
		order = append(order, gg.GoalieID)
	}
	require.Equal(t, []string{"finisher", "starter"}, order,
		"feed order within the game must survive a store round trip")

	// Seq is reassigned from the stable query order.
	prev := -1
	for _, gg := range all {
		assert.Greater(t, gg.Seq, prev)
		prev = gg.Seq
	}
}
