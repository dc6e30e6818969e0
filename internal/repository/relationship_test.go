package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"tether/internal/models"
	"tether/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createRelationship(t *testing.T, db *gorm.DB, initiator, partner uint, status models.RelationshipStatus) *models.Relationship {
	t.Helper()
	rel := &models.Relationship{
		Title:       "Friendship",
		Type:        models.RelationshipTypeFriend,
		Status:      status,
		InitiatorID: initiator,
		PartnerID:   partner,
	}
	require.NoError(t, NewRelationshipRepository(db).Create(context.Background(), rel))
	return rel
}

func TestRelationshipRepository_GuardedUpdateSQL(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRelationshipRepository(db)
	ctx := context.Background()

	t.Run("accept matches on status and partner", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "relationships" SET .* WHERE id = \$\d+ AND status = \$\d+ AND partner_id = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		ok, err := repo.UpdateWhere(ctx, 7, map[string]interface{}{
			"status":        models.RelationshipStatusActive,
			"accepted_date": time.Now(),
		}, StatusIn(models.RelationshipStatusPending), PartnerIs(2))
		require.NoError(t, err)
		assert.True(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("confirm excludes the requester", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "relationships" SET .* WHERE id = \$\d+ AND status = \$\d+ AND \(initiator_id = \$\d+ OR partner_id = \$\d+\) AND breakup_requested_by <> \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		ok, err := repo.UpdateWhere(ctx, 7, map[string]interface{}{
			"status":               models.RelationshipStatusEnded,
			"breakup_requested_by": nil,
		}, StatusIn(models.RelationshipStatusRequestedBreakup), PartyOf(1), BreakupNotRequestedBy(1))
		require.NoError(t, err)
		assert.False(t, ok, "zero matched rows must not report success")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("decline deletes only pending rows", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "relationships" WHERE id = $1 AND status = $2 AND partner_id = $3`)).
			WithArgs(7, "pending", 2).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		ok, err := repo.DeleteWhere(ctx, 7, StatusIn(models.RelationshipStatusPending), PartnerIs(2))
		require.NoError(t, err)
		assert.True(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("trust change is clamped in SQL", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`"stats_trust_level"=CASE WHEN stats_trust_level + $`)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, repo.ApplyActivity(ctx, 7, -20, time.Now()))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRelationshipRepository_PairUniqueness(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewRelationshipRepository(db)
	ctx := context.Background()

	a := testutil.CreateUser(t, db, "a")
	b := testutil.CreateUser(t, db, "b")

	first := createRelationship(t, db, a.ID, b.ID, models.RelationshipStatusPending)
	low, high := models.OrderedPair(a.ID, b.ID)
	assert.Equal(t, low, first.PairLowID)
	assert.Equal(t, high, first.PairHighID)

	for _, pair := range [][2]uint{{a.ID, b.ID}, {b.ID, a.ID}} {
		err := repo.Create(ctx, &models.Relationship{
			Title:       "Again",
			Type:        models.RelationshipTypeFriend,
			InitiatorID: pair[0],
			PartnerID:   pair[1],
		})
		assert.True(t, models.IsCode(err, models.CodeConflict), "pair %v: %v", pair, err)
	}

	found, err := repo.FindByPair(ctx, b.ID, a.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, first.ID, found.ID)
}

func TestRelationshipRepository_Stats(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewRelationshipRepository(db)
	ctx := context.Background()

	a := testutil.CreateUser(t, db, "a")
	b := testutil.CreateUser(t, db, "b")
	rel := createRelationship(t, db, a.ID, b.ID, models.RelationshipStatusActive)
	require.NoError(t, db.Model(rel).Update("stats_trust_level", 5).Error)

	now := time.Now().UTC()

	t.Run("trust floors at zero", func(t *testing.T) {
		require.NoError(t, repo.ApplyActivity(ctx, rel.ID, -20, now))
		got, err := repo.GetByID(ctx, rel.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, got.Stats.TrustLevel)
		assert.Equal(t, 1, got.Stats.TotalActivities)
		assert.NotNil(t, got.Stats.LastInteraction)
	})

	t.Run("trust caps at one hundred", func(t *testing.T) {
		require.NoError(t, repo.ApplyActivity(ctx, rel.ID, 250, now))
		got, err := repo.GetByID(ctx, rel.ID)
		require.NoError(t, err)
		assert.Equal(t, 100, got.Stats.TrustLevel)
		assert.Equal(t, 2, got.Stats.TotalActivities)
	})

	t.Run("activity counter never goes negative", func(t *testing.T) {
		for i := 0; i < 4; i++ {
			require.NoError(t, repo.RevertActivity(ctx, rel.ID))
		}
		got, err := repo.GetByID(ctx, rel.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, got.Stats.TotalActivities)
	})

	t.Run("milestones increment", func(t *testing.T) {
		require.NoError(t, repo.IncrementMilestones(ctx, rel.ID, now))
		got, err := repo.GetByID(ctx, rel.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.Stats.MilestonesAchieved)
	})

	t.Run("missing relationship", func(t *testing.T) {
		err := repo.IncrementMilestones(ctx, 9999, now)
		assert.True(t, models.IsCode(err, models.CodeNotFound))
	})
}

func TestRelationshipRepository_ListForUser(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewRelationshipRepository(db)
	ctx := context.Background()

	a := testutil.CreateUser(t, db, "a")
	b := testutil.CreateUser(t, db, "b")
	c := testutil.CreateUser(t, db, "c")
	createRelationship(t, db, a.ID, b.ID, models.RelationshipStatusActive)
	createRelationship(t, db, c.ID, a.ID, models.RelationshipStatusPending)
	createRelationship(t, db, b.ID, c.ID, models.RelationshipStatusActive)

	all, err := repo.ListForUser(ctx, a.ID, "", 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	for _, rel := range all {
		assert.True(t, rel.IsParty(a.ID))
		assert.NotZero(t, rel.Initiator.ID, "parties are preloaded")
	}

	pending, err := repo.ListForUser(ctx, a.ID, models.RelationshipStatusPending, 10, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, c.ID, pending[0].InitiatorID)
}
