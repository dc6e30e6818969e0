package repository

import (
	"context"
	"testing"
	"time"

	"tether/internal/models"
	"tether/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivityRepository_ReactionsReplaceByUser(t *testing.T) {
	db := testutil.NewTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	a := testutil.CreateUser(t, db, "a")
	b := testutil.CreateUser(t, db, "b")
	rel := createRelationship(t, db, a.ID, b.ID, models.RelationshipStatusActive)

	activity := &models.Activity{
		RelationshipID: rel.ID,
		CreatedBy:      a.ID,
		Title:          "Dinner",
		Type:           models.ActivityTypeDate,
		Category:       models.ActivityCategoryRomantic,
		OccurredAt:     time.Now().UTC(),
	}
	require.NoError(t, store.Activities.Create(ctx, activity))

	require.NoError(t, store.Activities.UpsertReaction(ctx, &models.ActivityReaction{ActivityID: activity.ID, UserID: b.ID, Reaction: models.ReactionLike}))
	require.NoError(t, store.Activities.UpsertReaction(ctx, &models.ActivityReaction{ActivityID: activity.ID, UserID: b.ID, Reaction: models.ReactionLove}))
	require.NoError(t, store.Activities.AddComment(ctx, &models.ActivityComment{ActivityID: activity.ID, UserID: b.ID, Content: "again soon"}))

	got, err := store.Activities.GetByID(ctx, activity.ID)
	require.NoError(t, err)
	require.Len(t, got.Reactions, 1)
	assert.Equal(t, models.ReactionLove, got.Reactions[0].Reaction)
	assert.Len(t, got.Comments, 1)

	ok, err := store.Activities.DeleteWhere(ctx, activity.ID, CreatedBy(b.ID))
	require.NoError(t, err)
	assert.False(t, ok, "only the creator deletes")

	ok, err = store.Activities.DeleteWhere(ctx, activity.ID, CreatedBy(a.ID))
	require.NoError(t, err)
	assert.True(t, ok)

	var reactions int64
	require.NoError(t, db.Model(&models.ActivityReaction{}).Where("activity_id = ?", activity.ID).Count(&reactions).Error)
	assert.Zero(t, reactions)
}

func TestMilestoneRepository_ParticipantsAndCriteria(t *testing.T) {
	db := testutil.NewTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	a := testutil.CreateUser(t, db, "a")
	b := testutil.CreateUser(t, db, "b")
	rel := createRelationship(t, db, a.ID, b.ID, models.RelationshipStatusActive)

	now := time.Now().UTC()
	milestone := &models.Milestone{
		RelationshipID: rel.ID,
		CreatedBy:      a.ID,
		Title:          "First trip",
		Category:       models.MilestoneCategoryActivityBased,
		Difficulty:     models.DifficultyMedium,
		Status:         models.MilestoneStatusPending,
		Criteria:       []models.MilestoneCriterion{{Name: "Book flights"}, {Name: "Pack"}},
		Participants:   []models.MilestoneParticipant{{UserID: a.ID, Role: models.ParticipantRoleCreator, JoinedAt: now}},
	}
	require.NoError(t, store.Milestones.Create(ctx, milestone))

	require.NoError(t, store.Milestones.AddParticipant(ctx, &models.MilestoneParticipant{MilestoneID: milestone.ID, UserID: a.ID, Role: models.ParticipantRoleCompleter, JoinedAt: now}))
	require.NoError(t, store.Milestones.AddParticipant(ctx, &models.MilestoneParticipant{MilestoneID: milestone.ID, UserID: b.ID, Role: models.ParticipantRoleCompleter, JoinedAt: now}))

	got, err := store.Milestones.GetByID(ctx, milestone.ID)
	require.NoError(t, err)
	assert.Len(t, got.Participants, 2)
	assert.Equal(t, models.ParticipantRoleCreator, got.Participants[0].Role, "existing participant keeps its role")
	require.Len(t, got.Criteria, 2)

	ok, err := store.Milestones.CompleteCriterion(ctx, milestone.ID, got.Criteria[0].ID, b.ID, now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Milestones.CompleteCriterion(ctx, milestone.ID, got.Criteria[0].ID, b.ID, now)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = store.Milestones.UpdateWhere(ctx, milestone.ID,
		map[string]interface{}{"status": models.MilestoneStatusCompleted},
		StatusIn(models.MilestoneStatusPending, models.MilestoneStatusInProgress))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Milestones.DeleteWhere(ctx, milestone.ID, StatusNotIn(models.MilestoneStatusCompleted))
	require.NoError(t, err)
	assert.False(t, ok, "completed milestones cannot be deleted")
}
