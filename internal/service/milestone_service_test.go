package service

import (
	"context"
	"testing"

	"tether/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createMilestone(t *testing.T, f *fixture, relID uint, difficulty models.Difficulty, reward bool) *models.Milestone {
	t.Helper()
	m, err := f.milestones.CreateMilestone(context.Background(), CreateMilestoneInput{
		ActorID:           f.alice.ID,
		RelationshipID:    relID,
		Title:             "Run a marathon together",
		Category:          models.MilestoneCategoryPersonalGrowth,
		Difficulty:        difficulty,
		Criteria:          []string{"Register", "  ", "Finish"},
		RewardCertificate: reward,
	})
	require.NoError(t, err)
	return m
}

func TestMilestoneService_Create(t *testing.T) {
	f := newFixture(t)
	rel := f.active(t)

	m := createMilestone(t, f, rel.ID, models.DifficultyEasy, false)
	assert.Equal(t, models.MilestoneStatusPending, m.Status)
	require.Len(t, m.Criteria, 2)
	assert.Equal(t, "Register", m.Criteria[0].Name)
	require.Len(t, m.Participants, 1)
	assert.Equal(t, f.alice.ID, m.Participants[0].UserID)
	assert.Equal(t, models.ParticipantRoleCreator, m.Participants[0].Role)

	notes := f.sent.OfType(models.NotificationMilestoneCreated)
	require.Len(t, notes, 1)
	assert.Equal(t, f.bob.ID, notes[0].RecipientID)

	_, err := f.milestones.CreateMilestone(context.Background(), CreateMilestoneInput{
		ActorID:        f.alice.ID,
		RelationshipID: rel.ID,
		Title:          "Bad",
		Difficulty:     "impossible",
	})
	assertCode(t, err, models.CodeValidation)
}

func TestMilestoneService_CompleteWithCertificate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rel := f.active(t)
	m := createMilestone(t, f, rel.ID, models.DifficultyHard, true)
	assert.Equal(t, 0, f.reload(t, rel.ID).Stats.MilestonesAchieved)
	f.sent.Reset()

	completed, cert, err := f.milestones.CompleteMilestone(ctx, f.bob.ID, m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MilestoneStatusCompleted, completed.Status)
	require.NotNil(t, completed.CompletedBy)
	assert.Equal(t, f.bob.ID, *completed.CompletedBy)
	assert.NotNil(t, completed.CompletedAt)
	assert.Len(t, completed.Participants, 2)

	require.NotNil(t, cert)
	assert.Equal(t, models.CertificateLevelGold, cert.Level)
	assert.Equal(t, models.SubjectKindMilestone, cert.RelatedTo)
	assert.Equal(t, m.ID, cert.RelatedID)
	assert.Regexp(t, `^TTH-\d{8}-[0-9A-F]{10}$`, cert.CertificateNumber)
	assert.True(t, cert.HasRecipient(f.alice.ID))
	assert.True(t, cert.HasRecipient(f.bob.ID))
	require.NotNil(t, completed.CertificateID)
	assert.Equal(t, cert.ID, *completed.CertificateID)

	after := f.reload(t, rel.ID)
	assert.Equal(t, 1, after.Stats.MilestonesAchieved)
	assert.NotNil(t, after.Stats.LastInteraction)
	require.NotNil(t, after.LatestCertificateID)
	assert.Equal(t, cert.ID, *after.LatestCertificateID)

	assert.Len(t, f.sent.OfType(models.NotificationMilestoneCompleted), 2)
	awarded := f.sent.OfType(models.NotificationCertificateAwarded)
	require.Len(t, awarded, 2)
	assert.ElementsMatch(t, []uint{f.alice.ID, f.bob.ID}, []uint{awarded[0].RecipientID, awarded[1].RecipientID})

	_, _, err = f.milestones.CompleteMilestone(ctx, f.alice.ID, m.ID)
	assertCode(t, err, models.CodeAlreadyCompleted)
}

func TestMilestoneService_CompleteWithoutReward(t *testing.T) {
	f := newFixture(t)
	rel := f.active(t)
	m := createMilestone(t, f, rel.ID, models.DifficultyEasy, false)

	completed, cert, err := f.milestones.CompleteMilestone(context.Background(), f.alice.ID, m.ID)
	require.NoError(t, err)
	assert.Nil(t, cert)
	assert.Nil(t, completed.CertificateID)
	// The creator is already a participant and keeps that role.
	require.Len(t, completed.Participants, 1)
	assert.Equal(t, models.ParticipantRoleCreator, completed.Participants[0].Role)
}

func TestMilestoneService_ConcurrentCompleteIsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rel := f.active(t)
	m := createMilestone(t, f, rel.ID, models.DifficultyExpert, true)

	errs := race(4, func() error {
		_, _, err := f.milestones.CompleteMilestone(ctx, f.bob.ID, m.ID)
		return err
	})

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assertCode(t, err, models.CodeAlreadyCompleted)
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, f.reload(t, rel.ID).Stats.MilestonesAchieved)

	certs, err := f.store.Certificates.ListBySubject(ctx, models.MilestoneRef{MilestoneID: m.ID})
	require.NoError(t, err)
	require.Len(t, certs, 1)
	assert.Equal(t, models.CertificateLevelPlatinum, certs[0].Level)
}

func TestMilestoneService_CompletedIsImmutable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rel := f.active(t)
	m := createMilestone(t, f, rel.ID, models.DifficultyMedium, false)

	_, _, err := f.milestones.CompleteMilestone(ctx, f.alice.ID, m.ID)
	require.NoError(t, err)

	title := "Changed"
	_, err = f.milestones.UpdateMilestone(ctx, f.alice.ID, m.ID, UpdateMilestoneInput{Title: &title})
	assertCode(t, err, models.CodeInvalidState)
	err = f.milestones.DeleteMilestone(ctx, f.alice.ID, m.ID)
	assertCode(t, err, models.CodeInvalidState)
	_, err = f.milestones.AddEvidence(ctx, f.bob.ID, m.ID, AddEvidenceInput{Description: "late"})
	assertCode(t, err, models.CodeInvalidState)
	_, err = f.milestones.CompleteCriterion(ctx, f.bob.ID, m.ID, m.Criteria[0].ID)
	assertCode(t, err, models.CodeInvalidState)
}

func TestMilestoneService_EvidenceAndCriteria(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rel := f.active(t)
	m := createMilestone(t, f, rel.ID, models.DifficultyMedium, false)

	_, err := f.milestones.AddEvidence(ctx, f.bob.ID, m.ID, AddEvidenceInput{})
	assertCode(t, err, models.CodeValidation)
	_, err = f.milestones.AddEvidence(ctx, f.bob.ID, m.ID, AddEvidenceInput{URL: "javascript:alert(1)"})
	assertCode(t, err, models.CodeValidation)

	m, err = f.milestones.AddEvidence(ctx, f.bob.ID, m.ID, AddEvidenceInput{Description: "Signed up", URL: "https://example.com/bib"})
	require.NoError(t, err)
	assert.Equal(t, models.MilestoneStatusInProgress, m.Status)
	require.Len(t, m.Evidence, 1)
	assert.Equal(t, f.bob.ID, m.Evidence[0].SubmittedBy)

	m, err = f.milestones.CompleteCriterion(ctx, f.bob.ID, m.ID, m.Criteria[0].ID)
	require.NoError(t, err)
	assert.True(t, m.Criteria[0].Completed)
	assert.False(t, m.Criteria[1].Completed)

	_, err = f.milestones.CompleteCriterion(ctx, f.alice.ID, m.ID, m.Criteria[0].ID)
	assertCode(t, err, models.CodeInvalidState)
	_, err = f.milestones.CompleteCriterion(ctx, f.alice.ID, m.ID, 9999)
	assertCode(t, err, models.CodeNotFound)
}

func TestMilestoneService_OwnerOnlyEdits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rel := f.active(t)
	m := createMilestone(t, f, rel.ID, models.DifficultyMedium, false)
	title := "Half marathon"

	_, err := f.milestones.UpdateMilestone(ctx, f.bob.ID, m.ID, UpdateMilestoneInput{Title: &title})
	assertCode(t, err, models.CodeForbidden)
	err = f.milestones.DeleteMilestone(ctx, f.bob.ID, m.ID)
	assertCode(t, err, models.CodeForbidden)

	hard := models.DifficultyHard
	m, err = f.milestones.UpdateMilestone(ctx, f.alice.ID, m.ID, UpdateMilestoneInput{Title: &title, Difficulty: &hard})
	require.NoError(t, err)
	assert.Equal(t, "Half marathon", m.Title)
	assert.Equal(t, models.DifficultyHard, m.Difficulty)

	require.NoError(t, f.milestones.DeleteMilestone(ctx, f.alice.ID, m.ID))
	list, err := f.milestones.ListMilestones(ctx, f.bob.ID, rel.ID, "", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}
