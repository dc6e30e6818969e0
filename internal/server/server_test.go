package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"tether/internal/config"
	"tether/internal/middleware"
	"tether/internal/models"
	"tether/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "server-test-secret"

type testEnv struct {
	t   *testing.T
	db  *gorm.DB
	srv *Server
	app *fiber.App
}

func newTestEnv(t *testing.T, opts ...func(*config.Config)) *testEnv {
	t.Helper()

	cfg := &config.Config{JWTSecret: testSecret, Env: "test"}
	for _, opt := range opts {
		opt(cfg)
	}

	db := testutil.NewTestDB(t)
	srv, err := NewServerWithDeps(cfg, db, nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.dispatcher.Close(ctx)
	})

	return &testEnv{t: t, db: db, srv: srv, app: srv.App()}
}

func signToken(t *testing.T, userID uint) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10),
		"iss": middleware.TokenIssuer,
		"aud": middleware.TokenAudience,
		"exp": time.Now().Add(time.Hour).Unix(),
		"iat": time.Now().Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

// do sends a request as userID. A zero userID sends no token.
func (e *testEnv) do(method, path string, userID uint, body any) *http.Response {
	e.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != 0 {
		req.Header.Set("Authorization", "Bearer "+signToken(e.t, userID))
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(e.t, err)
	e.t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// activeRelationship proposes and accepts a relationship between two new users.
func (e *testEnv) activeRelationship() (alice, bob *models.User, rel models.Relationship) {
	e.t.Helper()

	alice = testutil.CreateUser(e.t, e.db, "alice")
	bob = testutil.CreateUser(e.t, e.db, "bob")

	resp := e.do(http.MethodPost, "/api/relationships", alice.ID, ProposeRelationshipRequest{
		PartnerEmail: bob.Email,
		Title:        "Climbing partners",
		Type:         models.RelationshipTypeFriend,
	})
	require.Equal(e.t, http.StatusCreated, resp.StatusCode)
	rel = decode[models.Relationship](e.t, resp)
	require.Equal(e.t, models.RelationshipStatusPending, rel.Status)

	resp = e.do(http.MethodPost, fmt.Sprintf("/api/relationships/%d/accept", rel.ID), bob.ID, nil)
	require.Equal(e.t, http.StatusOK, resp.StatusCode)
	rel = decode[models.Relationship](e.t, resp)
	require.Equal(e.t, models.RelationshipStatusActive, rel.Status)
	return alice, bob, rel
}

func TestHealthLive(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(http.MethodGet, "/health/live", 0, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	assert.Equal(t, "up", body["status"])
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/api/relationships", "/api/certificates", "/api/notifications", "/api/users/me"} {
		t.Run(path, func(t *testing.T) {
			resp := env.do(http.MethodGet, path, 0, nil)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestRejectsTokenWithWrongIssuer(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.CreateUser(t, env.db, "mallory")

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(user.ID), 10),
		"iss": "someone-else",
		"aud": middleware.TokenAudience,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/relationships", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRelationshipLifecycleOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	alice, bob, rel := env.activeRelationship()

	t.Run("accept twice is a conflict", func(t *testing.T) {
		resp := env.do(http.MethodPost, fmt.Sprintf("/api/relationships/%d/accept", rel.ID), bob.ID, nil)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		body := decode[models.ErrorResponse](t, resp)
		assert.Equal(t, models.CodeInvalidState, body.Code)
	})

	t.Run("outsider is forbidden", func(t *testing.T) {
		carol := testutil.CreateUser(t, env.db, "carol")
		resp := env.do(http.MethodGet, fmt.Sprintf("/api/relationships/%d", rel.ID), carol.ID, nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("breakup needs the other party", func(t *testing.T) {
		resp := env.do(http.MethodPost, fmt.Sprintf("/api/relationships/%d/breakup", rel.ID), alice.ID, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, models.RelationshipStatusRequestedBreakup, decode[models.Relationship](t, resp).Status)

		resp = env.do(http.MethodPost, fmt.Sprintf("/api/relationships/%d/breakup/confirm", rel.ID), alice.ID, nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)

		resp = env.do(http.MethodPost, fmt.Sprintf("/api/relationships/%d/breakup/confirm", rel.ID), bob.ID, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		ended := decode[models.Relationship](t, resp)
		assert.Equal(t, models.RelationshipStatusEnded, ended.Status)
		assert.NotNil(t, ended.EndDate)
	})

	t.Run("ended relationship is archived on delete", func(t *testing.T) {
		resp := env.do(http.MethodDelete, fmt.Sprintf("/api/relationships/%d", rel.ID), alice.ID, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decode[map[string]any](t, resp)
		assert.Equal(t, false, body["deleted"])
	})
}

func TestProposeRelationshipValidation(t *testing.T) {
	env := newTestEnv(t)
	alice := testutil.CreateUser(t, env.db, "alice")

	resp := env.do(http.MethodPost, "/api/relationships", alice.ID, ProposeRelationshipRequest{
		PartnerEmail: alice.Email,
		Title:        "Me",
		Type:         models.RelationshipTypeFriend,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, models.CodeSelfReference, decode[models.ErrorResponse](t, resp).Code)

	resp = env.do(http.MethodPost, "/api/relationships", alice.ID, ProposeRelationshipRequest{
		PartnerEmail: "nobody@example.com",
		Title:        "Ghost",
		Type:         models.RelationshipTypeFriend,
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTermAgreementOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	alice, bob, rel := env.activeRelationship()

	resp := env.do(http.MethodPost, fmt.Sprintf("/api/relationships/%d/terms", rel.ID), alice.ID, ProposeTermRequest{
		Title:    "Reply within a day",
		Category: models.TermCategoryCommunication,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	term := decode[models.Term](t, resp)
	assert.Equal(t, models.TermStatusProposed, term.Status)

	resp = env.do(http.MethodPost, fmt.Sprintf("/api/terms/%d/agree", term.ID), alice.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.TermStatusProposed, decode[models.Term](t, resp).Status)

	resp = env.do(http.MethodPost, fmt.Sprintf("/api/terms/%d/agree", term.ID), alice.ID, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, models.CodeAlreadyAgreed, decode[models.ErrorResponse](t, resp).Code)

	resp = env.do(http.MethodPost, fmt.Sprintf("/api/terms/%d/agree", term.ID), bob.ID, AgreeTermRequest{Signature: "B."})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	agreed := decode[models.Term](t, resp)
	assert.Equal(t, models.TermStatusAgreed, agreed.Status)
	assert.Len(t, agreed.AgreedBy, 2)
}

func TestMilestoneCompletionIssuesCertificate(t *testing.T) {
	env := newTestEnv(t)
	alice, bob, rel := env.activeRelationship()

	resp := env.do(http.MethodPost, fmt.Sprintf("/api/relationships/%d/milestones", rel.ID), alice.ID, CreateMilestoneRequest{
		Title:             "First summit",
		Difficulty:        models.DifficultyHard,
		TargetDate:        "2030-06-01",
		Criteria:          []string{"Pick a route", "Reach the top"},
		RewardCertificate: true,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	milestone := decode[models.Milestone](t, resp)
	require.Len(t, milestone.Criteria, 2)
	require.NotNil(t, milestone.TargetDate)

	resp = env.do(http.MethodPost, fmt.Sprintf("/api/milestones/%d/complete", milestone.ID), bob.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	completed := decode[CompleteMilestoneResponse](t, resp)
	assert.Equal(t, models.MilestoneStatusCompleted, completed.Milestone.Status)
	require.NotNil(t, completed.Certificate)
	assert.Len(t, completed.Certificate.Recipients, 2)

	resp = env.do(http.MethodPost, fmt.Sprintf("/api/milestones/%d/complete", milestone.ID), alice.ID, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, models.CodeAlreadyCompleted, decode[models.ErrorResponse](t, resp).Code)

	t.Run("verification is public", func(t *testing.T) {
		resp := env.do(http.MethodGet, "/api/certificates/verify/"+completed.Certificate.CertificateNumber, 0, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decode[map[string]any](t, resp)
		assert.Equal(t, true, body["valid"])
		assert.Equal(t, completed.Certificate.CertificateNumber, body["certificate_number"])

		resp = env.do(http.MethodGet, "/api/certificates/verify/TTH-19990101-NOPE", 0, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("revoked certificate no longer verifies", func(t *testing.T) {
		resp := env.do(http.MethodPost, fmt.Sprintf("/api/certificates/%d/revoke", completed.Certificate.ID), bob.ID,
			RevokeCertificateRequest{Reason: "issued by mistake"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.True(t, decode[models.Certificate](t, resp).IsRevoked)

		resp = env.do(http.MethodGet, "/api/certificates/verify/"+completed.Certificate.CertificateNumber, 0, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, false, decode[map[string]any](t, resp)["valid"])
	})
}

func TestCreateMilestoneRejectsBadDate(t *testing.T) {
	env := newTestEnv(t)
	alice, _, rel := env.activeRelationship()

	resp := env.do(http.MethodPost, fmt.Sprintf("/api/relationships/%d/milestones", rel.ID), alice.ID, CreateMilestoneRequest{
		Title:      "Soon",
		TargetDate: "next tuesday",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestActivityTrustChange(t *testing.T) {
	env := newTestEnv(t)
	alice, bob, rel := env.activeRelationship()

	t.Run("out of range is rejected", func(t *testing.T) {
		for _, change := range []int{models.MinTrustChange - 1, models.MaxTrustChange + 1} {
			resp := env.do(http.MethodPost, fmt.Sprintf("/api/relationships/%d/activities", rel.ID), alice.ID, CreateActivityRequest{
				Title:       "Too much",
				TrustChange: change,
			})
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "trust_change %d", change)
		}
	})

	t.Run("applied to the relationship", func(t *testing.T) {
		resp := env.do(http.MethodPost, fmt.Sprintf("/api/relationships/%d/activities", rel.ID), alice.ID, CreateActivityRequest{
			Title:       "Helped move house",
			TrustChange: 5,
			OccurredAt:  "2026-05-01T10:00:00Z",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		activity := decode[models.Activity](t, resp)

		resp = env.do(http.MethodGet, fmt.Sprintf("/api/relationships/%d", rel.ID), bob.ID, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		updated := decode[models.Relationship](t, resp)
		assert.Equal(t, rel.Stats.TrustLevel+5, updated.Stats.TrustLevel)
		assert.Equal(t, 1, updated.Stats.TotalActivities)

		resp = env.do(http.MethodPost, fmt.Sprintf("/api/activities/%d/comments", activity.ID), bob.ID, CommentRequest{Content: "Thanks!"})
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
	})
}

func TestNotificationsOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	_, bob, _ := env.activeRelationship()

	// Delivery is asynchronous.
	require.Eventually(t, func() bool {
		var n int64
		env.db.Model(&models.Notification{}).Where("recipient_id = ?", bob.ID).Count(&n)
		return n > 0
	}, 2*time.Second, 10*time.Millisecond)

	resp := env.do(http.MethodGet, "/api/notifications/unread-count", bob.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, decode[map[string]any](t, resp)["count"])

	resp = env.do(http.MethodGet, "/api/notifications?unread=true", bob.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	notes := decode[[]models.Notification](t, resp)
	require.Len(t, notes, 1)
	assert.Equal(t, models.NotificationRelationshipRequest, notes[0].Type)

	resp = env.do(http.MethodPost, fmt.Sprintf("/api/notifications/%d/read", notes[0].ID), bob.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = env.do(http.MethodPost, "/api/notifications/read-all", bob.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 0, decode[map[string]any](t, resp)["updated"])
}

func TestGetMyProfileOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	alice := testutil.CreateUser(t, env.db, "alice")

	resp := env.do(http.MethodGet, "/api/users/me", alice.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	assert.Equal(t, false, body["online"])

	resp = env.do(http.MethodGet, "/api/users/me", 9999, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWebsocketRejectsPlainRequest(t *testing.T) {
	env := newTestEnv(t)
	alice := testutil.CreateUser(t, env.db, "alice")

	resp := env.do(http.MethodGet, "/api/ws?token="+signToken(t, alice.ID), 0, nil)
	assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)
}

func TestFeatureFlagsOverHTTP(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.FeatureFlags = "certificate_snapshots=off"
	})
	alice, _, rel := env.activeRelationship()

	resp := env.do(http.MethodGet, "/api/users/me/features", alice.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	flags := decode[map[string]bool](t, resp)
	assert.False(t, flags["certificate_snapshots"])
	assert.True(t, flags["realtime"])

	resp = env.do(http.MethodPost, fmt.Sprintf("/api/relationships/%d/certificates", rel.ID), alice.ID, IssueCertificateRequest{
		Title: "Anniversary",
		Level: models.CertificateLevelBronze,
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, models.CodeNotFound, decode[models.ErrorResponse](t, resp).Code)
}
