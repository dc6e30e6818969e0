package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"tether/internal/events"
	"tether/internal/models"
	"tether/internal/repository"
	"tether/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// recordingPublisher keeps published lifecycle events for assertions.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	db        *gorm.DB
	store     *repository.Store
	sent      *testutil.RecordingDispatcher
	published *recordingPublisher

	relationships *RelationshipService
	terms         *TermService
	milestones    *MilestoneService
	activities    *ActivityService
	certificates  *CertificateService

	alice, bob, carol *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.NewTestDB(t)
	store := repository.NewStore(db)
	sent := &testutil.RecordingDispatcher{}
	published := &recordingPublisher{}

	relationships := NewRelationshipService(store, sent, published)
	certificates := NewCertificateService(store, relationships, sent, published, 0)

	return &fixture{
		db:            db,
		store:         store,
		sent:          sent,
		published:     published,
		relationships: relationships,
		terms:         NewTermService(store, relationships, sent, published),
		milestones:    NewMilestoneService(store, relationships, certificates, sent, published),
		activities:    NewActivityService(store, relationships, sent, published),
		certificates:  certificates,
		alice:         testutil.CreateUser(t, db, "alice"),
		bob:           testutil.CreateUser(t, db, "bob"),
		carol:         testutil.CreateUser(t, db, "carol"),
	}
}

// propose creates a pending relationship from alice to bob.
func (f *fixture) propose(t *testing.T) *models.Relationship {
	t.Helper()
	rel, err := f.relationships.ProposeRelationship(context.Background(), ProposeRelationshipInput{
		ActorID:      f.alice.ID,
		PartnerEmail: f.bob.Email,
		Title:        "Us",
		Type:         models.RelationshipTypeFriend,
	})
	require.NoError(t, err)
	return rel
}

// active creates an accepted relationship between alice and bob.
func (f *fixture) active(t *testing.T) *models.Relationship {
	t.Helper()
	rel := f.propose(t)
	rel, err := f.relationships.AcceptRelationship(context.Background(), f.bob.ID, rel.ID)
	require.NoError(t, err)
	f.sent.Reset()
	return rel
}

func (f *fixture) reload(t *testing.T, id uint) *models.Relationship {
	t.Helper()
	rel, err := f.store.Relationships.GetByID(context.Background(), id)
	require.NoError(t, err)
	return rel
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code, appErr.Message)
}

// race runs fn from n goroutines at once and collects their errors.
func race(n int, fn func() error) []error {
	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		errs  = make([]error, n)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			errs[i] = fn()
		}(i)
	}
	close(start)
	wg.Wait()
	return errs
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}
