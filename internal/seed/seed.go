package seed

import (
	"context"
	"fmt"
	"log"
	"time"

	"tether/internal/events"
	"tether/internal/models"
	"tether/internal/repository"
	"tether/internal/service"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers         int
	NumRelationships int
	ShouldClean      bool
	SkipBcrypt       bool
	DryRun           bool
	MaxDays          int
	// RandSeed makes a run reproducible. Zero seeds from the clock.
	RandSeed int64
}

// Summary counts what a seeding run created.
type Summary struct {
	Users         int
	Relationships int
	Terms         int
	Milestones    int
	Activities    int
	Certificates  int
}

// discard drops notifications; seeded history should not fill inboxes.
type discard struct{}

func (discard) Dispatch(context.Context, ...*models.Notification) {}

// Seeder drives the lifecycle services so seeded data obeys the same
// invariants as data created through the API.
type Seeder struct {
	db      *gorm.DB
	opts    Options
	factory *Factory

	relationships *service.RelationshipService
	terms         *service.TermService
	milestones    *service.MilestoneService
	activities    *service.ActivityService
}

// NewSeeder wires a Seeder against db.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	store := repository.NewStore(db)
	publisher := events.NopPublisher{}
	relationships := service.NewRelationshipService(store, discard{}, publisher)
	certificates := service.NewCertificateService(store, relationships, discard{}, publisher, 0)

	return &Seeder{
		db:            db,
		opts:          opts,
		factory:       NewFactory(db, opts),
		relationships: relationships,
		terms:         service.NewTermService(store, relationships, discard{}, publisher),
		milestones:    service.NewMilestoneService(store, relationships, certificates, discard{}, publisher),
		activities:    service.NewActivityService(store, relationships, discard{}, publisher),
	}
}

// Run seeds users and then relationships between them.
func (s *Seeder) Run(ctx context.Context) (*Summary, error) {
	log.Printf("🌱 Seeding %d users and %d relationships...", s.opts.NumUsers, s.opts.NumRelationships)

	if s.opts.ShouldClean {
		if err := s.ClearAll(); err != nil {
			log.Println("⚠️  Warning: Could not clear all existing data, but continuing anyway...")
		}
	}

	users, err := s.SeedUsers(s.opts.NumUsers)
	if err != nil {
		return nil, fmt.Errorf("failed to create users: %w", err)
	}
	log.Printf("✓ %d users created", len(users))

	summary := &Summary{Users: len(users)}
	if err := s.SeedRelationships(ctx, users, s.opts.NumRelationships, summary); err != nil {
		return nil, fmt.Errorf("failed to create relationships: %w", err)
	}
	log.Printf("✓ %d relationships, %d terms, %d milestones, %d activities, %d certificates",
		summary.Relationships, summary.Terms, summary.Milestones, summary.Activities, summary.Certificates)

	log.Println("🎉 Database seeding completed successfully!")
	return summary, nil
}

// ClearAll removes every row the seeder can create.
func (s *Seeder) ClearAll() error {
	log.Println("🗑️  Clearing existing data...")
	if s.db.Dialector.Name() == "postgres" {
		return s.db.Exec(`TRUNCATE TABLE notifications, certificate_recipients, certificates,
			activity_comments, activity_reactions, activities,
			milestone_participants, milestone_evidence, milestone_criteria, milestones,
			term_violations, term_agreements, terms, relationships, users RESTART IDENTITY CASCADE;`).Error
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, m := range []any{
			&models.Notification{}, &models.CertificateRecipient{}, &models.Certificate{},
			&models.ActivityComment{}, &models.ActivityReaction{}, &models.Activity{},
			&models.MilestoneParticipant{}, &models.MilestoneEvidence{}, &models.MilestoneCriterion{}, &models.Milestone{},
			&models.TermViolation{}, &models.TermAgreement{}, &models.Term{}, &models.Relationship{},
		} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(m).Error; err != nil {
				return err
			}
		}
		return tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(&models.User{}).Error
	})
}

// SeedUsers creates count users. The first accounts are the demo accounts
// so a developer always has a known login.
func (s *Seeder) SeedUsers(count int) ([]*models.User, error) {
	users := make([]*models.User, 0, count)

	for _, demo := range DemoAccounts {
		if len(users) >= count {
			break
		}
		demo := demo
		user, err := s.factory.CreateUser(func(u *models.User) {
			u.Username = demo.Username
			u.Email = demo.Email
			u.DisplayName = demo.DisplayName
		})
		if err != nil {
			log.Printf("Failed to create demo user %s: %v", demo.Username, err)
			continue
		}
		users = append(users, user)
	}

	for i := len(users); i < count; i++ {
		user, err := s.factory.CreateUser()
		if err != nil {
			log.Printf("Failed to create user: %v", err)
			continue
		}
		users = append(users, user)

		if i%100 == 0 && i > 0 {
			log.Printf("Created %d users...", i)
		}
	}
	return users, nil
}

// SeedRelationships proposes up to count relationships between distinct
// pairs of users and walks each one through part of its lifecycle.
func (s *Seeder) SeedRelationships(ctx context.Context, users []*models.User, count int, summary *Summary) error {
	if len(users) < 2 || count <= 0 {
		return nil
	}
	if s.opts.DryRun {
		for i := 0; i < count; i++ {
			a, b := s.pair(users, i)
			if _, err := s.factory.CreateRelationship(a, b); err != nil {
				return err
			}
			summary.Relationships++
		}
		return nil
	}

	faker := s.factory.Faker()
	for i := 0; i < count && i < maxPairs(len(users)); i++ {
		initiator, partner := s.pair(users, i)
		draft := s.factory.BuildRelationship(initiator, partner)

		rel, err := s.relationships.ProposeRelationship(ctx, service.ProposeRelationshipInput{
			ActorID:      initiator.ID,
			PartnerEmail: partner.Email,
			Title:        draft.Title,
			Type:         draft.Type,
			Description:  draft.Description,
		})
		if err != nil {
			if models.IsCode(err, models.CodeConflict) {
				continue
			}
			return err
		}
		summary.Relationships++

		// Roughly one in five stays pending.
		if faker.Number(1, 5) == 1 {
			continue
		}
		if _, err := s.relationships.AcceptRelationship(ctx, partner.ID, rel.ID); err != nil {
			return err
		}
		if err := s.enrich(ctx, rel.ID, initiator, partner, summary); err != nil {
			return err
		}

		// A few end in a confirmed breakup.
		if faker.Number(1, 10) == 1 {
			if _, err := s.relationships.RequestBreakup(ctx, initiator.ID, rel.ID); err != nil {
				return err
			}
			if _, err := s.relationships.ConfirmBreakup(ctx, partner.ID, rel.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

// enrich adds terms, milestones and activities to an active relationship.
func (s *Seeder) enrich(ctx context.Context, relID uint, initiator, partner *models.User, summary *Summary) error {
	faker := s.factory.Faker()

	for n := faker.Number(1, 3); n > 0; n-- {
		tpl := termTemplates[faker.Number(0, len(termTemplates)-1)]
		term, err := s.terms.ProposeTerm(ctx, service.ProposeTermInput{
			ActorID:        initiator.ID,
			RelationshipID: relID,
			Title:          tpl.title,
			Category:       tpl.category,
		})
		if err != nil {
			return err
		}
		summary.Terms++
		if faker.Bool() {
			if _, err := s.terms.AgreeTerm(ctx, initiator.ID, term.ID, ""); err != nil {
				return err
			}
			if _, err := s.terms.AgreeTerm(ctx, partner.ID, term.ID, partner.DisplayName); err != nil {
				return err
			}
		}
	}

	for n := faker.Number(0, 2); n > 0; n-- {
		tpl := milestoneTemplates[faker.Number(0, len(milestoneTemplates)-1)]
		milestone, err := s.milestones.CreateMilestone(ctx, service.CreateMilestoneInput{
			ActorID:           partner.ID,
			RelationshipID:    relID,
			Title:             tpl.title,
			Category:          tpl.category,
			Difficulty:        tpl.difficulty,
			Criteria:          tpl.criteria,
			RewardCertificate: faker.Bool(),
			RewardPoints:      faker.Number(0, 50),
		})
		if err != nil {
			return err
		}
		summary.Milestones++
		if faker.Bool() {
			_, cert, err := s.milestones.CompleteMilestone(ctx, initiator.ID, milestone.ID)
			if err != nil {
				return err
			}
			if cert != nil {
				summary.Certificates++
			}
		}
	}

	for n := faker.Number(2, 6); n > 0; n-- {
		actor := initiator
		if faker.Bool() {
			actor = partner
		}
		occurred := faker.DateRange(s.since(), time.Now().UTC())
		if _, err := s.activities.CreateActivity(ctx, service.CreateActivityInput{
			ActorID:        actor.ID,
			RelationshipID: relID,
			Title:          titleCase(faker.Sentence(4)),
			Description:    faker.Sentence(12),
			Type:           activityTypes[faker.Number(0, len(activityTypes)-1)],
			Category:       models.ActivityCategorySocial,
			Mood:           moods[faker.Number(0, len(moods)-1)],
			TrustChange:    faker.Number(-3, 8),
			Location:       faker.City(),
			OccurredAt:     &occurred,
		}); err != nil {
			return err
		}
		summary.Activities++
	}
	return nil
}

// since is the start of the window seeded history is spread over.
func (s *Seeder) since() time.Time {
	days := s.opts.MaxDays
	if days <= 0 {
		days = 365
	}
	return time.Now().UTC().AddDate(0, 0, -days)
}

// pair picks the i-th distinct unordered pair of users.
func (s *Seeder) pair(users []*models.User, i int) (*models.User, *models.User) {
	n := len(users)
	step := 1 + (i/n)%(n-1)
	a := users[i%n]
	b := users[(i%n+step)%n]
	return a, b
}

// maxPairs bounds how many distinct pairs pair can produce.
func maxPairs(n int) int {
	return n * (n - 1) / 2
}
