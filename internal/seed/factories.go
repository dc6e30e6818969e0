// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"log"
	"strings"
	"time"

	"tether/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every seeded account.
const DefaultPassword = "password123"

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by the seeder and tests.
type Factory struct {
	db    *gorm.DB
	opts  Options
	faker *gofakeit.Faker
	// synthetic ID counter when running in DryRun mode
	nextID uint
	hashed string
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := opts.RandSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{db: db, opts: opts, faker: gofakeit.New(seed), nextID: 1000}
}

// Faker exposes the factory's deterministic faker to the seeder.
func (f *Factory) Faker() *gofakeit.Faker {
	return f.faker
}

func (f *Factory) password() (string, error) {
	// Password handling: allow skipping bcrypt in dev fast mode
	if f.opts.SkipBcrypt {
		return DefaultPassword, nil
	}
	if f.hashed == "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
		if err != nil {
			return "", fmt.Errorf("hash seed password: %w", err)
		}
		f.hashed = string(hashed)
	}
	return f.hashed, nil
}

// BuildUser constructs a sample user without persisting it.
func (f *Factory) BuildUser(overrides ...func(*models.User)) (*models.User, error) {
	password, err := f.password()
	if err != nil {
		return nil, err
	}

	first, last := f.faker.FirstName(), f.faker.LastName()
	handle := strings.ToLower(fmt.Sprintf("%s.%s%d", first, last, f.faker.Number(100, 999)))
	user := &models.User{
		Username:    handle,
		Email:       handle + "@example.com",
		DisplayName: first + " " + last,
		Password:    password,
		Avatar:      fmt.Sprintf("https://i.pravatar.cc/150?u=%s", f.faker.UUID()),
	}

	for _, override := range overrides {
		override(user)
	}
	return user, nil
}

// CreateUser constructs and persists a sample `models.User`.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user, err := f.BuildUser(overrides...)
	if err != nil {
		return nil, err
	}

	if f.opts.DryRun {
		f.nextID++
		user.ID = f.nextID
		log.Printf("[dry-run] CreateUser: %s <%s>", user.Username, user.Email)
		return user, nil
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildRelationship constructs a pending relationship between two users
// without persisting it. StartDate is spread over the last MaxDays days.
func (f *Factory) BuildRelationship(initiator, partner *models.User, overrides ...func(*models.Relationship)) *models.Relationship {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 365
	}

	rel := &models.Relationship{
		Title:       titleCase(f.faker.Adjective() + " " + f.faker.Noun()),
		Description: f.faker.Sentence(8),
		Type:        f.relationshipType(),
		Visibility:  models.RelationshipVisibilityPrivate,
		Status:      models.RelationshipStatusPending,
		InitiatorID: initiator.ID,
		PartnerID:   partner.ID,
		StartDate:   time.Now().UTC().Add(-time.Duration(f.faker.Number(0, maxDays*24)) * time.Hour),
	}

	for _, override := range overrides {
		override(rel)
	}
	return rel
}

// CreateRelationship persists a relationship built by BuildRelationship.
func (f *Factory) CreateRelationship(initiator, partner *models.User, overrides ...func(*models.Relationship)) (*models.Relationship, error) {
	rel := f.BuildRelationship(initiator, partner, overrides...)

	if f.opts.DryRun {
		f.nextID++
		rel.ID = f.nextID
		log.Printf("[dry-run] CreateRelationship: %d <-> %d %q", rel.InitiatorID, rel.PartnerID, rel.Title)
		return rel, nil
	}

	if err := f.db.Create(rel).Error; err != nil {
		return nil, err
	}
	return rel, nil
}

var relationshipTypes = []models.RelationshipType{
	models.RelationshipTypeAcquaintance,
	models.RelationshipTypeFriend,
	models.RelationshipTypeCloseFriend,
	models.RelationshipTypeBestFriend,
	models.RelationshipTypeRomantic,
	models.RelationshipTypePartner,
	models.RelationshipTypeFamily,
	models.RelationshipTypeColleague,
	models.RelationshipTypeMentor,
}

func (f *Factory) relationshipType() models.RelationshipType {
	return relationshipTypes[f.faker.Number(0, len(relationshipTypes)-1)]
}

var termTemplates = []struct {
	title    string
	category models.TermCategory
}{
	{"Reply to messages within a day", models.TermCategoryCommunication},
	{"No phones at dinner", models.TermCategoryBoundaries},
	{"Weekly check-in call", models.TermCategoryCommitment},
	{"Split shared costs evenly", models.TermCategoryFinance},
	{"Keep Sunday mornings free", models.TermCategoryTime},
	{"Ask before borrowing things", models.TermCategoryPersonalSpace},
	{"Alternate planning trips", models.TermCategoryResponsibilities},
}

var milestoneTemplates = []struct {
	title      string
	category   models.MilestoneCategory
	difficulty models.Difficulty
	criteria   []string
}{
	{"First trip together", models.MilestoneCategoryActivityBased, models.DifficultyMedium, []string{"Pick a destination", "Book travel"}},
	{"One hundred days", models.MilestoneCategoryTimeBased, models.DifficultyEasy, nil},
	{"Resolve a disagreement calmly", models.MilestoneCategoryCommunication, models.DifficultyHard, []string{"Talk it through", "Agree on a fix"}},
	{"Reach trust level 80", models.MilestoneCategoryTrustBased, models.DifficultyExpert, nil},
	{"Learn a skill together", models.MilestoneCategoryPersonalGrowth, models.DifficultyMedium, []string{"Choose the skill", "Practice ten times"}},
}

var activityTypes = []models.ActivityType{
	models.ActivityTypeDate,
	models.ActivityTypeCall,
	models.ActivityTypeMessage,
	models.ActivityTypeGift,
	models.ActivityTypeTrip,
	models.ActivityTypeEvent,
	models.ActivityTypeConversation,
	models.ActivityTypeSupport,
}

var moods = []models.Mood{
	models.MoodHappy,
	models.MoodExcited,
	models.MoodGrateful,
	models.MoodNeutral,
	models.MoodLoving,
	models.MoodSad,
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
