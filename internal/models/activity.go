package models

import "time"

// ActivityType is what kind of event an activity logs.
type ActivityType string

const (
	ActivityTypeDate         ActivityType = "date"
	ActivityTypeCall         ActivityType = "call"
	ActivityTypeMessage      ActivityType = "message"
	ActivityTypeGift         ActivityType = "gift"
	ActivityTypeTrip         ActivityType = "trip"
	ActivityTypeEvent        ActivityType = "event"
	ActivityTypeConversation ActivityType = "conversation"
	ActivityTypeSupport      ActivityType = "support"
	ActivityTypeOther        ActivityType = "other"
)

// Valid reports whether t is a known activity type.
func (t ActivityType) Valid() bool {
	switch t {
	case ActivityTypeDate, ActivityTypeCall, ActivityTypeMessage, ActivityTypeGift, ActivityTypeTrip,
		ActivityTypeEvent, ActivityTypeConversation, ActivityTypeSupport, ActivityTypeOther:
		return true
	}
	return false
}

// ActivityCategory groups activities.
type ActivityCategory string

const (
	ActivityCategoryRomantic     ActivityCategory = "romantic"
	ActivityCategorySocial       ActivityCategory = "social"
	ActivityCategoryProfessional ActivityCategory = "professional"
	ActivityCategoryPersonal     ActivityCategory = "personal"
	ActivityCategoryFamily       ActivityCategory = "family"
	ActivityCategoryOther        ActivityCategory = "other"
)

// Valid reports whether c is a known activity category.
func (c ActivityCategory) Valid() bool {
	switch c {
	case ActivityCategoryRomantic, ActivityCategorySocial, ActivityCategoryProfessional,
		ActivityCategoryPersonal, ActivityCategoryFamily, ActivityCategoryOther:
		return true
	}
	return false
}

// Mood is how the creator felt about the activity.
type Mood string

const (
	MoodHappy      Mood = "happy"
	MoodExcited    Mood = "excited"
	MoodGrateful   Mood = "grateful"
	MoodNeutral    Mood = "neutral"
	MoodSad        Mood = "sad"
	MoodFrustrated Mood = "frustrated"
	MoodAnxious    Mood = "anxious"
	MoodLoving     Mood = "loving"
)

// Valid reports whether m is a known mood.
func (m Mood) Valid() bool {
	switch m {
	case MoodHappy, MoodExcited, MoodGrateful, MoodNeutral, MoodSad, MoodFrustrated, MoodAnxious, MoodLoving:
		return true
	}
	return false
}

const (
	// MinTrustChange and MaxTrustChange bound impact.trustChange at the API boundary.
	MinTrustChange = -10
	MaxTrustChange = 10
)

// ReactionType is a reaction a party can leave on an activity.
type ReactionType string

const (
	ReactionLike      ReactionType = "like"
	ReactionLove      ReactionType = "love"
	ReactionSupport   ReactionType = "support"
	ReactionCelebrate ReactionType = "celebrate"
	ReactionLaugh     ReactionType = "laugh"
	ReactionSad       ReactionType = "sad"
)

// Valid reports whether r is a known reaction.
func (r ReactionType) Valid() bool {
	switch r {
	case ReactionLike, ReactionLove, ReactionSupport, ReactionCelebrate, ReactionLaugh, ReactionSad:
		return true
	}
	return false
}

// Activity is a logged event owned by its creator.
type Activity struct {
	ID             uint             `gorm:"primaryKey" json:"id"`
	RelationshipID uint             `gorm:"not null;index" json:"relationship_id"`
	CreatedBy      uint             `gorm:"not null;index" json:"created_by"`
	Title          string           `gorm:"size:200;not null" json:"title"`
	Description    string           `gorm:"type:text" json:"description"`
	Type           ActivityType     `gorm:"type:varchar(32);not null" json:"type"`
	Category       ActivityCategory `gorm:"type:varchar(32);not null" json:"category"`
	Mood           Mood             `gorm:"type:varchar(16)" json:"mood"`
	TrustChange    int              `gorm:"not null;default:0" json:"trust_change"`
	Location       string           `gorm:"size:200" json:"location"`
	OccurredAt     time.Time        `gorm:"not null" json:"occurred_at"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`

	Reactions []ActivityReaction `gorm:"foreignKey:ActivityID;constraint:OnDelete:CASCADE" json:"reactions"`
	Comments  []ActivityComment  `gorm:"foreignKey:ActivityID;constraint:OnDelete:CASCADE" json:"comments"`
}

// ActivityReaction is a user's single reaction to an activity; a newer one replaces it.
type ActivityReaction struct {
	ID         uint         `gorm:"primaryKey" json:"id"`
	ActivityID uint         `gorm:"not null;uniqueIndex:idx_activity_reaction_user" json:"activity_id"`
	UserID     uint         `gorm:"not null;uniqueIndex:idx_activity_reaction_user" json:"user_id"`
	Reaction   ReactionType `gorm:"type:varchar(16);not null" json:"reaction"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// ActivityComment is an append-only comment on an activity.
type ActivityComment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ActivityID uint      `gorm:"not null;index" json:"activity_id"`
	UserID     uint      `gorm:"not null" json:"user_id"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}
