// Package domain defines the persistence models for letters, goals, and
// reflections. These types are mapped with GORM and form the core data layer
// of the future-self letters application.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Mood is one of the fixed set of mood symbols a letter may carry. The empty
// string means "no mood recorded".
type Mood string

// Moods is the closed set of accepted mood values.
var Moods = []Mood{"", "☺️", "😢", "😰", "🤩", "🙏", "😫"}

// Valid reports whether m is a member of the accepted mood set.
func (m Mood) Valid() bool {
	for _, v := range Moods {
		if m == v {
			return true
		}
	}
	return false
}

// Letter represents one sealed letter a user writes to their future self.
// A letter is created with its content and delivery schedule fixed, becomes
// readable once the delivery date elapses, and may afterwards accumulate
// reflections and goal-status updates.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - UserID: identifier of the letter owner; indexed for retrieval.
//   - Title: short display title, defaults to "Untitled".
//   - Mood / Weather / Temperature / Location: optional context captured at
//     write time.
//   - SongTitle / SongArtist / SongURL: optional song metadata.
//   - Content: the letter body (required).
//   - Drawing / OverlayDrawing: opaque encoded image payloads.
//   - DeliveryInterval: the interval token the user picked (see schedule).
//   - DeliveredAt: the date after which the letter is readable. Subject to
//     the seven-day minimum whenever it is set or changed.
//   - IsDelivered: flips false→true exactly once when the date elapses.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker.
type Letter struct {
	ID     string `json:"id"      gorm:"type:char(36);primaryKey"`
	UserID string `json:"user_id" gorm:"type:varchar(64);not null;index:idx_user_letters"`
	Title  string `json:"title"   gorm:"type:varchar(100);not null;default:'Untitled'"`

	Mood        Mood   `json:"mood,omitempty"        gorm:"type:varchar(16)"`
	Weather     string `json:"weather,omitempty"     gorm:"type:varchar(64)"`
	Temperature string `json:"temperature,omitempty" gorm:"type:varchar(16)"`
	Location    string `json:"location,omitempty"    gorm:"type:varchar(128)"`

	SongTitle  string `json:"song_title,omitempty"  gorm:"type:varchar(128)"`
	SongArtist string `json:"song_artist,omitempty" gorm:"type:varchar(128)"`
	SongURL    string `json:"song_url,omitempty"    gorm:"type:varchar(512)"`

	Content        string `json:"content"                   gorm:"type:text;not null"`
	Drawing        string `json:"drawing,omitempty"         gorm:"type:text"`
	OverlayDrawing string `json:"overlay_drawing,omitempty" gorm:"type:text"`

	DeliveryInterval string    `json:"delivery_interval" gorm:"type:varchar(8);not null"`
	DeliveredAt      time.Time `json:"delivered_at"      gorm:"not null;index"`
	IsDelivered      bool      `json:"is_delivered"      gorm:"not null;default:false"`

	Goals       []Goal       `json:"goals,omitempty"       gorm:"foreignKey:LetterID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Reflections []Reflection `json:"reflections,omitempty" gorm:"foreignKey:LetterID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName returns the database table name for Letter.
func (Letter) TableName() string { return "letters" }

// Goal is an intention attached to a letter. The surrounding service caps a
// letter at MaxGoalsPerLetter goals; the entity does not enforce the cap.
//
// Carry-forward semantics: a goal whose status is StatusCarriedForward must
// have its CarriedForwardTo* pair set, and the successor goal it spawned must
// point back via CarriedForwardFrom*. Both sides are weak references (ids
// only, no ownership).
type Goal struct {
	ID       string `json:"id"        gorm:"type:char(36);primaryKey"`
	LetterID string `json:"letter_id" gorm:"type:char(36);not null;index"`

	Text       string     `json:"text"                 gorm:"type:varchar(150);not null"`
	Status     GoalStatus `json:"status"               gorm:"type:varchar(16);not null;default:'pending'"`
	Reflection string     `json:"reflection,omitempty" gorm:"type:varchar(500)"`

	CarriedForwardToLetterID   *string `json:"carried_forward_to_letter_id,omitempty"   gorm:"type:char(36)"`
	CarriedForwardToGoalID     *string `json:"carried_forward_to_goal_id,omitempty"     gorm:"type:char(36)"`
	CarriedForwardFromLetterID *string `json:"carried_forward_from_letter_id,omitempty" gorm:"type:char(36)"`
	CarriedForwardFromGoalID   *string `json:"carried_forward_from_goal_id,omitempty"   gorm:"type:char(36)"`

	StatusUpdatedAt time.Time `json:"status_updated_at"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName returns the database table name for Goal.
func (Goal) TableName() string { return "goals" }

// Reflection is a post-delivery note the owner writes back onto a letter.
// Content must meet a minimum length so that reflections carry real effort.
type Reflection struct {
	ID       string `json:"id"        gorm:"type:char(36);primaryKey"`
	LetterID string `json:"letter_id" gorm:"type:char(36);not null;index"`

	Content string    `json:"reflection" gorm:"type:text;not null"`
	Date    time.Time `json:"date"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Reflection.
func (Reflection) TableName() string { return "reflections" }

// MaxGoalsPerLetter caps how many goals a single letter may hold. Enforced
// by the letter service on create.
const MaxGoalsPerLetter = 3
