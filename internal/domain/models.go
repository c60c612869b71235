// Package domain defines the persistence models for users, invites, survey
// answers, notifications, and reviews. These types are mapped with GORM and
// form the core data layer of the meet&eat backend.
package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Invite lifecycle states. pending is the only non-terminal state.
const (
	InviteStatusPending  = "pending"
	InviteStatusAccepted = "accepted"
	InviteStatusDeclined = "declined"
)

// Survey answers.
const (
	SurveyAnswerYes = "yes"
	SurveyAnswerNo  = "no"
)

// Notification payload tags interpreted by the client.
const (
	NotificationInviteResponse = "invite_response"
	NotificationSurvey         = "survey"
	NotificationSurveyFollowup = "survey_followup"
	NotificationSurveyNegative = "survey_negative"
)

// User is a person known to the system by their messaging-platform identity.
// Rows are created lazily the first time an identity takes part in an invite
// or review.
//
// Fields:
//   - ID: monotonically increasing primary key.
//   - TgID: platform identity (unique); this is what authorization compares.
//   - Name / Username: display fields, both optional.
type User struct {
	ID        uint64    `json:"id"         gorm:"primaryKey;autoIncrement"`
	TgID      int64     `json:"tg_id"      gorm:"not null;uniqueIndex"`
	Name      string    `json:"name"       gorm:"type:varchar(255)"`
	Username  string    `json:"username"   gorm:"type:varchar(64)"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Invite is a proposal from the initiator to the responder to meet for a
// meal. Status moves pending -> accepted|declined exactly once.
//
// Ownership of mutable fields:
//   - Status, ResponderIdentityID, RespondedAt: only the invite state machine.
//   - SurveyDispatched: only the survey dispatcher, via a conditional claim.
type Invite struct {
	ID          uint64     `json:"id"           gorm:"primaryKey;autoIncrement"`
	InitiatorID uint64     `json:"initiator_id" gorm:"not null;index"`
	ResponderID uint64     `json:"responder_id" gorm:"not null;index"`
	MeetingTime *time.Time `json:"meeting_time,omitempty"`
	MealType    string     `json:"meal_type"    gorm:"type:varchar(64)"`
	VenueID     *uint64    `json:"venue_id,omitempty"`
	VenueName   string     `json:"venue_name"   gorm:"type:varchar(255)"`
	Message     string     `json:"message"      gorm:"type:text"`
	Status      string     `json:"status"       gorm:"type:varchar(16);not null;default:'pending';index:idx_invite_survey,priority:1;check:status IN ('pending','accepted','declined')"`

	SurveyDispatched    bool       `json:"survey_dispatched" gorm:"not null;default:false;index:idx_invite_survey,priority:2"`
	ResponderIdentityID *uint64    `json:"responder_identity_id,omitempty"`
	RespondedAt         *time.Time `json:"responded_at,omitempty" gorm:"index:idx_invite_survey,priority:3"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Initiator User `json:"initiator" gorm:"foreignKey:InitiatorID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Responder User `json:"responder" gorm:"foreignKey:ResponderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Invite.
func (Invite) TableName() string { return "invites" }

// IsPending reports whether the invite can still be answered.
func (i *Invite) IsPending() bool { return i.Status == InviteStatusPending }

// Partner returns the other party of the invite relative to userID and
// whether userID takes part in it at all.
func (i *Invite) Partner(userID uint64) (User, bool) {
	switch userID {
	case i.InitiatorID:
		return i.Responder, true
	case i.ResponderID:
		return i.Initiator, true
	default:
		return User{}, false
	}
}

// SurveyResponse records one "did you meet" answer. A user may answer at
// most once per invite (enforced by unique index).
type SurveyResponse struct {
	ID        uint64    `json:"id"        gorm:"primaryKey;autoIncrement"`
	InviteID  uint64    `json:"invite_id" gorm:"not null;uniqueIndex:ux_survey_invite_user,priority:1"`
	UserID    uint64    `json:"user_id"   gorm:"not null;uniqueIndex:ux_survey_invite_user,priority:2"`
	Answer    string    `json:"answer"    gorm:"type:varchar(8);not null;check:answer IN ('yes','no')"`
	CreatedAt time.Time `json:"created_at"`

	Invite Invite `json:"-" gorm:"foreignKey:InviteID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for SurveyResponse.
func (SurveyResponse) TableName() string { return "survey_responses" }

// Notification is an append-only event addressed to one user. Only the Read
// flag is ever mutated after insert.
type Notification struct {
	ID        uint64         `json:"id"         gorm:"primaryKey;autoIncrement"`
	UserID    uint64         `json:"user_id"    gorm:"not null;index:idx_user_notifications,priority:1"`
	Type      string         `json:"type"       gorm:"type:varchar(32);not null"`
	Payload   datatypes.JSON `json:"payload"`
	Read      bool           `json:"read"       gorm:"not null;default:false"`
	CreatedAt time.Time      `json:"created_at" gorm:"index:idx_user_notifications,priority:2"`
}

// TableName returns the database table name for Notification.
func (Notification) TableName() string { return "notifications" }

// Review is one reaction label a reviewer attached to a target user. The
// (reviewer, target, reaction) tuple has set semantics.
type Review struct {
	ID           uint64    `json:"id"             gorm:"primaryKey;autoIncrement"`
	ReviewerID   uint64    `json:"reviewer_id"    gorm:"not null;uniqueIndex:ux_review_tuple,priority:1"`
	TargetUserID uint64    `json:"target_user_id" gorm:"not null;index;uniqueIndex:ux_review_tuple,priority:2"`
	Reaction     string    `json:"reaction"       gorm:"type:varchar(64);not null;uniqueIndex:ux_review_tuple,priority:3"`
	Comment      string    `json:"comment,omitempty" gorm:"type:text"`
	CreatedAt    time.Time `json:"created_at"`

	Reviewer User `json:"-" gorm:"foreignKey:ReviewerID;references:ID;constraint:OnDelete:CASCADE"`
	Target   User `json:"-" gorm:"foreignKey:TargetUserID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName returns the database table name for Review.
func (Review) TableName() string { return "reviews" }

// AllowedReactions is the fixed set of reaction labels.
var AllowedReactions = []string{
	"Приятный собеседник",
	"Мыслит нестандартно",
	"Крутой нетворкер",
	"Любит свое дело",
	"Позитивный и энергичный",
}

// IsAllowedReaction reports whether label is one of AllowedReactions.
func IsAllowedReaction(label string) bool {
	for _, r := range AllowedReactions {
		if r == label {
			return true
		}
	}
	return false
}
