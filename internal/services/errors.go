// Package services defines the business logic for the invite lifecycle:
// invite creation and resolution, survey answers, reviews, and the
// notification feed. This file centralizes common service-level error values
// so that they can be consistently returned by service methods and checked by
// callers.
//
// These errors are intended for internal use by the service layer and translation
// into user-facing messages or HTTP status codes should be performed at the
// handler/controller layer (or the callback router for platform callbacks).
package services

import "errors"

// Invite lifecycle errors.
var (
	// ErrInviteNotFound indicates that the requested invite does not exist.
	ErrInviteNotFound = errors.New("invite not found")

	// ErrUserNotFound indicates that no user is known for the given identity.
	ErrUserNotFound = errors.New("user not found")

	// ErrUnauthorized is returned when the caller is not the party allowed to
	// act on the invite (e.g. accepting someone else's invite).
	ErrUnauthorized = errors.New("not authorized")

	// ErrAlreadyResolved is returned when responding to an invite that is no
	// longer pending.
	ErrAlreadyResolved = errors.New("invite already resolved")

	// ErrInvalidAction is returned for an action other than accept/decline.
	ErrInvalidAction = errors.New("action must be accept or decline")

	// ErrInvalidInvite is returned when invite input is missing a party.
	ErrInvalidInvite = errors.New("initiator and responder are required")

	// ErrSelfInvite is returned when initiator and responder are the same.
	ErrSelfInvite = errors.New("cannot invite yourself")
)

// Survey and review errors.
var (
	// ErrDuplicateAnswer is returned when a user answers the same survey twice.
	ErrDuplicateAnswer = errors.New("survey already answered")

	// ErrInvalidAnswer is returned for an answer other than yes/no.
	ErrInvalidAnswer = errors.New("answer must be yes or no")

	// ErrInvalidReaction is returned for a label outside the allowed set.
	ErrInvalidReaction = errors.New("reaction is not allowed")

	// ErrSelfReview is returned when reviewer and target are the same user.
	ErrSelfReview = errors.New("cannot review yourself")
)

// Notification errors.
var (
	// ErrNotificationNotFound indicates that the notification does not exist
	// or belongs to another user.
	ErrNotificationNotFound = errors.New("notification not found")
)
