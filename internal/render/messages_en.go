package render

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.English

	message.SetString(lang, keyMonth1, "January")
	message.SetString(lang, keyMonth2, "February")
	message.SetString(lang, keyMonth3, "March")
	message.SetString(lang, keyMonth4, "April")
	message.SetString(lang, keyMonth5, "May")
	message.SetString(lang, keyMonth6, "June")
	message.SetString(lang, keyMonth7, "July")
	message.SetString(lang, keyMonth8, "August")
	message.SetString(lang, keyMonth9, "September")
	message.SetString(lang, keyMonth10, "October")
	message.SetString(lang, keyMonth11, "November")
	message.SetString(lang, keyMonth12, "December")

	message.SetString(lang, keyDefaultMeal, "a meeting")
	message.SetString(lang, keyUnknownUser, "someone")
	message.SetString(lang, keyPlace, ` at "%s"`)
	message.SetString(lang, keyWhen, " at %s")

	message.SetString(lang, keyInviteCreated, "You have a new invite%s from %s for %s%s.")
	message.SetString(lang, keyInviteMessage, "\n\nMessage: %s")
	message.SetString(lang, keyInviteResolved, "Your invite%s with %s for %s%s was %s")
	message.SetString(lang, keyInviteAccepted, "accepted 🥳🥳🥳")
	message.SetString(lang, keyInviteDeclined, "declined 😭😭😭")
	message.SetString(lang, keyInviteContact, "\n\nReach out to %s")

	message.SetString(lang, ButtonAccept, "Accept")
	message.SetString(lang, ButtonDecline, "Decline")
	message.SetString(lang, ButtonProfile, "Open profile")
	message.SetString(lang, ButtonYes, "Yes, we met")
	message.SetString(lang, ButtonNo, "No")

	message.SetString(lang, keySurveyPrompt, "Did you meet %s%s%s? Tell us how it went.")
	message.SetString(lang, keySurveyFollowup, "Great! Leave a reaction for %s:")
	message.SetString(lang, keySurveyNegative, "No worries, you will find someone else.")

	message.SetString(lang, AckAccepted, "You accepted the invite")
	message.SetString(lang, AckDeclined, "You declined the invite")
	message.SetString(lang, AckBadCommand, "Invalid command")
	message.SetString(lang, AckFailed, "Processing error")
	message.SetString(lang, AckNotFound, "Invite not found")
	message.SetString(lang, AckUnauthorized, "This invite is not addressed to you")
	message.SetString(lang, AckAlreadyResolved, "Invite already handled")
	message.SetString(lang, AckSurveyNoted, "Thanks for your answer")
	message.SetString(lang, AckSurveyDuplicate, "You already answered this survey")
	message.SetString(lang, AckReactionAdded, "Reaction added")
	message.SetString(lang, AckReactionRemoved, "Reaction removed")
	message.SetString(lang, keyStatusLine, "\n\n✅ %s")
}
