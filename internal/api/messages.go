package api

import (
	"net/http"

	"github.com/ashureev/profiledesk/internal/apperr"
)

// Fixed reply texts.
const (
	FallbackText        = "Intent not handled."
	PendingText         = "Still processing. Please check back in a few seconds."
	NotFoundText        = "I already gave you that result. Ask me to look up the profile again for a fresh one."
	OutstandingText     = "I'm still working on your previous request. Ask me for that result first."
	ProfileAckText      = "I'm fetching that profile now. Ask me for the profile summary in a moment."
	AnalysisAckText     = "I'm analyzing that profile now. Ask me for the personality analysis in a moment."
	badStatusClientText = "Sorry, I couldn't find that profile. Please check the URL format and try again."
	badStatusServerText = "The profile service is having trouble right now. Please try again later."
	missingFieldText    = "Person ID not found in API response."
	unavailableText     = "I couldn't reach the profile service. Please try again in a moment."
	authText            = "I couldn't authenticate with the profile service."
	invalidInputText    = "Please share the LinkedIn profile URL you want me to look up."
	timeoutText         = "That lookup took too long. Please ask me to try again."
	internalText        = "Something went wrong while handling your request."
)

// UserMessage converts any error into the text spoken back to the user.
// It is the only place failures become user-facing text.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	switch apperr.KindOf(err) {
	case apperr.KindUpstreamBadStatus:
		if apperr.StatusOf(err) >= http.StatusInternalServerError {
			return badStatusServerText
		}
		return badStatusClientText
	case apperr.KindMissingField:
		return missingFieldText
	case apperr.KindUpstreamUnavailable:
		return unavailableText
	case apperr.KindAuthFailure:
		return authText
	case apperr.KindInvalidInput:
		return invalidInputText
	case apperr.KindUnknownIntent:
		return FallbackText
	case apperr.KindTimeout:
		return timeoutText
	default:
		return internalText
	}
}
