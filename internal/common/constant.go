// Package common contains shared constants and sentinel errors used across
// vaultwatch components.
package common

// AccessTokenHeaderName is the gRPC metadata key (and HTTP query parameter)
// used to carry the access token on inbound requests.
const AccessTokenHeaderName = "access_token"

// BreachAlertEvent is the name of the event pushed to an owner's sessions
// when one of their secrets shows up in the breach corpus.
const BreachAlertEvent = "breachAlert"
