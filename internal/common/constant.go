// Package common contains shared constants and sentinel errors used across
// Echo client components.
package common

// AuthHeaderName is the HTTP header used to carry the access token on
// outbound requests to the remote store gateway.
const AuthHeaderName = "Authorization"

// BearerPrefix prepends the access token in AuthHeaderName.
const BearerPrefix = "Bearer "
