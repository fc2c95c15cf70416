// Package auth attaches bearer tokens to outgoing API requests and recovers
// from expired access tokens: concurrent failures share a single refresh
// call and every failed request is replayed with the new token.
package auth

import (
	"net/http"
	"slices"
)

// Error details the server returns when the access token is no longer
// accepted.
const (
	DetailSignatureExpired = "Signature has expired"
	DetailTokenInvalid     = "Token is invalid"
)

// Policy decides which responses mean "the access token expired".
//
// A response is an auth failure when its status is in FailureStatuses AND the
// "detail" field of its JSON body is one of ExpiredDetails. The server's JWT
// library reports some token errors as 422 Unprocessable Entity, which is why
// DefaultPolicy lists it next to 401.
type Policy struct {
	FailureStatuses []int
	ExpiredDetails  []string
}

// DefaultPolicy returns the policy matching the novelist API server.
func DefaultPolicy() Policy {
	return Policy{
		FailureStatuses: []int{http.StatusUnauthorized, http.StatusUnprocessableEntity},
		ExpiredDetails:  []string{DetailSignatureExpired, DetailTokenInvalid},
	}
}

// IsFailureStatus reports whether code may signal an expired token.
func (p Policy) IsFailureStatus(code int) bool {
	return slices.Contains(p.FailureStatuses, code)
}

// IsExpiredDetail reports whether detail names an expired or invalid token.
func (p Policy) IsExpiredDetail(detail string) bool {
	return slices.Contains(p.ExpiredDetails, detail)
}

func (p Policy) isZero() bool {
	return len(p.FailureStatuses) == 0 && len(p.ExpiredDetails) == 0
}
