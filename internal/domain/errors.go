package domain

import "errors"

var (
	// ErrNoSessionToken indicates the request carried no session token in the
	// Authorization header or the id_token query parameter.
	ErrNoSessionToken = errors.New("no session token on request")

	// ErrInvalidSessionToken indicates the session token failed to decode or
	// verify. Recovery is the same as for a missing token: re-acquire a fresh
	// one client-side.
	ErrInvalidSessionToken = errors.New("invalid session token")

	// ErrExchangeFailed indicates the token exchange call errored, timed out,
	// or returned no access token. Fatal for the current request.
	ErrExchangeFailed = errors.New("token exchange failed")

	// ErrEntitlementQuery indicates the remote subscription query failed.
	// The gate absorbs it and fails open.
	ErrEntitlementQuery = errors.New("entitlement query failed")

	// ErrSessionNotFound indicates no stored session matched the lookup.
	ErrSessionNotFound = errors.New("session not found")
)
