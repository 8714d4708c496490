package testutil

import (
	"net/http"

	id "custody/pkg/domain"
	authmw "custody/pkg/platform/middleware/auth"
)

// WithIdentity adds a caller identity to the request context, as the auth
// middleware would for an authenticated request. Invalid identities are
// ignored.
func WithIdentity(req *http.Request, identity string) *http.Request {
	caller, err := id.ParseIdentity(identity)
	if err != nil {
		return req
	}
	return req.WithContext(authmw.WithIdentity(req.Context(), caller))
}

// WithCaller is WithIdentity for an already-parsed identity.
func WithCaller(req *http.Request, caller id.Identity) *http.Request {
	return req.WithContext(authmw.WithIdentity(req.Context(), caller))
}
