// Package identity resolves the digital user behind a request credential.
package identity

import (
	"net/http"
	"strings"

	"github.com/go-chi/jwtauth"
	"github.com/google/uuid"

	"github.com/avvvet/game-manager/internal/gamesvc/apperr"
)

// DigitalUser is the authenticated principal. Credential is the raw bearer
// token, forwarded to the asset registry on the user's behalf.
type DigitalUser struct {
	ID         string
	Credential string
}

// AuthorizationHeader returns the header value used when calling downstream
// services as this user.
func (u DigitalUser) AuthorizationHeader() string {
	return "Bearer " + u.Credential
}

type Resolver struct {
	tokenAuth *jwtauth.JWTAuth
}

// NewResolver verifies HS256 tokens signed with secret.
func NewResolver(secret string) *Resolver {
	return &Resolver{tokenAuth: jwtauth.New("HS256", []byte(secret), nil)}
}

// Resolve verifies the token and returns the user named by its subject.
func (r *Resolver) Resolve(credential string) (DigitalUser, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return DigitalUser{}, apperr.AuthenticationFailed("Missing bearer token.")
	}

	token, err := jwtauth.VerifyToken(r.tokenAuth, credential)
	if err != nil {
		return DigitalUser{}, apperr.AuthenticationFailed("Invalid token: " + err.Error())
	}

	sub := token.Subject()
	if _, err := uuid.Parse(sub); err != nil {
		return DigitalUser{}, apperr.AuthenticationFailed("Token subject is not a valid digital user id.")
	}
	return DigitalUser{ID: sub, Credential: credential}, nil
}

// ResolveRequest reads the Authorization: Bearer header of req.
func (r *Resolver) ResolveRequest(req *http.Request) (DigitalUser, error) {
	return r.Resolve(jwtauth.TokenFromHeader(req))
}

// Issue signs a token for userID. Used by tests and local tooling.
func (r *Resolver) Issue(userID string, claims map[string]interface{}) (string, error) {
	all := map[string]interface{}{"sub": userID}
	for k, v := range claims {
		all[k] = v
	}
	_, tokenString, err := r.tokenAuth.Encode(all)
	return tokenString, err
}
