package validators

import (
	"errors"
	"strings"
)

var ErrInvalidToken = errors.New("invalid auth token")

// BearerToken returns the credential of a "Bearer <token>" Authorization
// value. A bare token without scheme is accepted for the token CLI's
// convenience; any other scheme is rejected.
func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	scheme, token, found := strings.Cut(header, " ")
	switch {
	case !found:
		token = scheme
		if strings.EqualFold(token, "bearer") {
			return "", ErrInvalidToken
		}
	case !strings.EqualFold(scheme, "bearer"):
		return "", ErrInvalidToken
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", ErrInvalidToken
	}
	return token, nil
}
