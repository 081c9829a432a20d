package validators

import (
	"errors"
	"strings"
)

var ErrInvalidToken = errors.New("invalid auth token")

const bearerScheme = "bearer"

// BearerToken extracts the token from an Authorization header value. A bare
// token without the scheme is accepted; the scheme alone is not a token.
func BearerToken(raw string) (string, error) {
	token := strings.TrimSpace(raw)
	if scheme, rest, found := strings.Cut(token, " "); found && strings.EqualFold(scheme, bearerScheme) {
		token = strings.TrimSpace(rest)
	}
	if token == "" || strings.EqualFold(token, bearerScheme) || strings.ContainsAny(token, " \t") {
		return "", ErrInvalidToken
	}
	return token, nil
}
