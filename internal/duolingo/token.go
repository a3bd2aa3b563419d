package duolingo

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// tokenSubject reads the sub claim of the session token. The token is issued and checked by
// the remote service, so it is parsed without verification; "" if it is not a JWT.
func tokenSubject(token string) string {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return ""
	}
	switch sub := claims["sub"].(type) {
	case string:
		return sub
	case float64:
		return fmt.Sprintf("%.0f", sub)
	default:
		return ""
	}
}
