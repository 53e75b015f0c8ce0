package middleware

// identity.go provides the caller identity used by the rate limiter
// and the response cache to key their Redis entries.  Unauthenticated
// requests share the "guest" identity.

import (
	"fmt"

	"github.com/labstack/echo/v4"
)

// callerID returns a stable string identity for the current request.
// It reads the member_id stored by JWTAuth; when the route is public
// or the claim is missing, "guest" is returned so anonymous traffic is
// limited as one pool.
func callerID(c echo.Context) string {
	v := c.Get("member_id")
	if v == nil {
		return "guest"
	}
	switch t := v.(type) {
	case string:
		if t != "" {
			return t
		}
	case float64:
		return fmt.Sprintf("%.0f", t)
	case uint64:
		return fmt.Sprintf("%d", t)
	case int64:
		return fmt.Sprintf("%d", t)
	}
	return "guest"
}
