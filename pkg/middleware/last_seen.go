package middleware

import (
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UpdateLastSeenMiddleware refreshes the authenticated user's lastSeen
// timestamp on every request. Failures are ignored; lastSeen is advisory.
func UpdateLastSeenMiddleware(touch func(r *http.Request, userID primitive.ObjectID)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetUserFromContext(r.Context())
			if claims != nil {
				if userID, err := primitive.ObjectIDFromHex(claims.UserID); err == nil {
					touch(r, userID)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
