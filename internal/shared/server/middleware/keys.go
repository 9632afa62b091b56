package middleware

import "github.com/gin-gonic/gin"

const (
	sessionIDKey        = "sessionId"
	activityIDKey       = "activityId"
	statusTransitionKey = "statusTransition"
)

// SetSessionID records the session a request operates on for logging and rate limiting.
func SetSessionID(c *gin.Context, id string) {
	c.Set(sessionIDKey, id)
}

// SessionIDFromContext returns the value stored by SetSessionID.
func SessionIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(sessionIDKey)
}

// SetActivityID records the activity a request touched.
func SetActivityID(c *gin.Context, id int) {
	c.Set(activityIDKey, id)
}

// SetStatusTransition records a submission state change such as "pending->accepted".
func SetStatusTransition(c *gin.Context, transition string) {
	c.Set(statusTransitionKey, transition)
}
