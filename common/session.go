package common

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	gormsessions "github.com/gin-contrib/sessions/gorm"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	UserIDKey = "user_id"

	// SessionMaxLength bounds one encoded session row. The response history
	// alone can hold HISTORY_LIMIT full answers.
	SessionMaxLength = 1 << 20
)

// NewSessionStore keeps sessions in the "sessions" table of db.
// cleanup starts the hourly sweep of expired rows.
func NewSessionStore(db *gorm.DB, secret []byte, secure, cleanup bool) sessions.Store {
	store := gormsessions.NewStore(db, cleanup, secret)
	// securecookie caps encoded values at 4096 bytes by default
	if limited, ok := store.(interface{ MaxLength(int) }); ok {
		limited.MaxLength(SessionMaxLength)
	}
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   secure,
	})
	return store
}

// RequireAuth redirects anonymous visitors to the login page and exposes
// the session user id as "user_id" on the gin context.
func RequireAuth(c *gin.Context) {
	session := sessions.Default(c)
	userID := session.Get(UserIDKey)

	if userID == nil {
		c.Redirect(http.StatusFound, "/login")
		c.Abort()
		return
	}

	c.Set(UserIDKey, userID)
	c.Next()
}

func CurrentUserID(c *gin.Context) int {
	return c.GetInt(UserIDKey)
}

// Flash queues a one-shot message for the next rendered page.
func Flash(c *gin.Context, message string) {
	session := sessions.Default(c)
	session.AddFlash(message)
	_ = session.Save()
}

// FlashRedirect is the standard failure path of every form route.
func FlashRedirect(c *gin.Context, message, location string) {
	Flash(c, message)
	c.Redirect(http.StatusFound, location)
}

// Flashes drains the queued messages.
func Flashes(c *gin.Context) []string {
	session := sessions.Default(c)
	raw := session.Flashes()
	if len(raw) == 0 {
		return nil
	}
	_ = session.Save()

	messages := make([]string, 0, len(raw))
	for _, f := range raw {
		if s, ok := f.(string); ok {
			messages = append(messages, s)
		}
	}
	return messages
}
