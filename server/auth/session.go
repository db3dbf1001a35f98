package auth

import (
	"context"
	"crypto/rand"
	"math/big"

	"github.com/topi314/chapter-events/server/database"
)

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ1234567890")

type sessionKey struct{}

var sessionContextKey = &sessionKey{}

func SetSession(ctx context.Context, session database.SessionWithUser) context.Context {
	return context.WithValue(ctx, sessionContextKey, session)
}

// GetSession returns the session of the request. ok is false for anonymous
// requests.
func GetSession(ctx context.Context) (database.SessionWithUser, bool) {
	session, ok := ctx.Value(sessionContextKey).(database.SessionWithUser)
	if !ok || session.Session.ID == "" {
		return database.SessionWithUser{}, false
	}
	return session, true
}

func RandomStr(length int) string {
	b := make([]rune, length)
	limit := big.NewInt(int64(len(letters)))
	for i := range b {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			panic(err)
		}
		b[i] = letters[n.Int64()]
	}
	return string(b)
}
