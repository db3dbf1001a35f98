package auth

import (
	"fmt"
	"strings"

	"github.com/topi314/chapter-events/internal/xtime"
)

type Config struct {
	ClientID        string         `toml:"client_id"`
	ClientSecret    string         `toml:"client_secret"`
	SessionDuration xtime.Duration `toml:"session_duration"`
	SecureCookies   bool           `toml:"secure_cookies"`
	Admins          []string       `toml:"admins"`
}

func (c Config) String() string {
	return fmt.Sprintf("\n ClientID: %s\n ClientSecret: %s\n SessionDuration: %s\n SecureCookies: %t\n Admins: %s",
		c.ClientID,
		strings.Repeat("*", len(c.ClientSecret)),
		c.SessionDuration,
		c.SecureCookies,
		strings.Join(c.Admins, ", "),
	)
}
