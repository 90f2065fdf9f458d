package module

import (
	"time"

	"keycap/internal/platform/config"
	authsvc "keycap/internal/services/auth/service"
)

// FromConfig reads with AUTH_ prefix
func FromConfig(cfg config.Conf) authsvc.Config {
	c := cfg.Prefix("AUTH_")
	return authsvc.Config{
		Secret:     c.MustString("JWT_SECRET"),
		TokenTTL:   c.MayDuration("TOKEN_TTL", 24*time.Hour),
		BcryptCost: c.MayInt("BCRYPT_COST", 0),
	}
}
