package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("APP_PORT", "")
	t.Setenv("JWT_TTL_HOURS", "")
	t.Setenv("MAIL_TRANSPORT", "")
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("BASE_URL", "https://invest.example.com/")
	t.Setenv("CORS_ORIGINS", " https://a.example.com, ,https://b.example.com")

	cfg := LoadConfig()

	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, 24, cfg.JWTTTLHrs)
	assert.Equal(t, "log", cfg.MailTransport)
	assert.Equal(t, "mysql", cfg.StoreDriver)
	assert.Equal(t, "https://invest.example.com", cfg.BaseURL)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSOrigins)
}

func TestDSN(t *testing.T) {
	cfg := &Config{DBUser: "app", DBPassword: "pw", DBHost: "db", DBPort: "3306", DBName: "invest"}
	assert.Equal(t, "app:pw@tcp(db:3306)/invest?parseTime=true", cfg.DSN())
}

func TestStoreDriverIsCaseInsensitive(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Memory")
	assert.Equal(t, "memory", LoadConfig().StoreDriver)
}
