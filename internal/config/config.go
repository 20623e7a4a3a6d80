package config

import (
	"os"      // For environment variables
	"strconv" // For string to int conversion
	"strings" // For list splitting

	"github.com/joho/godotenv" // For loading .env files
)

// Config holds the application configuration
type Config struct {
	AppPort    string // Application port
	DBUser     string // Database user
	DBPassword string // Database password
	DBHost     string // Database host
	DBPort     string // Database port
	DBName     string // Database name
	JWTSecret  string // JWT secret key
	JWTTTLHrs  int    // JWT lifetime in hours
	RedisAddr  string // Redis server address, empty disables caching
	RedisPass  string // Redis password
	RedisDB    int    // Redis database number
	IsProd     bool   // Is production environment
	LogLevel   string // Logrus level name

	StoreDriver string // mysql, or memory for local demos that keep nothing on exit

	BaseURL        string // Public URL used in mailed links
	AdminRegSecret string // Shared secret for admin self-registration
	AdminEmail     string // Seeded admin email
	AdminPassword  string // Seeded admin password
	AdminName      string // Seeded admin display name
	AdminWallet    string // Seeded admin wallet address

	RequireEmailVerification bool // Refuse login until the email is verified

	MailTransport string // smtp, queue or log
	SMTPHost      string // SMTP server host
	SMTPPort      int    // SMTP server port
	SMTPUser      string // SMTP username
	SMTPPass      string // SMTP password
	MailFrom      string // Sender address
	AMQPURL       string // RabbitMQ URL for the mail queue
	MailQueue     string // RabbitMQ queue name

	MongoURI string // MongoDB URI for the ledger audit trail, empty disables it
	MongoDB  string // MongoDB database name

	CORSOrigins   []string // Allowed dashboard origins
	AuthRatePerS  float64  // Auth requests per second per client
	AuthRateBurst int      // Auth burst size per client
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	return &Config{
		AppPort:    getEnv("APP_PORT", "8080"),     // Application port
		DBUser:     os.Getenv("DB_USER"),           // Database user
		DBPassword: os.Getenv("DB_PASSWORD"),       // Database password
		DBHost:     getEnv("DB_HOST", "127.0.0.1"), // Database host
		DBPort:     getEnv("DB_PORT", "3306"),      // Database port
		DBName:     os.Getenv("DB_NAME"),           // Database name
		JWTSecret:  os.Getenv("JWT_SECRET"),        // JWT secret key
		JWTTTLHrs:  getInt("JWT_TTL_HOURS", 24),    // JWT lifetime
		RedisAddr:  os.Getenv("REDIS_ADDR"),        // Redis server address
		RedisPass:  os.Getenv("REDIS_PASS"),        // Redis password
		RedisDB:    redisDB,                        // Redis database number
		IsProd:     os.Getenv("IS_PROD") == "true", // Is production environment
		LogLevel:   getEnv("LOG_LEVEL", "info"),    // Log level

		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", "mysql")),

		BaseURL:        strings.TrimRight(getEnv("BASE_URL", "http://localhost:3000"), "/"),
		AdminRegSecret: os.Getenv("ADMIN_REG_SECRET"),
		AdminEmail:     os.Getenv("ADMIN_EMAIL"),
		AdminPassword:  os.Getenv("ADMIN_PASSWORD"),
		AdminName:      getEnv("ADMIN_NAME", "Admin"),
		AdminWallet:    os.Getenv("ADMIN_WALLET"),

		RequireEmailVerification: os.Getenv("REQUIRE_EMAIL_VERIFICATION") == "true",

		MailTransport: getEnv("MAIL_TRANSPORT", "log"),
		SMTPHost:      os.Getenv("SMTP_HOST"),
		SMTPPort:      getInt("SMTP_PORT", 587),
		SMTPUser:      os.Getenv("SMTP_USER"),
		SMTPPass:      os.Getenv("SMTP_PASS"),
		MailFrom:      getEnv("SMTP_FROM", os.Getenv("SMTP_USER")),
		AMQPURL:       os.Getenv("AMQP_URL"),
		MailQueue:     getEnv("MAIL_QUEUE", "mail_queue"),

		MongoURI: os.Getenv("MONGO_URI"),
		MongoDB:  getEnv("MONGO_DB", "invest_tracker"),

		CORSOrigins:   splitList(os.Getenv("CORS_ORIGINS")),
		AuthRatePerS:  getFloat("AUTH_RATE_PER_SEC", 1),
		AuthRateBurst: getInt("AUTH_RATE_BURST", 5),
	}
}

// DSN builds the MySQL data source name
func (c *Config) DSN() string {
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?parseTime=true"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil && v > 0 {
		return v
	}
	return fallback
}

// splitList parses a comma separated list, dropping blanks
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
