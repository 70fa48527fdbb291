package config // package config loads application configuration from environment variables

import (
	"log"      // log is used to report configuration errors and halt execution
	"os"       // os provides access to environment variables
	"strconv"  // strconv converts strings to other types
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for durations and costs.
type Config struct {
	Env              string // application environment (e.g. "dev", "prod")
	Port             string // HTTP port to listen on
	DBUser           string // database username
	DBPass           string // database password (optional)
	DBHost           string // database host address
	DBPort           string // database port number
	DBName           string // database name
	DBMaxOpenConns   int    // connection pool: max open connections
	DBMaxIdleConns   int    // connection pool: max idle connections
	DBConnMaxLifeMin int    // connection pool: max connection lifetime in minutes
	JWTSecret        string // symmetric key used to sign JWTs; never logged
	JWTIssuer        string // issuer string embedded in and required of every token
	AccessTTLMin     int    // access token time‑to‑live in minutes
	BcryptCost       int    // bcrypt cost for password hashing
	GoogleBooksURL   string // base URL of the Google Books volumes API
	GoogleBooksKey   string // API key for the Google Books API
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:              must("APP_ENV"),                   // environment (dev/test/prod)
		Port:             must("APP_PORT"),                  // port to bind the HTTP server
		DBUser:           must("DB_USER"),                   // database user
		DBPass:           os.Getenv("DB_PASS"),              // database password (empty allowed)
		DBHost:           must("DB_HOST"),                   // database host
		DBPort:           must("DB_PORT"),                   // database port
		DBName:           must("DB_NAME"),                   // database name
		DBMaxOpenConns:   intOr("DB_MAX_OPEN_CONNS", 25),    // pool limit for open connections
		DBMaxIdleConns:   intOr("DB_MAX_IDLE_CONNS", 25),    // pool limit for idle connections
		DBConnMaxLifeMin: intOr("DB_CONN_MAX_LIFE_MIN", 30), // connection lifetime in minutes
		JWTSecret:        must("JWT_SECRET"),                // signing key for JWTs
		JWTIssuer:        must("JWT_ISSUER"),                // issuer claim required on every token
		AccessTTLMin:     mustInt("ACCESS_TOKEN_TTL_MIN"),   // TTL for access tokens in minutes
		BcryptCost:       mustInt("BCRYPT_COST"),            // bcrypt cost factor
		GoogleBooksURL:   must("GOOGLE_BOOKS_URL"),          // external catalog base URL
		GoogleBooksKey:   os.Getenv("GOOGLE_BOOKS_KEY"),     // external catalog API key (empty allowed)
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// intOr reads an optional integer variable, falling back to def when the
// variable is unset.  A set but unparseable value is still a fatal error.
func intOr(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
