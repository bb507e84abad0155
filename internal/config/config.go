package config // package config loads application configuration from environment variables

import (
    "log"     // log is used to report configuration errors and halt execution
    "os"      // os provides access to environment variables
    "strconv" // strconv converts strings to other types
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for durations and costs.
type Config struct {
    Env            string // application environment (e.g. "dev", "prod")
    Port           string // HTTP port to listen on
    DBUser         string // database username
    DBPass         string // database password (optional)
    DBHost         string // database host address
    DBPort         string // database port number
    DBName         string // database name
    JWTSecret      string // secret used to sign JWTs
    JWTAlgorithm   string // HMAC signing algorithm name (HS256, HS384 or HS512)
    AccessTTLMin   int    // access token time‑to‑live in minutes
    RefreshTTLDays int    // refresh token time‑to‑live in days
    RefreshCookie  string // name of the cookie carrying the refresh token
    BcryptCost     int    // bcrypt cost for password hashing
    PasswordMinLen int    // minimum accepted password length
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
    cfg := Config{
        Env:            must("APP_ENV"),      // environment (dev/test/prod)
        Port:           must("APP_PORT"),     // port to bind the HTTP server
        DBUser:         must("DB_USER"),      // database user
        DBPass:         os.Getenv("DB_PASS"), // database password (empty allowed)
        DBHost:         must("DB_HOST"),      // database host
        DBPort:         must("DB_PORT"),      // database port
        DBName:         must("DB_NAME"),      // database name
        JWTSecret:      must("JWT_SECRET"),   // secret used for signing JWTs
        JWTAlgorithm:   getenv("JWT_ALGORITHM", "HS256"),
        AccessTTLMin:   mustInt("ACCESS_TOKEN_EXPIRATION_MINUTES"), // TTL for access tokens in minutes
        RefreshTTLDays: mustInt("REFRESH_TOKEN_EXPIRATION_DAYS"),   // TTL for refresh tokens in days
        RefreshCookie:  getenv("REFRESH_TOKEN_COOKIE_NAME", "refresh_token"),
        BcryptCost:     mustInt("BCRYPT_COST"), // bcrypt cost factor
        PasswordMinLen: atoiDefault(os.Getenv("PASSWORD_MIN_LENGTH"), 8),
    }
    // Token verification pins HMAC, so reject anything else at startup
    // rather than on the first login.
    switch cfg.JWTAlgorithm {
    case "HS256", "HS384", "HS512":
    default:
        log.Fatalf("unsupported JWT_ALGORITHM: %q (want HS256, HS384 or HS512)", cfg.JWTAlgorithm)
    }
    return cfg
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

// atoiDefault parses s as an integer, falling back to def when s is empty
// or malformed.  Used for optional numeric settings.
func atoiDefault(s string, def int) int {
    if s == "" {
        return def
    }
    n, err := strconv.Atoi(s)
    if err != nil {
        return def
    }
    return n
}
