// Package config handles configuration for the server component,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the dayplanner server.
//
// Fields:
//   - EndpointAddr: bind address for the HTTP endpoint.
//   - DatabaseDSN: PostgreSQL DSN for the SQL backend (pgx). Empty selects
//     the flat-file store.
//   - DataDir: directory of the flat-file store (accounts.json plus an
//     optional legacy tasks.csv migrated on first load).
//   - SecretKey: HMAC secret for signing session cookies (HS256). Do not use
//     test defaults in prod.
//   - SessionValidityDuration: lifetime of an authenticated session.
//   - CodeValidityDuration: validity window of verification codes.
//   - ReminderPollInterval: how often reminder waiters check the clock.
//   - SMTPHost/SMTPPort/SMTPUser/SMTPPassword/MailFrom: outbound mail
//     transport. An empty host selects the log-only sender.
//   - S3RootUser/S3RootPassword/S3Bucket/S3Region/S3BaseEndpoint: optional
//     object storage for spreadsheet exports. An empty bucket disables the
//     upload path and exports are returned inline.
type Config struct {
	EndpointAddr            string
	DatabaseDSN             string
	DataDir                 string
	SecretKey               string
	SessionValidityDuration time.Duration
	CodeValidityDuration    time.Duration
	ReminderPollInterval    time.Duration
	SMTPHost                string
	SMTPPort                int
	SMTPUser                string
	SMTPPassword            string
	MailFrom                string
	S3RootUser              string
	S3RootPassword          string
	S3Bucket                string
	S3Region                string
	S3BaseEndpoint          string
}

// LoadDefaults populates Config with sensible development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.EndpointAddr = ":8080"
	c.DatabaseDSN = ""
	c.DataDir = "./data"
	c.SecretKey = "secretKey"
	c.SessionValidityDuration = 24 * time.Hour
	c.CodeValidityDuration = 5 * time.Minute
	c.ReminderPollInterval = 30 * time.Second
	c.SMTPHost = ""
	c.SMTPPort = 587
	c.SMTPUser = ""
	c.SMTPPassword = ""
	c.MailFrom = "dayplanner@localhost"
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = ""
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
