package global

import (
	"crypto/ed25519"
	"os"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"gopkg.in/yaml.v3"
)

// Conf global config
var Conf Config

// Capability signing keys (loaded from config or generated at startup).
// Capability tokens prove a server-side identity assertion for the current session.
var CapabilityPublicKey ed25519.PublicKey
var CapabilityPrivateKey ed25519.PrivateKey

// Global rate limiter
var RateLimiter *redis_rate.Limiter

type Config struct {
	Host        string             `yaml:"host"`
	Port        int                `yaml:"port"`
	Mode        string             `yaml:"mode"`
	Version     string             `yaml:"version"`
	CouchDB     CouchDBConfig      `yaml:"couchdb"`
	Redis       RedisConfig        `yaml:"redis"`
	Prometheus  PrometheusConfig   `yaml:"prometheus"`
	Queue       QueueConfig        `yaml:"queue"`
	SmtpServers []*SmtpServerConfig `yaml:"smtpservers"`
	Admin       AdminConfig        `yaml:"admin"`
}

type CouchDBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Scheme   string `yaml:"scheme"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type PrometheusConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type QueueConfig struct {
	Concurrency int `yaml:"concurrency"`
}

type SmtpServerConfig struct {
	Provider   string `yaml:"provider"`
	Domain     string `yaml:"domain"`
	Sendapikey string `yaml:"sendapikey"`
	From       string `yaml:"from"`
}

// AdminConfig holds the admin credential policy.
//
// TrustedEmail is the fixed out-of-band mailbox that receives every self-service
// request key; request keys are never mailed to the requester.
// PrivilegedEmail is the single identity allowed to mint keys for others, proven
// through a Google ID token.
type AdminConfig struct {
	TrustedEmail         string `yaml:"trustedEmail"`
	PrivilegedEmail      string `yaml:"privilegedEmail"`
	GoogleClientID       string `yaml:"googleClientId"`
	CapabilityKeyBase64  string `yaml:"capabilityKeyBase64"`
	RequestKeyTTLHours   int    `yaml:"requestKeyTTLHours"`
	AdminKeyTTLDays      int    `yaml:"adminKeyTTLDays"`
	SweepIntervalMinutes int    `yaml:"sweepIntervalMinutes"`
}

// RequestKeyTTL returns the short-lived request key validity window (default 24h).
func (a AdminConfig) RequestKeyTTL() time.Duration {
	if a.RequestKeyTTLHours > 0 {
		return time.Duration(a.RequestKeyTTLHours) * time.Hour
	}
	return 24 * time.Hour
}

// AdminKeyTTL returns the long-lived admin key validity window (default 90 days).
func (a AdminConfig) AdminKeyTTL() time.Duration {
	if a.AdminKeyTTLDays > 0 {
		return time.Duration(a.AdminKeyTTLDays) * 24 * time.Hour
	}
	return 90 * 24 * time.Hour
}

// LoadConfig reads a yaml configuration file into conf
func LoadConfig(path string, conf *Config) error {
	confBytes, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(confBytes, conf)
}
