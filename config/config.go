package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Catalog source kinds.
const (
	CatalogSourceFile  = "file"
	CatalogSourceMinio = "minio"
	CatalogSourceGCS   = "gcs"
)

// Event backend kinds.
const (
	EventsBackendNone     = "none"
	EventsBackendRabbitMQ = "rabbitmq"
	EventsBackendPubSub   = "pubsub"
)

type Config struct {
	ServerPort  int
	FrontendURL string
	Database    DatabaseConfig
	Session     SessionConfig
	SSO         SSOConfig
	Catalog     CatalogConfig
	Events      EventsConfig
	Minio       MinioConfig
	GCS         GCSConfig
	RabbitMQ    RabbitMQConfig
	PubSub      PubSubConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	UseSSL   bool
}

// SessionConfig controls the server-side session store and its cookie.
type SessionConfig struct {
	Secret     string
	CookieName string
	TTL        time.Duration
}

// SSOConfig controls the signed token handed to the external chat system.
// An empty Secret disables only the token-issuance path, never startup.
type SSOConfig struct {
	Secret   string
	BaseURL  string
	Issuer   string
	Audience string
	TokenTTL time.Duration
}

// CatalogConfig selects where the static services catalog is read from.
type CatalogConfig struct {
	Source    string
	File      string
	ObjectKey string
}

type EventsConfig struct {
	Backend string
	Channel string
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type GCSConfig struct {
	Bucket          string
	ProjectID       string
	CredentialsFile string
}

type RabbitMQConfig struct {
	URL          string
	QueueDurable bool
}

type PubSubConfig struct {
	ProjectID       string
	CredentialsFile string
}

func LoadConfig() Config {
	if os.Getenv("ENV") == "dev" {
		godotenv.Load()
	}

	return Config{
		ServerPort:  getEnvInt("SERVER_PORT", 4000),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "coopsite"),
			Password: getEnv("DB_PASSWORD", "password"),
			DBName:   getEnv("DB_NAME", "coopsite_db"),
			UseSSL:   getEnvBool("DB_SSL", false),
		},
		Session: SessionConfig{
			Secret:     getEnv("SESSION_SECRET", ""),
			CookieName: getEnv("SESSION_COOKIE_NAME", "coopsite_session"),
			TTL:        time.Duration(getEnvInt("SESSION_TTL_SECONDS", 0)) * time.Second,
		},
		SSO: SSOConfig{
			Secret:   getEnv("SSO_JWT_SECRET", ""),
			BaseURL:  getEnv("SSO_BASE_URL", ""),
			Issuer:   getEnv("SSO_ISSUER", "coopsite-backend"),
			Audience: getEnv("SSO_AUDIENCE", "chat-service"),
			TokenTTL: time.Duration(getEnvInt("SSO_TOKEN_TTL_SECONDS", 60)) * time.Second,
		},
		Catalog: CatalogConfig{
			Source:    getEnv("CATALOG_SOURCE", CatalogSourceFile),
			File:      getEnv("CATALOG_FILE", "content/services.json"),
			ObjectKey: getEnv("CATALOG_OBJECT_KEY", "services.json"),
		},
		Events: EventsConfig{
			Backend: getEnv("EVENTS_BACKEND", EventsBackendNone),
			Channel: getEnv("EVENTS_CHANNEL", "auth-events"),
		},
		Minio: MinioConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", "coopsite-content"),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		GCS: GCSConfig{
			Bucket:          getEnv("GCS_BUCKET", ""),
			ProjectID:       getEnv("GCS_PROJECT_ID", ""),
			CredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),
		},
		RabbitMQ: RabbitMQConfig{
			URL:          getEnv("RABBITMQ_URL", ""),
			QueueDurable: getEnvBool("RABBITMQ_QUEUE_DURABLE", true),
		},
		PubSub: PubSubConfig{
			ProjectID:       getEnv("PUBSUB_PROJECT_ID", ""),
			CredentialsFile: getEnv("PUBSUB_CREDENTIALS_FILE", ""),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		var value int
		fmt.Sscanf(valueStr, "%d", &value)
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		return valueStr == "1" || valueStr == "true" || valueStr == "yes"
	}
	return defaultValue
}
