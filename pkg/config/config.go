package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App     AppConfig
	DB      DBConfig
	JWT     JWTConfig
	HTTP    HTTPConfig
	Log     LogConfig
	ZATCA   ZATCAConfig
	Storage StorageConfig
	Redis   RedisConfig
}

// ZATCAConfig configuración para factura electrónica ZATCA (Arabia Saudita, fase 2).
type ZATCAConfig struct {
	BaseURL        string        // Portal de onboarding (ej. https://gw-fatoora.zatca.gov.sa/e-invoicing/developer-portal)
	StrictChain    bool          // true = falla si la factura anterior no tiene hash (en vez de usar el placeholder)
	CounterBackend string        // "postgres" | "redis"
	CounterKey     string        // Nombre del contador ICV
	CertPath       string        // Ruta al certificado .pem o .p12 (vacío = usar el CSID guardado en la configuración)
	CertKeyPath    string        // Ruta a la llave privada .pem (si CertPath es solo el certificado)
	CertPassword   string        // Contraseña del .p12 (si CertPath es .p12)
	HTTPTimeout    time.Duration // Timeout de llamadas al portal
}

// StorageConfig dónde se guardan los XML generados.
type StorageConfig struct {
	Backend         string // "postgres" | "s3"
	S3Bucket        string
	S3Region        string
	S3Endpoint      string // opcional (MinIO, LocalStack)
	AccessKeyID     string
	SecretAccessKey string
}

// RedisConfig conexión a Redis (solo si ZATCA_COUNTER_BACKEND=redis).
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env  string // development, staging, production
	Name string
}

// LogConfig nivel del logger.
type LogConfig struct {
	Level string
}

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	MaxConns    int
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string para PostgreSQL con URL encoding para caracteres especiales.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// JWTConfig configuración de JWT.
type JWTConfig struct {
	Secret     string
	Expiration int // minutos
	Issuer     string
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, DB_HOST, ZATCA_BASE_URL, etc.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:  getString(v, "APP_ENV", "development"),
			Name: getString(v, "APP_NAME", "zatca-einvoice"),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "zatca_einvoice"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
			MaxConns:    getInt(v, "DB_MAX_CONNS", 10),
		},
		JWT: JWTConfig{
			Secret:     getString(v, "JWT_SECRET", ""),
			Expiration: getInt(v, "JWT_EXPIRATION_MINUTES", 60),
			Issuer:     getString(v, "JWT_ISSUER", "zatca-einvoice"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		Log: LogConfig{
			Level: getString(v, "LOG_LEVEL", "info"),
		},
		ZATCA: ZATCAConfig{
			BaseURL:        getString(v, "ZATCA_BASE_URL", "https://gw-fatoora.zatca.gov.sa/e-invoicing/developer-portal"),
			StrictChain:    getBool(v, "ZATCA_STRICT_CHAIN", false),
			CounterBackend: getString(v, "ZATCA_COUNTER_BACKEND", "postgres"),
			CounterKey:     getString(v, "ZATCA_COUNTER_KEY", "zatca.icv_counter"),
			CertPath:       getString(v, "ZATCA_CERT_PATH", ""),
			CertKeyPath:    getString(v, "ZATCA_CERT_KEY_PATH", ""),
			CertPassword:   getString(v, "ZATCA_CERT_PASSWORD", ""),
			HTTPTimeout:    time.Duration(getInt(v, "ZATCA_HTTP_TIMEOUT_SECONDS", 60)) * time.Second,
		},
		Storage: StorageConfig{
			Backend:         getString(v, "STORAGE_BACKEND", "postgres"),
			S3Bucket:        getString(v, "AWS_S3_BUCKET", ""),
			S3Region:        getString(v, "AWS_REGION", "me-south-1"),
			S3Endpoint:      getString(v, "AWS_S3_ENDPOINT", ""),
			AccessKeyID:     getString(v, "AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getString(v, "AWS_SECRET_ACCESS_KEY", ""),
		},
		Redis: RedisConfig{
			Addr:     getString(v, "REDIS_ADDR", "localhost:6379"),
			Password: getString(v, "REDIS_PASSWORD", ""),
			DB:       getInt(v, "REDIS_DB", 0),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.ZATCA.CounterBackend {
	case "postgres", "redis":
	default:
		return fmt.Errorf("config: ZATCA_COUNTER_BACKEND desconocido %q (usar postgres|redis)", c.ZATCA.CounterBackend)
	}
	switch c.Storage.Backend {
	case "postgres":
	case "s3":
		if c.Storage.S3Bucket == "" {
			return fmt.Errorf("config: AWS_S3_BUCKET requerido con STORAGE_BACKEND=s3")
		}
	default:
		return fmt.Errorf("config: STORAGE_BACKEND desconocido %q (usar postgres|s3)", c.Storage.Backend)
	}
	return nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if !v.IsSet(key) {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		return def
	}
	return b
}
