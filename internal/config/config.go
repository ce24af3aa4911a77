// Package config gerencia as configurações do aplicativo
// carregando variáveis de ambiente do arquivo .env
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config armazena todas as configurações da aplicação
type Config struct {
	// Servidor
	Port string
	Env  string

	// Cielo E-commerce
	Cielo CieloConfig

	// Notificações (post de notificação da Cielo)
	Notification NotificationConfig

	// Logs
	Logging LoggingConfig
}

// CieloConfig armazena configurações específicas da Cielo
type CieloConfig struct {
	MerchantID  string
	MerchantKey string
	Sandbox     bool

	// Sobrescrevem as URLs do ambiente (ex: servidor de testes)
	APIURL   string
	QueryURL string

	Timeout time.Duration

	// Certificado cliente opcional (.p12) para proxies de saída com mTLS
	CertificatePath     string
	CertificatePassword string
}

// NotificationConfig armazena configurações do endpoint de notificação
type NotificationConfig struct {
	Secret string
}

// LoggingConfig armazena configurações de log
type LoggingConfig struct {
	Level  string // debug, info, warn, error
	Format string // text, json
}

// Load carrega as configurações do arquivo .env e variáveis de ambiente
// O arquivo .env é opcional - variáveis de ambiente têm prioridade
func Load() (*Config, error) {
	// Tenta carregar .env (ignora erro se não existir)
	_ = godotenv.Load()

	timeout, err := getEnvDuration("CIELO_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),
		Cielo: CieloConfig{
			MerchantID:          getEnv("CIELO_MERCHANT_ID", ""),
			MerchantKey:         getEnv("CIELO_MERCHANT_KEY", ""),
			Sandbox:             getEnvBool("CIELO_SANDBOX", true),
			APIURL:              getEnv("CIELO_API_URL", ""),
			QueryURL:            getEnv("CIELO_QUERY_URL", ""),
			Timeout:             timeout,
			CertificatePath:     getEnv("CIELO_CERTIFICATE_PATH", ""),
			CertificatePassword: getEnv("CIELO_CERTIFICATE_PASSWORD", ""),
		},
		Notification: NotificationConfig{
			Secret: getEnv("NOTIFICATION_SECRET", ""),
		},
		Logging: LoggingConfig{
			Level:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
			Format: strings.ToLower(getEnv("LOG_FORMAT", "text")),
		},
	}

	// Validação básica
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate verifica se as configurações obrigatórias estão presentes
func (c *Config) validate() error {
	if c.Cielo.MerchantID == "" {
		return fmt.Errorf("CIELO_MERCHANT_ID é obrigatório")
	}
	if c.Cielo.MerchantKey == "" {
		return fmt.Errorf("CIELO_MERCHANT_KEY é obrigatório")
	}
	if (c.Cielo.APIURL == "") != (c.Cielo.QueryURL == "") {
		return fmt.Errorf("CIELO_API_URL e CIELO_QUERY_URL devem ser informadas juntas")
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT inválido: %s", c.Logging.Format)
	}
	return nil
}

// IsDevelopment retorna true se estiver em ambiente de desenvolvimento
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction retorna true se estiver em ambiente de produção
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// getEnv obtém uma variável de ambiente ou retorna o valor padrão
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool obtém uma variável de ambiente como bool
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// getEnvDuration obtém uma variável de ambiente como duração ("30s", "2m")
func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s inválido: %w", key, err)
	}
	if parsed <= 0 {
		return 0, fmt.Errorf("%s deve ser positivo", key)
	}
	return parsed, nil
}
