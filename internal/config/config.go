package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the full run configuration. It is read once at startup and
// treated as immutable for the duration of a generation run.
type Config struct {
	// LLM provider
	OpenAIAPIKey  string
	OpenAIBaseURL string

	// Model identifiers per role
	CustomerModel       string
	RepresentativeModel string
	PersonaModel        string

	// Generation
	MaxTurns          int
	Temperature       float32
	MaxResponseTokens int
	KnowledgeMaxItems int
	MaxPersonas       int
	NumConversations  int
	Parallelism       int
	EnableEscalation  bool

	// Provider call handling
	RequestTimeout time.Duration
	MaxRetries     int

	// Optional phrase-set overrides (comma separated); empty means defaults
	EscalationPhrases   []string
	SatisfactionPhrases []string

	// Paths
	KnowledgeBasePath string
	PersonasPath      string
	OutputDir         string
	DataDir           string

	// Logging
	LogLevel    string
	LogToFile   bool
	LogFilePath string
}

// Load reads configuration from CG_-prefixed environment variables.
// Callers are expected to have loaded .env (godotenv) beforehand.
func Load() (*Config, error) {
	cfg := &Config{
		OpenAIAPIKey:        os.Getenv("CG_OPENAI_API_KEY"),
		OpenAIBaseURL:       getEnv("CG_OPENAI_BASE_URL", ""),
		CustomerModel:       getEnv("CG_CUSTOMER_MODEL", "gpt-4o-mini"),
		RepresentativeModel: getEnv("CG_REPRESENTATIVE_MODEL", "gpt-4o-mini"),
		PersonaModel:        getEnv("CG_PERSONA_MODEL", "gpt-4o-mini"),
		MaxTurns:            getEnvInt("CG_MAX_TURNS", 20),
		Temperature:         getEnvFloat("CG_TEMPERATURE", 0.7),
		MaxResponseTokens:   getEnvInt("CG_MAX_RESPONSE_TOKENS", 500),
		KnowledgeMaxItems:   getEnvInt("CG_KNOWLEDGE_MAX_ITEMS", 15),
		MaxPersonas:         getEnvInt("CG_MAX_PERSONAS", 50),
		NumConversations:    getEnvInt("CG_NUM_CONVERSATIONS", 10),
		Parallelism:         getEnvInt("CG_PARALLELISM", 2),
		EnableEscalation:    getEnvBool("CG_ENABLE_ESCALATION", true),
		RequestTimeout:      time.Duration(getEnvInt("CG_REQUEST_TIMEOUT_SECONDS", 60)) * time.Second,
		MaxRetries:          getEnvInt("CG_MAX_RETRIES", 2),
		EscalationPhrases:   getEnvList("CG_ESCALATION_PHRASES"),
		SatisfactionPhrases: getEnvList("CG_SATISFACTION_PHRASES"),
		KnowledgeBasePath:   getEnv("CG_KNOWLEDGE_BASE_PATH", "knowledge_base"),
		PersonasPath:        getEnv("CG_PERSONAS_PATH", "personas/personas.json"),
		OutputDir:           getEnv("CG_OUTPUT_DIR", "output"),
		DataDir:             getEnv("CG_DATA_DIR", "data"),
		LogLevel:            getEnv("CG_LOG_LEVEL", "INFO"),
		LogToFile:           getEnvBool("CG_LOG_TO_FILE", false),
		LogFilePath:         getEnv("CG_LOG_FILE_PATH", "logs/convogen.log"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required fields and numeric ranges. Any failure here is
// fatal at startup, before conversation work begins.
func (c *Config) Validate() error {
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("OpenAI API key is required, set CG_OPENAI_API_KEY")
	}
	if c.MaxTurns < 1 || c.MaxTurns > 100 {
		return fmt.Errorf("max_turns must be between 1 and 100, got %d", c.MaxTurns)
	}
	if c.Temperature < 0.0 || c.Temperature > 2.0 {
		return fmt.Errorf("temperature must be between 0.0 and 2.0, got %.2f", c.Temperature)
	}
	if c.MaxResponseTokens < 1 || c.MaxResponseTokens > 4000 {
		return fmt.Errorf("max_response_tokens must be between 1 and 4000, got %d", c.MaxResponseTokens)
	}
	if c.KnowledgeMaxItems < 1 {
		return fmt.Errorf("knowledge_max_items must be positive, got %d", c.KnowledgeMaxItems)
	}
	if c.MaxPersonas < 1 {
		return fmt.Errorf("max_personas must be positive, got %d", c.MaxPersonas)
	}
	if c.NumConversations < 1 {
		return fmt.Errorf("num_conversations must be positive, got %d", c.NumConversations)
	}
	if c.Parallelism < 1 {
		return fmt.Errorf("parallelism must be positive, got %d", c.Parallelism)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %s", c.RequestTimeout)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative, got %d", c.MaxRetries)
	}
	if c.CustomerModel == "" || c.RepresentativeModel == "" || c.PersonaModel == "" {
		return fmt.Errorf("model identifiers must not be empty")
	}
	return nil
}

// getEnv gets an environment variable with a fallback
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getEnvInt gets an integer environment variable with a fallback
func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}

// getEnvFloat gets a float environment variable with a fallback
func getEnvFloat(key string, fallback float32) float32 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(value, 32)
	if err != nil {
		return fallback
	}
	return float32(f)
}

// getEnvBool gets a boolean environment variable with a fallback
func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return b
}

// getEnvList splits a comma-separated environment variable, dropping blanks
func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
