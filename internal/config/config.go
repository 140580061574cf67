package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Storage    StorageConfig
	Tracing    TracingConfig `mapstructure:"tracing"`
	Log        LogConfig     `mapstructure:"log"`
	Redis      RedisConfig
	AI         AIConfig
	Assessment AssessmentPolicy `mapstructure:"assessment"`
	Events     EventsConfig     `mapstructure:"events"`
	CORS       CORSConfig       `mapstructure:"cors"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`

	// 运行时标志（非配置文件，通过命令行参数设置）
	ForceMigrate bool   `mapstructure:"-"`
	Path         string `mapstructure:"-"` // 配置文件所在目录，供热更新使用
}

// LogConfig level 为空时 debug 模式输出 debug 日志，否则 info；file 为空时只输出到控制台
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

// AIConfig AI 补全服务配置，provider 取值 openai / anthropic / gemini。
// openai 兼容 Groq、OpenRouter 等通过 base_url 接入的服务。
type AIConfig struct {
	Provider                  string  `mapstructure:"provider"`
	BaseURL                   string  `mapstructure:"base_url"`
	APIKey                    string  `mapstructure:"api_key"`
	Model                     string  `mapstructure:"model"`
	TimeoutSeconds            int     `mapstructure:"timeout_seconds"`
	RecommendationMaxTokens   int     `mapstructure:"recommendation_max_tokens"`
	GenerationMaxTokens       int     `mapstructure:"generation_max_tokens"`
	RecommendationTemperature float64 `mapstructure:"recommendation_temperature"`
	GenerationTemperature     float64 `mapstructure:"generation_temperature"`
}

func (c AIConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// AssessmentPolicy 测评引擎的可调阈值，支持热更新
type AssessmentPolicy struct {
	ConfidenceThreshold   int `mapstructure:"confidence_threshold"`
	MaxQuestions          int `mapstructure:"max_questions"`
	InitialConfidence     int `mapstructure:"initial_confidence"`
	DefaultIncrement      int `mapstructure:"default_increment"`
	PassingScore          int `mapstructure:"passing_score"`
	TimeLimitMinutes      int `mapstructure:"time_limit_minutes"`
	QuestionsPerQuiz      int `mapstructure:"questions_per_quiz"`
	MinGeneratedQuestions int `mapstructure:"min_generated_questions"`
	MaxRankedCareers      int `mapstructure:"max_ranked_careers"`
	BatchDelayMs          int `mapstructure:"batch_delay_ms"`
	CacheTTLMinutes       int `mapstructure:"cache_ttl_minutes"`
}

// DefaultAssessmentPolicy 未配置时使用的默认阈值
func DefaultAssessmentPolicy() AssessmentPolicy {
	return AssessmentPolicy{
		ConfidenceThreshold:   90,
		MaxQuestions:          10,
		InitialConfidence:     10,
		DefaultIncrement:      10,
		PassingScore:          70,
		TimeLimitMinutes:      30,
		QuestionsPerQuiz:      10,
		MinGeneratedQuestions: 8,
		MaxRankedCareers:      5,
		BatchDelayMs:          1000,
		CacheTTLMinutes:       60,
	}
}

// withDefaults 用默认值补齐未配置（<=0）的字段
func (p AssessmentPolicy) withDefaults() AssessmentPolicy {
	d := DefaultAssessmentPolicy()
	fill := func(v *int, def int) {
		if *v <= 0 {
			*v = def
		}
	}
	fill(&p.ConfidenceThreshold, d.ConfidenceThreshold)
	fill(&p.MaxQuestions, d.MaxQuestions)
	fill(&p.InitialConfidence, d.InitialConfidence)
	fill(&p.DefaultIncrement, d.DefaultIncrement)
	fill(&p.PassingScore, d.PassingScore)
	fill(&p.TimeLimitMinutes, d.TimeLimitMinutes)
	fill(&p.QuestionsPerQuiz, d.QuestionsPerQuiz)
	fill(&p.MinGeneratedQuestions, d.MinGeneratedQuestions)
	fill(&p.MaxRankedCareers, d.MaxRankedCareers)
	fill(&p.CacheTTLMinutes, d.CacheTTLMinutes)
	if p.BatchDelayMs < 0 {
		p.BatchDelayMs = d.BatchDelayMs
	}
	return p
}

func (p AssessmentPolicy) Validate() error {
	if p.ConfidenceThreshold > 100 {
		return fmt.Errorf("assessment.confidence_threshold must be <= 100, got %d", p.ConfidenceThreshold)
	}
	if p.PassingScore > 100 {
		return fmt.Errorf("assessment.passing_score must be <= 100, got %d", p.PassingScore)
	}
	if p.MinGeneratedQuestions > p.QuestionsPerQuiz {
		return fmt.Errorf("assessment.min_generated_questions (%d) exceeds questions_per_quiz (%d)",
			p.MinGeneratedQuestions, p.QuestionsPerQuiz)
	}
	return nil
}

func (p AssessmentPolicy) BatchDelay() time.Duration {
	return time.Duration(p.BatchDelayMs) * time.Millisecond
}

func (p AssessmentPolicy) CacheTTL() time.Duration {
	return time.Duration(p.CacheTTLMinutes) * time.Minute
}

type ServerConfig struct {
	Port string
	Mode string
}

// DatabaseConfig driver 取值 mysql / postgres
type DatabaseConfig struct {
	Driver    string
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
	SSLMode string `mapstructure:"sslmode"`
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	ExpireTime time.Duration `mapstructure:"expire_hours"`
}

// StorageConfig 生成题目的归档存储，type 取值 local / minio
type StorageConfig struct {
	Type          string `mapstructure:"type"`
	LocalPath     string `mapstructure:"local_path"`
	MinioEndpoint string `mapstructure:"minio_endpoint"`
	MinioAccessID string `mapstructure:"minio_access_key"`
	MinioSecret   string `mapstructure:"minio_secret_key"`
	MinioBucket   string `mapstructure:"minio_bucket"`
	MinioUseSSL   bool   `mapstructure:"minio_use_ssl"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// EventsConfig 领域事件发布（RabbitMQ topic exchange）
type EventsConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	AMQPURL  string `mapstructure:"amqp_url"`
	Exchange string `mapstructure:"exchange"`
}

func LoadConfig(path string) (*Config, error) {
	// .env 仅用于本地开发，不存在时忽略
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("CAREER_PATH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Database
	v.BindEnv("database.driver", "DATABASE_DRIVER")
	v.BindEnv("database.host", "DATABASE_HOST")
	v.BindEnv("database.port", "DATABASE_PORT")
	v.BindEnv("database.user", "DATABASE_USER")
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "DATABASE_NAME")

	// JWT
	v.BindEnv("jwt.secret", "JWT_SECRET")

	// Redis
	v.BindEnv("redis.enabled", "REDIS_ENABLED")
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	v.BindEnv("server.mode", "SERVER_MODE")

	// AI
	v.BindEnv("ai.provider", "AI_PROVIDER")
	v.BindEnv("ai.base_url", "AI_BASE_URL")
	v.BindEnv("ai.api_key", "AI_API_KEY")
	v.BindEnv("ai.model", "AI_MODEL")

	// Storage
	v.BindEnv("storage.type", "STORAGE_TYPE")
	v.BindEnv("storage.minio_endpoint", "MINIO_ENDPOINT")
	v.BindEnv("storage.minio_access_key", "MINIO_ACCESS_KEY")
	v.BindEnv("storage.minio_secret_key", "MINIO_SECRET_KEY")
	v.BindEnv("storage.minio_bucket", "MINIO_BUCKET")

	// Tracing
	v.BindEnv("tracing.enabled", "TRACING_ENABLED")
	v.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	// Log
	v.BindEnv("log.level", "LOG_LEVEL")

	// Events
	v.BindEnv("events.enabled", "EVENTS_ENABLED")
	v.BindEnv("events.amqp_url", "AMQP_URL")

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.Path = path

	cfg.JWT.ExpireTime = cfg.JWT.ExpireTime * time.Hour

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "mysql"
	}
	if cfg.AI.Provider == "" {
		cfg.AI.Provider = "openai"
	}
	if cfg.Events.Exchange == "" {
		cfg.Events.Exchange = "career_path.events"
	}

	cfg.Assessment = cfg.Assessment.withDefaults()
	if err := cfg.Assessment.Validate(); err != nil {
		return nil, err
	}

	// 生产环境校验 JWT Secret 强度
	if cfg.Server.Mode == "release" && len(cfg.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(cfg.JWT.Secret))
	}

	return &cfg, nil
}
