package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

type Config struct {
	Generator struct {
		URL     string        `yaml:"url"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"generator"`
	History struct {
		Backend       string `yaml:"backend"`
		DBPath        string `yaml:"db_path"`
		RedisAddr     string `yaml:"redis_addr"`
		RedisPassword string `yaml:"redis_password"`
		RedisDB       int    `yaml:"redis_db"`
		RedisKey      string `yaml:"redis_key"`
	} `yaml:"history"`
	RabbitMQ struct {
		URI      string `yaml:"uri"`
		Exchange string `yaml:"exchange"`
	} `yaml:"rabbitmq"`
	Quiz struct {
		BatchSize     int      `yaml:"batch_size"`
		NumQuestions  int      `yaml:"num_questions"`
		Difficulty    string   `yaml:"difficulty"`
		TimeLimit     int      `yaml:"time_limit"`
		QuestionTypes []string `yaml:"question_types"`
	} `yaml:"quiz"`
	Web struct {
		Addr string `yaml:"addr"`
	} `yaml:"web"`
}

func Default() *Config {
	cfg := &Config{}
	cfg.Generator.URL = "http://127.0.0.1:5000"
	cfg.Generator.Timeout = 60 * time.Second
	cfg.History.Backend = BackendSQLite
	cfg.History.DBPath = "mcq_history.db"
	cfg.History.RedisAddr = "localhost:6379"
	cfg.History.RedisKey = "mcq:history"
	cfg.RabbitMQ.Exchange = "mcq.events"
	cfg.Quiz.BatchSize = 5
	cfg.Quiz.NumQuestions = 10
	cfg.Quiz.Difficulty = "medium"
	cfg.Quiz.QuestionTypes = []string{"factual", "conceptual", "analytical"}
	cfg.Web.Addr = ":8090"
	return cfg
}

// Load builds the configuration from defaults, then the optional YAML file,
// then .env and the process environment. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if strings.TrimSpace(path) != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	_ = godotenv.Load()

	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config %s: %w", path, err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(c); err != nil {
		return fmt.Errorf("decode config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	setString := func(key string, dst *string) {
		if value := strings.TrimSpace(getenv(key)); value != "" {
			*dst = value
		}
	}
	setInt := func(key string, dst *int) error {
		value := strings.TrimSpace(getenv(key))
		if value == "" {
			return nil
		}
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = parsed
		return nil
	}

	setString("MCQ_GENERATOR_URL", &c.Generator.URL)
	if value := strings.TrimSpace(getenv("MCQ_HTTP_TIMEOUT")); value != "" {
		timeout, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("MCQ_HTTP_TIMEOUT: %w", err)
		}
		c.Generator.Timeout = timeout
	}

	setString("MCQ_HISTORY_BACKEND", &c.History.Backend)
	setString("MCQ_DB_PATH", &c.History.DBPath)
	setString("MCQ_REDIS_ADDR", &c.History.RedisAddr)
	setString("MCQ_REDIS_PASSWORD", &c.History.RedisPassword)
	setString("MCQ_REDIS_KEY", &c.History.RedisKey)
	if err := setInt("MCQ_REDIS_DB", &c.History.RedisDB); err != nil {
		return err
	}

	setString("MCQ_RABBITMQ_URI", &c.RabbitMQ.URI)
	setString("MCQ_RABBITMQ_EXCHANGE", &c.RabbitMQ.Exchange)

	if err := setInt("MCQ_BATCH_SIZE", &c.Quiz.BatchSize); err != nil {
		return err
	}
	setString("ADDR", &c.Web.Addr)
	return nil
}

func (c *Config) Validate() error {
	c.History.Backend = strings.ToLower(strings.TrimSpace(c.History.Backend))
	switch c.History.Backend {
	case BackendSQLite, BackendRedis:
	default:
		return fmt.Errorf("unknown history backend %q", c.History.Backend)
	}
	if c.Generator.Timeout <= 0 {
		return errors.New("generator timeout must be positive")
	}
	if c.Quiz.BatchSize <= 0 {
		return errors.New("batch size must be positive")
	}
	return nil
}
