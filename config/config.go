package config

import (
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"go-soilwater/calibration"
	"go-soilwater/estimator"
)

// 环境变量前缀，例如 SOILWATER_HTTP_ADDR
const envPrefix = "SOILWATER_"

// Config 服务完整配置
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Pipeline Pipeline       `yaml:"pipeline"`
}

// ServerConfig HTTP 和 TCP 监听配置，TCPAddr 为空时不启动 TCP 分发器
type ServerConfig struct {
	HTTPAddr      string        `yaml:"http_addr"`
	TCPAddr       string        `yaml:"tcp_addr"`
	ReadTimeout   time.Duration `yaml:"read_timeout"`
	MaxFrameBytes int           `yaml:"max_frame_bytes"`
}

// DatabaseConfig MySQL 连接信息
type DatabaseConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Hostname string `yaml:"hostname"`
	DBName   string `yaml:"dbname"`
}

// DSN go-sql-driver/mysql 连接串
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&charset=utf8mb4", d.Username, d.Password, d.Hostname, d.DBName)
}

// AuthConfig JWT 签名配置
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// Pipeline 估算流程的默认参数，进程启动后不再修改
type Pipeline struct {
	GridResolution      int       `yaml:"grid_resolution"`
	SensorFullScale     int       `yaml:"sensor_full_scale"`
	DefaultCoefficients []float64 `yaml:"default_coefficients"`
	BulkDensity         float64   `yaml:"bulk_density"`
	// 非空时替换各任务自带的插值策略，请求里的 strategy 字段优先级更高
	DefaultStrategy string `yaml:"default_strategy"`
}

// Defaults 默认配置
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			HTTPAddr:      ":8080",
			TCPAddr:       "127.0.0.1:5432",
			ReadTimeout:   30 * time.Second,
			MaxFrameBytes: 4 << 20,
		},
		Database: DatabaseConfig{
			Username: "root",
			Password: "root",
			Hostname: "127.0.0.1:3306",
			DBName:   "soilwater",
		},
		Auth: AuthConfig{
			JWTSecret: "soilwater_secret_key",
			TokenTTL:  7 * 24 * time.Hour,
		},
		Pipeline: DefaultPipeline(),
	}
}

// DefaultPipeline 估算流程默认参数
func DefaultPipeline() Pipeline {
	return Pipeline{
		GridResolution:      estimator.DefaultResolution,
		SensorFullScale:     4095,
		DefaultCoefficients: calibration.DefaultCoefficients(),
		BulkDensity:         1.3,
	}
}

// Load 依次应用默认值、YAML 文件(path 为空则跳过)、.env 和 SOILWATER_* 环境变量
func Load(path string) (*Config, error) {
	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Falling back to OS environment variables.")
	}
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	strs := map[string]*string{
		"HTTP_ADDR":        &cfg.Server.HTTPAddr,
		"TCP_ADDR":         &cfg.Server.TCPAddr,
		"DB_USERNAME":      &cfg.Database.Username,
		"DB_PASSWORD":      &cfg.Database.Password,
		"DB_HOSTNAME":      &cfg.Database.Hostname,
		"DB_NAME":          &cfg.Database.DBName,
		"JWT_SECRET":       &cfg.Auth.JWTSecret,
		"DEFAULT_STRATEGY": &cfg.Pipeline.DefaultStrategy,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(envPrefix + key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"MAX_FRAME_BYTES":   &cfg.Server.MaxFrameBytes,
		"GRID_RESOLUTION":   &cfg.Pipeline.GridResolution,
		"SENSOR_FULL_SCALE": &cfg.Pipeline.SensorFullScale,
	}
	for key, dst := range ints {
		if v, ok := os.LookupEnv(envPrefix + key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s%s value %q: %w", envPrefix, key, v, err)
			}
			*dst = n
		}
	}

	durations := map[string]*time.Duration{
		"READ_TIMEOUT": &cfg.Server.ReadTimeout,
		"TOKEN_TTL":    &cfg.Auth.TokenTTL,
	}
	for key, dst := range durations {
		if v, ok := os.LookupEnv(envPrefix + key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid %s%s value %q: %w", envPrefix, key, v, err)
			}
			*dst = d
		}
	}

	if v, ok := os.LookupEnv(envPrefix + "BULK_DENSITY"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %sBULK_DENSITY value %q: %w", envPrefix, v, err)
		}
		cfg.Pipeline.BulkDensity = f
	}
	// 逗号分隔，最高次项在前
	if v, ok := os.LookupEnv(envPrefix + "DEFAULT_COEFFICIENTS"); ok {
		var coeffs []float64
		for _, part := range strings.Split(v, ",") {
			f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
			if err != nil {
				return fmt.Errorf("invalid %sDEFAULT_COEFFICIENTS value %q: %w", envPrefix, v, err)
			}
			coeffs = append(coeffs, f)
		}
		cfg.Pipeline.DefaultCoefficients = coeffs
	}
	return nil
}

// Validate 检查配置是否可用
func (c *Config) Validate() error {
	var errs []error
	if c.Server.HTTPAddr == "" {
		errs = append(errs, errors.New("server.http_addr is required"))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, fmt.Errorf("server.read_timeout must be positive, got %v", c.Server.ReadTimeout))
	}
	if c.Server.MaxFrameBytes <= 0 {
		errs = append(errs, fmt.Errorf("server.max_frame_bytes must be positive, got %d", c.Server.MaxFrameBytes))
	}
	if c.Database.Hostname == "" || c.Database.DBName == "" {
		errs = append(errs, errors.New("database.hostname and database.dbname are required"))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("auth.token_ttl must be positive, got %v", c.Auth.TokenTTL))
	}
	if err := c.Pipeline.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Validate 检查估算参数
func (p Pipeline) Validate() error {
	var errs []error
	if p.GridResolution < 2 {
		errs = append(errs, fmt.Errorf("pipeline.grid_resolution must be >= 2, got %d", p.GridResolution))
	}
	if p.SensorFullScale <= 0 {
		errs = append(errs, fmt.Errorf("pipeline.sensor_full_scale must be positive, got %d", p.SensorFullScale))
	}
	if !(p.BulkDensity > 0) || math.IsInf(p.BulkDensity, 1) {
		errs = append(errs, fmt.Errorf("pipeline.bulk_density must be positive, got %v", p.BulkDensity))
	}
	if err := (calibration.Curve{Coefficients: p.DefaultCoefficients}).Validate(); err != nil {
		errs = append(errs, fmt.Errorf("pipeline.default_coefficients: %w", err))
	}
	if p.DefaultStrategy != "" {
		if _, err := estimator.Lookup(p.DefaultStrategy); err != nil {
			errs = append(errs, fmt.Errorf("pipeline.default_strategy: %w", err))
		}
	}
	return errors.Join(errs...)
}
