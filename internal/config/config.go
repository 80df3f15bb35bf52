package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// RedisConfig holds configuration for Redis
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	// 连接池设置
	PoolSize     int `yaml:"pool_size"`      // 连接池大小
	MinIdleConns int `yaml:"min_idle_conns"` // 最小空闲连接数
	// 超时设置
	DialTimeoutSeconds  int `yaml:"dial_timeout_seconds"`  // 连接超时(秒)
	ReadTimeoutSeconds  int `yaml:"read_timeout_seconds"`  // 读取超时(秒)
	WriteTimeoutSeconds int `yaml:"write_timeout_seconds"` // 写入超时(秒)
	// 重试设置
	MaxRetries        int `yaml:"max_retries"`          // 最大重试次数
	MinRetryBackoffMS int `yaml:"min_retry_backoff_ms"` // 最小重试间隔(毫秒)
	MaxRetryBackoffMS int `yaml:"max_retry_backoff_ms"` // 最大重试间隔(毫秒)
	// 连接生命周期
	ConnMaxLifetimeMinutes int `yaml:"conn_max_lifetime_minutes"`  // 连接最大生命周期(分钟)
	ConnMaxIdleTimeMinutes int `yaml:"conn_max_idle_time_minutes"` // 空闲连接最大生命周期(分钟)
}

// Config 应用程序配置
type Config struct {
	Aliyun struct {
		APIKey     string            `yaml:"api_key"`
		APIURL     string            `yaml:"api_url"`
		Model      string            `yaml:"model"`
		TaskModels map[string]string `yaml:"task_models"` // 任务专用模型
	} `yaml:"aliyun"`

	// Tika服务器配置（PDF兜底提取和DOCX提取）
	Tika TikaConfig `yaml:"tika"`

	// MinIO配置
	MinIO MinIOConfig `yaml:"minio"`

	// MySQL配置
	MySQL MySQLConfig `yaml:"mysql"`

	// Redis配置
	Redis RedisConfig `yaml:"redis"`

	// 服务器配置
	Server ServerConfig `yaml:"server"`

	// 招聘板抓取配置
	Scraper ScraperConfig `yaml:"scraper"`

	// 简历结构化解析配置
	ResumeParser ResumeParserConfig `yaml:"resume_parser"`

	// 匹配分析配置
	MatchAnalyzer MatchAnalyzerConfig `yaml:"match_analyzer"`

	// 简历定制配置
	ResumeTailor ResumeTailorConfig `yaml:"resume_tailor"`

	// 日志配置
	Logger LoggerConfig `yaml:"logger"`
}

// TikaConfig Tika服务器配置结构
type TikaConfig struct {
	ServerURL    string `yaml:"server_url"`      // Tika服务器URL
	Timeout      int    `yaml:"timeout_seconds"` // 超时时间(秒)
	MetadataMode string `yaml:"metadata_mode"`   // 元数据模式: "full", "minimal", "none"
}

// MinIOConfig MinIO配置结构
type MinIOConfig struct {
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"accessKeyID"`
	SecretAccessKey string `yaml:"secretAccessKey"`
	UseSSL          bool   `yaml:"useSSL"`
	// 原始简历存储桶
	ResumesBucket string `yaml:"resumesBucket"`
	Location      string `yaml:"location"` // 可选，存储桶区域
	// 对象生命周期管理
	ResumeFileExpireDays int `yaml:"resume_file_expire_days"` // 原始文件过期天数
}

// MySQLConfig MySQL配置结构
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	// 连接池设置
	MaxIdleConns int `yaml:"max_idle_conns"` // 最大空闲连接数
	MaxOpenConns int `yaml:"max_open_conns"` // 最大打开连接数
	// 连接生命周期
	ConnMaxLifetimeMinutes int `yaml:"conn_max_lifetime_minutes"`  // 连接最大生命周期(分钟)
	ConnMaxIdleTimeMinutes int `yaml:"conn_max_idle_time_minutes"` // 空闲连接最大生命周期(分钟)
	// 超时设置
	ConnectTimeoutSeconds int `yaml:"connect_timeout_seconds"` // 连接超时(秒)
	ReadTimeoutSeconds    int `yaml:"read_timeout_seconds"`    // 读取超时(秒)
	WriteTimeoutSeconds   int `yaml:"write_timeout_seconds"`   // 写入超时(秒)
	// 日志设置
	LogLevel int `yaml:"log_level"` // 日志级别(1-4)
}

// ServerConfig 定义服务器配置
type ServerConfig struct {
	Address string `yaml:"address"` // 例如 ":8080" or "0.0.0.0:8080"
}

// ScraperConfig 招聘板抓取配置
type ScraperConfig struct {
	RemotiveURL    string `yaml:"remotive_url"`    // Remotive API 地址
	ArbeitnowURL   string `yaml:"arbeitnow_url"`   // Arbeitnow API 地址
	TimeoutSeconds int    `yaml:"timeout_seconds"` // 单源HTTP超时(秒)
	MaxPerSource   int    `yaml:"max_per_source"`  // 单源抓取上限
	LockTTL        string `yaml:"lock_ttl"`        // 抓取互斥锁TTL，例如 "5m"
}

// ResumeParserConfig 定义简历结构化解析的配置
type ResumeParserConfig struct {
	ModelName         string  `yaml:"modelName"`
	Temperature       float64 `yaml:"temperature"`
	MaxTokens         int     `yaml:"maxTokens"`
	PromptTemplate    string  `yaml:"promptTemplate"`    // 自定义提示模板
	ExtractionTimeout string  `yaml:"extractionTimeout"` // 解析超时，例如 "60s"
}

// MatchAnalyzerConfig 定义匹配分析的配置
type MatchAnalyzerConfig struct {
	ModelName      string  `yaml:"modelName"`
	Temperature    float64 `yaml:"temperature"`
	MaxTokens      int     `yaml:"maxTokens"`
	PromptTemplate string  `yaml:"promptTemplate"` // 自定义提示模板
	EvalTimeout    string  `yaml:"evalTimeout"`    // 分析超时
}

// ResumeTailorConfig 定义简历定制的配置
type ResumeTailorConfig struct {
	ModelName     string  `yaml:"modelName"`
	Temperature   float64 `yaml:"temperature"`
	MaxTokens     int     `yaml:"maxTokens"`
	TailorTimeout string  `yaml:"tailorTimeout"` // 定制超时
}

// LoggerConfig 日志配置
type LoggerConfig struct {
	Level        string `yaml:"level"`         // debug, info, warn, error
	Format       string `yaml:"format"`        // json, pretty
	TimeFormat   string `yaml:"time_format"`   // 时间格式
	ReportCaller bool   `yaml:"report_caller"` // 是否报告调用位置
}

// LoadConfig 从文件加载配置
func LoadConfig(configPath string) (*Config, error) {
	// 如果未指定配置文件路径，则尝试在默认位置查找
	if configPath == "" {
		searchPaths := []string{
			"config.yaml",
			"./config.yaml",
			"../config.yaml",
			"../../config.yaml",
			filepath.Join(os.Getenv("HOME"), ".jobhunt", "config.yaml"),
		}

		// 获取当前可执行文件路径
		execPath, err := os.Executable()
		if err == nil {
			execDir := filepath.Dir(execPath)
			searchPaths = append(searchPaths, filepath.Join(execDir, "config.yaml"))
			searchPaths = append(searchPaths, filepath.Join(execDir, "..", "config.yaml"))
		}

		// 测试环境下补充可能的项目根目录
		workDir, err := os.Getwd()
		if err == nil && isTestEnv(workDir) {
			projectRoots := []string{
				workDir,
				filepath.Join(workDir, ".."),
				filepath.Join(workDir, "..", ".."),
				filepath.Join(workDir, "..", "..", ".."),
			}
			for _, root := range projectRoots {
				searchPaths = append(searchPaths, filepath.Join(root, "config.yaml"))
			}
		}

		for _, path := range searchPaths {
			if _, err := os.Stat(path); err == nil {
				configPath = path
				break
			}
		}

		// 仍找不到配置文件时，测试环境返回默认配置而不报错
		if configPath == "" {
			if isTestEnv("") {
				return createDefaultConfig(), nil
			}
			configPath = "config.yaml"
		}
	}

	// 检查文件是否存在
	if _, err := os.Stat(configPath); err != nil {
		if isTestEnv("") {
			return createDefaultConfig(), nil
		}
		return nil, fmt.Errorf("配置文件不存在: %s", configPath)
	}

	// 读取配置文件
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	// 解析配置文件
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 从环境变量覆盖配置（如果存在）
	if envKey := os.Getenv("ALIYUN_API_KEY"); envKey != "" {
		config.Aliyun.APIKey = envKey
	}
	if envURL := os.Getenv("ALIYUN_API_URL"); envURL != "" {
		config.Aliyun.APIURL = envURL
	}
	if envModel := os.Getenv("ALIYUN_MODEL"); envModel != "" {
		config.Aliyun.Model = envModel
	}

	applyDefaults(&config)

	return &config, nil
}

// isTestEnv 判断是否运行在 go test 环境中
func isTestEnv(workDir string) bool {
	if workDir != "" && strings.Contains(workDir, "tmp") && strings.Contains(workDir, "test") {
		return true
	}
	for _, arg := range os.Args {
		if strings.Contains(arg, "test") {
			return true
		}
	}
	return false
}

// applyDefaults 补齐未显式配置的默认值
func applyDefaults(config *Config) {
	if config.Server.Address == "" {
		config.Server.Address = ":8080"
	}
	if config.Scraper.RemotiveURL == "" {
		config.Scraper.RemotiveURL = "https://remotive.com/api/remote-jobs"
	}
	if config.Scraper.ArbeitnowURL == "" {
		config.Scraper.ArbeitnowURL = "https://www.arbeitnow.com/api/job-board-api"
	}
	if config.Scraper.TimeoutSeconds == 0 {
		config.Scraper.TimeoutSeconds = 10
	}
	if config.Scraper.MaxPerSource == 0 {
		config.Scraper.MaxPerSource = 50
	}
	if config.Scraper.LockTTL == "" {
		config.Scraper.LockTTL = "5m"
	}
	if config.MinIO.ResumesBucket == "" {
		config.MinIO.ResumesBucket = "resumes"
	}
}

// 创建一个默认配置，用于测试环境
func createDefaultConfig() *Config {
	config := &Config{}
	config.Aliyun.APIURL = "https://dashscope.aliyuncs.com/compatible-mode/v1/chat/completions"
	config.Aliyun.Model = "qwen-turbo"

	// Tika默认配置
	config.Tika.ServerURL = "http://localhost:9998"
	config.Tika.Timeout = 60

	// MinIO默认配置
	config.MinIO.Endpoint = "localhost:9000"
	config.MinIO.AccessKeyID = "minioadmin"
	config.MinIO.SecretAccessKey = "minioadmin123"
	config.MinIO.UseSSL = false
	config.MinIO.ResumesBucket = "resumes"
	config.MinIO.Location = ""
	config.MinIO.ResumeFileExpireDays = 1095 // 默认3年过期

	// MySQL默认配置
	config.MySQL.Host = "localhost"
	config.MySQL.Port = 3306
	config.MySQL.Username = "root"
	config.MySQL.Password = "password"
	config.MySQL.Database = "jobhunt"
	config.MySQL.MaxIdleConns = 10
	config.MySQL.MaxOpenConns = 100
	config.MySQL.ConnMaxLifetimeMinutes = 60
	config.MySQL.ConnMaxIdleTimeMinutes = 30
	config.MySQL.ConnectTimeoutSeconds = 10
	config.MySQL.ReadTimeoutSeconds = 30
	config.MySQL.WriteTimeoutSeconds = 30
	config.MySQL.LogLevel = 4 // Info级别

	// Redis默认配置
	config.Redis.Address = "localhost:6379"
	config.Redis.Password = ""
	config.Redis.DB = 0
	config.Redis.PoolSize = 10
	config.Redis.MinIdleConns = 2
	config.Redis.DialTimeoutSeconds = 5
	config.Redis.ReadTimeoutSeconds = 3
	config.Redis.WriteTimeoutSeconds = 3
	config.Redis.MaxRetries = 3
	config.Redis.MinRetryBackoffMS = 8
	config.Redis.MaxRetryBackoffMS = 512
	config.Redis.ConnMaxLifetimeMinutes = 60
	config.Redis.ConnMaxIdleTimeMinutes = 30

	// 抓取默认配置
	config.Scraper.RemotiveURL = "https://remotive.com/api/remote-jobs"
	config.Scraper.ArbeitnowURL = "https://www.arbeitnow.com/api/job-board-api"
	config.Scraper.TimeoutSeconds = 10
	config.Scraper.MaxPerSource = 50
	config.Scraper.LockTTL = "5m"

	// 日志默认配置
	config.Logger.Level = "info"
	config.Logger.Format = "pretty" // 开发环境默认使用美化输出
	config.Logger.TimeFormat = "2006-01-02 15:04:05"
	config.Logger.ReportCaller = true

	// 服务器默认配置
	config.Server.Address = ":8080"

	// 获取环境变量
	if envKey := os.Getenv("ALIYUN_API_KEY"); envKey != "" {
		config.Aliyun.APIKey = envKey
	} else {
		config.Aliyun.APIKey = "test_api_key"
	}

	return config
}

// CreateSampleConfig 创建一个示例配置文件
func CreateSampleConfig(filePath string) error {
	if _, err := os.Stat(filePath); err == nil {
		return fmt.Errorf("文件 '%s' 已存在，不会覆盖", filePath)
	}

	config := createDefaultConfig()

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}

	err = os.WriteFile(filePath, data, 0644)
	if err != nil {
		return fmt.Errorf("写入示例配置文件 '%s' 失败: %w", filePath, err)
	}

	fmt.Printf("示例配置文件已创建: %s\n", filePath)
	return nil
}

// GetModelForTask 根据任务名称获取合适的模型
// 如果任务专用模型存在则返回专用模型，否则返回默认模型
func (c *Config) GetModelForTask(taskName string) string {
	if c.Aliyun.TaskModels != nil {
		if model, ok := c.Aliyun.TaskModels[taskName]; ok && model != "" {
			return model
		}
	}
	return c.Aliyun.Model
}

// GetDuration utility to parse duration strings from config
func GetDuration(durationStr string, defaultDuration time.Duration) time.Duration {
	if durationStr == "" {
		return defaultDuration
	}
	d, err := time.ParseDuration(durationStr)
	if err != nil {
		return defaultDuration
	}
	return d
}
