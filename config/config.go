// Package config 提供服务配置加载
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Config 服务配置
type Config struct {
	Http struct {
		Port    int           `yaml:"port"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"http"`
	Log struct {
		Level      string `yaml:"level"`
		Path       string `yaml:"path"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
	} `yaml:"log"`
	Storage struct {
		Endpoint  string `yaml:"endpoint"`
		Region    string `yaml:"region"`
		Bucket    string `yaml:"bucket"`
		AccessKey string `yaml:"access_key"`
		SecretKey string `yaml:"secret_key"`
		CacheSize int    `yaml:"cache_size"`
	} `yaml:"storage"`
	Tracking struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"tracking"`
	ML struct {
		RegressionCutoff int   `yaml:"regression_cutoff"`
		Seed             int64 `yaml:"seed"`
	} `yaml:"ml"`
}

// Load 从文件加载配置
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, err
	}
	config.applyDefaults()

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Http.Port == 0 {
		c.Http.Port = 8080
	}
	if c.Http.Timeout == 0 {
		c.Http.Timeout = 30 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 100
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = 3
	}
	if c.Storage.Endpoint == "" {
		c.Storage.Endpoint = os.Getenv("MLFLOW_S3_ENDPOINT_URL")
	}
	if c.Storage.Endpoint == "" {
		c.Storage.Endpoint = "http://127.0.0.1:9000"
	}
	if c.Storage.Region == "" {
		c.Storage.Region = "us-east-1"
	}
	if c.Storage.Bucket == "" {
		c.Storage.Bucket = "modelhub"
	}
	if c.Storage.AccessKey == "" {
		c.Storage.AccessKey = os.Getenv("AWS_ACCESS_KEY_ID")
	}
	if c.Storage.SecretKey == "" {
		c.Storage.SecretKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
	}
	if c.Storage.CacheSize == 0 {
		c.Storage.CacheSize = 32
	}
	if c.Tracking.Path == "" {
		c.Tracking.Path = "data/tracking.db"
	}
	if c.ML.RegressionCutoff == 0 {
		c.ML.RegressionCutoff = 10
	}
	if c.ML.Seed == 0 {
		c.ML.Seed = 1488
	}
}
