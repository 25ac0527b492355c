// Package config 负责加载和管理应用程序的配置。
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// 全局配置变量，存储从配置文件加载的所有设置。
var Conf Config

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	JWT           JWTConfig           `mapstructure:"jwt"`
	Log           LogConfig           `mapstructure:"log"`
	Kafka         KafkaConfig         `mapstructure:"kafka"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	MinIO         MinIOConfig         `mapstructure:"minio"`
	Rebrickable   RebrickableConfig   `mapstructure:"rebrickable"`
	Submission    SubmissionConfig    `mapstructure:"submission"`
	Inventory     InventoryConfig     `mapstructure:"inventory"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// DatabaseConfig 存储所有数据库连接的配置。
type DatabaseConfig struct {
	MySQL MySQLConfig `mapstructure:"mysql"`
	Redis RedisConfig `mapstructure:"redis"`
}

// MySQLConfig 存储 MySQL 数据库的配置。
type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig 存储 Redis 的配置。
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// JWTConfig 存储 JWT 相关的配置。
type JWTConfig struct {
	Secret                 string `mapstructure:"secret"`
	AccessTokenExpireHours int    `mapstructure:"access_token_expire_hours"`
	RefreshTokenExpireDays int    `mapstructure:"refresh_token_expire_days"`
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// KafkaConfig 存储 Kafka 相关的配置。
type KafkaConfig struct {
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
}

// ElasticsearchConfig 存储 Elasticsearch 相关的配置。
type ElasticsearchConfig struct {
	Addresses string `mapstructure:"addresses"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	IndexName string `mapstructure:"index_name"`
}

// MinIOConfig 存储 MinIO 对象存储的配置。
type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
}

// RebrickableConfig 存储 Rebrickable 零件目录 API 的配置。
type RebrickableConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

// SubmissionConfig 存储作品投稿相关的限制配置。
// 这些限制在任何文件上传发生之前执行。
type SubmissionConfig struct {
	MaxFileSizeMB    int64 `mapstructure:"max_file_size_mb"`
	MaxImages        int   `mapstructure:"max_images"`
	MaxInstructions  int   `mapstructure:"max_instructions"`
	MaxPartsLists    int   `mapstructure:"max_parts_lists"`
	MaxThreeModels   int   `mapstructure:"max_three_models"`
	RequirePartsList bool  `mapstructure:"require_parts_list"`
}

// InventoryConfig 存储零件清单 CSV 解析相关的配置。
// 列名对应 Bricklink 导出文件的表头。
type InventoryConfig struct {
	PartIDColumn     string `mapstructure:"part_id_column"`
	QuantityColumn   string `mapstructure:"quantity_column"`
	ColorColumn      string `mapstructure:"color_column"`
	ImageFallbackCap int    `mapstructure:"image_fallback_cap"`
}

// Init 初始化配置加载，从指定的路径读取 YAML 文件并解析到 Conf 变量中。
func Init(configPath string) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("读取配置文件失败: %w", err))
	}

	if err := viper.Unmarshal(&Conf); err != nil {
		panic(fmt.Errorf("无法将配置解析到结构体中: %w", err))
	}

	applyDefaults()
}

// applyDefaults 为未配置的投稿/清单限制项填充默认值。
func applyDefaults() {
	if Conf.Submission.MaxFileSizeMB == 0 {
		Conf.Submission.MaxFileSizeMB = 10
	}
	if Conf.Submission.MaxImages == 0 {
		Conf.Submission.MaxImages = 5
	}
	if Conf.Submission.MaxInstructions == 0 {
		Conf.Submission.MaxInstructions = 1
	}
	if Conf.Submission.MaxPartsLists == 0 {
		Conf.Submission.MaxPartsLists = 1
	}
	if Conf.Submission.MaxThreeModels == 0 {
		Conf.Submission.MaxThreeModels = 1
	}
	if Conf.Inventory.PartIDColumn == "" {
		Conf.Inventory.PartIDColumn = "LdrawId"
	}
	if Conf.Inventory.QuantityColumn == "" {
		Conf.Inventory.QuantityColumn = "Qty"
	}
	if Conf.Inventory.ColorColumn == "" {
		Conf.Inventory.ColorColumn = "ColorName"
	}
	if Conf.Inventory.ImageFallbackCap == 0 {
		Conf.Inventory.ImageFallbackCap = 10
	}
	if Conf.Rebrickable.BaseURL == "" {
		Conf.Rebrickable.BaseURL = "https://rebrickable.com/api/v3/lego"
	}
}
