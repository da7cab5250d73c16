package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env         string        `yaml:"env" env:"ENV" env-default:"local" json:"-"`
	DatabaseDSN string        `yaml:"database_dsn" env:"DATABASE_URL" json:"-"`
	HTTPServer  HTTPServer    `yaml:"http_server" json:"-"`
	Storage     StorageConfig `yaml:"storage" json:"storage"`
	Files       FilesConfig   `yaml:"files" json:"files"`
	Chat        ChatConfig    `yaml:"chat" json:"chat"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env-default:"localhost:3000" json:"-"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s" json:"-"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s" json:"-"`
}

type StorageConfig struct {
	Driver     string `yaml:"driver" env-default:"sqlite" json:"driver"`
	SQLitePath string `yaml:"sqlite_path" env-default:"./storage/chat.db" json:"sqlite_path"`
}

type FilesConfig struct {
	Driver    string   `yaml:"driver" env-default:"disk" json:"driver"`
	Dir       string   `yaml:"dir" env-default:"./files" json:"dir"`
	URLPrefix string   `yaml:"url_prefix" env-default:"/files" json:"url_prefix"`
	S3        S3Config `yaml:"s3" json:"s3"`
}

type S3Config struct {
	Bucket        string `yaml:"bucket" env:"S3_BUCKET" json:"bucket"`
	Region        string `yaml:"region" env:"S3_REGION" json:"region"`
	Endpoint      string `yaml:"endpoint" env:"S3_ENDPOINT" json:"endpoint"`
	AccessKey     string `yaml:"-" env:"S3_ACCESS_KEY" json:"-"`
	SecretKey     string `yaml:"-" env:"S3_SECRET_KEY" json:"-"`
	PublicBaseURL string `yaml:"public_base_url" env:"S3_PUBLIC_BASE_URL" json:"public_base_url"`
}

type ChatConfig struct {
	// UploadColorFromSession stamps audio-upload messages with the
	// sender's announced color instead of a fresh default one.
	UploadColorFromSession bool `yaml:"upload_color_from_session" env-default:"false" json:"upload_color_from_session"`
}

func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exist: %s", configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config %s", err)
	}

	return &cfg
}
