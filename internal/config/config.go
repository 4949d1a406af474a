package config

import (
	"fmt"
	"os"

	"github.com/go-yaml/yaml"

	"github.com/aakaru/securelance/internal/infra/gateway"
)

type Config struct {
	Server Server `yaml:"server"`
}

type Server struct {
	ListenAddr    string           `yaml:"listenAddr"`
	TokenSecret   string           `yaml:"tokenSecret"`
	PostgresDsn   string           `yaml:"postgresDsn"`
	RedisAddr     string           `yaml:"redisAddr"`
	RedisDB       int              `yaml:"redisDB"`
	MemcachedAddr string           `yaml:"memcachedAddr"`
	Blob          gateway.S3Config `yaml:"blob"`
	EnableTrace   bool             `yaml:"enableTrace"`
	TraceEndpoint string           `yaml:"traceEndpoint"`
}

func Load(path string) (Config, error) {

	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	var config Config
	err = yaml.NewDecoder(file).Decode(&config)
	if err != nil {
		return Config{}, err
	}

	// secrets may come from the environment instead of the file
	if config.Server.TokenSecret == "" {
		config.Server.TokenSecret = os.Getenv("TOKEN_SECRET")
	}
	if config.Server.TokenSecret == "" {
		return Config{}, fmt.Errorf("tokenSecret is not set")
	}
	if config.Server.ListenAddr == "" {
		config.Server.ListenAddr = ":8000"
	}

	return config, nil
}
