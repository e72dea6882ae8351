package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/mrz1836/foundry/internal/constants"
	"github.com/mrz1836/foundry/internal/errors"
)

// Environment variables holding provider credentials.
const (
	EnvAnthropicKey = "ANTHROPIC_API_KEY"
	EnvGeminiKey    = "GEMINI_API_KEY"
	EnvTogetherKey  = "TOGETHER_API_KEY"
	EnvPexelsKey    = "PEXELS_API_KEY"
	EnvAWSRegion    = "AWS_REGION"
)

// Credentials is a snapshot of provider keys taken once at startup.
type Credentials struct {
	AnthropicKey string
	GeminiKey    string
	TogetherKey  string
	PexelsKey    string
	AWSRegion    string
}

// LoadDotEnv loads KEY=VALUE pairs from the given .env files into the
// process environment. Variables already set are never overridden and
// missing files are skipped. With no paths, ./.env and ~/.foundry/.env
// are tried in that order.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = append(paths, constants.DotEnvFileName)
		if dir, err := GlobalConfigDir(); err == nil {
			paths = append(paths, filepath.Join(dir, constants.DotEnvFileName))
		}
	}
	for _, p := range paths {
		if !fileExists(p) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return errors.Wrapf(err, "failed to load %s", p)
		}
	}
	return nil
}

// LoadCredentials reads provider credentials from the environment.
func LoadCredentials() Credentials {
	return Credentials{
		AnthropicKey: os.Getenv(EnvAnthropicKey),
		GeminiKey:    os.Getenv(EnvGeminiKey),
		TogetherKey:  os.Getenv(EnvTogetherKey),
		PexelsKey:    os.Getenv(EnvPexelsKey),
		AWSRegion:    os.Getenv(EnvAWSRegion),
	}
}

// Available lists which credentials are present, without their values.
func (c Credentials) Available() map[string]bool {
	return map[string]bool{
		EnvAnthropicKey: c.AnthropicKey != "",
		EnvGeminiKey:    c.GeminiKey != "",
		EnvTogetherKey:  c.TogetherKey != "",
		EnvPexelsKey:    c.PexelsKey != "",
		EnvAWSRegion:    c.AWSRegion != "",
	}
}
