// Package project loads the agentuity.yaml project configuration and
// locates the project root.
package project

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Project represents the agentuity.yaml configuration
type Project struct {
	Name         string    `mapstructure:"name"`
	Version      string    `mapstructure:"version"`
	ProjectID    string    `mapstructure:"project_id"`
	DeploymentID string    `mapstructure:"deployment_id"`
	OrgID        string    `mapstructure:"org_id"`
	Dev          DevConfig `mapstructure:"dev"`
}

// DevConfig represents dev-server configuration
type DevConfig struct {
	Port int `mapstructure:"port"`
}

// Load loads the configuration from agentuity.yaml in the given directory.
// Environment variables override file values.
func Load(dir string) (*Project, error) {
	v := viper.New()

	v.SetDefault("version", "0.0.1")
	v.SetDefault("dev.port", 3500)

	v.SetConfigName("agentuity")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	v.SetEnvPrefix("AGENTUITY")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - use defaults
	}

	var p Project
	if err := v.Unmarshal(&p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if p.Name == "" {
		p.Name = filepath.Base(dir)
	}
	return &p, nil
}

// InProject checks if the given directory is an agentuity project
func InProject(dir string) bool {
	for _, name := range []string{"agentuity.yaml", "agentuity.yml"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "src", "agents")); err == nil {
		return true
	}
	return false
}

// FindRoot walks upward from dir looking for the project configuration.
func FindRoot(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		if InProject(dir) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not in an agentuity project (no agentuity.yaml found)")
		}
		dir = parent
	}
}
