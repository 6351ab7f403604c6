package backend

import (
	"fmt"

	"lifeboard/internal/config"
	"lifeboard/internal/storage"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.FinanceBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.FinanceBackend)
	}
	dialect, err := storage.ParseDialect(appConfig.DatabaseDriver)
	if err != nil {
		return Config{}, err
	}

	return Config{
		Type:         backendType,
		DataFile:     appConfig.DataFile,
		Dialect:      dialect,
		DSN:          appConfig.DatabaseDSN(),
		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if c.Type == FileBackend && c.DataFile == "" {
		return fmt.Errorf("data file path is required for file backend")
	}
	if c.DSN == "" {
		return fmt.Errorf("database DSN is required")
	}
	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{FileBackend, SQLBackend}
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	types := GetBackendTypes()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}
