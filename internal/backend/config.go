package backend

import (
	"fmt"

	"budgetbook/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type:             backendType,
		SQLiteDBPath:     appConfig.SQLiteDBPath,
		SeedDir:          appConfig.SeedDir,
		AMQPURL:          appConfig.AMQPURL,
		AMQPExchange:     appConfig.AMQPExchange,
		AMQPQueue:        appConfig.AMQPQueue,
		PersistQueueSize: appConfig.PersistQueueSize,
		NotifyDedupeTTL:  appConfig.NotifyDedupeTTL,
	}, nil
}

func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if c.Type == SQLiteBackend && c.SQLiteDBPath == "" {
		return fmt.Errorf("SQLite database path is required for sqlite backend")
	}
	if c.PersistQueueSize < 0 {
		return fmt.Errorf("persist queue size must not be negative")
	}
	return nil
}

func GetBackendTypes() []BackendType {
	return []BackendType{SQLiteBackend, MemoryBackend}
}
