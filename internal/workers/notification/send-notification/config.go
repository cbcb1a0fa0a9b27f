// internal/workers/notification/send-notification/config.go
package sendnotification

import (
	"time"

	"notification-dispatcher/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

func LoadConfig(app *config.Config) *Config {
	timeout := config.GetDuration(app.Camunda.Timeout)
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Config{Timeout: timeout}
}
