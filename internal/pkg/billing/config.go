package billing

import (
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	defaultSignatureTolerance = 5 * time.Minute
	defaultStorageTimeout     = 5 * time.Second
)

// Config carries the process-wide engine settings. It is built once at
// startup and passed to NewService explicitly so tests can inject fakes
// instead of reaching for env or a package singleton.
type Config struct {
	WebhookSecret      string        `validate:"required,min=16"`
	SignatureTolerance time.Duration `validate:"min=0"`
	StorageTimeout     time.Duration `validate:"min=0"`
}

func (c *Config) applyDefaults() {
	if c.SignatureTolerance == 0 {
		c.SignatureTolerance = defaultSignatureTolerance
	}
	if c.StorageTimeout == 0 {
		c.StorageTimeout = defaultStorageTimeout
	}
}

// Validate checks the configuration before the engine starts.
func (c Config) Validate() error {
	return validator.New().Struct(c)
}
