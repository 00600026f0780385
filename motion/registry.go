package motion

import (
	"context"
	"sync"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.viam.com/utils"

	"github.com/rapp-project/naomotion/body"
)

// Config describes which backend to construct and for which body.
type Config struct {
	// Model names a registered backend implementation.
	Model string `json:"model"`
	// Variant is the hardware variant of the connected body.
	Variant string `json:"variant"`
	// Attributes holds backend-specific settings, decoded by the backend
	// constructor.
	Attributes map[string]interface{} `json:"attributes,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (c *Config) Validate(path string) error {
	if c.Model == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "model")
	}
	if c.Variant == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "variant")
	}
	if !body.IsKnownVariant(body.Variant(c.Variant)) {
		return errors.Errorf("%s: unknown body variant %q", path, c.Variant)
	}
	return nil
}

// A BackendConstructor builds a live backend from a validated config.
type BackendConstructor func(ctx context.Context, cfg Config, logger golog.Logger) (Backend, error)

var (
	backendRegistryMu sync.RWMutex
	backendRegistry   = map[string]BackendConstructor{}
)

// RegisterBackend associates a model name with a backend constructor.
// Registering the same model twice panics; it is a programmer error.
func RegisterBackend(model string, constructor BackendConstructor) {
	backendRegistryMu.Lock()
	defer backendRegistryMu.Unlock()
	if _, exists := backendRegistry[model]; exists {
		panic(errors.Errorf("backend model %q already registered", model))
	}
	backendRegistry[model] = constructor
}

// NewBackend constructs the backend named by the config.
func NewBackend(ctx context.Context, cfg Config, logger golog.Logger) (Backend, error) {
	if err := cfg.Validate("config"); err != nil {
		return nil, err
	}
	backendRegistryMu.RLock()
	constructor, ok := backendRegistry[cfg.Model]
	backendRegistryMu.RUnlock()
	if !ok {
		return nil, errors.Errorf("no backend model %q registered", cfg.Model)
	}
	return constructor(ctx, cfg, logger)
}
