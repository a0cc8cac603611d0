package extractor

import (
	"fmt"

	"ledgerflow/internal/config"
	"ledgerflow/internal/port"
)

// ProviderFactory is a function that creates an ExtractionProvider from a
// provider config.
type ProviderFactory func(cfg *config.ExtractorProviderConfig) (port.ExtractionProvider, error)

// registry of provider factories, populated via RegisterProvider.
var providers = map[string]ProviderFactory{}

// RegisterProvider registers an extraction provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// NewProvider creates an ExtractionProvider from a provider config using the
// registered factory.
func NewProvider(cfg *config.ExtractorProviderConfig) (port.ExtractionProvider, error) {
	factory, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown extraction provider: %s", cfg.Provider)
	}
	return factory(cfg)
}
