package ports

import "go.trai.ch/kiln/internal/core/domain"

// ConfigLoader defines the interface for loading the component catalog.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load finds kiln.yaml starting at cwd, or reads path when it is not empty,
	// and returns the parsed project merged with the user settings.
	Load(cwd, path string) (*domain.Project, error)
}
