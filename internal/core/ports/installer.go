package ports

import (
	"context"

	"go.trai.ch/kiln/internal/core/domain"
)

// PackageInstaller fetches the external resources a build plan requires.
//
//go:generate mockgen -source=installer.go -destination=mocks/mock_installer.go -package=mocks
type PackageInstaller interface {
	// Install installs the packages and fetches the source checkouts in req.
	Install(ctx context.Context, req domain.Requirements) error
}
