// Package ports defines the core interfaces for the application.
package ports

import (
	"context"

	"go.trai.ch/kiln/internal/core/domain"
)

// ProcessRunner executes external tools: compilers, linkers, installers.
//
//go:generate mockgen -source=runner.go -destination=mocks/mock_runner.go -package=mocks
type ProcessRunner interface {
	// Run executes the command and waits for it to exit.
	//
	// The captured output is returned even when the command fails. A non-zero
	// exit status is reported as an error carrying the exit_code metadata.
	Run(ctx context.Context, cmd domain.Command) (domain.ProcessResult, error)
}
