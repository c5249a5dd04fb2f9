package domain_test

import (
	"errors"
	"fmt"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

func TestExitCode(t *testing.T) {
	commandErr := zerr.With(zerr.Wrap(errors.New("exit status 2"), domain.ErrCommandFailed.Error()), domain.ExitCodeKey, 2)

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: 0},
		{name: "plain error", err: errors.New("boom"), want: 1},
		{name: "direct", err: commandErr, want: 2},
		{
			name: "wrapped by zerr",
			err:  zerr.With(zerr.Wrap(commandErr, domain.ErrComponentFailed.Error()), "component", "kernel"),
			want: 2,
		},
		{name: "wrapped by fmt", err: fmt.Errorf("build: %w", commandErr), want: 2},
		{
			name: "first joined branch wins",
			err: errors.Join(
				errors.New("no code"),
				zerr.With(zerr.New("command failed"), domain.ExitCodeKey, 4),
				zerr.With(zerr.New("command failed"), domain.ExitCodeKey, 5),
			),
			want: 4,
		},
		{name: "zero code ignored", err: zerr.With(zerr.New("command failed"), domain.ExitCodeKey, 0), want: 1},
		{name: "non-int code ignored", err: zerr.With(zerr.New("command failed"), domain.ExitCodeKey, "2"), want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.ExitCode(tt.err))
		})
	}
}

func TestNormalizeArch(t *testing.T) {
	tests := map[string]string{
		"amd64":    "x86_64",
		"x86_64":   "x86_64",
		" ARM64 ":  "aarch64",
		"aarch64":  "aarch64",
		"armhf":    "arm",
		"i686":     "i386",
		"riscv":    "riscv64",
		"ppc64le":  "powerpc64le",
		"mips64el": "mips64el",
	}
	for in, want := range tests {
		assert.Equal(t, want, domain.NormalizeArch(in), in)
	}
}

func TestHostArch(t *testing.T) {
	assert.Equal(t, domain.NormalizeArch(runtime.GOARCH), domain.HostArch())
}
