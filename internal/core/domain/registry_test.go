package domain_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

func TestRegistry_Register(t *testing.T) {
	reg := domain.NewRegistry()

	require.NoError(t, reg.Register(domain.Component{
		Name:         "kernel",
		Dependencies: []string{"toolchain", "toolchain", "", "libc"},
		Arch:         []string{"x86_64", "x86_64"},
	}))
	require.NoError(t, reg.Register(domain.Component{Name: "toolchain"}))

	assert.Equal(t, []string{"kernel", "toolchain"}, reg.Names())
	assert.Equal(t, 2, reg.Len())

	c, err := reg.Get("kernel")
	require.NoError(t, err)
	assert.Equal(t, []string{"toolchain", "libc"}, c.Dependencies)
	assert.Equal(t, []string{"x86_64"}, c.Arch)
}

func TestRegistry_Duplicate(t *testing.T) {
	reg := domain.NewRegistry()
	require.NoError(t, reg.Register(domain.Component{Name: "kernel"}))

	err := reg.Register(domain.Component{Name: "kernel"})
	require.Error(t, err)
	require.ErrorContains(t, err, domain.ErrComponentAlreadyRegistered.Error())

	var zErr *zerr.Error
	require.ErrorAs(t, err, &zErr)
	assert.Equal(t, "kernel", zErr.Metadata()["component"])
}

func TestRegistry_EmptyName(t *testing.T) {
	reg := domain.NewRegistry()
	require.ErrorIs(t, reg.Register(domain.Component{}), domain.ErrInvalidComponentName)
}

func TestRegistry_Sealed(t *testing.T) {
	reg := domain.NewRegistry()
	require.NoError(t, reg.SetDefaults("kernel", "kernel"))
	reg.Seal()

	assert.True(t, reg.Sealed())
	assert.Equal(t, []string{"kernel"}, reg.Defaults())

	err := reg.Register(domain.Component{Name: "kernel"})
	require.ErrorContains(t, err, domain.ErrRegistrySealed.Error())

	err = reg.SetDefaults("other")
	require.ErrorContains(t, err, domain.ErrRegistrySealed.Error())
}

func TestRegistry_GetUnknown(t *testing.T) {
	reg := domain.NewRegistry()

	_, err := reg.Get("missing")
	require.ErrorContains(t, err, domain.ErrUnknownComponent.Error())
}

func TestRegistry_IsolatesCallerSlices(t *testing.T) {
	deps := []string{"toolchain"}
	reg := domain.NewRegistry()
	require.NoError(t, reg.Register(domain.Component{Name: "kernel", Dependencies: deps}))

	deps[0] = "mutated"
	c, err := reg.Get("kernel")
	require.NoError(t, err)
	assert.Equal(t, []string{"toolchain"}, c.Dependencies)

	c.Dependencies[0] = "mutated again"
	again, err := reg.Get("kernel")
	require.NoError(t, err)
	assert.Equal(t, []string{"toolchain"}, again.Dependencies)

	names := reg.Names()
	names[0] = "x"
	assert.Equal(t, []string{"kernel"}, reg.Names())
}

func TestComponent_Enabled(t *testing.T) {
	noop := func(context.Context, domain.BuildEnv) error { return nil }

	tests := []struct {
		name string
		arch []string
		host string
		want bool
	}{
		{name: "unconditional", arch: nil, host: "riscv64", want: true},
		{name: "listed", arch: []string{"x86_64", "aarch64"}, host: "aarch64", want: true},
		{name: "alias of listed", arch: []string{"x86_64"}, host: "amd64", want: true},
		{name: "listed as alias", arch: []string{"arm64"}, host: "aarch64", want: true},
		{name: "not listed", arch: []string{"x86_64"}, host: "riscv64", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := domain.Component{Name: "c", Arch: tt.arch, Action: noop}
			assert.Equal(t, tt.want, c.Enabled(tt.host))
		})
	}
}
