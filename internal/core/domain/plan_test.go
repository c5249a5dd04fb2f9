package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/kiln/internal/core/domain"
)

func TestPlan_NamesAndIndex(t *testing.T) {
	plan := domain.Plan{{Name: "A"}, {Name: "B"}, {Name: "C"}}

	assert.Equal(t, []string{"A", "B", "C"}, plan.Names())
	assert.Equal(t, 1, plan.Index("B"))
	assert.Equal(t, -1, plan.Index("D"))
}

func TestPlan_Requirements(t *testing.T) {
	plan := domain.Plan{
		{Name: "toolchain", Requirements: domain.Requirements{Packages: []string{"bison", "flex"}}},
		{Name: "riscv", Arch: []string{"riscv64"}, Requirements: domain.Requirements{
			Packages:   []string{"gcc-riscv64-linux-gnu"},
			Submodules: []string{"opensbi"},
		}},
		{Name: "kernel", Requirements: domain.Requirements{
			Packages:   []string{"flex", "libelf-dev"},
			Submodules: []string{"linux"},
		}},
	}

	req := plan.Requirements("x86_64")
	assert.Equal(t, []string{"bison", "flex", "libelf-dev"}, req.Packages)
	assert.Equal(t, []string{"linux"}, req.Submodules)
	assert.False(t, req.Empty())

	req = plan.Requirements("riscv64")
	assert.Equal(t, []string{"bison", "flex", "gcc-riscv64-linux-gnu", "libelf-dev"}, req.Packages)
	assert.Equal(t, []string{"opensbi", "linux"}, req.Submodules)
}

func TestRequirements_Empty(t *testing.T) {
	assert.True(t, domain.Requirements{}.Empty())
	assert.True(t, domain.Requirements{PackageCommand: []string{"apt-get"}, Root: "/src"}.Empty())
	assert.False(t, domain.Requirements{Submodules: []string{"linux"}}.Empty())
}

func TestJobStatus_OK(t *testing.T) {
	assert.True(t, domain.JobSucceeded.OK())
	assert.True(t, domain.JobSkipped.OK())
	assert.False(t, domain.JobFailed.OK())
}
