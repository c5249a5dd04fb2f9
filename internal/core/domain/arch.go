package domain

import (
	"runtime"
	"strings"
)

var archAliases = map[string]string{
	"amd64":   "x86_64",
	"x64":     "x86_64",
	"arm64":   "aarch64",
	"armv7":   "arm",
	"armhf":   "arm",
	"386":     "i386",
	"i686":    "i386",
	"riscv":   "riscv64",
	"ppc64le": "powerpc64le",
}

// NormalizeArch maps Go and distribution spellings of an architecture onto
// the GNU triplet spelling used in catalogs (x86_64, aarch64, arm, ...).
func NormalizeArch(arch string) string {
	a := strings.ToLower(strings.TrimSpace(arch))
	if canonical, ok := archAliases[a]; ok {
		return canonical
	}
	return a
}

// HostArch returns the normalized architecture of the running process.
func HostArch() string {
	return NormalizeArch(runtime.GOARCH)
}
