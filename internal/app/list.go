package app

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/muesli/termenv"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/ui/output"
	"go.trai.ch/kiln/internal/ui/style"
)

// PrintCatalog renders every registered component in registration order with its
// dependencies and arch filter. Default targets are marked with "*" and components
// not built for arch with the skip icon.
func PrintCatalog(w io.Writer, reg *domain.Registry, arch string) error {
	out := output.New(w)
	muted := termenv.RGBColor(string(style.Ash))
	accent := termenv.RGBColor(string(style.Ember))

	defaults := reg.Defaults()
	names := reg.Names()

	width := 0
	for _, name := range names {
		width = max(width, len(name))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", out.String(fmt.Sprintf("%d components (arch %s)", len(names), arch)).Bold())

	for _, name := range names {
		c, err := reg.Get(name)
		if err != nil {
			return err
		}

		marker := " "
		if slices.Contains(defaults, name) {
			marker = "*"
		}

		line := fmt.Sprintf("%s %s", marker, out.String(fmt.Sprintf("%-*s", width, name)).Foreground(accent))
		if len(c.Dependencies) > 0 {
			line += " " + out.String(style.Arrow+" "+strings.Join(c.Dependencies, ", ")).Foreground(muted).String()
		}
		if len(c.Arch) > 0 {
			line += " " + out.String("["+strings.Join(c.Arch, ", ")+"]").Foreground(muted).String()
			if !c.Enabled(arch) {
				line += " " + out.String(style.Skip).Foreground(muted).String()
			}
		}
		b.WriteString(strings.TrimRight(line, " ") + "\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}
