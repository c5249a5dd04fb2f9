package orchestrator

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/ui/output"
	"go.trai.ch/kiln/internal/ui/style"
)

// PrintPlan renders the plan, one numbered line per component with its direct
// dependencies. Components disabled for arch are marked as skipped.
func PrintPlan(w io.Writer, plan domain.Plan, arch string) error {
	out := output.New(w)
	muted := termenv.RGBColor(string(style.Ash))
	accent := termenv.RGBColor(string(style.Ember))

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", out.String(fmt.Sprintf("Build plan for %s (%d components)", arch, len(plan))).Bold())

	width := len(fmt.Sprint(len(plan)))
	for i, c := range plan {
		line := fmt.Sprintf("  %*d. %s", width, i+1, out.String(c.Name).Foreground(accent))
		if len(c.Dependencies) > 0 {
			line += " " + out.String(style.Arrow+" "+strings.Join(c.Dependencies, ", ")).Foreground(muted).String()
		}
		if !c.Enabled(arch) {
			line += " " + out.String(style.Skip+" skipped: arch").Foreground(muted).String()
		}
		b.WriteString(line + "\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}
