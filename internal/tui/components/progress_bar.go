package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"

	"epubtokens/internal/batch"
	"epubtokens/internal/tui/styles"
)

const maxBarWidth = 60

// ProgressBar renders processed/total as a gradient bar with a counter.
type ProgressBar struct {
	bar progress.Model
}

func NewProgressBar() *ProgressBar {
	return &ProgressBar{bar: progress.New(progress.WithDefaultGradient())}
}

// SetWidth fits the bar into a terminal of the given width.
func (p *ProgressBar) SetWidth(width int) {
	w := width - 20
	if w > maxBarWidth {
		w = maxBarWidth
	}
	if w < 10 {
		w = 10
	}
	p.bar.Width = w
}

func (p *ProgressBar) View(pr batch.Progress) string {
	fraction := 0.0
	if pr.Total > 0 {
		fraction = pr.Fraction()
	}
	return p.bar.ViewAs(fraction) + " " + styles.Theme.Muted.Render(fmt.Sprintf("%d/%d", pr.Processed, pr.Total))
}
