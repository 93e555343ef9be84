package ui

import "github.com/Carmen-Shannon/oxy-deferred/common"

// PanelBuilderOption is a functional option for configuring a Panel.
type PanelBuilderOption func(*panel)

// WithLogger sets the logger rejected and applied edits are reported to.
func WithLogger(logger common.Logger) PanelBuilderOption {
	return func(p *panel) {
		p.logger = logger
	}
}
