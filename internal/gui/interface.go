//go:build !nogui

package gui

// Interface defines the contract for GUI operations
type Interface interface {
	Run()
	ShowError(title string, err error)
	ShowInfo(message string)
}

var _ Interface = (*App)(nil)
