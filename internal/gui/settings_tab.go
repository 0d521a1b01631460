//go:build !nogui

package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"epubtokens/internal/config"
	"epubtokens/internal/log"
)

// createSettingsTab creates the settings tab
func (a *App) createSettingsTab() fyne.CanvasObject {
	patternEntry := widget.NewEntry()
	patternEntry.SetText(a.cfg.Settings.Pattern)

	tokenizerSelect := widget.NewSelect([]string{config.TokenizerTiktoken, config.TokenizerHuggingFace}, nil)
	tokenizerSelect.SetSelected(a.cfg.Tokenizer.Type)

	encodingEntry := widget.NewEntry()
	encodingEntry.SetPlaceHolder("cl100k_base")
	encodingEntry.SetText(a.cfg.Tokenizer.Encoding)

	tokenizerFileEntry := widget.NewEntry()
	tokenizerFileEntry.SetPlaceHolder("tokenizer.json")
	tokenizerFileEntry.SetText(a.cfg.Tokenizer.File)
	browseTokenizer := widget.NewButton("Browse...", func() {
		dialog.ShowFileOpen(func(reader fyne.URIReadCloser, err error) {
			if err != nil || reader == nil {
				return
			}
			defer reader.Close()
			tokenizerFileEntry.SetText(reader.URI().Path())
		}, a.mainWindow)
	})

	debugCheck := widget.NewCheck("Debug logging", nil)
	debugCheck.SetChecked(a.cfg.Logging.Debug)

	scanCard := widget.NewCard("Scanning", "", widget.NewForm(
		widget.NewFormItem("File pattern", patternEntry),
	))
	tokenizerCard := widget.NewCard("Tokenizer", "Changes apply on the next launch", widget.NewForm(
		widget.NewFormItem("Backend", tokenizerSelect),
		widget.NewFormItem("Encoding", encodingEntry),
		widget.NewFormItem("tokenizer.json", container.NewBorder(nil, nil, nil, browseTokenizer, tokenizerFileEntry)),
	))
	loggingCard := widget.NewCard("Logging", "", debugCheck)

	saveButton := widget.NewButton("Save Settings", func() {
		previous := *a.cfg
		a.cfg.Settings.Pattern = patternEntry.Text
		a.cfg.Tokenizer.Type = tokenizerSelect.Selected
		a.cfg.Tokenizer.Encoding = encodingEntry.Text
		a.cfg.Tokenizer.File = tokenizerFileEntry.Text
		a.cfg.Logging.Debug = debugCheck.Checked

		if err := a.cfg.Validate(); err != nil {
			*a.cfg = previous
			a.ShowError("Invalid settings", err)
			return
		}
		log.SetDebug(a.cfg.Logging.Debug)
		a.saveConfig()
		a.ShowInfo("Settings saved.")
	})

	return container.NewVScroll(container.NewVBox(
		scanCard,
		tokenizerCard,
		loggingCard,
		saveButton,
	))
}
