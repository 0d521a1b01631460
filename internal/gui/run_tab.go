//go:build !nogui

package gui

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"epubtokens/internal/batch"
	"epubtokens/internal/config"
	"epubtokens/internal/errors"
	"epubtokens/internal/log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// createRunTab builds the folder pickers, threshold, start/cancel
// controls, progress bar and log view.
func (a *App) createRunTab() fyne.CanvasObject {
	a.sourceEntry = widget.NewEntry()
	a.sourceEntry.SetPlaceHolder("Folder with EPUB files")
	a.sourceEntry.SetText(a.cfg.Directories.Source)

	a.destEntry = widget.NewEntry()
	a.destEntry.SetPlaceHolder("Folder for books below the threshold")
	a.destEntry.SetText(a.cfg.Directories.Destination)

	a.thresholdEntry = widget.NewEntry()
	a.thresholdEntry.SetPlaceHolder("e.g. 10,000")
	a.thresholdEntry.SetText(strconv.Itoa(a.cfg.Settings.Threshold))

	a.reportEntry = widget.NewEntry()
	a.reportEntry.SetPlaceHolder("Default: destination/epub_token_counts_<time>.csv")
	a.reportEntry.SetText(a.cfg.Report.Path)

	a.formatSelect = widget.NewSelect([]string{config.FormatCSV, config.FormatXLSX}, nil)
	a.formatSelect.SetSelected(a.cfg.Report.Format)

	form := widget.NewForm(
		widget.NewFormItem("Source", container.NewBorder(nil, nil, nil, a.browseButton(a.sourceEntry), a.sourceEntry)),
		widget.NewFormItem("Destination", container.NewBorder(nil, nil, nil, a.browseButton(a.destEntry), a.destEntry)),
		widget.NewFormItem("Token threshold", a.thresholdEntry),
		widget.NewFormItem("Report file", a.reportEntry),
		widget.NewFormItem("Report format", a.formatSelect),
	)

	a.startButton = widget.NewButtonWithIcon("Start", theme.MediaPlayIcon(), a.startRun)
	a.startButton.Importance = widget.HighImportance
	a.cancelButton = widget.NewButtonWithIcon("Cancel", theme.CancelIcon(), a.cancelRun)
	a.cancelButton.Disable()

	a.progressBar = widget.NewProgressBar()
	a.statusLabel = widget.NewLabel("Idle")
	a.statusLabel.Truncation = fyne.TextTruncateEllipsis

	a.logList = widget.NewList(
		func() int {
			a.mu.Lock()
			defer a.mu.Unlock()
			return len(a.logs)
		},
		func() fyne.CanvasObject {
			return widget.NewLabel("Template")
		},
		func(i widget.ListItemID, o fyne.CanvasObject) {
			a.mu.Lock()
			defer a.mu.Unlock()
			if i < len(a.logs) {
				o.(*widget.Label).SetText(a.logs[i])
			}
		},
	)

	top := container.NewVBox(
		form,
		container.NewHBox(a.startButton, a.cancelButton),
		a.progressBar,
		a.statusLabel,
	)
	return container.NewBorder(top, nil, nil, nil, container.NewScroll(a.logList))
}

func (a *App) browseButton(target *widget.Entry) *widget.Button {
	return widget.NewButtonWithIcon("", theme.FolderOpenIcon(), func() {
		dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
			if err != nil || uri == nil {
				return
			}
			target.SetText(uri.Path())
		}, a.mainWindow)
	})
}

// runConfigFromForm reads the form. Only the threshold is checked here;
// everything else is validated by the processor.
func (a *App) runConfigFromForm() (config.RunConfig, error) {
	threshold, err := config.ParseThreshold(a.thresholdEntry.Text)
	if err != nil {
		return config.RunConfig{}, errors.NewConfigError("invalid threshold", "threshold", errors.ThresholdInvalid, err)
	}
	return config.RunConfig{
		SourceDir:      strings.TrimSpace(a.sourceEntry.Text),
		DestinationDir: strings.TrimSpace(a.destEntry.Text),
		Threshold:      threshold,
		ReportPath:     strings.TrimSpace(a.reportEntry.Text),
		ReportFormat:   a.formatSelect.Selected,
	}, nil
}

func (a *App) startRun() {
	rc, err := a.runConfigFromForm()
	if err != nil {
		a.ShowError("Cannot start", err)
		return
	}

	run, err := a.processor.Start(context.Background(), rc)
	if err != nil {
		a.ShowError("Cannot start", err)
		return
	}

	a.mu.Lock()
	a.run = run
	a.logs = nil
	a.mu.Unlock()

	a.progressBar.SetValue(0)
	a.logList.Refresh()
	a.setRunning(true)
	go a.follow(run)
}

func (a *App) cancelRun() {
	a.mu.Lock()
	run := a.run
	a.mu.Unlock()
	if run == nil {
		return
	}
	run.Cancel()
	a.statusLabel.SetText("Cancelling after the current file...")
	a.cancelButton.Disable()
}

func (a *App) setRunning(running bool) {
	if running {
		a.startButton.Disable()
		a.cancelButton.Enable()
		return
	}
	a.startButton.Enable()
	a.cancelButton.Disable()
}

func (a *App) follow(run *batch.Run) {
	logEvent := batch.LogEvents(log.Default())
	for ev := range run.Events() {
		logEvent(ev)
		a.handleEvent(ev)
	}
	a.finish(run.Wait())
}

func (a *App) handleEvent(ev batch.Event) {
	switch e := ev.(type) {
	case batch.StateChanged:
		a.statusLabel.SetText(e.To.String() + "...")
	case batch.Progress:
		a.progressBar.SetValue(e.Fraction())
		a.statusLabel.SetText(fmt.Sprintf("Processed %d of %d: %s", e.Processed, e.Total, filepath.Base(e.CurrentFile)))
	case batch.Log:
		if e.Level == log.DebugLevel {
			return
		}
		a.mu.Lock()
		a.logs = append(a.logs, e.String())
		if len(a.logs) > maxLogLines {
			a.logs = a.logs[len(a.logs)-maxLogLines:]
		}
		last := len(a.logs) - 1
		a.mu.Unlock()
		a.logList.Refresh()
		a.logList.ScrollTo(last)
	}
}

func (a *App) finish(done batch.Done) {
	a.mu.Lock()
	a.run = nil
	a.mu.Unlock()

	a.setRunning(false)
	a.statusLabel.SetText(done.State().String())

	a.cfg.Remember(done.RunConfig())
	a.saveConfig()

	switch e := done.(type) {
	case batch.FailedEvent:
		a.ShowError("Run failed", e.Err)
	default:
		dialog.ShowInformation(done.State().String(), summaryText(done), a.mainWindow)
	}

	if a.onFinish != nil {
		a.onFinish(done)
	}
}
