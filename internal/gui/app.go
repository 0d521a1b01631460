//go:build !nogui

package gui

import (
	"context"
	"fmt"
	"image/color"
	"path/filepath"
	"sync"

	"epubtokens/internal/batch"
	"epubtokens/internal/config"
	"epubtokens/internal/log"
	"epubtokens/internal/watch"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

const maxLogLines = 500

// App is the GUI application
type App struct {
	fyneApp       fyne.App
	mainWindow    fyne.Window
	cfg           *config.Config
	processor     *batch.Processor
	watchDaemon   *watch.Daemon
	statusUpdater func() // Function to update system tray status

	sourceEntry    *widget.Entry
	destEntry      *widget.Entry
	thresholdEntry *widget.Entry
	reportEntry    *widget.Entry
	formatSelect   *widget.Select
	startButton    *widget.Button
	cancelButton   *widget.Button
	progressBar    *widget.ProgressBar
	statusLabel    *widget.Label
	logList        *widget.List

	mu   sync.Mutex
	run  *batch.Run
	logs []string

	// onFinish is called after a run has ended and the UI was updated.
	onFinish func(batch.Done)

	accentColor color.NRGBA
}

// NewApp creates a new GUI application
func NewApp(cfg *config.Config, processor *batch.Processor) *App {
	return newApp(app.NewWithID("io.github.epubtokens"), cfg, processor)
}

func newApp(fyneApp fyne.App, cfg *config.Config, processor *batch.Processor) *App {
	a := &App{
		fyneApp:     fyneApp,
		cfg:         cfg,
		processor:   processor,
		accentColor: color.NRGBA{R: 255, G: 165, B: 0, A: 255},
	}

	// The GUI is usable without watch mode.
	watchDaemon, err := watch.NewDaemon(cfg, processor)
	if err != nil {
		log.Errorf("Failed to create watch daemon: %v", err)
	} else {
		watchDaemon.SetObserver(batch.LogEvents(log.Default()))
		a.watchDaemon = watchDaemon
	}

	a.mainWindow = a.fyneApp.NewWindow("EPUB Token Counter")
	a.setupMainWindow()
	a.setupSystemTray()
	return a
}

// GetMainWindow returns the main window instance
func (a *App) GetMainWindow() fyne.Window {
	return a.mainWindow
}

// Run shows the main window and blocks until the application quits.
func (a *App) Run() {
	a.mainWindow.SetOnClosed(func() {
		a.cancelRun()
		a.stopWatchMode()
	})
	a.mainWindow.Show()
	a.fyneApp.Run()
}

// setupSystemTray sets up the system tray icon and menu
func (a *App) setupSystemTray() {
	deskApp, ok := a.fyneApp.(desktop.App)
	if !ok || a.watchDaemon == nil {
		return
	}

	var updateMenuFunc func() []*fyne.MenuItem
	updateMenuFunc = func() []*fyne.MenuItem {
		items := []*fyne.MenuItem{
			fyne.NewMenuItem("Show Window", func() {
				a.mainWindow.Show()
			}),
			fyne.NewMenuItemSeparator(),
		}
		if a.watchDaemon.Status().Running {
			items = append(items, fyne.NewMenuItem("Stop Watch Mode", func() {
				a.stopWatchMode()
				deskApp.SetSystemTrayMenu(fyne.NewMenu("epubtokens", updateMenuFunc()...))
			}))
		} else {
			items = append(items, fyne.NewMenuItem("Start Watch Mode", func() {
				a.startWatchMode()
				deskApp.SetSystemTrayMenu(fyne.NewMenu("epubtokens", updateMenuFunc()...))
			}))
		}
		return items
	}

	deskApp.SetSystemTrayMenu(fyne.NewMenu("epubtokens", updateMenuFunc()...))
	a.statusUpdater = func() {
		deskApp.SetSystemTrayMenu(fyne.NewMenu("epubtokens", updateMenuFunc()...))
	}
}

// setupMainWindow sets up the main window content
func (a *App) setupMainWindow() {
	a.mainWindow.Resize(fyne.NewSize(720, 560))

	title := canvas.NewText("EPUB Token Counter", a.accentColor)
	title.TextStyle.Bold = true
	title.TextSize = 20
	title.Alignment = fyne.TextAlignCenter

	toolbar := widget.NewToolbar(
		widget.NewToolbarSpacer(),
		widget.NewToolbarAction(theme.HelpIcon(), func() {
			dialog.ShowInformation("About",
				"Counts the tokens in every EPUB of a folder, writes a CSV\n"+
					"report and moves the books below a threshold into\n"+
					"another folder.",
				a.mainWindow)
		}),
	)

	tabs := container.NewAppTabs(
		container.NewTabItem("Run", a.createRunTab()),
		container.NewTabItem("Settings", a.createSettingsTab()),
	)
	tabs.SetTabLocation(container.TabLocationTop)

	content := container.NewBorder(
		container.NewVBox(title, toolbar, canvas.NewLine(a.accentColor)),
		nil,
		nil,
		nil,
		tabs,
	)
	a.mainWindow.SetContent(content)
}

// ShowError displays an error dialog
func (a *App) ShowError(title string, err error) {
	if err == nil {
		return
	}
	log.LogWithError(err).Error(title)
	dialog.ShowError(fmt.Errorf("%s: %w", title, err), a.mainWindow)
}

// ShowInfo displays an information dialog
func (a *App) ShowInfo(message string) {
	dialog.ShowInformation("Information", message, a.mainWindow)
}

// startWatchMode starts the watch mode
func (a *App) startWatchMode() {
	if a.watchDaemon == nil {
		return
	}
	if err := a.watchDaemon.Start(context.Background()); err != nil {
		a.ShowError("Failed to start watch mode", err)
		return
	}
	a.ShowInfo(fmt.Sprintf("Watching %s for new books.", filepath.Base(a.cfg.Directories.Source)))
	if a.statusUpdater != nil {
		a.statusUpdater()
	}
}

// stopWatchMode stops the watch mode
func (a *App) stopWatchMode() {
	if a.watchDaemon == nil || !a.watchDaemon.Status().Running {
		return
	}
	a.watchDaemon.Stop()
	if a.statusUpdater != nil {
		a.statusUpdater()
	}
}

// saveConfig saves the current configuration
func (a *App) saveConfig() {
	if err := a.cfg.Save(); err != nil {
		a.ShowError("Failed to save configuration", err)
	}
}
