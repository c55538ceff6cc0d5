// Package controlui is an optional Fyne control panel mirroring the
// stdin control surface of §6.4: pause/restart buttons and a scrolling log
// view, sitting beside the required line-oriented stdin control path
// rather than replacing it.
//
// Grounded on the teacher's cmd/corelx_devkit, a Fyne-based devkit window
// that sits next to the SDL2-rendered emulator and exposes the same
// pause/step controls a keyboard-driven debug console would.
package controlui

import (
	"fmt"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/ischeinkman/seqcore/internal/driver"
	"github.com/ischeinkman/seqcore/internal/telemetry"
)

// Panel is the Fyne control window.
type Panel struct {
	app    fyne.App
	window fyne.Window

	driver *driver.Driver
	log    *telemetry.Logger

	logView *widget.Label
}

// New builds (but does not yet show) the control panel over d, polling log
// for new entries while running.
func New(d *driver.Driver, log *telemetry.Logger) *Panel {
	p := &Panel{driver: d, log: log}
	p.app = app.New()
	p.window = p.app.NewWindow("seqctl")

	pauseBtn := widget.NewButton("Pause/Resume", func() {
		p.driver.TogglePause()
	})
	restartBtn := widget.NewButton("Restart", func() {
		p.driver.RequestRestart()
	})
	p.logView = widget.NewLabel("")
	p.logView.Wrapping = fyne.TextWrapWord

	controls := container.NewHBox(pauseBtn, restartBtn)
	content := container.NewBorder(controls, nil, nil, nil, container.NewVScroll(p.logView))
	p.window.SetContent(content)
	p.window.Resize(fyne.NewSize(480, 320))
	return p
}

// Run shows the window and blocks until it's closed, polling the logger on
// a background ticker so the view reflects new entries.
func (p *Panel) Run() {
	stop := make(chan struct{})
	go p.pollLog(stop)
	p.window.SetOnClosed(func() { close(stop) })
	p.window.ShowAndRun()
}

func (p *Panel) pollLog(stop <-chan struct{}) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	var text string
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if p.log == nil {
				continue
			}
			entries := p.log.Drain()
			if len(entries) == 0 {
				continue
			}
			for _, e := range entries {
				text += fmt.Sprintf("[%s] %s: %s\n", e.Level, e.Component, e.Message)
			}
			p.logView.SetText(text)
		}
	}
}
