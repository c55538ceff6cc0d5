// Command seqctl loads one or more compiled-track documents, drives them
// through the realtime VM against an SDL2-backed host, and exposes the
// pause/restart control surface of §6.4 over stdin (and, with -ui, an
// optional Fyne panel).
//
// Grounded on the teacher's cmd/emulator/main.go: flag-based configuration
// (-log, -ui, -scale style positional/flag mix), debug.NewLogger plus
// SetComponentEnabled, then handing the loaded program to the run loop.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ischeinkman/seqcore/internal/compiler"
	"github.com/ischeinkman/seqcore/internal/controlui"
	"github.com/ischeinkman/seqcore/internal/cursor"
	"github.com/ischeinkman/seqcore/internal/driver"
	"github.com/ischeinkman/seqcore/internal/hostaudio"
	"github.com/ischeinkman/seqcore/internal/lang/jsonast"
	"github.com/ischeinkman/seqcore/internal/lang/parseapi"
	"github.com/ischeinkman/seqcore/internal/multicursor"
	"github.com/ischeinkman/seqcore/internal/rtsentinel"
	"github.com/ischeinkman/seqcore/internal/telemetry"
)

func main() {
	logEnabled := flag.Bool("log", false, "enable telemetry logging")
	uiEnabled := flag.Bool("ui", false, "open the optional Fyne control panel")
	guardAlloc := flag.Bool("guard-alloc", false, "fail loudly if a cycle allocates (development builds only)")
	ringCapacity := flag.Int("port-ring", 256, "per-port pending message capacity")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: seqctl [flags] track-file.json [track-file.json ...]")
		os.Exit(1)
	}

	log := telemetry.New(10000)
	if *logEnabled {
		log.SetComponentEnabled(telemetry.ComponentCompiler, true)
		log.SetComponentEnabled(telemetry.ComponentDriver, true)
		log.SetComponentEnabled(telemetry.ComponentControl, true)
	}

	cursors, portCount, err := loadTracks(flag.Args(), log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "seqctl: %v\n", err)
		os.Exit(1)
	}

	var sentinel *rtsentinel.Sentinel
	if *guardAlloc {
		sentinel = rtsentinel.New(rtsentinel.FailWarn)
	}

	mc := multicursor.New(cursors)
	host, err := hostaudio.Open(portCount, *ringCapacity)
	if err != nil {
		fmt.Fprintf(os.Stderr, "seqctl: %v\n", err)
		os.Exit(1)
	}
	defer host.Close()

	d := driver.New(mc, host, log, sentinel)

	go runControlThread(d, log)

	if *uiEnabled {
		panel := controlui.New(d, log)
		go runAudioLoop(d, host, log)
		panel.Run()
		return
	}
	runAudioLoop(d, host, log)
}

func loadTracks(paths []string, log *telemetry.Logger) ([]*cursor.Cursor, int, error) {
	var cursors []*cursor.Cursor
	portCount := 1
	var parser jsonast.Parser
	for _, path := range paths {
		items, err := parseapi.LoadFile(parser, os.ReadFile, path)
		if err != nil {
			return nil, 0, err
		}
		tr, ports, err := compiler.Compile(items, compiler.DefaultOptions())
		if err != nil {
			return nil, 0, &parseapi.LoadError{Path: path, Err: err}
		}
		if n := len(ports.Names()) + 1; n > portCount {
			portCount = n
		}
		c := cursor.New(tr, compiler.DefaultOptions().DefaultBpm)
		cursors = append(cursors, c)
		if log != nil {
			log.Logf(telemetry.LevelInfo, telemetry.ComponentCompiler, "loaded %s: %d instructions", path, len(tr))
		}
	}
	return cursors, portCount, nil
}

func runControlThread(d *driver.Driver, log *telemetry.Logger) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, "p"):
			paused := d.TogglePause()
			logControl(log, "pause toggled: now %v", paused)
		case strings.HasPrefix(line, "r"):
			d.RequestRestart()
			logControl(log, "restart requested")
		default:
			logControl(log, "unrecognized command %q", line)
		}
	}
}

func logControl(log *telemetry.Logger, format string, args ...any) {
	if log == nil {
		return
	}
	log.Logf(telemetry.LevelInfo, telemetry.ComponentControl, format, args...)
}

func runAudioLoop(d *driver.Driver, host *hostaudio.Host, log *telemetry.Logger) {
	const cycleDuration = time.Duration(735) * time.Second / 44100
	var curFrames uint64
	var curUsecs uint64
	for {
		nextUsecs := curUsecs + uint64(cycleDuration/time.Microsecond)
		if err := host.PumpSilence(); err != nil {
			logControl(log, "audio pump failed: %v", err)
			return
		}
		if err := d.Fill(curFrames, curUsecs, nextUsecs); err != nil {
			logControl(log, "cycle failed: %v", err)
		}
		if d.Done() {
			return
		}
		curFrames += 735
		curUsecs = nextUsecs
		time.Sleep(cycleDuration)
	}
}
