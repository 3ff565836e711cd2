// Copyright 2025 Gridcore contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/gridterm/main.go
// Summary: Minimal terminal running a shell through the buffer core.
//
// gridterm spawns a child shell on a pty and feeds its printable output
// through the grid/history buffers, drawing with the tcell driver. Escape
// sequences from the child are dropped: this exercises the buffer core,
// not a VT parser.

package main

import (
	"flag"
	"log"
	"os"
	"os/exec"
	"time"

	"github.com/creack/pty"
	"github.com/gdamore/tcell/v2"
	"golang.org/x/term"

	"github.com/framegrace/gridcore/buffer"
	"github.com/framegrace/gridcore/render"
)

func main() {
	shell := flag.String("shell", os.Getenv("SHELL"), "shell to run")
	scrollback := flag.Int("scrollback", 2000, "history capacity in rows")
	logBytes := flag.Int("logbytes", 1<<20, "text log capacity in bytes")
	flag.Parse()

	if *shell == "" {
		*shell = "/bin/sh"
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		log.Fatal("gridterm: stdin is not a terminal")
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		log.Fatalf("gridterm: %v", err)
	}
	if err := screen.Init(); err != nil {
		log.Fatalf("gridterm: %v", err)
	}
	defer screen.Fini()

	width, height := screen.Size()
	cache := buffer.NewTextCache()
	grid := buffer.NewGrid(width, height, cache)
	history := buffer.NewHistory(buffer.HistoryConfig{
		Width:        width,
		MaxRows:      *scrollback,
		TextLogBytes: *logBytes,
		Cache:        cache,
	})
	writer := buffer.NewWriter(grid, history)
	driver := render.NewDriver(screen)

	cmd := exec.Command(*shell)
	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{
		Cols: uint16(width), Rows: uint16(height),
	})
	if err != nil {
		log.Fatalf("gridterm: start shell: %v", err)
	}
	defer ptmx.Close()

	output := make(chan []byte, 64)
	go func() {
		buf := make([]byte, 4096)
		for {
			n, err := ptmx.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				output <- chunk
			}
			if err != nil {
				close(output)
				return
			}
		}
	}()

	events := make(chan tcell.Event, 16)
	go func() {
		for {
			events <- screen.PollEvent()
		}
	}()

	redraw := time.NewTicker(16 * time.Millisecond)
	defer redraw.Stop()

	filter := newEscapeFilter()
	for {
		select {
		case chunk, ok := <-output:
			if !ok {
				return
			}
			writer.WriteString(filter.printable(chunk))

		case <-redraw.C:
			driver.Draw(writer.Grid())

		case ev := <-events:
			switch e := ev.(type) {
			case *tcell.EventKey:
				if e.Key() == tcell.KeyCtrlQ {
					return
				}
				ptmx.WriteString(keyBytes(e))
			case *tcell.EventResize:
				w, h := e.Size()
				history = resize(writer, history, w, h)
				pty.Setsize(ptmx, &pty.Winsize{Cols: uint16(w), Rows: uint16(h)})
				driver.DrawAll(writer.Grid())
			}
		}
	}
}

// resize reflows the grid (and history when the width changed) to the new
// dimensions, keeping the write cursor on its logical character. Returns the
// history now backing the writer.
func resize(w *buffer.Writer, h *buffer.History, width, height int) *buffer.History {
	cx, cy := w.Cursor()
	cursor := &buffer.TrackedCursor{X: cx, Y: cy}
	if width != h.Width() {
		h = buffer.ResizeHistory(h, buffer.HistoryConfig{
			Width:   width,
			MaxRows: h.MaxRows(),
			Cache:   h.Cache(),
		})
	}
	next := buffer.ResizeGrid(w.Grid(), width, height, h, cursor)
	w.SetGrid(next)
	w.SetHistory(h)
	w.SetCursor(cursor.X, cursor.Y)
	return h
}

// keyBytes translates a tcell key event to the bytes the child expects.
func keyBytes(e *tcell.EventKey) string {
	switch e.Key() {
	case tcell.KeyRune:
		return string(e.Rune())
	case tcell.KeyEnter:
		return "\r"
	case tcell.KeyTab:
		return "\t"
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return "\x7f"
	case tcell.KeyEsc:
		return "\x1b"
	case tcell.KeyUp:
		return "\x1b[A"
	case tcell.KeyDown:
		return "\x1b[B"
	case tcell.KeyRight:
		return "\x1b[C"
	case tcell.KeyLeft:
		return "\x1b[D"
	default:
		if e.Key() >= tcell.KeyCtrlA && e.Key() <= tcell.KeyCtrlZ {
			return string(rune(e.Key()))
		}
		return ""
	}
}

// escapeFilter strips CSI/OSC sequences from child output, passing only
// printable text and line control through to the buffer core.
type escapeFilter struct {
	state int // 0 plain, 1 after ESC, 2 in CSI, 3 in OSC
}

func newEscapeFilter() *escapeFilter { return &escapeFilter{} }

func (f *escapeFilter) printable(chunk []byte) string {
	out := make([]byte, 0, len(chunk))
	for _, b := range chunk {
		switch f.state {
		case 0:
			switch {
			case b == 0x1b:
				f.state = 1
			case b == '\n' || b == '\r' || b == '\t' || b >= 0x20:
				out = append(out, b)
			}
		case 1:
			switch b {
			case '[':
				f.state = 2
			case ']':
				f.state = 3
			default:
				f.state = 0
			}
		case 2:
			if b >= 0x40 && b <= 0x7e {
				f.state = 0
			}
		case 3:
			if b == 0x07 {
				f.state = 0
			}
		}
	}
	return string(out)
}
