// Package tui renders the live simulation in the terminal: the board
// of the currently best game, a generation summary panel and a score
// history graph.
package tui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"snakevolve/sim"
	"snakevolve/telemetry"
)

// historyLen is how many generations the score graph keeps.
const historyLen = 45

var (
	styleDefault = tcell.StyleDefault
	styleBorder  = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleSnake   = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleHead    = tcell.StyleDefault.Foreground(tcell.ColorLightGreen).Bold(true)
	styleFood    = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	styleLabel   = tcell.StyleDefault.Foreground(tcell.ColorYellow)
)

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// UI owns the tcell screen. Quit requests (Esc, q, Ctrl+C) are exposed
// as a closed channel; the simulation loop is never blocked by input.
type UI struct {
	screen  tcell.Screen
	quit    chan struct{}
	history []int
}

// New initializes the terminal screen and starts the input goroutine.
func New() (*UI, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("creating screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("initializing screen: %w", err)
	}
	screen.HideCursor()

	u := &UI{
		screen: screen,
		quit:   make(chan struct{}),
	}
	go u.inputLoop()
	return u, nil
}

func (u *UI) inputLoop() {
	for {
		ev := u.screen.PollEvent()
		if ev == nil {
			return
		}
		switch ev := ev.(type) {
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC ||
				(ev.Key() == tcell.KeyRune && ev.Rune() == 'q') {
				close(u.quit)
				return
			}
		case *tcell.EventResize:
			u.screen.Sync()
		}
	}
}

// Quit is closed when the user asks to exit.
func (u *UI) Quit() <-chan struct{} { return u.quit }

// RecordGeneration appends a finished generation to the score history.
func (u *UI) RecordGeneration(stats telemetry.GenerationStats) {
	u.history = append(u.history, stats.MaxScore)
	if len(u.history) > historyLen {
		u.history = u.history[len(u.history)-historyLen:]
	}
}

// Draw renders one frame. In low-detail mode only the summary panel is
// drawn, which keeps terminal I/O off the hot path.
func (u *UI) Draw(snap sim.Snapshot, lowDetail bool) {
	u.screen.Clear()

	panelX := 2
	if !lowDetail {
		u.drawBoard(snap)
		panelX = snap.BoardSize*2 + 6
	}
	u.drawPanel(panelX, snap)
	u.drawHistory(panelX)

	u.screen.Show()
}

// drawBoard renders the board with a border. Cells are two columns wide
// so the grid looks square in a terminal.
func (u *UI) drawBoard(snap sim.Snapshot) {
	const ox, oy = 2, 1
	size := snap.BoardSize

	for x := -1; x <= size; x++ {
		for y := -1; y <= size; y++ {
			if x >= 0 && x < size && y >= 0 && y < size {
				continue
			}
			u.setCell(ox, oy, x, y, '▒', styleBorder)
		}
	}

	for i, p := range snap.Body {
		if i == 0 {
			u.setCell(ox, oy, p.X, p.Y, '█', styleHead)
		} else {
			u.setCell(ox, oy, p.X, p.Y, '█', styleSnake)
		}
	}
	u.setCell(ox, oy, snap.Food.X, snap.Food.Y, '●', styleFood)
}

func (u *UI) setCell(ox, oy, x, y int, r rune, style tcell.Style) {
	u.screen.SetContent(ox+(x+1)*2, oy+y+1, r, nil, style)
	u.screen.SetContent(ox+(x+1)*2+1, oy+y+1, r, nil, style)
}

func (u *UI) drawPanel(x int, snap sim.Snapshot) {
	lines := []string{
		fmt.Sprintf("generation   %d", snap.Generation),
		fmt.Sprintf("alive        %d", snap.Alive),
		fmt.Sprintf("score        %d", snap.Score),
		fmt.Sprintf("best score   %d", snap.BestScore),
		fmt.Sprintf("best fitness %.1f", snap.BestFitness),
		"",
		"esc/q to quit",
	}
	for i, line := range lines {
		u.drawText(x, 1+i, line, styleLabel)
	}
}

// drawHistory renders recent generation max scores as a sparkline.
func (u *UI) drawHistory(x int) {
	if len(u.history) == 0 {
		return
	}
	max := 1
	for _, s := range u.history {
		if s > max {
			max = s
		}
	}
	row := make([]rune, len(u.history))
	for i, s := range u.history {
		level := s * (len(sparkRunes) - 1) / max
		row[i] = sparkRunes[level]
	}
	u.drawText(x, 9, "max score by generation", styleDefault)
	u.drawText(x, 10, string(row), styleSnake)
}

func (u *UI) drawText(x, y int, text string, style tcell.Style) {
	for i, r := range []rune(text) {
		u.screen.SetContent(x+i, y, r, nil, style)
	}
}

// Close restores the terminal.
func (u *UI) Close() {
	u.screen.Fini()
}
