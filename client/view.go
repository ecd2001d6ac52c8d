package main

import (
	"fmt"
	"sort"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/znichola/red-tetris/grid"
	"github.com/znichola/red-tetris/models"
	"github.com/znichola/red-tetris/network"
)

// state is everything the server told us, plus the config we would start with.
type state struct {
	playerName string
	room       models.RoomData
	game       *models.GameData
	scores     []models.ScoreRecord
	gameConfig models.GameConfig
	status     string
	mutex      sync.Mutex
}

func newState(playerName string) *state {
	return &state{
		playerName: playerName,
		gameConfig: models.DefaultGameConfig(),
	}
}

func (s *state) apply(codec network.Codec, packet *network.Packet) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	var err error
	switch packet.MsgID {
	case network.MsgTypeUpdateRoomData:
		var room models.RoomData
		if err = codec.Unmarshal(packet.Data, &room); err == nil {
			s.room = room
		}
	case network.MsgTypeUpdateGameData:
		var data models.GameData
		if err = codec.Unmarshal(packet.Data, &data); err == nil {
			s.game = &data
		}
	case network.MsgTypeUpdateScores:
		var scores []models.ScoreRecord
		if err = codec.Unmarshal(packet.Data, &scores); err == nil {
			s.scores = scores
		}
	}
	if err != nil {
		s.status = fmt.Sprintf("bad message %d: %v", packet.MsgID, err)
	}
}

func (s *state) setStatus(status string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.status = status
}

func (s *state) config() models.GameConfig {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	cfg := s.gameConfig
	if cfg.Ruleset == models.PowerUp {
		cfg.EnabledPowerUps = append([]grid.Cell(nil), grid.PowerUps...)
	}
	return cfg
}

func (s *state) cycleRuleset() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.gameConfig.Ruleset = (s.gameConfig.Ruleset + 1) % (models.PowerUp + 1)
}

func (s *state) toggleHeavy() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.gameConfig.Heavy = !s.gameConfig.Heavy
}

// view is a copy of state that can be drawn without holding the lock.
type view struct {
	playerName string
	room       models.RoomData
	game       *models.GameData
	scores     []models.ScoreRecord
	gameConfig models.GameConfig
	status     string
}

func (s *state) view() view {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return view{
		playerName: s.playerName,
		room:       s.room,
		game:       s.game,
		scores:     s.scores,
		gameConfig: s.gameConfig,
		status:     s.status,
	}
}

var cellColors = map[grid.Cell]tcell.Color{
	grid.I:              tcell.ColorAqua,
	grid.O:              tcell.ColorYellow,
	grid.T:              tcell.ColorPurple,
	grid.J:              tcell.ColorBlue,
	grid.L:              tcell.ColorOrange,
	grid.S:              tcell.ColorGreen,
	grid.Z:              tcell.ColorRed,
	grid.Indestructible: tcell.ColorGray,
	grid.Attack:         tcell.ColorMaroon,
	grid.Duplication:    tcell.ColorTeal,
	grid.Bomb:           tcell.ColorWhite,
}

// cellGlyph returns the two runes drawn for one board square.
func cellGlyph(c grid.Cell) (rune, rune, tcell.Style) {
	style := tcell.StyleDefault
	switch {
	case c == grid.Empty || c == grid.None:
		return ' ', '.', style.Foreground(tcell.ColorDarkGray)
	case c == grid.Shadow:
		return '[', ']', style.Foreground(tcell.ColorDarkGray)
	case c == grid.Attack:
		return '<', '>', style.Foreground(cellColors[c]).Bold(true)
	case c == grid.Duplication:
		return '+', '+', style.Foreground(cellColors[c]).Bold(true)
	case c == grid.Bomb:
		return '(', ')', style.Foreground(cellColors[c]).Bold(true)
	}
	return '█', '█', style.Foreground(cellColors[c])
}

func drawText(screen tcell.Screen, x, y int, style tcell.Style, text string) {
	for _, r := range text {
		screen.SetContent(x, y, r, nil, style)
		x++
	}
}

func draw(screen tcell.Screen, v view) {
	screen.Clear()
	plain := tcell.StyleDefault
	bold := plain.Bold(true)

	drawText(screen, 0, 0, bold, fmt.Sprintf("red-tetris  %s  room state: %s  owner: %s",
		v.playerName, v.room.GameState, v.room.OwnerName))

	boardX, boardY := 1, 2
	width := 0
	if v.game != nil {
		for y, row := range v.game.Grid {
			screen.SetContent(boardX-1, boardY+y, '|', nil, plain)
			for x, c := range row {
				left, right, style := cellGlyph(c)
				screen.SetContent(boardX+2*x, boardY+y, left, nil, style)
				screen.SetContent(boardX+2*x+1, boardY+y, right, nil, style)
			}
			width = len(row)
			screen.SetContent(boardX+2*width, boardY+y, '|', nil, plain)
		}
	}

	side := boardX + 2*width + 3
	line := boardY
	if v.game != nil {
		drawText(screen, side, line, bold, fmt.Sprintf("score %d", v.game.Score))
		line += 2
		if v.game.NextTetromino != nil {
			next := *v.game.NextTetromino
			_, _, style := cellGlyph(next.Cell())
			drawText(screen, side, line, style, "next "+next.String())
			line += 2
		}
		line = drawSpectra(screen, side, line, v)
	}

	drawText(screen, side, line, bold, "players")
	line++
	for _, name := range v.room.PlayerNames {
		drawText(screen, side+2, line, plain, name)
		line++
	}
	line++

	drawText(screen, side, line, plain, fmt.Sprintf("next game: %s heavy=%t   [s]tart [r]uleset [h]eavy [q]uit",
		v.gameConfig.Ruleset, v.gameConfig.Heavy))
	line += 2

	drawText(screen, side, line, bold, "best scores")
	line++
	for i, r := range v.scores {
		if i == 5 {
			break
		}
		drawText(screen, side+2, line, plain, fmt.Sprintf("%-12s %6d  %s", r.Player, r.Score, r.GameMode))
		line++
	}

	if v.status != "" {
		_, height := screen.Size()
		drawText(screen, 0, height-1, plain.Foreground(tcell.ColorRed), v.status)
	}
	screen.Show()
}

func drawSpectra(screen tcell.Screen, x, y int, v view) int {
	names := make([]string, 0, len(v.game.PlayerNameToSpectrum))
	for name := range v.game.PlayerNameToSpectrum {
		if name != v.playerName {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		drawText(screen, x, y, tcell.StyleDefault, name)
		drawText(screen, x+14, y, tcell.StyleDefault.Foreground(tcell.ColorGreen), spectrumBar(v.game.PlayerNameToSpectrum[name]))
		y++
	}
	if len(names) > 0 {
		y++
	}
	return y
}

var heights = []rune(" ▁▂▃▄▅▆▇█")

// spectrumBar renders column heights as block characters scaled to the tallest.
func spectrumBar(spectrum []int) string {
	top := 1
	for _, h := range spectrum {
		if h > top {
			top = h
		}
	}
	bar := make([]rune, len(spectrum))
	for i, h := range spectrum {
		bar[i] = heights[h*(len(heights)-1)/top]
	}
	return string(bar)
}
