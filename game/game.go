// Package game implements a single snake game instance: board, body,
// food, stepping, collision and starvation rules.
package game

import (
	"fmt"
	"math/rand/v2"
)

// Point is a board cell. The origin is the top-left corner; y grows
// downward.
type Point struct {
	X, Y int
}

// Add returns p offset by q.
func (p Point) Add(q Point) Point {
	return Point{p.X + q.X, p.Y + q.Y}
}

// Direction is an absolute heading on the board.
type Direction int

const (
	North Direction = iota
	East
	South
	West
)

func (d Direction) String() string {
	switch d {
	case North:
		return "north"
	case East:
		return "east"
	case South:
		return "south"
	case West:
		return "west"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// Delta returns the unit cell offset for the direction.
func (d Direction) Delta() Point {
	switch d {
	case North:
		return Point{0, -1}
	case East:
		return Point{1, 0}
	case South:
		return Point{0, 1}
	default:
		return Point{-1, 0}
	}
}

// Action is a heading change relative to the current direction. Because
// actions are relative, an immediate 180° reversal cannot be expressed.
type Action int

const (
	TurnLeft Action = iota
	Straight
	TurnRight
)

// NumActions is the size of the action space.
const NumActions = 3

func (a Action) String() string {
	switch a {
	case TurnLeft:
		return "left"
	case Straight:
		return "straight"
	case TurnRight:
		return "right"
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// Turned returns the heading after applying a relative action.
func (d Direction) Turned(a Action) Direction {
	switch a {
	case TurnLeft:
		return (d + 3) % 4
	case TurnRight:
		return (d + 1) % 4
	default:
		return d
	}
}

// Cause is the reason a game ended.
type Cause int

const (
	CauseNone Cause = iota
	CauseWall
	CauseSelf
	CauseStarvation
	CauseWin // the body fills the whole board
)

func (c Cause) String() string {
	switch c {
	case CauseNone:
		return "running"
	case CauseWall:
		return "wall"
	case CauseSelf:
		return "self"
	case CauseStarvation:
		return "starvation"
	case CauseWin:
		return "win"
	}
	return fmt.Sprintf("Cause(%d)", int(c))
}

// Game is a single snake game. Each game owns its RNG stream so that
// instances can be stepped in parallel without coordination.
type Game struct {
	size      int
	body      []Point // head first
	food      Point
	heading   Direction
	score     int
	steps     int
	hunger    int // steps since last food
	threshold int // starvation threshold
	dead      bool
	cause     Cause
	rng       *rand.Rand
}

// New creates a game on a size x size board with the snake of the given
// length at the center heading east, and food on a random free cell.
func New(size, initialLength, starvationThreshold int, rng *rand.Rand) *Game {
	if initialLength < 1 || initialLength > size/2 {
		panic(fmt.Sprintf("game: initial length %d does not fit a %dx%d board", initialLength, size, size))
	}

	center := Point{size / 2, size / 2}
	body := make([]Point, initialLength)
	for i := range body {
		// Tail extends west, away from the initial heading
		body[i] = Point{center.X - i, center.Y}
	}

	g := &Game{
		size:      size,
		body:      body,
		heading:   East,
		threshold: starvationThreshold,
		rng:       rng,
	}
	g.placeFood()
	return g
}

// Size returns the board edge length.
func (g *Game) Size() int { return g.size }

// Head returns the head cell.
func (g *Game) Head() Point { return g.body[0] }

// Body returns a copy of the body cells, head first.
func (g *Game) Body() []Point { return append([]Point(nil), g.body...) }

// Food returns the current food cell.
func (g *Game) Food() Point { return g.food }

// Heading returns the current heading.
func (g *Game) Heading() Direction { return g.heading }

// Score returns the number of food cells eaten.
func (g *Game) Score() int { return g.score }

// TotalSteps returns the number of steps taken.
func (g *Game) TotalSteps() int { return g.steps }

// StepsSinceFood returns the current hunger counter.
func (g *Game) StepsSinceFood() int { return g.hunger }

// Dead reports whether the game has ended.
func (g *Game) Dead() bool { return g.dead }

// DeathCause returns why the game ended, or CauseNone while running.
func (g *Game) DeathCause() Cause { return g.cause }

// Step applies one relative action. Dead games ignore it.
func (g *Game) Step(a Action) {
	if g.dead {
		return
	}

	g.steps++
	g.heading = g.heading.Turned(a)
	newHead := g.body[0].Add(g.heading.Delta())

	if g.isWall(newHead) {
		g.die(CauseWall)
		return
	}
	// The tail cell vacates this step unless the snake grows; food is
	// never on the body, so a move onto the tail cell cannot also eat.
	if g.onBody(newHead, len(g.body)-1) {
		g.die(CauseSelf)
		return
	}

	if newHead == g.food {
		g.body = append(g.body, Point{})
		copy(g.body[1:], g.body[:len(g.body)-1])
		g.body[0] = newHead
		g.score++
		g.hunger = 0
		g.placeFood()
		return
	}

	copy(g.body[1:], g.body[:len(g.body)-1])
	g.body[0] = newHead
	g.hunger++
	if g.hunger >= g.threshold {
		g.die(CauseStarvation)
	}
}

func (g *Game) die(c Cause) {
	g.dead = true
	g.cause = c
}

func (g *Game) isWall(p Point) bool {
	return p.X < 0 || p.X >= g.size || p.Y < 0 || p.Y >= g.size
}

// onBody reports whether p lies on the first n body cells.
func (g *Game) onBody(p Point, n int) bool {
	for _, b := range g.body[:n] {
		if b == p {
			return true
		}
	}
	return false
}

// placeFood moves the food to a uniformly random free cell. A board
// with no free cell left is a completed game.
func (g *Game) placeFood() {
	free := g.size*g.size - len(g.body)
	if free <= 0 {
		g.die(CauseWin)
		return
	}

	// Pick the k-th free cell in row-major order.
	k := g.rng.IntN(free)
	for y := 0; y < g.size; y++ {
		for x := 0; x < g.size; x++ {
			p := Point{x, y}
			if g.onBody(p, len(g.body)) {
				continue
			}
			if k == 0 {
				g.food = p
				return
			}
			k--
		}
	}
	panic("game: free cell accounting is broken")
}
