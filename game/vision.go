package game

// The vision vector encodes, for each of 8 fixed ray directions, the
// inverse distance to the nearest blocking cell (wall or body) and a
// flag for food seen along the ray, followed by one-hot encodings of
// the current heading and the tail direction.

// VisionSize is the length of the vector produced by Vision.
const VisionSize = len(rayDirs)*2 + 4 + 4

// rayDirs lists the 8 ray directions: the four cardinals then the four
// diagonals. The order is fixed; saved networks depend on it.
var rayDirs = [8]Point{
	{0, -1}, {1, 0}, {0, 1}, {-1, 0},
	{1, -1}, {1, 1}, {-1, 1}, {-1, -1},
}

// Vision computes the sensory input for the current state. Pure read;
// the returned slice is freshly allocated.
func (g *Game) Vision() []float64 {
	v := make([]float64, 0, VisionSize)
	for _, d := range rayDirs {
		dist, food := g.castRay(d)
		v = append(v, 1/float64(dist))
		if food {
			v = append(v, 1)
		} else {
			v = append(v, 0)
		}
	}
	v = appendOneHot(v, g.heading)
	v = appendOneHot(v, g.tailDirection())
	return v
}

// castRay walks from the head along d and returns the distance in cells
// to the first wall or body cell, and whether food was passed first.
func (g *Game) castRay(d Point) (dist int, food bool) {
	p := g.body[0]
	for {
		p = p.Add(d)
		dist++
		if g.isWall(p) || g.onBody(p, len(g.body)) {
			return dist, food
		}
		if p == g.food {
			food = true
		}
	}
}

// tailDirection returns the direction the tail is moving: from the tail
// cell toward the segment ahead of it. A length-1 snake reports its
// heading.
func (g *Game) tailDirection() Direction {
	if len(g.body) < 2 {
		return g.heading
	}
	tail := g.body[len(g.body)-1]
	next := g.body[len(g.body)-2]
	switch (Point{next.X - tail.X, next.Y - tail.Y}) {
	case Point{0, -1}:
		return North
	case Point{1, 0}:
		return East
	case Point{0, 1}:
		return South
	default:
		return West
	}
}

func appendOneHot(v []float64, d Direction) []float64 {
	for i := Direction(0); i < 4; i++ {
		if i == d {
			v = append(v, 1)
		} else {
			v = append(v, 0)
		}
	}
	return v
}
