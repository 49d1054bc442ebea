package grid

// Line returns the Bresenham cells from a (exclusive) to b (inclusive).
func Line(a, b Cell) []Cell {
	dx := abs(b.X - a.X)
	dy := -abs(b.Y - a.Y)
	sx := sign(b.X - a.X)
	sy := sign(b.Y - a.Y)
	err := dx + dy

	out := make([]Cell, 0, max(dx, -dy))
	x, y := a.X, a.Y
	for x != b.X || y != b.Y {
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
		out = append(out, Cell{X: x, Y: y})
	}
	return out
}

// Supercover returns every cell the segment between the centres of a
// (exclusive) and b (inclusive) passes through. A segment crossing a cell
// corner exactly steps diagonally.
func Supercover(a, b Cell) []Cell {
	dx, dy := abs(b.X-a.X), abs(b.Y-a.Y)
	sx, sy := sign(b.X-a.X), sign(b.Y-a.Y)

	out := make([]Cell, 0, dx+dy)
	x, y := a.X, a.Y
	for ix, iy := 0, 0; ix < dx || iy < dy; {
		// next vertical edge at (1+2ix)/2dx, next horizontal at (1+2iy)/2dy
		d := (1+2*ix)*dy - (1+2*iy)*dx
		switch {
		case d == 0:
			x, y = x+sx, y+sy
			ix++
			iy++
		case d < 0:
			x += sx
			ix++
		default:
			y += sy
			iy++
		}
		out = append(out, Cell{X: x, Y: y})
	}
	return out
}

// Ray returns n consecutive cells stepping from start (exclusive) along o.
func Ray(start Cell, o Octant, n int) []Cell {
	dx, dy := o.Vector()
	out := make([]Cell, 0, max(n, 0))
	c := start
	for i := 0; i < n; i++ {
		c = c.Add(dx, dy)
		out = append(out, c)
	}
	return out
}

// Neighbors returns the 8 Chebyshev-adjacent cells in octant order.
func Neighbors(c Cell) []Cell {
	out := make([]Cell, 0, 8)
	for _, v := range octantVectors {
		out = append(out, c.Add(v[0], v[1]))
	}
	return out
}
