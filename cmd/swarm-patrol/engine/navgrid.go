package engine

import (
	"container/heap"
	"math"
)

// NavGrid quantizes the world into an occupancy grid for A* queries.
// Rebuilt from the obstacle list whenever terrain changes; independent
// of robot state.
type NavGrid struct {
	cellSize float64
	cols     int
	rows     int
	blocked  []bool
}

// safetyBuffer inflates obstacle footprints so paths keep clearance.
const safetyBuffer = 2.0

// NewNavGrid allocates a grid covering the world at the given cell size.
func NewNavGrid(worldWidth, worldHeight, cellSize float64) *NavGrid {
	cols := int(math.Ceil(worldWidth / cellSize))
	rows := int(math.Ceil(worldHeight / cellSize))
	return &NavGrid{
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		blocked:  make([]bool, cols*rows),
	}
}

// BuildFromTerrain recomputes blocked cells from the obstacle list.
// Every cell intersecting an obstacle box plus the safety buffer is
// marked, clamped to grid bounds. Previously blocked cells are cleared.
func (g *NavGrid) BuildFromTerrain(obstacles []Obstacle) {
	for i := range g.blocked {
		g.blocked[i] = false
	}
	for _, o := range obstacles {
		minC := int(math.Floor((o.X - safetyBuffer) / g.cellSize))
		maxC := int(math.Floor((o.X + o.W + safetyBuffer) / g.cellSize))
		minR := int(math.Floor((o.Y - safetyBuffer) / g.cellSize))
		maxR := int(math.Floor((o.Y + o.H + safetyBuffer) / g.cellSize))
		if minC < 0 {
			minC = 0
		}
		if minR < 0 {
			minR = 0
		}
		if maxC >= g.cols {
			maxC = g.cols - 1
		}
		if maxR >= g.rows {
			maxR = g.rows - 1
		}
		for r := minR; r <= maxR; r++ {
			for c := minC; c <= maxC; c++ {
				g.blocked[r*g.cols+c] = true
			}
		}
	}
}

func (g *NavGrid) cellAt(p Vec2) (int, int) {
	c := int(p.X / g.cellSize)
	r := int(p.Y / g.cellSize)
	if c < 0 {
		c = 0
	}
	if c >= g.cols {
		c = g.cols - 1
	}
	if r < 0 {
		r = 0
	}
	if r >= g.rows {
		r = g.rows - 1
	}
	return c, r
}

func (g *NavGrid) cellCenter(c, r int) Vec2 {
	return Vec2{(float64(c) + 0.5) * g.cellSize, (float64(r) + 0.5) * g.cellSize}
}

func (g *NavGrid) isBlocked(c, r int) bool {
	if c < 0 || c >= g.cols || r < 0 || r >= g.rows {
		return true
	}
	return g.blocked[r*g.cols+c]
}

// navNode for the A* priority queue.
type navNode struct {
	c, r   int
	g      float64 // cost so far
	f      float64 // g + heuristic
	parent *navNode
	index  int // heap index
}

type navHeap []*navNode

func (h navHeap) Len() int           { return len(h) }
func (h navHeap) Less(i, j int) bool { return h[i].f < h[j].f }
func (h navHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *navHeap) Push(x any) {
	n := x.(*navNode)
	n.index = len(*h)
	*h = append(*h, n)
}
func (h *navHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[0 : n-1]
	return x
}

// FindPath runs 8-connected A* from start to goal and returns ordered
// world-coordinate waypoints whose last element is exactly the goal.
//
// The fallback for degenerate queries (same cell, blocked goal cell, no
// path) is the single-element slice [goal]: a straight-line best-effort
// that callers must not treat as collision-free.
func (g *NavGrid) FindPath(start, goal Vec2) []Vec2 {
	sc, sr := g.cellAt(start)
	gc, gr := g.cellAt(goal)

	if sc == gc && sr == gr {
		return []Vec2{goal}
	}
	if g.isBlocked(gc, gr) {
		return []Vec2{goal}
	}

	heuristic := func(c, r int) float64 {
		dx := float64(c - gc)
		dy := float64(r - gr)
		return math.Sqrt(dx*dx + dy*dy)
	}

	open := &navHeap{}
	heap.Init(open)
	heap.Push(open, &navNode{c: sc, r: sr, g: 0, f: heuristic(sc, sr)})

	bestG := map[int]float64{sr*g.cols + sc: 0}
	closed := make(map[int]bool)

	var goalNode *navNode
	for open.Len() > 0 {
		cur := heap.Pop(open).(*navNode)
		key := cur.r*g.cols + cur.c
		if closed[key] {
			continue
		}
		closed[key] = true

		if cur.c == gc && cur.r == gr {
			goalNode = cur
			break
		}

		for dr := -1; dr <= 1; dr++ {
			for dc := -1; dc <= 1; dc++ {
				if dc == 0 && dr == 0 {
					continue
				}
				nc, nr := cur.c+dc, cur.r+dr
				if g.isBlocked(nc, nr) {
					continue
				}
				// Diagonal moves only when both orthogonal neighbors
				// are free, so corners are never cut through a blocked
				// cell.
				if dc != 0 && dr != 0 {
					if g.isBlocked(cur.c+dc, cur.r) || g.isBlocked(cur.c, cur.r+dr) {
						continue
					}
				}
				stepCost := 1.0
				if dc != 0 && dr != 0 {
					stepCost = math.Sqrt2
				}
				ng := cur.g + stepCost
				nkey := nr*g.cols + nc
				if prev, ok := bestG[nkey]; ok && ng >= prev {
					continue
				}
				bestG[nkey] = ng
				heap.Push(open, &navNode{
					c:      nc,
					r:      nr,
					g:      ng,
					f:      ng + heuristic(nc, nr),
					parent: cur,
				})
			}
		}
	}

	if goalNode == nil {
		return []Vec2{goal}
	}

	var cells []Vec2
	for n := goalNode; n != nil; n = n.parent {
		cells = append(cells, g.cellCenter(n.c, n.r))
	}
	// Reverse into start-to-goal order.
	for i, j := 0, len(cells)-1; i < j; i, j = i+1, j-1 {
		cells[i], cells[j] = cells[j], cells[i]
	}

	path := smoothPath(cells)
	path[len(path)-1] = goal
	return path
}

// smoothPath drops waypoints collinear with both neighbors (cross
// product near zero), keeping endpoints.
func smoothPath(points []Vec2) []Vec2 {
	if len(points) <= 2 {
		return points
	}
	const collinearEps = 1e-6
	out := []Vec2{points[0]}
	for i := 1; i < len(points)-1; i++ {
		prev := out[len(out)-1]
		a := points[i].Sub(prev)
		b := points[i+1].Sub(points[i])
		if math.Abs(a.Cross(b)) > collinearEps {
			out = append(out, points[i])
		}
	}
	return append(out, points[len(points)-1])
}
