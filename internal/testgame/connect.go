package testgame

import "github.com/Skizdukion/my-open-spiel/evaluator"

// Connect is a K-in-a-row board game fixture: two players alternate placing
// a stone on an empty cell, and the first to place K in a row (any
// direction) wins. It is not a chance game; IsChanceNode always reports
// false.
type Connect struct {
	board      Board
	k          int
	toPlay     Cell
	lastWinner Cell
	moveCount  int
}

var _ evaluator.Game = Connect{}

// NewConnect returns the empty starting state for a size x size board with
// a K-in-a-row win condition.
func NewConnect(size, k int) Connect {
	return Connect{board: NewBoard(size), k: k, toPlay: CellBlack}
}

// LegalActions returns every empty cell's flattened index.
func (c Connect) LegalActions() []int64 {
	return c.board.legalActions()
}

// ObservationTensor encodes the board as two one-hot planes (current
// player's stones, opponent's stones), flattened row-major.
func (c Connect) ObservationTensor() []float32 {
	n := c.board.size * c.board.size
	out := make([]float32, 2*n)
	for i, cell := range c.board.cells {
		switch {
		case cell == c.toPlay:
			out[i] = 1
		case cell != CellEmpty:
			out[n+i] = 1
		}
	}
	return out
}

// IsChanceNode is always false for Connect.
func (c Connect) IsChanceNode() bool { return false }

// ChanceOutcomes panics; Connect has no chance nodes.
func (c Connect) ChanceOutcomes() evaluator.Policy {
	panic("testgame: Connect has no chance nodes")
}

// Apply places the current player's stone at action (a flattened board
// index) and returns the resulting state, leaving c unmodified.
func (c Connect) Apply(action int64) Connect {
	next := c
	next.board = c.board.clone()
	x, y := int(action)%c.board.size, int(action)/c.board.size
	next.board.Set(x, y, c.toPlay)
	next.moveCount++
	if next.wins(x, y, c.toPlay) {
		next.lastWinner = c.toPlay
	}
	next.toPlay = opponent(c.toPlay)
	return next
}

// Winner reports the winning player, or CellEmpty if the game is ongoing or
// drawn.
func (c Connect) Winner() Cell { return c.lastWinner }

// Terminal reports whether the game has ended, by win or by a full board.
func (c Connect) Terminal() bool {
	return c.lastWinner != CellEmpty || len(c.LegalActions()) == 0
}

func opponent(c Cell) Cell {
	if c == CellBlack {
		return CellWhite
	}
	return CellBlack
}

var directions = [4][2]int{{1, 0}, {0, 1}, {1, 1}, {1, -1}}

func (c Connect) wins(x, y int, player Cell) bool {
	for _, d := range directions {
		count := 1
		count += c.countDirection(x, y, d[0], d[1], player)
		count += c.countDirection(x, y, -d[0], -d[1], player)
		if count >= c.k {
			return true
		}
	}
	return false
}

func (c Connect) countDirection(x, y, dx, dy int, player Cell) int {
	count := 0
	for {
		x, y = x+dx, y+dy
		if x < 0 || y < 0 || x >= c.board.size || y >= c.board.size {
			return count
		}
		if c.board.At(x, y) != player {
			return count
		}
		count++
	}
}
