package tracker

import (
	"math"
)

// linearAssignment solves minimum cost matching between rows (tracks) and
// columns (detections) of the cost matrix.  The matrix is padded to square
// with limit/2 entries so any pairing with cost at or above limit is left
// unmatched instead of forced.
func linearAssignment(cost [][]float32, rows, cols int, limit float32) (matches [][2]int, unmatchedRows, unmatchedCols []int) {

	if len(cost) == 0 {
		for i := 0; i < rows; i++ {
			unmatchedRows = append(unmatchedRows, i)
		}
		for j := 0; j < cols; j++ {
			unmatchedCols = append(unmatchedCols, j)
		}
		return
	}

	n := rows + cols
	padded := make([][]float64, n)

	for i := range padded {
		padded[i] = make([]float64, n)
		for j := range padded[i] {
			padded[i][j] = float64(limit) / 2
		}
	}

	for i := rows; i < n; i++ {
		for j := cols; j < n; j++ {
			padded[i][j] = 0
		}
	}

	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			padded[i][j] = float64(cost[i][j])
		}
	}

	rowsol := hungarian(padded)

	for i := 0; i < rows; i++ {
		if j := rowsol[i]; j < cols {
			matches = append(matches, [2]int{i, j})
		} else {
			unmatchedRows = append(unmatchedRows, i)
		}
	}

	colUsed := make([]bool, cols)

	for _, m := range matches {
		colUsed[m[1]] = true
	}

	for j := 0; j < cols; j++ {
		if !colUsed[j] {
			unmatchedCols = append(unmatchedCols, j)
		}
	}

	return
}

// hungarian computes a minimum cost perfect matching on a square cost
// matrix and returns the assigned column per row.
func hungarian(cost [][]float64) []int {

	n := len(cost)

	// potentials and column matching, 1-based with a virtual column 0
	u := make([]float64, n+1)
	v := make([]float64, n+1)
	p := make([]int, n+1)
	way := make([]int, n+1)

	for i := 1; i <= n; i++ {

		p[0] = i
		j0 := 0

		minv := make([]float64, n+1)
		used := make([]bool, n+1)

		for j := range minv {
			minv[j] = math.Inf(1)
		}

		for {
			used[j0] = true
			i0 := p[j0]
			delta := math.Inf(1)
			j1 := 0

			for j := 1; j <= n; j++ {

				if used[j] {
					continue
				}

				cur := cost[i0-1][j-1] - u[i0] - v[j]

				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}

				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}

			for j := 0; j <= n; j++ {
				if used[j] {
					u[p[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}

			j0 = j1

			if p[j0] == 0 {
				break
			}
		}

		// augment along the alternating path
		for j0 != 0 {
			j1 := way[j0]
			p[j0] = p[j1]
			j0 = j1
		}
	}

	rowsol := make([]int, n)

	for j := 1; j <= n; j++ {
		if p[j] != 0 {
			rowsol[p[j]-1] = j - 1
		}
	}

	return rowsol
}
