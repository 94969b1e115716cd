package cropping

import (
	"gonum.org/v1/gonum/stat"

	"mricrop/internal/models"
)

// Summary describes the coordinates found across a batch
type Summary struct {
	Volumes int
	Kept    int
	Dropped int

	// Mean and StdDev are per-axis statistics over all coordinates,
	// dropped volumes included. StdDev is zero for a single volume.
	Mean   models.Coordinate
	StdDev models.Coordinate
}

// Summarize computes batch statistics for a result
func Summarize(res *Result) Summary {
	s := Summary{
		Volumes: len(res.Coordinates),
		Kept:    len(res.Kept),
		Dropped: len(res.Dropped),
	}
	if s.Volumes == 0 {
		return s
	}

	var mean, std [3]float64
	values := make([]float64, s.Volumes)
	for _, axis := range models.Axes {
		for i, c := range res.Coordinates {
			values[i] = c.Get(axis)
		}
		if s.Volumes == 1 {
			mean[axis] = values[0]
			continue
		}
		mean[axis], std[axis] = stat.MeanStdDev(values, nil)
	}

	s.Mean = models.Coordinate{X: mean[0], Y: mean[1], Z: mean[2]}
	s.StdDev = models.Coordinate{X: std[0], Y: std[1], Z: std[2]}
	return s
}
