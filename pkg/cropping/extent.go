package cropping

import (
	"gonum.org/v1/gonum/floats"

	"mricrop/internal/models"
)

// DefaultThreshold is the slice-sum level a slice must exceed to count as signal
const DefaultThreshold = 50.0

// Direction selects the end of an axis a scan starts from
type Direction int

const (
	// Forward scans from index 0 upward
	Forward Direction = iota
	// Backward scans from the last index downward
	Backward
)

// Profile returns the sum of every slice of v perpendicular to axis,
// indexed by slice position along that axis.
func Profile(v models.Volume, axis models.Axis) []float64 {
	profile := make([]float64, v.Dim(axis))
	plane := v.Height * v.Depth

	switch axis {
	case models.AxisX:
		for x := range profile {
			profile[x] = floats.Sum(v.Data[x*plane : (x+1)*plane])
		}
	case models.AxisY:
		for x := 0; x < v.Width; x++ {
			for y := 0; y < v.Height; y++ {
				start := v.Index(x, y, 0)
				profile[y] += floats.Sum(v.Data[start : start+v.Depth])
			}
		}
	case models.AxisZ:
		for x := 0; x < v.Width; x++ {
			for y := 0; y < v.Height; y++ {
				start := v.Index(x, y, 0)
				floats.Add(profile, v.Data[start:start+v.Depth])
			}
		}
	}
	return profile
}

// scan returns the first index, walking the profile in the given direction,
// whose value exceeds threshold. It returns 0 when no index qualifies,
// regardless of direction.
func scan(profile []float64, dir Direction, threshold float64) int {
	n := len(profile)
	for i := 0; i < n; i++ {
		idx := i
		if dir == Backward {
			idx = n - 1 - i
		}
		if profile[idx] > threshold {
			return idx
		}
	}
	return 0
}

// FindExtent locates, along each axis, the first slice from the low end and
// the first slice from the high end whose intensity sum exceeds threshold.
func FindExtent(v models.Volume, threshold float64) models.Bounds {
	var b models.Bounds
	for _, axis := range models.Axes {
		profile := Profile(v, axis)
		b.Min[axis] = scan(profile, Forward, threshold)
		b.Max[axis] = scan(profile, Backward, threshold)
	}
	return b
}
