package cropping

import (
	"errors"
	"fmt"
	"math"

	"mricrop/internal/models"
)

// ErrCropBounds is returned when truncating a crop's bounds does not yield
// the requested crop width along some axis.
var ErrCropBounds = errors.New("crop bounds do not match crop size")

// Center converts extent bounds into a coordinate, taking half the absolute
// sum of the low and high bound on each axis.
func Center(b models.Bounds) models.Coordinate {
	half := func(a models.Axis) float64 {
		return math.Abs(float64(b.Max[a]+b.Min[a])) / 2
	}
	return models.Coordinate{
		X: half(models.AxisX),
		Y: half(models.AxisY),
		Z: half(models.AxisZ),
	}
}

// InMargin reports whether a crop of the given size centered on c fits
// inside a volume of the given shape. Both margin bounds are strict.
func InMargin(c models.Coordinate, shape models.Shape, crop models.CropSize) bool {
	for _, axis := range models.Axes {
		co := c.Get(axis)
		half := crop.Half(axis)
		if !(co > half && co < float64(shape.Dim(axis))-half) {
			return false
		}
	}
	return true
}

// Partition splits batch indices into those whose coordinate passes the
// margin test and those that do not. Both lists are in ascending order.
func Partition(coords []models.Coordinate, shape models.Shape, crop models.CropSize) (kept, dropped []int) {
	for i, c := range coords {
		if InMargin(c, shape, crop) {
			kept = append(kept, i)
		} else {
			dropped = append(dropped, i)
		}
	}
	return kept, dropped
}

// cropRange returns the truncated [lo, hi) range of the crop along axis
func cropRange(c models.Coordinate, crop models.CropSize, axis models.Axis) (int, int) {
	co := c.Get(axis)
	half := crop.Half(axis)
	return int(co - half), int(co + half)
}

// Extract copies the crop centered on c out of v. Each bound is truncated
// independently; if the resulting width differs from the crop size the
// crop is rejected with ErrCropBounds rather than silently resized.
func Extract(v models.Volume, c models.Coordinate, crop models.CropSize) (models.CroppedVolume, error) {
	var origin [3]int
	for _, axis := range models.Axes {
		lo, hi := cropRange(c, crop, axis)
		if hi-lo != crop.Dim(axis) {
			return models.CroppedVolume{}, fmt.Errorf("%w: axis %s spans [%d,%d) for size %d",
				ErrCropBounds, axis, lo, hi, crop.Dim(axis))
		}
		origin[axis] = lo
	}

	region, err := v.Region(origin, models.Shape(crop))
	if err != nil {
		return models.CroppedVolume{}, fmt.Errorf("failed to extract crop: %w", err)
	}
	return models.CroppedVolume{Volume: region, Origin: origin}, nil
}
