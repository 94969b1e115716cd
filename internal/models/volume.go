package models

import (
	"errors"
	"fmt"
)

// ErrShape is returned when voxel data cannot be reshaped to the requested dimensions
var ErrShape = errors.New("shape mismatch")

// Axis identifies one of the three volume axes
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// Axes lists the volume axes in scan order
var Axes = [3]Axis{AxisX, AxisY, AxisZ}

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	}
	return fmt.Sprintf("axis(%d)", int(a))
}

// Shape holds the dimensions of a volume in voxels
type Shape struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	Depth  int `yaml:"depth"`
}

// Len returns the number of voxels in a volume of this shape
func (s Shape) Len() int {
	return s.Width * s.Height * s.Depth
}

// Dim returns the extent of the shape along the given axis
func (s Shape) Dim(a Axis) int {
	switch a {
	case AxisX:
		return s.Width
	case AxisY:
		return s.Height
	default:
		return s.Depth
	}
}

// Valid reports whether every dimension is positive
func (s Shape) Valid() bool {
	return s.Width > 0 && s.Height > 0 && s.Depth > 0
}

func (s Shape) String() string {
	return fmt.Sprintf("%dx%dx%d", s.Width, s.Height, s.Depth)
}

// CropSize is the requested output dimensions of a crop
type CropSize Shape

// DefaultCropSize is the crop used when none is given
var DefaultCropSize = CropSize{Width: 128, Height: 128, Depth: 128}

// Dim returns the crop extent along the given axis
func (c CropSize) Dim(a Axis) int {
	return Shape(c).Dim(a)
}

// Half returns the crop margin along the given axis. It is real-valued so
// that odd crop dimensions keep their half voxel.
func (c CropSize) Half(a Axis) float64 {
	return float64(c.Dim(a)) / 2
}

func (c CropSize) String() string {
	return Shape(c).String()
}

// Volume is a 3D grid of voxel intensities.
//
// Data is stored in row-major order over (x, y, z): the voxel at (x, y, z)
// lives at index (x*Height+y)*Depth + z, so z varies fastest. This is the
// layout produced by reshaping a flat buffer to (Width, Height, Depth).
type Volume struct {
	Data []float64
	Shape
}

// NewVolume reshapes flat voxel data into a volume of the given shape.
// The data slice is not copied.
func NewVolume(data []float64, shape Shape) (Volume, error) {
	if !shape.Valid() {
		return Volume{}, fmt.Errorf("%w: invalid dimensions %s", ErrShape, shape)
	}
	if len(data) != shape.Len() {
		return Volume{}, fmt.Errorf("%w: cannot reshape %d voxels into %s (%d voxels)",
			ErrShape, len(data), shape, shape.Len())
	}
	return Volume{Data: data, Shape: shape}, nil
}

// Index returns the offset of voxel (x, y, z) in Data
func (v Volume) Index(x, y, z int) int {
	return (x*v.Height+y)*v.Depth + z
}

// At returns the intensity at (x, y, z)
func (v Volume) At(x, y, z int) float64 {
	return v.Data[v.Index(x, y, z)]
}

// Set stores an intensity at (x, y, z)
func (v Volume) Set(x, y, z int, value float64) {
	v.Data[v.Index(x, y, z)] = value
}

// Region copies the sub-volume starting at origin with the given size.
// The region must lie entirely inside the volume.
func (v Volume) Region(origin [3]int, size Shape) (Volume, error) {
	if origin[0] < 0 || origin[1] < 0 || origin[2] < 0 {
		return Volume{}, fmt.Errorf("region origin %v must be non-negative", origin)
	}
	if !size.Valid() {
		return Volume{}, fmt.Errorf("region size %s must be positive", size)
	}
	if origin[0]+size.Width > v.Width || origin[1]+size.Height > v.Height || origin[2]+size.Depth > v.Depth {
		return Volume{}, fmt.Errorf("region %v+%s extends beyond volume %s", origin, size, v.Shape)
	}

	region := Volume{Data: make([]float64, size.Len()), Shape: size}
	for x := 0; x < size.Width; x++ {
		for y := 0; y < size.Height; y++ {
			// z rows are contiguous in both source and destination
			src := v.Index(origin[0]+x, origin[1]+y, origin[2])
			dst := region.Index(x, y, 0)
			copy(region.Data[dst:dst+size.Depth], v.Data[src:src+size.Depth])
		}
	}
	return region, nil
}

// Coordinate is the real-valued center of the signal extent of a volume
type Coordinate struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

// Get returns the coordinate component along the given axis
func (c Coordinate) Get(a Axis) float64 {
	switch a {
	case AxisX:
		return c.X
	case AxisY:
		return c.Y
	default:
		return c.Z
	}
}

// Bounds holds the first and last slice index along each axis whose
// slice sum exceeded the extent threshold, indexed by Axis.
type Bounds struct {
	Min [3]int
	Max [3]int
}

// CroppedVolume is a crop extracted from a source volume of the batch
type CroppedVolume struct {
	Volume

	// Source is the index of the originating volume in the input batch
	Source int

	// Origin is the voxel in the source volume where the crop starts
	Origin [3]int
}

// Shape4 returns the crop dimensions with the trailing channel axis
func (c CroppedVolume) Shape4() [4]int {
	return [4]int{c.Width, c.Height, c.Depth, 1}
}
