package visualization

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"gonum.org/v1/gonum/floats"

	"mricrop/internal/models"
)

// Viewer renders cross-sections of a volume as grayscale images.
// Intensities are scaled so the volume's minimum maps to black and its
// maximum to white.
type Viewer struct {
	volume models.Volume

	// intensity range used for normalization
	min float64
	max float64
}

// NewViewer creates a viewer for the given volume
func NewViewer(volume models.Volume) *Viewer {
	v := &Viewer{volume: volume}
	if len(volume.Data) > 0 {
		v.min = floats.Min(volume.Data)
		v.max = floats.Max(volume.Data)
	}
	return v
}

// gray maps an intensity into the 16-bit range
func (v *Viewer) gray(value float64) color.Gray16 {
	span := v.max - v.min
	if span <= 0 {
		return color.Gray16{}
	}
	return color.Gray16{Y: uint16((value - v.min) / span * 65535)}
}

// ExtractSlice extracts the 2D slice perpendicular to axis at position.
// The image columns follow the next axis in x, y, z order and the rows the
// one after it: an x slice is (y, z), a y slice is (x, z) and a z slice is (x, y).
func (v *Viewer) ExtractSlice(axis models.Axis, position int) (*image.Gray16, error) {
	if position < 0 {
		return nil, fmt.Errorf("position must be non-negative")
	}
	if position >= v.volume.Dim(axis) {
		return nil, fmt.Errorf("position %d exceeds %s extent %d", position, axis, v.volume.Dim(axis))
	}

	vol := v.volume
	var img *image.Gray16

	switch axis {
	case models.AxisX:
		img = image.NewGray16(image.Rect(0, 0, vol.Height, vol.Depth))
		for z := 0; z < vol.Depth; z++ {
			for y := 0; y < vol.Height; y++ {
				img.SetGray16(y, z, v.gray(vol.At(position, y, z)))
			}
		}

	case models.AxisY:
		img = image.NewGray16(image.Rect(0, 0, vol.Width, vol.Depth))
		for z := 0; z < vol.Depth; z++ {
			for x := 0; x < vol.Width; x++ {
				img.SetGray16(x, z, v.gray(vol.At(x, position, z)))
			}
		}

	case models.AxisZ:
		img = image.NewGray16(image.Rect(0, 0, vol.Width, vol.Height))
		for y := 0; y < vol.Height; y++ {
			for x := 0; x < vol.Width; x++ {
				img.SetGray16(x, y, v.gray(vol.At(x, y, position)))
			}
		}

	default:
		return nil, fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	return img, nil
}

// MidSlices returns the central slice along each axis
func (v *Viewer) MidSlices() ([3]*image.Gray16, error) {
	var slices [3]*image.Gray16
	for _, axis := range models.Axes {
		img, err := v.ExtractSlice(axis, v.volume.Dim(axis)/2)
		if err != nil {
			return slices, err
		}
		slices[axis] = img
	}
	return slices, nil
}

// SaveSlice saves a slice image, enlarged by scale with nearest-neighbor
// sampling. The format is chosen from the file extension.
func (v *Viewer) SaveSlice(img image.Image, filename string, scale int) error {
	if scale > 1 {
		b := img.Bounds()
		img = imaging.Resize(img, b.Dx()*scale, b.Dy()*scale, imaging.NearestNeighbor)
	}
	return imaging.Save(img, filename)
}

// SavePreviews writes the three central slices of the volume into
// outputDir, named <prefix>_<axis>.<format>.
func (v *Viewer) SavePreviews(outputDir, prefix, format string, scale int) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	slices, err := v.MidSlices()
	if err != nil {
		return err
	}

	for _, axis := range models.Axes {
		filename := filepath.Join(outputDir, fmt.Sprintf("%s_%s.%s", prefix, axis, format))
		if err := v.SaveSlice(slices[axis], filename, scale); err != nil {
			return fmt.Errorf("failed to save %s preview: %w", axis, err)
		}
	}
	return nil
}
