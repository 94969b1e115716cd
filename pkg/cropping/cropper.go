// Package cropping locates the signal-bearing region of each volume in a
// batch and crops a fixed-size sub-volume centered on it.
//
// A batch goes through four stages:
//  1. FindExtent scans each axis from both ends for the first slice whose
//     intensity sum exceeds the threshold
//  2. Center turns those bounds into a coordinate
//  3. Partition drops volumes whose coordinate is too close to an edge for
//     a full crop
//  4. Extract copies the crop out of every remaining volume
//
// Coordinates are reported for every input volume, including dropped ones.
package cropping

import (
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"

	"mricrop/internal/models"
)

// Options configures a Cropper
type Options struct {
	// CropSize is the output size of every crop
	CropSize models.CropSize

	// Threshold is the slice sum a slice must exceed to count as signal
	Threshold float64

	// Workers is the number of goroutines used to scan volumes.
	// Zero or less uses all available CPUs.
	Workers int

	// Logger receives per-volume diagnostics. Nil discards them.
	Logger *slog.Logger
}

// DefaultOptions returns the options used by CropVolumes
func DefaultOptions() Options {
	return Options{
		CropSize:  models.DefaultCropSize,
		Threshold: DefaultThreshold,
		Workers:   runtime.NumCPU(),
	}
}

// Result holds the output of cropping a batch
type Result struct {
	// Volumes are the crops of the kept volumes, in input order
	Volumes []models.CroppedVolume

	// Coordinates has one entry per input volume
	Coordinates []models.Coordinate

	// Bounds has the extent found for each input volume
	Bounds []models.Bounds

	// Kept and Dropped are the input indices that passed and failed the margin test
	Kept    []int
	Dropped []int

	// CropSize is the size every crop in Volumes has
	CropSize models.CropSize
}

// Shape returns the dimensions of the cropped batch with its trailing
// channel axis: (K, width, height, depth, 1).
func (r *Result) Shape() [5]int {
	return [5]int{len(r.Volumes), r.CropSize.Width, r.CropSize.Height, r.CropSize.Depth, 1}
}

// Tensor flattens the cropped batch in row-major order of Shape
func (r *Result) Tensor() []float64 {
	size := models.Shape(r.CropSize).Len()
	out := make([]float64, 0, len(r.Volumes)*size)
	for _, v := range r.Volumes {
		out = append(out, v.Data...)
	}
	return out
}

// Cropper crops batches of equally shaped volumes
type Cropper struct {
	opts   Options
	logger *slog.Logger
}

// NewCropper creates a cropper, filling unset options with defaults
func NewCropper(opts Options) *Cropper {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.CropSize == (models.CropSize{}) {
		opts.CropSize = models.DefaultCropSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Cropper{opts: opts, logger: logger}
}

// Process computes a coordinate for every volume in the batch and crops
// the volumes whose coordinate leaves room for a full crop. Volumes failing
// the margin test are omitted from Result.Volumes and listed in Dropped.
func (c *Cropper) Process(batch []models.Volume) (*Result, error) {
	res := &Result{
		Coordinates: make([]models.Coordinate, len(batch)),
		Bounds:      make([]models.Bounds, len(batch)),
		CropSize:    c.opts.CropSize,
	}
	if len(batch) == 0 {
		return res, nil
	}

	shape := batch[0].Shape
	for i, v := range batch {
		if v.Shape != shape {
			return nil, fmt.Errorf("%w: volume %d is %s, batch is %s", models.ErrShape, i, v.Shape, shape)
		}
		if len(v.Data) != shape.Len() {
			return nil, fmt.Errorf("%w: volume %d has %d voxels, expected %d", models.ErrShape, i, len(v.Data), shape.Len())
		}
	}

	c.scanBatch(batch, res)

	res.Kept, res.Dropped = Partition(res.Coordinates, shape, c.opts.CropSize)
	for _, i := range res.Dropped {
		c.logger.Debug("volume dropped by margin filter",
			"index", i, "coordinate", res.Coordinates[i], "crop", c.opts.CropSize.String())
	}

	res.Volumes = make([]models.CroppedVolume, 0, len(res.Kept))
	for _, i := range res.Kept {
		crop, err := Extract(batch[i], res.Coordinates[i], c.opts.CropSize)
		if err != nil {
			return nil, fmt.Errorf("volume %d: %w", i, err)
		}
		crop.Source = i
		res.Volumes = append(res.Volumes, crop)
	}

	c.logger.Info("batch cropped",
		"volumes", len(batch), "kept", len(res.Kept), "dropped", len(res.Dropped))
	return res, nil
}

// scanBatch fills the bounds and coordinates of every volume, spreading
// volumes over the configured number of workers.
func (c *Cropper) scanBatch(batch []models.Volume, res *Result) {
	workers := c.opts.Workers
	if workers > len(batch) {
		workers = len(batch)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				b := FindExtent(batch[i], c.opts.Threshold)
				res.Bounds[i] = b
				res.Coordinates[i] = Center(b)
			}
		}()
	}

	for i := range batch {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
}

// CropVolumes reshapes each flat buffer in raw to shape and crops the batch
// with the default threshold. A buffer of the wrong length fails with
// models.ErrShape.
func CropVolumes(raw [][]float64, shape models.Shape, crop models.CropSize) (*Result, error) {
	batch := make([]models.Volume, len(raw))
	for i, data := range raw {
		v, err := models.NewVolume(data, shape)
		if err != nil {
			return nil, fmt.Errorf("volume %d: %w", i, err)
		}
		batch[i] = v
	}

	opts := DefaultOptions()
	opts.CropSize = crop
	return NewCropper(opts).Process(batch)
}
