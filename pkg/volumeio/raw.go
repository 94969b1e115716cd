// Package volumeio reads raw volume files into batches and writes cropped
// batches back to disk together with a YAML manifest.
package volumeio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"mricrop/internal/models"
)

// ErrUnsupportedType is returned for an unknown raw voxel encoding
var ErrUnsupportedType = errors.New("unsupported data type")

// DataType is the little-endian encoding of voxels in a raw file
type DataType string

const (
	Uint8   DataType = "uint8"
	Int16   DataType = "int16"
	Uint16  DataType = "uint16"
	Float32 DataType = "float32"
	Float64 DataType = "float64"
)

// Size returns the number of bytes per voxel
func (d DataType) Size() (int, error) {
	switch d {
	case Uint8:
		return 1, nil
	case Int16, Uint16:
		return 2, nil
	case Float32:
		return 4, nil
	case Float64:
		return 8, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedType, string(d))
}

// ReadVolume decodes a raw volume of the given shape from r.
// The stream must hold exactly shape.Len() voxels.
func ReadVolume(r io.Reader, shape models.Shape, dtype DataType) (models.Volume, error) {
	size, err := dtype.Size()
	if err != nil {
		return models.Volume{}, err
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return models.Volume{}, fmt.Errorf("failed to read volume data: %v", err)
	}
	if len(raw)%size != 0 {
		return models.Volume{}, fmt.Errorf("%w: %d bytes is not a whole number of %s voxels",
			models.ErrShape, len(raw), dtype)
	}

	data := make([]float64, len(raw)/size)
	for i := range data {
		b := raw[i*size : (i+1)*size]
		switch dtype {
		case Uint8:
			data[i] = float64(b[0])
		case Int16:
			data[i] = float64(int16(binary.LittleEndian.Uint16(b)))
		case Uint16:
			data[i] = float64(binary.LittleEndian.Uint16(b))
		case Float32:
			data[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
		case Float64:
			data[i] = math.Float64frombits(binary.LittleEndian.Uint64(b))
		}
	}

	return models.NewVolume(data, shape)
}

// ReadVolumeFile decodes the raw volume stored at path
func ReadVolumeFile(path string, shape models.Shape, dtype DataType) (models.Volume, error) {
	file, err := os.Open(path)
	if err != nil {
		return models.Volume{}, err
	}
	defer file.Close()

	v, err := ReadVolume(file, shape, dtype)
	if err != nil {
		return models.Volume{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return v, nil
}

// LoadBatch loads every file in dir matching pattern, ordered by the
// number embedded in the file name.
func LoadBatch(dir, pattern string, shape models.Shape, dtype DataType) ([]models.Volume, []string, error) {
	files, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, nil, fmt.Errorf("invalid input pattern: %v", err)
	}
	if len(files) == 0 {
		return nil, nil, fmt.Errorf("no files matching %q found in %s", pattern, dir)
	}

	sort.SliceStable(files, func(i, j int) bool {
		ni, nj := extractNumber(filepath.Base(files[i])), extractNumber(filepath.Base(files[j]))
		if ni != nj {
			return ni < nj
		}
		return files[i] < files[j]
	})

	batch := make([]models.Volume, 0, len(files))
	for _, path := range files {
		v, err := ReadVolumeFile(path, shape, dtype)
		if err != nil {
			return nil, nil, err
		}
		batch = append(batch, v)
	}
	return batch, files, nil
}

// extractNumber returns the first run of digits in filename, or -1
func extractNumber(filename string) int {
	name := strings.TrimSuffix(filename, filepath.Ext(filename))

	start := strings.IndexFunc(name, func(r rune) bool { return r >= '0' && r <= '9' })
	if start < 0 {
		return -1
	}
	end := start
	for end < len(name) && name[end] >= '0' && name[end] <= '9' {
		end++
	}

	n, err := strconv.Atoi(name[start:end])
	if err != nil {
		return -1
	}
	return n
}

// WriteVolume encodes v as little-endian float64 voxels
func WriteVolume(w io.Writer, v models.Volume) error {
	buf := make([]byte, 8*len(v.Data))
	for i, val := range v.Data {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(val))
	}
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("failed to write binary data: %v", err)
	}
	return nil
}

// WriteVolumeFile writes v to path as raw float64 voxels
func WriteVolumeFile(path string, v models.Volume) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create binary file: %v", err)
	}
	if err := WriteVolume(file, v); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
