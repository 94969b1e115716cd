package volumeio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mricrop/internal/models"
	"mricrop/pkg/cropping"
)

var smallShape = models.Shape{Width: 2, Height: 2, Depth: 2}

func TestReadVolume_DataTypes(t *testing.T) {
	want := []float64{0, 1, 2, 3, 4, 5, 6, 100}

	encode := func(dtype DataType) []byte {
		var buf bytes.Buffer
		for _, v := range want {
			switch dtype {
			case Uint8:
				buf.WriteByte(byte(v))
			case Int16:
				require.NoError(t, binary.Write(&buf, binary.LittleEndian, int16(v)))
			case Uint16:
				require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint16(v)))
			case Float32:
				require.NoError(t, binary.Write(&buf, binary.LittleEndian, float32(v)))
			case Float64:
				require.NoError(t, binary.Write(&buf, binary.LittleEndian, v))
			}
		}
		return buf.Bytes()
	}

	for _, dtype := range []DataType{Uint8, Int16, Uint16, Float32, Float64} {
		t.Run(string(dtype), func(t *testing.T) {
			v, err := ReadVolume(bytes.NewReader(encode(dtype)), smallShape, dtype)
			require.NoError(t, err)
			assert.Equal(t, want, v.Data)
			assert.Equal(t, smallShape, v.Shape)
		})
	}
}

func TestReadVolume_NegativeInt16(t *testing.T) {
	var buf bytes.Buffer
	for i := 0; i < smallShape.Len(); i++ {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, int16(-7)))
	}

	v, err := ReadVolume(&buf, smallShape, Int16)
	require.NoError(t, err)
	assert.Equal(t, -7.0, v.At(1, 1, 1))
}

func TestReadVolume_Errors(t *testing.T) {
	_, err := ReadVolume(bytes.NewReader(make([]byte, 7)), smallShape, Uint8)
	assert.ErrorIs(t, err, models.ErrShape)

	_, err = ReadVolume(bytes.NewReader(make([]byte, 15)), smallShape, Int16)
	assert.ErrorIs(t, err, models.ErrShape)

	_, err = ReadVolume(bytes.NewReader(nil), smallShape, DataType("complex64"))
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestWriteVolume_RoundTrip(t *testing.T) {
	v, err := models.NewVolume([]float64{0.5, -1, 2, math.MaxFloat64, 4, 5, 6, 7}, smallShape)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteVolume(&buf, v))
	assert.Equal(t, 8*smallShape.Len(), buf.Len())

	got, err := ReadVolume(&buf, smallShape, Float64)
	require.NoError(t, err)
	assert.Equal(t, v.Data, got.Data)
}

func TestExtractNumber(t *testing.T) {
	tests := map[string]int{
		"brain_12.raw": 12,
		"007.raw":      7,
		"scan2_v9.raw": 2,
		"nodigits.raw": -1,
		"3d.raw":       3,
	}
	for name, want := range tests {
		assert.Equal(t, want, extractNumber(name), name)
	}
}

func TestLoadBatch_NumericOrder(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []int{10, 2, 1} {
		data := bytes.Repeat([]byte{byte(n)}, smallShape.Len())
		name := filepath.Join(dir, fmt.Sprintf("vol_%d.raw", n))
		require.NoError(t, os.WriteFile(name, data, 0644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0644))

	batch, files, err := LoadBatch(dir, "*.raw", smallShape, Uint8)
	require.NoError(t, err)
	require.Len(t, batch, 3)
	assert.Equal(t, "vol_1.raw", filepath.Base(files[0]))
	assert.Equal(t, "vol_2.raw", filepath.Base(files[1]))
	assert.Equal(t, "vol_10.raw", filepath.Base(files[2]))
	assert.Equal(t, 10.0, batch[2].At(0, 0, 0))
}

func TestLoadBatch_Errors(t *testing.T) {
	dir := t.TempDir()
	_, _, err := LoadBatch(dir, "*.raw", smallShape, Uint8)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.raw"), []byte{1, 2, 3}, 0644))
	_, _, err = LoadBatch(dir, "*.raw", smallShape, Uint8)
	assert.ErrorIs(t, err, models.ErrShape)
}

func TestWriteResult(t *testing.T) {
	shape := models.Shape{Width: 16, Height: 16, Depth: 16}
	vol, err := models.NewVolume(make([]float64, shape.Len()), shape)
	require.NoError(t, err)
	for x := 4; x < 12; x++ {
		for y := 4; y < 12; y++ {
			for z := 4; z < 12; z++ {
				vol.Set(x, y, z, 100)
			}
		}
	}
	empty, err := models.NewVolume(make([]float64, shape.Len()), shape)
	require.NoError(t, err)

	opts := cropping.DefaultOptions()
	opts.CropSize = models.CropSize{Width: 4, Height: 4, Depth: 4}
	res, err := cropping.NewCropper(opts).Process([]models.Volume{empty, vol})
	require.NoError(t, err)

	m := NewManifest(res, shape, opts.Threshold, []string{"/in/a_0.raw", "/in/a_1.raw"})
	dir := filepath.Join(t.TempDir(), "out")
	require.NoError(t, WriteResult(dir, res, m))

	_, err = os.Stat(filepath.Join(dir, "crop_000.raw"))
	assert.True(t, os.IsNotExist(err))

	crop, err := ReadVolumeFile(filepath.Join(dir, "crop_001.raw"), models.Shape(opts.CropSize), Float64)
	require.NoError(t, err)
	assert.Equal(t, res.Volumes[0].Data, crop.Data)

	loaded, err := LoadManifest(filepath.Join(dir, ManifestFile))
	require.NoError(t, err)
	require.Len(t, loaded.Entries, 2)
	assert.Equal(t, shape, loaded.InputShape)
	assert.False(t, loaded.Entries[0].Kept)
	assert.Equal(t, "a_0.raw", loaded.Entries[0].Source)
	assert.True(t, loaded.Entries[1].Kept)
	assert.Equal(t, "crop_001.raw", loaded.Entries[1].Output)
	assert.Equal(t, []int{5, 5, 5}, loaded.Entries[1].Origin)
	assert.Equal(t, models.Coordinate{X: 7.5, Y: 7.5, Z: 7.5}, loaded.Entries[1].Coordinate)
}
