package cropping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mricrop/internal/models"
)

func TestScan(t *testing.T) {
	tests := []struct {
		name    string
		profile []float64
		dir     Direction
		want    int
	}{
		{name: "forward first qualifying", profile: []float64{0, 100, 0, 100, 0}, dir: Forward, want: 1},
		{name: "backward first qualifying", profile: []float64{0, 100, 0, 100, 0}, dir: Backward, want: 3},
		{name: "forward none qualifies", profile: []float64{1, 2, 3}, dir: Forward, want: 0},
		{name: "backward none qualifies falls back to zero", profile: []float64{1, 2, 3}, dir: Backward, want: 0},
		{name: "threshold is exclusive", profile: []float64{50, 50, 50.5}, dir: Forward, want: 2},
		{name: "last index", profile: []float64{0, 0, 0, 51}, dir: Backward, want: 3},
		{name: "empty profile", profile: nil, dir: Backward, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scan(tt.profile, tt.dir, DefaultThreshold))
		})
	}
}

func TestProfile(t *testing.T) {
	shape := models.Shape{Width: 2, Height: 3, Depth: 4}
	data := make([]float64, shape.Len())
	for i := range data {
		data[i] = 1
	}
	v, err := models.NewVolume(data, shape)
	require.NoError(t, err)
	v.Set(1, 2, 3, 10)

	assert.Equal(t, []float64{12, 21}, Profile(v, models.AxisX))
	assert.Equal(t, []float64{8, 8, 17}, Profile(v, models.AxisY))
	assert.Equal(t, []float64{6, 6, 6, 15}, Profile(v, models.AxisZ))
}

func TestFindExtent_AsymmetricBlock(t *testing.T) {
	shape := models.Shape{Width: 10, Height: 12, Depth: 14}
	v := newBlockVolume(t, shape, [3]int{2, 3, 5}, [3]int{6, 9, 7}, 100)

	b := FindExtent(v, DefaultThreshold)
	assert.Equal(t, [3]int{2, 3, 5}, b.Min)
	assert.Equal(t, [3]int{5, 8, 6}, b.Max)
	assert.Equal(t, models.Coordinate{X: 3.5, Y: 5.5, Z: 5.5}, Center(b))
}

func TestFindExtent_NoSignal(t *testing.T) {
	v := newBlockVolume(t, cube(8), [3]int{2, 2, 2}, [3]int{4, 4, 4}, 1)

	// slice sums of 4 never exceed the default threshold
	b := FindExtent(v, DefaultThreshold)
	assert.Equal(t, models.Bounds{}, b)
	assert.Equal(t, models.Coordinate{}, Center(b))
}

func TestFindExtent_SingleVoxel(t *testing.T) {
	shape := cube(6)

	above := newBlockVolume(t, shape, [3]int{1, 2, 3}, [3]int{2, 3, 4}, 51)
	b := FindExtent(above, DefaultThreshold)
	assert.Equal(t, [3]int{1, 2, 3}, b.Min)
	assert.Equal(t, [3]int{1, 2, 3}, b.Max)

	at := newBlockVolume(t, shape, [3]int{1, 2, 3}, [3]int{2, 3, 4}, 50)
	assert.Equal(t, models.Bounds{}, FindExtent(at, DefaultThreshold))
}

func TestFindExtent_SignalAtHighEdge(t *testing.T) {
	v := newBlockVolume(t, cube(8), [3]int{7, 0, 0}, [3]int{8, 8, 8}, 10)

	b := FindExtent(v, DefaultThreshold)
	assert.Equal(t, 7, b.Min[models.AxisX])
	assert.Equal(t, 7, b.Max[models.AxisX])
	assert.Equal(t, 0, b.Min[models.AxisY])
	assert.Equal(t, 7, b.Max[models.AxisY])
}
