package volumeio

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"mricrop/internal/models"
	"mricrop/pkg/cropping"
)

// ManifestFile is the name of the manifest written next to the crops
const ManifestFile = "manifest.yaml"

// Manifest records how each input volume of a batch was handled
type Manifest struct {
	InputShape models.Shape    `yaml:"inputShape"`
	CropSize   models.Shape    `yaml:"cropSize"`
	Threshold  float64         `yaml:"threshold"`
	Entries    []ManifestEntry `yaml:"volumes"`
}

// ManifestEntry describes one input volume
type ManifestEntry struct {
	Index      int               `yaml:"index"`
	Source     string            `yaml:"source,omitempty"`
	Coordinate models.Coordinate `yaml:"coordinate"`
	Kept       bool              `yaml:"kept"`
	Output     string            `yaml:"output,omitempty"`
	Origin     []int             `yaml:"origin,omitempty,flow"`
}

// cropFileName is the output file name of the crop of input index i
func cropFileName(i int) string {
	return fmt.Sprintf("crop_%03d.raw", i)
}

// NewManifest builds the manifest of a cropping result. sources names the
// input volumes by index and may be nil.
func NewManifest(res *cropping.Result, input models.Shape, threshold float64, sources []string) *Manifest {
	m := &Manifest{
		InputShape: input,
		CropSize:   models.Shape(res.CropSize),
		Threshold:  threshold,
		Entries:    make([]ManifestEntry, len(res.Coordinates)),
	}
	for i, c := range res.Coordinates {
		m.Entries[i] = ManifestEntry{Index: i, Coordinate: c}
		if i < len(sources) {
			m.Entries[i].Source = filepath.Base(sources[i])
		}
	}
	for _, v := range res.Volumes {
		e := &m.Entries[v.Source]
		e.Kept = true
		e.Output = cropFileName(v.Source)
		e.Origin = []int{v.Origin[0], v.Origin[1], v.Origin[2]}
	}
	return m
}

// WriteResult writes every crop of res into dir as raw float64 files and
// saves the manifest alongside them.
func WriteResult(dir string, res *cropping.Result, m *Manifest) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %v", err)
	}

	for _, v := range res.Volumes {
		if err := WriteVolumeFile(filepath.Join(dir, cropFileName(v.Source)), v.Volume); err != nil {
			return fmt.Errorf("crop of volume %d: %w", v.Source, err)
		}
	}

	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("error marshaling manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), data, 0644); err != nil {
		return fmt.Errorf("error writing manifest: %w", err)
	}
	return nil
}

// LoadManifest reads a manifest written by WriteResult
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading manifest: %w", err)
	}
	m := &Manifest{}
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("error parsing manifest: %w", err)
	}
	return m, nil
}
