package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"mricrop/internal/models"
	"mricrop/pkg/config"
	"mricrop/pkg/cropping"
	"mricrop/pkg/visualization"
	"mricrop/pkg/volumeio"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to YAML configuration file")
	inputDir := flag.String("input", "", "Directory containing raw input volumes")
	outputDir := flag.String("output", "cropped", "Directory to write cropped volumes and manifest")
	shape := flag.String("shape", "", "Input volume dimensions as WxHxD (overrides config)")
	cropSize := flag.String("crop", "", "Crop dimensions as WxHxD (overrides config)")
	dataType := flag.String("dtype", "", "Raw voxel type: uint8, int16, uint16, float32, float64 (overrides config)")
	numCores := flag.Int("cores", 0, "Number of goroutines used to scan volumes (overrides config)")
	previews := flag.Bool("previews", false, "Save mid-slice preview images of each crop")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	writeConfig := flag.Bool("write-config", false, "Write the default configuration to -config and exit")
	flag.Parse()

	if *writeConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Default configuration written to %s\n", *configPath)
		return
	}

	if *inputDir == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Command line flags take precedence over the config file
	if *shape != "" {
		if cfg.Input.Shape, err = parseShape(*shape); err != nil {
			fmt.Fprintf(os.Stderr, "Invalid -shape: %v\n", err)
			os.Exit(1)
		}
	}
	if *cropSize != "" {
		if cfg.Cropping.CropSize, err = parseShape(*cropSize); err != nil {
			fmt.Fprintf(os.Stderr, "Invalid -crop: %v\n", err)
			os.Exit(1)
		}
	}
	if *dataType != "" {
		cfg.Input.DataType = *dataType
	}
	if *numCores > 0 {
		cfg.Cropping.NumCores = *numCores
	}
	if *previews {
		cfg.Output.SavePreviews = true
	}
	if *verbose {
		cfg.Output.Verbose = true
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if cfg.Output.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(cfg, *inputDir, *outputDir, logger); err != nil {
		logger.Error("cropping failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, inputDir, outputDir string, logger *slog.Logger) error {
	fmt.Println("================================")
	fmt.Println("MRI VOLUME CROPPING")
	fmt.Println("================================")

	logger.Info("loading volumes",
		"dir", inputDir, "pattern", cfg.Input.Pattern,
		"shape", cfg.Input.Shape.String(), "dtype", cfg.Input.DataType)
	batch, files, err := volumeio.LoadBatch(inputDir, cfg.Input.Pattern, cfg.Input.Shape, volumeio.DataType(cfg.Input.DataType))
	if err != nil {
		return fmt.Errorf("failed to load volumes: %w", err)
	}

	cropper := cropping.NewCropper(cropping.Options{
		CropSize:  models.CropSize(cfg.Cropping.CropSize),
		Threshold: cfg.Cropping.Threshold,
		Workers:   cfg.Cropping.NumCores,
		Logger:    logger,
	})

	startTime := time.Now()
	res, err := cropper.Process(batch)
	if err != nil {
		return err
	}
	processingTime := time.Since(startTime)

	for _, i := range res.Dropped {
		logger.Debug("no crop written", "source", filepath.Base(files[i]))
	}

	manifest := volumeio.NewManifest(res, cfg.Input.Shape, cfg.Cropping.Threshold, files)
	if err := volumeio.WriteResult(outputDir, res, manifest); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}

	if cfg.Output.SavePreviews {
		previewDir := filepath.Join(outputDir, "previews")
		for _, crop := range res.Volumes {
			viewer := visualization.NewViewer(crop.Volume)
			prefix := fmt.Sprintf("crop_%03d", crop.Source)
			if err := viewer.SavePreviews(previewDir, prefix, cfg.Output.PreviewFormat, cfg.Output.PreviewScale); err != nil {
				logger.Warn("failed to save previews", "source", crop.Source, "error", err)
			}
		}
	}

	summary := cropping.Summarize(res)
	shape := res.Shape()
	fmt.Printf("\nCropping completed in %.2f seconds\n", processingTime.Seconds())
	fmt.Printf("Volumes: %d, kept: %d, dropped: %d\n", summary.Volumes, summary.Kept, summary.Dropped)
	fmt.Printf("Output batch shape: (%d, %d, %d, %d, %d)\n", shape[0], shape[1], shape[2], shape[3], shape[4])
	fmt.Printf("Mean center: (%.2f, %.2f, %.2f)\n", summary.Mean.X, summary.Mean.Y, summary.Mean.Z)
	fmt.Printf("Center std dev: (%.2f, %.2f, %.2f)\n", summary.StdDev.X, summary.StdDev.Y, summary.StdDev.Z)
	fmt.Printf("Results saved to: %s\n", outputDir)

	return nil
}

// parseShape parses dimensions written as WxHxD
func parseShape(s string) (models.Shape, error) {
	parts := strings.Split(strings.ToLower(s), "x")
	if len(parts) != 3 {
		return models.Shape{}, fmt.Errorf("expected WxHxD, got %q", s)
	}

	var dims [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n <= 0 {
			return models.Shape{}, fmt.Errorf("invalid dimension %q in %q", p, s)
		}
		dims[i] = n
	}
	return models.Shape{Width: dims[0], Height: dims[1], Depth: dims[2]}, nil
}
