// Package config loads handcount settings from a .env file, HANDCOUNT_*
// environment variables and command-line flags, in increasing precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"unicode/utf8"

	"github.com/joho/godotenv"

	"github.com/ayusman/handcount/internal/app"
	"github.com/ayusman/handcount/internal/capture"
	"github.com/ayusman/handcount/internal/detector"
	"github.com/ayusman/handcount/internal/vision"
)

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "HANDCOUNT_"

// DefaultEnvFile is read when present and no other file is named.
const DefaultEnvFile = ".env"

// Config is the complete runtime configuration.
type Config struct {
	Source    string
	Width     int
	Limit     int
	Weight    float64
	Threshold float64
	Blur      int
	Erode     int
	Dilate    int

	Addr      string
	StaticDir string

	ShowMask   bool
	FrameCount bool
	Headless   bool
	Tray       bool
	BreakKey   string
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		Source:    "0",
		Width:     app.DefaultWidth,
		Limit:     vision.DefaultCalibrationFrames,
		Weight:    vision.DefaultWeight,
		Threshold: vision.DefaultThreshold,
		Blur:      vision.DefaultBlurSize,
		Erode:     vision.DefaultErodeIterations,
		Dilate:    vision.DefaultDilateIterations,
		Addr:      ":8080",
		BreakKey:  "q",
	}
}

// Load reads envFiles (or DefaultEnvFile if it exists), then the process
// environment, then args. Process variables win over file values.
func Load(args []string, envFiles ...string) (Config, error) {
	fileEnv, err := readEnvFiles(envFiles)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileEnv[key]
		return v, ok
	}
	return Parse(args, lookup)
}

func readEnvFiles(files []string) (map[string]string, error) {
	if len(files) == 0 {
		if _, err := os.Stat(DefaultEnvFile); err != nil {
			return map[string]string{}, nil
		}
		files = []string{DefaultEnvFile}
	}
	env, err := godotenv.Read(files...)
	if err != nil {
		return nil, fmt.Errorf("read env file: %w", err)
	}
	return env, nil
}

// Parse builds a Config from defaults, lookup (environment) and args (flags).
func Parse(args []string, lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	if err := cfg.applyEnv(lookup); err != nil {
		return Config{}, err
	}

	fs := flag.NewFlagSet("handcount", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&cfg.Source, "source", cfg.Source, "camera index or video file")
	fs.IntVar(&cfg.Width, "width", cfg.Width, "frame width in pixels (>= 500)")
	fs.IntVar(&cfg.Limit, "limit", cfg.Limit, "background calibration frames")
	fs.Float64Var(&cfg.Weight, "weight", cfg.Weight, "background blend weight (0, 1]")
	fs.Float64Var(&cfg.Threshold, "threshold", cfg.Threshold, "silhouette difference threshold")
	fs.IntVar(&cfg.Blur, "blur", cfg.Blur, "Gaussian kernel size (odd)")
	fs.IntVar(&cfg.Erode, "erode", cfg.Erode, "erosion iterations")
	fs.IntVar(&cfg.Dilate, "dilate", cfg.Dilate, "dilation iterations")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address, empty to disable")
	fs.StringVar(&cfg.StaticDir, "static", cfg.StaticDir, "directory of static web files")
	fs.BoolVar(&cfg.ShowMask, "show-mask", cfg.ShowMask, "show the thresholded silhouette")
	fs.BoolVar(&cfg.FrameCount, "frame-count", cfg.FrameCount, "draw the frame counter")
	fs.BoolVar(&cfg.Headless, "headless", cfg.Headless, "do not open video windows")
	fs.BoolVar(&cfg.Tray, "tray", cfg.Tray, "run with a system tray icon")
	fs.StringVar(&cfg.BreakKey, "break-key", cfg.BreakKey, "key that ends the session")

	if err := fs.Parse(args); err != nil {
		return Config{}, fmt.Errorf("parse flags: %w", err)
	}
	if fs.NArg() > 0 {
		return Config{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"SOURCE":     &c.Source,
		"ADDR":       &c.Addr,
		"STATIC_DIR": &c.StaticDir,
		"BREAK_KEY":  &c.BreakKey,
	}
	for name, dst := range strs {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"WIDTH":  &c.Width,
		"LIMIT":  &c.Limit,
		"BLUR":   &c.Blur,
		"ERODE":  &c.Erode,
		"DILATE": &c.Dilate,
	}
	for name, dst := range ints {
		if v, ok := lookup(EnvPrefix + name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
			}
			*dst = n
		}
	}

	floats := map[string]*float64{
		"WEIGHT":    &c.Weight,
		"THRESHOLD": &c.Threshold,
	}
	for name, dst := range floats {
		if v, ok := lookup(EnvPrefix + name); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
			}
			*dst = f
		}
	}

	bools := map[string]*bool{
		"SHOW_MASK":   &c.ShowMask,
		"FRAME_COUNT": &c.FrameCount,
		"HEADLESS":    &c.Headless,
		"TRAY":        &c.Tray,
	}
	for name, dst := range bools {
		if v, ok := lookup(EnvPrefix + name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
			}
			*dst = b
		}
	}
	return nil
}

// Validate reports the first configuration error. A failing configuration
// must stop the program before any frame is read.
func (c Config) Validate() error {
	if c.Source == "" {
		return errors.New("source must not be empty")
	}
	if c.Width < capture.MinWidth {
		return fmt.Errorf("width %d: %w", c.Width, capture.ErrWidthTooSmall)
	}
	if utf8.RuneCountInString(c.BreakKey) != 1 {
		return fmt.Errorf("break key %q must be a single character", c.BreakKey)
	}
	return c.Detector().Validate()
}

// BreakRune returns the break key as a rune.
func (c Config) BreakRune() rune {
	r, _ := utf8.DecodeRuneInString(c.BreakKey)
	return r
}

// Detector returns the detector configuration.
func (c Config) Detector() detector.Config {
	cfg := detector.DefaultConfig()
	cfg.Limit = c.Limit
	cfg.Weight = c.Weight
	cfg.Silhouette = vision.SilhouetteParams{
		Threshold:        float32(c.Threshold),
		BlurSize:         c.Blur,
		ErodeIterations:  c.Erode,
		DilateIterations: c.Dilate,
	}
	return cfg
}

// App returns the application configuration.
func (c Config) App() app.Config {
	cfg := app.DefaultConfig()
	cfg.Source = c.Source
	cfg.Width = c.Width
	cfg.Detector = c.Detector()
	cfg.ShowMask = c.ShowMask
	cfg.ShowFrameCount = c.FrameCount
	return cfg
}
