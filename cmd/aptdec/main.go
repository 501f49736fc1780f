// Aptdec decodes NOAA APT weather-satellite recordings into PNG images.
//
// It reads a WAV recording (such as the ones the ephemeris-engine capture
// daemon produces), runs the decode pipeline for a named profile, and
// writes a grayscale PNG. With --resample-rate it instead writes a
// rate-converted copy of the recording. Ctrl-C cancels cleanly between
// pipeline stages.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/large-farva/apt-engine/internal/apt"
	"github.com/large-farva/apt-engine/internal/config"
	"github.com/large-farva/apt-engine/internal/dsp"
	"github.com/large-farva/apt-engine/internal/orbit"
	"github.com/large-farva/apt-engine/internal/raster"
	"github.com/large-farva/apt-engine/internal/telemetry"
	"github.com/large-farva/apt-engine/internal/wav"
)

func main() {
	var (
		configPath   = pflag.StringP("config", "c", "", "Path to settings TOML (built-in defaults when empty)")
		profileName  = pflag.StringP("profile", "p", "", "Decode profile (default from config)")
		outPath      = pflag.StringP("output", "o", "", "Output file (default: input name with .png)")
		resampleRate = pflag.Int("resample-rate", 0, "Resample the WAV to this rate and exit instead of decoding")
		tlePath      = pflag.String("tle", "", "TLE file for pass-direction lookup (enables auto-rotation)")
		satName      = pflag.String("satellite", "", "Satellite name for pass-direction lookup (e.g. NOAA-19)")
		startStr     = pflag.String("start", "", "Recording start time, RFC 3339 (default: input file mtime)")
	)
	pflag.Parse()

	if pflag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: aptdec [flags] recording.wav")
		pflag.PrintDefaults()
		os.Exit(2)
	}
	inPath := pflag.Arg(0)

	logger := log.New(os.Stdout, "aptdec ", log.LstdFlags|log.Lmicroseconds)

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			logger.Fatalf("config load failed: %v", err)
		}
	}

	name := *profileName
	if name == "" {
		name = cfg.Decode.DefaultProfile
	}
	profile, err := cfg.Profile(name)
	if err != nil {
		logger.Fatalf("%v", err)
	}

	rec, err := wav.ReadFile(inPath)
	if err != nil {
		logger.Fatalf("read recording: %v", err)
	}
	logger.Printf("loaded %s: %.1fs at %d Hz", inPath, rec.Seconds(), rec.Rate)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *resampleRate > 0 {
		out := *outPath
		if out == "" {
			// Never default onto the input path.
			out = outputPath("", inPath, fmt.Sprintf("-%dhz.wav", *resampleRate))
		}
		if err := resampleOnly(rec, profile, *resampleRate, out, logger); err != nil {
			logger.Fatalf("resample failed: %v", err)
		}
		return
	}

	dec, err := apt.New(apt.Options{
		Profile: profile,
		Logger:  logger,
		Progress: func(p telemetry.Progress) {
			logger.Printf("progress: %s done (%.0f%%)", p.Stage, p.Fraction*100)
		},
	})
	if err != nil {
		logger.Fatalf("invalid profile %q: %v", name, err)
	}

	img, err := dec.Decode(ctx, rec)
	if err != nil {
		logger.Fatalf("decode failed: %v", err)
	}

	rotate := false
	if *tlePath != "" {
		rotate = shouldRotate(cfg, *tlePath, *satName, *startStr, inPath, logger)
	}

	out := outputPath(*outPath, inPath, ".png")
	if err := raster.WriteFile(out, img, rotate); err != nil {
		logger.Fatalf("write image: %v", err)
	}
	logger.Printf("wrote %s (%dx%d, rotated=%v)", out, img.Width, img.Height, rotate)
}

// resampleOnly converts the recording to the requested rate using the
// profile's WAV-resampling filter parameters and writes the result.
func resampleOnly(rec dsp.Signal, profile apt.Profile, rate int, out string, logger *log.Logger) error {
	resampled, err := apt.ResampleWAV(rec, profile, rate)
	if err != nil {
		return err
	}
	if err := wav.WriteFile(out, resampled); err != nil {
		return err
	}
	logger.Printf("wrote %s: %.1fs at %d Hz", out, resampled.Seconds(), resampled.Rate)
	return nil
}

// shouldRotate looks up the pass covering the recording and reports whether
// it was northbound. Failures only disable rotation; the image still gets
// written.
func shouldRotate(cfg config.Config, tlePath, satName, startStr, inPath string, logger *log.Logger) bool {
	if satName == "" {
		logger.Printf("rotation: --tle given without --satellite, skipping")
		return false
	}
	sat := orbit.SatelliteByName(satName)
	if sat == nil {
		logger.Printf("rotation: unknown satellite %q, skipping", satName)
		return false
	}

	start := time.Now().UTC()
	if startStr != "" {
		t, err := time.Parse(time.RFC3339, startStr)
		if err != nil {
			logger.Printf("rotation: bad --start time: %v, skipping", err)
			return false
		}
		start = t
	} else if info, err := os.Stat(inPath); err == nil {
		start = info.ModTime().UTC()
	}

	tles, err := orbit.LoadTLEFile(tlePath)
	if err != nil {
		logger.Printf("rotation: %v, skipping", err)
		return false
	}
	tle, ok := tles[sat.NoradID]
	if !ok {
		logger.Printf("rotation: no TLE for %s in %s, skipping", sat.Name, tlePath)
		return false
	}

	st := orbit.Station{
		Lat: cfg.Station.Latitude,
		Lon: cfg.Station.Longitude,
		Alt: cfg.Station.Altitude,
	}
	dir, err := orbit.PassDirection(tle, st, start)
	if err != nil {
		logger.Printf("rotation: %v, skipping", err)
		return false
	}
	logger.Printf("pass direction: %s", dir)
	return dir == orbit.Northbound
}

// outputPath returns explicit when set, otherwise the input path with its
// extension swapped.
func outputPath(explicit, input, ext string) string {
	if explicit != "" {
		return explicit
	}
	base := input
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	return base + ext
}
