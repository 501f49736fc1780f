package apt

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/large-farva/apt-engine/internal/dsp"
	"github.com/large-farva/apt-engine/internal/telemetry"
)

// Options holds everything the Decoder needs from the caller.
type Options struct {
	Profile Profile
	Logger  *log.Logger
	// Progress, when set, receives one event per completed stage with the
	// fraction of the run finished. It is called from the decoding
	// goroutine; keep it cheap.
	Progress func(telemetry.Progress)
}

// Decoder runs the full decode pipeline for one Profile: resample the
// recording to the work rate, demodulate the AM envelope, detect line
// syncs, and build the image. A Decoder holds no per-run state, so
// concurrent Decode calls are independent.
type Decoder struct {
	profile  Profile
	log      *log.Logger
	progress func(telemetry.Progress)
}

// Cumulative completion fraction after each stage. Resampling and
// demodulation dominate the runtime.
var stageFractions = map[telemetry.Stage]float64{
	telemetry.StageResample:   0.35,
	telemetry.StageDemodulate: 0.70,
	telemetry.StageSync:       0.90,
	telemetry.StageImage:      1.00,
}

// New validates the profile and returns a Decoder. Profile errors surface
// here, before any samples are touched.
func New(opts Options) (*Decoder, error) {
	if err := opts.Profile.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Decoder{
		profile:  opts.Profile,
		log:      logger,
		progress: opts.Progress,
	}, nil
}

// Decode turns a mono recording into an APT image. Cancellation is
// cooperative and checked at stage boundaries; a cancelled run discards
// partial work and returns the context's error rather than a partial
// image.
func (d *Decoder) Decode(ctx context.Context, rec dsp.Signal) (*Image, error) {
	p := d.profile

	// Stage 1: bring the recording to the work rate.
	resampler, err := dsp.NewResampler(rec.Rate, p.WorkRate, dsp.ResampleSpec{
		Attenuation:  p.ResampleAtten,
		TransitionBW: p.ResampleDeltaFreq,
		Cutout:       p.ResampleCutout,
	})
	if err != nil {
		return nil, err
	}
	work, err := resampler.Apply(rec)
	if err != nil {
		return nil, err
	}
	d.log.Printf("resampled %d Hz -> %d Hz (%d samples, %.1fs)",
		rec.Rate, p.WorkRate, work.Len(), work.Seconds())
	if err := d.stageDone(ctx, telemetry.StageResample); err != nil {
		return nil, err
	}

	// Stage 2: recover the AM envelope. The post-demodulation filter cuts
	// at the highest video frequency the word rate can carry.
	cutoff := float64(WordRate) / float64(p.WorkRate)
	envTaps, err := dsp.DesignLowPass(dsp.FilterSpec{
		Cutoff:       cutoff,
		TransitionBW: cutoff / 4,
		Attenuation:  p.DemodulationAtten,
	})
	if err != nil {
		return nil, err
	}
	env, err := dsp.Demodulate(work, envTaps)
	if err != nil {
		return nil, err
	}
	if err := d.stageDone(ctx, telemetry.StageDemodulate); err != nil {
		return nil, err
	}

	// Stage 3: line synchronization. The first and last samples of the
	// envelope sit inside the resample and envelope filters' edge
	// transients, so the search skips them.
	guard := resampler.Transient() + len(envTaps)/2
	detector := NewSyncDetector(p)
	marks := detector.Detect(env, guard)
	d.log.Printf("sync: %d lines (%d estimated)", len(marks), countEstimated(marks))
	if err := d.stageDone(ctx, telemetry.StageSync); err != nil {
		return nil, err
	}

	// Stage 4: pixel mapping, telemetry, contrast stretch.
	img, err := NewImageBuilder().Build(env, marks)
	if err != nil {
		return nil, err
	}
	img.Quality.TransientRows = guard / p.samplesPerLine()
	if err := d.stageDone(ctx, telemetry.StageImage); err != nil {
		return nil, err
	}

	d.log.Printf("decoded %dx%d image, %d/%d rows estimated, scores %.2f..%.2f",
		img.Width, img.Height, img.Quality.EstimatedRows, img.Quality.Rows,
		img.Quality.MinScore, img.Quality.MaxScore)

	return img, nil
}

// stageDone reports progress for a completed stage and checks for
// cancellation. Pipelines never stop mid-stage.
func (d *Decoder) stageDone(ctx context.Context, stage telemetry.Stage) error {
	if d.progress != nil {
		d.progress(telemetry.Progress{
			Stage:    stage,
			Fraction: stageFractions[stage],
			TS:       telemetry.NowTS(),
		})
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("decode cancelled after %s stage: %w", stage, err)
	}
	return nil
}

// ResampleWAV converts a recording to outRate using the profile's
// WAV-resampling filter parameters. This is the standalone rate-conversion
// operation; no demodulation happens.
func ResampleWAV(rec dsp.Signal, p Profile, outRate int) (dsp.Signal, error) {
	resampler, err := dsp.NewResampler(rec.Rate, outRate, dsp.ResampleSpec{
		Attenuation:  p.WavResampleAtten,
		TransitionBW: p.WavResampleDeltaFreq,
		Cutout:       1.0,
	})
	if err != nil {
		return dsp.Signal{}, err
	}
	return resampler.Apply(rec)
}

func countEstimated(marks []LineMark) int {
	n := 0
	for _, m := range marks {
		if m.Estimated {
			n++
		}
	}
	return n
}
