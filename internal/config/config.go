// Package config handles loading, defaulting, and validation of the aptdec
// TOML settings file. Every section maps to a typed struct so the rest of
// the codebase gets strong typing without manual key lookups. The file
// holds named decode profiles plus the ground station position used for
// pass-direction lookups.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/pelletier/go-toml/v2"

	"github.com/large-farva/apt-engine/internal/apt"
)

// Config is the top-level configuration, mirroring the TOML sections.
type Config struct {
	Decode   DecodeConfig             `toml:"decode"   json:"decode"`
	Station  StationConfig            `toml:"station"  json:"station"`
	Profiles map[string]ProfileConfig `toml:"profiles" json:"profiles"`
}

type DecodeConfig struct {
	DefaultProfile string `toml:"default_profile" json:"default_profile"`
}

type StationConfig struct {
	Latitude  float64 `toml:"latitude"  json:"latitude"`
	Longitude float64 `toml:"longitude" json:"longitude"`
	Altitude  float64 `toml:"altitude"  json:"altitude"`
}

// ProfileConfig mirrors one [profiles.<name>] table.
type ProfileConfig struct {
	WorkRate             int     `toml:"work_rate"               json:"work_rate"`
	ResampleAtten        float64 `toml:"resample_atten"          json:"resample_atten"`
	ResampleDeltaFreq    float64 `toml:"resample_delta_freq"     json:"resample_delta_freq"`
	ResampleCutout       float64 `toml:"resample_cutout"         json:"resample_cutout"`
	DemodulationAtten    float64 `toml:"demodulation_atten"      json:"demodulation_atten"`
	WavResampleAtten     float64 `toml:"wav_resample_atten"      json:"wav_resample_atten"`
	WavResampleDeltaFreq float64 `toml:"wav_resample_delta_freq" json:"wav_resample_delta_freq"`
}

// Default returns a Config populated with the built-in profiles. Values
// here are used whenever the TOML file omits a field.
func Default() Config {
	return Config{
		Decode: DecodeConfig{
			DefaultProfile: "standard",
		},
		Station: StationConfig{
			Latitude:  0.0,
			Longitude: 0.0,
			Altitude:  0.0,
		},
		Profiles: map[string]ProfileConfig{
			// fast trades stopband attenuation for shorter filters.
			"fast": {
				WorkRate:             12480,
				ResampleAtten:        30,
				ResampleDeltaFreq:    0.25,
				ResampleCutout:       0.85,
				DemodulationAtten:    23,
				WavResampleAtten:     30,
				WavResampleDeltaFreq: 0.2,
			},
			"standard": {
				WorkRate:             12480,
				ResampleAtten:        40,
				ResampleDeltaFreq:    0.2,
				ResampleCutout:       0.9,
				DemodulationAtten:    25,
				WavResampleAtten:     40,
				WavResampleDeltaFreq: 0.1,
			},
			// precise runs at a higher work rate with tighter filters;
			// several times slower than standard.
			"precise": {
				WorkRate:             16640,
				ResampleAtten:        50,
				ResampleDeltaFreq:    0.1,
				ResampleCutout:       0.95,
				DemodulationAtten:    42,
				WavResampleAtten:     60,
				WavResampleDeltaFreq: 0.05,
			},
		},
	}
}

// Load reads the TOML file at path, layers it on top of the defaults, and
// validates the result. An error is returned if the file can't be read,
// parsed, or if any constraint is violated.
func Load(path string) (Config, error) {
	cfg := Default()

	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := toml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}

	if err := validate(cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func validate(cfg Config) error {
	if cfg.Decode.DefaultProfile == "" {
		return errors.New("decode.default_profile must not be empty")
	}
	if _, ok := cfg.Profiles[cfg.Decode.DefaultProfile]; !ok {
		return fmt.Errorf("decode.default_profile %q is not a defined profile", cfg.Decode.DefaultProfile)
	}
	if cfg.Station.Latitude < -90 || cfg.Station.Latitude > 90 {
		return errors.New("station.latitude must be between -90 and 90")
	}
	if cfg.Station.Longitude < -180 || cfg.Station.Longitude > 180 {
		return errors.New("station.longitude must be between -180 and 180")
	}

	// Profile invariants themselves (work rate multiple of 4160, positive
	// attenuations) are the decoder's contract; validate them here too so
	// a bad file fails at load time, not at decode time.
	for name := range cfg.Profiles {
		p, err := cfg.Profile(name)
		if err != nil {
			return err
		}
		if err := p.Validate(); err != nil {
			return fmt.Errorf("profiles.%s: %w", name, err)
		}
	}
	return nil
}

// Profile materializes the named profile as the decoder's immutable
// parameter set.
func (c Config) Profile(name string) (apt.Profile, error) {
	pc, ok := c.Profiles[name]
	if !ok {
		return apt.Profile{}, fmt.Errorf("unknown profile %q (have: %v)", name, c.ProfileNames())
	}
	return apt.Profile{
		Name:                 name,
		WorkRate:             pc.WorkRate,
		ResampleAtten:        pc.ResampleAtten,
		ResampleDeltaFreq:    pc.ResampleDeltaFreq,
		ResampleCutout:       pc.ResampleCutout,
		DemodulationAtten:    pc.DemodulationAtten,
		WavResampleAtten:     pc.WavResampleAtten,
		WavResampleDeltaFreq: pc.WavResampleDeltaFreq,
	}, nil
}

// ProfileNames returns the defined profile names, sorted.
func (c Config) ProfileNames() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
