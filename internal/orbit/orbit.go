// Package orbit resolves which direction a NOAA satellite was travelling
// during a recording, using SGP4 propagation over a locally supplied TLE
// file. Northbound passes produce upside-down images, so the CLI uses the
// direction to decide whether to rotate the output. TLE data is read from
// disk only; fetching fresh element sets is the capture side's business.
package orbit

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/akhenakh/sgp4"
)

// Satellite describes a NOAA APT bird: its common name, NORAD catalog
// number, and downlink frequency in hertz.
type Satellite struct {
	Name    string
	NoradID int
	Freq    int // downlink frequency in Hz
}

// Satellites is the catalog of active NOAA APT satellites. All three
// transmit on frequencies in the 137 MHz VHF band.
var Satellites = []Satellite{
	{Name: "NOAA-15", NoradID: 25338, Freq: 137620000},
	{Name: "NOAA-18", NoradID: 28654, Freq: 137912500},
	{Name: "NOAA-19", NoradID: 33591, Freq: 137100000},
}

// SatelliteByName returns the satellite with the given name
// (case-insensitive), or nil if not found.
func SatelliteByName(name string) *Satellite {
	upper := strings.ToUpper(name)
	for i := range Satellites {
		if strings.ToUpper(Satellites[i].Name) == upper {
			return &Satellites[i]
		}
	}
	return nil
}

// Station is the ground station position the recording was made from.
type Station struct {
	Lat float64 // degrees north
	Lon float64 // degrees east
	Alt float64 // meters above sea level
}

// Direction is which way the satellite crossed the sky during the pass.
type Direction int

const (
	Unknown Direction = iota
	Northbound
	Southbound
)

func (d Direction) String() string {
	switch d {
	case Northbound:
		return "northbound"
	case Southbound:
		return "southbound"
	default:
		return "unknown"
	}
}

// LoadTLEFile parses a bulk TLE text file (standard 3-line format: name,
// line 1, line 2) and returns element sets for the known NOAA satellites,
// keyed by NORAD ID.
func LoadTLEFile(path string) (map[int]*sgp4.TLE, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("orbit: read TLE file: %w", err)
	}

	wanted := make(map[int]bool, len(Satellites))
	for _, sat := range Satellites {
		wanted[sat.NoradID] = true
	}

	result := make(map[int]*sgp4.TLE)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")

	for i := 0; i+2 < len(lines); i += 3 {
		group := strings.TrimSpace(lines[i]) + "\n" +
			strings.TrimSpace(lines[i+1]) + "\n" +
			strings.TrimSpace(lines[i+2])

		tle, err := sgp4.ParseTLE(group)
		if err != nil {
			continue
		}
		if wanted[tle.SatelliteNumber] {
			result[tle.SatelliteNumber] = tle
		}
	}

	if len(result) == 0 {
		return nil, fmt.Errorf("orbit: no NOAA TLEs found in %s", path)
	}
	return result, nil
}

// PassDirection finds the pass covering (or nearest to) the recording time
// and classifies it. A satellite that rises in the southern half of the
// sky is heading north.
func PassDirection(tle *sgp4.TLE, st Station, at time.Time) (Direction, error) {
	// A full APT pass lasts about 15 minutes; search a window around the
	// recording start wide enough to contain it whole.
	start := at.Add(-20 * time.Minute)
	end := at.Add(20 * time.Minute)

	passes, err := tle.GeneratePasses(st.Lat, st.Lon, st.Alt, start, end, 1)
	if err != nil {
		return Unknown, fmt.Errorf("orbit: propagate passes: %w", err)
	}
	if len(passes) == 0 {
		return Unknown, fmt.Errorf("orbit: no pass near %s", at.Format(time.RFC3339))
	}

	// Prefer a pass that actually contains the recording time, falling
	// back to the first one in the window.
	pass := passes[0]
	for _, p := range passes {
		if !at.Before(p.AOS) && !at.After(p.LOS) {
			pass = p
			break
		}
	}

	if pass.AOSAzimuth > 90 && pass.AOSAzimuth < 270 {
		return Northbound, nil
	}
	return Southbound, nil
}
