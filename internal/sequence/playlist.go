// Package sequence holds the compiled-in deterrent playlists and the player
// that renders a playlist entry into synchronized horn and light output.
package sequence

import (
	_ "embed"
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/duck-deterrent/internal/audio"
	"github.com/sweeney/duck-deterrent/internal/matrix"
)

// Entry is one beat: a frequency and volume ramp played over Duration while
// the matrix strobes Color at StrobeHz.
type Entry struct {
	FreqStart float64
	FreqEnd   float64
	VolStart  float64
	VolEnd    float64
	Color     matrix.Color
	StrobeHz  float64
	Duration  time.Duration
}

// Playlist is an ordered, read-only list of entries.
type Playlist []Entry

// Playlists is the full compiled-in set.
type Playlists struct {
	// Ramp is the warning escalation.
	Ramp Playlist
	// Blast is the peak deterrence sequence.
	Blast Playlist
}

//go:embed playlists.yaml
var playlistsYAML []byte

// Default holds the playlists built into the binary.
var Default = MustLoad(playlistsYAML)

type yamlEntry struct {
	FreqStart  float64 `yaml:"freq_start"`
	FreqEnd    float64 `yaml:"freq_end"`
	VolStart   float64 `yaml:"vol_start"`
	VolEnd     float64 `yaml:"vol_end"`
	Color      []int   `yaml:"color"`
	StrobeHz   float64 `yaml:"strobe_hz"`
	DurationMs int     `yaml:"duration_ms"`
}

type yamlPlaylists struct {
	Ramp  []yamlEntry `yaml:"ramp"`
	Blast []yamlEntry `yaml:"blast"`
}

// Load decodes and validates playlists.
func Load(data []byte) (Playlists, error) {
	var raw yamlPlaylists
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Playlists{}, fmt.Errorf("decode playlists: %w", err)
	}

	ramp, err := convert(raw.Ramp)
	if err != nil {
		return Playlists{}, fmt.Errorf("ramp: %w", err)
	}
	blast, err := convert(raw.Blast)
	if err != nil {
		return Playlists{}, fmt.Errorf("blast: %w", err)
	}

	p := Playlists{Ramp: ramp, Blast: blast}
	if err := p.Validate(); err != nil {
		return Playlists{}, err
	}
	return p, nil
}

// MustLoad is Load for compiled-in data. A malformed playlist is a
// programming error, so it panics.
func MustLoad(data []byte) Playlists {
	p, err := Load(data)
	if err != nil {
		panic(err)
	}
	return p
}

func convert(raw []yamlEntry) (Playlist, error) {
	out := make(Playlist, 0, len(raw))
	for i, r := range raw {
		if len(r.Color) != 3 {
			return nil, fmt.Errorf("entry %d: color needs 3 components, got %d", i, len(r.Color))
		}
		for _, v := range r.Color {
			if v < 0 || v > 255 {
				return nil, fmt.Errorf("entry %d: color component %d out of range", i, v)
			}
		}
		out = append(out, Entry{
			FreqStart: r.FreqStart,
			FreqEnd:   r.FreqEnd,
			VolStart:  r.VolStart,
			VolEnd:    r.VolEnd,
			Color:     matrix.RGB(uint8(r.Color[0]), uint8(r.Color[1]), uint8(r.Color[2])),
			StrobeHz:  r.StrobeHz,
			Duration:  time.Duration(r.DurationMs) * time.Millisecond,
		})
	}
	return out, nil
}

// Validate checks both playlists.
func (p Playlists) Validate() error {
	return errors.Join(
		p.Ramp.Validate("ramp"),
		p.Blast.Validate("blast"),
	)
}

// Validate reports every entry that breaks the playback preconditions.
func (pl Playlist) Validate(name string) error {
	if len(pl) == 0 {
		return fmt.Errorf("%s: playlist is empty", name)
	}
	var errs []error
	for i, e := range pl {
		if err := e.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s[%d]: %w", name, i, err))
		}
	}
	return errors.Join(errs...)
}

// Validate checks a single entry.
func (e Entry) Validate() error {
	var errs []error
	if e.Duration < TickPeriod {
		errs = append(errs, fmt.Errorf("duration %v shorter than one tick (%v)", e.Duration, TickPeriod))
	}
	if e.StrobeHz <= 0 {
		errs = append(errs, fmt.Errorf("strobe rate %v must be positive", e.StrobeHz))
	}
	for _, f := range []float64{e.FreqStart, e.FreqEnd} {
		if f < audio.MinFreq || f > audio.MaxFreq {
			errs = append(errs, fmt.Errorf("frequency %v outside [%d, %d]", f, audio.MinFreq, audio.MaxFreq))
		}
	}
	for _, v := range []float64{e.VolStart, e.VolEnd} {
		if v < 0 || v > audio.MaxVol {
			errs = append(errs, fmt.Errorf("volume %v outside [0, %d]", v, audio.MaxVol))
		}
	}
	return errors.Join(errs...)
}

// Total returns the nominal length of the playlist.
func (pl Playlist) Total() time.Duration {
	var d time.Duration
	for _, e := range pl {
		d += e.Duration
	}
	return d
}
