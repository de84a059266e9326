package teletext

/*------------------------------------------------------------------
 *
 * Purpose:	Capture-card configuration: sample geometry and the
 *		precomputed bit grid the line analyser resamples onto.
 *
 *------------------------------------------------------------------*/

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config describes one capture card / digitiser profile (spec.md §6).
type Config struct {
	LineLength int // bytes per raw sample record

	// SampleWidth is 1 or 2 bytes per sample; samples are unsigned
	// little-endian integers of this width.
	SampleWidth int

	// Bits holds sample offsets of bit boundaries; BitLengths[i] is the
	// number of samples bit i is averaged over. Both are generated by
	// NewBitGrid and extend a few bits past the nominal 360-bit line so
	// that the pattern matcher (§4.4) always has a trailing margin.
	Bits       []int
	BitLengths []int

	// StartSlice is the sample range searched for the clock run-in.
	StartSlice [2]int

	// LineTrim marks the start of a tail region known to be signal-free,
	// used to estimate the noise floor when StartSlice begins at 0.
	LineTrim int

	// Gauss is the standard deviation, in samples, of the smoothing
	// kernel applied before thresholding.
	Gauss float64

	// FFTBins are bin-edge indices into the 256-bin magnitude spectrum,
	// used to sum the energy at odd harmonics of the Teletext symbol rate.
	FFTBins []int

	// CRIFC is the expected (bipolar) bit pattern of the combined clock
	// run-in + framing code, used to find the best sub-bit roll.
	CRIFC []float64
}

// numBits returns the number of bit cells in the grid (len(BitLengths)).
func (c *Config) numBits() int {
	return len(c.BitLengths)
}

/*------------------------------------------------------------------
 *
 * Name:	NewBitGrid
 *
 * Purpose:	Build the sample-offset bit grid for a capture card.
 *
 * Inputs:	sampleRate	- card sample rate, Hz.
 *		bitRate		- Teletext NRZ bit rate, Hz (6.9375MHz).
 *		firstBitSample	- fractional sample offset of bit 0's leading edge.
 *		numBits		- number of bit cells to generate (> 360 to
 *				  leave trailing margin for the pattern matcher).
 *
 * Returns:	bits (len numBits+1), bitLengths (len numBits).
 *
 *------------------------------------------------------------------*/

func NewBitGrid(sampleRate, bitRate, firstBitSample float64, numBits int) (bits []int, bitLengths []int) {
	samplesPerBit := sampleRate / bitRate

	bits = make([]int, numBits+1)
	for i := 0; i <= numBits; i++ {
		bits[i] = int(firstBitSample + float64(i)*samplesPerBit + 0.5)
	}

	bitLengths = make([]int, numBits)
	for i := 0; i < numBits; i++ {
		bitLengths[i] = bits[i+1] - bits[i]
		if bitLengths[i] <= 0 {
			bitLengths[i] = 1
		}
	}

	return bits, bitLengths
}

// marginBits is the number of bit cells in the grid: 16 past the nominal
// 360-bit line, so that every Chop Deconvolve and SliceDecode make (up to
// grid bit 360) stays inside it.
const marginBits = 376

// buildCRIFC expands the standard clock-run-in (0xAA 0xAA, LSB first) and
// framing code (0xE4, LSB first) into a bipolar correlation template.
func buildCRIFC() []float64 {
	var bits []int
	for _, b := range [2]byte{0xAA, 0xAA} {
		bits = append(bits, lsbFirstBits(b, 8)...)
	}
	bits = append(bits, lsbFirstBits(0xE4, 8)...)

	out := make([]float64, len(bits))
	for i, b := range bits {
		if b == 1 {
			out[i] = 1
		} else {
			out[i] = -1
		}
	}
	return out
}

func lsbFirstBits(b byte, n int) []int {
	out := make([]int, n)
	for i := 0; i < n; i++ {
		out[i] = int((b >> uint(i)) & 1)
	}
	return out
}

// BT8x8PAL is the only profile the upstream project shipped: a PAL capture
// on a Brooktree bt8x8-family digitiser. The exact sample-rate/offset
// constants are a reconstruction from PAL line timing and the 6.9375MHz
// Teletext bit rate (see DESIGN.md) rather than a transcription of the
// original config_bt8x8_pal.py, which is not part of the retrieved sources.
var BT8x8PAL = buildBT8x8PAL()

func buildBT8x8PAL() Config {
	const sampleRate = 27_000_000.0
	const bitRate = 6_937_500.0
	const firstBitSample = 86.0

	bits, bitLengths := NewBitGrid(sampleRate, bitRate, firstBitSample, marginBits)

	return Config{
		LineLength:  2048,
		SampleWidth: 1,
		Bits:        bits,
		BitLengths:  bitLengths,
		StartSlice:  [2]int{32, 120},
		LineTrim:    1900,
		Gauss:       2.0,
		FFTBins:     []int{0, 16, 32, 48, 64, 80, 96, 112, 128, 144, 160, 176, 192, 208, 224, 240, 256},
		CRIFC:       buildCRIFC(),
	}
}

/*------------------------------------------------------------------
 *
 * Name:	LoadConfigOverride
 *
 * Purpose:	Overlay a YAML file's fields onto a copy of a base profile.
 *		This is the one piece of file I/O the core package performs
 *		for configuration; the Config value itself is always built
 *		from Go literals (§4.4's "no external data files" also
 *		applies to the card profile: overrides only ever *adjust*
 *		a literal base, never replace the whole mechanism).
 *
 * Inputs:	base - starting profile, e.g. teletext.BT8x8PAL.
 *		path - YAML file path; fields absent from it keep the base
 *		       value, fields present (even as zero) replace it.
 *
 * Returns:	merged config, or a ConfigError if the file can't be read
 *		or parsed.
 *
 *------------------------------------------------------------------*/

func LoadConfigOverride(base Config, path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, &Error{Kind: ConfigError, Msg: fmt.Sprintf("reading config file %s", path), Err: err}
	}

	var override struct {
		LineLength  *int       `yaml:"line_length"`
		SampleWidth *int       `yaml:"sample_width"`
		StartSlice  *[2]int    `yaml:"start_slice"`
		LineTrim    *int       `yaml:"line_trim"`
		Gauss       *float64   `yaml:"gauss"`
		FFTBins     *[]int     `yaml:"fftbins"`
	}

	if err := yaml.Unmarshal(data, &override); err != nil {
		return Config{}, &Error{Kind: ConfigError, Msg: fmt.Sprintf("parsing config file %s", path), Err: err}
	}

	merged := base
	if override.LineLength != nil {
		merged.LineLength = *override.LineLength
	}
	if override.SampleWidth != nil {
		merged.SampleWidth = *override.SampleWidth
	}
	if override.StartSlice != nil {
		merged.StartSlice = *override.StartSlice
	}
	if override.LineTrim != nil {
		merged.LineTrim = *override.LineTrim
	}
	if override.Gauss != nil {
		merged.Gauss = *override.Gauss
	}
	if override.FFTBins != nil {
		merged.FFTBins = *override.FFTBins
	}

	return merged, nil
}

// Profiles maps a name (as selected by --profile) to a built-in Config,
// matching the CLI surface of §6.
var Profiles = map[string]Config{
	"bt8x8_pal": BT8x8PAL,
}

func ProfileByName(name string) (Config, error) {
	cfg, ok := Profiles[name]
	if !ok {
		return Config{}, &Error{Kind: ConfigError, Msg: fmt.Sprintf("no configuration profile named %q", name)}
	}
	return cfg, nil
}
