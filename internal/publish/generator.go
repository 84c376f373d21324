// Package publish produces demo feeds: a sinusoid as a bare number or a
// keyed JSON object, and ISS-style satellite telemetry.
package publish

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/rileyhilliard/fv/internal/decode"
)

// Generator kinds.
const (
	KindSinus = "sinus"
	KindKeyed = "keyed"
	KindISS   = "iss"
)

// Generator produces one payload per call.
type Generator interface {
	Next(now time.Time) ([]byte, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(now time.Time) ([]byte, error)

func (f GeneratorFunc) Next(now time.Time) ([]byte, error) {
	return f(now)
}

// WaveOptions shapes the sinusoid. Each call advances the phase by Step
// radians.
type WaveOptions struct {
	Amplitude float64
	Step      float64
	Offset    float64
	// Key names the field for the keyed generator.
	Key string
}

// DefaultWave is one full period every 63 messages.
func DefaultWave() WaveOptions {
	return WaveOptions{Amplitude: 1, Step: 0.1, Key: decode.DefaultKey}
}

// Kinds lists the generator names accepted by NewGenerator.
func Kinds() []string {
	kinds := []string{KindSinus, KindKeyed, KindISS}
	sort.Strings(kinds)
	return kinds
}

// NewGenerator returns the generator for kind.
func NewGenerator(kind string, wave WaveOptions) (Generator, error) {
	switch kind {
	case KindSinus:
		w := newWave(wave)
		return GeneratorFunc(func(time.Time) ([]byte, error) {
			return []byte(strconv.FormatFloat(w.next(), 'f', 6, 64)), nil
		}), nil
	case KindKeyed:
		w := newWave(wave)
		key := wave.Key
		if key == "" {
			key = decode.DefaultKey
		}
		return GeneratorFunc(func(time.Time) ([]byte, error) {
			return json.Marshal(map[string]float64{key: w.next()})
		}), nil
	case KindISS:
		return NewOrbit(time.Time{}), nil
	default:
		return nil, fmt.Errorf("unknown generator %q (want one of %v)", kind, Kinds())
	}
}

type wave struct {
	opts WaveOptions
	step int
}

func newWave(opts WaveOptions) *wave {
	if opts.Amplitude == 0 {
		opts.Amplitude = 1
	}
	if opts.Step == 0 {
		opts.Step = DefaultWave().Step
	}
	return &wave{opts: opts}
}

func (w *wave) next() float64 {
	v := w.opts.Offset + w.opts.Amplitude*math.Sin(float64(w.step)*w.opts.Step)
	w.step++
	return v
}
