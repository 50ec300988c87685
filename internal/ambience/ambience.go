package ambience

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"math/rand"
)

// Kind selects one of the procedural background-noise generators.
type Kind string

const (
	KindWhite  Kind = "whitenoise"
	KindBrown  Kind = "brown"
	KindRain   Kind = "rain"
	KindOcean  Kind = "ocean"
	KindForest Kind = "forest"
	KindFire   Kind = "fire"
)

func ParseKind(raw string) (Kind, error) {
	switch Kind(raw) {
	case KindWhite, KindBrown, KindRain, KindOcean, KindForest, KindFire:
		return Kind(raw), nil
	}
	return "", fmt.Errorf("unknown ambience kind %q", raw)
}

// Synthesize produces lengthSeconds of mono audio at sampleRate as
// normalized samples in [-1, 1]. The generators are stateless and
// unseeded; output is correct by length and amplitude, not by exact
// values.
func Synthesize(kind Kind, sampleRate, lengthSeconds int) ([]float64, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}
	if lengthSeconds <= 0 {
		return nil, fmt.Errorf("length must be positive, got %d seconds", lengthSeconds)
	}

	n := sampleRate * lengthSeconds
	switch kind {
	case KindWhite:
		return white(n), nil
	case KindBrown:
		return brown(n), nil
	case KindRain:
		return rain(n, sampleRate), nil
	case KindOcean:
		return ocean(n, sampleRate), nil
	case KindForest:
		return forest(n, sampleRate), nil
	case KindFire:
		return fire(n, sampleRate), nil
	}
	return nil, fmt.Errorf("unknown ambience kind %q", kind)
}

func clamp(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

// white is plain uniform noise at reduced gain.
func white(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = (rand.Float64()*2 - 1) * 0.3
	}
	return out
}

// brown integrates white noise through a leaky accumulator, giving the
// deep rumble of brownian noise.
func brown(n int) []float64 {
	out := make([]float64, n)
	level := 0.0
	for i := range out {
		level = level*0.98 + (rand.Float64()*2-1)*0.1
		out[i] = clamp(level * 2)
	}
	return out
}

// rain is low-passed noise (the steady hiss) with occasional louder
// droplet impulses that decay over a few milliseconds.
func rain(n, sampleRate int) []float64 {
	out := make([]float64, n)
	hiss := 0.0
	droplet := 0.0
	decay := math.Pow(0.01, 1/(0.004*float64(sampleRate)))
	for i := range out {
		hiss = hiss*0.7 + (rand.Float64()*2-1)*0.25
		droplet *= decay
		if rand.Float64() < 30.0/float64(sampleRate) {
			droplet = rand.Float64() * 0.6
		}
		out[i] = clamp(hiss + droplet*(rand.Float64()*2-1))
	}
	return out
}

// ocean modulates filtered noise with a slow swell so waves roll in
// roughly every eight seconds.
func ocean(n, sampleRate int) []float64 {
	out := make([]float64, n)
	surf := 0.0
	for i := range out {
		surf = surf*0.95 + (rand.Float64()*2-1)*0.15
		swell := 0.55 + 0.45*math.Sin(2*math.Pi*float64(i)/(8*float64(sampleRate)))
		out[i] = clamp(surf * swell)
	}
	return out
}

// forest layers a quiet wind bed with sparse short chirps at randomized
// pitches.
func forest(n, sampleRate int) []float64 {
	out := make([]float64, n)
	wind := 0.0
	chirpLeft := 0
	chirpPhase := 0.0
	chirpStep := 0.0
	for i := range out {
		wind = wind*0.99 + (rand.Float64()*2-1)*0.02
		sample := wind * 3

		if chirpLeft == 0 && rand.Float64() < 0.5/float64(sampleRate) {
			chirpLeft = sampleRate / 8
			chirpPhase = 0
			chirpStep = 2 * math.Pi * (2000 + rand.Float64()*2000) / float64(sampleRate)
		}
		if chirpLeft > 0 {
			env := float64(chirpLeft) / float64(sampleRate/8)
			sample += math.Sin(chirpPhase) * 0.25 * env
			chirpPhase += chirpStep
			chirpLeft--
		}
		out[i] = clamp(sample)
	}
	return out
}

// fire is a brown-noise rumble with sparse crackle impulses.
func fire(n, sampleRate int) []float64 {
	out := make([]float64, n)
	rumble := 0.0
	crackle := 0.0
	decay := math.Pow(0.01, 1/(0.002*float64(sampleRate)))
	for i := range out {
		rumble = rumble*0.985 + (rand.Float64()*2-1)*0.06
		crackle *= decay
		if rand.Float64() < 8.0/float64(sampleRate) {
			crackle = 0.4 + rand.Float64()*0.5
		}
		out[i] = clamp(rumble*1.5 + crackle*(rand.Float64()*2-1))
	}
	return out
}

// EncodeWAV renders samples as a 16-bit PCM mono WAV file.
func EncodeWAV(samples []float64, sampleRate int) []byte {
	dataLen := len(samples) * 2

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // mono
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*2))
	binary.Write(&buf, binary.LittleEndian, uint16(2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataLen))
	for _, s := range samples {
		binary.Write(&buf, binary.LittleEndian, int16(clamp(s)*32767))
	}
	return buf.Bytes()
}
