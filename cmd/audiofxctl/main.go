// main.go - audiofxctl: a non-interactive WAV-in/WAV-out harness that
// drives one audiofx effect over a file, for manual testing and demos

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/soxplugins/audiofx"
)

// paramFlags accumulates repeated --param name=value flags in the order
// given on the command line.
type paramFlags []string

func (p *paramFlags) String() string { return strings.Join(*p, ",") }

func (p *paramFlags) Set(value string) error {
	*p = append(*p, value)
	return nil
}

func (p *paramFlags) Type() string { return "name=value" }

func main() {
	inPath := pflag.String("in", "", "input WAV file")
	outPath := pflag.String("out", "", "output WAV file")
	effectName := pflag.String("effect", "", "effect to run: filter, chorusecho, modulation, overdrive, reverb")
	blockSize := pflag.Int("block-size", 4096, "samples per block passed to ProcessBlock")
	dumpParamsPath := pflag.String("dump-params", "", "write the effect's default parameter map as YAML to this path and exit")
	loadParamsPath := pflag.String("load-params", "", "load a YAML parameter map (as written by --dump-params) before processing")
	verbose := pflag.Bool("verbose", false, "log rejected parameter updates to stderr")

	var params paramFlags
	pflag.Var(&params, "param", "set a parameter as name=value; may be repeated")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: audiofxctl --effect NAME --in IN.wav --out OUT.wav [--param name=value ...]\n\n")
		fmt.Fprintf(os.Stderr, "Runs one audiofx effect over a WAV file.\n\nOptions:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  audiofxctl --effect reverb --in dry.wav --out wet.wav --param \"Reverberance [%%]=70\"\n")
		fmt.Fprintf(os.Stderr, "  audiofxctl --effect filter --dump-params filter.yaml\n")
	}
	pflag.Parse()

	effect, err := newEffect(*effectName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if base, ok := effect.(interface{ SetLogger(audiofx.Logger) }); ok && *verbose {
		base.SetLogger(audiofx.NewDefaultLogger())
	}

	if *dumpParamsPath != "" {
		if err := dumpParams(effect, *dumpParamsPath); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *loadParamsPath != "" {
		if err := loadParams(effect, *loadParamsPath); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}

	for _, kv := range params {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			fmt.Fprintf(os.Stderr, "error: --param %q is not name=value\n", kv)
			os.Exit(1)
		}
		effect.SetValue(name, value, false)
	}

	if *inPath == "" || *outPath == "" {
		pflag.Usage()
		os.Exit(1)
	}

	if err := run(effect, *inPath, *outPath, *blockSize); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// newEffect constructs the named effect with its constructor defaults.
func newEffect(name string) (audiofx.Effect, error) {
	switch name {
	case "filter":
		return audiofx.NewFilterEffect(), nil
	case "chorusecho":
		return audiofx.NewChorusEchoEffect(), nil
	case "modulation":
		return audiofx.NewModulationEffect(), nil
	case "overdrive":
		return audiofx.NewOverdriveEffect(), nil
	case "reverb":
		return audiofx.NewReverbEffect(), nil
	case "":
		return nil, fmt.Errorf("--effect is required")
	default:
		return nil, fmt.Errorf("unknown effect %q", name)
	}
}

// dumpParams writes an effect's current (name, value) pairs as YAML.
func dumpParams(effect audiofx.Effect, path string) error {
	pairs := effect.ParameterMap().ExportPairs()
	m := make(map[string]string, len(pairs))
	for _, kv := range pairs {
		m[kv[0]] = kv[1]
	}
	data, err := yaml.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// loadParams applies a YAML parameter map (as written by dumpParams) to
// an effect via SetValue, so every change goes through normal validation.
func loadParams(effect audiofx.Effect, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var m map[string]string
	if err := yaml.Unmarshal(data, &m); err != nil {
		return err
	}
	for name, value := range m {
		effect.SetValue(name, value, false)
	}
	return nil
}

// run decodes inPath, processes it block-by-block through effect, and
// encodes the result to outPath.
func run(effect audiofx.Effect, inPath, outPath string, blockSize int) error {
	inFile, err := os.Open(inPath)
	if err != nil {
		return err
	}
	defer inFile.Close()

	decoder := wav.NewDecoder(inFile)
	pcm, err := decoder.FullPCMBuffer()
	if err != nil {
		return fmt.Errorf("decoding %s: %w", inPath, err)
	}

	sampleRate := float64(pcm.Format.SampleRate)
	channelCount := pcm.Format.NumChannels
	bitDepth := pcm.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = 16
	}
	fullScale := float64(int(1) << (bitDepth - 1))

	buf := deinterleave(pcm, channelCount, fullScale)

	effect.Prepare(sampleRate)
	defer effect.Release()

	if !effect.HasValidParameters() {
		return fmt.Errorf("effect has no valid parameters")
	}

	sampleCount := buf.SampleCount()
	for start := 0; start < sampleCount; start += blockSize {
		end := start + blockSize
		if end > sampleCount {
			end = sampleCount
		}
		block := sliceChannels(buf, start, end)
		timePosition := float64(start) / sampleRate
		effect.ProcessBlock(timePosition, block)
	}

	outFile, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer outFile.Close()

	encoder := wav.NewEncoder(outFile, pcm.Format.SampleRate, bitDepth, channelCount, 1)
	out := interleave(buf, channelCount, fullScale, bitDepth, pcm.Format.SampleRate)
	if err := encoder.Write(out); err != nil {
		return err
	}
	return encoder.Close()
}

// deinterleave converts a go-audio interleaved int PCM buffer into the
// package's per-channel float MultiChannelBuffer, normalised to [-1,1].
func deinterleave(pcm *audio.IntBuffer, channelCount int, fullScale float64) audiofx.MultiChannelBuffer {
	frames := len(pcm.Data) / channelCount
	buf := audiofx.NewMultiChannelBuffer(channelCount, frames)
	for i, v := range pcm.Data {
		c := i % channelCount
		f := i / channelCount
		buf[c][f] = float64(v) / fullScale
	}
	return buf
}

// interleave converts buf back into a go-audio interleaved int PCM
// buffer, clamping to the valid range for bitDepth.
func interleave(buf audiofx.MultiChannelBuffer, channelCount int, fullScale float64, bitDepth, sampleRate int) *audio.IntBuffer {
	frames := buf.SampleCount()
	data := make([]int, frames*channelCount)
	max := int(fullScale) - 1
	min := -int(fullScale)
	for f := 0; f < frames; f++ {
		for c := 0; c < channelCount; c++ {
			v := int(buf[c][f] * fullScale)
			if v > max {
				v = max
			}
			if v < min {
				v = min
			}
			data[f*channelCount+c] = v
		}
	}
	return &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channelCount, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
}

// sliceChannels returns a view of buf covering samples [start, end) in
// every channel, without copying the backing arrays.
func sliceChannels(buf audiofx.MultiChannelBuffer, start, end int) audiofx.MultiChannelBuffer {
	out := make(audiofx.MultiChannelBuffer, buf.ChannelCount())
	for c := range buf {
		out[c] = buf[c][start:end]
	}
	return out
}
