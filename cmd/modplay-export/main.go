// ABOUTME: CLI that renders a tracker module to a WAV or raw PCM file
// ABOUTME: Plays the song once without looping, bounded by a maximum duration
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Resonate-Protocol/modplay-go/internal/version"
	"github.com/Resonate-Protocol/modplay-go/pkg/audio/dsp"
)

var (
	outPath     = flag.String("o", "", "Output file (default: input name with .wav or .pcm)")
	raw         = flag.Bool("raw", false, "Write headerless little-endian PCM instead of WAV")
	sampleRate  = flag.Int("rate", 44100, "Output sample rate")
	bitDepth    = flag.Int("bits", 16, "Bits per sample (16 or 24)")
	separation  = flag.String("separation", "narrow", "Stereo separation: off, narrow or mono")
	filter      = flag.Bool("filter", false, "Enable the Amiga LED low-pass filter")
	amiga500    = flag.Bool("amiga500", false, "Use the Amiga 500 6 kHz fixed low-pass")
	maxDuration = flag.Duration("max-duration", 10*time.Minute, "Stop rendering after this long")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <module>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	mode, err := dsp.ParseSeparation(*separation)
	if err != nil {
		log.Fatalf("%v", err)
	}

	input := flag.Arg(0)
	output := *outPath
	if output == "" {
		output = defaultOutput(input, *raw)
	}

	log.Printf("%s-export %s: %s -> %s", version.Product, version.Version, input, output)

	res, err := Export(Options{
		Input:       input,
		Output:      output,
		Raw:         *raw,
		SampleRate:  *sampleRate,
		BitDepth:    *bitDepth,
		Separation:  mode,
		Filter:      *filter,
		Amiga500:    *amiga500,
		MaxDuration: *maxDuration,
	})
	if err != nil {
		log.Fatalf("Export failed: %v", err)
	}
	if !res.Completed {
		log.Printf("Stopped at max duration %s before the song ended", *maxDuration)
	}
}

func defaultOutput(input string, raw bool) string {
	ext := ".wav"
	if raw {
		ext = ".pcm"
	}
	return strings.TrimSuffix(input, filepath.Ext(input)) + ext
}
