// Command syncfind runs batch watermark sync detection against a WAV file
// (or a captured Opus packet stream) for one or more candidate keys and
// writes a JSON report of the candidate blocks found.
package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/cwbudde/syncfinder/internal/audioio"
	"github.com/cwbudde/syncfinder/internal/config"
	"github.com/cwbudde/syncfinder/internal/telemetry"
	"github.com/cwbudde/syncfinder/syncfinder"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	inputPath := flag.String("input", "", "Input WAV path")
	opusPacketsPath := flag.String("opus-packets", "", "Path to a length-prefixed raw Opus packet capture (alternative to --input)")
	opusSampleRate := flag.Int("opus-sample-rate", 48000, "Sample rate to decode --opus-packets at")
	opusChannels := flag.Int("opus-channels", 1, "Channel count to decode --opus-packets at")
	configPath := flag.String("config", "", "Optional JSON or YAML Params overlay file")
	keysFlag := flag.String("keys", "", "Comma-separated hex-encoded candidate keys (required)")
	modeFlag := flag.String("mode", "clip", "Search mode: clip or block")
	outputPath := flag.String("output", "", "Report JSON output path (default: stdout)")
	gzipOutput := flag.Bool("gzip", false, "Gzip-compress the report output")
	workers := flag.Int("workers", 0, "Worker pool size (0 = GOMAXPROCS)")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	flag.Parse()

	logger := log.New(os.Stderr)
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	}

	if *inputPath == "" && *opusPacketsPath == "" {
		die("one of --input or --opus-packets is required")
	}
	if *keysFlag == "" {
		die("--keys is required")
	}

	keys, err := parseKeys(*keysFlag)
	if err != nil {
		die("invalid --keys: %v", err)
	}

	mode, err := parseMode(*modeFlag)
	if err != nil {
		die("invalid --mode: %v", err)
	}

	params := syncfinder.NewDefaultParams()
	if *configPath != "" {
		params, err = loadParams(*configPath)
		if err != nil {
			die("loading --config: %v", err)
		}
	}

	wav, err := loadWav(*inputPath, *opusPacketsPath, *opusSampleRate, *opusChannels)
	if err != nil {
		die("loading input: %v", err)
	}

	reg := prometheus.NewRegistry()
	metrics := telemetry.New(reg)

	finder := syncfinder.NewFinder(params, audioio.NewDefaultFFTAnalyzer(), logger, metrics)
	finder.Workers = *workers

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	start := time.Now()
	results, err := finder.Search(ctx, keys, wav, mode)
	if err != nil {
		die("search failed: %v", err)
	}

	if err := writeReport(*outputPath, *gzipOutput, buildReport(*inputPath, *opusPacketsPath, mode, params, results, time.Since(start))); err != nil {
		die("writing report: %v", err)
	}
}

func parseKeys(s string) ([]syncfinder.Key, error) {
	parts := strings.Split(s, ",")
	keys := make([]syncfinder.Key, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		b, err := hex.DecodeString(p)
		if err != nil {
			return nil, err
		}
		keys = append(keys, syncfinder.NewKey(b))
	}
	return keys, nil
}

func parseMode(s string) (syncfinder.Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "clip":
		return syncfinder.ModeClip, nil
	case "block":
		return syncfinder.ModeBlock, nil
	default:
		return 0, errUnknownMode(s)
	}
}

type errUnknownMode string

func (e errUnknownMode) Error() string {
	return "unknown mode " + string(e)
}

func loadParams(path string) (*syncfinder.Params, error) {
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		return config.LoadYAML(path)
	}
	return config.LoadJSON(path)
}

func loadWav(inputPath, opusPacketsPath string, sampleRate, channels int) (*audioio.Buffer, error) {
	if opusPacketsPath != "" {
		packets, err := readPacketCapture(opusPacketsPath)
		if err != nil {
			return nil, err
		}
		return audioio.DecodeOpusPackets(packets, sampleRate, channels)
	}

	buf, _, err := audioio.LoadWAV(inputPath)
	return buf, err
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
