package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/cwbudde/syncfinder/syncfinder"
)

type scoreReport struct {
	Index     int     `json:"index"`
	Quality   float64 `json:"quality"`
	BlockType string  `json:"block_type"`
}

type keyReport struct {
	Key    string        `json:"key"`
	Scores []scoreReport `json:"scores"`
}

type runReport struct {
	Input       string      `json:"input,omitempty"`
	OpusPackets string      `json:"opus_packets,omitempty"`
	Mode        string      `json:"mode"`
	Params      *paramsView `json:"params"`
	ElapsedSec  float64     `json:"elapsed_seconds"`
	Keys        []keyReport `json:"keys"`
}

// paramsView mirrors the subset of syncfinder.Params worth echoing back in
// a report, so a report is self-describing without re-reading the config
// file it was produced from.
type paramsView struct {
	FrameSize         int     `json:"frame_size"`
	MinBand           int     `json:"min_band"`
	MaxBand           int     `json:"max_band"`
	SyncBits          int     `json:"sync_bits"`
	SyncThreshold2    float64 `json:"sync_threshold2"`
	GetNBest          int     `json:"get_n_best"`
	WaterDelta        float64 `json:"water_delta"`
	LocalMeanDistance int     `json:"local_mean_distance"`
}

func buildReport(inputPath, opusPacketsPath string, mode syncfinder.Mode, params *syncfinder.Params, results []syncfinder.KeyResult, elapsed time.Duration) *runReport {
	keys := make([]keyReport, 0, len(results))
	for _, kr := range results {
		scores := make([]scoreReport, 0, len(kr.SyncScores))
		for _, s := range kr.SyncScores {
			scores = append(scores, scoreReport{
				Index:     s.Index,
				Quality:   s.Quality,
				BlockType: s.BlockType.String(),
			})
		}
		keys = append(keys, keyReport{Key: kr.Key.String(), Scores: scores})
	}

	return &runReport{
		Input:       inputPath,
		OpusPackets: opusPacketsPath,
		Mode:        mode.String(),
		Params: &paramsView{
			FrameSize:         params.FrameSize,
			MinBand:           params.MinBand,
			MaxBand:           params.MaxBand,
			SyncBits:          params.SyncBits,
			SyncThreshold2:    params.SyncThreshold2,
			GetNBest:          params.GetNBest,
			WaterDelta:        params.WaterDelta,
			LocalMeanDistance: params.LocalMeanDistance,
		},
		ElapsedSec: elapsed.Seconds(),
		Keys:       keys,
	}
}

func writeReport(path string, useGzip bool, report *runReport) error {
	b, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	if path == "" {
		if !useGzip {
			_, err := os.Stdout.Write(append(b, '\n'))
			return err
		}
		gw := gzip.NewWriter(os.Stdout)
		defer gw.Close()
		_, err := gw.Write(b)
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	defer w.Flush()

	if !useGzip {
		_, err := w.Write(b)
		return err
	}

	gw := gzip.NewWriter(w)
	defer gw.Close()
	_, err = gw.Write(b)
	return err
}
