package main

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Script is a scripted draft build: a draft, its extra tracks, and the
// segments to create, mutate and attach in order.
//
//	mode: deferred
//	draft: {name: demo, width: 1920, height: 1080, fps: 30}
//	tracks:
//	  - {type: video, name: overlay}
//	segments:
//	  - label: bgm
//	    type: audio
//	    config: {material_url: music/bgm.mp3, target_timerange: {start: 0, duration: 5s}}
//	    operations:
//	      - {type: add_fade, data: {in_duration: 1s}}
//	    track: audio_0
type Script struct {
	Mode     string        `yaml:"mode"`
	Draft    DraftStep     `yaml:"draft"`
	Tracks   []TrackStep   `yaml:"tracks"`
	Segments []SegmentStep `yaml:"segments"`
}

type DraftStep struct {
	Name   string `yaml:"name"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	FPS    int    `yaml:"fps"`
}

type TrackStep struct {
	Type string `yaml:"type"`
	Name string `yaml:"name"`
}

type SegmentStep struct {
	Label      string          `yaml:"label"`
	Type       string          `yaml:"type"`
	Config     map[string]any  `yaml:"config"`
	Operations []OperationStep `yaml:"operations"`
	Track      string          `yaml:"track"`
	TrackIndex *int            `yaml:"track_index"`
}

type OperationStep struct {
	Type string         `yaml:"type"`
	Data map[string]any `yaml:"data"`
}

func loadScriptFile(path string) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open script: %w", err)
	}
	defer f.Close()
	return loadScript(f)
}

func loadScript(r io.Reader) (*Script, error) {
	var sc Script
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("decode script: %w", err)
	}
	if sc.Draft.Name == "" {
		sc.Draft.Name = "draft"
	}
	if sc.Draft.Width == 0 {
		sc.Draft.Width = 1920
	}
	if sc.Draft.Height == 0 {
		sc.Draft.Height = 1080
	}
	if sc.Draft.FPS == 0 {
		sc.Draft.FPS = 30
	}
	for i := range sc.Segments {
		if sc.Segments[i].Label == "" {
			sc.Segments[i].Label = fmt.Sprintf("#%d", i+1)
		}
		if sc.Segments[i].Config == nil {
			sc.Segments[i].Config = map[string]any{}
		}
	}
	return &sc, nil
}
