// Command groundtruth synthesizes per-frame ground-truth labels
// (semantic segmentation, surface normals, depth) for recorded driving
// simulator frames by ray casting against the track mesh.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/simlabels/groundtruth/internal/classes"
	"github.com/simlabels/groundtruth/internal/config"
	"github.com/simlabels/groundtruth/internal/fsutil"
	"github.com/simlabels/groundtruth/internal/generate"
	"github.com/simlabels/groundtruth/internal/imagesink"
	"github.com/simlabels/groundtruth/internal/intersect"
	"github.com/simlabels/groundtruth/internal/manifest"
	"github.com/simlabels/groundtruth/internal/mesh"
	"github.com/simlabels/groundtruth/internal/pipeline"
	"github.com/simlabels/groundtruth/internal/raycast"
	"github.com/simlabels/groundtruth/internal/record"
	"github.com/simlabels/groundtruth/internal/report"
	"github.com/simlabels/groundtruth/internal/version"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: groundtruth <config.json>")
		os.Exit(1)
	}
	if os.Args[1] == "--version" {
		fmt.Printf("groundtruth v%s (git SHA: %s)\n", version.Version, version.GitSHA)
		return
	}
	log.Printf("groundtruth v%s (git SHA: %s)", version.Version, version.GitSHA)
	if err := run(os.Args[1]); err != nil {
		log.Printf("groundtruth: %v", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getwd: %w", err)
	}
	cfg, err := config.Load(configPath, []string{cwd, filepath.Dir(configPath)})
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := os.MkdirAll(cfg.OutputPath, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	runID := uuid.New().String()
	log.Printf("groundtruth: starting run %s", runID)

	fs := fsutil.OSFileSystem{}
	preparedMeshPath := filepath.Join(cfg.OutputPath, "track.physics.obj")
	if err := mesh.Prepare(fs, cfg.TrackMeshPath, preparedMeshPath, cfg.TrackProfile); err != nil {
		return fmt.Errorf("prepare mesh: %w", err)
	}

	scene, err := (mesh.OBJLoader{}).Load(preparedMeshPath)
	if err != nil {
		return fmt.Errorf("load mesh: %w", err)
	}
	scene = scene.DeleteGeometries(cfg.TrackProfile.GeometriesToRemove)
	accel := mesh.NewAccelerator(scene)

	manifestDB, err := manifest.Open(filepath.Join(cfg.OutputPath, "manifest.db"))
	if err != nil {
		return fmt.Errorf("open manifest: %w", err)
	}
	defer manifestDB.Close()
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := manifestDB.StartRun(runID, string(cfgJSON), version.Version); err != nil {
		return fmt.Errorf("start run record: %w", err)
	}

	frames, err := (record.DirFrameSource{Dir: cfg.RecordedDataPath}).Frames()
	if err != nil {
		manifestDB.FinishRun(runID, err)
		return fmt.Errorf("enumerate frames: %w", err)
	}
	frames = record.Slice(frames, cfg.StartAtSample, cfg.FinishAtSample, cfg.SampleEvery)

	tbl := classes.Default()
	depthEnabled := len(cfg.Generate["depth"]) > 0
	mode := raycast.FirstHit
	if depthEnabled {
		mode = raycast.AllHits
	}

	segGen := &generate.SegmentationGenerator{
		Classes:      tbl,
		TrackProfile: cfg.TrackProfile,
		Enabled:      outputKindSet(cfg.Generate["segmentation"]),
	}
	normGen := &generate.NormalsGenerator{Enabled: outputKindSet(cfg.Generate["normals"])}
	depthGen := &generate.DepthGenerator{Enabled: outputKindSet(cfg.Generate["depth"])}

	ctx := &generate.GenerationContext{Width: cfg.Width, Height: cfg.Height, Scene: scene}
	for _, g := range []generate.Generator{segGen, normGen, depthGen} {
		if err := g.Setup(ctx); err != nil {
			manifestDB.FinishRun(runID, err)
			return fmt.Errorf("generator setup: %w", err)
		}
	}

	sink := imagesink.FileSink{}

	rayCastFn := func(f record.Frame) (*intersect.Record, error) {
		data, err := os.ReadFile(f.StatePath)
		if err != nil {
			return nil, fmt.Errorf("record %s: read state: %w", f.RecordID, err)
		}
		state, err := record.DecodeState(data)
		if err != nil {
			return nil, fmt.Errorf("record %s: decode state: %w", f.RecordID, err)
		}
		rec := raycast.CastRecord(f.RecordID, state, cfg.CarProfile, cfg.Width, cfg.Height, cfg.VerticalFOV, accel, mode)
		_ = manifestDB.RecordRayCastDone(runID, f.RecordID)
		return rec, nil
	}

	frameByRecordID := make(map[string]string, len(frames))
	for _, f := range frames {
		frameByRecordID[f.RecordID] = f.ImagePath
	}

	generateFn := func(rec *intersect.Record) error {
		imgPath := frameByRecordID[rec.RecordID]
		sourceFrame, err := decodeJPEG(imgPath)
		if err != nil {
			_ = manifestDB.RecordError(runID, rec.RecordID, err)
			return fmt.Errorf("record %s: decode source frame: %w", rec.RecordID, err)
		}

		outputPrefix := filepath.Join(cfg.OutputPath, rec.RecordID)
		if err := sink.CopyFile(imgPath, outputPrefix+".jpeg"); err != nil {
			_ = manifestDB.RecordError(runID, rec.RecordID, err)
			return fmt.Errorf("record %s: copy source frame: %w", rec.RecordID, err)
		}

		for _, g := range []generate.Generator{segGen, normGen, depthGen} {
			if err := g.Generate(rec, sourceFrame, sink, outputPrefix); err != nil {
				_ = manifestDB.RecordError(runID, rec.RecordID, err)
				return fmt.Errorf("record %s: %w", rec.RecordID, err)
			}
		}
		return manifestDB.RecordGenerateDone(runID, rec.RecordID)
	}

	sup := pipeline.New(pipeline.Config{
		Frames:             frames,
		NRayCastWorkers:    cfg.NRayCastingWorkers,
		NGenerationWorkers: cfg.NGenerationWorkers,
		RayCast:            rayCastFn,
		Generate:           generateFn,
		WatchdogTimeout:    2 * time.Minute,
		Heartbeat: func(kind string, idx int) {
			_ = manifestDB.Heartbeat(runID, kind, idx)
		},
	})

	runErr := sup.Run(context.Background())
	if err := manifestDB.FinishRun(runID, runErr); err != nil {
		log.Printf("groundtruth: failed to finalize run record: %v", err)
	}
	if runErr != nil {
		return fmt.Errorf("pipeline run: %w", runErr)
	}

	summary := report.Summary{
		RunID:          runID,
		RunVersion:     version.Version,
		NRecords:       int(sup.NComplete()),
		CountByTrainID: segGen.Summary().CountByTrainID,
	}
	label := func(id uint8) string {
		for _, c := range tbl.Classes() {
			if c.TrainID >= 0 && uint8(c.TrainID) == id {
				return c.Name
			}
		}
		if id == classes.VoidRawID {
			return "void"
		}
		return ""
	}
	if err := report.WriteSummary(cfg.OutputPath, summary, label); err != nil {
		log.Printf("groundtruth: report generation failed: %v", err)
	}

	log.Printf("groundtruth: run %s complete, %d records", runID, sup.NComplete())
	return nil
}

func outputKindSet(kinds map[string]bool) map[generate.OutputKind]bool {
	set := make(map[generate.OutputKind]bool, len(kinds))
	if kinds["visuals"] {
		set[generate.Visuals] = true
	}
	if kinds["data"] {
		set[generate.Data] = true
	}
	if kinds["overlays"] {
		set[generate.Overlays] = true
	}
	return set
}

func decodeJPEG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return jpeg.Decode(f)
}
