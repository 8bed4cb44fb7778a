package main

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"draft-orchestrator/internal/orchestrator"

	"github.com/spf13/cobra"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var summaryOnly bool

	cmd := &cobra.Command{
		Use:   "run <script.yaml>",
		Short: "Build a draft from a script and print its summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := loadScriptFile(args[0])
			if err != nil {
				return err
			}
			svc, err := ctx.service(sc.Mode)
			if err != nil {
				return err
			}
			res, err := runScript(svc, sc, ctx.logger())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !summaryOnly {
				printRunReport(out, res)
			}
			fmt.Fprint(out, res.Summary)
			return nil
		},
	}
	cmd.Flags().BoolVar(&summaryOnly, "summary-only", false, "Print only the draft summary")
	return cmd
}

// segmentResult is one row of a run report.
type segmentResult struct {
	Label   string
	Type    string
	Track   string
	Applied int
	Failed  int
}

type runResult struct {
	DraftID  string
	Mode     orchestrator.Mode
	Segments []segmentResult
	Summary  string
}

// runScript executes sc against svc. A failing operation is logged and
// counted; a failing create or attach stops the run.
func runScript(svc *orchestrator.Service, sc *Script, log *slog.Logger) (*runResult, error) {
	draftID, err := svc.CreateDraft(sc.Draft.Name, sc.Draft.Width, sc.Draft.Height, sc.Draft.FPS)
	if err != nil {
		return nil, fmt.Errorf("create draft: %w", err)
	}
	for _, t := range sc.Tracks {
		if _, err := svc.AddTrack(draftID, t.Type, t.Name); err != nil {
			return nil, fmt.Errorf("add track %s: %w", t.Name, err)
		}
	}

	res := &runResult{DraftID: draftID, Mode: svc.Mode()}
	for _, step := range sc.Segments {
		row, err := runSegment(svc, draftID, step, log)
		if err != nil {
			return nil, fmt.Errorf("segment %s: %w", step.Label, err)
		}
		res.Segments = append(res.Segments, row)
	}

	if res.Summary, err = svc.Summary(draftID); err != nil {
		return nil, err
	}
	return res, nil
}

func runSegment(svc *orchestrator.Service, draftID string, step SegmentStep, log *slog.Logger) (segmentResult, error) {
	row := segmentResult{Label: step.Label, Type: step.Type}

	material, err := svc.ResolveResource(step.Type, step.Config)
	if err != nil {
		return row, err
	}
	segID, err := svc.CreateSegment(step.Type, step.Config, material)
	if err != nil {
		return row, err
	}

	for _, op := range step.Operations {
		rec, err := svc.ApplyOperation(segID, op.Type, op.Data)
		if err != nil {
			log.Warn("operation failed",
				slog.String("segment", step.Label),
				slog.String("operation", op.Type),
				slog.String("error", err.Error()))
			row.Failed++
			continue
		}
		if rec.Applied {
			row.Applied++
		}
	}

	attached, err := svc.AttachSegment(draftID, segID, orchestrator.TrackSelector{Name: step.Track, Index: step.TrackIndex})
	if err != nil {
		return row, err
	}
	row.Track = attached.Track
	row.Applied += len(attached.Replay.Applied)
	row.Failed += len(attached.Replay.Failures)
	return row, nil
}

func printRunReport(out io.Writer, res *runResult) {
	rows := make([][]string, 0, len(res.Segments))
	for _, s := range res.Segments {
		rows = append(rows, []string{
			s.Label,
			s.Type,
			s.Track,
			strconv.Itoa(s.Applied),
			strconv.Itoa(s.Failed),
		})
	}
	fmt.Fprintf(out, "Draft %s (%s mode)\n", res.DraftID, res.Mode)
	fmt.Fprintln(out, renderTable(
		[]string{"Segment", "Type", "Track", "Applied", "Failed"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight},
	))
}
