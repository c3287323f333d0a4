package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dukerupert/fleetcheck"
	"github.com/fatih/color"
	"github.com/google/uuid"
)

// runRegenerate regenerates the stored reports of the given inspections
// from the command line, printing one line per inspection:
//
//	fleetcheckd regenerate -as <profile-id> <inspection-id>...
func runRegenerate(ctx context.Context, stdout io.Writer, services *Services, args []string) error {
	fs := flag.NewFlagSet("regenerate", flag.ContinueOnError)
	fs.SetOutput(stdout)
	as := fs.String("as", "", "profile whose company appears on the reports")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ids, err := parseInspectionIDs(fs.Args())
	if err != nil {
		return err
	}
	if *as == "" {
		return fmt.Errorf("-as is required")
	}
	profileID, err := uuid.Parse(*as)
	if err != nil {
		return fmt.Errorf("invalid profile id %q", *as)
	}
	profile, err := services.DB.ProfileService.FindProfileByID(ctx, profileID)
	if err != nil {
		return fmt.Errorf("loading profile: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ok := color.New(color.FgGreen)
	bad := color.New(color.FgRed)
	skip := color.New(color.FgYellow)

	services.Reports.OnBatchItem = func(index, total int, item fleetcheck.BatchItemResult) {
		prefix := fmt.Sprintf("[%d/%d] %s ", index+1, total, item.InspectionID)
		switch {
		case item.Report != nil:
			ok.Fprintf(stdout, "%s✓ %s\n", prefix, item.Report.URL)
		case item.Skipped:
			skip.Fprintf(stdout, "%s- skipped (%s)\n", prefix, item.Error)
		default:
			bad.Fprintf(stdout, "%s✗ %s\n", prefix, item.Error)
		}
	}
	defer func() { services.Reports.OnBatchItem = nil }()

	result, err := services.Reports.RegenerateReports(ctx, ids, profile)
	if result != nil {
		fmt.Fprintf(stdout, "%d succeeded, %d failed, %d skipped\n", result.Succeeded, result.Failed, result.Skipped)
	}
	if err != nil {
		return fmt.Errorf("regenerating reports: %w", err)
	}
	if result.Failed > 0 {
		return fmt.Errorf("%d reports failed", result.Failed)
	}
	return nil
}

func parseInspectionIDs(args []string) ([]uuid.UUID, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("at least one inspection id is required")
	}
	ids := make([]uuid.UUID, 0, len(args))
	for _, a := range args {
		id, err := uuid.Parse(a)
		if err != nil {
			return nil, fmt.Errorf("invalid inspection id %q", a)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
