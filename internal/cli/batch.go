package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/sshcollectorpro/sysvers/internal/inventory"
	"github.com/sshcollectorpro/sysvers/internal/report"
	"github.com/sshcollectorpro/sysvers/pkg/logger"
)

func batchCmd(a *app) *cobra.Command {
	var source string
	var export bool

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Check every inventory device and record the results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			src, closeSrc, err := a.source(source)
			if err != nil {
				return err
			}
			devices, err := src.List(ctx)
			closeSrc()
			if err != nil {
				return err
			}
			if len(devices) == 0 {
				a.printf("No devices found.\n")
				return nil
			}

			engine, err := a.engine()
			if err != nil {
				return err
			}

			recorded := inventory.Recorded(devices)

			runID := uuid.NewString()
			logger.WithField("run_id", runID).Infof("Checking %d devices", len(devices))
			results := engine.CheckBatch(ctx, inventory.Targets(devices), a.cfg.ConnectionParams(""))

			store, closeStore, err := a.openStore()
			if err != nil {
				logger.Warnf("Results not recorded: %v", err)
			} else {
				if err := store.RecordResults(ctx, runID, results, recorded); err != nil {
					logger.Warnf("Results not recorded: %v", err)
				}
				closeStore()
			}

			doc := report.Build(runID, results, recorded, time.Now())
			a.printTable(doc)

			if export {
				data, err := doc.JSON()
				if err != nil {
					return err
				}
				loc, err := report.NewWriter(a.cfg.Report).Write(ctx, doc.ObjectName(), data)
				if err != nil {
					return fmt.Errorf("report export failed: %w", err)
				}
				a.printf("Report written to %s\n", loc)
			}

			if doc.Summary.Failed > 0 {
				return errFailed
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "inventory source: infrahub|sqlite (default from config)")
	cmd.Flags().BoolVar(&export, "export", false, "export the JSON report to the configured backend")
	return cmd
}

func (a *app) printTable(doc report.Document) {
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "HOST\tFAMILY\tRESULT\tVERSION")
	for _, h := range doc.Hosts {
		version := firstLine(h.Version)
		if version == "" {
			version = h.Detail
		}
		if h.Drift {
			version += " (recorded: " + firstLine(h.RecordedVersion) + ")"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", h.Host, h.Family, h.Class, version)
	}
	_ = tw.Flush()
	a.printf("Run %s: %d succeeded, %d failed, %d drifted\n",
		doc.RunID, doc.Summary.Succeeded, doc.Summary.Failed, doc.Summary.Drifted)
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i]) + " ..."
	}
	return s
}
