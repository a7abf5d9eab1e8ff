package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/henrybloomingdale/biofan/internal/research"
)

var (
	scheduleFlagCron   string
	scheduleFlagUpload bool
)

func init() {
	scheduleCmd.Flags().StringVar(&scheduleFlagCron, "cron", "", "Cron expression (default BIOFAN_CRON_SCHEDULE)")
	scheduleCmd.Flags().BoolVar(&scheduleFlagUpload, "upload", false, "Upload each run's artifacts to S3")
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule <spec.json> [spec.json...]",
	Short: "Re-run research specs on a cron schedule",
	Long: `Load one or more research spec files and run each of them on every tick
of the cron schedule. Runs are saved to PostgreSQL when BIOFAN_POSTGRES_DSN
is set. Failed runs are logged and retried on the next tick.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSchedule,
}

func loadSpecs(paths []string) ([]research.Spec, error) {
	specs := make([]research.Spec, 0, len(paths))
	for _, p := range paths {
		data, err := readInput(p)
		if err != nil {
			return nil, err
		}
		spec, err := research.ParseSpec(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func runSchedule(cmd *cobra.Command, args []string) error {
	specs, err := loadSpecs(args)
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := a.store()
	if err != nil {
		return err
	}
	p := a.pipeline(ctx)

	job := func() {
		for _, spec := range specs {
			res, err := p.Run(ctx, spec)
			if err != nil {
				a.logger.Error("scheduled run failed", zap.String("question", spec.Question), zap.Error(err))
				continue
			}
			a.metrics.ObserveRun("research", len(res.Calls), res.Failures)
			if st != nil {
				if err := st.SaveRun(ctx, res); err != nil {
					a.logger.Error("saving scheduled run failed", zap.String("run_id", res.RunID), zap.Error(err))
				}
			}
			if scheduleFlagUpload {
				if err := persistRun(ctx, a, res, false, true); err != nil {
					a.logger.Error("uploading scheduled run failed", zap.String("run_id", res.RunID), zap.Error(err))
				}
			}
			a.logger.Info("scheduled run complete",
				zap.String("run_id", res.RunID),
				zap.Int("failures", res.Failures),
				zap.Strings("notes", res.Report.Notes))
		}
	}

	schedule := scheduleFlagCron
	if schedule == "" {
		schedule = a.cfg.CronSchedule
	}
	c := cron.New()
	if _, err := c.AddFunc(schedule, job); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}
	c.Start()
	a.logger.Info("scheduler started", zap.String("schedule", schedule), zap.Int("specs", len(specs)))

	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
