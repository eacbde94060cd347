package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Dev-ALPM/imixs-workflow/internal/itemcollection"
	"github.com/Dev-ALPM/imixs-workflow/internal/logging"
	"github.com/Dev-ALPM/imixs-workflow/internal/scheduler"
)

func init() {
	schedulerCmd.AddCommand(schedulerStartCmd, schedulerStopCmd, schedulerStatusCmd)
	rootCmd.AddCommand(schedulerCmd)
}

var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Start, stop, or inspect a scheduler configuration",
}

var schedulerStartCmd = &cobra.Command{
	Use:   "start <schedulerId>",
	Short: "Start the named scheduler configuration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withScheduler(cmd, args[0], func(sched *scheduler.Scheduler, config *itemcollection.ItemCollection) (*itemcollection.ItemCollection, error) {
			return sched.Start(config)
		})
	},
}

var schedulerStopCmd = &cobra.Command{
	Use:   "stop <schedulerId>",
	Short: "Stop the named scheduler configuration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withScheduler(cmd, args[0], func(sched *scheduler.Scheduler, config *itemcollection.ItemCollection) (*itemcollection.ItemCollection, error) {
			return sched.Stop(config)
		})
	},
}

var schedulerStatusCmd = &cobra.Command{
	Use:   "status <schedulerId>",
	Short: "Print whether the named scheduler configuration has a live timer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := logging.New("workflowctl", cfg.LogLevel, cfg.LogFormat)
		docs, err := buildStore(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		sched := scheduler.New(docs, logger)
		defer sched.Shutdown(cmd.Context())

		config, ok, err := docs.Load(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no scheduler configuration %s", args[0])
		}
		sched.UpdateTimerDetails(config)
		_, running := sched.FindTimer(args[0])
		fmt.Printf("id=%s name=%s enabled=%v running=%v next=%s\n",
			args[0],
			config.GetItemValueString(scheduler.ItemName),
			scheduler.Enabled(config),
			running,
			config.GetItemValueDate(scheduler.ItemNextTimeout),
		)
		return nil
	},
}

// withScheduler loads the named configuration, applies op, and persists the
// result, matching the admin HTTP surface's start/stop flow.
func withScheduler(cmd *cobra.Command, id string, op func(*scheduler.Scheduler, *itemcollection.ItemCollection) (*itemcollection.ItemCollection, error)) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := logging.New("workflowctl", cfg.LogLevel, cfg.LogFormat)
	docs, err := buildStore(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	sched := scheduler.New(docs, logger)
	defer sched.Shutdown(cmd.Context())

	config, ok, err := docs.Load(cmd.Context(), id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no scheduler configuration %s", id)
	}
	config, err = op(sched, config)
	if err != nil {
		return err
	}
	if _, err := docs.Save(cmd.Context(), config); err != nil {
		return err
	}
	fmt.Printf("ok: %s\n", id)
	return nil
}

