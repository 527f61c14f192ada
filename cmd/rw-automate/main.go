// Command rw-automate runs one automation process from the command line. It
// is the same engine the dispatcher drives, packaged for manual runs and for
// scripts that track jobs by id.
//
//	rw-automate resetOrder <order_number> <distribution_center> [job_id]
//
// Exit status is 0 when the process completed and 1 for any failure,
// including bad arguments or an unknown process name.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/ncdist/rw-automator/config"
	"github.com/ncdist/rw-automator/internal/bootstrap"
	"github.com/ncdist/rw-automator/internal/core"
	"github.com/ncdist/rw-automator/internal/data"
	"github.com/ncdist/rw-automator/internal/service"
	"github.com/ncdist/rw-automator/internal/transcript"
)

const processResetOrder = "resetOrder"

func main() {
	os.Exit(run(os.Args[1:])) //nolint:forbidigo // CLI exit status is the contract with the dispatcher.
}

func run(args []string) int {
	if len(args) < 1 {
		printUsage()
		return 1
	}

	process := args[0]
	if process != processResetOrder {
		fmt.Fprintf(os.Stderr, "Error: unknown process %q\n\n", process)
		printUsage()
		return 1
	}

	if len(args) < 3 {
		fmt.Fprintln(os.Stderr, "Error: resetOrder requires order number and distribution center")
		printUsage()
		return 1
	}

	orderNumber := args[1]
	distributionCenter := args[2]
	jobID := ""
	if len(args) >= 4 {
		jobID = args[3]
	}

	logger := bootstrap.InitLogger()
	ok, err := resetOrder(logger, resetArgs{
		OrderNumber:        orderNumber,
		DistributionCenter: distributionCenter,
		JobID:              jobID,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if !ok {
		return 1
	}
	return 0
}

type resetArgs struct {
	OrderNumber        string
	DistributionCenter string
	JobID              string
}

// openJobStore connects the job store for runs that track a job id. The
// automation itself never depends on the database: when the connection
// fails the run proceeds without bookkeeping and the operator reads the
// outcome from the exit status instead of the job record.
func openJobStore(logger *slog.Logger, dbCfg config.DBConfig) (core.JobStore, func()) {
	db, err := bootstrap.ConnectDB(bootstrap.DatabaseConfig{
		DBConfig: dbCfg,
		Logger:   logger,
	})
	if err != nil {
		logger.Warn("database unavailable, continuing without job bookkeeping", "error", err)
		fmt.Fprintf(os.Stderr, "Warning: could not record job status: %v\n", err)
		return nil, func() {}
	}
	return data.NewJobRepo(db, data.RepoConfig{}), func() {
		if cerr := db.Close(); cerr != nil {
			logger.Error("close database failed", "error", cerr)
		}
	}
}

func resetOrder(logger *slog.Logger, args resetArgs) (bool, error) {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return false, err
	}
	if err = cfg.RealWorld.Validate(); err != nil {
		return false, err
	}

	opts := service.RunnerOptions{
		Engine:      bootstrap.BuildEngine(cfg.RealWorld, logger),
		Transcripts: transcript.NewStore(cfg.Transcript.Dir),
		Logger:      logger,
	}

	// Job bookkeeping only applies when a job id was handed in; ad-hoc runs
	// never touch the database.
	if args.JobID != "" {
		store, closeStore := openJobStore(logger, cfg.Postgres)
		defer closeStore()
		opts.Store = store
	}

	runner, err := service.NewRunnerService(opts)
	if err != nil {
		return false, err
	}

	fmt.Printf("Starting reset process for order: %s (DC: %s)\n", args.OrderNumber, args.DistributionCenter)

	outcome := runner.RunReset(context.Background(), service.ResetRequest{
		JobID:              args.JobID,
		OrderNumber:        args.OrderNumber,
		DistributionCenter: args.DistributionCenter,
	})

	if outcome.OK() {
		fmt.Printf("Order %s reset completed successfully\n", args.OrderNumber)
		return true, nil
	}
	fmt.Printf("Order %s reset failed: %s\n", args.OrderNumber, outcome.Message)
	return false, nil
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage: rw-automate <process> <args>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Available processes:")
	fmt.Fprintln(os.Stderr, "  resetOrder <order_number> <distribution_center> [job_id]")
}
