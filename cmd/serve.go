package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tabloom/internal/analysis"
	"github.com/KaramelBytes/tabloom/internal/logging"
	"github.com/KaramelBytes/tabloom/internal/server"
)

var (
	srvAddr    string
	srvPlan    planFlags
	srvMaxRows int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis API over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		depth, err := srvPlan.analysisDepth()
		if err != nil {
			return err
		}
		p, err := srvPlan.newPlanner()
		if err != nil {
			return err
		}
		addr := srvAddr
		if addr == "" {
			addr = cfg.ServerAddr
		}
		if addr == "" {
			addr = ":8080"
		}

		srv := server.New(server.Options{
			Engine:         analysis.NewEngine(analysis.Options{Parallelism: cfg.Parallelism}),
			Planner:        p,
			PlannerTimeout: cfg.PlannerTimeout(),
			DefaultDepth:   depth,
			MaxRows:        srvMaxRows,
			CORSOrigins:    cfg.CORSOrigins,
			Log:            logging.New(cfg.LogLevel, os.Stderr, false),
		})
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return srv.ListenAndServe(ctx, addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&srvAddr, "addr", "", "listen address (default from config, :8080)")
	serveCmd.Flags().StringVar(&srvPlan.planFile, "plan", "", "YAML/JSON plan file used when a request carries no plan")
	serveCmd.Flags().StringVar(&srvPlan.depth, "depth", "", "default analysis depth: basic|detailed")
	serveCmd.Flags().BoolVar(&srvPlan.noLLM, "no-llm", false, "never call the LLM planner")
	serveCmd.Flags().IntVar(&srvMaxRows, "max-rows", 100000, "maximum records accepted per request (0 = unlimited)")
}
