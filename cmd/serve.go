package cmd

import (
	"os"
	ossignal "os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/abhisek/phasegate/internal/metrics"
	"github.com/abhisek/phasegate/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve lesson sessions over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		addr := e.cfg.Server.Addr
		if a, _ := cmd.Flags().GetString("addr"); a != "" {
			addr = a
		}
		if e.cfg.Log.Level != "debug" {
			gin.SetMode(gin.ReleaseMode)
		}

		deps := server.Deps{
			Catalog:    e.catalog,
			Rules:      e.rules,
			Grader:     e.grader(cmd.Context()),
			Recorder:   e.store.Recorder(),
			Progress:   e.store.ProgressRepo(),
			Summaries:  e.store.SummaryRepo(),
			Logger:     e.logger,
			SessionTTL: e.cfg.Server.SessionTTL,
		}
		if e.cfg.Server.Metrics {
			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			deps.Metrics = metrics.New(reg)
			deps.Gatherer = reg
		}

		srv, err := server.New(deps)
		if err != nil {
			return err
		}

		ctx, stop := ossignal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return srv.Run(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides PHASEGATE_ADDR and the config file)")
}
