package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"bizcard/internal/httpapi"
	"bizcard/internal/logging"
	"bizcard/internal/ocr"
	"bizcard/internal/preflight"
	"bizcard/internal/scan"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, ctx, strings.TrimSpace(bind))
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "Override api.bind (host:port)")
	return cmd
}

func runServe(cmd *cobra.Command, ctx *commandContext, bind string) error {
	signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if bind != "" {
		cfg.API.Bind = bind
	}

	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another bizcard server is running (lock %s)", cfg.LockPath())
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release server lock", logging.Error(err))
		}
	}()

	st, err := ctx.openStore(signalCtx)
	if err != nil {
		logger.Error("open card store", logging.Error(err))
		return err
	}

	if failed := preflight.Failed(preflight.RunAll(signalCtx, cfg, st)); len(failed) > 0 {
		names := make([]string, 0, len(failed))
		for _, r := range failed {
			logger.Error("preflight check failed", logging.String("check", r.Name), logging.String("detail", r.Detail))
			names = append(names, r.Name)
		}
		return fmt.Errorf("preflight failed: %s", strings.Join(names, ", "))
	}

	detector, err := ocr.New(signalCtx, cfg, logger)
	if err != nil {
		return err
	}
	defer ocr.Close(detector)

	rec, err := ctx.reconciler(signalCtx)
	if err != nil {
		return err
	}
	scanner := scan.New(detector, ctx.classifier(), rec, scan.Options{
		UploadDir:     cfg.Paths.UploadDir,
		MinConfidence: cfg.OCR.MinConfidence,
	}, logger)

	health := map[string]httpapi.HealthCheck{"store": st.Ping}
	if cached, ok := detector.(*ocr.CachedDetector); ok {
		if pinger, ok := cached.Cache().(interface{ Ping(context.Context) error }); ok {
			health["ocr_cache"] = pinger.Ping
		}
	}

	signer, err := ctx.shareSigner()
	if err != nil {
		return err
	}

	server, err := httpapi.New(cfg, httpapi.Deps{
		Cards:      rec,
		Scanner:    scanner,
		Classifier: ctx.classifier(),
		Health:     health,
		Share:      signer,
	}, logger)
	if err != nil {
		return err
	}
	if err := server.Start(signalCtx); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Listening on http://%s\n", server.Addr())

	<-signalCtx.Done()
	server.Stop()
	logger.Info("bizcard server shutting down")
	return nil
}
