package commands

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/oxbowlabs/smb1d/internal/config"
	"github.com/oxbowlabs/smb1d/internal/logger"
	"github.com/oxbowlabs/smb1d/internal/metrics"
	"github.com/oxbowlabs/smb1d/internal/smb1/auth"
	"github.com/oxbowlabs/smb1d/internal/smb1/dispatch"
	"github.com/oxbowlabs/smb1d/internal/smb1/rpc"
	"github.com/oxbowlabs/smb1d/internal/smb1/spi"
	"github.com/oxbowlabs/smb1d/internal/smb1/types"
	smb1adapter "github.com/oxbowlabs/smb1d/pkg/adapter/smb1"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the smb1d server",
	RunE:  runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if err := wireUserStore(cfg); err != nil {
		return err
	}
	localShares, sharesFn, err := wireShares(cfg)
	if err != nil {
		return err
	}

	dispatch.AllowAnonymous = cfg.AllowAnonymous

	provider := spi.NewLocalProvider(localShares)

	adapterCfg := smb1adapter.Config{
		BindAddress:     cfg.Listen.Host,
		Port:            cfg.Listen.Port,
		MaxConnections:  cfg.MaxConnections,
		ReadTimeout:     cfg.Timeouts.Read,
		WriteTimeout:    cfg.Timeouts.Write,
		IdleTimeout:     cfg.Timeouts.Idle,
		ShutdownTimeout: cfg.Timeouts.Shutdown,
	}
	server := smb1adapter.New(adapterCfg, provider, sharesFn)

	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		server.SetMetrics(metrics.New(reg))

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		metricsSrv := &http.Server{Addr: cfg.Metrics.Listen, Handler: mux}
		go func() {
			logger.Info("metrics endpoint listening", "address", cfg.Metrics.Listen)
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server stopped", "error", err)
			}
		}()
		defer metricsSrv.Close()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return server.Serve(ctx)
}

// wireUserStore decodes every configured account's hex credential hashes
// into the dispatch layer's package-level user store, per spec §6/§7.
func wireUserStore(cfg *config.Config) error {
	store := make(auth.MapUserStore, len(cfg.Users))
	for name, u := range cfg.Users {
		rec := auth.UserRecord{}
		if u.LMHash != "" {
			lm, err := hex.DecodeString(u.LMHash)
			if err != nil {
				return fmt.Errorf("user %q: decode lm_hash: %w", name, err)
			}
			rec.LMHash = lm
		}
		if u.NTLMHash != "" {
			ntlm, err := hex.DecodeString(u.NTLMHash)
			if err != nil {
				return fmt.Errorf("user %q: decode ntlm_hash: %w", name, err)
			}
			rec.NTLMHash = ntlm
		}
		store[name] = rec
	}
	dispatch.UserStore = store
	return nil
}

// wireShares translates the configured share table into the dispatch
// layer's TREE_CONNECT_ANDX table, the local-disk provider's root map, and
// the srvsvc NetShareEnumAll closure, per spec §3/§6.
func wireShares(cfg *config.Config) ([]spi.LocalShare, func() []rpc.ShareInfo1, error) {
	dispatch.Shares = make(map[string]dispatch.ShareConfig, len(cfg.Shares))
	var localShares []spi.LocalShare

	for name, share := range cfg.Shares {
		lower := strings.ToLower(name)
		switch share.Backend {
		case "disk":
			dispatch.Shares[lower] = dispatch.ShareConfig{Name: name, Kind: types.ShareTypeDisk}
			localShares = append(localShares, spi.LocalShare{Name: name, Root: share.Root})
		case "ipc":
			dispatch.Shares[lower] = dispatch.ShareConfig{Name: name, Kind: types.ShareTypeIPC}
		default:
			return nil, nil, fmt.Errorf("share %q: unknown backend %q", name, share.Backend)
		}
	}

	sharesFn := func() []rpc.ShareInfo1 {
		out := make([]rpc.ShareInfo1, 0, len(cfg.Shares))
		for name, share := range cfg.Shares {
			out = append(out, rpc.ShareInfo1{
				Name:    name,
				Type:    rpc.ShareTypeFor(name),
				Comment: share.Comment,
			})
		}
		return out
	}

	return localShares, sharesFn, nil
}

