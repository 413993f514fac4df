package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nextlevelbuilder/tetherlink/internal/api"
	"github.com/nextlevelbuilder/tetherlink/internal/auth"
	"github.com/nextlevelbuilder/tetherlink/internal/config"
	"github.com/nextlevelbuilder/tetherlink/internal/netmon"
	"github.com/nextlevelbuilder/tetherlink/internal/socket"
	"github.com/nextlevelbuilder/tetherlink/internal/store/file"
	"github.com/nextlevelbuilder/tetherlink/internal/tether"
)

// app bundles the wired-up components every subcommand needs.
type app struct {
	cfg      *config.Config
	kv       *file.KVStore
	tokens   *auth.TokenStore
	identity *tether.Identity
	gateway  *tether.API
	manager  *socket.Manager
	prober   *netmon.Prober
}

// buildApp loads config and wires storage, auth, network monitoring, the
// request client, and the channel manager. Exits on config errors.
func buildApp() *app {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %s\n", err)
		os.Exit(1)
	}

	kv := file.NewKVStore(filepath.Join(cfg.Device.DataDir, "device.json"))
	tokens := auth.NewTokenStore(kv)

	var network netmon.Monitor = netmon.Static(true)
	var prober *netmon.Prober
	if cfg.Network.ProbeAddr != "" && cfg.Network.ProbeIntervalMs > 0 {
		prober = netmon.NewProber(cfg.Network.ProbeAddr, time.Duration(cfg.Network.ProbeIntervalMs)*time.Millisecond)
		prober.Start()
		network = prober
	}

	client := api.NewClient(cfg.API.BaseURL, tokens, network, api.RetryPolicy{
		Enabled:    cfg.Retry.Enabled,
		MaxRetries: cfg.Retry.MaxRetries,
		BaseDelay:  time.Duration(cfg.Retry.BaseDelayMs) * time.Millisecond,
	})

	manager := socket.NewManager(cfg.Socket.URL, tokens, socket.Config{
		ReconnectDelay:    time.Duration(cfg.Socket.ReconnectDelayMs) * time.Millisecond,
		ReconnectAttempts: cfg.Socket.ReconnectAttempts,
		HandshakeTimeout:  time.Duration(cfg.Socket.HandshakeTimeoutMs) * time.Millisecond,
	})

	return &app{
		cfg:      cfg,
		kv:       kv,
		tokens:   tokens,
		identity: tether.NewIdentity(kv, detectScreen()),
		gateway:  tether.NewAPI(client),
		manager:  manager,
		prober:   prober,
	}
}

func (a *app) close() {
	a.manager.Disconnect()
	if a.prober != nil {
		a.prober.Stop()
	}
}

// detectScreen describes the local display. The CLI always runs on a
// desktop-class machine; phone role comes from an explicit override
// (device set-role phone).
func detectScreen() tether.ScreenInfo {
	return tether.ScreenInfo{Width: 1920, Height: 1080, Mobile: false}
}

// deviceName resolves the configured display name, falling back to the
// role default.
func (a *app) deviceName() string {
	if a.cfg.Device.Name != "" {
		return a.cfg.Device.Name
	}
	return tether.DefaultDeviceName(a.identity.DeviceType())
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
