// Command appmanagerd is a minimal host process demonstrating the
// application manager: it provisions an empty in-memory flash device,
// registers the builtin apps, and runs the manager until interrupted.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/inos-labs/appmanager/appmanager"
	"github.com/inos-labs/appmanager/internal/apphost"
	"github.com/inos-labs/appmanager/internal/flashmedia"
	"github.com/inos-labs/appmanager/internal/lifecycle"
	"github.com/inos-labs/appmanager/internal/obslog"
)

func systemMain(ctx context.Context, appCtx *appmanager.AppContext) {
	appCtx.Router.RunEventLoop(ctx, appCtx)
}

func simpleMain(ctx context.Context, appCtx *appmanager.AppContext) {
	appCtx.Router.RunEventLoop(ctx, appCtx)
}

func nivzMain(ctx context.Context, appCtx *appmanager.AppContext) {
	appCtx.Router.RunEventLoop(ctx, appCtx)
}

func main() {
	fmt.Println("appmanagerd starting...")

	log := obslog.Default("appmanagerd")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	device := flashmedia.NewMemoryDevice(appmanager.MaxSlots)
	backend := apphost.NewWasmHost(log.With("apphost"))
	ui := appmanager.NewNullUI(log.With("ui"))
	mgr := appmanager.NewManager(device, backend, ui, log)

	builtins := []appmanager.BuiltinApp{
		{Name: "System", Type: appmanager.AppTypeSystem, Entry: systemMain},
		{Name: "Simple", Type: appmanager.AppTypeWatchFace, Entry: simpleMain},
		{Name: "NiVZ", Type: appmanager.AppTypeWatchFace, Entry: nivzMain},
	}

	if err := mgr.Init(ctx, builtins); err != nil {
		log.Error("init failed", obslog.Err(err))
		os.Exit(1)
	}

	shutdown := lifecycle.NewGracefulShutdown(5*time.Second, log.With("shutdown"))
	shutdown.Register(func() error {
		if err := mgr.Control.Quit(); err != nil {
			return err
		}
		return nil
	})

	<-ctx.Done()
	log.Info("signal received, shutting down")
	if err := shutdown.Shutdown(context.Background()); err != nil {
		log.Error("shutdown error", obslog.Err(err))
		os.Exit(1)
	}
}
