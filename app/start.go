package app

import (
	"context"
	"errors"
	"os/signal"
	"sync"
	"syscall"

	"github.com/farraranalytics/MBB-Survivor-sub001/app/modules/engine"
)

// Serve runs the engine module until SIGINT or SIGTERM.
func (a *App) Serve(ctx context.Context) error {
	if a.Bus == nil {
		return errors.New("serve requires nats.url")
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	module, err := engine.NewModule(ctx, a.Config, a.Obs, a.DB, a.Engine, a.Bus)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go module.Run(ctx, &wg)

	<-ctx.Done()
	a.Obs.Logger.Info("Shutdown signal received")
	err = module.Close()
	wg.Wait()
	return err
}
