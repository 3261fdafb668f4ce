package signal

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
)

// WatchInterrupt returns a context cancelled on SIGINT or SIGTERM. Running
// encodes are asked to stop through that context; if the process is still
// alive after forceShutdownDelay, or a second signal arrives, it exits.
func WatchInterrupt(ctx context.Context, forceShutdownDelay time.Duration) context.Context {
	return watch(ctx, forceShutdownDelay, func() { os.Exit(1) }, syscall.SIGINT, syscall.SIGTERM)
}

func watch(ctx context.Context, forceShutdownDelay time.Duration, exit func(), sigs ...os.Signal) context.Context {
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, sigs...)
	ctx, cancel := context.WithCancel(ctx)

	go func() {
		sig := <-ch
		log.Warnf("%s received, shutting down gracefully (forced in %s)", sig, forceShutdownDelay)
		cancel()

		timer := time.NewTimer(forceShutdownDelay)
		defer timer.Stop()

		select {
		case <-timer.C:
			log.Warnf("still running after %s, exit immediately", forceShutdownDelay)
		case sig = <-ch:
			log.Warnf("%s received again, exit immediately", sig)
		}

		exit()
	}()

	return ctx
}
