package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/zicheng-pan/joynr/internal/config"
	"github.com/zicheng-pan/joynr/internal/httpapi"
	"github.com/zicheng-pan/joynr/internal/messagequeue"
	"github.com/zicheng-pan/joynr/internal/messagerouter"
	"github.com/zicheng-pan/joynr/internal/messaging/channel"
	"github.com/zicheng-pan/joynr/internal/messaging/inprocess"
	"github.com/zicheng-pan/joynr/internal/messaging/websocket"
	"github.com/zicheng-pan/joynr/internal/multicast"
	"github.com/zicheng-pan/joynr/internal/provisioning"
)

// runtime wires the router, its transports and the HTTP API of one cluster controller
type runtime struct {
	cfg    *config.Config
	logger *slog.Logger

	router     *messagerouter.Router
	dispatcher *inprocess.Dispatcher
	hub        *websocket.WindowHub
	registry   *multicast.Registry
	channel    *channel.Server
	api        *httpapi.Server

	httpLis    net.Listener
	channelLis net.Listener

	cancel context.CancelFunc
	wg     sync.WaitGroup
	errs   chan error
}

func newRuntime(cfg *config.Config, logger *slog.Logger) (*runtime, error) {
	rt := &runtime{
		cfg:        cfg,
		logger:     logger,
		dispatcher: inprocess.NewDispatcher(),
		hub:        websocket.NewWindowHub(nil, logger),
		errs:       make(chan error, 2),
	}

	router, err := messagerouter.New(&messagerouter.Config{
		PruneInterval: cfg.PruneInterval,
		Queue:         messagequeue.Config{MaxPerParticipant: cfg.QueueLimit},
		Logger:        logger,
	},
		rt.hub.StubFactory(),
		channel.NewStubFactory(cfg.TransmitTimeout),
		rt.dispatcher,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create message router: %w", err)
	}
	rt.router = router
	rt.hub.SetReceiver(router)
	rt.registry = multicast.NewRegistry(router, logger)

	rt.channel, err = channel.NewServer(&channel.Config{
		ChannelID:       cfg.RuntimeID,
		ListenAddress:   cfg.ChannelListen,
		TransmitTimeout: cfg.TransmitTimeout,
	}, router, logger)
	if err != nil {
		router.Close()
		return nil, fmt.Errorf("failed to create channel server: %w", err)
	}

	rt.api, err = httpapi.NewServer(httpapi.Config{
		Addr:        cfg.HTTPListen,
		SecretKey:   cfg.JWTSecret,
		RuntimeID:   cfg.RuntimeID,
		NoAuth:      cfg.NoAuth,
		CORSOrigins: cfg.CORSOrigins,
		RateLimit:   cfg.RateLimit,
		RateBurst:   cfg.RateBurst,
		Logger:      logger,
	}, router, rt.registry, rt.hub)
	if err != nil {
		router.Close()
		return nil, fmt.Errorf("failed to create HTTP API: %w", err)
	}

	return rt, nil
}

// start provisions static routes, binds both listeners and serves in the background.
// Serve failures are reported on serveErrors().
func (rt *runtime) start(ctx context.Context) error {
	if rt.cfg.ProvisioningFile != "" {
		file, err := provisioning.Load(rt.cfg.ProvisioningFile)
		if err != nil {
			return err
		}
		n, err := file.Apply(ctx, rt.router)
		if err != nil {
			return err
		}
		rt.logger.Info("📦 Provisioned routes", slog.Int("count", n), slog.String("file", rt.cfg.ProvisioningFile))
	}

	var err error
	rt.channelLis, err = net.Listen("tcp", rt.cfg.ChannelListen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", rt.cfg.ChannelListen, err)
	}
	rt.httpLis, err = net.Listen("tcp", rt.cfg.HTTPListen)
	if err != nil {
		rt.channelLis.Close()
		return fmt.Errorf("failed to listen on %s: %w", rt.cfg.HTTPListen, err)
	}

	ctx, rt.cancel = context.WithCancel(ctx)
	rt.router.Start(ctx)

	rt.wg.Add(3)
	go func() {
		defer rt.wg.Done()
		rt.registry.Run(ctx, rt.router.PruneInterval())
	}()
	go func() {
		defer rt.wg.Done()
		if err := rt.channel.Serve(rt.channelLis); err != nil {
			rt.errs <- fmt.Errorf("channel server: %w", err)
		}
	}()
	go func() {
		defer rt.wg.Done()
		if err := rt.api.Serve(rt.httpLis); err != nil {
			rt.errs <- fmt.Errorf("HTTP API: %w", err)
		}
	}()

	return nil
}

func (rt *runtime) serveErrors() <-chan error {
	return rt.errs
}

// shutdown stops accepting work, then closes the transports and the router
func (rt *runtime) shutdown(ctx context.Context) error {
	var errs []error
	if rt.cancel != nil {
		rt.cancel()
	}
	if err := rt.api.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to stop HTTP API: %w", err))
	}
	if err := rt.channel.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to stop channel server: %w", err))
	}
	if err := rt.hub.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close window hub: %w", err))
	}
	rt.wg.Wait()
	if err := rt.router.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close router: %w", err))
	}
	return errors.Join(errs...)
}
