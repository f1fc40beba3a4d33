package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/fourinarow-backend/internal/config"
	"github.com/rocketscienceinc/fourinarow-backend/internal/repository"
	"github.com/rocketscienceinc/fourinarow-backend/internal/repository/storage"
	"github.com/rocketscienceinc/fourinarow-backend/internal/transport"
	"github.com/rocketscienceinc/fourinarow-backend/internal/transport/datagram"
	"github.com/rocketscienceinc/fourinarow-backend/internal/transport/redis"
	"github.com/rocketscienceinc/fourinarow-backend/internal/transport/stream"
	"github.com/rocketscienceinc/fourinarow-backend/internal/usecase"
	"github.com/rocketscienceinc/fourinarow-backend/transport/rest"
	"github.com/rocketscienceinc/fourinarow-backend/transport/websocket"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

type gameTransport interface {
	Send(peer, message string) error
	ReceiveFrom(ctx context.Context, peer string) (string, error)
	ReceiveAny(ctx context.Context) (string, string, error)
	Release(peer string)
	io.Closer
}

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	rules, err := conf.Rules()
	if err != nil {
		return fmt.Errorf("invalid board configuration: %w", err)
	}

	matchRepo, publishers, closeStorage, err := initStorage(ctx, conf)
	if err != nil {
		return err
	}
	defer closeStorage(log)

	hub := websocket.NewHub(logger)
	if conf.SpectatorPort != "" {
		publishers = append(publishers, hub)
	}

	gameServer, err := listen(logger, conf)
	if err != nil {
		return err
	}

	defer func() {
		if err = gameServer.Close(); err != nil {
			log.Error("could not close game transport", "error", err)
		}
	}()

	recorder := usecase.NewRecorder(logger, matchRepo, publishers...)
	runner := usecase.NewMatchRunner(logger, gameServer, recorder)
	lobby := usecase.NewLobby(logger, gameServer, rules, runner, recorder, conf.RoundPause)

	// run lobby
	lobbyErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting lobby", "transport", conf.Transport, "port", conf.Port, "rows", rules.Rows, "cols", rules.Cols)
		lobbyErrCh <- lobby.Run(ctx)
	}()

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := rest.Start(ctx, conf.HTTPPort, rest.NewRouter(logger, matchRepo)); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run spectator server
	wsErrCh := make(chan error, 1)
	if conf.SpectatorPort != "" {
		go func() {
			log.Info("Starting WebSocket server", "port", conf.SpectatorPort)
			if wsErr := hub.Start(ctx, conf.SpectatorPort); wsErr != nil {
				log.Error("WebSocket server error", "error", wsErr)
				wsErrCh <- wsErr
			}
		}()
	}

	select {
	case err = <-lobbyErrCh:
		if err != nil {
			return fmt.Errorf("lobby error: %w", err)
		}
		return nil
	case err = <-httpErrCh:
		err = fmt.Errorf("HTTP server error: %w", err)
	case err = <-wsErrCh:
		err = fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
	}

	// let the lobby tell participants the match is over before the transport closes
	cancel()
	<-lobbyErrCh

	return err
}

func initStorage(ctx context.Context, conf *config.Config) (repository.MatchRepository, []usecase.EventPublisher, func(*slog.Logger), error) {
	if !conf.Redis.Enabled {
		return repository.NewMemoryMatchRepository(), nil, func(*slog.Logger) {}, nil
	}

	if conf.Redis.Host == "" {
		return nil, nil, nil, ErrAddrNotFound
	}

	client, err := storage.NewRedis(ctx, conf.Redis.GetRedisAddr())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
	}

	closeStorage := func(log *slog.Logger) {
		if err := client.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}

	publishers := []usecase.EventPublisher{redis.NewPublisher(client, conf.Redis.Channel)}

	return repository.NewMatchRepository(client), publishers, closeStorage, nil
}

func listen(logger *slog.Logger, conf *config.Config) (gameTransport, error) {
	network, err := conf.Network()
	if err != nil {
		return nil, err
	}

	options := transport.Options{ReceiveTimeout: conf.ReceiveTimeout}

	switch network {
	case transport.NetworkTCP:
		server, err := stream.Listen(logger, conf.ListenAddr(), options)
		if err != nil {
			return nil, fmt.Errorf("could not listen on tcp: %w", err)
		}
		return server, nil
	default:
		server, err := datagram.Listen(logger, conf.ListenAddr(), options)
		if err != nil {
			return nil, fmt.Errorf("could not listen on udp: %w", err)
		}
		return server, nil
	}
}
