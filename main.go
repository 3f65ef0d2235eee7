// Command gridpath serves step-by-step A* searches over grid mazes.
//
// It supports two modes:
//  1. "server" (default) – runs the HTTP server exposing REST API, WebSocket, metrics and an /mcp HTTP endpoint
//  2. "stdio-mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Flags control host/port, config and session directories, logging, autoplay
// pace, and optional ngrok tunneling for easy external access during development.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/gridpath/api"
	"github.com/wricardo/gridpath/pathfind/config"
	"github.com/wricardo/gridpath/pathfind/driver"
	"github.com/wricardo/gridpath/pathfind/service"
	"github.com/wricardo/gridpath/pathfind/session"
	"github.com/wricardo/gridpath/transport/mcp"
	"github.com/wricardo/gridpath/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "gridpath"
)

// options is the resolved process configuration
type options struct {
	Host         string
	Port         int
	ConfigDir    string
	SessionsDir  string
	Debug        bool
	LogFormat    string
	PlayInterval time.Duration
	NgrokEnabled bool
	NgrokAuth    string
	NgrokDomain  string
}

func (o options) addr() string {
	return fmt.Sprintf("%s:%d", o.Host, o.Port)
}

// flags are shared by every mode
func flags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:    "port",
			Value:   8080,
			Usage:   "HTTP server port",
			Sources: cli.EnvVars("PORT"),
		},
		&cli.StringFlag{
			Name:    "host",
			Value:   "localhost",
			Usage:   "HTTP server host",
			Sources: cli.EnvVars("HOST"),
		},
		&cli.StringFlag{
			Name:    "config-dir",
			Value:   "configs",
			Usage:   "Directory containing grid configurations",
			Sources: cli.EnvVars("CONFIG_DIR"),
		},
		&cli.StringFlag{
			Name:    "sessions-dir",
			Value:   "sessions",
			Usage:   "Directory for persisted sessions (empty disables persistence)",
			Sources: cli.EnvVars("SESSIONS_DIR"),
		},
		&cli.BoolFlag{
			Name:    "debug",
			Usage:   "Enable debug logging",
			Sources: cli.EnvVars("DEBUG"),
		},
		&cli.StringFlag{
			Name:    "log-format",
			Value:   "text",
			Usage:   "Log format: text or json",
			Sources: cli.EnvVars("LOG_FORMAT"),
		},
		&cli.DurationFlag{
			Name:    "play-interval",
			Value:   driver.DefaultInterval,
			Usage:   "Pause between autoplay steps",
			Sources: cli.EnvVars("PLAY_INTERVAL"),
		},
		&cli.BoolFlag{
			Name:    "ngrok",
			Usage:   "Enable ngrok tunnel",
			Sources: cli.EnvVars("NGROK_ENABLED"),
		},
		&cli.StringFlag{
			Name:    "ngrok-auth",
			Usage:   "Ngrok auth token",
			Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
		},
		&cli.StringFlag{
			Name:    "ngrok-domain",
			Usage:   "Custom ngrok domain (optional)",
			Sources: cli.EnvVars("NGROK_DOMAIN"),
		},
	}
}

func readOptions(cmd *cli.Command) options {
	return options{
		Host:         cmd.String("host"),
		Port:         int(cmd.Int("port")),
		ConfigDir:    cmd.String("config-dir"),
		SessionsDir:  cmd.String("sessions-dir"),
		Debug:        cmd.Bool("debug"),
		LogFormat:    cmd.String("log-format"),
		PlayInterval: cmd.Duration("play-interval"),
		NgrokEnabled: cmd.Bool("ngrok"),
		NgrokAuth:    cmd.String("ngrok-auth"),
		NgrokDomain:  cmd.String("ngrok-domain"),
	}
}

// newLogger builds the process logger. Logs go to stderr so stdio MCP keeps
// stdout to itself.
func newLogger(debug bool, format string, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}
	return slog.New(handler)
}

func newApp() *cli.Command {
	serverAction := func(ctx context.Context, cmd *cli.Command) error {
		opts := readOptions(cmd)
		logger := setup(opts, "server")
		return runHTTPServer(ctx, opts, logger)
	}

	return &cli.Command{
		Name:    AppName,
		Usage:   "Step-by-step A* search over grid mazes",
		Version: Version,
		Flags:   flags(),
		Action:  serverAction,
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "Run HTTP server with API, WebSocket, metrics and MCP endpoint (default)",
				Action:  serverAction,
			},
			{
				Name:    "stdio-mcp",
				Aliases: []string{"mcp-stdio", "mcp"},
				Usage:   "Run MCP stdio server with internal HTTP server",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					opts := readOptions(cmd)
					logger := setup(opts, "stdio-mcp")
					return runStdioMCPWithInternalServer(ctx, opts, logger)
				},
			},
		},
	}
}

func setup(opts options, mode string) *slog.Logger {
	logger := newLogger(opts.Debug, opts.LogFormat, os.Stderr)
	slog.SetDefault(logger)
	logger.Info("starting", "app", AppName, "version", Version, "mode", mode)
	return logger
}

// main loads .env, parses flags and starts the selected mode.
func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", AppName, err)
		os.Exit(1)
	}
}

// services is the wired application core
type services struct {
	search   service.SearchService
	sessions *session.Manager
	persist  session.SessionPersistence
	logger   *slog.Logger
}

// initializeServices wires session/config managers and the search service.
func initializeServices(opts options, logger *slog.Logger) (*services, error) {
	configManager, err := config.NewManager(opts.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	sessionManager := session.NewManager()
	var persistence session.SessionPersistence
	if opts.SessionsDir != "" {
		fp, err := session.NewFilePersistence(opts.SessionsDir, configManager)
		if err != nil {
			return nil, fmt.Errorf("failed to create session persistence: %w", err)
		}
		persistence = fp
		sessionManager = session.NewManagerWithPersistence(fp)
	}
	sessionManager.SetLogger(logger)

	if err := sessionManager.LoadPersistedSessions(); err != nil {
		logger.Warn("failed to load persisted sessions", "error", err)
	}

	return &services{
		search:   service.NewSearchService(sessionManager, configManager, service.WithLogger(logger)),
		sessions: sessionManager,
		persist:  persistence,
		logger:   logger,
	}, nil
}

// startBackground runs the cleanup and filesystem sync loops until ctx is done
func (s *services) startBackground(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(2)
	go func() {
		defer wg.Done()
		sessionCleanupRoutine(ctx, s.sessions, time.Hour, 24*time.Hour, s.logger)
	}()
	go func() {
		defer wg.Done()
		filesystemSyncRoutine(ctx, s.sessions, s.persist, 5*time.Second, s.logger)
	}()
}

// shutdown flushes sessions to disk
func (s *services) shutdown() {
	if s.persist == nil {
		return
	}
	if err := s.sessions.SaveAllSessions(); err != nil {
		s.logger.Warn("failed to save sessions on shutdown", "error", err)
	}
}

// sessionCleanupRoutine periodically removes sessions that have not been accessed
// within maxAge.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, every, maxAge time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(maxAge); removed > 0 {
				logger.Info("cleaned up expired sessions", "removed", removed)
			}
		}
	}
}

// filesystemSyncRoutine drops sessions from memory when their files are deleted.
func filesystemSyncRoutine(ctx context.Context, manager *session.Manager, persistence session.SessionPersistence, every time.Duration, logger *slog.Logger) {
	if persistence == nil {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if pruned := pruneOrphanedSessions(manager, persistence, logger); pruned > 0 {
				logger.Info("filesystem sync pruned orphaned sessions", "pruned", pruned)
			}
		}
	}
}

func pruneOrphanedSessions(manager *session.Manager, persistence session.SessionPersistence, logger *slog.Logger) int {
	pruned := 0
	for _, sess := range manager.List() {
		if persistence.Exists(sess.ID) {
			continue
		}
		if err := manager.DeleteFromMemory(sess.ID); err == nil {
			pruned++
			logger.Debug("pruned session from memory (file deleted)", "session", sess.ID)
		}
	}
	return pruned
}

// newRouter combines the REST API and the /mcp HTTP endpoint
func newRouter(apiServer http.Handler, mcpClient *mcp.Client) http.Handler {
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)

	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	})

	return mainRouter
}

// runHTTPServer starts the HTTP server with REST API, WebSocket hub, and an /mcp proxy endpoint.
// If ngrok is enabled it also provisions a public tunnel.
func runHTTPServer(ctx context.Context, opts options, logger *slog.Logger) error {
	svcs, err := initializeServices(opts, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	svcs.startBackground(ctx, &wg)

	hub := websocket.NewHub(logger)
	wg.Add(1)
	go func() {
		defer wg.Done()
		hub.Run(ctx)
	}()

	autoplay := driver.New(svcs.search, opts.PlayInterval, logger)
	defer autoplay.Stop()

	apiServer := api.NewServer(svcs.search, hub, autoplay, logger)

	addr := opts.addr()
	handler := newRouter(apiServer, mcp.NewClient("http://"+addr))

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening",
			"addr", addr,
			"api", "http://"+addr+"/api",
			"websocket", "ws://"+addr+"/ws?session=<session_id>",
			"mcp", "http://"+addr+"/mcp",
			"metrics", "http://"+addr+"/metrics")

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	if opts.NgrokEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrok(ctx, opts, handler, logger)
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-serveErr:
		if err != nil {
			cancel()
			wg.Wait()
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP server shutdown error", "error", err)
	}

	autoplay.Stop()
	wg.Wait()
	svcs.shutdown()
	logger.Info("server stopped")
	return nil
}

// runNgrok serves handler through an ngrok tunnel until ctx is done
func runNgrok(ctx context.Context, opts options, handler http.Handler, logger *slog.Logger) {
	if opts.NgrokAuth == "" {
		logger.Warn("ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN)")
		return
	}

	logger.Info("starting ngrok tunnel")

	var tunnel ngrokConfig.Tunnel
	if opts.NgrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(opts.NgrokDomain))
		logger.Info("using custom ngrok domain", "domain", opts.NgrokDomain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(opts.NgrokAuth))
	if err != nil {
		logger.Error("failed to start ngrok tunnel", "error", err)
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			logger.Warn("failed to close ngrok tunnel", "error", err)
		}
	}()

	ngrokURL := tun.URL()
	logger.Info("ngrok tunnel established",
		"url", ngrokURL,
		"api", ngrokURL+"/api",
		"websocket", ngrokURL+"/ws?session=<session_id>",
		"mcp", ngrokURL+"/mcp")

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		logger.Warn("ngrok server error", "error", err)
	}
	logger.Info("ngrok tunnel closed")
}

// runStdioMCPWithInternalServer runs an MCP stdio server.
// It reuses an API already listening on the configured address; otherwise it
// starts an internal HTTP API on a random loopback port and targets that.
func runStdioMCPWithInternalServer(ctx context.Context, opts options, logger *slog.Logger) error {
	externalURL := "http://" + opts.addr()
	baseURL := externalURL

	logger.Info("checking for external API server", "url", externalURL)

	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(externalURL + "/health")
	if err == nil {
		resp.Body.Close()
	}
	if err == nil && resp.StatusCode < 500 {
		logger.Info("external API server found, using it for MCP", "url", externalURL)
	} else {
		logger.Info("no external API server found, starting internal HTTP server")

		svcs, err := initializeServices(opts, logger)
		if err != nil {
			return err
		}
		defer svcs.shutdown()

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}

		var wg sync.WaitGroup
		defer wg.Wait()

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		svcs.startBackground(ctx, &wg)

		hub := websocket.NewHub(logger)
		go hub.Run(ctx)

		autoplay := driver.New(svcs.search, opts.PlayInterval, logger)
		defer autoplay.Stop()

		httpServer := &http.Server{
			Handler: api.NewServer(svcs.search, hub, autoplay, logger),
		}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("internal HTTP server error", "error", err)
			}
		}()
		defer httpServer.Close()

		baseURL = "http://" + listener.Addr().String()
		logger.Info("internal HTTP server started", "url", baseURL)
	}

	mcpClient := mcp.NewClient(baseURL)
	logger.Info("MCP stdio server ready", "api", baseURL)

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}
