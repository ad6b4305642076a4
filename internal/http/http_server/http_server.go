package http_server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"slices"
	"time"

	"songsyncgo/internal/http/mediahandler"
	"songsyncgo/internal/http/roomhandler"
	"songsyncgo/internal/ws"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/abrar71/swaggerfilesv2" // swagger embed files
)

const shutdownTimeout = 10 * time.Second

const healthText = "songsync server running"

type httpServer struct {
	listenPort     uint16
	srv            http.Server
	ln             net.Listener
	wsSrv          *ws.WsServer
	rooms          *roomhandler.Handler
	media          *mediahandler.Handler
	uploadDir      string
	downloadDir    string
	allowedOrigins []string
	started        chan struct{}
}

// Deps is everything the router mounts.
type Deps struct {
	WsServer       *ws.WsServer
	Rooms          *roomhandler.Handler
	Media          *mediahandler.Handler
	UploadDir      string
	DownloadDir    string
	AllowedOrigins []string
}

func NewHttpServer(listenPort uint16, deps Deps) *httpServer {
	return &httpServer{
		listenPort:     listenPort,
		wsSrv:          deps.WsServer,
		rooms:          deps.Rooms,
		media:          deps.Media,
		uploadDir:      deps.UploadDir,
		downloadDir:    deps.DownloadDir,
		allowedOrigins: deps.AllowedOrigins,
		started:        make(chan struct{}),
	}
}

// Start listens and serves until Dispose. It returns nil after a clean shutdown.
func (h *httpServer) Start() error {
	var err error
	listenAddr := fmt.Sprintf(":%d", h.listenPort)
	h.ln, err = net.Listen("tcp", listenAddr)
	if err != nil {
		return err
	}
	zap.L().Info("http.listening", zap.String("addr", h.ln.Addr().String()))

	h.srv = http.Server{
		Handler:           h.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	close(h.started)

	if err := h.srv.Serve(h.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (h *httpServer) listening() bool {
	select {
	case <-h.started:
		return true
	default:
		return false
	}
}

func (h *httpServer) routes() *gin.Engine {
	routerEngine := gin.New()

	routerEngine.Use(ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
		TimeFormat: time.RFC3339,
		UTC:        true,
		SkipPaths:  []string{"/ws"}, // long-lived; logged by the ws package
	}))
	routerEngine.Use(ginzap.RecoveryWithZap(zap.L(), true))
	routerEngine.Use(cors.New(h.corsConfig()))

	// Swagger UI and API specs
	routerEngine.StaticFS("/swagger-apis", http.FS(swaggerfilesv2.FS))
	routerEngine.Static("/api-specs", "api_specs")

	// Stored media
	routerEngine.Static("/uploads", h.uploadDir)
	routerEngine.Static("/downloads", h.downloadDir)

	routerEngine.GET("/", func(c *gin.Context) { c.String(http.StatusOK, healthText) })

	// websocket endpoint
	routerEngine.GET("/ws", h.wsSrv.Handle)

	// REST API
	h.rooms.Register(routerEngine)
	h.media.Register(routerEngine)

	return routerEngine
}

func (h *httpServer) corsConfig() cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       12 * time.Hour,
	}
	if len(h.allowedOrigins) == 0 || slices.Contains(h.allowedOrigins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = h.allowedOrigins
	}
	return cfg
}

// Dispose gracefully shuts the HTTP server down.
// It waits up to 10 s for in‑flight requests to finish.
func (h *httpServer) Dispose() error {
	if !h.listening() {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Hijacked websocket conns are not tracked by Shutdown.
	if err := h.srv.Shutdown(ctx); err != nil {
		zap.L().Error("http_dispose", zap.Error(err))
		return err
	}
	return nil
}
