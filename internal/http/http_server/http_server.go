package http_server

import (
	"broadcastmusic/internal/http/roomhandler"
	"broadcastmusic/internal/http/searchhandler"
	"broadcastmusic/internal/services/room"
	"broadcastmusic/internal/services/search"
	"broadcastmusic/internal/stream"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/abrar71/swaggerfilesv2" // swagger embed files
)

type httpServer struct {
	listenPort     uint16
	allowedOrigins []string
	srv            http.Server
	ln             net.Listener
	roomService    room.IRoomService
	searchService  search.ISearchService
	streamSrv      *stream.StreamServer
	hub            *stream.Hub
	ctx            context.Context
	ready          chan struct{} // closed once the listener is bound
}

func NewHttpServer(
	ctx context.Context,
	listenPort uint16,
	allowedOrigins []string,
	streamSrv *stream.StreamServer,
	hub *stream.Hub,
	roomService room.IRoomService,
	searchService search.ISearchService,
) *httpServer {
	return &httpServer{
		listenPort:     listenPort,
		allowedOrigins: allowedOrigins,
		streamSrv:      streamSrv,
		hub:            hub,
		roomService:    roomService,
		searchService:  searchService,
		ctx:            ctx,
		ready:          make(chan struct{}),
	}
}

// Handler builds the full route table wrapped in the CORS policy.
func (h *httpServer) Handler() http.Handler {
	routerEngine := gin.New()

	routerEngine.Use(ginzap.Ginzap(zap.L(), time.RFC3339, true))
	routerEngine.Use(ginzap.RecoveryWithZap(zap.L(), true))

	// Swagger UI and API specs
	routerEngine.StaticFS("/swagger-apis", http.FS(swaggerfilesv2.FS))
	routerEngine.Static("/api-specs", "api_specs")

	routerEngine.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Music Broadcast Server Running")
	})
	routerEngine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	routerEngine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// push streams
	routerEngine.GET("/stream", h.streamSrv.HandleSSE)
	routerEngine.GET("/ws", h.streamSrv.HandleWS)

	// REST API
	rh := roomhandler.New(h.roomService, h.hub)
	rh.Register(routerEngine)

	sh := searchhandler.New(h.searchService)
	sh.Register(routerEngine)

	return cors.New(cors.Options{
		AllowedOrigins: h.allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(routerEngine)
}

func (h *httpServer) Start() error {
	var err error
	listenAddr := fmt.Sprintf(":%d", h.listenPort)
	h.ln, err = net.Listen("tcp", listenAddr)
	if err != nil {
		return err
	}

	h.srv = http.Server{
		Handler:           h.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// streams end when the app context is cancelled
		BaseContext: func(net.Listener) context.Context { return h.ctx },
	}

	close(h.ready)

	zap.L().Info("http_listening", zap.String("addr", h.ln.Addr().String()))
	if err := h.srv.Serve(h.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Run serves until the app context is cancelled, then shuts down and
// returns only once in-flight requests finished or the grace period ran out.
func (h *httpServer) Run() error {
	served := make(chan error, 1)
	go func() { served <- h.Start() }()

	select {
	case err := <-served:
		return err
	case <-h.ready:
	}

	select {
	case err := <-served:
		return err
	case <-h.ctx.Done():
	}

	zap.L().Info("http_shutting_down")
	disposeErr := h.Dispose()
	if err := <-served; err != nil {
		return err
	}
	return disposeErr
}

// Addr blocks until the server listens and returns the bound address.
func (h *httpServer) Addr() net.Addr {
	<-h.ready
	return h.ln.Addr()
}

// Dispose gracefully shuts the HTTP server down.
// It waits up to 10 s for in‑flight requests to finish.
func (h *httpServer) Dispose() error {
	// the parent ctx is already cancelled on shutdown, so start fresh
	ctx, cancel := context.WithTimeout(context.WithoutCancel(h.ctx), 10*time.Second)
	defer cancel()

	if err := h.srv.Shutdown(ctx); err != nil {
		zap.L().Error("http_dispose", zap.Error(err))
		return err // e.g. active conns didn’t finish in time
	}
	return nil
}
