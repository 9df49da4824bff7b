// Package server serves the explorer front end and its catalog over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const (
	// DefaultAddress is the listen address used when none is configured.
	DefaultAddress = "127.0.0.1:8080"
	// DefaultPublicDirectory holds the static front end. Files missing from it
	// are served from the bundled explorer page.
	DefaultPublicDirectory = "public"

	healthRoute   = "/health"
	catalogRoute  = "/api/catalog"
	documentRoute = "/data.json"
	staticRoute   = "/*"

	contentTypeHeader   = "Content-Type"
	cacheControlHeader  = "Cache-Control"
	contentTypeJSON     = "application/json; charset=utf-8"
	noStoreCacheControl = "no-store"
	healthResponse      = `{"status":"ok"}`
	errorResponseFormat = `{"error":%q}`

	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second

	logServerListening   = "serving explorer"
	logCatalogFailed     = "catalog build failed"
	logFieldAddress      = "address"
	logFieldPublic       = "public"
	errorListenFormat    = "listening on %s: %w"
	errorServeFormat     = "serving http: %w"
	errorShutdownFormat  = "shutting down http server: %w"
	documentNotBuiltText = "catalog document has not been built"
)

// CatalogFunc builds the catalog and returns its JSON encoding.
type CatalogFunc func(ctx context.Context) ([]byte, error)

// Options configures a Server.
type Options struct {
	Address         string
	PublicDirectory string
	// DocumentPath is the built catalog served at /data.json.
	DocumentPath string
	// Catalog produces the live document served at /api/catalog.
	Catalog CatalogFunc
	Logger  *zap.Logger
}

// Server is the HTTP server for the explorer.
type Server struct {
	options Options
	router  chi.Router
}

// NewServer creates and configures the HTTP server.
func NewServer(options Options) *Server {
	if options.Address == "" {
		options.Address = DefaultAddress
	}
	if options.PublicDirectory == "" {
		options.PublicDirectory = DefaultPublicDirectory
	}
	if options.Logger == nil {
		options.Logger = zap.NewNop()
	}
	server := &Server{options: options}
	server.setupRoutes()
	return server
}

func (server *Server) ServeHTTP(responseWriter http.ResponseWriter, request *http.Request) {
	server.router.ServeHTTP(responseWriter, request)
}

func (server *Server) setupRoutes() {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)
	router.Use(RequestLogger(server.options.Logger))

	router.Get(healthRoute, server.handleHealth)
	router.Get(catalogRoute, server.handleCatalog)
	router.Get(documentRoute, server.handleDocument)
	router.Handle(staticRoute, http.FileServer(newLayeredFileSystem(server.options.PublicDirectory)))

	server.router = router
}

// Run listens on the configured address until ctx is canceled, then shuts down gracefully.
func (server *Server) Run(ctx context.Context) error {
	listener, listenError := net.Listen("tcp", server.options.Address)
	if listenError != nil {
		return fmt.Errorf(errorListenFormat, server.options.Address, listenError)
	}
	return server.Serve(ctx, listener)
}

// Serve handles requests arriving on listener until ctx is canceled.
func (server *Server) Serve(ctx context.Context, listener net.Listener) error {
	httpServer := &http.Server{
		Handler:           server,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	server.options.Logger.Info(logServerListening,
		zap.String(logFieldAddress, listener.Addr().String()),
		zap.String(logFieldPublic, server.options.PublicDirectory),
	)

	serveResult := make(chan error, 1)
	go func() {
		serveResult <- httpServer.Serve(listener)
	}()

	select {
	case serveError := <-serveResult:
		if serveError != nil && !errors.Is(serveError, http.ErrServerClosed) {
			return fmt.Errorf(errorServeFormat, serveError)
		}
		return nil
	case <-ctx.Done():
		shutdownContext, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if shutdownError := httpServer.Shutdown(shutdownContext); shutdownError != nil {
			return fmt.Errorf(errorShutdownFormat, shutdownError)
		}
		return nil
	}
}

func (server *Server) handleHealth(responseWriter http.ResponseWriter, request *http.Request) {
	responseWriter.Header().Set(contentTypeHeader, contentTypeJSON)
	_, _ = responseWriter.Write([]byte(healthResponse))
}

func (server *Server) handleCatalog(responseWriter http.ResponseWriter, request *http.Request) {
	if server.options.Catalog == nil {
		writeJSONError(responseWriter, http.StatusNotFound, documentNotBuiltText)
		return
	}
	document, catalogError := server.options.Catalog(request.Context())
	if catalogError != nil {
		server.options.Logger.Error(logCatalogFailed, zap.Error(catalogError))
		writeJSONError(responseWriter, http.StatusInternalServerError, catalogError.Error())
		return
	}
	responseWriter.Header().Set(contentTypeHeader, contentTypeJSON)
	responseWriter.Header().Set(cacheControlHeader, noStoreCacheControl)
	_, _ = responseWriter.Write(document)
}

func (server *Server) handleDocument(responseWriter http.ResponseWriter, request *http.Request) {
	documentPath := server.options.DocumentPath
	if documentPath == "" {
		writeJSONError(responseWriter, http.StatusNotFound, documentNotBuiltText)
		return
	}
	if info, statError := os.Stat(documentPath); statError != nil || info.IsDir() {
		writeJSONError(responseWriter, http.StatusNotFound, documentNotBuiltText)
		return
	}
	responseWriter.Header().Set(contentTypeHeader, contentTypeJSON)
	responseWriter.Header().Set(cacheControlHeader, noStoreCacheControl)
	http.ServeFile(responseWriter, request, documentPath)
}

func writeJSONError(responseWriter http.ResponseWriter, status int, message string) {
	responseWriter.Header().Set(contentTypeHeader, contentTypeJSON)
	responseWriter.WriteHeader(status)
	_, _ = fmt.Fprintf(responseWriter, errorResponseFormat, message)
}
