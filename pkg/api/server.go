package api

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/arnac-io/ordercheck/pkg/app"
)

type Server struct {
	logger     *zap.Logger
	httpServer *http.Server
}

type ServerOptions struct {
	httpMiddleware []httpMiddleware
}

type ServerOption func(options *ServerOptions)

func WithHttpMiddleware(m ...httpMiddleware) ServerOption {
	return func(options *ServerOptions) {
		options.httpMiddleware = m
	}
}

func NewServer(log *zap.Logger, handler *Handler, address string, opts ...ServerOption) *Server {
	return &Server{
		logger: log,
		httpServer: &http.Server{
			Addr:    address,
			Handler: NewMux(log, handler, opts...),
		},
	}
}

// NewMux routes the public endpoints. Middlewares from opts run inside logging and metrics.
func NewMux(log *zap.Logger, handler *Handler, opts ...ServerOption) http.Handler {
	options := &ServerOptions{}
	for _, o := range opts {
		o(options)
	}
	middleware := []httpMiddleware{Logging(log), Metrics}
	middleware = append(middleware, options.httpMiddleware...)

	mux := http.NewServeMux()
	mux.Handle("/v2/multisig/order/check", applyMiddlewares(allowMethod(http.MethodPost, handler.CheckOrder), middleware...))
	mux.Handle("/v2/openapi.json", applyMiddlewares(allowMethod(http.MethodGet, handler.GetOpenapiJson), middleware...))
	mux.Handle("/v2/openapi.yml", applyMiddlewares(allowMethod(http.MethodGet, handler.GetOpenapiYml), middleware...))
	mux.HandleFunc("/healthz", handler.Healthz)
	return mux
}

func (s *Server) Run(ctx context.Context) error {
	return app.Serve(ctx, s.logger, s.httpServer)
}

func allowMethod(method string, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			w.Header().Set("Allow", method)
			writeError(w, http.StatusMethodNotAllowed, errorJSON{Error: "method not allowed", Kind: "BadRequest"})
			return
		}
		next(w, r)
	})
}

func applyMiddlewares(handler http.Handler, middleware ...httpMiddleware) http.Handler {
	for i := len(middleware) - 1; i >= 0; i-- {
		handler = middleware[i](handler)
	}
	return handler
}
