// Package httpapi serves the vault as JSON over HTTP, with a websocket
// channel for breach alerts and liveness/readiness probes.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/vaultwatch/internal/logging"
	"github.com/dmitrijs2005/vaultwatch/internal/server/breach"
	"github.com/dmitrijs2005/vaultwatch/internal/server/models"
	"github.com/dmitrijs2005/vaultwatch/internal/server/notify"
	"github.com/dmitrijs2005/vaultwatch/internal/server/services"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
)

type Users interface {
	Register(ctx context.Context, username, password string) (*models.User, error)
	Login(ctx context.Context, username, password string) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Authenticate(accessToken string) (string, error)
}

type Vault interface {
	Create(ctx context.Context, ownerID, label, accountName, secret string) (*models.SecretMetadata, error)
	List(ctx context.Context, ownerID string) ([]*models.SecretMetadata, error)
	Reveal(ctx context.Context, ownerID, id string) (string, error)
	Update(ctx context.Context, ownerID, id, label, accountName, secret string) (*models.SecretMetadata, error)
	Delete(ctx context.Context, ownerID, id string) error
	Check(ctx context.Context, secret string) (breach.Result, error)
}

type Sessions interface {
	Register(owner string, ch notify.Channel)
	Unregister(ch notify.Channel)
}

// Pinger reports database reachability for /readyz. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

const (
	shutdownGrace     = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
	maxBodyBytes      = 1 << 20
)

type HTTPServer struct {
	address  string
	origins  []string
	users    Users
	vault    Vault
	sessions Sessions
	db       Pinger
	logger   logging.Logger
	upgrader websocket.Upgrader
}

func NewHTTPServer(a string, l logging.Logger, us Users, vs Vault, sessions Sessions, db Pinger, origins []string) *HTTPServer {
	s := &HTTPServer{
		address:  a,
		origins:  origins,
		users:    us,
		vault:    vs,
		sessions: sessions,
		db:       db,
		logger:   l.With("module", "http_server"),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// Handler builds the full middleware chain and route table.
func (s *HTTPServer) Handler() http.Handler {
	r := mux.NewRouter().StrictSlash(true)
	r.Use(s.requestID, s.recoverer, s.logRequests)

	r.HandleFunc("/healthz", s.liveness).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.readiness).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/signup", s.signup).Methods(http.MethodPost)
	api.HandleFunc("/login", s.login).Methods(http.MethodPost)
	api.HandleFunc("/refresh", s.refresh).Methods(http.MethodPost)
	api.Handle("/ws", s.requireAuth(true)(http.HandlerFunc(s.watchAlerts))).Methods(http.MethodGet)

	protected := api.NewRoute().Subrouter()
	protected.Use(s.requireAuth(false))
	protected.HandleFunc("/passwords", s.createSecret).Methods(http.MethodPost)
	protected.HandleFunc("/passwords", s.listSecrets).Methods(http.MethodGet)
	protected.HandleFunc("/passwords/{id}", s.revealSecret).Methods(http.MethodGet)
	protected.HandleFunc("/passwords/{id}", s.updateSecret).Methods(http.MethodPut)
	protected.HandleFunc("/passwords/{id}", s.deleteSecret).Methods(http.MethodDelete)
	protected.HandleFunc("/check-breach", s.checkBreach).Methods(http.MethodPost)

	c := cors.New(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
	})
	return c.Handler(r)
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *HTTPServer) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, lis)
}

// Serve accepts connections on lis until ctx is cancelled, then shuts down.
// Upgraded websocket connections are not tracked here; the hub closes them.
func (s *HTTPServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn(shutdownCtx, "HTTP shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range s.origins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}
