package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/nova-jack/novafusion/config"
	"github.com/nova-jack/novafusion/internal/auth"
	"github.com/nova-jack/novafusion/internal/db"
	"github.com/nova-jack/novafusion/internal/handlers"
	"github.com/nova-jack/novafusion/internal/mq"
	"github.com/nova-jack/novafusion/internal/ratelimit"
	"github.com/nova-jack/novafusion/internal/services"
	"github.com/nova-jack/novafusion/internal/storage"
	"github.com/nova-jack/novafusion/internal/store"
	"github.com/nova-jack/novafusion/internal/store/memory"
	"github.com/nova-jack/novafusion/types"
)

// Repositories groups the persistence backends the services run on.
type Repositories struct {
	Users      services.UserRepository
	Blogs      services.ContentRepository[types.Blog]
	Portfolios services.ContentRepository[types.Portfolio]
	Services   services.ContentRepository[types.Service]
	Enquiries  services.EnquiryRepository
}

// PostgresRepositories builds repositories over an open database.
func PostgresRepositories(conn *sql.DB) Repositories {
	return Repositories{
		Users:      store.NewUserRepository(conn),
		Blogs:      store.NewBlogRepository(conn),
		Portfolios: store.NewPortfolioRepository(conn),
		Services:   store.NewServiceRepository(conn),
		Enquiries:  store.NewEnquiryRepository(conn),
	}
}

// MemoryRepositories builds repositories over an in-process store.
func MemoryRepositories(m *memory.DB) Repositories {
	return Repositories{
		Users:      m.Users,
		Blogs:      m.Blogs,
		Portfolios: m.Portfolios,
		Services:   m.Services,
		Enquiries:  m.Enquiries,
	}
}

// Deps is everything the router needs.
type Deps struct {
	Logger       zerolog.Logger
	Tokens       *auth.TokenService
	Auth         *services.AuthService
	Blogs        *services.BlogService
	Portfolios   *services.PortfolioService
	Services     *services.ServiceService
	Enquiries    *services.EnquiryService
	Media        *services.MediaService
	LoginLimit   ratelimit.Limiter
	EnquiryLimit ratelimit.Limiter
	SecureCookie bool
	// TrustProxy keys rate limits on X-Forwarded-For / X-Real-IP instead
	// of the peer address.
	TrustProxy bool
	// DB is pinged by /healthz when set.
	DB handlers.Pinger
}

// NewRouter wires the public and admin routes.
func NewRouter(d Deps) *chi.Mux {
	router := chi.NewRouter()
	router.NotFound(handlers.NotFound)
	router.MethodNotAllowed(handlers.MethodNotAllowed)

	router.Use(middleware.RequestID)
	if d.TrustProxy {
		router.Use(middleware.RealIP)
	}
	router.Use(
		handlers.RequestLogger(d.Logger),
		handlers.Recoverer,
		middleware.Timeout(60*time.Second),
	)

	gate := handlers.RequireAuth(d.Tokens, handlers.GateOptions{
		AllowRoles: []types.Role{types.RoleAdmin, types.RoleSuperAdmin},
	})

	blogs := handlers.NewContentHandler[types.Blog, types.BlogPatch](d.Blogs)
	portfolios := handlers.NewContentHandler[types.Portfolio, types.PortfolioPatch](d.Portfolios)
	svcs := handlers.NewContentHandler[types.Service, types.ServicePatch](d.Services)
	enquiries := handlers.NewEnquiryHandler(d.Enquiries, d.EnquiryLimit)
	media := handlers.NewMediaHandler(d.Media)

	router.Get("/healthz", handlers.Healthz(d.DB))
	if d.Media.Enabled() {
		router.Get("/media/*", media.Serve)
	}

	router.Route("/api", func(r chi.Router) {
		r.Route("/blogs", func(r chi.Router) { handlers.PublicContentRouter(r, blogs) })
		r.Route("/portfolio", func(r chi.Router) { handlers.PublicContentRouter(r, portfolios) })
		r.Route("/services", func(r chi.Router) { handlers.PublicContentRouter(r, svcs) })
		r.Route("/enquiry", func(r chi.Router) { handlers.PublicEnquiryRouter(r, enquiries) })

		r.Route("/admin", func(r chi.Router) {
			r.Route("/auth", func(r chi.Router) {
				handlers.AuthRouter(r, handlers.NewAuthHandler(d.Auth, d.Tokens, d.LoginLimit, d.SecureCookie))
			})

			r.Group(func(r chi.Router) {
				r.Use(gate)
				r.Route("/blogs", func(r chi.Router) { handlers.ContentRouter(r, blogs) })
				r.Route("/portfolio", func(r chi.Router) { handlers.ContentRouter(r, portfolios) })
				r.Route("/services", func(r chi.Router) { handlers.ContentRouter(r, svcs) })
				r.Route("/enquiries", func(r chi.Router) { handlers.EnquiryRouter(r, enquiries) })
				if d.Media.Enabled() {
					r.Route("/media", func(r chi.Router) { handlers.MediaRouter(r, media, d.Tokens) })
				}
			})
		})
	})

	return router
}

// Server owns the HTTP listener and every backend connection.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	logger     zerolog.Logger

	db      *sql.DB
	redis   *redis.Client
	queue   *mq.MQ
	objects storage.ObjectStore
	stop    context.CancelFunc
}

// New connects the configured backends and builds the router. It fails
// when JWT_SECRET is missing.
func New(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*Server, error) {
	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.SessionTTL)
	if err != nil {
		return nil, err
	}

	bg, stop := context.WithCancel(context.Background())
	s := &Server{logger: logger, stop: stop}
	fail := func(err error) (*Server, error) {
		s.close()
		return nil, err
	}

	var (
		repos  Repositories
		pinger handlers.Pinger
	)
	switch cfg.Database.Driver {
	case "memory":
		logger.Warn().Msg("using in-memory store; data is lost on restart")
		repos = MemoryRepositories(memory.New())
	default:
		conn, err := db.Open(ctx, cfg.Database)
		if err != nil {
			return fail(fmt.Errorf("opening database: %w", err))
		}
		s.db = conn
		pinger = conn
		repos = PostgresRepositories(conn)
	}

	loginPolicy := ratelimit.Policy{MaxAttempts: cfg.RateLimit.LoginMaxAttempts, Window: cfg.RateLimit.LoginWindow}
	enquiryPolicy := ratelimit.Policy{MaxAttempts: cfg.RateLimit.EnquiryMaxAttempts, Window: cfg.RateLimit.EnquiryWindow}
	var loginLimit, enquiryLimit ratelimit.Limiter
	if cfg.RateLimit.RedisURL != "" {
		client, err := ratelimit.NewRedisClient(ctx, cfg.RateLimit.RedisURL)
		if err != nil {
			return fail(fmt.Errorf("connecting to redis: %w", err))
		}
		s.redis = client
		loginLimit = ratelimit.NewRedis(client, "login", loginPolicy)
		enquiryLimit = ratelimit.NewRedis(client, "enquiry", enquiryPolicy)
	} else {
		login := ratelimit.NewMemory(loginPolicy)
		enquiry := ratelimit.NewMemory(enquiryPolicy)
		go login.Run(bg, time.Minute)
		go enquiry.Run(bg, time.Minute)
		loginLimit, enquiryLimit = login, enquiry
	}

	objects, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return fail(fmt.Errorf("configuring storage: %w", err))
	}
	if objects != nil {
		if err := objects.EnsureBucket(ctx); err != nil {
			return fail(fmt.Errorf("ensuring bucket %s: %w", objects.Bucket(), err))
		}
		s.objects = objects
	}

	queue, err := mq.New(ctx, cfg.MQ)
	if err != nil {
		return fail(fmt.Errorf("connecting to message queue: %w", err))
	}
	enquiryOpts := []services.EnquiryOption{services.WithLogger(logger)}
	if queue != nil {
		s.queue = queue
		enquiryOpts = append(enquiryOpts, services.WithPublisher(queue, cfg.MQ.EnquiryTopic))
	}

	s.router = NewRouter(Deps{
		Logger:       logger,
		Tokens:       tokens,
		Auth:         services.NewAuthService(repos.Users, cfg.BcryptCost),
		Blogs:        services.NewBlogService(repos.Blogs),
		Portfolios:   services.NewPortfolioService(repos.Portfolios),
		Services:     services.NewServiceService(repos.Services),
		Enquiries:    services.NewEnquiryService(repos.Enquiries, enquiryOpts...),
		Media:        services.NewMediaService(s.objects, cfg.BaseURL),
		LoginLimit:   loginLimit,
		EnquiryLimit: enquiryLimit,
		SecureCookie: cfg.IsProduction(),
		TrustProxy:   cfg.TrustProxy,
		DB:           pinger,
	})

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start serves until Shutdown. It returns nil after a graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.httpServer.Addr).Msg("server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, then closes every backend.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	s.close()
	return err
}

func (s *Server) close() {
	s.stop()
	if s.queue != nil {
		if err := s.queue.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("closing message queue")
		}
	}
	if c, ok := s.objects.(interface{ Close() error }); ok {
		_ = c.Close()
	}
	if s.redis != nil {
		_ = s.redis.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
}
