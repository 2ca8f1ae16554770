package web

import (
	"houseplants/models"
	"houseplants/storage"
	"houseplants/web/api"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/rweb"
	"github.com/rohanthewiz/serr"
)

// App holds what the routes need: the shared history store, the client
// token issuer and the page timings.
type App struct {
	cfg     *models.Config
	store   storage.Store
	tokens  *models.ClientTokens
	history *api.Handlers
}

// NewApp wires the web surface to an opened store.
func NewApp(cfg *models.Config, store storage.Store) (*App, error) {
	tokens, err := models.NewClientTokens(cfg.ClientSecret)
	if err != nil {
		return nil, serr.Wrap(err, "failed to set up client tokens")
	}
	return &App{
		cfg:     cfg,
		store:   store,
		tokens:  tokens,
		history: api.NewHandlers(store),
	}, nil
}

// NewServer creates and configures the RWeb server
func (a *App) NewServer(opts rweb.ServerOptions) *rweb.Server {
	if opts.Address == "" {
		opts.Address = a.cfg.Address
	}
	s := rweb.NewServer(opts)

	s.Use(rweb.RequestInfo)
	s.Use(CorsMiddleware)
	s.Use(ClientMiddleware(a.tokens))
	s.Use(SecurityHeadersMiddleware)
	s.Use(LoggingMiddleware)

	a.setupRoutes(s)
	SetupStaticFiles(s)

	return s
}

// Close releases long-poll requests still waiting on the change feed.
func (a *App) Close() {
	a.history.Close()
}

// Run starts the server
func Run(s *rweb.Server, address string) error {
	logger.Info("Houseplant search server starting", "address", address)
	return s.Run()
}
