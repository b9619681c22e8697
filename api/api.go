// Package api exposes the elections, censuses, ballot queue and aggregate
// proofs of a node over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/vocdoni/batravot/crypto/ecc"
	"github.com/vocdoni/batravot/crypto/ecc/curves"
	"github.com/vocdoni/batravot/election"
	"github.com/vocdoni/batravot/log"
	stg "github.com/vocdoni/batravot/storage"
	"github.com/vocdoni/batravot/storage/census"
	"github.com/vocdoni/batravot/validator"
	"github.com/vocdoni/batravot/verifier"
)

// ElectionRegistry is notified of the elections created through the API.
type ElectionRegistry interface {
	AddElection(id election.ID)
}

// APIConfig type represents the configuration for the API HTTP server.
type APIConfig struct {
	Host     string
	Port     int
	Storage  *stg.Storage
	CensusDB *census.CensusDB
	// Curve is used by elections and registrations that do not name one.
	// Defaults to curves.DefaultCurveType.
	Curve string
	// Elections is optional.
	Elections ElectionRegistry
}

// curveTools groups the gate and verifier of a curve.
type curveTools struct {
	curve     ecc.Curve
	validator *validator.Validator
	verifier  *verifier.Verifier
}

// API type represents the API HTTP server.
type API struct {
	router    *chi.Mux
	server    *http.Server
	listener  net.Listener
	storage   *stg.Storage
	censusDB  *census.CensusDB
	elections ElectionRegistry
	curve     string
	curves    map[string]*curveTools
}

// New creates a new API instance with the given configuration and starts the
// HTTP server. A zero port lets the system choose one, see Addr.
func New(conf *APIConfig) (*API, error) {
	if conf == nil {
		return nil, fmt.Errorf("missing API configuration")
	}
	if conf.Storage == nil {
		return nil, fmt.Errorf("missing storage instance")
	}
	if conf.CensusDB == nil {
		return nil, fmt.Errorf("missing census database")
	}
	a := &API{
		storage:   conf.Storage,
		censusDB:  conf.CensusDB,
		elections: conf.Elections,
		curve:     conf.Curve,
		curves:    make(map[string]*curveTools),
	}
	if a.curve == "" {
		a.curve = curves.DefaultCurveType
	}
	for _, typ := range curves.Types() {
		curve := curves.New(typ)
		a.curves[typ] = &curveTools{
			curve:     curve,
			validator: validator.New(curve),
			verifier:  verifier.New(curve),
		}
	}
	if _, ok := a.curves[a.curve]; !ok {
		return nil, fmt.Errorf("unsupported curve type: %q", a.curve)
	}

	a.initRouter()
	listener, err := net.Listen("tcp", net.JoinHostPort(conf.Host, strconv.Itoa(conf.Port)))
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %w", err)
	}
	a.listener = listener
	a.server = &http.Server{
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Infow("starting API server", "address", listener.Addr().String())
		if err := a.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorw(err, "API server failed")
		}
	}()
	return a, nil
}

// Router returns the chi router for testing purposes
func (a *API) Router() *chi.Mux {
	return a.router
}

// Addr returns the address the server listens on.
func (a *API) Addr() string {
	return a.listener.Addr().String()
}

// URL returns the base URL of the server.
func (a *API) URL() string {
	return "http://" + a.Addr()
}

// Stop shuts down the HTTP server, waiting for the active requests.
func (a *API) Stop(ctx context.Context) error {
	return a.server.Shutdown(ctx)
}

// registerHandlers registers all the API handlers.
func (a *API) registerHandlers() {
	log.Infow("register handler", "endpoint", PingEndpoint, "method", "GET")
	a.router.Get(PingEndpoint, func(w http.ResponseWriter, r *http.Request) {
		httpWriteOK(w)
	})
	// elections
	log.Infow("register handler", "endpoint", ElectionsEndpoint, "method", "POST")
	a.router.Post(ElectionsEndpoint, a.newElection)
	log.Infow("register handler", "endpoint", ElectionsEndpoint, "method", "GET")
	a.router.Get(ElectionsEndpoint, a.listElections)
	log.Infow("register handler", "endpoint", ElectionEndpoint, "method", "GET")
	a.router.Get(ElectionEndpoint, a.election)
	log.Infow("register handler", "endpoint", SpecifiersEndpoint, "method", "GET")
	a.router.Get(SpecifiersEndpoint, a.specifiers)
	log.Infow("register handler", "endpoint", BallotsEndpoint, "method", "POST")
	a.router.Post(BallotsEndpoint, a.newBallot)
	log.Infow("register handler", "endpoint", InvalidBallotsEndpoint, "method", "GET")
	a.router.Get(InvalidBallotsEndpoint, a.invalidBallots)
	log.Infow("register handler", "endpoint", AggregateEndpoint, "method", "GET")
	a.router.Get(AggregateEndpoint, a.aggregate)
	// census
	log.Infow("register handler", "endpoint", CensusEndpoint, "method", "POST")
	a.router.Post(CensusEndpoint, a.newCensus)
	log.Infow("register handler", "endpoint", CensusRefEndpoint, "method", "DELETE")
	a.router.Delete(CensusRefEndpoint, a.deleteCensus)
	log.Infow("register handler", "endpoint", CensusVotersEndpoint, "method", "POST")
	a.router.Post(CensusVotersEndpoint, a.registerVoter)
	log.Infow("register handler", "endpoint", CensusRootEndpoint, "method", "GET")
	a.router.Get(CensusRootEndpoint, a.censusRoot)
	log.Infow("register handler", "endpoint", CensusSizeEndpoint, "method", "GET")
	a.router.Get(CensusSizeEndpoint, a.censusSize)
	log.Infow("register handler", "endpoint", CensusProofEndpoint, "method", "GET")
	a.router.Get(CensusProofEndpoint, a.censusProof)
	log.Infow("register handler", "endpoint", CensusRootProofEndpoint, "method", "GET")
	a.router.Get(CensusRootProofEndpoint, a.censusProofByRoot)
	log.Infow("register handler", "endpoint", CensusRootSizeEndpoint, "method", "GET")
	a.router.Get(CensusRootSizeEndpoint, a.censusSizeByRoot)
}

// initRouter creates the router with all the routes and middleware.
func (a *API) initRouter() {
	// Create the router with a basic middleware stack
	a.router = chi.NewRouter()
	a.router.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}).Handler)
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Throttle(100))
	a.router.Use(middleware.ThrottleBacklog(5000, 40000, 60*time.Second))
	a.router.Use(middleware.Timeout(45 * time.Second))

	// Register the API handlers
	a.registerHandlers()
}
