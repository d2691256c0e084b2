package apiserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/acorn-io/dnswatch/pkg/backend"
	"github.com/acorn-io/dnswatch/pkg/version"
	ghandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type apiServer struct {
	ctx       context.Context
	log       *logrus.Entry
	port      int
	tokenHash string
}

func NewAPIServer(ctx context.Context, log *logrus.Entry, port int, tokenHash string) *apiServer {
	return &apiServer{
		ctx:       ctx,
		log:       log,
		port:      port,
		tokenHash: tokenHash,
	}
}

// Router wires every route. Everything under /v1 requires the trigger token.
func (a *apiServer) Router(b backend.Backend) http.Handler {
	router := mux.NewRouter().StrictSlash(true)
	router.Use(loggingMiddleware(a.log))
	h := newHandler(b)

	// When functioning properly, these routes will return the version of the app that is running
	router.Path("/").HandlerFunc(h.root)
	router.Path("/healthz").HandlerFunc(h.root)

	api := router.PathPrefix("/v1").Subrouter()
	api.Use(tokenAuthMiddleware(a.tokenHash))

	// Runs one full check cycle, the HTTP equivalent of a scheduled invocation
	api.Path("/check").Methods("POST").HandlerFunc(h.check)

	api.Path("/domains/{domain}").Methods("GET").HandlerFunc(h.getSnapshot)
	api.Path("/domains/{domain}/changes").Methods("GET").HandlerFunc(h.getChanges)

	// Note: this allows not found urls to be logged via the middleware
	// It **HAS** to be defined after all other paths are defined.
	router.NotFoundHandler = router.NewRoute().HandlerFunc(http.NotFound).GetHandler()

	return ghandlers.CORS()(router)
}

func (a *apiServer) Start(b backend.Backend) error {
	a.log.Infof("Version: %s", version.Get())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.port),
		Handler:           a.Router(b),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		a.log.WithField("port", a.port).Info("starting api server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Fatalf("listen: %s\n", err)
		}
	}()

	<-a.ctx.Done()

	a.log.Info("shutting down the api server gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		a.log.WithError(err).Error("unable to shutdown the api server gracefully")
		return err
	}

	return nil
}
