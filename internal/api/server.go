// Package api exposes the bot commands over HTTP with go-restful. Each route
// maps to one service call; the acting user comes from the path or, for
// assignment decisions, from the X-User-ID header.
package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	restful "github.com/emicklei/go-restful/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrijs2005/todobot/internal/delivery"
	"github.com/dmitrijs2005/todobot/internal/logging"
	"github.com/dmitrijs2005/todobot/internal/services"
)

// Deps are the services behind the routes. Inbox and Gatherer are optional.
type Deps struct {
	Tasks       *services.TaskService
	Timezones   *services.TimezoneService
	Assignments *services.AssignmentService
	Inbox       *delivery.Inbox
	Gatherer    prometheus.Gatherer
}

type Server struct {
	address   string
	container *restful.Container
	logger    logging.Logger
}

func NewServer(address string, l logging.Logger, d Deps) *Server {
	if l == nil {
		l = logging.Nop()
	}
	log := l.With("module", "http_server")
	return &Server{
		address:   address,
		container: newContainer(d, log),
		logger:    log,
	}
}

// Handler is the routed container, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.container
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{Handler: s.container, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		s.logger.Info(context.Background(), "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())
	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func newContainer(d Deps, log logging.Logger) *restful.Container {
	h := &handler{deps: d, log: log}

	ws := new(restful.WebService)
	ws.Path("/").Produces(restful.MIME_JSON)

	ws.Route(ws.POST("/users/{user}/tasks").Consumes(restful.MIME_JSON).To(h.addTask))
	ws.Route(ws.GET("/users/{user}/tasks").To(h.allTasks))
	ws.Route(ws.GET("/users/{user}/tasks/top").To(h.topTasks))
	ws.Route(ws.GET("/users/{user}/tasks/focus").To(h.focus))
	ws.Route(ws.POST("/users/{user}/tasks/complete").Consumes(restful.MIME_JSON).To(h.complete))
	ws.Route(ws.POST("/users/{user}/tasks/purge").To(h.purge))
	ws.Route(ws.DELETE("/users/{user}/tasks/{id}").To(h.remove))
	ws.Route(ws.PUT("/users/{user}/timezone").Consumes(restful.MIME_JSON).To(h.setTimezone))
	ws.Route(ws.POST("/users/{user}/assignments").Consumes(restful.MIME_JSON).To(h.give))
	ws.Route(ws.GET("/users/{user}/assignments").To(h.pending))
	ws.Route(ws.GET("/users/{user}/inbox").To(h.inbox))

	ws.Route(ws.POST("/assignments/decision").Consumes(restful.MIME_JSON).Filter(actorFilter).To(h.decide))
	ws.Route(ws.POST("/assignments/{id}/accept").Filter(actorFilter).To(h.accept))
	ws.Route(ws.POST("/assignments/{id}/decline").Filter(actorFilter).To(h.decline))

	ws.Route(ws.GET("/healthz").To(func(_ *restful.Request, resp *restful.Response) {
		_ = resp.WriteEntity(map[string]string{"status": "OK"})
	}))

	c := restful.NewContainer()
	c.Filter(h.logFilter)
	c.Add(ws)
	if d.Gatherer != nil {
		c.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}
	return c
}
