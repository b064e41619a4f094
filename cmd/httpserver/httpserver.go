// Package httpserver manages server creation and api routing.
package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/go-petr/pet-ledger/internal/ledgerdelivery"
	"github.com/go-petr/pet-ledger/internal/middleware"
)

// Server holds the handlers router.
type Server struct {
	Engine *gin.Engine
}

// ServeHTTP implements the http.Handler interface for the Server type.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Engine.ServeHTTP(w, r)
}

// New creates Server type with the ledger routes and the metrics endpoint.
func New(service ledgerdelivery.Service, logger zerolog.Logger, gatherer prometheus.Gatherer) (*Server, error) {
	handler := ledgerdelivery.NewHandler(service)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(middleware.RequestLogger(logger))
	engine.Use(gin.Recovery())

	engine.POST("/accounts", handler.CreateAccount)
	engine.GET("/accounts", handler.FindAccount)
	engine.GET("/accounts/:id", handler.GetAccount)
	engine.POST("/accounts/:id/deposits", handler.Deposit)
	engine.POST("/accounts/:id/withdrawals", handler.Withdraw)
	engine.POST("/transfers", handler.Transfer)

	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		err := v.RegisterValidation("account_number", ledgerdelivery.ValidAccountNumber)
		if err != nil {
			return nil, errors.New("cannot register account number validator")
		}
	}

	return &Server{Engine: engine}, nil
}
