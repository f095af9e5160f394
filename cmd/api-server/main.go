package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/nrednav/cuid2"

	"github.com/qwestive/qwestive-api/internal/boot"
	"github.com/qwestive/qwestive-api/internal/chain"
	"github.com/qwestive/qwestive-api/internal/handlers"
	"github.com/qwestive/qwestive-api/internal/model"
	"github.com/qwestive/qwestive-api/internal/recordstore"
	"github.com/qwestive/qwestive-api/internal/service/auth"
	"github.com/qwestive/qwestive-api/internal/service/holdings"
	"github.com/qwestive/qwestive-api/internal/service/settings"
	"github.com/qwestive/qwestive-api/internal/service/vote"
	"github.com/qwestive/qwestive-api/pkg/session"
)

func main() {
	config, err := boot.Load()
	if err != nil {
		log.Fatalf("boot: %+v", err)
	}

	store, err := recordstore.New("file:" + config.DatabasePath + "?_busy_timeout=5000")
	if err != nil {
		log.Fatalf("opening record store: %+v", err)
	}
	defer store.Close()

	sessions := session.NewIssuer([]byte(config.Session.Secret), config.Session.Validity)
	chainClient := chain.NewClient(config.RPCEndpoint)

	authService := auth.New(store, sessions)
	holdingsService := holdings.New(store, chainClient)
	voteService := vote.New(store)
	settingsService := settings.New(store)

	server := echo.New()
	server.Use(middleware.BodyLimit("1M"))
	server.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string {
			return cuid2.Generate()
		},
	}))
	server.Use(echoprometheus.NewMiddleware("qwestive"))
	server.Use(middleware.Recover())

	server.Logger.SetLevel(log.INFO)
	server.HTTPErrorHandler = handlers.ErrorHandler

	headers := []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization}
	server.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     strings.Split(config.Server.Origins, ","),
		AllowHeaders:     headers,
		AllowCredentials: true,
	}))

	server.POST("/auth/checkin", handlers.CheckIn(authService))
	server.POST("/auth/signin", handlers.SignIn(authService))
	server.GET("/user/:id/publickey", handlers.PublicKey())

	authed := server.Group("", handlers.Session(sessions))
	authed.POST("/account/tokens/refresh", handlers.RefreshHoldings(holdingsService))
	authed.POST("/account/username", handlers.EditUserName(settingsService))
	authed.POST("/posts/:id/upvote", handlers.VotePost(voteService, model.VoteUp))
	authed.POST("/posts/:id/downvote", handlers.VotePost(voteService, model.VoteDown))
	authed.POST("/comments/:id/upvote", handlers.VoteComment(voteService, model.VoteUp))
	authed.POST("/comments/:id/downvote", handlers.VoteComment(voteService, model.VoteDown))

	go func() {
		metrics := echo.New()
		metrics.GET("/metrics", echoprometheus.NewHandler())
		if err := metrics.Start(":" + config.Server.MetricsPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	go func() {
		if err := server.Start(":" + config.Server.Port); err != nil && err != http.ErrServerClosed {
			server.Logger.Fatal("shutting down the server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		server.Logger.Fatal(err)
	}
}
