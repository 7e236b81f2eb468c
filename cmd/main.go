package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
	"golang.org/x/text/language"

	"github.com/Bazamus/lista-compra-inteligente-sub000/internal/cart"
	"github.com/Bazamus/lista-compra-inteligente-sub000/internal/config"
	"github.com/Bazamus/lista-compra-inteligente-sub000/internal/favorites"
	h "github.com/Bazamus/lista-compra-inteligente-sub000/internal/http"
	"github.com/Bazamus/lista-compra-inteligente-sub000/internal/identity"
	"github.com/Bazamus/lista-compra-inteligente-sub000/internal/keyed"
	"github.com/Bazamus/lista-compra-inteligente-sub000/internal/kv"
	"github.com/Bazamus/lista-compra-inteligente-sub000/internal/ordering"
	"github.com/Bazamus/lista-compra-inteligente-sub000/internal/poller"
	"github.com/Bazamus/lista-compra-inteligente-sub000/internal/profile"
	"github.com/Bazamus/lista-compra-inteligente-sub000/internal/progress"
	"github.com/Bazamus/lista-compra-inteligente-sub000/internal/repository"
)

func main() {
	cfg, err := config.Load(os.Getenv("LISTA_CONFIG_FILE"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	medium, closeMedium, err := buildMedium(cfg)
	if err != nil {
		log.Fatalf("Failed to set up storage: %v", err)
	}
	defer closeMedium()
	log.Printf("Storage backend: %s", cfg.Storage)

	store := keyed.NewStore(medium, logger)
	provider := identity.NewProvider(medium, logger)

	lang, err := language.Parse(cfg.CollationLang)
	if err != nil {
		log.Fatalf("Invalid collation language %q: %v", cfg.CollationLang, err)
	}

	carts := cart.NewEngine(store, logger)
	orders := ordering.NewEngine(store, lang, logger)
	tracker := progress.NewTracker(store, logger)

	// Remote store is optional; without it favorites run local-only and
	// the profile endpoint reports the remote as disabled.
	ctx := context.Background()
	var favoriteRepo repository.FavoriteRepository
	var fetcher *profile.Fetcher
	cache := profile.NewCache()
	if cfg.MongoURI != "" {
		mongoDB, err := repository.ConnectMongoDB(ctx, cfg)
		if err != nil {
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		defer mongoDB.Client().Disconnect(ctx)

		repo := repository.NewMongoRepository(mongoDB)
		if err := repo.CreateIndexes(ctx); err != nil {
			log.Fatalf("Failed to create indexes: %v", err)
		}
		favoriteRepo = repository.NewBreakerFavoriteRepository(repo)
		fetcher = profile.NewFetcher(cache, repo)
		log.Printf("Connected to MongoDB at %s", cfg.MongoURI)
	}

	favs := favorites.NewSync(store, favoriteRepo, logger)

	cartHandler := h.NewCartHandler(carts)
	listHandler := h.NewListHandler(orders, tracker)
	favoritesHandler := h.NewFavoritesHandler(favs, fetcher, cache)

	// Setup router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(h.RequestIDMiddleware)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.Compress(5))
	r.Use(h.IdentityMiddleware(provider))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{product_id}", cartHandler.UpdateQuantity)
			r.Delete("/items/{product_id}", cartHandler.RemoveItem)
			r.Post("/items/{product_id}/increment", cartHandler.Increment)
			r.Post("/items/{product_id}/decrement", cartHandler.Decrement)
		})
		r.Route("/order", func(r chi.Router) {
			r.Put("/", listHandler.Reorder)
			r.Patch("/", listHandler.MoveSingle)
			r.Post("/sort", listHandler.Sort)
			r.Delete("/", listHandler.ResetOrder)
		})
		r.Route("/progress", func(r chi.Router) {
			r.Post("/init", listHandler.InitProgress)
			r.Post("/toggle", listHandler.ToggleProgress)
			r.Get("/", listHandler.GetProgress)
			r.Post("/finish", listHandler.FinishProgress)
			r.Post("/reset", listHandler.ResetProgress)
		})
		r.Route("/favorites", func(r chi.Router) {
			r.Get("/", favoritesHandler.GetFavorites)
			r.Post("/toggle/{product_id}", favoritesHandler.Toggle)
			r.Delete("/", favoritesHandler.Clear)
		})
		r.Get("/profile", favoritesHandler.GetProfile)
		r.Post("/signout", favoritesHandler.SignOut)
	})

	// Trip-completed consumer
	pollerCtx, stopPoller := context.WithCancel(ctx)
	defer stopPoller()
	if len(cfg.KafkaBrokers) > 0 {
		p := poller.NewPoller(carts, tracker, logger, cfg.KafkaTopic, cfg.KafkaBrokers...)
		defer p.Close()
		go p.Run(pollerCtx)
		log.Printf("Trip-completed consumer listening on %s", cfg.KafkaTopic)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("lista-compra core listening on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	stopPoller()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("server exited")
}

func buildMedium(cfg *config.Config) (kv.Medium, func(), error) {
	switch cfg.Storage {
	case config.StorageMemory:
		return kv.NewMemory(), func() {}, nil
	case config.StorageRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, nil, err
		}
		return kv.NewRedis(client), func() { client.Close() }, nil
	default:
		medium, err := kv.NewFile(afero.NewOsFs(), cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return medium, func() {}, nil
	}
}
