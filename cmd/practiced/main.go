package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"

	api "github.com/lessonlab/practice-engine/internal/api/http"
	"github.com/lessonlab/practice-engine/internal/auth"
	authmw "github.com/lessonlab/practice-engine/internal/auth/middleware"
	"github.com/lessonlab/practice-engine/internal/config"
	"github.com/lessonlab/practice-engine/internal/content"
	"github.com/lessonlab/practice-engine/internal/db"
	"github.com/lessonlab/practice-engine/internal/progress"
	"github.com/lessonlab/practice-engine/internal/rbac"
	"github.com/lessonlab/practice-engine/internal/storage"
)

func main() {
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}

	// --- Content catalog ---
	provider := content.NewSQLStore(dbh, cfg.DBDriver)
	if n, err := content.LoadPacks(ctx, cfg.ContentDir, provider); err != nil {
		log.Fatalf("lesson packs: %v", err)
	} else if n > 0 {
		log.Printf("loaded %d lesson pack(s) from %s", n, cfg.ContentDir)
	}

	// --- Progress store ---
	var progStore progress.Store
	switch cfg.ProgressDriver {
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("redis ping: %v", err)
		}
		progStore = progress.NewRedisStore(rdb)
	default:
		progStore = progress.NewSQLStore(dbh, cfg.DBDriver)
	}
	events := progress.NewEventRepo(dbh)

	hub := api.NewHub(provider, progStore, events)

	// --- Auth (local JWT for offline/dev) ---
	authSvc := authmw.NewAuthService(cfg.AuthSecret)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	origins := cfg.CORSOriginsOffline
	if cfg.Mode == config.ModeOnline {
		origins = cfg.CORSOriginsOnline
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if cfg.EnableLocalAuth {
		r.Post("/auth/login", auth.LoginHandler(authSvc, dbh, cfg))
		r.Post("/auth/register", auth.RegisterHandler(authSvc, dbh))
	}
	if cfg.EnableGuestAuth {
		r.Post("/auth/guest", auth.GuestLoginHandler(authSvc, dbh, cfg))
	}

	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(authmw.JWTMiddleware(authSvc))

		// Authoring
		pr.With(rbac.Require("lesson:create")).
			Post("/lessons", api.UploadLessonHandler(provider))
		pr.With(rbac.Require("asset:upload")).
			Post("/assets", api.UploadAssetHandler(bs))
		pr.With(rbac.Require("progress:events")).
			Get("/progress/events", api.ListEventsHandler(events))

		// Catalog
		pr.With(rbac.Require("lesson:view")).
			Get("/lessons", api.ListLessonsHandler(provider))
		pr.With(rbac.Require("lesson:view")).
			Get("/lessons/{lessonID}", api.GetLessonHandler(provider))
		pr.With(rbac.Require("lesson:view")).
			Get("/assets/*", api.ServeAssetHandler(bs))
		pr.With(rbac.RequireAny("practice:view-own", "practice:view-all")).
			Get("/lessons/{lessonID}/progress", api.LessonProgressHandler(progStore))

		// Practice flow
		pr.Route("/lessons/{lessonID}/sections/{sectionID}", func(sr chi.Router) {
			sr.With(rbac.RequireAny("practice:view-own", "practice:view-all")).
				Get("/", api.OpenSectionHandler(hub))
			sr.With(rbac.RequireAny("practice:view-own", "practice:view-all")).
				Get("/score", api.ScoreHandler(hub))
			sr.With(rbac.Require("practice:submit")).
				Post("/submit", api.SubmitMainHandler(hub))
			sr.With(rbac.Require("practice:submit")).
				Post("/submit-step", api.SubmitStepHandler(hub))
			sr.With(rbac.Require("practice:submit")).
				Post("/select", api.SelectOptionHandler(hub))
			sr.With(rbac.Require("practice:navigate")).
				Post("/goto", api.GoToHandler(hub))
			sr.With(rbac.Require("practice:restart")).
				Post("/restart", api.RestartSectionHandler(hub))
			sr.With(rbac.Require("practice:retry")).
				Post("/retry", api.RetryWrongHandler(hub))
			sr.With(rbac.Require("practice:view-own")).
				Delete("/", api.CloseSectionHandler(hub))
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s (mode=%s, db=%s, progress=%s)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver, cfg.ProgressDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
