package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	api "github.com/CodBad25/oral-dnb/internal/api/http"
	"github.com/CodBad25/oral-dnb/internal/auth"
	"github.com/CodBad25/oral-dnb/internal/config"
	"github.com/CodBad25/oral-dnb/internal/db"
	"github.com/CodBad25/oral-dnb/internal/rbac"
	"github.com/CodBad25/oral-dnb/internal/rubric"
	"github.com/CodBad25/oral-dnb/internal/store"
)

func main() {
	cfg := config.FromEnv()
	grille := rubric.Default()
	if cfg.GrillePath != "" {
		g, err := rubric.LoadFile(cfg.GrillePath)
		if err != nil {
			log.Fatalf("load grille %s: %v", cfg.GrillePath, err)
		}
		grille = g
	}

	// --- DB (optional: REMOTE_STORE=false runs cache-only) ---
	var st store.Store
	if cfg.RemoteStore {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
		if err != nil {
			log.Fatalf("db open failed: %v", err)
		}
		sqlStore := store.NewSQLStore(dbh)
		st = sqlStore
		seedAdmin(cfg, sqlStore)
	}

	authSvc := auth.NewAuthService(cfg.AuthSecret, cfg.TokenTTL, st)
	mgr := api.NewManager(api.Deps{
		Grille:   grille,
		Store:    st,
		CacheDir: cfg.CacheDir,
		Quiet:    cfg.AutosaveQuiet,
	})

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(api.MetricsMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if st != nil {
		r.Post("/auth/login", auth.LoginHandler(authSvc))
	}

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		if st != nil {
			pr.Use(auth.JWTMiddleware(authSvc))
		} else {
			pr.Use(localIdentity)
		}

		pr.Get("/grille", mgr.GetGrilleHandler())

		pr.Route("/session", func(sr chi.Router) {
			sr.Use(rbac.RequireAny("evaluation:create", "evaluation:save"))
			sr.Get("/", mgr.GetSessionHandler())
			sr.Put("/jury", mgr.SetJuryHandler())
			sr.Put("/candidate", mgr.SetCandidateHandler())
			sr.Put("/scores/{criterionID}", mgr.SetScoreHandler())
			sr.Put("/comments", mgr.SetCommentsHandler())
			sr.Put("/timers/{phase}", mgr.SetTimerHandler())
			sr.Get("/timers/{phase}", mgr.TimerStatusHandler())
			sr.Post("/timers/{phase}/start", mgr.StartTimerHandler())
			sr.Post("/timers/{phase}/pause", mgr.PauseTimerHandler())
			sr.Post("/timers/{phase}/reset", mgr.ResetTimerHandler())
			sr.Post("/steps/next", mgr.StepHandler(true))
			sr.Post("/steps/prev", mgr.StepHandler(false))
			sr.Put("/step", mgr.GoToStepHandler())
			sr.Post("/sections/next", mgr.SectionHandler(true))
			sr.Post("/sections/prev", mgr.SectionHandler(false))
			sr.Post("/next-candidate", mgr.NextCandidateHandler())
			sr.Post("/open", mgr.OpenHistoryHandler())
			sr.Post("/discard", mgr.DiscardHandler())
			sr.Post("/push", mgr.PushDraftHandler())
		})

		pr.With(rbac.Require("evaluation:view-own")).
			Get("/evaluations", mgr.ListOwnHandler())
		pr.With(rbac.RequireAny("evaluation:delete-own", "evaluation:view-all")).
			Delete("/evaluations/{id}", mgr.DeleteHandler())
		pr.With(rbac.Require("evaluation:view-all")).
			Get("/evaluations/all", mgr.ListAllHandler())
		pr.With(rbac.Require("evaluation:view-all")).
			Get("/juries", mgr.ListJuriesHandler())
		pr.With(rbac.Require("evaluation:view-all")).
			Get("/juries/{juryNumber}/evaluations", mgr.ListByJuryHandler())

		pr.With(rbac.RequireAny("analytics:own", "analytics:all")).
			Get("/analytics", mgr.AnalyticsHandler())

		pr.Route("/export", func(er chi.Router) {
			er.Use(rbac.RequireAny("export:own", "export:all"))
			er.Get("/pdf", mgr.ExportPDFHandler())
			er.Get("/pdf/all", mgr.ExportBulkPDFHandler())
			er.Get("/csv", mgr.ExportCSVHandler())
			er.Get("/ranking.csv", mgr.ExportRankingHandler())
			er.Get("/json", mgr.ExportJSONHandler())
		})

		pr.Route("/import", func(ir chi.Router) {
			ir.Use(rbac.Require("import:local"))
			ir.Get("/", mgr.ListImportsHandler())
			ir.Post("/", mgr.ImportHandler())
			ir.Delete("/{id}", mgr.RemoveImportHandler())
		})

		pr.Route("/admin", func(ar chi.Router) {
			ar.Use(rbac.Require("admin:manage"))
			ar.Post("/users", mgr.CreateUserHandler())
			ar.Get("/users", mgr.ListUsersHandler())
			ar.Post("/import", mgr.AdminImportHandler())
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Handle("/metrics", api.MetricsHandler())

	log.Printf("listening on %s (db=%s, remote=%v)", cfg.HTTPAddr, cfg.DBDriver, cfg.RemoteStore)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}

// localIdentity stands in for the JWT middleware when the remote store
// is disabled: one implicit jury account, no login.
func localIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := auth.WithIdentity(r.Context(), auth.Identity{Sub: "local", Role: "jury"})
		ctx = rbac.WithRole(ctx, "jury")
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// seedAdmin creates the bootstrap admin profile when ADMIN_PASS_HASH
// is set and the email is not registered yet.
func seedAdmin(cfg config.Config, st store.Store) {
	if cfg.AdminPassHash == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := st.ProfileByEmail(ctx, cfg.AdminEmail); err == nil {
		return
	}
	p := store.Profile{
		ID:           "admin",
		Email:        cfg.AdminEmail,
		PasswordHash: cfg.AdminPassHash,
		Role:         store.RoleAdmin,
		DisplayName:  "Administrateur",
		CreatedAt:    time.Now().Unix(),
	}
	if err := st.CreateProfile(ctx, p); err != nil {
		log.Printf("seed admin: %v", err)
	}
}
