package server

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"subdel/internal/auth"
	"subdel/internal/config"
	"subdel/internal/database"
	"subdel/internal/handler"
	"subdel/internal/service"
	"subdel/web"
)

func Start(cfg *config.Config, version string) error {
	db, err := database.Open(cfg.Database.DSN, web.MigrationsFS())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	base, err := service.NewZoneGateway(cfg.Base)
	if err != nil {
		return fmt.Errorf("failed to init base DNS gateway: %w", err)
	}
	sub, err := service.NewZoneGateway(cfg.Sub)
	if err != nil {
		return fmt.Errorf("failed to init sub DNS gateway: %w", err)
	}

	settings := service.ZoneSettings{
		BaseDomain: cfg.DNS.BaseDomain,
		InternalNS: cfg.DNS.InternalNS,
		SOAMName:   cfg.DNS.SOAMName,
		SOARName:   cfg.DNS.SOARName,
		Reserved:   cfg.Reserved(),
	}

	provisioner := service.NewProvisioner(settings, base, sub, db)
	switcher := service.NewSwitcher(settings, base, db)

	publicH := handler.NewPublicHandler(provisioner, db, db)
	zoneH := handler.NewZoneHandler(sub, settings, db)
	profileH := handler.NewProfileHandler(switcher, db)
	auditH := handler.NewAuditHandler(db)
	authn := auth.New(db)

	start := time.Now()

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"ok":true,"version":%q,"uptime_sec":%d}`, version, int(time.Since(start).Seconds()))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/signup", publicH.Signup)
		r.Post("/signin", publicH.Signin)
		r.Get("/subdomain/check", publicH.CheckSubdomain)

		r.Group(func(r chi.Router) {
			r.Use(authn.Middleware)
			r.Get("/zone", zoneH.Get)
			r.Put("/zone", zoneH.Put)
			r.Get("/profile", profileH.Get)
			r.Post("/ns-mode/internal", profileH.SetNSInternal)
			r.Post("/ns-mode/external", profileH.SetNSExternal)
			r.Get("/audit", auditH.List)
		})
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("subdel server starting on %s", addr)
	return httpServer.ListenAndServe()
}
