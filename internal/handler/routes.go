// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler implements the JSON API of the public site and the
// admin panel.
package handler

import (
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/olegiv/agrisite/internal/assistant"
	"github.com/olegiv/agrisite/internal/logging"
	"github.com/olegiv/agrisite/internal/middleware"
	"github.com/olegiv/agrisite/internal/model"
	"github.com/olegiv/agrisite/internal/notify"
	"github.com/olegiv/agrisite/internal/session"
	"github.com/olegiv/agrisite/internal/soillab"
	"github.com/olegiv/agrisite/internal/store"
	"github.com/olegiv/agrisite/internal/transfer"
	"github.com/olegiv/agrisite/internal/version"
)

// DefaultAITimeout bounds requests that wait on the AI provider.
const DefaultAITimeout = 150 * time.Second

// Deps holds everything the router needs.
type Deps struct {
	Store           *store.Store
	Sessions        *scs.SessionManager
	Notifier        *notify.Queue
	Events          *logging.EventLog
	Analyzer        *soillab.Analyzer
	Assistant       *assistant.Assistant
	LoginProtection *middleware.LoginProtection
	PublicLimiter   *middleware.GlobalRateLimiter
	CSRFKey         []byte
	IsDevelopment   bool
	Version         version.Info
	AITimeout       time.Duration
	// RequestLogging enables chi's access log.
	RequestLogging bool
}

// NewRouter builds the HTTP routes.
func NewRouter(d Deps) chi.Router {
	if d.AITimeout <= 0 {
		d.AITimeout = DefaultAITimeout
	}
	if d.LoginProtection == nil {
		d.LoginProtection = middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	}
	if d.PublicLimiter == nil {
		d.PublicLimiter = middleware.NewGlobalRateLimiter(2, 10)
	}

	healthHandler := NewHealthHandler(d.Store.Backend(), d.Version)
	siteHandler := NewSiteHandler(d.Store, session.NewVisits(d.Sessions))
	formsHandler := NewFormsHandler(d.Store, d.Notifier)
	chatHandler := NewChatHandler(d.Assistant, d.Store)
	soilHandler := NewSoilLabHandler(d.Analyzer, d.Store)
	authHandler := NewAuthHandler(d.Store, d.Sessions, d.LoginProtection)
	adminHandler := NewAdminHandler(d.Store, d.Events)
	usersHandler := NewUsersHandler(d.Store)
	blogHandler := NewBlogHandler(d.Store, d.Assistant)
	backupHandler := NewBackupHandler(
		transfer.NewExporter(d.Store),
		transfer.NewImporter(d.Store, d.Store.Logger()),
	)

	csrfConfig := middleware.DefaultCSRFConfig(d.CSRFKey, d.IsDevelopment)
	csrfConfig.Logger = d.Store.Logger()
	csrfMiddleware := middleware.CSRF(csrfConfig)
	aiTimeout := middleware.Timeout(d.AITimeout)
	limited := d.PublicLimiter.Middleware()

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	if d.RequestLogging {
		r.Use(chimw.Logger)
	}
	r.Use(chimw.Recoverer)
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityConfig(d.IsDevelopment)))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		WriteNotFound(w, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed", nil)
	})

	r.Get("/health", healthHandler.Health)

	// Public API
	r.Route("/api", func(r chi.Router) {
		// Long-lived stream: no session or timeout
		r.Get("/site/stream", siteHandler.Stream)

		r.Group(func(r chi.Router) {
			r.Use(d.Sessions.LoadAndSave)
			r.Use(csrfMiddleware)

			r.Get("/site", siteHandler.Site)
			r.Get("/blog", siteHandler.Blog)
			r.Get("/blog/{slug}", siteHandler.BlogPost)
			r.Get("/soil-lab/history", soilHandler.History)
			r.Get("/notifications", formsHandler.Notifications)
			r.Delete("/notifications/{id}", formsHandler.DismissNotification)

			r.Group(func(r chi.Router) {
				r.Use(limited)
				r.Post("/visits/{page}", siteHandler.RecordVisit)
				r.Post("/subscribe", formsHandler.Subscribe)
				r.Post("/contact", formsHandler.Contact)
			})

			r.Group(func(r chi.Router) {
				r.Use(limited)
				r.Use(aiTimeout)
				r.Post("/chat", chatHandler.Chat)
				r.Post("/soil-lab/analyze", soilHandler.Analyze)
				r.Post("/soil-lab/rotation-plan", soilHandler.RotationPlan)
			})
		})
	})

	// Authentication
	r.Group(func(r chi.Router) {
		r.Use(d.Sessions.LoadAndSave)
		r.Use(csrfMiddleware)
		r.With(d.LoginProtection.Middleware()).Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
	})

	// Admin API
	r.Route("/admin/api", func(r chi.Router) {
		r.Use(d.Sessions.LoadAndSave)
		r.Use(csrfMiddleware)
		r.Use(middleware.Auth(d.Sessions, d.Store))
		r.Use(middleware.RequireRole(model.RoleEditor))

		r.Get("/me", authHandler.Me)
		r.Get("/dashboard", adminHandler.Dashboard)
		r.Get("/site", adminHandler.Site)
		r.Put("/sections/{section}", adminHandler.UpdateSection)

		r.Route("/blog", func(r chi.Router) {
			r.Get("/", blogHandler.List)
			r.Post("/", blogHandler.Create)
			r.Post("/empty-trash", blogHandler.EmptyTrash)
			r.With(aiTimeout).Post("/generate", blogHandler.Generate)
			r.Get("/{id}", blogHandler.Get)
			r.Put("/{id}", blogHandler.Update)
			r.Delete("/{id}", blogHandler.Delete)
			r.Post("/{id}/trash", blogHandler.Trash)
			r.Post("/{id}/restore", blogHandler.Restore)
		})

		r.Get("/subscribers", adminHandler.Subscribers)
		r.Get("/messages", adminHandler.ContactMessages)
		r.Get("/chats", adminHandler.ChatHistory)
		r.Get("/soil-lab/history", soilHandler.History)
		r.Get("/soil-lab/export.csv", soilHandler.ExportCSV)

		// Admin only
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin())
			r.Get("/users", usersHandler.List)
			r.Post("/users", usersHandler.Create)
			r.Delete("/users/{id}", usersHandler.Delete)
			r.Get("/backup", backupHandler.Download)
			r.Post("/backup", backupHandler.Restore)
			r.Post("/reset", adminHandler.Reset)
		})
	})

	return r
}
