// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/olegiv/blogicum/internal/config"
	"github.com/olegiv/blogicum/internal/handler"
	"github.com/olegiv/blogicum/internal/middleware"
	"github.com/olegiv/blogicum/internal/render"
	"github.com/olegiv/blogicum/internal/version"
)

// routerDeps is everything newRouter wires into handlers.
type routerDeps struct {
	cfg             *config.Config
	db              *sql.DB
	dataDir         string
	sessionManager  *scs.SessionManager
	renderer        *render.Renderer
	sidebar         handler.CacheInvalidator
	jobs            handler.JobLister
	cacheStats      handler.CacheStatsReporter
	loginProtection *middleware.LoginProtection
	version         *version.Info
}

func newRouter(d routerDeps) http.Handler {
	blogHandler := handler.NewBlogHandler(d.db, d.renderer, d.cfg.PostsPerPage)
	postHandler := handler.NewPostHandler(d.db, d.renderer, d.sidebar, d.cfg.Location())
	authHandler := handler.NewAuthHandler(d.db, d.renderer, d.sessionManager, d.loginProtection)
	profileHandler := handler.NewProfileHandler(d.db, d.renderer)
	pagesHandler := handler.NewPagesHandler(d.renderer)
	healthHandler := handler.NewHealthHandler(d.db, d.dataDir, d.jobs, d.cacheStats, d.version)

	csrfConfig := middleware.DefaultCSRFConfig([]byte(d.cfg.SessionSecret), d.cfg.IsDevelopment(), d.cfg.ServerAddr())
	csrfConfig.ErrorHandler = http.HandlerFunc(pagesHandler.CSRFFailure)

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	if d.cfg.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.RequestPath)
	r.Use(chimw.Logger)
	r.Use(chimw.Compress(5))
	// Session data must be loaded before anything that renders a page.
	r.Use(d.sessionManager.LoadAndSave)
	r.Use(middleware.Recover(pagesHandler.Panic))
	r.Use(middleware.StripTrailingSlash)
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(d.cfg.IsDevelopment())))
	r.Use(middleware.CSRF(csrfConfig))
	r.Use(middleware.LoadUser(d.sessionManager, d.db))
	r.Use(middleware.NewGlobalRateLimiter(5, 20).Middleware())
	r.Use(chimw.Timeout(20 * time.Second))

	r.Get(handler.RouteHealth, healthHandler.Health)
	r.Get(handler.RouteHealthLive, healthHandler.Liveness)
	r.Get(handler.RouteHealthReady, healthHandler.Readiness)

	r.Get(handler.RouteRoot, blogHandler.Index)
	r.Get(handler.RouteCategorySlug, blogHandler.Category)
	r.Get(handler.RouteProfileUsername, blogHandler.Profile)
	r.Get(handler.RoutePostsID, blogHandler.PostDetail)

	r.Get(handler.RoutePagesAbout, pagesHandler.About)
	r.Get(handler.RoutePagesRules, pagesHandler.Rules)

	r.Get(handler.RouteRegistration, authHandler.Registration)
	r.Post(handler.RouteRegistration, authHandler.Register)
	r.Get(handler.RouteLogin, authHandler.LoginForm)
	r.With(d.loginProtection.Middleware()).Post(handler.RouteLogin, authHandler.Login)
	r.Get(handler.RouteLogout, authHandler.Logout)
	r.Post(handler.RouteLogout, authHandler.Logout)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireLogin)

		r.Get(handler.RoutePostsCreate, postHandler.NewPost)
		r.Post(handler.RoutePostsCreate, postHandler.CreatePost)
		r.Get(handler.RoutePostsEdit, postHandler.EditPost)
		r.Post(handler.RoutePostsEdit, postHandler.UpdatePost)
		r.Get(handler.RoutePostsDelete, postHandler.DeletePost)
		r.Post(handler.RoutePostsDelete, postHandler.DeletePost)

		r.Post(handler.RoutePostsID, blogHandler.AddComment)
		r.Get(handler.RoutePostsComment, blogHandler.NewComment)
		r.Post(handler.RoutePostsComment, blogHandler.AddCommentForm)
		r.Get(handler.RouteCommentEdit, blogHandler.EditComment)
		r.Post(handler.RouteCommentEdit, blogHandler.EditComment)
		r.Get(handler.RouteCommentDelete, blogHandler.DeleteComment)
		r.Post(handler.RouteCommentDelete, blogHandler.DeleteComment)

		r.Get(handler.RouteProfileEdit, profileHandler.EditForm)
		r.Post(handler.RouteProfileEdit, profileHandler.Update)

		r.Get(handler.RoutePasswordChange, authHandler.PasswordChangeForm)
		r.Post(handler.RoutePasswordChange, authHandler.PasswordChange)
		r.Get(handler.RoutePasswordChangeDone, authHandler.PasswordChangeDone)
	})

	r.NotFound(pagesHandler.NotFound)

	return r
}
