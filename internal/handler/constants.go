// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

// Route pattern constants for chi router registration.
const (
	// RouteRoot is the root path.
	RouteRoot = "/"

	// RouteParamID is the post ID parameter pattern.
	RouteParamID = "/{id}"
	// RouteParamCommentID is the comment ID parameter pattern.
	RouteParamCommentID = "/{cid}"

	// RoutePosts is the posts prefix.
	RoutePosts = "/posts"
	// RoutePostsCreate is the create post route.
	RoutePostsCreate = RoutePosts + "/create"
	// RoutePostsID is the post detail route pattern.
	RoutePostsID = RoutePosts + RouteParamID
	// RoutePostsEdit is the edit post route pattern.
	RoutePostsEdit = RoutePostsID + "/edit"
	// RoutePostsDelete is the delete post route pattern.
	RoutePostsDelete = RoutePostsID + "/delete"
	// RoutePostsComment is the add comment route pattern.
	RoutePostsComment = RoutePostsID + "/comment"
	// RouteCommentEdit is the edit comment route pattern.
	RouteCommentEdit = RoutePostsComment + RouteParamCommentID + "/edit"
	// RouteCommentDelete is the delete comment route pattern.
	RouteCommentDelete = RoutePostsComment + RouteParamCommentID + "/delete"

	// RouteCategorySlug is the category slug route pattern.
	RouteCategorySlug = "/category/{slug}"

	// RouteProfileEdit is the edit own profile route.
	RouteProfileEdit = "/profile/edit"
	// RouteProfileUsername is the public profile route pattern.
	RouteProfileUsername = "/profile/{username}"

	// RouteAuth is the auth prefix.
	RouteAuth = "/auth"
	// RouteRegistration is the sign-up route.
	RouteRegistration = RouteAuth + "/registration"
	// RouteLogin is the login route.
	RouteLogin = RouteAuth + "/login"
	// RouteLogout is the logout route.
	RouteLogout = RouteAuth + "/logout"
	// RoutePasswordChange is the password change route.
	RoutePasswordChange = RouteAuth + "/password_change"
	// RoutePasswordChangeDone is shown after a password change.
	RoutePasswordChangeDone = RoutePasswordChange + "/done"

	// RoutePagesAbout is the about page.
	RoutePagesAbout = "/pages/about"
	// RoutePagesRules is the rules page.
	RoutePagesRules = "/pages/rules"

	// RouteHealth is the health check route.
	RouteHealth = "/health"
	// RouteHealthLive is the liveness probe route.
	RouteHealthLive = RouteHealth + "/live"
	// RouteHealthReady is the readiness probe route.
	RouteHealthReady = RouteHealth + "/ready"
)

const (
	redirectPost    = RoutePosts + "/%d"
	redirectProfile = "/profile/"
	redirectLogin   = RouteLogin
)

// Template names, as registered by the renderer.
const (
	tmplIndex            = "blog/index"
	tmplCategory         = "blog/category"
	tmplProfile          = "blog/profile"
	tmplDetail           = "blog/detail"
	tmplPostForm         = "blog/create"
	tmplPostDelete       = "blog/delete"
	tmplComment          = "blog/comment"
	tmplCommentDelete    = "blog/comment_delete"
	tmplProfileEdit      = "blog/user"
	tmplLogin            = "registration/login"
	tmplRegistration     = "registration/registration_form"
	tmplPasswordChange   = "registration/password_change_form"
	tmplPasswordChangeOK = "registration/password_change_done"
	tmplAbout            = "pages/about"
	tmplRules            = "pages/rules"
	tmplNotFound         = "pages/404"
	tmplCSRFFailure      = "pages/403csrf"
	tmplServerError      = "pages/500"
)

// formErrorKey holds errors that do not belong to a single field.
const formErrorKey = "form"

const (
	headerContentType = "Content-Type"
	contentTypeJSON   = "application/json"
)
