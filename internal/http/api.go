package http

import (
	"errors"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"linkvault/internal/domain"
	"linkvault/internal/service"
)

const (
	ctxUsername = "username"
	ctxIsAdmin  = "is_admin"
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	auth      service.AuthService
	bookmarks service.BookmarkService
	users     service.UserService
	logger    *logrus.Logger
	staticDir string
}

func NewHandler(auth service.AuthService, bookmarks service.BookmarkService, users service.UserService, logger *logrus.Logger, staticDir string) *Handler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Handler{
		auth:      auth,
		bookmarks: bookmarks,
		users:     users,
		logger:    logger,
		staticDir: staticDir,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware(), h.requestLogMiddleware())

	router.GET("/status", h.status)
	router.POST("/check-username", h.checkUsername)
	router.POST("/auth", h.authenticate)
	router.POST("/verify", h.verifyToken)

	urls := router.Group("/urls", h.requireAuth())
	{
		urls.GET("", h.listBookmarks)
		urls.POST("", h.createBookmark)
		urls.PUT("", h.updateBookmark)
		urls.DELETE("/:url_id", h.deleteBookmark)
	}

	admin := router.Group("/admin", h.requireAuth(), h.requireAdmin())
	{
		admin.GET("/users", h.listUsers)
		admin.POST("/users", h.createUser)
		admin.PUT("/users", h.updateUser)
		admin.DELETE("/users", h.deleteUser)
	}

	if h.staticDir != "" {
		router.StaticFile("/", filepath.Join(h.staticDir, "client.html"))
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (h *Handler) requestLogMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Writer.Header().Set("X-Request-ID", id)

		start := time.Now()
		c.Next()

		h.logger.WithFields(logrus.Fields{
			"request_id": id,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"duration":   time.Since(start),
		}).Debug("request")
	}
}

// requireAuth resolves the raw bearer token from the Authorization header.
// Authentication failures are always reported before any role check.
func (h *Handler) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("Authorization")
		ident, err := h.auth.Identify(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid or expired token"})
			return
		}
		c.Set(ctxUsername, ident.Username)
		c.Set(ctxIsAdmin, ident.IsAdmin)
		c.Next()
	}
}

func (h *Handler) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool(ctxIsAdmin) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "Unauthorized"})
			return
		}
		c.Next()
	}
}

func (h *Handler) status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "online"})
}

type checkUsernameRequest struct {
	Username string `json:"username"`
}

func (h *Handler) checkUsername(c *gin.Context) {
	var req checkUsernameRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Username is required"})
		return
	}

	exists, needsPin, err := h.auth.CheckUsername(c.Request.Context(), req.Username)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Username is required"})
		return
	}
	if !exists {
		c.JSON(http.StatusOK, gin.H{"exists": false, "message": "Invalid username"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"exists": true, "needs_pin": needsPin})
}

type authRequest struct {
	Username     string `json:"username"`
	Pin          string `json:"pin"`
	IsSettingPin bool   `json:"is_setting_pin"`
}

func (h *Handler) authenticate(c *gin.Context) {
	var req authRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Username is required"})
		return
	}

	res, err := h.auth.Authenticate(c.Request.Context(), req.Username, req.Pin, req.IsSettingPin)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUsernameRequired):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Username is required"})
		case errors.Is(err, domain.ErrNotFound):
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid username"})
		case errors.Is(err, domain.ErrPinNotSet):
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "PIN needs to be set", "needs_pin": true})
		case errors.Is(err, domain.ErrInvalidPin):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "PIN must be 4 digits"})
		case errors.Is(err, domain.ErrAlreadyClaimed):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "PIN already set"})
		case errors.Is(err, domain.ErrIncorrectPin):
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Incorrect PIN"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		}
		return
	}

	resp := gin.H{"success": true, "token": res.Token, "is_admin": res.IsAdmin}
	if res.Claimed {
		resp["message"] = "PIN set successfully"
	}
	c.JSON(http.StatusOK, resp)
}

type verifyRequest struct {
	Token string `json:"token"`
}

func (h *Handler) verifyToken(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"valid": false, "message": "No token provided"})
		return
	}

	if !h.auth.VerifyToken(c.Request.Context(), req.Token) {
		c.JSON(http.StatusUnauthorized, gin.H{"valid": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true})
}

func (h *Handler) listBookmarks(c *gin.Context) {
	urls, err := h.bookmarks.List(c.Request.Context(), c.GetString(ctxUsername))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"urls": urls})
}

type createBookmarkRequest struct {
	URL      string `json:"url"`
	Nickname string `json:"nickname"`
}

func (h *Handler) createBookmark(c *gin.Context) {
	var req createBookmarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "URL and nickname are required"})
		return
	}

	id, err := h.bookmarks.Create(c.Request.Context(), c.GetString(ctxUsername), req.URL, req.Nickname)
	if err != nil {
		if errors.Is(err, service.ErrBookmarkFields) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "URL and nickname are required"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "url_id": id})
}

type updateBookmarkRequest struct {
	URLID    string `json:"url_id"`
	Nickname string `json:"nickname"`
}

func (h *Handler) updateBookmark(c *gin.Context) {
	var req updateBookmarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid URL ID or nickname"})
		return
	}

	err := h.bookmarks.Rename(c.Request.Context(), c.GetString(ctxUsername), req.URLID, req.Nickname)
	if err != nil {
		if errors.Is(err, service.ErrNicknameRequired) || errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid URL ID or nickname"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) deleteBookmark(c *gin.Context) {
	err := h.bookmarks.Delete(c.Request.Context(), c.GetString(ctxUsername), c.Param("url_id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid URL ID"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// userSummary is the admin view of an account. The raw PIN is shown by
// design: admins hand PINs to users out of band.
type userSummary struct {
	Created *int64 `json:"created"`
	IsAdmin bool   `json:"is_admin"`
	HasPin  bool   `json:"has_pin"`
	Pin     string `json:"pin"`
}

func (h *Handler) listUsers(c *gin.Context) {
	records := h.users.List(c.Request.Context())

	users := make(map[string]userSummary, len(records))
	for name, rec := range records {
		summary := userSummary{
			Created: rec.CreatedAt,
			IsAdmin: rec.IsAdmin,
			HasPin:  rec.Claimed(),
			Pin:     "Not Set",
		}
		if rec.PIN != nil {
			summary.Pin = *rec.PIN
		}
		users[name] = summary
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

type createUserRequest struct {
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}

func (h *Handler) createUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid or existing username"})
		return
	}

	err := h.users.Create(c.Request.Context(), req.Username, req.IsAdmin)
	if err != nil {
		if errors.Is(err, service.ErrUsernameRequired) || errors.Is(err, domain.ErrConflict) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid or existing username"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type updateUserRequest struct {
	Username string  `json:"username"`
	Pin      *string `json:"pin"`
	IsAdmin  *bool   `json:"is_admin"`
}

func (h *Handler) updateUser(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "User not found"})
		return
	}

	err := h.users.Update(c.Request.Context(), req.Username, req.Pin, req.IsAdmin)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUsernameRequired), errors.Is(err, domain.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "User not found"})
		case errors.Is(err, domain.ErrInvalidPin):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "PIN must be 4 digits"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type deleteUserRequest struct {
	Username string `json:"username"`
}

func (h *Handler) deleteUser(c *gin.Context) {
	var req deleteUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid username"})
		return
	}

	err := h.users.Delete(c.Request.Context(), req.Username, c.GetString(ctxUsername))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrSelfDeleteForbidden):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Cannot delete yourself"})
		case errors.Is(err, service.ErrUsernameRequired), errors.Is(err, domain.ErrNotFound):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid username"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
