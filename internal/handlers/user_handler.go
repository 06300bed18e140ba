package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/service"
	"storefront/internal/storage"
)

type UserHandler struct {
	users     *service.UserService
	maxUpload int64
	log       *logrus.Logger
}

func NewUserHandler(users *service.UserService, maxUpload int64, logger *logrus.Logger) *UserHandler {
	return &UserHandler{
		users:     users,
		maxUpload: maxUpload,
		log:       logger,
	}
}

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type userResponse struct {
	Message string            `json:"message"`
	User    models.PublicUser `json:"user"`
}

// POST /api/register
func (h *UserHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "name, email and password are required")
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, userResponse{Message: "user registered successfully", User: user.Public()})
}

// POST /api/login
func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "email and password are required")
		return
	}

	user, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, userResponse{Message: "login successful", User: user.Public()})
}

// POST /api/logout. No hay sesión en el servidor; el cliente descarta su estado.
func (h *UserHandler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, MessageResponse{Message: "logged out successfully"})
}

// GET /api/users/me
func (h *UserHandler) GetMe(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return
	}
	c.JSON(http.StatusOK, user.Public())
}

// PUT /api/users/me (multipart: name, password, profileImage)
func (h *UserHandler) UpdateMe(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return
	}

	var in service.ProfileUpdate
	fh, err := formFile(c, "profileImage", h.maxUpload)
	switch {
	case err == nil:
		in.Image = fh
	case errors.Is(err, storage.ErrNoFile):
	default:
		respondError(c, h.log, err)
		return
	}

	if name, ok := c.GetPostForm("name"); ok {
		in.Name = &name
	}
	// Una contraseña vacía en el formulario significa "sin cambios"
	if password := c.PostForm("password"); password != "" {
		in.Password = &password
	}

	updated, err := h.users.UpdateProfile(c.Request.Context(), user.ID.Hex(), in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, userResponse{Message: "profile updated successfully", User: updated.Public()})
}

// POST /api/upload-profile-image
func (h *UserHandler) UploadProfileImage(c *gin.Context) {
	fh, err := formFile(c, "profileImage", h.maxUpload)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	filename, err := h.users.UploadProfileImage(fh)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"filename": filename})
}

// GET /api/users
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	public := make([]models.PublicUser, 0, len(users))
	for i := range users {
		public = append(public, users[i].Public())
	}
	c.JSON(http.StatusOK, public)
}

// PUT /api/users/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	var upd models.UserUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		badRequest(c, err.Error())
		return
	}

	user, err := h.users.AdminUpdate(c.Request.Context(), c.Param("id"), upd)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, user.Public())
}

// DELETE /api/users/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	if err := h.users.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "user deleted successfully"})
}
