package profile

import (
	"errors"
	"net/http"
	"strconv"

	"studioslot/internal/api"
	"studioslot/internal/auth"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Register godoc
// @Summary      Register new member
// @Description  Creates a member account and returns access & refresh tokens.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      RegisterRequest  true  "Registration data"
// @Success      201      {object}  LoginResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      409      {object}  api.ErrorResponse
// @Router       /auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondBindingError(c, err)
		return
	}

	resp, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: "Email already registered"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to register"})
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Login godoc
// @Summary      Log in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      LoginRequest  true  "Credentials"
// @Success      200      {object}  LoginResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      401      {object}  api.ErrorResponse
// @Router       /auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondBindingError(c, err)
		return
	}

	resp, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Invalid email or password"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to log in"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Refresh godoc
// @Summary      Refresh access token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      RefreshRequest  true  "Refresh token"
// @Success      200      {object}  map[string]string
// @Failure      400      {object}  api.ErrorResponse
// @Failure      401      {object}  api.ErrorResponse
// @Router       /auth/refresh [post]
func (h *Handler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondBindingError(c, err)
		return
	}

	accessToken, err := h.service.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Invalid refresh token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"access_token": accessToken})
}

// Logout godoc
// @Summary      Log out
// @Tags         auth
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  api.MessageResponse
// @Router       /auth/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	h.service.Logout(c.Request.Context())
	c.JSON(http.StatusOK, api.MessageResponse{Message: "Logged out"})
}

// GetMe godoc
// @Summary      Current profile
// @Tags         profiles
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  User
// @Failure      401  {object}  api.ErrorResponse
// @Router       /me [get]
func (h *Handler) GetMe(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	user, err := h.service.GetByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "User not found"})
		return
	}

	c.JSON(http.StatusOK, user)
}

// ListMembers godoc
// @Summary      List members
// @Description  Returns all registered members. Admin only.
// @Tags         profiles
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   User
// @Failure      500  {object}  api.ErrorResponse
// @Router       /admin/members [get]
func (h *Handler) ListMembers(c *gin.Context) {
	users, err := h.service.ListMembers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch members"})
		return
	}

	c.JSON(http.StatusOK, users)
}

// CreateMember godoc
// @Summary      Create member
// @Description  Staff-side member creation. Admin only.
// @Tags         profiles
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      CreateMemberRequest  true  "Member data"
// @Success      201      {object}  User
// @Failure      400      {object}  api.ErrorResponse
// @Failure      409      {object}  api.ErrorResponse
// @Router       /admin/members [post]
func (h *Handler) CreateMember(c *gin.Context) {
	var req CreateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondBindingError(c, err)
		return
	}

	user, err := h.service.CreateMember(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: "Email already registered"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to create member"})
		return
	}

	c.JSON(http.StatusCreated, user)
}

// SetRole godoc
// @Summary      Toggle member role
// @Description  Sets a member's role. Admin only; admins cannot change their own role.
// @Tags         profiles
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        memberID  path      int             true  "Member ID"
// @Param        request   body      SetRoleRequest  true  "New role"
// @Success      200       {object}  api.MessageResponse
// @Failure      400       {object}  api.ErrorResponse
// @Failure      404       {object}  api.ErrorResponse
// @Failure      409       {object}  api.ErrorResponse
// @Router       /admin/members/{memberID}/role [put]
func (h *Handler) SetRole(c *gin.Context) {
	callerID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	memberID, err := strconv.Atoi(c.Param("memberID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid member ID"})
		return
	}

	var req SetRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondBindingError(c, err)
		return
	}

	err = h.service.SetRole(c.Request.Context(), callerID, memberID, req.Role)
	if err != nil {
		switch {
		case errors.Is(err, ErrSelfDemotion):
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: "Admins cannot change their own role"})
		case errors.Is(err, ErrUserNotFound):
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Member not found"})
		default:
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to update role"})
		}
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "Role updated"})
}
