package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tm-acme-shop/acme-shop-orders-users/internal/auth"
	"github.com/tm-acme-shop/acme-shop-orders-users/internal/logging"
	"github.com/tm-acme-shop/acme-shop-orders-users/internal/models"
)

// Register handles POST /users/register
func (h *UserHandlers) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	user, err := h.userService.Register(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.RegisterResponse{ID: user.ID, Email: user.Email})
}

// IssueToken handles POST /token
func (h *UserHandlers) IssueToken(c *gin.Context) {
	var req models.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	resp, err := h.userService.IssueToken(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// VerifyToken handles POST /verify-token
func (h *UserHandlers) VerifyToken(c *gin.Context) {
	token, ok := auth.BearerToken(c.GetHeader("Authorization"))
	if !ok {
		abortUnauthorized(c, msgNotAuthenticated)
		return
	}

	identity, err := h.userService.VerifyToken(c.Request.Context(), token)
	if err != nil {
		h.logger.WithContext(c.Request.Context()).Debug("Rejected token", logging.Fields{
			auth.LogFieldTokenPrefix: auth.TokenPrefix(token),
		})
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, identity)
}
