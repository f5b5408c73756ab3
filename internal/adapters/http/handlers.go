// Package http exposes the party directory over REST for collaborator
// services and clients.
package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/reelmates/watchparty/internal/core"
	"github.com/reelmates/watchparty/internal/domain"
)

type PartyHandler struct {
	Directory core.PartyDirectory
	Log       core.MessageLog
}

func bearerToken(c *gin.Context) string {
	if t := c.Query("token"); t != "" {
		return t
	}
	return strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
}

func currentUser(c *gin.Context) domain.UserID {
	return domain.UserID(c.GetString("user_id"))
}

// statusOf maps the directory error taxonomy to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateTitle), errors.Is(err, domain.ErrAlreadyMember):
		return http.StatusConflict
	case errors.Is(err, domain.ErrPasswordRequired), errors.Is(err, domain.ErrInvalidPassword):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrInvalidTag),
		errors.Is(err, domain.ErrTitleEmpty),
		errors.Is(err, domain.ErrTitleTooLong),
		errors.Is(err, domain.ErrDisplayNameEmpty),
		errors.Is(err, domain.ErrDisplayNameTooLong):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, err error) {
	c.JSON(statusOf(err), gin.H{"error": err.Error()})
}

type CreatePartyRequest struct {
	Title       string `json:"title" binding:"required"`
	IsPrivate   bool   `json:"is_private"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name" binding:"required"`
}

func (h *PartyHandler) CreateParty(c *gin.Context) {
	var req CreatePartyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid fields"})
		return
	}
	if err := domain.ValidDisplayName(req.DisplayName); err != nil {
		fail(c, err)
		return
	}

	p, err := h.Directory.Create(c.Request.Context(), req.Title, req.IsPrivate, req.Password, currentUser(c), req.DisplayName)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *PartyHandler) ListParties(c *gin.Context) {
	parties, err := h.Directory.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, parties)
}

func (h *PartyHandler) GetParty(c *gin.Context) {
	p, err := h.Directory.Get(c.Request.Context(), domain.PartyID(c.Param("id")))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

type JoinPartyRequest struct {
	DisplayName string `json:"display_name" binding:"required"`
	Password    string `json:"password"`
}

func (h *PartyHandler) JoinParty(c *gin.Context) {
	var req JoinPartyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid fields"})
		return
	}
	if err := domain.ValidDisplayName(req.DisplayName); err != nil {
		fail(c, err)
		return
	}

	p, err := h.Directory.Join(c.Request.Context(), domain.PartyID(c.Param("id")), currentUser(c), req.DisplayName, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *PartyHandler) LeaveParty(c *gin.Context) {
	p, err := h.Directory.Leave(c.Request.Context(), domain.PartyID(c.Param("id")), currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// ListMessages returns the party's chat history ascending by timestamp,
// for replay after reconnect.
func (h *PartyHandler) ListMessages(c *gin.Context) {
	msgs, err := h.Log.ListByParty(c.Request.Context(), domain.PartyID(c.Param("id")))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

func (h *PartyHandler) ListAllowedTags(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tags": domain.AllowedTags})
}

func (h *PartyHandler) GetTags(c *gin.Context) {
	p, err := h.Directory.Get(c.Request.Context(), domain.PartyID(c.Param("id")))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tags": p.Tags})
}

type TagsRequest struct {
	Tags []string `json:"tags" binding:"required"`
}

func (h *PartyHandler) AddTags(c *gin.Context) {
	var req TagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid fields"})
		return
	}
	p, err := h.Directory.AddTags(c.Request.Context(), domain.PartyID(c.Param("id")), req.Tags)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tags": p.Tags})
}

func (h *PartyHandler) RemoveTags(c *gin.Context) {
	var req TagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid fields"})
		return
	}
	p, err := h.Directory.RemoveTags(c.Request.Context(), domain.PartyID(c.Param("id")), req.Tags)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tags": p.Tags})
}
