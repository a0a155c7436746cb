package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/calmroots/backend/internal/dto"
	"github.com/calmroots/backend/internal/service"
	"github.com/calmroots/backend/pkg/apperror"
	"github.com/calmroots/backend/pkg/response"
	"github.com/calmroots/backend/pkg/storage"
	"github.com/calmroots/backend/pkg/validator"
	"github.com/gin-gonic/gin"
)

const maxAttachmentBytes = 5 << 20

type ForumHandler struct {
	forum        service.ForumService
	fileStorage  storage.ImageStorage
	uploadFolder string
}

func NewForumHandler(forum service.ForumService, fileStorage storage.ImageStorage, uploadFolder string) *ForumHandler {
	return &ForumHandler{
		forum:        forum,
		fileStorage:  fileStorage,
		uploadFolder: uploadFolder,
	}
}

// rateLimited answers 429 with a Retry-After header telling the client when
// the posting cooldown lapses.
func (h *ForumHandler) rateLimited(c *gin.Context, err error) bool {
	if !errors.Is(err, apperror.ErrRateLimitExceeded) {
		return false
	}

	userID, uidErr := response.GetUserID(c)
	if uidErr == nil {
		if ttl := h.forum.PostCooldownRemaining(c.Request.Context(), userID); ttl > 0 {
			c.Header("Retry-After", strconv.Itoa(int(ttl.Seconds())+1))
		}
	}
	c.JSON(http.StatusTooManyRequests, gin.H{"error": "posting too fast, slow down"})
	return true
}

func (h *ForumHandler) CreateThread(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	role, err := response.GetRole(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.CreateThreadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	thread, err := h.forum.CreateThread(c.Request.Context(), userID, role, req)
	if err != nil {
		if h.rateLimited(c, err) {
			return
		}
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, thread)
}

func (h *ForumHandler) ListThreads(c *gin.Context) {
	var filter dto.ThreadFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	threads, total, err := h.forum.ListThreads(c.Request.Context(), filter)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"threads": threads, "total": total})
}

func (h *ForumHandler) GetThread(c *gin.Context) {
	threadID, ok := parseID(c, "id")
	if !ok {
		return
	}

	thread, err := h.forum.GetThread(c.Request.Context(), threadID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, thread)
}

func (h *ForumHandler) DeleteThread(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	threadID, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.forum.DeleteThread(c.Request.Context(), threadID, userID); err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "thread deleted"})
}

func (h *ForumHandler) CreatePost(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	role, err := response.GetRole(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	threadID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req dto.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	post, err := h.forum.CreatePost(c.Request.Context(), threadID, userID, role, req)
	if err != nil {
		if h.rateLimited(c, err) {
			return
		}
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (h *ForumHandler) DeletePost(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	postID, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.forum.DeletePost(c.Request.Context(), postID, userID); err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "post deleted"})
}

// UploadAttachment stores a forum image and returns its URL for use as a
// post attachment.
func (h *ForumHandler) UploadAttachment(c *gin.Context) {
	if h.fileStorage == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "attachment storage is not configured"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if fileHeader.Size > maxAttachmentBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file exceeds the 5MB limit"})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	defer f.Close()

	url, err := h.fileStorage.UploadImage(c.Request.Context(), f, h.uploadFolder, fileHeader.Filename)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": url})
}
