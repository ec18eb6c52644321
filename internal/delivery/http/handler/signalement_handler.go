package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Kei-Shiro/road/internal/delivery/http/middleware"
	"github.com/Kei-Shiro/road/internal/service"
)

type SignalementHandler struct {
	signalementService service.SignalementService
	storageService     service.StorageService
}

func NewSignalementHandler(ss service.SignalementService, sts service.StorageService) *SignalementHandler {
	return &SignalementHandler{
		signalementService: ss,
		storageService:     sts,
	}
}

func (h *SignalementHandler) Create(c *gin.Context) {
	var req service.SignalementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor := middleware.ActorFromContext(c)
	sig, err := h.signalementService.Create(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, sig)
}

func (h *SignalementHandler) Update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req service.SignalementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor := middleware.ActorFromContext(c)
	sig, err := h.signalementService.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, sig)
}

func (h *SignalementHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	actor := middleware.ActorFromContext(c)
	if err := h.signalementService.Delete(c.Request.Context(), actor, id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "signalement supprimé", "id": id})
}

func (h *SignalementHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	sig, err := h.signalementService.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, sig)
}

func (h *SignalementHandler) List(c *gin.Context) {
	sigs, err := h.signalementService.List(c.Request.Context(), c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, sigs)
}

func (h *SignalementHandler) ListByBounds(c *gin.Context) {
	minLat, err1 := strconv.ParseFloat(c.Query("minLat"), 64)
	maxLat, err2 := strconv.ParseFloat(c.Query("maxLat"), 64)
	minLng, err3 := strconv.ParseFloat(c.Query("minLng"), 64)
	maxLng, err4 := strconv.ParseFloat(c.Query("maxLng"), 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "minLat, maxLat, minLng and maxLng query params are required"})
		return
	}

	sigs, err := h.signalementService.ListByBounds(c.Request.Context(), minLat, maxLat, minLng, maxLng)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, sigs)
}

func (h *SignalementHandler) Stats(c *gin.Context) {
	stats, err := h.signalementService.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *SignalementHandler) Sync(c *gin.Context) {
	var req service.SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor := middleware.ActorFromContext(c)
	resp, err := h.signalementService.Sync(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *SignalementHandler) GetUploadURL(c *gin.Context) {
	fileName := c.Query("file_name")
	if fileName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file_name query param is required"})
		return
	}

	url, err := h.storageService.GenerateUploadURL(c.Request.Context(), fileName)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate upload URL: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"upload_url": url,
	})
}

// GetDownloadURL génère une URL présignée de lecture pour une photo déjà
// téléversée.
func (h *SignalementHandler) GetDownloadURL(c *gin.Context) {
	fileName := c.Query("file_name")
	if fileName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file_name query param is required"})
		return
	}

	url, err := h.storageService.GenerateDownloadURL(c.Request.Context(), fileName)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate download URL: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"download_url": url,
	})
}
