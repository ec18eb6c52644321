package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Kei-Shiro/road/internal/service"
)

type MapHandler struct {
	mapService service.MapService
}

func NewMapHandler(ms service.MapService) *MapHandler {
	return &MapHandler{mapService: ms}
}

func (h *MapHandler) Config(c *gin.Context) {
	c.JSON(http.StatusOK, h.mapService.Config())
}

func (h *MapHandler) GetTile(c *gin.Context) {
	z, err1 := strconv.Atoi(c.Param("z"))
	x, err2 := strconv.Atoi(c.Param("x"))
	y, err3 := strconv.Atoi(c.Param("y"))
	if err1 != nil || err2 != nil || err3 != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tile coordinates"})
		return
	}

	path, err := h.mapService.GetTile(c.Request.Context(), z, x, y)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Cache-Control", "public, max-age=86400")
	c.File(path)
}

func (h *MapHandler) Preload(c *gin.Context) {
	var input struct {
		MinZoom int `json:"min_zoom"`
		MaxZoom int `json:"max_zoom"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !h.mapService.Preload(input.MinZoom, input.MaxZoom) {
		c.JSON(http.StatusConflict, gin.H{"error": "un préchargement est déjà en cours"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message":  "préchargement lancé",
		"min_zoom": input.MinZoom,
		"max_zoom": input.MaxZoom,
	})
}
