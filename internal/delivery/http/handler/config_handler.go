package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Kei-Shiro/road/internal/service"
)

type ConfigHandler struct {
	configService service.ConfigService
}

func NewConfigHandler(cs service.ConfigService) *ConfigHandler {
	return &ConfigHandler{configService: cs}
}

func (h *ConfigHandler) List(c *gin.Context) {
	configs, err := h.configService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, configs)
}

func (h *ConfigHandler) Get(c *gin.Context) {
	cfg, err := h.configService.Get(c.Request.Context(), c.Param("key"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, cfg)
}

func (h *ConfigHandler) Set(c *gin.Context) {
	var input struct {
		Key         string `json:"key" binding:"required"`
		Value       string `json:"value" binding:"required"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cfg, err := h.configService.Set(c.Request.Context(), input.Key, input.Value, input.Description)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, cfg)
}
