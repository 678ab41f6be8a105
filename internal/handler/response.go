package handler

import (
	"net/http"

	"github.com/SergeiKhy/share-engine/internal/models"
	"github.com/gin-gonic/gin"
)

// Response единый конверт успешного ответа
type Response struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// PagedResponse конверт успешного ответа со страницей
type PagedResponse struct {
	Success    bool               `json:"success"`
	Data       any                `json:"data"`
	Pagination *models.Pagination `json:"pagination"`
}

// ErrorResponse единый конверт ошибки
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func respondOK(c *gin.Context, status int, data any) {
	c.JSON(status, Response{Success: true, Data: data})
}

func respondPage(c *gin.Context, data any, pagination *models.Pagination) {
	c.JSON(http.StatusOK, PagedResponse{Success: true, Data: data, Pagination: pagination})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Success: false, Message: message})
}
