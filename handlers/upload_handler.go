package handlers

import (
	"io"
	"net/http"

	"quizhub/services"

	"github.com/gin-gonic/gin"
)

type UploadHandler struct {
	provisionService *services.ProvisionService
}

func NewUploadHandler(provisionService *services.ProvisionService) *UploadHandler {
	return &UploadHandler{
		provisionService: provisionService,
	}
}

// UploadCSV receives a bulk-provisioning file, stores it and processes
// its rows synchronously. The response carries one result per data row.
func (h *UploadHandler) UploadCSV(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "CSV file required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	title := c.PostForm("title")
	if title == "" {
		title = fileHeader.Filename
	}

	upload, err := h.provisionService.SaveUpload(userID.(uint), title, fileHeader.Filename, raw)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	results, err := h.provisionService.ProcessUpload(upload, raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "upload_id": upload.ID})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"upload_id": upload.ID,
		"completed": upload.Completed,
		"results":   results,
	})
}
