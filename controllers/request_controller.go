package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/herecomesthebride/boutique-api/models"
	"github.com/herecomesthebride/boutique-api/services"
)

// DreamDressRequestBody represents the dream-dress finder form
type DreamDressRequestBody struct {
	Name       string `json:"name" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Phone      string `json:"phone" binding:"required"`
	DreamDress string `json:"dreamDress" binding:"required"`
}

// AppointmentRequestBody represents the appointment form
type AppointmentRequestBody struct {
	Name          string  `json:"name" binding:"required"`
	Email         string  `json:"email" binding:"required,email"`
	Phone         string  `json:"phone" binding:"required"`
	Message       string  `json:"message" binding:"required"`
	PreferredDate *string `json:"preferredDate" binding:"omitempty"`
}

// UpdateStatusBody represents the request body for changing a request's status
type UpdateStatusBody struct {
	Status string `json:"status" binding:"required"`
}

// SubmitDreamDressRequest handles POST /api/v1/dream-dress-requests
func SubmitDreamDressRequest(c *gin.Context) {
	var body DreamDressRequestBody
	if !bindForm(c, &body) {
		return
	}

	submitRequest(c, services.GetDreamDressStore(), models.DreamDressRequest{
		Name:       body.Name,
		Email:      body.Email,
		Phone:      body.Phone,
		DreamDress: body.DreamDress,
	})
}

// SubmitAppointmentRequest handles POST /api/v1/appointment-requests
func SubmitAppointmentRequest(c *gin.Context) {
	var body AppointmentRequestBody
	if !bindForm(c, &body) {
		return
	}

	submitRequest(c, services.GetAppointmentStore(), models.AppointmentRequest{
		Name:          body.Name,
		Email:         body.Email,
		Phone:         body.Phone,
		Message:       body.Message,
		PreferredDate: body.PreferredDate,
	})
}

// ListDreamDressRequests handles GET /api/v1/admin/dream-dress-requests
func ListDreamDressRequests(c *gin.Context) {
	listRequests(c, services.GetDreamDressStore())
}

// ListAppointmentRequests handles GET /api/v1/admin/appointment-requests
func ListAppointmentRequests(c *gin.Context) {
	listRequests(c, services.GetAppointmentStore())
}

// UpdateDreamDressRequestStatus handles PATCH /api/v1/admin/dream-dress-requests/:id/status
func UpdateDreamDressRequestStatus(c *gin.Context) {
	updateRequestStatus(c, services.GetDreamDressStore())
}

// UpdateAppointmentRequestStatus handles PATCH /api/v1/admin/appointment-requests/:id/status
func UpdateAppointmentRequestStatus(c *gin.Context) {
	updateRequestStatus(c, services.GetAppointmentStore())
}

func bindForm(c *gin.Context, body interface{}) bool {
	if err := c.ShouldBindJSON(body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Please fill in all required fields",
				"details": err.Error(),
			},
		})
		return false
	}
	return true
}

func submitRequest[T services.Request[T]](c *gin.Context, store *services.RequestStore[T], data T) {
	created, err := store.Submit(c.Request.Context(), data)
	if err != nil {
		respondServiceError(c, err, "Failed to submit request")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    created,
	})
}

func listRequests[T services.Request[T]](c *gin.Context, store *services.RequestStore[T]) {
	requests, err := store.List(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "Failed to load requests")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    requests,
	})
}

// updateRequestStatus succeeds for unknown ids; the store ignores them
func updateRequestStatus[T services.Request[T]](c *gin.Context, store *services.RequestStore[T]) {
	var body UpdateStatusBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	id := c.Param("id")
	if err := store.UpdateStatus(c.Request.Context(), id, body.Status); err != nil {
		respondServiceError(c, err, "Failed to update request status")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"id":     id,
			"status": body.Status,
		},
	})
}
