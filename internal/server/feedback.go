package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zulandar/quire/internal/models"
	"github.com/zulandar/quire/internal/notify"
)

// feedbackRequest is the body of POST /api/feedback.
type feedbackRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// feedbackView is the API shape of a feedback entry.
type feedbackView struct {
	ID        uint      `json:"id"`
	UserID    string    `json:"userId"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

// handleCreateFeedback records a rating and fans it out to the configured
// notifiers. Notification failures are logged, never surfaced.
func handleCreateFeedback(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req feedbackRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if req.Rating < 1 || req.Rating > 5 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "rating must be between 1 and 5"})
			return
		}

		fb := &models.Feedback{
			UserID:  currentUser(c),
			Rating:  req.Rating,
			Comment: req.Comment,
		}
		if err := deps.Store.CreateFeedback(fb); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		if deps.Notifier != nil {
			notice := notify.Notice{
				Title: fmt.Sprintf("New feedback: %d/5", fb.Rating),
				Body:  fb.Comment,
			}
			// Delivery outlives the request.
			if err := deps.Notifier.Send(context.WithoutCancel(c.Request.Context()), notice); err != nil {
				log.Printf("server: feedback notification: %v", err)
			}
		}

		c.JSON(http.StatusCreated, viewFeedback(fb))
	}
}

// handleListFeedback returns all recorded feedback, newest first.
func handleListFeedback(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		fbs, err := deps.Store.ListFeedback()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		views := make([]feedbackView, 0, len(fbs))
		for i := range fbs {
			views = append(views, viewFeedback(&fbs[i]))
		}
		c.JSON(http.StatusOK, views)
	}
}

func viewFeedback(fb *models.Feedback) feedbackView {
	return feedbackView{
		ID:        fb.ID,
		UserID:    fb.UserID,
		Rating:    fb.Rating,
		Comment:   fb.Comment,
		CreatedAt: fb.CreatedAt,
	}
}
