package server

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zulandar/quire/internal/models"
	"github.com/zulandar/quire/internal/store"
)

// createDocumentRequest is the body of POST /api/documents.
type createDocumentRequest struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// documentView is the API shape of a document.
type documentView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	Status    string    `json:"status"`
	PageCount int       `json:"pageCount"`
	CreatedAt time.Time `json:"createdAt"`
}

func viewDocument(doc *models.Document) documentView {
	return documentView{
		ID:        doc.ID,
		Name:      doc.Name,
		URL:       doc.SourceURL,
		Status:    doc.Status,
		PageCount: doc.PageCount,
		CreatedAt: doc.CreatedAt,
	}
}

// handleCreateDocument registers a document and probes it immediately: the
// PDF is fetched and parsed once so the caller learns up front whether chat
// against it can work. Probe failures leave the row in FAILED rather than
// rejecting the registration.
func handleCreateDocument(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createDocumentRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.URL == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
			return
		}
		name := req.Name
		if name == "" {
			name = req.URL
		}

		doc := &models.Document{
			UserID:    currentUser(c),
			Name:      name,
			SourceURL: req.URL,
			Status:    models.StatusProcessing,
		}
		if err := deps.Store.CreateDocument(doc); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		status, pages := probeDocument(c, deps, req.URL)
		if err := deps.Store.SetDocumentStatus(doc.ID, status, pages); err != nil {
			log.Printf("server: update document %s status: %v", doc.ID, err)
		}
		doc.Status = status
		doc.PageCount = pages

		c.JSON(http.StatusCreated, viewDocument(doc))
	}
}

// probeDocument fetches and parses the document once, returning the status
// and page count to record.
func probeDocument(c *gin.Context, deps Deps, url string) (string, int) {
	if deps.Fetcher == nil || deps.Extractor == nil {
		return models.StatusPending, 0
	}
	data, err := deps.Fetcher.Fetch(c.Request.Context(), url)
	if err != nil {
		log.Printf("server: probe fetch %s: %v", url, err)
		return models.StatusFailed, 0
	}
	res, err := deps.Extractor.Extract(data)
	if err != nil {
		log.Printf("server: probe parse %s: %v", url, err)
		return models.StatusFailed, 0
	}
	if deps.MaxPages > 0 && res.Pages > deps.MaxPages {
		return models.StatusFailed, res.Pages
	}
	return models.StatusSuccess, res.Pages
}

// handleListDocuments lists the caller's documents.
func handleListDocuments(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		docs, err := deps.Store.ListDocuments(currentUser(c))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		views := make([]documentView, 0, len(docs))
		for i := range docs {
			views = append(views, viewDocument(&docs[i]))
		}
		c.JSON(http.StatusOK, views)
	}
}

// ownedDocument resolves the :id path param against the caller, writing the
// error response itself on failure.
func ownedDocument(c *gin.Context, deps Deps) (*models.Document, bool) {
	doc, err := deps.Store.FindOwnedDocument(c.Param("id"), currentUser(c))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return nil, false
	}
	return doc, true
}
