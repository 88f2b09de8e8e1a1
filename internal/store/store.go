// Package store provides durable persistence for documents, conversations,
// and feedback.
package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zulandar/quire/internal/models"
	"gorm.io/gorm"
)

// ErrNotFound indicates the referenced document does not exist or is not
// owned by the caller.
var ErrNotFound = errors.New("store: document not found")

// Store wraps the GORM connection with conversation-level operations.
// Every read is scoped by document (and, where ownership matters, user) so
// cross-document leakage is impossible by construction.
type Store struct {
	db *gorm.DB
}

// New creates a Store.
func New(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("store: db is required")
	}
	return &Store{db: db}, nil
}

// Append inserts a new message with a server-assigned ID and timestamp.
func (s *Store) Append(documentID, userID string, isUserMessage bool, text string) (*models.Message, error) {
	if documentID == "" {
		return nil, fmt.Errorf("store: documentID is required")
	}
	if text == "" {
		return nil, fmt.Errorf("store: text is required")
	}

	msg := models.Message{
		ID:            uuid.NewString(),
		DocumentID:    documentID,
		UserID:        userID,
		IsUserMessage: isUserMessage,
		Text:          text,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.db.Create(&msg).Error; err != nil {
		return nil, fmt.Errorf("store: append: %w", err)
	}
	return &msg, nil
}

// RecentWindow returns up to limit most recent messages for the document,
// ordered ascending by creation time.
func (s *Store) RecentWindow(documentID string, limit int) ([]models.Message, error) {
	if documentID == "" {
		return nil, fmt.Errorf("store: documentID is required")
	}

	var msgs []models.Message
	if err := s.db.Where("document_id = ?", documentID).
		Order("created_at DESC").Limit(limit).Find(&msgs).Error; err != nil {
		return nil, fmt.Errorf("store: recent window %s: %w", documentID, err)
	}

	// Query is newest-first to apply the limit; callers want oldest-first.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// Transcript returns every message for an owned document, oldest first.
func (s *Store) Transcript(documentID, userID string) ([]models.Message, error) {
	if _, err := s.FindOwnedDocument(documentID, userID); err != nil {
		return nil, err
	}

	var msgs []models.Message
	if err := s.db.Where("document_id = ?", documentID).
		Order("created_at ASC").Find(&msgs).Error; err != nil {
		return nil, fmt.Errorf("store: transcript %s: %w", documentID, err)
	}
	return msgs, nil
}

// FindOwnedDocument returns the document if it exists and belongs to the
// user, ErrNotFound otherwise.
func (s *Store) FindOwnedDocument(documentID, userID string) (*models.Document, error) {
	var doc models.Document
	err := s.db.Where("id = ? AND user_id = ?", documentID, userID).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: find document %s: %w", documentID, err)
	}
	return &doc, nil
}

// CreateDocument registers a new document row.
func (s *Store) CreateDocument(doc *models.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.UserID == "" {
		return fmt.Errorf("store: userID is required")
	}
	if doc.SourceURL == "" {
		return fmt.Errorf("store: sourceURL is required")
	}
	if err := s.db.Create(doc).Error; err != nil {
		return fmt.Errorf("store: create document: %w", err)
	}
	return nil
}

// ListDocuments returns all documents owned by the user, newest first.
func (s *Store) ListDocuments(userID string) ([]models.Document, error) {
	if userID == "" {
		return nil, fmt.Errorf("store: userID is required")
	}
	var docs []models.Document
	if err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("store: list documents %s: %w", userID, err)
	}
	return docs, nil
}

// SetDocumentStatus updates a document's processing status and page count.
func (s *Store) SetDocumentStatus(documentID, status string, pageCount int) error {
	result := s.db.Model(&models.Document{}).Where("id = ?", documentID).
		Updates(map[string]interface{}{"status": status, "page_count": pageCount})
	if result.Error != nil {
		return fmt.Errorf("store: set status %s: %w", documentID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkStaleProcessing flips documents stuck in PROCESSING since before
// cutoff to FAILED. Returns the number of rows updated.
func (s *Store) MarkStaleProcessing(cutoff time.Time) (int64, error) {
	result := s.db.Model(&models.Document{}).
		Where("status = ? AND updated_at < ?", models.StatusProcessing, cutoff).
		Update("status", models.StatusFailed)
	if result.Error != nil {
		return 0, fmt.Errorf("store: mark stale: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// CreateFeedback records a feedback submission.
func (s *Store) CreateFeedback(fb *models.Feedback) error {
	if fb.UserID == "" {
		return fmt.Errorf("store: userID is required")
	}
	if fb.Rating < 1 || fb.Rating > 5 {
		return fmt.Errorf("store: rating must be between 1 and 5")
	}
	if err := s.db.Create(fb).Error; err != nil {
		return fmt.Errorf("store: create feedback: %w", err)
	}
	return nil
}

// ListFeedback returns all feedback, newest first.
func (s *Store) ListFeedback() ([]models.Feedback, error) {
	var fbs []models.Feedback
	if err := s.db.Order("created_at DESC").Find(&fbs).Error; err != nil {
		return nil, fmt.Errorf("store: list feedback: %w", err)
	}
	return fbs, nil
}
