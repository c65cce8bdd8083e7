package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"taxnavo/internal/model"
	"taxnavo/internal/repository"
)

// MaxDocumentSize is the largest accepted upload
const MaxDocumentSize = 5 << 20

var (
	ErrUnsupportedDocument = errors.New("only PDF, JPEG and PNG files are accepted")
	ErrDocumentTooLarge    = errors.New("document exceeds 5 MB")
	ErrDocumentNotFound    = errors.New("document not found")
	ErrMissingDocType      = errors.New("document type is required")
)

var allowedContentTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
}

// RequiredDocumentsSource lists the documents a user's answers call for
type RequiredDocumentsSource interface {
	RequiredDocuments(ctx context.Context, userID string, year int) ([]string, error)
}

// DocumentService accepts uploads and records their metadata. File bodies
// are read to check type and size, then discarded.
type DocumentService struct {
	repo     repository.DocumentRepo
	required RequiredDocumentsSource
	logger   *zap.Logger
}

func NewDocumentService(repo repository.DocumentRepo, required RequiredDocumentsSource, logger *zap.Logger) *DocumentService {
	return &DocumentService{
		repo:     repo,
		required: required,
		logger:   logger.Named("documents"),
	}
}

// Upload validates body and records it. The content type is sniffed from the
// body, not taken from the client.
func (s *DocumentService) Upload(ctx context.Context, userID string, year int, docType, fileName string, body io.Reader) (*model.Document, error) {
	docType = strings.TrimSpace(docType)
	if docType == "" {
		return nil, ErrMissingDocType
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}
	head = head[:n]
	contentType := http.DetectContentType(head)
	if !allowedContentTypes[contentType] {
		return nil, ErrUnsupportedDocument
	}

	rest, err := io.Copy(io.Discard, io.LimitReader(body, MaxDocumentSize+1-int64(n)))
	if err != nil {
		return nil, err
	}
	size := int64(n) + rest
	if size > MaxDocumentSize {
		return nil, ErrDocumentTooLarge
	}

	doc := &model.Document{
		UserID:      userID,
		Year:        year,
		DocType:     docType,
		FileName:    fileName,
		ContentType: contentType,
		Size:        size,
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		return nil, err
	}
	s.logger.Info("document recorded",
		zap.String("user_id", userID),
		zap.String("doc_type", docType),
		zap.Int64("size", size),
	)
	return doc, nil
}

// List returns a user's documents; year 0 means all years
func (s *DocumentService) List(ctx context.Context, userID string, year int) ([]*model.Document, error) {
	return s.repo.ListByUser(ctx, userID, year)
}

func (s *DocumentService) Delete(ctx context.Context, userID, id string) error {
	err := s.repo.Delete(ctx, userID, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrDocumentNotFound
	}
	return err
}

// Checklist pairs the documents a year's answers require with whether one
// of that type has been uploaded
func (s *DocumentService) Checklist(ctx context.Context, userID string, year int) ([]model.ChecklistItem, error) {
	names, err := s.required.RequiredDocuments(ctx, userID, year)
	if err != nil {
		return nil, err
	}
	docs, err := s.repo.ListByUser(ctx, userID, year)
	if err != nil {
		return nil, err
	}

	uploaded := make(map[string]bool, len(docs))
	for _, d := range docs {
		uploaded[strings.ToLower(d.DocType)] = true
	}
	items := make([]model.ChecklistItem, 0, len(names))
	for _, name := range names {
		items = append(items, model.ChecklistItem{Name: name, Uploaded: uploaded[strings.ToLower(name)]})
	}
	return items, nil
}
