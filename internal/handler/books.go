package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aryan0dhankhar/librarydesk/internal/domain"
	"github.com/aryan0dhankhar/librarydesk/internal/security/audit"
	"github.com/aryan0dhankhar/librarydesk/internal/security/middleware"
	"github.com/aryan0dhankhar/librarydesk/internal/service"
)

// BookHandler serves the catalogue endpoints
type BookHandler struct {
	books    *service.BookService
	audit    *audit.Logger
	activity ActivityPublisher
	logger   *slog.Logger
}

// NewBookHandler creates a catalogue handler
func NewBookHandler(books *service.BookService, auditLog *audit.Logger, activity ActivityPublisher, logger *slog.Logger) *BookHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if activity == nil {
		activity = nopPublisher{}
	}
	return &BookHandler{books: books, audit: auditLog, activity: activity, logger: logger}
}

// UpdateBookRequest is a partial update; omitted fields keep their value
type UpdateBookRequest struct {
	Title  *string `json:"title"`
	Author *string `json:"author"`
	Status *string `json:"status"`
}

// Add handles POST /api/admin/books/add
func (h *BookHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req service.AddBookRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	book, err := h.books.Add(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.audit.LogBookChange(r.Context(), actorID(r), "book_add", strconv.FormatInt(book.ID, 10), "success", book.Code)
	h.activity.Publish(ActivityEvent{Type: "book_added", BookID: book.ID})
	writeSuccess(w, "Book added successfully", toBookResponse(book))
}

// Update handles PUT /api/admin/books/{id}
func (h *BookHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req UpdateBookRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	upd := domain.BookUpdate{Title: req.Title, Author: req.Author}
	if req.Status != nil {
		status := domain.BookStatus(*req.Status)
		upd.Status = &status
	}

	book, err := h.books.Update(r.Context(), id, upd)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.audit.LogBookChange(r.Context(), actorID(r), "book_update", strconv.FormatInt(id, 10), "success", "")
	h.activity.Publish(ActivityEvent{Type: "book_updated", BookID: id})
	writeSuccess(w, "Book updated successfully", toBookResponse(book))
}

// Delete handles DELETE /api/admin/books/delete/{id}
func (h *BookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.books.Delete(r.Context(), id); err != nil {
		h.audit.LogBookChange(r.Context(), actorID(r), "book_delete", strconv.FormatInt(id, 10), "rejected", err.Error())
		writeError(w, h.logger, err)
		return
	}

	h.audit.LogBookChange(r.Context(), actorID(r), "book_delete", strconv.FormatInt(id, 10), "success", "")
	h.activity.Publish(ActivityEvent{Type: "book_deleted", BookID: id})
	writeSuccess(w, "Book deleted successfully", nil)
}

// ListAll handles GET /api/admin/books
func (h *BookHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	books, err := h.books.List(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, "Books fetched successfully", toBookResponses(books))
}

// ListAvailable handles GET /api/user/books
func (h *BookHandler) ListAvailable(w http.ResponseWriter, r *http.Request) {
	books, err := h.books.ListAvailable(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, "Available books fetched successfully", toBookResponses(books))
}

func actorID(r *http.Request) string {
	if claims := middleware.GetClaimsFromContext(r.Context()); claims != nil {
		return strconv.FormatInt(claims.UserID, 10)
	}
	return ""
}
