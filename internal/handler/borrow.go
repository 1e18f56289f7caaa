package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aryan0dhankhar/librarydesk/internal/domain"
	"github.com/aryan0dhankhar/librarydesk/internal/security"
	"github.com/aryan0dhankhar/librarydesk/internal/security/audit"
	"github.com/aryan0dhankhar/librarydesk/internal/security/middleware"
	"github.com/aryan0dhankhar/librarydesk/internal/service"
)

// MsgOnlyUsersBorrow rejects borrow and return from non-member roles
const MsgOnlyUsersBorrow = "Only users can borrow books"

// BorrowHandler serves the loan endpoints for members
type BorrowHandler struct {
	loans    *service.BorrowService
	reports  *service.ReportService
	authz    *security.AuthorizationService
	audit    *audit.Logger
	activity ActivityPublisher
	logger   *slog.Logger
}

// NewBorrowHandler creates the loan handler
func NewBorrowHandler(
	loans *service.BorrowService,
	reports *service.ReportService,
	authz *security.AuthorizationService,
	auditLog *audit.Logger,
	activity ActivityPublisher,
	logger *slog.Logger,
) *BorrowHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if activity == nil {
		activity = nopPublisher{}
	}
	return &BorrowHandler{
		loans:    loans,
		reports:  reports,
		authz:    authz,
		audit:    auditLog,
		activity: activity,
		logger:   logger,
	}
}

// caller builds the acting user from token claims, or writes the failure
func (h *BorrowHandler) caller(w http.ResponseWriter, r *http.Request, perm security.Permission) (*domain.User, bool) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		writeFailure(w, http.StatusUnauthorized, middleware.MsgUnauthorized)
		return nil, false
	}
	role := domain.Role(claims.Role)
	if err := h.authz.ValidatePermission(role, perm); err != nil {
		h.audit.LogDenied(r.Context(), strconv.FormatInt(claims.UserID, 10), string(perm))
		writeFailure(w, http.StatusBadRequest, MsgOnlyUsersBorrow)
		return nil, false
	}
	return &domain.User{ID: claims.UserID, LibraryID: claims.LibraryID, Email: claims.Email, Role: role}, true
}

// Borrow handles POST /api/user/borrow/book/{bookId}
func (h *BorrowHandler) Borrow(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r, security.PermBorrowBook)
	if !ok {
		return
	}
	bookID, err := pathID(r, "bookId")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	rec, err := h.loans.Borrow(r.Context(), user, bookID)
	if err != nil {
		h.audit.LogBorrow(r.Context(), strconv.FormatInt(user.ID, 10), strconv.FormatInt(bookID, 10), "rejected", err.Error())
		writeError(w, h.logger, err)
		return
	}

	h.audit.LogBorrow(r.Context(), strconv.FormatInt(user.ID, 10), strconv.FormatInt(bookID, 10), "success", "")
	h.activity.Publish(ActivityEvent{Type: "borrowed", UserID: user.ID, BookID: bookID, RecordID: rec.ID})
	writeSuccess(w, "Book borrowed successfully", BorrowResponse{
		BorrowDate: formatDate(rec.BorrowDate),
		DueDate:    formatDate(rec.DueDate),
	})
}

// Return handles POST /api/user/borrow/return
func (h *BorrowHandler) Return(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r, security.PermReturnBook)
	if !ok {
		return
	}

	rec, err := h.loans.ReturnActiveLoan(r.Context(), user)
	if err != nil {
		h.audit.LogReturn(r.Context(), strconv.FormatInt(user.ID, 10), "", "rejected", err.Error())
		writeError(w, h.logger, err)
		return
	}

	fee := money(rec.LateFee.Decimal)
	h.audit.LogReturn(r.Context(), strconv.FormatInt(user.ID, 10), strconv.FormatInt(rec.ID, 10), "success", "late_fee="+fee.String())
	h.activity.Publish(ActivityEvent{Type: "returned", UserID: user.ID, BookID: rec.BookID, RecordID: rec.ID, LateFee: fee.String()})
	writeSuccess(w, "Book returned successfully", ReturnResponse{LateFee: fee})
}

// History handles GET /api/user/borrow/history
func (h *BorrowHandler) History(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r, security.PermViewOwnHistory)
	if !ok {
		return
	}

	records, err := h.reports.History(r.Context(), user.ID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, "Borrow history fetched successfully", toRecordResponses(records))
}
