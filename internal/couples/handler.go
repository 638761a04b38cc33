package couples

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"blueprint-backend/internal/quiz"
	"blueprint-backend/internal/shared/server/middleware"
	"blueprint-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the couples service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches couple routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/couples/link", h.linkPartner)
	rg.GET("/couples/me", h.getCouple)
	rg.POST("/couples/me/quiz", h.submitQuiz)
	rg.GET("/couples/:id/analysis", h.getAnalysis)
	rg.POST("/couples/:id/analysis/retry", h.retryAnalysis)
}

type linkRequest struct {
	InviteCode string `json:"inviteCode"`
}

func (h *Handler) linkPartner(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req linkRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.InviteCode) == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "inviteCode is required", nil)
		return
	}

	couple, err := h.Svc.LinkPartner(c.Request.Context(), userID, req.InviteCode)
	if err != nil {
		switch {
		case errors.Is(err, ErrInviteNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "no account matches this invite code", nil)
		case errors.Is(err, ErrSelfLink):
			respond.Error(c, http.StatusUnprocessableEntity, "self_link", "you cannot link with your own invite code", nil)
		case errors.Is(err, ErrAlreadyLinked):
			respond.Error(c, http.StatusConflict, "already_linked", "one of the accounts is already linked to a partner", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to link partners", nil)
		}
		return
	}

	respond.JSON(c, http.StatusCreated, coupleResponse(couple, userID))
}

func (h *Handler) getCouple(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	couple, err := h.Svc.GetForUser(c.Request.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotLinked):
			respond.Error(c, http.StatusNotFound, "not_linked", "you are not linked to a partner yet", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch couple", nil)
		}
		return
	}

	respond.OK(c, coupleResponse(couple, userID))
}

type submitQuizRequest struct {
	Answers []quiz.Answer `json:"answers"`
}

func (h *Handler) submitQuiz(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req submitQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	couple, err := h.Svc.SubmitResult(c.Request.Context(), userID, req.Answers)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotLinked):
			respond.Error(c, http.StatusConflict, "not_linked", "link with your partner before taking the quiz", nil)
		case errors.Is(err, quiz.ErrNoAnswers), isValidationError(err):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to submit quiz", nil)
		}
		return
	}

	respond.JSON(c, http.StatusAccepted, coupleResponse(couple, userID))
}

func (h *Handler) getAnalysis(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	coupleID := c.Param("id")
	if coupleID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "couple id is required", nil)
		return
	}

	couple, err := h.Svc.Get(c.Request.Context(), coupleID, userID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "couple not found", nil)
		case errors.Is(err, ErrNotMember):
			respond.Error(c, http.StatusForbidden, "forbidden", "you are not a member of this couple", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch analysis", nil)
		}
		return
	}

	resp := gin.H{
		"coupleId": couple.ID,
		"state":    couple.AnalysisState,
	}
	switch couple.AnalysisState {
	case StateReady:
		resp["analysis"] = couple.Analysis
	case StateWaitingForPartners:
		resp["message"] = waitingMessage(couple)
	case StateInProgress:
		resp["message"] = "Your analysis is being generated. Check back in a moment."
	case StateFailed:
		resp["message"] = "We could not generate your analysis."
		resp["errorCode"] = couple.ErrorCode
		resp["retryable"] = couple.ErrorRetryable
	}

	respond.OK(c, resp)
}

func (h *Handler) retryAnalysis(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	coupleID := c.Param("id")
	if coupleID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "couple id is required", nil)
		return
	}

	if err := h.Svc.Retrigger(c.Request.Context(), coupleID, userID); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "couple not found", nil)
		case errors.Is(err, ErrNotMember):
			respond.Error(c, http.StatusForbidden, "forbidden", "you are not a member of this couple", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to retry analysis", nil)
		}
		return
	}

	respond.JSON(c, http.StatusAccepted, gin.H{"coupleId": coupleID})
}

func waitingMessage(couple Couple) string {
	switch {
	case couple.PartnerA == nil && couple.PartnerB == nil:
		return "Neither of you has taken the quiz yet."
	case couple.BothComplete():
		return "Both results are in. Your analysis will start shortly."
	default:
		return "Waiting for your partner to finish the quiz."
	}
}

func coupleResponse(couple Couple, viewerID string) gin.H {
	resp := gin.H{
		"id":            couple.ID,
		"state":         couple.AnalysisState,
		"yourSlot":      couple.SlotFor(viewerID),
		"youComplete":   false,
		"partnerDone":   false,
		"bothComplete":  couple.BothComplete(),
		"analysisReady": couple.AnalysisState == StateReady,
	}
	mine, theirs := couple.PartnerA, couple.PartnerB
	if couple.SlotFor(viewerID) == "b" {
		mine, theirs = theirs, mine
	}
	if mine != nil {
		resp["youComplete"] = true
		resp["yourResult"] = gin.H{
			"primary":     mine.Primary,
			"secondary":   mine.Secondary,
			"scores":      mine.Scores,
			"completedAt": mine.CompletedAt,
		}
	}
	// The partner's detailed scores stay private until the shared analysis.
	if theirs != nil {
		resp["partnerDone"] = true
	}
	return resp
}

func isValidationError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "answer") || strings.Contains(err.Error(), "blueprint"))
}
