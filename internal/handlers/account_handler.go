package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/nimeshabuddhika/account-service-go/internal/services"
	"github.com/nimeshabuddhika/account-service-go/pkg"
	"github.com/nimeshabuddhika/account-service-go/pkg/utils"
	"github.com/nimeshabuddhika/account-service-go/pkg/views"
	"go.uber.org/zap"
)

type AccountHandler struct {
	logger  *zap.Logger
	service services.AccountService
}

func NewAccountHandler(logger *zap.Logger, svc services.AccountService) *AccountHandler {
	return &AccountHandler{logger: logger, service: svc}
}

// RegisterRoutes registers account routes on the provided Gin group.
func (h *AccountHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/accounts", h.CreateAccount)
	r.GET("/accounts", h.ListAccounts)
	r.GET("/accounts/:id", h.GetAccount)
	r.PUT("/accounts/:id", h.UpdateAccount)
	r.DELETE("/accounts/:id", h.DeleteAccount)
}

func (h *AccountHandler) CreateAccount(c *gin.Context) {
	traceID, err := utils.GetTraceID(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, pkg.ErrorResponse{
			Code:    pkg.ErrServerCode.Code,
			Message: err.Error(),
		})
		return
	}

	var req views.AccountRequest
	if err = c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, pkg.ErrorResponse{
			Code:    pkg.ErrInvalidInputCode.Code,
			Message: "invalid request body",
			Details: err.Error(),
		})
		return
	}

	account, err := h.service.CreateAccount(c.Request.Context(), traceID, req)
	if err != nil {
		resp := pkg.ToErrorResponse(h.logger, traceID, err)
		c.JSON(resp.Status, resp)
		return
	}

	c.Header("Location", fmt.Sprintf("/accounts/%d", account.ID))
	c.JSON(http.StatusCreated, account)
}

func (h *AccountHandler) GetAccount(c *gin.Context) {
	traceID, err := utils.GetTraceID(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, pkg.ErrorResponse{
			Code:    pkg.ErrServerCode.Code,
			Message: err.Error(),
		})
		return
	}

	id, ok := parseAccountId(c)
	if !ok {
		c.JSON(http.StatusNotFound, pkg.ErrorResponse{
			Code:    pkg.ErrRecordNotFoundCode.Code,
			Message: "account not found",
		})
		return
	}

	account, err := h.service.GetAccountById(c.Request.Context(), traceID, id)
	if err != nil {
		resp := pkg.ToErrorResponse(h.logger, traceID, err)
		c.JSON(resp.Status, resp)
		return
	}

	c.JSON(http.StatusOK, account)
}

func (h *AccountHandler) UpdateAccount(c *gin.Context) {
	traceID, err := utils.GetTraceID(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, pkg.ErrorResponse{
			Code:    pkg.ErrServerCode.Code,
			Message: err.Error(),
		})
		return
	}

	id, ok := parseAccountId(c)
	if !ok {
		c.JSON(http.StatusNotFound, pkg.ErrorResponse{
			Code:    pkg.ErrRecordNotFoundCode.Code,
			Message: "account not found",
		})
		return
	}

	var req views.AccountRequest
	if err = c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, pkg.ErrorResponse{
			Code:    pkg.ErrInvalidInputCode.Code,
			Message: "invalid request body",
			Details: err.Error(),
		})
		return
	}

	account, err := h.service.UpdateAccount(c.Request.Context(), traceID, id, req)
	if err != nil {
		resp := pkg.ToErrorResponse(h.logger, traceID, err)
		c.JSON(resp.Status, resp)
		return
	}

	c.JSON(http.StatusOK, account)
}

// DeleteAccount always returns 204; deleting an absent or unparseable id is a no-op.
func (h *AccountHandler) DeleteAccount(c *gin.Context) {
	traceID, err := utils.GetTraceID(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, pkg.ErrorResponse{
			Code:    pkg.ErrServerCode.Code,
			Message: err.Error(),
		})
		return
	}

	id, ok := parseAccountId(c)
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}

	if err = h.service.DeleteAccount(c.Request.Context(), traceID, id); err != nil {
		resp := pkg.ToErrorResponse(h.logger, traceID, err)
		c.JSON(resp.Status, resp)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *AccountHandler) ListAccounts(c *gin.Context) {
	traceID, err := utils.GetTraceID(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, pkg.ErrorResponse{
			Code:    pkg.ErrServerCode.Code,
			Message: err.Error(),
		})
		return
	}

	accounts, err := h.service.ListAccounts(c.Request.Context(), traceID)
	if err != nil {
		resp := pkg.ToErrorResponse(h.logger, traceID, err)
		c.JSON(resp.Status, resp)
		return
	}

	c.JSON(http.StatusOK, accounts)
}

func parseAccountId(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}
