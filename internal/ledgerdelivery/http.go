// Package ledgerdelivery manages delivery layer of the ledger.
package ledgerdelivery

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/amountpkg"
	"github.com/go-petr/pet-ledger/pkg/errorspkg"
	"github.com/go-petr/pet-ledger/pkg/web"
)

// Service provides service layer interface needed by ledger delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package ledgerdelivery
type Service interface {
	CreateAccount(ctx context.Context, arg domain.CreateAccountParams) (domain.Account, error)
	GetByID(ctx context.Context, id int64) (domain.Account, error)
	GetByNumber(ctx context.Context, number string) (domain.Account, error)
	Deposit(ctx context.Context, accountID, amount int64) (domain.Account, error)
	Withdraw(ctx context.Context, accountID, amount int64) (domain.Account, error)
	Transfer(ctx context.Context, arg domain.TransferParams) (domain.TransferResult, error)
}

// Handler facilitates ledger delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns ledger handler.
func NewHandler(s Service) Handler {
	return Handler{service: s}
}

type accountData struct {
	Account domain.Account `json:"account"`
}

type accountResponse struct {
	Data accountData `json:"data,omitempty"`
}

type transferData struct {
	Transfer domain.TransferResult `json:"transfer"`
}

type transferResponse struct {
	Data transferData `json:"data,omitempty"`
}

// statusOf maps a service error onto the http status code.
func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateAccountNumber):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidAmount), errors.Is(err, domain.ErrInvalidAccount):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrStoreTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, domain.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	}

	return http.StatusInternalServerError
}

func abortWithServiceError(gctx *gin.Context, err error) {
	code := statusOf(err)
	if code == http.StatusInternalServerError {
		zerolog.Ctx(gctx.Request.Context()).Error().Err(err).Send()
		err = errorspkg.ErrInternal
	}

	gctx.JSON(code, web.Error(err))
}

func abortWithBindError(gctx *gin.Context, err error) {
	var (
		ve     validator.ValidationErrors
		errMsg string
	)

	if errors.As(err, &ve) {
		field := ve[0]
		errMsg = field.Field() + web.GetErrorMsg(field)
	} else {
		errMsg = "malformed request"
	}

	zerolog.Ctx(gctx.Request.Context()).Info().Err(err).Send()
	gctx.JSON(http.StatusBadRequest, web.Response{Error: errMsg})
}

func abortWithAmountError(gctx *gin.Context, err error) {
	zerolog.Ctx(gctx.Request.Context()).Info().Err(err).Send()
	gctx.JSON(http.StatusBadRequest, web.Response{Error: "Amount " + err.Error()})
}

type createAccountRequest struct {
	Number         string          `json:"number" binding:"required,account_number"`
	HolderName     string          `json:"holder_name" binding:"required,max=100"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
}

// CreateAccount handles http request to open an account.
func (h *Handler) CreateAccount(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var req createAccountRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		abortWithBindError(gctx, err)
		return
	}

	balance, err := amountpkg.FromDecimal(req.InitialBalance)
	if err != nil {
		abortWithAmountError(gctx, err)
		return
	}

	account, err := h.service.CreateAccount(ctx, domain.CreateAccountParams{
		Number:         req.Number,
		HolderName:     req.HolderName,
		InitialBalance: balance,
	})
	if err != nil {
		abortWithServiceError(gctx, err)
		return
	}

	gctx.JSON(http.StatusCreated, accountResponse{Data: accountData{account}})
}

type findAccountRequest struct {
	Number string `form:"number" binding:"required,account_number"`
}

// FindAccount handles http request to look an account up by its number.
func (h *Handler) FindAccount(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var req findAccountRequest
	if err := gctx.ShouldBindQuery(&req); err != nil {
		abortWithBindError(gctx, err)
		return
	}

	account, err := h.service.GetByNumber(ctx, req.Number)
	if err != nil {
		abortWithServiceError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, accountResponse{Data: accountData{account}})
}

type accountURI struct {
	ID int64 `uri:"id" binding:"required,min=1"`
}

// GetAccount handles http request to get an account by id.
func (h *Handler) GetAccount(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var uri accountURI
	if err := gctx.ShouldBindUri(&uri); err != nil {
		abortWithBindError(gctx, err)
		return
	}

	account, err := h.service.GetByID(ctx, uri.ID)
	if err != nil {
		abortWithServiceError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, accountResponse{Data: accountData{account}})
}

type amountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// Deposit handles http request to deposit money to an account.
func (h *Handler) Deposit(gctx *gin.Context) {
	h.mutate(gctx, h.service.Deposit)
}

// Withdraw handles http request to withdraw money from an account.
func (h *Handler) Withdraw(gctx *gin.Context) {
	h.mutate(gctx, h.service.Withdraw)
}

func (h *Handler) mutate(gctx *gin.Context, apply func(ctx context.Context, accountID, amount int64) (domain.Account, error)) {
	ctx := gctx.Request.Context()

	var uri accountURI
	if err := gctx.ShouldBindUri(&uri); err != nil {
		abortWithBindError(gctx, err)
		return
	}

	var req amountRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		abortWithBindError(gctx, err)
		return
	}

	amount, err := amountpkg.FromDecimal(req.Amount)
	if err != nil {
		abortWithAmountError(gctx, err)
		return
	}

	account, err := apply(ctx, uri.ID, amount)
	if err != nil {
		abortWithServiceError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, accountResponse{Data: accountData{account}})
}

type transferRequest struct {
	FromAccountID int64           `json:"from_account_id" binding:"required,min=1"`
	ToAccountID   int64           `json:"to_account_id" binding:"required,min=1"`
	Amount        decimal.Decimal `json:"amount"`
}

// Transfer handles http request to move money between accounts.
func (h *Handler) Transfer(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var req transferRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		abortWithBindError(gctx, err)
		return
	}

	amount, err := amountpkg.FromDecimal(req.Amount)
	if err != nil {
		abortWithAmountError(gctx, err)
		return
	}

	result, err := h.service.Transfer(ctx, domain.TransferParams{
		FromAccountID: req.FromAccountID,
		ToAccountID:   req.ToAccountID,
		Amount:        amount,
	})
	if err != nil {
		abortWithServiceError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, transferResponse{Data: transferData{result}})
}
