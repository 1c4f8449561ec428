package topup

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes top-up HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a top-up handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	BeneficiaryIDs []string `json:"beneficiary_ids"`
	Quantity       int      `json:"quantity"`
	Amount         int64    `json:"amount"`
	BankAccountNo  string   `json:"bank_account_no"`
}

type topupResponse struct {
	Code          string     `json:"code"`
	Status        Status     `json:"status"`
	Amount        int64      `json:"amount"`
	OwnerID       string     `json:"owner_id,omitempty"`
	BankAccountNo string     `json:"bank_account_no,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// Create issues pending top-up intents for the authenticated requester.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	requester, _ := c.Locals("actor_id").(string)

	created, err := h.service.Create(c.UserContext(), CreateInput{
		RequesterID:    requester,
		BeneficiaryIDs: req.BeneficiaryIDs,
		Quantity:       req.Quantity,
		Amount:         req.Amount,
		BankAccountNo:  req.BankAccountNo,
	})
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			return c.Status(http.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": fiber.Map{"field": verr.Field, "message": verr.Message},
			})
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	out := make([]topupResponse, 0, len(created))
	for _, t := range created {
		out = append(out, topupResponse{
			Code:          t.Code,
			Status:        t.Status,
			Amount:        t.Amount,
			OwnerID:       t.OwnerID,
			BankAccountNo: t.BankAccountNo,
		})
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"topups": out})
}

// Status returns the most recent top-up for the code in the path.
func (h *Handler) Status(c *fiber.Ctx) error {
	t, err := h.service.Status(c.UserContext(), c.Params("code"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "topup not found"})
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(topupResponse{
		Code:        t.Code,
		Status:      t.Status,
		Amount:      t.Amount,
		CompletedAt: t.CompletedAt,
	})
}
