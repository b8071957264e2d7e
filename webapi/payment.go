// PaymentRoutes registers the merchant-facing payment endpoints.
//
// Routes:
//   - POST /payments/deposits                 : create a PIX charge.
//   - GET  /payments/deposits/:external_id    : charge status.
//   - POST /payments/withdrawals              : create a PIX cash-out.
//   - GET  /payments/withdrawals/:external_id : cash-out status.
//   - POST /admin/withdrawals/:id/release     : approve a parked cash-out.
//   - POST /admin/withdrawals/:id/refuse      : refuse a parked cash-out.
//
// The caller's account comes from the X-Account-Id header, injected by
// the gateway in front of this service. X-Request-Origin: web marks
// panel-originated withdrawals, which pay the flat web fee.
package webapi

import (
	"github.com/andrevalim/pixhub/pkg/service/payment"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

const (
	headerAccountID = "X-Account-Id"
	headerOrigin    = "X-Request-Origin"
)

func PaymentRoutes(api *fiber.App, svc *payment.Service) {
	api.Post("/payments/deposits", CreateDeposit(svc))
	api.Get("/payments/deposits/:external_id", GetDeposit(svc))
	api.Post("/payments/withdrawals", CreateWithdrawal(svc))
	api.Get("/payments/withdrawals/:external_id", GetWithdrawal(svc))
	api.Post("/admin/withdrawals/:id/release", ReleaseWithdrawal(svc))
	api.Post("/admin/withdrawals/:id/refuse", RefuseWithdrawal(svc))
}

func accountID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Get(headerAccountID))
	if err != nil {
		return uuid.Nil, ProblemDetailsJSON(c, fiber.StatusUnauthorized, "Missing account", "X-Account-Id header is required")
	}
	return id, nil
}

// CreateDeposit returns the handler that creates a charge at the
// acquirer and persists the deposit.
func CreateDeposit(svc *payment.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		accID, err := accountID(c)
		if err != nil {
			return err
		}
		input, err := BindAndValidate[payment.DepositRequest](c)
		if err != nil {
			return nil
		}

		resp, err := svc.CreateDeposit(c.Context(), accID, *input)
		if err != nil {
			log.Errorf("Failed to create deposit: %v", err)
			return ProblemDetailsJSON(c, ErrorToStatusCode(err), "Failed to create deposit", err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(Response{
			Status:  fiber.StatusCreated,
			Message: "Deposit created",
			Data:    resp,
		})
	}
}

// GetDeposit returns the handler that reports a charge's status. The
// lookup is scoped to the caller's account.
func GetDeposit(svc *payment.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		accID, err := accountID(c)
		if err != nil {
			return err
		}

		resp, err := svc.GetDeposit(c.Context(), accID, c.Params("external_id"))
		if err != nil {
			return ProblemDetailsJSON(c, ErrorToStatusCode(err), "Deposit not found", err.Error())
		}
		return c.JSON(Response{Status: fiber.StatusOK, Message: "Deposit status", Data: resp})
	}
}

// CreateWithdrawal returns the handler that creates a cash-out.
func CreateWithdrawal(svc *payment.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		accID, err := accountID(c)
		if err != nil {
			return err
		}
		input, err := BindAndValidate[payment.WithdrawRequest](c)
		if err != nil {
			return nil
		}
		input.WebOrigin = c.Get(headerOrigin) == "web"

		resp, err := svc.CreateWithdrawal(c.Context(), accID, *input)
		if err != nil {
			log.Errorf("Failed to create withdrawal: %v", err)
			return ProblemDetailsJSON(c, ErrorToStatusCode(err), "Failed to create withdrawal", err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(Response{
			Status:  fiber.StatusCreated,
			Message: "Withdrawal created",
			Data:    resp,
		})
	}
}

// GetWithdrawal returns the handler that reports a cash-out's status.
func GetWithdrawal(svc *payment.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		accID, err := accountID(c)
		if err != nil {
			return err
		}

		resp, err := svc.GetWithdrawal(c.Context(), accID, c.Params("external_id"))
		if err != nil {
			return ProblemDetailsJSON(c, ErrorToStatusCode(err), "Withdrawal not found", err.Error())
		}
		return c.JSON(Response{Status: fiber.StatusOK, Message: "Withdrawal status", Data: resp})
	}
}

// ReleaseWithdrawal returns the admin handler that approves a parked
// withdrawal: the payer is debited and the transfer dispatched.
func ReleaseWithdrawal(svc *payment.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return ProblemDetailsJSON(c, fiber.StatusBadRequest, "Invalid withdrawal ID", err.Error())
		}

		if err := svc.ReleaseWithdrawal(c.Context(), id); err != nil {
			log.Errorf("Failed to release withdrawal %s: %v", id, err)
			return ProblemDetailsJSON(c, ErrorToStatusCode(err), "Failed to release withdrawal", err.Error())
		}
		return c.JSON(Response{Status: fiber.StatusOK, Message: "Withdrawal released"})
	}
}

// RefuseWithdrawal returns the admin handler that refuses a parked
// withdrawal. Nothing was debited, so nothing is refunded.
func RefuseWithdrawal(svc *payment.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return ProblemDetailsJSON(c, fiber.StatusBadRequest, "Invalid withdrawal ID", err.Error())
		}

		if err := svc.RefuseWithdrawal(c.Context(), id); err != nil {
			log.Errorf("Failed to refuse withdrawal %s: %v", id, err)
			return ProblemDetailsJSON(c, ErrorToStatusCode(err), "Failed to refuse withdrawal", err.Error())
		}
		return c.JSON(Response{Status: fiber.StatusOK, Message: "Withdrawal refused"})
	}
}
