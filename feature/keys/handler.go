package keys

import (
	"errors"

	"key-manager/core/logger"
	"key-manager/feature/autoflex"
	"key-manager/feature/keys/registry"
	"key-manager/feature/keys/slots"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for the key management feature.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the key management routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Post("/vehicles", h.HandleAddVehicle)
	app.Get("/vehicles/:plate", h.HandleFindVehicle)
	app.Post("/vehicles/:plate/sell", h.HandleSellVehicle)
	app.Post("/vehicles/:plate/handover", h.HandleCompleteHandover)
	app.Delete("/vehicles/:plate", h.HandleRemoveVehicle)
	app.Post("/sync", h.HandleSync)
	app.Get("/slots", h.HandleListSlots)
	app.Get("/sold", h.HandleListSold)
	app.Get("/status", h.HandleStatus)
	app.Get("/history", h.HandleHistory)
}

type addVehicleRequest struct {
	LicensePlate  string  `json:"license_plate"`
	PurchasePrice float64 `json:"purchase_price"`
}

type sellVehicleRequest struct {
	SoldPrice float64 `json:"sold_price"`
}

// HandleAddVehicle registers a vehicle manually and assigns it a slot.
func (h *Handler) HandleAddVehicle(c *fiber.Ctx) error {
	var req addVehicleRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, ErrInvalidInput)
	}

	assignment, err := h.service.AddVehicle(req.LicensePlate, req.PurchasePrice)
	if err != nil {
		h.logError(c, "Add vehicle failed", err)
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(assignment)
}

// HandleFindVehicle returns the vehicle registered under the plate.
func (h *Handler) HandleFindVehicle(c *fiber.Ctx) error {
	vehicle, err := h.service.FindVehicle(c.Params("plate"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(vehicle)
}

// HandleSellVehicle moves a vehicle to the sold pool.
func (h *Handler) HandleSellVehicle(c *fiber.Ctx) error {
	var req sellVehicleRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, ErrInvalidInput)
	}

	sold, err := h.service.SellVehicle(c.Params("plate"), req.SoldPrice)
	if err != nil {
		h.logError(c, "Sell vehicle failed", err)
		return fail(c, err)
	}
	return c.JSON(sold)
}

// HandleCompleteHandover completes the key handover of a sold vehicle.
func (h *Handler) HandleCompleteHandover(c *fiber.Ctx) error {
	if err := h.service.CompleteHandover(c.Params("plate")); err != nil {
		h.logError(c, "Handover failed", err)
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"status": "handed_over"})
}

// HandleRemoveVehicle administratively removes a vehicle.
func (h *Handler) HandleRemoveVehicle(c *fiber.Ctx) error {
	if err := h.service.RemoveVehicle(c.Params("plate")); err != nil {
		h.logError(c, "Remove vehicle failed", err)
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleSync triggers a reconciliation against the external source.
func (h *Handler) HandleSync(c *fiber.Ctx) error {
	report, err := h.service.Sync(c.Context())
	if err != nil {
		h.logError(c, "Sync failed", err)
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"summary": report.Summary(),
		"report":  report,
	})
}

// HandleListSlots returns the tiered slot overview. The optional "tier"
// query parameter filters to one tier (premium, midden, budget).
func (h *Handler) HandleListSlots(c *fiber.Ctx) error {
	views, err := h.service.ListSlots(c.Query("tier"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(views)
}

// HandleListSold returns the sold vehicles awaiting handover.
func (h *Handler) HandleListSold(c *fiber.Ctx) error {
	return c.JSON(h.service.ListSold())
}

// HandleHistory returns recent key movements from the movement log.
func (h *Handler) HandleHistory(c *fiber.Ctx) error {
	events, err := h.service.History(c.QueryInt("limit", 50))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(events)
}

// HandleStatus returns occupancy counts and the last sync outcome.
func (h *Handler) HandleStatus(c *fiber.Ctx) error {
	return c.JSON(h.service.Status())
}

func (h *Handler) logError(c *fiber.Ctx, msg string, err error) {
	logger.WithRayID(h.service.logger, c).Warn(msg, zap.Error(err))
}

// fail maps an error to its HTTP status and renders the standard error body.
func fail(c *fiber.Ctx, err error) error {
	return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
}

func statusFor(err error) int {
	var capErr *slots.CapacityError
	switch {
	case errors.Is(err, ErrInvalidInput):
		return fiber.StatusBadRequest
	case errors.Is(err, registry.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, registry.ErrAlreadyExists), errors.Is(err, registry.ErrInvalidState):
		return fiber.StatusConflict
	case errors.As(err, &capErr):
		return fiber.StatusConflict
	case errors.Is(err, autoflex.ErrSyncUnavailable):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}
