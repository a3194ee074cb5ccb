package keys

import (
	"key-manager/feature/autoflex"
	"key-manager/feature/keys/history"
	"key-manager/feature/keys/registry"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
}

// NewFeature creates the key management feature.
func NewFeature(reg *registry.Registry, client autoflex.Client, recorder *history.Recorder, logger *zap.Logger) *Feature {
	svc := NewService(reg, client, recorder, logger)
	h := NewHandler(svc)
	return &Feature{service: svc, handler: h}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "keys"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return true
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}

// Service exposes the underlying service for wiring the auto-sync loop.
func (f *Feature) Service() *Service {
	return f.service
}
