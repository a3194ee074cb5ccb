package keys

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"key-manager/feature/autoflex"
	"key-manager/feature/autoflex/mocks"
	"key-manager/feature/keys/reconcile"
	"key-manager/feature/keys/registry"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupTestApp(t *testing.T) (*fiber.App, *mocks.Client) {
	t.Helper()
	app := fiber.New()
	svc, client := setupService(t)
	NewHandler(svc).RegisterRoutes(app)
	return app, client
}

func TestHandleAddVehicle(t *testing.T) {
	app, _ := setupTestApp(t)

	req := httptest.NewRequest("POST", "/vehicles", strings.NewReader(`{"license_plate":"AB-123-CD","purchase_price":2500}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)

	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var assignment registry.Assignment
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&assignment))
	assert.Equal(t, "AB-123-CD", assignment.Plate)
	assert.Equal(t, 50, assignment.Slot)
}

func TestHandleAddVehicle_InvalidBody(t *testing.T) {
	app, _ := setupTestApp(t)

	req := httptest.NewRequest("POST", "/vehicles", strings.NewReader("not json"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)

	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHandleAddVehicle_Duplicate(t *testing.T) {
	app, _ := setupTestApp(t)

	body := `{"license_plate":"AB-123-CD","purchase_price":2500}`
	req := httptest.NewRequest("POST", "/vehicles", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	req = httptest.NewRequest("POST", "/vehicles", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	var errBody map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&errBody))
	assert.NotEmpty(t, errBody["error"])
}

func TestHandleFindVehicle_NotFound(t *testing.T) {
	app, _ := setupTestApp(t)

	req := httptest.NewRequest("GET", "/vehicles/XX-999-XX", nil)
	resp, err := app.Test(req)

	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestHandleSellAndHandover(t *testing.T) {
	app, _ := setupTestApp(t)

	req := httptest.NewRequest("POST", "/vehicles", strings.NewReader(`{"license_plate":"AB-123-CD","purchase_price":2500}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	// Handover before sale is a state conflict.
	req = httptest.NewRequest("POST", "/vehicles/AB-123-CD/handover", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	req = httptest.NewRequest("POST", "/vehicles/AB-123-CD/sell", strings.NewReader(`{"sold_price":2999}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var sold registry.SoldVehicle
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&sold))
	assert.Equal(t, "v1", sold.SoldSlot)

	req = httptest.NewRequest("POST", "/vehicles/AB-123-CD/handover", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = httptest.NewRequest("GET", "/vehicles/AB-123-CD", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestHandleRemoveVehicle(t *testing.T) {
	app, _ := setupTestApp(t)

	req := httptest.NewRequest("POST", "/vehicles", strings.NewReader(`{"license_plate":"AB-123-CD","purchase_price":2500}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	req = httptest.NewRequest("DELETE", "/vehicles/AB-123-CD", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}

func TestHandleSync(t *testing.T) {
	app, client := setupTestApp(t)

	client.On("FetchSnapshot", mock.Anything).Return([]reconcile.ExternalVehicle{
		{Plate: "AB123CD", PurchasePrice: 5000},
	}, nil)

	req := httptest.NewRequest("POST", "/sync", nil)
	resp, err := app.Test(req)

	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Summary reconcile.Summary `json:"summary"`
		Report  reconcile.Report  `json:"report"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 1, body.Summary.Added)
	assert.Equal(t, []string{"AB123CD"}, body.Report.Added)
}

func TestHandleSync_Unavailable(t *testing.T) {
	app, client := setupTestApp(t)

	client.On("FetchSnapshot", mock.Anything).Return(nil, autoflex.ErrSyncUnavailable)

	req := httptest.NewRequest("POST", "/sync", nil)
	resp, err := app.Test(req)

	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
}

func TestHandleListSlots(t *testing.T) {
	app, _ := setupTestApp(t)

	req := httptest.NewRequest("GET", "/slots?tier=budget", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var views []registry.SlotView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&views))
	assert.Len(t, views, 100)

	req = httptest.NewRequest("GET", "/slots?tier=luxury", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHandleStatus(t *testing.T) {
	app, _ := setupTestApp(t)

	req := httptest.NewRequest("GET", "/status", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var status SystemStatus
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, 200, status.TotalSlots)
	assert.Equal(t, 10, status.FreeSoldSlots)
}
