package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"freight-booking/internal/core/apperror"
	"freight-booking/internal/core/auth"
	"freight-booking/internal/core/query"
	"freight-booking/internal/core/server"
	"freight-booking/internal/features/bookings/domain"
	"freight-booking/internal/features/lifecycle"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockBookingService is a mock implementation of ports.BookingService
type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) booking(args mock.Arguments) (*domain.Booking, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingService) Create(ctx context.Context, actor auth.Actor, req domain.CreateRequest) (*domain.Booking, error) {
	return m.booking(m.Called(ctx, actor, req))
}

func (m *MockBookingService) Get(ctx context.Context, actor auth.Actor, id string) (*domain.Booking, error) {
	return m.booking(m.Called(ctx, actor, id))
}

func (m *MockBookingService) List(ctx context.Context, actor auth.Actor, filter domain.Filter) (query.Page[*domain.Booking], error) {
	args := m.Called(ctx, actor, filter)
	return args.Get(0).(query.Page[*domain.Booking]), args.Error(1)
}

func (m *MockBookingService) Transition(ctx context.Context, actor auth.Actor, id string, req domain.TransitionRequest) (*domain.Booking, error) {
	return m.booking(m.Called(ctx, actor, id, req))
}

func (m *MockBookingService) Cancel(ctx context.Context, actor auth.Actor, id, reason string) (*domain.Booking, error) {
	return m.booking(m.Called(ctx, actor, id, reason))
}

func (m *MockBookingService) Assign(ctx context.Context, actor auth.Actor, id, assignee string) (*domain.Booking, error) {
	return m.booking(m.Called(ctx, actor, id, assignee))
}

func (m *MockBookingService) AddNote(ctx context.Context, actor auth.Actor, id, text string) (*domain.Booking, error) {
	return m.booking(m.Called(ctx, actor, id, text))
}

func (m *MockBookingService) AddCharge(ctx context.Context, actor auth.Actor, id, label string, amount decimal.Decimal) (*domain.Booking, error) {
	return m.booking(m.Called(ctx, actor, id, label, amount))
}

func (m *MockBookingService) UpdateCargo(ctx context.Context, actor auth.Actor, id string, items []domain.CargoItem) (*domain.Booking, error) {
	return m.booking(m.Called(ctx, actor, id, items))
}

func (m *MockBookingService) IssueInvoice(ctx context.Context, actor auth.Actor, id string) (*domain.Booking, error) {
	return m.booking(m.Called(ctx, actor, id))
}

func (m *MockBookingService) SoftDelete(ctx context.Context, actor auth.Actor, id, reason string) (*domain.Booking, error) {
	return m.booking(m.Called(ctx, actor, id, reason))
}

func (m *MockBookingService) Restore(ctx context.Context, actor auth.Actor, id string) (*domain.Booking, error) {
	return m.booking(m.Called(ctx, actor, id))
}

func (m *MockBookingService) HardDelete(ctx context.Context, actor auth.Actor, id string, confirm bool) error {
	return m.Called(ctx, actor, id, confirm).Error(0)
}

func (m *MockBookingService) Trash(ctx context.Context, actor auth.Actor, filter domain.Filter) (query.Page[*domain.Booking], error) {
	args := m.Called(ctx, actor, filter)
	return args.Get(0).(query.Page[*domain.Booking]), args.Error(1)
}

func (m *MockBookingService) EmptyTrash(ctx context.Context, actor auth.Actor, confirm bool) (int64, error) {
	args := m.Called(ctx, actor, confirm)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBookingService) Statistics(ctx context.Context, actor auth.Actor, filter domain.Filter) (lifecycle.Stats, error) {
	args := m.Called(ctx, actor, filter)
	return args.Get(0).(lifecycle.Stats), args.Error(1)
}

var ops = auth.Actor{ID: "ops-1", Role: auth.RoleOperations}

func setupApp(service *MockBookingService, withActor bool) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("requestid", "test-ray-id")
		return c.Next()
	})
	if withActor {
		app.Use(auth.WithActor(ops))
	}
	NewBookingHandler(service).Register(app)
	return app
}

func sample(status domain.Status) *domain.Booking {
	b := &domain.Booking{CustomerID: "cust-1"}
	b.ID = "b-1"
	b.Number = "BA2501-0001"
	b.Status = status
	return b
}

func send(t *testing.T, app *fiber.App, method, target, body string) *http.Response {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, bytes.NewReader([]byte(body)))
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestBookingHandler_Create(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockService := new(MockBookingService)
		app := setupApp(mockService, true)

		mockService.On("Create", mock.Anything, ops, mock.MatchedBy(func(req domain.CreateRequest) bool {
			return req.CustomerID == "cust-1" && req.Origin == "cn" && len(req.CargoDetails) == 1
		})).Return(sample(domain.StatusRequested), nil).Once()

		resp := send(t, app, "POST", "/bookings", `{"customer_id":"cust-1","origin":"cn","destination":"ng","cargo_details":[{"description":"shoes","cartons":2,"weight":10,"volume":0.2}]}`)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		body := decode(t, resp)
		assert.Equal(t, "BA2501-0001", body["number"])
		assert.Equal(t, float64(0), body["progressPercentage"])
		assert.ElementsMatch(t, []any{"booking_confirmed", "cancelled"}, body["allowed_transitions"])
		mockService.AssertExpectations(t)
	})

	t.Run("InvalidBody", func(t *testing.T) {
		mockService := new(MockBookingService)
		app := setupApp(mockService, true)

		resp := send(t, app, "POST", "/bookings", `{"origin":`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		mockService.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Unauthenticated", func(t *testing.T) {
		mockService := new(MockBookingService)
		app := setupApp(mockService, false)

		resp := send(t, app, "POST", "/bookings", `{}`)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestBookingHandler_List(t *testing.T) {
	mockService := new(MockBookingService)
	app := setupApp(mockService, true)

	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mockService.On("List", mock.Anything, ops, mock.MatchedBy(func(f domain.Filter) bool {
		return assert.ObjectsAreEqual([]string{"booking_requested", "booking_confirmed"}, f.Statuses) &&
			f.Number == "BA25" && f.CustomerID == "cust-1" && f.SortBy == "number" && f.Desc &&
			f.Skip == 10 && f.Limit == 5 && f.CreatedFrom.Equal(from) &&
			f.CreatedTo.Equal(from.Add(24*time.Hour-time.Nanosecond))
	})).Return(query.Page[*domain.Booking]{
		Items: []*domain.Booking{sample(domain.StatusRequested)},
		Total: 11, Skip: 10, Limit: 5,
	}, nil).Once()

	resp := send(t, app, "GET", "/bookings?status=booking_requested,booking_confirmed&q=BA25&customer_id=cust-1&sort_by=number&order=desc&skip=10&limit=5&created_from=2025-01-01&created_to=2025-01-01", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode(t, resp)
	assert.Equal(t, float64(11), body["total"])
	items := body["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "b-1", items[0].(map[string]any)["id"])
	mockService.AssertExpectations(t)
}

func TestBookingHandler_ListBadDate(t *testing.T) {
	mockService := new(MockBookingService)
	app := setupApp(mockService, true)

	resp := send(t, app, "GET", "/bookings?created_from=yesterday", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decode(t, resp)
	assert.Equal(t, "VALIDATION_ERROR", body["kind"])
	assert.Equal(t, "created_from", body["details"].(map[string]any)["field"])
	mockService.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingHandler_Get(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockService := new(MockBookingService)
		app := setupApp(mockService, true)

		mockService.On("Get", mock.Anything, ops, "b-1").Return(sample(domain.StatusReceived), nil).Once()

		resp := send(t, app, "GET", "/bookings/b-1", "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, float64(30), decode(t, resp)["progressPercentage"])
	})

	t.Run("NotFound", func(t *testing.T) {
		mockService := new(MockBookingService)
		app := setupApp(mockService, true)

		mockService.On("Get", mock.Anything, ops, "missing").Return(nil, apperror.NotFound("booking", "missing")).Once()

		resp := send(t, app, "GET", "/bookings/missing", "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		var body server.ErrorResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "NOT_FOUND", body.Kind)
		assert.Equal(t, "test-ray-id", body.RayID)
	})
}

func TestBookingHandler_Transition(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockService := new(MockBookingService)
		app := setupApp(mockService, true)

		mockService.On("Transition", mock.Anything, ops, "b-1", domain.TransitionRequest{
			Status:                 "booking_confirmed",
			Location:               "Guangzhou",
			GenerateTrackingNumber: true,
		}).Return(sample(domain.StatusConfirmed), nil).Once()

		resp := send(t, app, "POST", "/bookings/b-1/transitions", `{"status":"booking_confirmed","location":"Guangzhou","generate_tracking_number":true}`)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "booking_confirmed", decode(t, resp)["status"])
		mockService.AssertExpectations(t)
	})

	t.Run("InvalidTransition", func(t *testing.T) {
		mockService := new(MockBookingService)
		app := setupApp(mockService, true)

		mockService.On("Transition", mock.Anything, ops, "b-1", mock.Anything).
			Return(nil, apperror.InvalidTransition("booking_requested", "delivered")).Once()

		resp := send(t, app, "POST", "/bookings/b-1/transitions", `{"status":"delivered"}`)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)

		var body server.ErrorResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "INVALID_TRANSITION", body.Kind)
		assert.Equal(t, "booking_requested", body.Details["current_status"])
		assert.Equal(t, "delivered", body.Details["requested_status"])
	})

	t.Run("Forbidden", func(t *testing.T) {
		mockService := new(MockBookingService)
		app := setupApp(mockService, true)

		mockService.On("Transition", mock.Anything, ops, "b-1", mock.Anything).
			Return(nil, apperror.Unauthorized("move a booking to in_transit", "warehouse")).Once()

		resp := send(t, app, "POST", "/bookings/b-1/transitions", `{"status":"in_transit"}`)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}

func TestBookingHandler_Cancel(t *testing.T) {
	t.Run("BodyReason", func(t *testing.T) {
		mockService := new(MockBookingService)
		app := setupApp(mockService, true)

		mockService.On("Cancel", mock.Anything, ops, "b-1", "customer request").Return(sample(domain.StatusCancelled), nil).Once()

		resp := send(t, app, "POST", "/bookings/b-1/cancel", `{"reason":"customer request"}`)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockService.AssertExpectations(t)
	})

	t.Run("EmptyBody", func(t *testing.T) {
		mockService := new(MockBookingService)
		app := setupApp(mockService, true)

		mockService.On("Cancel", mock.Anything, ops, "b-1", "").Return(sample(domain.StatusCancelled), nil).Once()

		resp := send(t, app, "POST", "/bookings/b-1/cancel", "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockService.AssertExpectations(t)
	})
}

func TestBookingHandler_Mutations(t *testing.T) {
	mockService := new(MockBookingService)
	app := setupApp(mockService, true)

	mockService.On("Assign", mock.Anything, ops, "b-1", "wh-1").Return(sample(domain.StatusConfirmed), nil).Once()
	mockService.On("AddNote", mock.Anything, ops, "b-1", "fragile").Return(sample(domain.StatusConfirmed), nil).Once()
	mockService.On("AddCharge", mock.Anything, ops, "b-1", "storage", mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(decimal.NewFromFloat(12.5))
	})).Return(sample(domain.StatusConfirmed), nil).Once()
	mockService.On("UpdateCargo", mock.Anything, ops, "b-1", []domain.CargoItem{{Description: "bags", Cartons: 1, Weight: 4, Volume: 0.1}}).
		Return(sample(domain.StatusRequested), nil).Once()
	mockService.On("IssueInvoice", mock.Anything, ops, "b-1").Return(sample(domain.StatusConfirmed), nil).Once()

	cases := []struct {
		method, target, body string
		status               int
	}{
		{"PUT", "/bookings/b-1/assignee", `{"assigned_to":"wh-1"}`, http.StatusOK},
		{"POST", "/bookings/b-1/notes", `{"text":"fragile"}`, http.StatusCreated},
		{"POST", "/bookings/b-1/charges", `{"label":"storage","amount":"12.5"}`, http.StatusCreated},
		{"PUT", "/bookings/b-1/cargo", `{"cargo_details":[{"description":"bags","cartons":1,"weight":4,"volume":0.1}]}`, http.StatusOK},
		{"POST", "/bookings/b-1/invoice", "", http.StatusCreated},
	}
	for _, tc := range cases {
		resp := send(t, app, tc.method, tc.target, tc.body)
		assert.Equal(t, tc.status, resp.StatusCode, tc.target)
	}
	mockService.AssertExpectations(t)
}

func TestBookingHandler_Trash(t *testing.T) {
	t.Run("SoftDeleteAndRestore", func(t *testing.T) {
		mockService := new(MockBookingService)
		app := setupApp(mockService, true)

		deleted := sample(domain.StatusRequested)
		deleted.IsDeleted = true
		mockService.On("SoftDelete", mock.Anything, ops, "b-1", "duplicate").Return(deleted, nil).Once()
		mockService.On("Restore", mock.Anything, ops, "b-1").Return(sample(domain.StatusRequested), nil).Once()

		resp := send(t, app, "DELETE", "/bookings/b-1?reason=duplicate", "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body := decode(t, resp)
		assert.Equal(t, true, body["is_deleted"])
		assert.Empty(t, body["allowed_transitions"])

		resp = send(t, app, "POST", "/bookings/b-1/restore", "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockService.AssertExpectations(t)
	})

	t.Run("RestoreLiveBooking", func(t *testing.T) {
		mockService := new(MockBookingService)
		app := setupApp(mockService, true)

		mockService.On("Restore", mock.Anything, ops, "b-1").Return(nil, apperror.NotDeleted("booking", "b-1")).Once()

		resp := send(t, app, "POST", "/bookings/b-1/restore", "")
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("HardDelete", func(t *testing.T) {
		mockService := new(MockBookingService)
		app := setupApp(mockService, true)

		mockService.On("HardDelete", mock.Anything, ops, "b-1", true).Return(nil).Once()
		mockService.On("HardDelete", mock.Anything, ops, "b-2", false).Return(apperror.Validation("confirm", "must be true")).Once()

		resp := send(t, app, "DELETE", "/bookings/b-1/permanent?confirm=true", "")
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)

		resp = send(t, app, "DELETE", "/bookings/b-2/permanent", "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		mockService.AssertExpectations(t)
	})

	t.Run("ListAndEmpty", func(t *testing.T) {
		mockService := new(MockBookingService)
		app := setupApp(mockService, true)

		mockService.On("Trash", mock.Anything, ops, mock.Anything).Return(query.Page[*domain.Booking]{Total: 0, Limit: 20}, nil).Once()
		mockService.On("EmptyTrash", mock.Anything, ops, true).Return(int64(3), nil).Once()

		resp := send(t, app, "GET", "/bookings/trash", "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		resp = send(t, app, "DELETE", "/bookings/trash?confirm=true", "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, float64(3), decode(t, resp)["removed"])
		mockService.AssertExpectations(t)
	})
}

func TestBookingHandler_Statistics(t *testing.T) {
	mockService := new(MockBookingService)
	app := setupApp(mockService, true)

	mockService.On("Statistics", mock.Anything, ops, mock.Anything).Return(lifecycle.Stats{
		Total:    4,
		ByStatus: map[string]int64{"booking_requested": 3, "delivered": 1},
		InTrash:  2,
	}, nil).Once()

	resp := send(t, app, "GET", "/bookings/stats", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var stats lifecycle.Stats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, int64(4), stats.Total)
	assert.Equal(t, int64(2), stats.InTrash)
	mockService.AssertExpectations(t)
}
