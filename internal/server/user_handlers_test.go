package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"tether/internal/models"
	"tether/internal/notifications"
	"tether/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockUserRepository is a testify mock of repository.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByIDs(ctx context.Context, ids []uint) ([]models.User, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func newUserServer(repo *MockUserRepository) *Server {
	return &Server{users: service.NewUserService(repo), hub: notifications.NewHub()}
}

func TestGetUserProfile(t *testing.T) {
	app := fiber.New()
	mockRepo := new(MockUserRepository)
	s := newUserServer(mockRepo)

	app.Get("/users/:id", s.GetUserProfile)

	tests := []struct {
		name           string
		userIDParam    string
		mockSetup      func()
		expectedStatus int
	}{
		{
			name:        "Success",
			userIDParam: "1",
			mockSetup: func() {
				mockRepo.On("GetByID", mock.Anything, uint(1)).Return(&models.User{ID: 1, Username: "testuser"}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Invalid ID",
			userIDParam:    "abc",
			mockSetup:      func() {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "Not Found",
			userIDParam: "99",
			mockSetup: func() {
				mockRepo.On("GetByID", mock.Anything, uint(99)).Return(nil, models.NewNotFoundError("User", 99))
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			req := httptest.NewRequest(http.MethodGet, "/users/"+tt.userIDParam, nil)
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}
	mockRepo.AssertExpectations(t)
}

func TestGetAllUsers_ClampsLimit(t *testing.T) {
	app := fiber.New()
	mockRepo := new(MockUserRepository)
	s := newUserServer(mockRepo)
	app.Get("/users", s.GetAllUsers)

	mockRepo.On("List", mock.Anything, maxPaginationLimit, 5).
		Return([]models.User{{ID: 1, Username: "a"}, {ID: 2, Username: "b"}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/users?limit=5000&offset=5", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var users []models.User
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&users))
	assert.Len(t, users, 2)
	mockRepo.AssertExpectations(t)
}

func TestGetAllUsers_Timeout(t *testing.T) {
	app := fiber.New()
	mockRepo := new(MockUserRepository)
	s := newUserServer(mockRepo)
	app.Get("/users", s.GetAllUsers)

	mockRepo.On("List", mock.Anything, mock.Anything, mock.Anything).Return(nil, context.DeadlineExceeded)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/users", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusGatewayTimeout, resp.StatusCode)
}

func TestGetMyProfile(t *testing.T) {
	app := fiber.New()
	mockRepo := new(MockUserRepository)
	s := newUserServer(mockRepo)

	// Middleware to set userID in Locals
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("userID", uint(1))
		return c.Next()
	})
	app.Get("/users/me", s.GetMyProfile)

	mockRepo.On("GetByID", mock.Anything, uint(1)).Return(&models.User{ID: 1, Username: "me"}, nil)

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		User   models.User `json:"user"`
		Online bool        `json:"online"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "me", body.User.Username)
	assert.False(t, body.Online)
}
