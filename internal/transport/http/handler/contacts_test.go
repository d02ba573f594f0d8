package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-contacts-api/internal/application/contact"
	"github.com/go-contacts-api/internal/domain"
	"github.com/go-contacts-api/internal/transport/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockContactService struct{ mock.Mock }

func (m *mockContactService) List(ctx context.Context, ownerID string, f contact.ListFilter) ([]domain.Contact, error) {
	args := m.Called(ctx, ownerID, f)
	if c := args.Get(0); c != nil {
		return c.([]domain.Contact), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockContactService) Get(ctx context.Context, ownerID, contactID string) (*domain.Contact, error) {
	args := m.Called(ctx, ownerID, contactID)
	if c := args.Get(0); c != nil {
		return c.(*domain.Contact), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockContactService) Create(ctx context.Context, ownerID string, req domain.ContactRequest) (*domain.Contact, error) {
	args := m.Called(ctx, ownerID, req)
	if c := args.Get(0); c != nil {
		return c.(*domain.Contact), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockContactService) Update(ctx context.Context, ownerID, contactID string, req domain.ContactRequest) (*domain.Contact, error) {
	args := m.Called(ctx, ownerID, contactID, req)
	if c := args.Get(0); c != nil {
		return c.(*domain.Contact), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockContactService) Delete(ctx context.Context, ownerID, contactID string) (*domain.Contact, error) {
	args := m.Called(ctx, ownerID, contactID)
	if c := args.Get(0); c != nil {
		return c.(*domain.Contact), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockContactService) UpcomingBirthdays(ctx context.Context, ownerID string) ([]domain.Contact, error) {
	args := m.Called(ctx, ownerID)
	if c := args.Get(0); c != nil {
		return c.([]domain.Contact), args.Error(1)
	}
	return nil, args.Error(1)
}

func authed(req *http.Request, userID string) *http.Request {
	u := &domain.User{UserID: userID, Email: userID + "@example.com", Confirmed: true}
	return req.WithContext(context.WithValue(req.Context(), middleware.UserKey, u))
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestContactList_EmptyIsArray(t *testing.T) {
	svc := &mockContactService{}
	svc.On("List", mock.Anything, "owner-1", contact.ListFilter{}).Return([]domain.Contact{}, nil)
	h := NewContactHandler(svc)

	req := authed(httptest.NewRequest(http.MethodGet, "/v1/contacts", nil), "owner-1")
	rr := httptest.NewRecorder()
	h.List(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "[]\n", rr.Body.String())
}

func TestContactList_ParsesQuery(t *testing.T) {
	svc := &mockContactService{}
	svc.On("List", mock.Anything, "owner-1", contact.ListFilter{
		Limit: 5, Offset: 10, Name: "ann", Surname: "smith", Email: "gmail",
	}).Return([]domain.Contact{}, nil)
	h := NewContactHandler(svc)

	url := "/v1/contacts?limit=5&offset=10&name=ann&surname=smith&email=gmail"
	req := authed(httptest.NewRequest(http.MethodGet, url, nil), "owner-1")
	rr := httptest.NewRecorder()
	h.List(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

func TestContactList_Unauthenticated(t *testing.T) {
	h := NewContactHandler(&mockContactService{})

	req := httptest.NewRequest(http.MethodGet, "/v1/contacts", nil)
	rr := httptest.NewRecorder()
	h.List(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestContactCreate(t *testing.T) {
	svc := &mockContactService{}
	want := &domain.Contact{ContactID: "01C1", UserID: "owner-1", Name: "test"}
	svc.On("Create", mock.Anything, "owner-1", mock.AnythingOfType("domain.ContactRequest")).Return(want, nil)
	h := NewContactHandler(svc)

	body := `{"name":"test","surname":"test","email":"test@gmail.com","phone":"123456789","birthday":"2000-05-05"}`
	req := authed(httptest.NewRequest(http.MethodPost, "/v1/contacts", strings.NewReader(body)), "owner-1")
	rr := httptest.NewRecorder()
	h.Create(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	var got domain.Contact
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "01C1", got.ContactID)
}

func TestContactCreate_InvalidBody(t *testing.T) {
	h := NewContactHandler(&mockContactService{})

	req := authed(httptest.NewRequest(http.MethodPost, "/v1/contacts", strings.NewReader("{not json")), "owner-1")
	rr := httptest.NewRecorder()
	h.Create(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestContactCreate_ValidationFailure(t *testing.T) {
	h := NewContactHandler(&mockContactService{})

	body := `{"name":"","surname":"x","email":"not-an-email","phone":"1","birthday":"2000-05-05"}`
	req := authed(httptest.NewRequest(http.MethodPost, "/v1/contacts", strings.NewReader(body)), "owner-1")
	rr := httptest.NewRecorder()
	h.Create(rr, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestContactGet_StatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"absent", fmt.Errorf("x: %w", domain.ErrNotFound), http.StatusNotFound},
		{"conflict", fmt.Errorf("x: %w", domain.ErrConflict), http.StatusConflict},
		{"unknown", fmt.Errorf("dynamo exploded"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockContactService{}
			svc.On("Get", mock.Anything, "owner-1", "01C1").Return(nil, tc.err)
			h := NewContactHandler(svc)

			req := authed(httptest.NewRequest(http.MethodGet, "/v1/contacts/01C1", nil), "owner-1")
			req = withURLParam(req, "id", "01C1")
			rr := httptest.NewRecorder()
			h.Get(rr, req)

			assert.Equal(t, tc.want, rr.Code)
		})
	}
}

func TestContactGet_OpaqueInternalError(t *testing.T) {
	svc := &mockContactService{}
	svc.On("Get", mock.Anything, "owner-1", "01C1").Return(nil, fmt.Errorf("table arn leak"))
	h := NewContactHandler(svc)

	req := authed(httptest.NewRequest(http.MethodGet, "/v1/contacts/01C1", nil), "owner-1")
	req = withURLParam(req, "id", "01C1")
	rr := httptest.NewRecorder()
	h.Get(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "arn")
}

func TestContactDelete_ReturnsRemoved(t *testing.T) {
	svc := &mockContactService{}
	removed := &domain.Contact{ContactID: "01C1", UserID: "owner-1", Name: "gone"}
	svc.On("Delete", mock.Anything, "owner-1", "01C1").Return(removed, nil)
	h := NewContactHandler(svc)

	req := authed(httptest.NewRequest(http.MethodDelete, "/v1/contacts/01C1", nil), "owner-1")
	req = withURLParam(req, "id", "01C1")
	rr := httptest.NewRecorder()
	h.Delete(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var got domain.Contact
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "gone", got.Name)
}

func TestContactBirthdays(t *testing.T) {
	svc := &mockContactService{}
	svc.On("UpcomingBirthdays", mock.Anything, "owner-1").Return([]domain.Contact{
		{ContactID: "01C1", UserID: "owner-1", Name: "soon"},
	}, nil)
	h := NewContactHandler(svc)

	req := authed(httptest.NewRequest(http.MethodGet, "/v1/contacts/birthdays", nil), "owner-1")
	rr := httptest.NewRecorder()
	h.Birthdays(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var got []domain.Contact
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "soon", got[0].Name)
}
