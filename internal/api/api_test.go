package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/burrow/internal/db"
	"github.com/erazemk/burrow/internal/model"
	"github.com/erazemk/burrow/internal/ratelimit"
)

const testJWTSecret = "test-secret"

func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	return setupTestServerWithLimiter(t, ratelimit.New(1000, 1000))
}

func setupTestServerWithLimiter(t *testing.T, limiter *ratelimit.Limiter) *httptest.Server {
	t.Helper()
	database := db.NewTestDB(t)
	server := httptest.NewServer(NewRouter(database, testJWTSecret, limiter))
	t.Cleanup(server.Close)
	return server
}

// do sends a JSON request and decodes a JSON response into out if non-nil.
func do(t *testing.T, method, url, token string, body, out any) int {
	t.Helper()

	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out), "decoding %s %s", method, url)
	}
	return resp.StatusCode
}

func signUp(t *testing.T, server *httptest.Server, email string) string {
	t.Helper()
	var resp tokenResponse
	code := do(t, "POST", server.URL+"/api/auth/signup", "", map[string]string{
		"email": email, "password": "password123",
	}, &resp)
	require.Equal(t, http.StatusCreated, code)
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func createItem(t *testing.T, server *httptest.Server, token, title string, price float64) model.Item {
	t.Helper()
	var item model.Item
	code := do(t, "POST", server.URL+"/api/items", token, map[string]any{
		"title":         title,
		"category_id":   "tools",
		"price_per_day": price,
		"location":      "Center",
		"condition":     "good",
	}, &item)
	require.Equal(t, http.StatusCreated, code)
	return item
}

func tomorrow() string {
	return time.Now().UTC().AddDate(0, 0, 1).Format(model.DateLayout)
}

func createRequest(t *testing.T, server *httptest.Server, token, itemID string) model.RentalRequest {
	t.Helper()
	var rr model.RentalRequest
	code := do(t, "POST", server.URL+"/api/requests", token, map[string]string{
		"item_id": itemID, "start_date": tomorrow(), "end_date": tomorrow(), "message": "hi",
	}, &rr)
	require.Equal(t, http.StatusCreated, code)
	return rr
}

func TestAuthFlow(t *testing.T) {
	server := setupTestServer(t)
	token := signUp(t, server, "ana@example.com")

	var me map[string]string
	assert.Equal(t, http.StatusOK, do(t, "GET", server.URL+"/api/auth/me", token, nil, &me))
	assert.Equal(t, "ana@example.com", me["email"])

	// Duplicate sign-up.
	assert.Equal(t, http.StatusConflict, do(t, "POST", server.URL+"/api/auth/signup", "", map[string]string{
		"email": "ANA@example.com", "password": "password123",
	}, nil))

	// Bad password, then a good one.
	assert.Equal(t, http.StatusUnauthorized, do(t, "POST", server.URL+"/api/auth/login", "", map[string]string{
		"email": "ana@example.com", "password": "wrong",
	}, nil))
	var login tokenResponse
	assert.Equal(t, http.StatusOK, do(t, "POST", server.URL+"/api/auth/login", "", map[string]string{
		"email": "ana@example.com", "password": "password123",
	}, &login))
	assert.NotEmpty(t, login.Token)

	// Logging out revokes the token.
	assert.Equal(t, http.StatusOK, do(t, "POST", server.URL+"/api/auth/logout", token, nil, nil))
	assert.Equal(t, http.StatusUnauthorized, do(t, "GET", server.URL+"/api/auth/me", token, nil, nil))
	assert.Equal(t, http.StatusOK, do(t, "GET", server.URL+"/api/auth/me", login.Token, nil, nil))
}

func TestSignUpValidation(t *testing.T) {
	server := setupTestServer(t)

	assert.Equal(t, http.StatusBadRequest, do(t, "POST", server.URL+"/api/auth/signup", "", map[string]string{
		"email": "not-an-email", "password": "password123",
	}, nil))
	assert.Equal(t, http.StatusBadRequest, do(t, "POST", server.URL+"/api/auth/signup", "", map[string]string{
		"email": "a@example.com", "password": "short",
	}, nil))
}

func TestUnauthenticated(t *testing.T) {
	server := setupTestServer(t)

	assert.Equal(t, http.StatusUnauthorized, do(t, "GET", server.URL+"/api/my/listings", "", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, do(t, "POST", server.URL+"/api/items", "garbage", map[string]string{}, nil))
	assert.Equal(t, http.StatusOK, do(t, "GET", server.URL+"/api/items", "", nil, nil))
}

func TestItemsListFilterAndSort(t *testing.T) {
	server := setupTestServer(t)
	token := signUp(t, server, "owner@example.com")

	createItem(t, server, token, "Power Drill", 10)
	createItem(t, server, token, "Camping Tent", 5)

	var items []map[string]any
	require.Equal(t, http.StatusOK, do(t, "GET", server.URL+"/api/items", "", nil, &items))
	require.Len(t, items, 2)
	assert.Equal(t, "Camping Tent", items[0]["title"], "newest first")
	assert.Nil(t, items[0]["avg_rating"])
	assert.Nil(t, items[0]["review_count"])

	require.Equal(t, http.StatusOK, do(t, "GET", server.URL+"/api/items?sort=price-high", "", nil, &items))
	assert.Equal(t, "Power Drill", items[0]["title"])

	require.Equal(t, http.StatusOK, do(t, "GET", server.URL+"/api/items?q=DRILL", "", nil, &items))
	require.Len(t, items, 1)
	assert.Equal(t, "Power Drill", items[0]["title"])

	require.Equal(t, http.StatusOK, do(t, "GET", server.URL+"/api/items?category=party", "", nil, &items))
	assert.Empty(t, items)

	require.Equal(t, http.StatusOK, do(t, "GET", server.URL+"/api/items?condition=all&category=tools", "", nil, &items))
	assert.Len(t, items, 2)

	var categories []model.Category
	require.Equal(t, http.StatusOK, do(t, "GET", server.URL+"/api/categories", "", nil, &categories))
	assert.Len(t, categories, 8)
}

func TestItemCreateValidationAndUpdate(t *testing.T) {
	server := setupTestServer(t)
	owner := signUp(t, server, "owner@example.com")
	other := signUp(t, server, "other@example.com")

	assert.Equal(t, http.StatusBadRequest, do(t, "POST", server.URL+"/api/items", owner, map[string]any{
		"title": "Drill", "category_id": "boats", "price_per_day": 1, "location": "X", "condition": "good",
	}, nil))
	assert.Equal(t, http.StatusBadRequest, do(t, "POST", server.URL+"/api/items", owner, map[string]any{
		"title": "Drill", "category_id": "tools", "price_per_day": -1, "location": "X", "condition": "good",
	}, nil))

	item := createItem(t, server, owner, "Drill", 3)
	update := map[string]any{
		"title": "Drill v2", "category_id": "tools", "price_per_day": 4, "location": "X",
		"condition": "fair", "is_available": false,
	}

	assert.Equal(t, http.StatusNotFound, do(t, "PUT", server.URL+"/api/items/"+item.ID, other, update, nil))

	var updated model.Item
	require.Equal(t, http.StatusOK, do(t, "PUT", server.URL+"/api/items/"+item.ID, owner, update, &updated))
	assert.Equal(t, "Drill v2", updated.Title)
	assert.False(t, updated.IsAvailable)

	// Unavailable items drop out of the public list.
	var items []model.Item
	require.Equal(t, http.StatusOK, do(t, "GET", server.URL+"/api/items", "", nil, &items))
	assert.Empty(t, items)

	assert.Equal(t, http.StatusNotFound, do(t, "GET", server.URL+"/api/items/nope", "", nil, nil))
}

func TestRequestLifecycle(t *testing.T) {
	server := setupTestServer(t)
	owner := signUp(t, server, "owner@example.com")
	borrower := signUp(t, server, "borrower@example.com")
	item := createItem(t, server, owner, "Ladder", 4)

	// Owners cannot borrow their own items.
	assert.Equal(t, http.StatusForbidden, do(t, "POST", server.URL+"/api/requests", owner, map[string]string{
		"item_id": item.ID, "start_date": tomorrow(), "end_date": tomorrow(),
	}, nil))

	// Dates in the past or reversed are rejected.
	yesterday := time.Now().UTC().AddDate(0, 0, -1).Format(model.DateLayout)
	assert.Equal(t, http.StatusBadRequest, do(t, "POST", server.URL+"/api/requests", borrower, map[string]string{
		"item_id": item.ID, "start_date": yesterday, "end_date": tomorrow(),
	}, nil))
	assert.Equal(t, http.StatusBadRequest, do(t, "POST", server.URL+"/api/requests", borrower, map[string]string{
		"item_id": item.ID, "start_date": tomorrow(), "end_date": time.Now().UTC().Format(model.DateLayout),
	}, nil))

	rr := createRequest(t, server, borrower, item.ID)
	assert.Equal(t, model.StatusPending, rr.Status)

	var mine []map[string]any
	require.Equal(t, http.StatusOK, do(t, "GET", server.URL+"/api/my/listings", owner, nil, &mine))
	require.Len(t, mine, 1)
	assert.EqualValues(t, 1, mine[0]["pending_count"])

	var incoming []model.RentalRequest
	require.Equal(t, http.StatusOK, do(t, "GET", server.URL+"/api/requests?role=owner", owner, nil, &incoming))
	require.Len(t, incoming, 1)
	assert.Equal(t, "borrower", incoming[0].BorrowerName)

	// Only the owner may resolve.
	assert.Equal(t, http.StatusNotFound, do(t, "POST", server.URL+"/api/requests/"+rr.ID+"/approve", borrower, nil, nil))

	var resolved model.RentalRequest
	require.Equal(t, http.StatusOK, do(t, "POST", server.URL+"/api/requests/"+rr.ID+"/approve", owner,
		map[string]string{"response": "Pick up at 5"}, &resolved))
	assert.Equal(t, model.StatusApproved, resolved.Status)
	assert.Equal(t, "Pick up at 5", resolved.OwnerResponse)

	// The second resolution conflicts and changes nothing.
	assert.Equal(t, http.StatusConflict, do(t, "POST", server.URL+"/api/requests/"+rr.ID+"/reject", owner, nil, nil))

	var made []model.RentalRequest
	require.Equal(t, http.StatusOK, do(t, "GET", server.URL+"/api/requests", borrower, nil, &made))
	require.Len(t, made, 1)
	assert.Equal(t, model.StatusApproved, made[0].Status)

	require.Equal(t, http.StatusOK, do(t, "GET", server.URL+"/api/my/listings", owner, nil, &mine))
	assert.EqualValues(t, 0, mine[0]["pending_count"])

	assert.Equal(t, http.StatusBadRequest, do(t, "GET", server.URL+"/api/requests?role=admin", owner, nil, nil))
}

func TestReviewFlow(t *testing.T) {
	server := setupTestServer(t)
	owner := signUp(t, server, "owner@example.com")
	borrower := signUp(t, server, "borrower@example.com")
	item := createItem(t, server, owner, "Tent", 8)
	reviewsURL := server.URL + "/api/items/" + item.ID + "/reviews"

	assert.Equal(t, http.StatusForbidden, do(t, "POST", reviewsURL, borrower, map[string]any{"rating": 5}, nil))

	rr := createRequest(t, server, borrower, item.ID)
	require.Equal(t, http.StatusOK, do(t, "POST", server.URL+"/api/requests/"+rr.ID+"/approve", owner, nil, nil))

	assert.Equal(t, http.StatusBadRequest, do(t, "POST", reviewsURL, borrower, map[string]any{"rating": 6}, nil))
	assert.Equal(t, http.StatusCreated, do(t, "POST", reviewsURL, borrower, map[string]any{"rating": 4, "comment": "Dry all night"}, nil))
	assert.Equal(t, http.StatusConflict, do(t, "POST", reviewsURL, borrower, map[string]any{"rating": 5}, nil))

	var detail struct {
		Item    map[string]any `json:"item"`
		Reviews []model.Review `json:"reviews"`
	}
	require.Equal(t, http.StatusOK, do(t, "GET", server.URL+"/api/items/"+item.ID, "", nil, &detail))
	assert.EqualValues(t, 4, detail.Item["avg_rating"])
	assert.EqualValues(t, 1, detail.Item["review_count"])
	require.Len(t, detail.Reviews, 1)
	assert.Equal(t, "Dry all night", detail.Reviews[0].Comment)
}

func TestProfile(t *testing.T) {
	server := setupTestServer(t)
	token := signUp(t, server, "mia@example.com")

	var p model.Profile
	require.Equal(t, http.StatusOK, do(t, "GET", server.URL+"/api/profile", token, nil, &p))
	assert.Equal(t, "mia", p.DisplayName)

	require.Equal(t, http.StatusOK, do(t, "PUT", server.URL+"/api/profile", token, map[string]string{
		"display_name": "Mia K", "university": "UL",
	}, &p))
	assert.Equal(t, "Mia K", p.DisplayName)

	require.Equal(t, http.StatusOK, do(t, "GET", server.URL+"/api/profile", token, nil, &p))
	assert.Equal(t, "UL", p.University)
}

func TestLoginRateLimited(t *testing.T) {
	server := setupTestServerWithLimiter(t, ratelimit.New(1, 2))

	codes := make([]int, 3)
	for i := range codes {
		codes[i] = do(t, "POST", server.URL+"/api/auth/login", "", map[string]string{
			"email": fmt.Sprintf("u%d@example.com", i), "password": "password123",
		}, nil)
	}
	assert.Equal(t, []int{http.StatusUnauthorized, http.StatusUnauthorized, http.StatusTooManyRequests}, codes)
}
