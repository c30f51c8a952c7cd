package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coffeeshop/coffeeshop-go/internal/auth/authtest"
	"github.com/coffeeshop/coffeeshop-go/internal/config"
	"github.com/coffeeshop/coffeeshop-go/internal/handler"
	"github.com/coffeeshop/coffeeshop-go/internal/model"
	"github.com/coffeeshop/coffeeshop-go/internal/repository"
	"github.com/coffeeshop/coffeeshop-go/internal/service"
)

const waterBody = `{"title":"Water","recipe":[{"name":"Water","color":"blue","parts":1}]}`

var allPermissions = []string{PermGetDrinksDetail, PermPostDrinks, PermPatchDrinks, PermDeleteDrinks}

type testEnv struct {
	t         *testing.T
	authority *authtest.Authority
	store     *repository.MemoryDrinkRepository
	handler   http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	a := authtest.NewAuthority(t)
	store := repository.NewMemoryDrinkRepository()
	drinks := handler.NewDrinkHandler(service.NewDrinkService(store))
	cfg := config.Config{Port: "0", CORSAllowedOrigins: []string{"*"}}

	return &testEnv{
		t:         t,
		authority: a,
		store:     store,
		handler:   New(cfg, drinks, a.Verifier()).Routes(),
	}
}

func (e *testEnv) request(method, path, authorization, body string) *httptest.ResponseRecorder {
	e.t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) bearer(permissions ...string) string {
	return authtest.Bearer(e.authority.Token(e.t, permissions...))
}

func (e *testEnv) admin() string {
	return e.bearer(allPermissions...)
}

func decodeDrinks(t *testing.T, rec *httptest.ResponseRecorder) model.DrinksResponse {
	t.Helper()
	var resp model.DrinksResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) model.ErrorResponse {
	t.Helper()
	var resp model.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.False(t, resp.Success)
	assert.Equal(t, rec.Code, resp.Error)
	assert.NotEmpty(t, resp.Message)
	return resp
}

func TestCreateDrinkScenario(t *testing.T) {
	e := newTestEnv(t)

	rec := e.request(http.MethodPost, "/drinks", e.bearer(PermPostDrinks), waterBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var raw map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.Equal(t, true, raw["success"])

	drinks := raw["drinks"].([]any)
	require.Len(t, drinks, 1)
	drink := drinks[0].(map[string]any)
	assert.NotZero(t, drink["id"])
	assert.Equal(t, "Water", drink["title"])
	assert.Equal(t, []any{map[string]any{"name": "Water", "color": "blue", "parts": float64(1)}}, drink["recipe"])
}

func TestRecipeRoundTripThroughDetailList(t *testing.T) {
	e := newTestEnv(t)

	rec := e.request(http.MethodPost, "/drinks", e.admin(), waterBody)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.request(http.MethodGet, "/drinks-detail", e.bearer(PermGetDrinksDetail), "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeDrinks(t, rec)
	assert.True(t, resp.Success)
	require.Len(t, resp.Drinks, 1)
	assert.Equal(t, []model.RecipeItem{{Name: "Water", Color: "blue", Parts: 1}}, resp.Drinks[0].Recipe)
}

func TestPublicListNeedsNoToken(t *testing.T) {
	e := newTestEnv(t)

	rec := e.request(http.MethodGet, "/drinks", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"drinks":[]}`, rec.Body.String())

	e.request(http.MethodPost, "/drinks", e.admin(), waterBody)

	resp := decodeDrinks(t, e.request(http.MethodGet, "/drinks", "", ""))
	require.Len(t, resp.Drinks, 1)
	assert.Equal(t, 1, resp.Drinks[0].Recipe[0].Parts)
}

func TestProtectedRoutesRejectMissingPermission(t *testing.T) {
	e := newTestEnv(t)
	e.request(http.MethodPost, "/drinks", e.admin(), waterBody)

	routes := []struct {
		method, path, body, permission string
	}{
		{http.MethodGet, "/drinks-detail", "", PermGetDrinksDetail},
		{http.MethodPost, "/drinks", `{"title":"Tea","recipe":[{"name":"Tea","color":"brown","parts":1}]}`, PermPostDrinks},
		{http.MethodPatch, "/drinks/1", `{"title":"Tea"}`, PermPatchDrinks},
		{http.MethodDelete, "/drinks/1", "", PermDeleteDrinks},
	}

	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			var others []string
			for _, p := range allPermissions {
				if p != rt.permission {
					others = append(others, p)
				}
			}

			rec := e.request(rt.method, rt.path, e.bearer(others...), rt.body)
			assert.Equal(t, http.StatusForbidden, rec.Code)
			decodeError(t, rec)
		})
	}

	drinks, _ := e.store.List(context.Background())
	require.Len(t, drinks, 1)
	assert.Equal(t, "Water", drinks[0].Title)
}

func TestProtectedRoutesRejectMalformedHeaders(t *testing.T) {
	e := newTestEnv(t)
	token := e.authority.Token(t, allPermissions...)

	for _, header := range []string{"", token, "Bearer", "Basic " + token, "Token " + token} {
		rec := e.request(http.MethodGet, "/drinks-detail", header, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
		resp := decodeError(t, rec)
		assert.NotEmpty(t, resp.Code)
	}
}

func TestCreateDuplicateTitle(t *testing.T) {
	e := newTestEnv(t)

	require.Equal(t, http.StatusOK, e.request(http.MethodPost, "/drinks", e.admin(), waterBody).Code)

	rec := e.request(http.MethodPost, "/drinks", e.admin(), `{"title":"Water","recipe":[{"name":"Lemon","color":"yellow","parts":2}]}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	decodeError(t, rec)

	drinks, _ := e.store.List(context.Background())
	require.Len(t, drinks, 1)
	assert.Equal(t, "Water", drinks[0].Recipe[0].Name)
}

func TestCreateValidation(t *testing.T) {
	e := newTestEnv(t)

	for _, body := range []string{
		`{"title":"","recipe":[{"name":"Water","color":"blue","parts":1}]}`,
		`{"title":"Water","recipe":[]}`,
		`{"title":"Water","recipe":{}}`,
		`{"title":"Water","recipe":[{"color":"blue","parts":1}]}`,
		`{"title":"Water"}`,
	} {
		rec := e.request(http.MethodPost, "/drinks", e.admin(), body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		decodeError(t, rec)
	}
}

func TestCreateWithEmptyRecipeObject(t *testing.T) {
	e := newTestEnv(t)

	rec := e.request(http.MethodPost, "/drinks", e.admin(), `{"title":"Nothing","recipe":{}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	resp := decodeError(t, rec)
	assert.Equal(t, http.StatusBadRequest, resp.Error)

	drinks, _ := e.store.List(context.Background())
	assert.Empty(t, drinks)
}

func TestRenameToCaseVariantOfOwnTitle(t *testing.T) {
	e := newTestEnv(t)
	e.request(http.MethodPost, "/drinks", e.admin(), waterBody)

	rec := e.request(http.MethodPatch, "/drinks/1", e.bearer(PermPatchDrinks), `{"title":"WATER"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "WATER", decodeDrinks(t, rec).Drinks[0].Title)
}

func TestUpdateDrink(t *testing.T) {
	e := newTestEnv(t)
	e.request(http.MethodPost, "/drinks", e.admin(), waterBody)

	rec := e.request(http.MethodPatch, "/drinks/1", e.bearer(PermPatchDrinks), `{"title":"Still Water"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeDrinks(t, rec)
	require.Len(t, resp.Drinks, 1)
	assert.Equal(t, "Still Water", resp.Drinks[0].Title)
	assert.Equal(t, []model.RecipeItem{{Name: "Water", Color: "blue", Parts: 1}}, resp.Drinks[0].Recipe)

	rec = e.request(http.MethodPatch, "/drinks/1", e.bearer(PermPatchDrinks), `{"recipe":{"name":"Soda","color":"clear","parts":2}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp = decodeDrinks(t, rec)
	assert.Equal(t, "Still Water", resp.Drinks[0].Title)
	assert.Equal(t, []model.RecipeItem{{Name: "Soda", Color: "clear", Parts: 2}}, resp.Drinks[0].Recipe)
}

func TestUpdateDrinkFailures(t *testing.T) {
	e := newTestEnv(t)
	e.request(http.MethodPost, "/drinks", e.admin(), waterBody)
	e.request(http.MethodPost, "/drinks", e.admin(), `{"title":"Tea","recipe":[{"name":"Tea","color":"brown","parts":1}]}`)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"unknown id", "/drinks/99", `{"title":"Ghost"}`, http.StatusNotFound},
		{"non-numeric id", "/drinks/water", `{"title":"Ghost"}`, http.StatusNotFound},
		{"empty body", "/drinks/1", `{}`, http.StatusBadRequest},
		{"unrelated fields only", "/drinks/1", `{"name":"Water"}`, http.StatusBadRequest},
		{"malformed json", "/drinks/1", `{"title":`, http.StatusBadRequest},
		{"title taken", "/drinks/2", `{"title":"Water"}`, http.StatusConflict},
		{"empty recipe object", "/drinks/1", `{"recipe":{}}`, http.StatusBadRequest},
		{"nameless ingredient", "/drinks/1", `{"recipe":[{"color":"blue"}]}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.request(http.MethodPatch, tt.path, e.bearer(PermPatchDrinks), tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			decodeError(t, rec)
		})
	}
}

func TestDeleteDrink(t *testing.T) {
	e := newTestEnv(t)
	e.request(http.MethodPost, "/drinks", e.admin(), waterBody)

	rec := e.request(http.MethodDelete, "/drinks/1", e.bearer(PermDeleteDrinks), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"delete":1}`, rec.Body.String())

	rec = e.request(http.MethodPatch, "/drinks/1", e.admin(), `{"title":"Ghost"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.request(http.MethodDelete, "/drinks/1", e.bearer(PermDeleteDrinks), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	decodeError(t, rec)

	assert.JSONEq(t, `{"success":true,"drinks":[]}`, e.request(http.MethodGet, "/drinks", "", "").Body.String())
}

func TestUnknownRouteAndMethod(t *testing.T) {
	e := newTestEnv(t)

	rec := e.request(http.MethodGet, "/coffee", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	decodeError(t, rec)

	rec = e.request(http.MethodPut, "/drinks/1", e.admin(), `{"title":"Tea"}`)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	decodeError(t, rec)
}

func TestCORSPreflight(t *testing.T) {
	e := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/drinks", nil)
	req.Header.Set("Origin", "http://localhost:8100")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t)

	rec := e.request(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestHTTPServer(t *testing.T) {
	cfg := config.Config{Port: "8123"}
	drinks := handler.NewDrinkHandler(service.NewDrinkService(repository.NewMemoryDrinkRepository()))

	srv := New(cfg, drinks, authtest.NewAuthority(t).Verifier()).HTTPServer()
	assert.Equal(t, fmt.Sprintf(":%s", cfg.Port), srv.Addr)
	assert.NotNil(t, srv.Handler)
	assert.NotZero(t, srv.ReadHeaderTimeout)
}
