package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/prn-tf/sebastian-contacts/internal/auth"
	"github.com/prn-tf/sebastian-contacts/internal/repository/memory"
	"github.com/prn-tf/sebastian-contacts/internal/service"
)

// testAPI wires the full router over the in-memory store.
type testAPI struct {
	handler http.Handler
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	repos := memory.NewStore().Repositories()
	logger := zerolog.Nop()

	authService := service.NewAuthService(repos.User, nil, service.AuthOptions{}, logger)
	userService := service.NewUserService(repos.User, service.UserOptions{BcryptCost: bcrypt.MinCost}, logger)
	contactService := service.NewContactService(repos.Contact, logger)
	addressService := service.NewAddressService(repos.Contact, repos.Address, logger)

	router := NewRouter(RouterConfig{
		AuthHandler:    NewAuthHandler(authService, logger),
		UserHandler:    NewUserHandler(userService, logger),
		ContactHandler: NewContactHandler(contactService, logger),
		AddressHandler: NewAddressHandler(addressService, logger),
		AuthMiddleware: auth.Middleware(authService, auth.DefaultConfig(), logger),
		Logger:         logger,
	})

	return &testAPI{handler: router.Handler()}
}

// do sends a JSON request and decodes the envelope.
func (a *testAPI) do(t *testing.T, method, path, token string, body string) (int, map[string]json.RawMessage) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set(auth.TokenHeader, token)
	}
	rec := httptest.NewRecorder()

	a.handler.ServeHTTP(rec, req)

	envelope := make(map[string]json.RawMessage)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return rec.Code, envelope
}

// registerAndLogin creates an account and returns a live token.
func (a *testAPI) registerAndLogin(t *testing.T, username string) string {
	t.Helper()

	code, _ := a.do(t, http.MethodPost, "/api/users", "",
		`{"username":"`+username+`","password":"secret","name":"Test"}`)
	require.Equal(t, http.StatusOK, code)

	code, envelope := a.do(t, http.MethodPost, "/api/auth/login", "",
		`{"username":"`+username+`","password":"secret"}`)
	require.Equal(t, http.StatusOK, code)

	var data struct {
		Token     string `json:"token"`
		ExpiredAt int64  `json:"expiredAt"`
	}
	require.NoError(t, json.Unmarshal(envelope["data"], &data))
	require.NotEmpty(t, data.Token)
	require.NotZero(t, data.ExpiredAt)
	return data.Token
}

func TestRouter_RegisterLoginAndCurrentUser(t *testing.T) {
	api := newTestAPI(t)
	token := api.registerAndLogin(t, "alice")

	code, envelope := api.do(t, http.MethodGet, "/api/users/current", token, "")
	require.Equal(t, http.StatusOK, code)

	var user struct {
		Username string `json:"username"`
		Name     string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(envelope["data"], &user))
	require.Equal(t, "alice", user.Username)
	require.Equal(t, "Test", user.Name)
}

func TestRouter_DuplicateRegistration(t *testing.T) {
	api := newTestAPI(t)
	api.registerAndLogin(t, "alice")

	code, envelope := api.do(t, http.MethodPost, "/api/users", "",
		`{"username":"alice","password":"other","name":"Other"}`)
	require.Equal(t, http.StatusBadRequest, code)

	var message string
	require.NoError(t, json.Unmarshal(envelope["errors"], &message))
	require.Equal(t, "Username already registered", message)
}

func TestRouter_LoginFailureIsUniform(t *testing.T) {
	api := newTestAPI(t)
	api.registerAndLogin(t, "alice")

	for _, body := range []string{
		`{"username":"alice","password":"wrong"}`,
		`{"username":"nobody","password":"secret"}`,
	} {
		code, envelope := api.do(t, http.MethodPost, "/api/auth/login", "", body)
		require.Equal(t, http.StatusUnauthorized, code)

		var message string
		require.NoError(t, json.Unmarshal(envelope["errors"], &message))
		require.Equal(t, "Username or Password is wrong", message)
	}
}

func TestRouter_ProtectedRoutesRequireToken(t *testing.T) {
	api := newTestAPI(t)

	code, envelope := api.do(t, http.MethodGet, "/api/contacts", "", "")
	require.Equal(t, http.StatusUnauthorized, code)

	var message string
	require.NoError(t, json.Unmarshal(envelope["errors"], &message))
	require.Equal(t, "Unauthorized", message)
}

func TestRouter_ContactLifecycle(t *testing.T) {
	api := newTestAPI(t)
	token := api.registerAndLogin(t, "alice")

	code, envelope := api.do(t, http.MethodPost, "/api/contacts", token,
		`{"firstName":"John","lastName":"Doe","email":"john@example.com","phone":"555-0101"}`)
	require.Equal(t, http.StatusOK, code)

	var contact contactResponse
	require.NoError(t, json.Unmarshal(envelope["data"], &contact))
	require.NotEmpty(t, contact.ID)
	require.Equal(t, "John", contact.FirstName)

	code, envelope = api.do(t, http.MethodGet, "/api/contacts/"+contact.ID, token, "")
	require.Equal(t, http.StatusOK, code)

	code, envelope = api.do(t, http.MethodPut, "/api/contacts/"+contact.ID, token,
		`{"firstName":"Jane"}`)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(envelope["data"], &contact))
	require.Equal(t, "Jane", contact.FirstName)
	require.Empty(t, contact.LastName)

	code, _ = api.do(t, http.MethodDelete, "/api/contacts/"+contact.ID, token, "")
	require.Equal(t, http.StatusOK, code)

	code, envelope = api.do(t, http.MethodGet, "/api/contacts/"+contact.ID, token, "")
	require.Equal(t, http.StatusNotFound, code)

	var message string
	require.NoError(t, json.Unmarshal(envelope["errors"], &message))
	require.Equal(t, "contact is not found", message)
}

func TestRouter_ContactsAreTenantScoped(t *testing.T) {
	api := newTestAPI(t)
	aliceToken := api.registerAndLogin(t, "alice")
	bobToken := api.registerAndLogin(t, "bob")

	code, envelope := api.do(t, http.MethodPost, "/api/contacts", aliceToken,
		`{"firstName":"John"}`)
	require.Equal(t, http.StatusOK, code)

	var contact contactResponse
	require.NoError(t, json.Unmarshal(envelope["data"], &contact))

	// Bob sees alice's contact ID as nonexistent.
	code, _ = api.do(t, http.MethodGet, "/api/contacts/"+contact.ID, bobToken, "")
	require.Equal(t, http.StatusNotFound, code)
}

func TestRouter_SearchPaging(t *testing.T) {
	api := newTestAPI(t)
	token := api.registerAndLogin(t, "alice")

	for i := 0; i < 12; i++ {
		code, _ := api.do(t, http.MethodPost, "/api/contacts", token,
			`{"firstName":"John"}`)
		require.Equal(t, http.StatusOK, code)
	}

	code, envelope := api.do(t, http.MethodGet, "/api/contacts?page=1", token, "")
	require.Equal(t, http.StatusOK, code)

	var contacts []contactResponse
	require.NoError(t, json.Unmarshal(envelope["data"], &contacts))
	require.Len(t, contacts, 2)

	var paging PageMetaJSON
	require.NoError(t, json.Unmarshal(envelope["paging"], &paging))
	require.Equal(t, 1, paging.CurrentPage)
	require.Equal(t, 2, paging.TotalPages)
	require.Equal(t, 10, paging.Size)

	code, _ = api.do(t, http.MethodGet, "/api/contacts?page=bogus", token, "")
	require.Equal(t, http.StatusBadRequest, code)
}

func TestRouter_AddressLifecycle(t *testing.T) {
	api := newTestAPI(t)
	token := api.registerAndLogin(t, "alice")

	code, envelope := api.do(t, http.MethodPost, "/api/contacts", token,
		`{"firstName":"John"}`)
	require.Equal(t, http.StatusOK, code)

	var contact contactResponse
	require.NoError(t, json.Unmarshal(envelope["data"], &contact))

	base := "/api/contacts/" + contact.ID + "/addresses"

	code, envelope = api.do(t, http.MethodPost, base, token,
		`{"street":"Main St 1","city":"Springfield","province":"IL","postalCode":"62701","country":"USA"}`)
	require.Equal(t, http.StatusOK, code)

	var address addressResponse
	require.NoError(t, json.Unmarshal(envelope["data"], &address))
	require.NotEmpty(t, address.ID)

	code, envelope = api.do(t, http.MethodGet, base, token, "")
	require.Equal(t, http.StatusOK, code)

	var addresses []addressResponse
	require.NoError(t, json.Unmarshal(envelope["data"], &addresses))
	require.Len(t, addresses, 1)

	code, _ = api.do(t, http.MethodDelete, base+"/"+address.ID, token, "")
	require.Equal(t, http.StatusOK, code)

	code, _ = api.do(t, http.MethodGet, base+"/"+address.ID, token, "")
	require.Equal(t, http.StatusNotFound, code)
}

func TestRouter_LogoutRevokesToken(t *testing.T) {
	api := newTestAPI(t)
	token := api.registerAndLogin(t, "alice")

	code, _ := api.do(t, http.MethodDelete, "/api/auth/logout", token, "")
	require.Equal(t, http.StatusOK, code)

	code, _ = api.do(t, http.MethodGet, "/api/users/current", token, "")
	require.Equal(t, http.StatusUnauthorized, code)
}

func TestWriteError_UnknownErrorIs500(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, errors.New("boom"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "Internal Server Error", body.Errors)

	// Internal details never leak into the envelope.
	require.NotContains(t, rec.Body.String(), "boom")
}
