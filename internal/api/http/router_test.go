package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/data-portal/internal/api/http/handlers"
	"github.com/spec-kit/data-portal/internal/api/http/views"
	"github.com/spec-kit/data-portal/internal/auth"
	"github.com/spec-kit/data-portal/internal/config"
	"github.com/spec-kit/data-portal/internal/domain"
	"github.com/spec-kit/data-portal/internal/events"
	"github.com/spec-kit/data-portal/internal/observability"
	"github.com/spec-kit/data-portal/internal/repository"
	"github.com/spec-kit/data-portal/internal/repository/memory"
	"github.com/spec-kit/data-portal/internal/service"
)

var csrfConfig = config.CSRFConfig{
	CookieName:        "csrftoken",
	HeaderName:        "X-CSRFToken",
	FormField:         "csrfmiddlewaretoken",
	ExpirationMinutes: 60,
}

type testPortal struct {
	app    *fiber.App
	users  repository.UserRepository
	tokens *auth.TokenManager
}

func newTestPortal(t *testing.T, withCSRF bool) *testPortal {
	t.Helper()
	logger := zap.NewNop()
	store := memory.NewStore()
	users := memory.NewUserRepository(store)
	tabs := memory.NewTabRepository(store)
	records := memory.NewRecordRepository(store)
	dispatcher := events.NewInMemoryDispatcher()

	renderer, err := views.New()
	require.NoError(t, err)
	pages := handlers.NewPages(renderer, csrfConfig.FormField)
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	sessions := auth.NewSessionMiddleware(tokens, users, "sessionid", false, logger)
	authService := service.NewAuthService(config.Config{Auth: config.AuthConfig{BcryptCost: 4}}, users)
	portal := service.NewPortalService(service.PortalDependencies{
		DepartmentRepo: memory.NewDepartmentRepository(store),
		TabRepo:        tabs,
	}, dispatcher, logger)

	var csrf fiber.Handler
	if withCSRF {
		csrf = auth.NewCSRF(csrfConfig, false, nil)
	}

	app := fiber.New()
	metrics := observability.NewMetrics()
	RegisterMiddlewares(app, logger, metrics, renderer, time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:   handlers.NewHealthHandler("data-portal", "test", nil),
		Auth:     handlers.NewAuthHandler(authService, sessions, pages),
		Portal:   handlers.NewPortalHandler(portal, pages),
		Records:  handlers.NewRecordHandler(service.NewRecordService(tabs, records, dispatcher, logger), pages),
		Imports:  handlers.NewImportHandler(portal, service.NewImportService(config.ImportConfig{MaxRows: 100}, tabs, records, dispatcher, logger), pages),
		Sessions: sessions,
		CSRF:     csrf,
		Metrics:  metrics,
	})
	return &testPortal{app: app, users: users, tokens: tokens}
}

// login stores a user with role and returns its session cookie.
func (p *testPortal) login(t *testing.T, role domain.Role) string {
	t.Helper()
	user := &domain.User{Username: string(role), Email: string(role) + "@example.com", Role: role}
	require.NoError(t, p.users.Create(context.Background(), user))
	token, _, err := p.tokens.GenerateToken(user)
	require.NoError(t, err)
	return "sessionid=" + token
}

// rawBody is sent as-is instead of being JSON encoded.
type rawBody string

func (p *testPortal) do(t *testing.T, method, path, cookie string, body any, headers ...string) (*nethttp.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case rawBody:
		reader = strings.NewReader(string(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	req.Header.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	if cookie != "" {
		req.Header.Set(fiber.HeaderCookie, cookie)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := p.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var fields map[string]any
	if strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(raw, &fields), string(raw))
	}
	return resp, fields
}

func TestRoutes_DepartmentAndTabLifecycle(t *testing.T) {
	p := newTestPortal(t, false)
	director := p.login(t, domain.RoleDirector)

	resp, body := p.do(t, fiber.MethodPost, "/create-department/", director, map[string]string{"name": "Genomics", "description": "DNA"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, true, body["success"])
	deptID := body["department"].(map[string]any)["id"].(string)

	resp, body = p.do(t, fiber.MethodPost, "/create-department/", director, map[string]string{"name": "Genomics"})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Equal(t, false, body["success"])
	require.Equal(t, "Department already exists", body["error"])

	resp, body = p.do(t, fiber.MethodPost, "/create-tab/"+deptID+"/", director, map[string]string{"name": "Samples"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	tabID := body["tab"].(map[string]any)["id"].(string)

	resp, body = p.do(t, fiber.MethodPost, "/rename-tab/"+tabID+"/", director, map[string]string{"name": "Results"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "Results", body["tab"].(map[string]any)["name"])

	resp, body = p.do(t, fiber.MethodPost, "/rename-tab/"+tabID+"/", director, nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "Invalid JSON", body["error"])

	resp, body = p.do(t, fiber.MethodPost, "/delete-tab/"+tabID+"/", director, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, `Tab "Results" deleted successfully`, body["message"])

	resp, body = p.do(t, fiber.MethodDelete, "/delete-tab/"+tabID+"/", director, nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	require.Equal(t, "Tab not found", body["error"])
}

func TestRoutes_ChecksPrecedeBodyParsing(t *testing.T) {
	p := newTestPortal(t, false)
	director := p.login(t, domain.RoleDirector)
	staff := p.login(t, domain.RoleStaff)
	missing := "7d4c1b52-0d7a-4f0b-9a57-3f1c2e9b8a10"

	resp, body := p.do(t, fiber.MethodPost, "/create-tab/"+missing+"/", director, rawBody("{not json"))
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	require.Equal(t, "Department not found", body["error"])

	resp, body = p.do(t, fiber.MethodPost, "/rename-tab/"+missing+"/", director, rawBody("{not json"))
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	require.Equal(t, "Tab not found", body["error"])

	resp, body = p.do(t, fiber.MethodPost, "/create-department/", staff, rawBody("{not json"))
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	require.Equal(t, "Permission denied", body["error"])

	resp, _ = p.do(t, fiber.MethodPost, "/create-tab/"+missing+"/", staff, rawBody("{not json"))
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, body = p.do(t, fiber.MethodPost, "/create-department/", director, rawBody("{not json"))
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "Invalid JSON", body["error"])
}

func TestRoutes_AccessControl(t *testing.T) {
	p := newTestPortal(t, false)
	staff := p.login(t, domain.RoleStaff)

	resp, body := p.do(t, fiber.MethodPost, "/create-department/", staff, map[string]string{"name": "Genomics"})
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	require.Equal(t, map[string]any{"success": false, "error": "Permission denied", "code": "FORBIDDEN"}, body)

	resp, body = p.do(t, fiber.MethodPost, "/create-department/", "", map[string]string{"name": "Genomics"})
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "UNAUTHORIZED", body["code"])

	resp, _ = p.do(t, fiber.MethodGet, "/dashboard/", "", nil)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	require.Equal(t, "/login/?next=%2Fdashboard%2F", resp.Header.Get(fiber.HeaderLocation))

	resp, body = p.do(t, fiber.MethodGet, "/api/tab/x/records/", "", nil)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, false, body["success"])

	resp, _ = p.do(t, fiber.MethodGet, "/login/", staff, nil)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	require.Equal(t, "/dashboard/", resp.Header.Get(fiber.HeaderLocation))

	resp, body = p.do(t, fiber.MethodGet, "/no-such-page/", staff, nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	require.Equal(t, "NOT_FOUND", body["code"])
}

func TestRoutes_RecordsAPI(t *testing.T) {
	p := newTestPortal(t, false)
	scientist := p.login(t, domain.RoleScientist)

	_, body := p.do(t, fiber.MethodPost, "/create-department/", scientist, map[string]string{"name": "Chemistry"})
	deptID := body["department"].(map[string]any)["id"].(string)
	_, body = p.do(t, fiber.MethodPost, "/create-tab/"+deptID+"/", scientist, map[string]string{"name": "Samples"})
	tabID := body["tab"].(map[string]any)["id"].(string)

	resp, body := p.do(t, fiber.MethodPost, "/api/tab/"+tabID+"/records/create/", scientist, map[string]any{"Name": "John", "Age": 28})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	recordID := body["id"].(string)

	resp, body = p.do(t, fiber.MethodPatch, "/api/record/"+recordID+"/", scientist, map[string]any{"Age": 29})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, map[string]any{"Name": "John", "Age": 29.0}, body["data"])

	resp, body = p.do(t, fiber.MethodPost, "/record/"+recordID+"/update-cell/", scientist, map[string]any{"column": "Name", "value": "Jon"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "Jon", body["value"])

	resp, body = p.do(t, fiber.MethodGet, "/api/tab/"+tabID+"/records/", scientist, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, true, body["can_edit"])
	require.Equal(t, false, body["can_delete"])
	require.Len(t, body["data"], 1)

	resp, body = p.do(t, fiber.MethodPost, "/record/"+recordID+"/delete/", scientist, nil)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	require.Equal(t, "Permission denied", body["error"])

	director := p.login(t, domain.RoleDirector)
	resp, body = p.do(t, fiber.MethodPost, "/record/"+recordID+"/delete/", director, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, map[string]any{"success": true, "message": "Record deleted successfully"}, body)

	resp, body = p.do(t, fiber.MethodPost, "/record/"+recordID+"/delete/", director, nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	require.Equal(t, false, body["success"])
}

func TestRoutes_CSRF(t *testing.T) {
	p := newTestPortal(t, true)
	director := p.login(t, domain.RoleDirector)

	resp, body := p.do(t, fiber.MethodPost, "/create-department/", director, map[string]string{"name": "Genomics"})
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	require.Equal(t, "CSRF verification failed", body["error"])

	resp, _ = p.do(t, fiber.MethodGet, "/dashboard/", director, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var token string
	for _, c := range resp.Cookies() {
		if c.Name == csrfConfig.CookieName {
			token = c.Value
		}
	}
	require.NotEmpty(t, token)

	cookies := director + "; " + csrfConfig.CookieName + "=" + token
	resp, body = p.do(t, fiber.MethodPost, "/create-department/", cookies, map[string]string{"name": "Genomics"},
		csrfConfig.HeaderName, "wrong")
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, body = p.do(t, fiber.MethodPost, "/create-department/", cookies, map[string]string{"name": "Genomics"},
		csrfConfig.HeaderName, token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, true, body["success"])
}

func TestRoutes_PagesRenderHTML(t *testing.T) {
	p := newTestPortal(t, false)
	director := p.login(t, domain.RoleDirector)
	p.do(t, fiber.MethodPost, "/create-department/", director, map[string]string{"name": "Genomics"})

	req := httptest.NewRequest(fiber.MethodGet, "/dashboard/", nil)
	req.Header.Set(fiber.HeaderCookie, director)
	req.Header.Set(fiber.HeaderAccept, fiber.MIMETextHTML)
	resp, err := p.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	require.NoError(t, err)
	require.Equal(t, "Genomics", doc.Find(".department h3").Text())
	require.Equal(t, 1, doc.Find("#createTabModal").Length())

	req = httptest.NewRequest(fiber.MethodGet, "/tab/00000000-0000-0000-0000-000000000000/", nil)
	req.Header.Set(fiber.HeaderCookie, director)
	req.Header.Set(fiber.HeaderAccept, fiber.MIMETextHTML)
	resp, err = p.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	require.True(t, strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMETextHTML))
}
