package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/tj/assert"
	"gorm.io/gorm"

	"github.com/forfuturefoundation2024-hash/AIVEX/internal/config"
	"github.com/forfuturefoundation2024-hash/AIVEX/internal/domain"
	"github.com/forfuturefoundation2024-hash/AIVEX/internal/hub"
	"github.com/forfuturefoundation2024-hash/AIVEX/internal/notify"
	"github.com/forfuturefoundation2024-hash/AIVEX/internal/registry"
	"github.com/forfuturefoundation2024-hash/AIVEX/internal/repository"
	"github.com/forfuturefoundation2024-hash/AIVEX/internal/service"
	"github.com/forfuturefoundation2024-hash/AIVEX/internal/testutil"
	"github.com/forfuturefoundation2024-hash/AIVEX/pkg/jwt"
	"github.com/forfuturefoundation2024-hash/AIVEX/pkg/middleware"
	"github.com/forfuturefoundation2024-hash/AIVEX/pkg/response"
	"github.com/forfuturefoundation2024-hash/AIVEX/pkg/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	*httptest.Server
	db       *gorm.DB
	hub      *hub.Hub
	registry *registry.Registry
	tokens   *jwt.Manager
}

func newTestServer(t *testing.T, rt config.RealtimeConfig) *testServer {
	db := testutil.NewDB(t)
	tokens, err := jwt.NewManager("test-secret", time.Hour, "test")
	assert.NoError(t, err)
	store, err := storage.NewLocalStorage(storage.LocalConfig{BasePath: t.TempDir()})
	assert.NoError(t, err)

	userRepo := repository.NewGormUserRepository(db)
	productRepo := repository.NewGormProductRepository(db)
	orderRepo := repository.NewGormOrderRepository(db)
	messageRepo := repository.NewGormMessageRepository(db)
	reviewRepo := repository.NewGormReviewRepository(db)

	h := hub.NewHub()
	reg := registry.New()
	relay := service.NewRelayService(h, reg, messageRepo)

	api := NewHandler(
		service.NewUserService(userRepo, tokens),
		service.NewProductService(productRepo, reviewRepo, orderRepo, nil, store, notify.NewLocal(relay), service.ProductOptions{}),
		service.NewOrderService(orderRepo, productRepo),
		service.NewMessageService(messageRepo, 100),
		middleware.NewAuthMiddleware(tokens),
		1<<10,
	)
	ws := NewWSHandler(h, relay, tokens, config.WebSocketConfig{}, rt)

	srv := httptest.NewServer(NewRouter(zerolog.Nop(), api, ws, ""))
	t.Cleanup(func() {
		h.CloseAll()
		srv.Close()
	})

	return &testServer{Server: srv, db: db, hub: h, registry: reg, tokens: tokens}
}

func (s *testServer) token(t *testing.T, userID int64, role string) string {
	token, _, err := s.tokens.Generate(userID, "", role)
	assert.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (int, []byte) {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		assert.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, s.URL+path, r)
	assert.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	assert.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	assert.NoError(t, err)
	return resp.StatusCode, raw
}

func decode(t *testing.T, raw []byte, v interface{}) {
	t.Helper()
	assert.NoError(t, json.Unmarshal(raw, v), string(raw))
}

func errorBody(t *testing.T, raw []byte) response.ErrorBody {
	t.Helper()
	var body response.ErrorBody
	decode(t, raw, &body)
	return body
}

func (s *testServer) dial(t *testing.T, path string, header http.Header) *websocket.Conn {
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(s.URL, "http")+path, header)
	assert.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, frame string) {
	assert.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var v map[string]interface{}
	assert.NoError(t, conn.ReadJSON(&v))
	return v
}

// expectSilence fails if conn receives a frame within d.
func expectSilence(t *testing.T, conn *websocket.Conn, d time.Duration) {
	conn.SetReadDeadline(time.Now().Add(d))
	_, data, err := conn.ReadMessage()
	assert.Error(t, err, string(data))
}

func eventually(t *testing.T, cond func() bool) {
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func countMessages(t *testing.T, db *gorm.DB) int64 {
	var n int64
	assert.NoError(t, db.Model(&domain.MessageModel{}).Count(&n).Error)
	return n
}

func TestChatBetweenTwoConnections(t *testing.T) {
	s := newTestServer(t, config.RealtimeConfig{})
	c1 := s.dial(t, "/ws", nil)
	c2 := s.dial(t, "/", nil)

	send(t, c1, `{"type":"auth","userId":1}`)
	send(t, c2, `{"type":"auth","userId":2}`)
	eventually(t, func() bool { return s.registry.Len() == 2 })

	send(t, c1, `{"type":"chat","receiverId":2,"content":"hi"}`)

	got := readFrame(t, c2)
	assert.Equal(t, "chat", got["type"])
	assert.Equal(t, float64(1), got["senderId"])
	assert.Equal(t, "hi", got["content"])
	ts, err := time.Parse(domain.TimestampLayout, got["timestamp"].(string))
	assert.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC(), ts, time.Minute)

	var row domain.MessageModel
	assert.NoError(t, s.db.First(&row).Error)
	assert.Equal(t, int64(1), row.SenderID)
	assert.Equal(t, int64(2), row.ReceiverID)
	assert.Equal(t, "hi", row.Content)

	// No acknowledgement goes back to the sender.
	expectSilence(t, c1, 200*time.Millisecond)
}

func TestChatBeforeAuthIsDropped(t *testing.T) {
	s := newTestServer(t, config.RealtimeConfig{})
	c1 := s.dial(t, "/ws", nil)
	c2 := s.dial(t, "/ws", nil)
	send(t, c2, `{"type":"auth","userId":2}`)
	eventually(t, func() bool { return s.registry.Len() == 1 })

	send(t, c1, `{"type":"chat","receiverId":2,"content":"early"}`)
	send(t, c1, `not json`)
	send(t, c1, `{"type":"ping"}`)
	send(t, c1, `{"type":"auth","userId":1}`)
	send(t, c1, `{"type":"chat","receiverId":2,"content":"late"}`)

	got := readFrame(t, c2)
	assert.Equal(t, "late", got["content"])
	assert.Equal(t, int64(1), countMessages(t, s.db))
}

func TestChatToOfflineReceiverIsStored(t *testing.T) {
	s := newTestServer(t, config.RealtimeConfig{})
	c1 := s.dial(t, "/ws", nil)
	send(t, c1, `{"type":"auth","userId":1}`)
	send(t, c1, `{"type":"chat","receiverId":42,"content":"anyone?"}`)

	eventually(t, func() bool { return countMessages(t, s.db) == 1 })
	expectSilence(t, c1, 100*time.Millisecond)
}

func TestDisconnectReleasesIdentity(t *testing.T) {
	s := newTestServer(t, config.RealtimeConfig{})
	c1 := s.dial(t, "/ws", nil)
	send(t, c1, `{"type":"auth","userId":1}`)
	eventually(t, func() bool { return s.registry.Len() == 1 })
	first, _ := s.registry.Lookup(1)

	c2 := s.dial(t, "/ws", nil)
	send(t, c2, `{"type":"auth","userId":1}`)
	eventually(t, func() bool {
		conn, ok := s.registry.Lookup(1)
		return ok && conn != first
	})
	second, _ := s.registry.Lookup(1)

	c1.Close()
	eventually(t, func() bool { return s.hub.Count() == 1 })

	conn, ok := s.registry.Lookup(1)
	assert.True(t, ok)
	assert.True(t, conn == second)

	c2.Close()
	eventually(t, func() bool { return s.registry.Len() == 0 })
}

func TestNewProductBroadcast(t *testing.T) {
	s := newTestServer(t, config.RealtimeConfig{})
	bob := testutil.SeedUser(t, s.db, "bob@example.com", "Bob", domain.RoleSeller)

	conns := []*websocket.Conn{s.dial(t, "/ws", nil), s.dial(t, "/ws", nil), s.dial(t, "/ws", nil)}
	send(t, conns[0], `{"type":"auth","userId":7}`)
	send(t, conns[1], `{"type":"auth","userId":8}`)
	eventually(t, func() bool { return s.hub.Count() == 3 && s.registry.Len() == 2 })

	status, raw := s.do(t, http.MethodPost, "/api/products", s.token(t, bob, domain.RoleSeller),
		map[string]interface{}{"name": "Foo", "price": 9.5, "category": "tools", "screenshots": "a.png, b.png"})
	assert.Equal(t, http.StatusOK, status)
	var created domain.CreateProductResponse
	decode(t, raw, &created)
	assert.NotEqual(t, int64(0), created.ID)

	for _, conn := range conns {
		got := readFrame(t, conn)
		assert.Equal(t, "new_product", got["type"])
		product := got["product"].(map[string]interface{})
		assert.Equal(t, float64(created.ID), product["id"])
		assert.Equal(t, "Foo", product["name"])
		assert.Equal(t, "Bob", product["seller_name"])
		assert.Equal(t, []interface{}{"a.png", "b.png"}, product["screenshots"])
	}
}

func TestRequireTokenRejectsAnonymousUpgrade(t *testing.T) {
	s := newTestServer(t, config.RealtimeConfig{RequireToken: true})

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(s.URL, "http")+"/ws", nil)
	assert.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRequireTokenPinsIdentity(t *testing.T) {
	s := newTestServer(t, config.RealtimeConfig{RequireToken: true})
	token := s.token(t, 5, domain.RoleBuyer)

	conn := s.dial(t, "/ws?token="+token, nil)
	send(t, conn, `{"type":"auth","userId":6}`)
	send(t, conn, `{"type":"auth","userId":5}`)
	eventually(t, func() bool { return s.registry.Len() == 1 })

	_, ok := s.registry.Lookup(6)
	assert.False(t, ok)
	_, ok = s.registry.Lookup(5)
	assert.True(t, ok)

	header := http.Header{}
	header.Set("Authorization", "Bearer "+s.token(t, 8, domain.RoleBuyer))
	s.dial(t, "/ws", header)
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t, config.RealtimeConfig{})
	body := map[string]string{"email": "amy@example.com", "password": "secret1", "name": "Amy", "role": "seller"}

	status, raw := s.do(t, http.MethodPost, "/api/auth/register", "", body)
	assert.Equal(t, http.StatusOK, status)
	var auth domain.AuthResponse
	decode(t, raw, &auth)
	assert.NotEqual(t, "", auth.Token)
	assert.Equal(t, domain.RoleSeller, auth.User.Role)

	status, raw = s.do(t, http.MethodPost, "/api/auth/register", "", body)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, response.CodeConflict, errorBody(t, raw).Code)

	status, raw = s.do(t, http.MethodPost, "/api/auth/register", "",
		map[string]string{"email": "long@example.com", "password": strings.Repeat("p", 80), "name": "Long"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, response.CodeBadRequest, errorBody(t, raw).Code)

	status, _ = s.do(t, http.MethodPost, "/api/auth/register", "",
		map[string]string{"email": "x@example.com", "password": "secret1", "name": "X", "role": "admin"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, raw = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "amy@example.com", "password": "secret1"})
	assert.Equal(t, http.StatusOK, status)
	decode(t, raw, &auth)
	assert.Equal(t, "Amy", auth.User.Name)

	status, _ = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "amy@example.com", "password": "nope!!"})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestResponseBodiesAreBare(t *testing.T) {
	s := newTestServer(t, config.RealtimeConfig{})

	status, raw := s.do(t, http.MethodGet, "/api/products", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(raw))

	status, raw = s.do(t, http.MethodGet, "/api/sellers", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(raw))

	status, raw = s.do(t, http.MethodPost, "/api/auth/register", "",
		map[string]string{"email": "dan@example.com", "password": "secret1", "name": "Dan"})
	assert.Equal(t, http.StatusOK, status)
	var body map[string]interface{}
	decode(t, raw, &body)
	token, ok := body["token"].(string)
	assert.True(t, ok, string(raw))
	assert.NotEqual(t, "", token)
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "dan@example.com", user["email"])
	assert.Equal(t, domain.RoleBuyer, user["role"])

	status, raw = s.do(t, http.MethodPost, "/api/auth/login", "",
		map[string]string{"email": "dan@example.com", "password": "wrong!!"})
	assert.Equal(t, http.StatusUnauthorized, status)
	body = nil
	decode(t, raw, &body)
	msg, ok := body["error"].(string)
	assert.True(t, ok, string(raw))
	assert.Equal(t, "invalid email or password", msg)
	assert.Equal(t, response.CodeUnauthorized, body["code"])

	status, raw = s.do(t, http.MethodPost, "/api/products/1/view", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "product not found", errorBody(t, raw).Error)
}

func TestCatalogueAndOrders(t *testing.T) {
	s := newTestServer(t, config.RealtimeConfig{})
	bob := testutil.SeedUser(t, s.db, "bob@example.com", "Bob", domain.RoleSeller)
	carl := testutil.SeedUser(t, s.db, "carl@example.com", "Carl", domain.RoleBuyer)
	foo := testutil.SeedProduct(t, s.db, bob, "Foo", "tools", 10)
	testutil.SeedProduct(t, s.db, bob, "Bar", "games", 5)
	bobToken := s.token(t, bob, domain.RoleSeller)
	carlToken := s.token(t, carl, domain.RoleBuyer)

	status, raw := s.do(t, http.MethodGet, "/api/products?category=tools", "", nil)
	assert.Equal(t, http.StatusOK, status)
	var products []domain.Product
	decode(t, raw, &products)
	assert.Len(t, products, 1)
	assert.Equal(t, "Bob", products[0].SellerName)

	status, _ = s.do(t, http.MethodGet, "/api/products/999", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = s.do(t, http.MethodGet, "/api/products/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = s.do(t, http.MethodPost, "/api/products/999/view", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = s.do(t, http.MethodPost, "/api/products/1/view", "", nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = s.do(t, http.MethodPost, "/api/products", "", map[string]string{"name": "X"})
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = s.do(t, http.MethodPost, "/api/products", carlToken, map[string]string{"name": "X"})
	assert.Equal(t, http.StatusForbidden, status)

	status, raw = s.do(t, http.MethodPost, "/api/checkout", carlToken, map[string]interface{}{"productId": foo})
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"success":true}`, string(raw))
	status, _ = s.do(t, http.MethodPost, "/api/checkout", carlToken, map[string]interface{}{"productId": 999})
	assert.Equal(t, http.StatusNotFound, status)

	status, raw = s.do(t, http.MethodGet, "/api/user/orders", carlToken, nil)
	assert.Equal(t, http.StatusOK, status)
	var orders []domain.Order
	decode(t, raw, &orders)
	assert.Len(t, orders, 1)
	assert.Equal(t, "Foo", orders[0].ProductName)

	status, _ = s.do(t, http.MethodPost, "/api/products/1/reviews", carlToken, map[string]interface{}{"rating": 6})
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = s.do(t, http.MethodPost, "/api/products/1/reviews", carlToken, map[string]interface{}{"rating": 5, "comment": "great"})
	assert.Equal(t, http.StatusCreated, status)

	status, raw = s.do(t, http.MethodGet, "/api/seller/stats", bobToken, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"total_products":2,"total_sales":1,"total_revenue":10,"total_views":1,"total_clicks":0}`, string(raw))

	status, raw = s.do(t, http.MethodGet, "/api/sellers", "", nil)
	assert.Equal(t, http.StatusOK, status)
	var sellers []domain.Seller
	decode(t, raw, &sellers)
	assert.Len(t, sellers, 1)
	assert.Equal(t, int64(2), sellers[0].ProductCount)
}

func TestReleaseUploadAndDownload(t *testing.T) {
	s := newTestServer(t, config.RealtimeConfig{})
	bob := testutil.SeedUser(t, s.db, "bob@example.com", "Bob", domain.RoleSeller)
	carl := testutil.SeedUser(t, s.db, "carl@example.com", "Carl", domain.RoleBuyer)
	foo := testutil.SeedProduct(t, s.db, bob, "Foo", "tools", 10)
	bobToken := s.token(t, bob, domain.RoleSeller)
	carlToken := s.token(t, carl, domain.RoleBuyer)

	upload := func(content string) int {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, err := mw.CreateFormFile("file", "foo-setup.zip")
		assert.NoError(t, err)
		_, err = fw.Write([]byte(content))
		assert.NoError(t, err)
		assert.NoError(t, mw.Close())

		req, err := http.NewRequest(http.MethodPost, s.URL+"/api/products/1/file", &buf)
		assert.NoError(t, err)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+bobToken)
		resp, err := http.DefaultClient.Do(req)
		assert.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusOK, upload("release-bytes"))
	assert.Equal(t, http.StatusRequestEntityTooLarge, upload(strings.Repeat("x", 4<<10)))

	download := func(token string) *http.Response {
		req, err := http.NewRequest(http.MethodGet, s.URL+"/api/products/1/download", nil)
		assert.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := http.DefaultClient.Do(req)
		assert.NoError(t, err)
		return resp
	}

	resp := download(carlToken)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	status, _ := s.do(t, http.MethodPost, "/api/checkout", carlToken, map[string]interface{}{"productId": foo})
	assert.Equal(t, http.StatusOK, status)

	resp = download(carlToken)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `attachment; filename=foo-setup.zip`, resp.Header.Get("Content-Disposition"))
	data, err := io.ReadAll(resp.Body)
	assert.NoError(t, err)
	assert.Equal(t, "release-bytes", string(data))
}

func TestMessageHistory(t *testing.T) {
	s := newTestServer(t, config.RealtimeConfig{})
	amy := testutil.SeedUser(t, s.db, "amy@example.com", "Amy", domain.RoleBuyer)
	bob := testutil.SeedUser(t, s.db, "bob@example.com", "Bob", domain.RoleSeller)

	c := s.dial(t, "/ws", nil)
	send(t, c, `{"type":"auth","userId":`+jsonInt(amy)+`}`)
	send(t, c, `{"type":"chat","receiverId":`+jsonInt(bob)+`,"content":"is it cross-platform?"}`)
	eventually(t, func() bool { return countMessages(t, s.db) == 1 })

	status, raw := s.do(t, http.MethodGet, "/api/messages/"+jsonInt(amy), s.token(t, bob, domain.RoleSeller), nil)
	assert.Equal(t, http.StatusOK, status)
	var history []domain.ChatMessage
	decode(t, raw, &history)
	assert.Len(t, history, 1)
	assert.Equal(t, "Amy", history[0].SenderName)
	assert.Equal(t, "is it cross-platform?", history[0].Content)
}

func TestHealthAndUnknownRoutes(t *testing.T) {
	s := newTestServer(t, config.RealtimeConfig{})

	resp, err := http.Get(s.URL + "/health")
	assert.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	status, raw := s.do(t, http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, response.CodeNotFound, errorBody(t, raw).Code)

	status, _ = s.do(t, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func jsonInt(v int64) string {
	data, _ := json.Marshal(v)
	return string(data)
}
