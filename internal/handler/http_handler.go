package handler

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/forfuturefoundation2024-hash/AIVEX/internal/domain"
	"github.com/forfuturefoundation2024-hash/AIVEX/internal/repository"
	"github.com/forfuturefoundation2024-hash/AIVEX/internal/service"
	"github.com/forfuturefoundation2024-hash/AIVEX/pkg/log"
	"github.com/forfuturefoundation2024-hash/AIVEX/pkg/middleware"
	"github.com/forfuturefoundation2024-hash/AIVEX/pkg/response"
)

// Handler handles HTTP requests for the marketplace API.
type Handler struct {
	userService    service.UserService
	productService service.ProductService
	orderService   service.OrderService
	messageService service.MessageService
	authMiddleware *middleware.AuthMiddleware
	maxUploadSize  int64
}

// NewHandler creates a new HTTP handler. maxUploadSize bounds release
// uploads in bytes.
func NewHandler(
	userService service.UserService,
	productService service.ProductService,
	orderService service.OrderService,
	messageService service.MessageService,
	authMiddleware *middleware.AuthMiddleware,
	maxUploadSize int64,
) *Handler {
	return &Handler{
		userService:    userService,
		productService: productService,
		orderService:   orderService,
		messageService: messageService,
		authMiddleware: authMiddleware,
		maxUploadSize:  maxUploadSize,
	}
}

// RegisterRoutes registers all routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)

	api := r.Group("/api")
	{
		// Public routes
		auth := api.Group("/auth")
		{
			auth.POST("/register", h.Register)
			auth.POST("/login", h.Login)
		}

		api.GET("/products", h.ListProducts)
		api.GET("/products/:id", h.GetProduct)
		api.POST("/products/:id/view", h.RecordView)
		api.POST("/products/:id/click", h.RecordClick)
		api.GET("/sellers", h.ListSellers)

		// Protected routes
		protected := api.Group("")
		protected.Use(h.authMiddleware.RequireAuth())
		{
			protected.POST("/products", h.authMiddleware.RequireRole(domain.RoleSeller), h.CreateProduct)
			protected.POST("/products/:id/file", h.authMiddleware.RequireRole(domain.RoleSeller), h.UploadRelease)
			protected.GET("/products/:id/download", h.Download)
			protected.POST("/products/:id/reviews", h.CreateReview)
			protected.POST("/checkout", h.Checkout)
			protected.GET("/user/orders", h.ListOrders)
			protected.GET("/seller/stats", h.authMiddleware.RequireRole(domain.RoleSeller), h.SellerStats)
			protected.GET("/messages/:peerId", h.History)
		}
	}
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Register handles account registration.
func (h *Handler) Register(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	var req domain.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid register request")
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.userService.Register(ctx, &req)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			response.Conflict(c, "email already exists")
			return
		}
		if errors.Is(err, service.ErrPasswordTooLong) {
			response.BadRequest(c, err.Error())
			return
		}
		l.Error().Err(err).Msg("register failed")
		response.InternalError(c, "failed to register user")
		return
	}

	response.Success(c, result)
}

// Login handles login.
func (h *Handler) Login(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	var req domain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid login request")
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.userService.Login(ctx, &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Unauthorized(c, "invalid email or password")
			return
		}
		l.Error().Err(err).Msg("login failed")
		response.InternalError(c, "failed to login")
		return
	}

	response.Success(c, result)
}

// ListProducts lists active products, optionally filtered.
func (h *Handler) ListProducts(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	filter := domain.ProductFilter{
		Category: strings.TrimSpace(c.Query("category")),
		Query:    strings.TrimSpace(c.Query("q")),
	}
	products, err := h.productService.ListProducts(ctx, filter)
	if err != nil {
		l.Error().Err(err).Msg("list products failed")
		response.InternalError(c, "failed to list products")
		return
	}

	response.Success(c, products)
}

// GetProduct returns a product with its reviews.
func (h *Handler) GetProduct(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	detail, err := h.productService.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			response.NotFound(c, "product not found")
			return
		}
		l.Error().Err(err).Int64(log.FieldProductID, id).Msg("get product failed")
		response.InternalError(c, "failed to get product")
		return
	}

	response.Success(c, detail)
}

// RecordView counts a product page view.
func (h *Handler) RecordView(c *gin.Context) {
	h.record(c, h.productService.RecordView)
}

// RecordClick counts a click through to the seller.
func (h *Handler) RecordClick(c *gin.Context) {
	h.record(c, h.productService.RecordClick)
}

func (h *Handler) record(c *gin.Context, fn func(ctx context.Context, id int64) error) {
	ctx := c.Request.Context()
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := fn(ctx, id); err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			response.NotFound(c, "product not found")
			return
		}
		l := log.Ctx(ctx)
		l.Error().Err(err).Int64(log.FieldProductID, id).Msg("record product counter failed")
		response.InternalError(c, "failed to record")
		return
	}

	response.OK(c)
}

// ListSellers lists seller accounts.
func (h *Handler) ListSellers(c *gin.Context) {
	ctx := c.Request.Context()
	sellers, err := h.userService.ListSellers(ctx)
	if err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Msg("list sellers failed")
		response.InternalError(c, "failed to list sellers")
		return
	}

	response.Success(c, sellers)
}

// CreateProduct creates a listing and announces it to realtime clients.
func (h *Handler) CreateProduct(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	userID := middleware.GetUserID(c)

	var req domain.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid create product request")
		response.BadRequest(c, err.Error())
		return
	}

	product, err := h.productService.CreateProduct(ctx, userID, &req)
	if err != nil {
		l.Error().Err(err).Int64(log.FieldUserID, userID).Msg("create product failed")
		response.InternalError(c, "failed to create product")
		return
	}

	response.Success(c, domain.CreateProductResponse{ID: product.ID})
}

// UploadRelease stores the multipart "file" as the product's release.
func (h *Handler) UploadRelease(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	userID := middleware.GetUserID(c)
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if h.maxUploadSize > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize)
	}
	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.TooLarge(c, "release file too large")
			return
		}
		response.BadRequest(c, "multipart field \"file\" is required")
		return
	}

	f, err := fh.Open()
	if err != nil {
		l.Error().Err(err).Msg("open uploaded release failed")
		response.InternalError(c, "failed to read upload")
		return
	}
	defer f.Close()

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	product, err := h.productService.UploadRelease(ctx, userID, id, fh.Filename, f, fh.Size, contentType)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProductNotFound):
			response.NotFound(c, "product not found")
		case errors.Is(err, service.ErrNotProductOwner):
			response.Forbidden(c, err.Error())
		default:
			l.Error().Err(err).Int64(log.FieldProductID, id).Msg("upload release failed")
			response.InternalError(c, "failed to store release")
		}
		return
	}

	response.Success(c, product)
}

// Download redirects to the release URL or streams the file.
func (h *Handler) Download(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	userID := middleware.GetUserID(c)
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	dl, err := h.productService.Download(ctx, userID, id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProductNotFound), errors.Is(err, service.ErrNoRelease):
			response.NotFound(c, err.Error())
		case errors.Is(err, service.ErrNotPurchased):
			response.Forbidden(c, err.Error())
		default:
			l.Error().Err(err).Int64(log.FieldProductID, id).Msg("download failed")
			response.InternalError(c, "failed to download release")
		}
		return
	}

	if dl.URL != "" {
		c.Redirect(http.StatusFound, dl.URL)
		return
	}
	defer dl.Body.Close()

	headers := map[string]string{
		"Content-Disposition": mime.FormatMediaType("attachment", map[string]string{"filename": dl.Filename}),
	}
	c.DataFromReader(http.StatusOK, -1, dl.ContentType, dl.Body, headers)
}

// CreateReview adds a review to a product.
func (h *Handler) CreateReview(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	userID := middleware.GetUserID(c)
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req domain.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid review request")
		response.BadRequest(c, err.Error())
		return
	}

	review, err := h.productService.CreateReview(ctx, userID, id, &req)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			response.NotFound(c, "product not found")
			return
		}
		l.Error().Err(err).Int64(log.FieldProductID, id).Msg("create review failed")
		response.InternalError(c, "failed to create review")
		return
	}

	response.Created(c, review)
}

// Checkout records an order for the caller.
func (h *Handler) Checkout(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	userID := middleware.GetUserID(c)

	var req domain.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid checkout request")
		response.BadRequest(c, err.Error())
		return
	}

	if _, err := h.orderService.Checkout(ctx, userID, &req); err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			response.NotFound(c, "product not found")
			return
		}
		l.Error().Err(err).Int64(log.FieldUserID, userID).Msg("checkout failed")
		response.InternalError(c, "failed to checkout")
		return
	}

	response.OK(c)
}

// ListOrders lists the caller's orders.
func (h *Handler) ListOrders(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.GetUserID(c)

	orders, err := h.orderService.ListOrders(ctx, userID)
	if err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Int64(log.FieldUserID, userID).Msg("list orders failed")
		response.InternalError(c, "failed to list orders")
		return
	}

	response.Success(c, orders)
}

// SellerStats returns the caller's catalogue and sales totals.
func (h *Handler) SellerStats(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.GetUserID(c)

	stats, err := h.productService.SellerStats(ctx, userID)
	if err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Int64(log.FieldUserID, userID).Msg("seller stats failed")
		response.InternalError(c, "failed to load stats")
		return
	}

	response.Success(c, stats)
}

// History returns the chat history between the caller and a peer.
func (h *Handler) History(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.GetUserID(c)
	peerID, ok := paramID(c, "peerId")
	if !ok {
		return
	}

	messages, err := h.messageService.History(ctx, userID, peerID)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPeer) {
			response.BadRequest(c, err.Error())
			return
		}
		l := log.Ctx(ctx)
		l.Error().Err(err).Int64(log.FieldPeerID, peerID).Msg("load chat history failed")
		response.InternalError(c, "failed to load messages")
		return
	}

	response.Success(c, messages)
}

// paramID parses a positive integer path parameter, answering 400 otherwise.
func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}
