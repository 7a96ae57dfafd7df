package stock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/angelmondragon/rocketcart/internal/cart"
	pkgerrors "github.com/angelmondragon/rocketcart/pkg/errors"
)

const (
	defaultTimeout              = 5 * time.Second
	responseBodyReadLimit int64 = 1024
	tracerName                  = "rocketcart/stock"

	callGetStock     = "get_stock"
	callGetProduct   = "get_product"
	callListProducts = "list_products"
)

var errBaseURLRequired = errors.New("stock service base url is required")

// Recorder observes the latency and result of every inventory call.
type Recorder interface {
	ObserveStockCall(call, result string, elapsed time.Duration)
}

// Client talks to the inventory service that owns stock levels and catalog attributes.
type Client struct {
	httpClient *http.Client
	baseURL    string
	recorder   Recorder
	tracer     trace.Tracer
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithTimeout sets the per-request timeout of the underlying HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

func WithRecorder(recorder Recorder) Option {
	return func(c *Client) {
		if recorder != nil {
			c.recorder = recorder
		}
	}
}

// NewClient builds the inventory client rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return nil, errBaseURLRequired
	}

	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: defaultTimeout},
		recorder:   nopRecorder{},
		tracer:     otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

type productPayload struct {
	ID    int64           `json:"id"`
	Title string          `json:"title"`
	Price decimal.Decimal `json:"price"`
	Image string          `json:"image"`
}

func (p productPayload) toProduct() cart.Product {
	return cart.Product{ID: p.ID, Title: p.Title, Price: p.Price, Image: p.Image}
}

// GetStock returns the units currently available for productID. Negative answers become 0.
func (c *Client) GetStock(ctx context.Context, productID int64) (int, error) {
	var payload struct {
		Amount int `json:"amount"`
	}
	path := fmt.Sprintf("stock/%d", productID)
	if err := c.getJSON(ctx, callGetStock, path, productID, &payload); err != nil {
		return 0, err
	}
	if payload.Amount < 0 {
		return 0, nil
	}
	return payload.Amount, nil
}

// GetProduct returns the catalog attributes of productID.
func (c *Client) GetProduct(ctx context.Context, productID int64) (cart.Product, error) {
	var payload productPayload
	path := fmt.Sprintf("products/%d", productID)
	if err := c.getJSON(ctx, callGetProduct, path, productID, &payload); err != nil {
		return cart.Product{}, err
	}
	return payload.toProduct(), nil
}

// ListProducts returns the whole catalog in the order the inventory service sends it.
func (c *Client) ListProducts(ctx context.Context) ([]cart.Product, error) {
	var payload []productPayload
	if err := c.getJSON(ctx, callListProducts, "products", 0, &payload); err != nil {
		return nil, err
	}
	products := make([]cart.Product, 0, len(payload))
	for _, p := range payload {
		products = append(products, p.toProduct())
	}
	return products, nil
}

func (c *Client) getJSON(ctx context.Context, call, path string, productID int64, dst any) (err error) {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "stock client not configured")
	}

	ctx, span := c.tracer.Start(ctx, "stock."+call, trace.WithSpanKind(trace.SpanKindClient))
	if productID > 0 {
		span.SetAttributes(attribute.Int64("product.id", productID))
	}
	started := time.Now()
	defer func() {
		result := "ok"
		if err != nil {
			result = "error"
			if typed := pkgerrors.As(err); typed != nil {
				result = strings.ToLower(string(typed.Code()))
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		c.recorder.ObserveStockCall(call, result, time.Since(started))
		span.End()
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildURL(path), nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build "+call+" request")
	}
	req.Header.Set("Accept", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute "+call+" request")
	}
	defer func() { _ = resp.Body.Close() }()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode == http.StatusNotFound && productID > 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %d not found", productID))
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), call+" request failed")
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode "+call+" response")
	}
	return nil
}

func (c *Client) buildURL(path string) string {
	trimmed := strings.TrimRight(c.baseURL, "/")
	path = strings.TrimLeft(path, "/")
	return fmt.Sprintf("%s/%s", trimmed, path)
}

type nopRecorder struct{}

func (nopRecorder) ObserveStockCall(string, string, time.Duration) {}
