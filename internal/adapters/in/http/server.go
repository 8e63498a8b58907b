// Package http exposes the ingestion API over echo.
package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ingestion/internal/core/application/usecases/commands"
	"ingestion/internal/core/application/usecases/queries"
	"ingestion/internal/pkg/errs"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

const replayMessage = "Order already processed (idempotent request)"

// CustomerRequest carries the customer part of an ingestion request.
type CustomerRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone,omitempty"`
}

// OrderItemRequest carries one order line of an ingestion request.
type OrderItemRequest struct {
	ProductSku  string          `json:"productSku"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

// IngestOrderRequest is the POST /api/v1/orders body.
type IngestOrderRequest struct {
	RequestID string             `json:"requestId"`
	Platform  string             `json:"platform,omitempty"`
	Customer  CustomerRequest    `json:"customer"`
	Items     []OrderItemRequest `json:"items"`
}

// IngestOrderResponse reports the outcome of an ingestion.
// A replayed request carries the original order's fields with
// IsSuccess=false and the replay message; it is not an error.
type IngestOrderResponse struct {
	OrderID     int64           `json:"orderId"`
	RequestID   string          `json:"requestId"`
	Status      string          `json:"status"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	OrderDate   time.Time       `json:"orderDate"`
	IsSuccess   bool            `json:"isSuccess"`
	Message     string          `json:"message"`
}

// ErrorResponse is the error body for all endpoints.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Server coordinates between HTTP handlers and application use cases.
type Server struct {
	ingestOrderHandler  commands.IngestOrderCommandHandler
	getOrderByIDHandler queries.GetOrderByIDQueryHandler
}

// NewServer creates an HTTP server with the required command and query handlers.
func NewServer(
	ingestOrderHandler commands.IngestOrderCommandHandler,
	getOrderByIDHandler queries.GetOrderByIDQueryHandler,
) *Server {
	return &Server{
		ingestOrderHandler:  ingestOrderHandler,
		getOrderByIDHandler: getOrderByIDHandler,
	}
}

// RegisterRoutes mounts the API on the given echo instance.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.POST("/api/v1/orders", s.IngestOrder)
	e.GET("/api/v1/orders/:id", s.GetOrderByID)
	e.GET("/health", func(ctx echo.Context) error {
		return ctx.String(http.StatusOK, "Healthy")
	})
}

// IngestOrder handles POST /api/v1/orders.
func (s *Server) IngestOrder(ctx echo.Context) error {
	var req IngestOrderRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	if problems := validateIngestRequest(req); len(problems) > 0 {
		return ctx.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: strings.Join(problems, "; "),
		})
	}

	cmd, err := commands.NewIngestOrderCommand(
		req.RequestID,
		commands.CustomerInput{
			Email:     req.Customer.Email,
			FirstName: req.Customer.FirstName,
			LastName:  req.Customer.LastName,
			Phone:     req.Customer.Phone,
		},
		toLineInputs(req.Items),
		req.Platform,
	)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid order data: " + err.Error(),
		})
	}

	result, err := s.ingestOrderHandler.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.ingestError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, toIngestResponse(result))
}

// GetOrderByID handles GET /api/v1/orders/:id.
func (s *Server) GetOrderByID(ctx echo.Context) error {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Order id must be an integer",
		})
	}

	query, err := queries.NewGetOrderByIDQuery(id)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid order id: " + err.Error(),
		})
	}

	resp, err := s.getOrderByIDHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		if errors.Is(err, errs.ErrObjectNotFound) {
			return ctx.JSON(http.StatusNotFound, ErrorResponse{
				Code:    http.StatusNotFound,
				Message: fmt.Sprintf("Order %d not found", id),
			})
		}
		return ctx.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Failed to retrieve order",
		})
	}

	return ctx.JSON(http.StatusOK, resp)
}

func (s *Server) ingestError(ctx echo.Context, err error) error {
	switch {
	case errors.Is(err, commands.ErrPersistenceFailed):
		return ctx.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Failed to persist order",
		})
	case errors.Is(err, commands.ErrDispatchFailed):
		return ctx.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Order accepted but could not be dispatched for fulfillment",
		})
	default:
		// Domain validation surfaced past the boundary checks.
		return ctx.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid order data: " + err.Error(),
		})
	}
}

func toLineInputs(items []OrderItemRequest) []commands.LineInput {
	lines := make([]commands.LineInput, 0, len(items))
	for _, item := range items {
		lines = append(lines, commands.LineInput{
			ProductSku:  item.ProductSku,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}
	return lines
}

func toIngestResponse(result commands.IngestResult) IngestOrderResponse {
	resp := IngestOrderResponse{
		OrderID:     result.Order.ID(),
		RequestID:   result.Order.RequestID(),
		Status:      result.Order.Status().String(),
		TotalAmount: result.Order.TotalAmount().Amount(),
		OrderDate:   result.Order.OrderDate(),
		IsSuccess:   true,
		Message:     "Order created successfully",
	}

	if result.Replayed {
		resp.IsSuccess = false
		resp.Message = replayMessage
	}

	return resp
}

func validateIngestRequest(req IngestOrderRequest) []string {
	var problems []string

	if req.RequestID == "" {
		problems = append(problems, "requestId is required")
	}
	if req.Customer.Email == "" {
		problems = append(problems, "customer.email is required")
	}
	if req.Customer.FirstName == "" {
		problems = append(problems, "customer.firstName is required")
	}
	if req.Customer.LastName == "" {
		problems = append(problems, "customer.lastName is required")
	}
	if len(req.Items) == 0 {
		problems = append(problems, "items must not be empty")
	}

	for i, item := range req.Items {
		if item.ProductSku == "" {
			problems = append(problems, fmt.Sprintf("items[%d].productSku is required", i))
		}
		if item.ProductName == "" {
			problems = append(problems, fmt.Sprintf("items[%d].productName is required", i))
		}
		if item.Quantity <= 0 {
			problems = append(problems, fmt.Sprintf("items[%d].quantity must be greater than zero", i))
		}
		if item.UnitPrice.IsNegative() {
			problems = append(problems, fmt.Sprintf("items[%d].unitPrice must not be negative", i))
		}
		if !item.UnitPrice.Equal(item.UnitPrice.Truncate(2)) {
			problems = append(problems, fmt.Sprintf("items[%d].unitPrice must have at most two decimal places", i))
		}
	}

	return problems
}
