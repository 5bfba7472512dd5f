package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/hoopthreads/storefront/internal/awsx"
	"github.com/hoopthreads/storefront/internal/fulfillment"
	"github.com/hoopthreads/storefront/internal/idempotency"
	"github.com/hoopthreads/storefront/internal/identity"
	"github.com/hoopthreads/storefront/internal/orders"
	"github.com/hoopthreads/storefront/internal/validation"
)

// OrdersConfig groups dependencies for the orders routes.
type OrdersConfig struct {
	Engine      *fulfillment.Engine
	Orders      *orders.Store
	Idempotency *idempotency.Store
	Publisher   *awsx.Publisher
	Log         *logrus.Logger
}

// RegisterOrdersRoutes registers routes for the order API.
func RegisterOrdersRoutes(r *gin.Engine, cfg OrdersConfig) {
	v := validation.New()

	auth := r.Group("/", identity.Middleware())

	auth.POST("/orders", func(c *gin.Context) {
		ctx := c.Request.Context()
		user, _ := identity.FromContext(c)

		var req validation.CreateOrderRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			// BindAndValidate already wrote a 400
			return
		}

		idempKey := c.GetHeader("Idempotency-Key")
		if idempKey == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing_idempotency_key"})
			return
		}

		// Claim the key before touching stock so a duplicate submission can
		// never place a second order.
		claimed, err := cfg.Idempotency.Claim(ctx, idempKey)
		if err != nil {
			respondError(c, cfg.Log, err)
			return
		}
		if !claimed {
			rec, err := cfg.Idempotency.Get(ctx, idempKey)
			if err != nil || rec == nil {
				cfg.Log.WithError(err).Error("idempotency record missing after failed claim")
				c.JSON(http.StatusInternalServerError, gin.H{"error": "idempotency_check_failed"})
				return
			}
			switch rec.Status {
			case idempotency.StatusDone:
				if rec.ResponseBody != "" {
					c.Data(rec.ResponseStatus, "application/json", []byte(rec.ResponseBody))
					return
				}
				c.JSON(http.StatusOK, gin.H{"order_id": rec.OrderID})
			case idempotency.StatusInProgress:
				c.JSON(http.StatusAccepted, gin.H{"message": "request already in progress"})
			case idempotency.StatusFailed:
				c.JSON(http.StatusInternalServerError, gin.H{"error": "previous_attempt_failed"})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": "unknown_idempotency_status"})
			}
			return
		}

		cart := make([]fulfillment.CartLine, 0, len(req.Items))
		for _, it := range req.Items {
			cart = append(cart, fulfillment.CartLine{
				ProductID: it.ProductID,
				Qty:       it.Qty,
				Price:     it.Price,
			})
		}
		addr := orders.ShippingAddress{
			Address:    req.ShippingAddress.Address,
			City:       req.ShippingAddress.City,
			PostalCode: req.ShippingAddress.PostalCode,
			Country:    req.ShippingAddress.Country,
		}

		order, err := cfg.Engine.PlaceOrder(ctx, cart, addr, req.PaymentMethod,
			fulfillment.User{ID: user.ID, Name: user.Name})
		if err != nil {
			_ = cfg.Idempotency.MarkFailed(ctx, idempKey, err.Error())
			respondError(c, cfg.Log, err)
			return
		}

		// Fulfillment event is best-effort; the order is already committed.
		if cfg.Publisher != nil {
			ev := awsx.OrderPlacedEvent{
				OrderID:        order.OrderID,
				UserID:         order.UserID,
				TotalPrice:     order.TotalPrice,
				IdempotencyKey: idempKey,
				CorrelationID:  c.GetHeader("X-Request-Id"),
			}
			if err := cfg.Publisher.PublishOrderPlaced(ctx, ev); err != nil {
				cfg.Log.WithError(err).WithField("order_id", order.OrderID).
					Warn("failed to publish order placed event")
			}
		}

		body, _ := json.Marshal(order)
		_ = cfg.Idempotency.MarkDone(ctx, idempKey, order.OrderID, string(body), http.StatusCreated)

		c.Header("Location", fmt.Sprintf("/orders/%s", order.OrderID))
		c.JSON(http.StatusCreated, order)
	})

	auth.GET("/orders/mine", func(c *gin.Context) {
		user, _ := identity.FromContext(c)
		list, err := cfg.Orders.ListByUser(c.Request.Context(), user.ID)
		if err != nil {
			respondError(c, cfg.Log, err)
			return
		}
		c.JSON(http.StatusOK, list)
	})

	auth.GET("/orders/:id", func(c *gin.Context) {
		user, _ := identity.FromContext(c)
		order, err := cfg.Orders.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, cfg.Log, err)
			return
		}
		if order == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
			return
		}
		if order.UserID != user.ID && !user.Admin {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.JSON(http.StatusOK, order)
	})

	auth.GET("/orders", identity.RequireAdmin(), func(c *gin.Context) {
		list, err := cfg.Orders.List(c.Request.Context())
		if err != nil {
			respondError(c, cfg.Log, err)
			return
		}
		c.JSON(http.StatusOK, list)
	})

	auth.PUT("/orders/:id/pay", func(c *gin.Context) {
		var req validation.PayOrderRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}
		order, err := cfg.Engine.MarkPaid(c.Request.Context(), c.Param("id"), fulfillment.PaymentInfo{
			TransactionID: req.TransactionID,
			Status:        req.Status,
			UpdateTime:    req.UpdateTime,
			PayerEmail:    req.PayerEmail,
		})
		if err != nil {
			respondError(c, cfg.Log, err)
			return
		}
		c.JSON(http.StatusOK, order)
	})

	auth.PUT("/orders/:id/deliver", identity.RequireAdmin(), func(c *gin.Context) {
		order, err := cfg.Engine.MarkDelivered(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, cfg.Log, err)
			return
		}
		c.JSON(http.StatusOK, order)
	})
}
