package handlers

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/hoopthreads/storefront/internal/catalog"
	"github.com/hoopthreads/storefront/internal/fulfillment"
	"github.com/hoopthreads/storefront/internal/identity"
	"github.com/hoopthreads/storefront/internal/validation"
)

const defaultPageSize = 12

// ProductsConfig groups dependencies for the catalog routes.
type ProductsConfig struct {
	Catalog *catalog.Store
	Engine  *fulfillment.Engine
	Log     *logrus.Logger
}

// RegisterProductsRoutes registers the catalog API: public browsing, admin
// CRUD and customer reviews.
func RegisterProductsRoutes(r *gin.Engine, cfg ProductsConfig) {
	v := validation.New()

	r.GET("/products", func(c *gin.Context) {
		all, err := cfg.Catalog.List(c.Request.Context())
		if err != nil {
			respondError(c, cfg.Log, err)
			return
		}

		keyword := strings.ToLower(c.Query("keyword"))
		if keyword != "" {
			filtered := all[:0]
			for _, p := range all {
				if strings.Contains(strings.ToLower(p.Name), keyword) ||
					strings.Contains(strings.ToLower(p.Team), keyword) ||
					strings.Contains(strings.ToLower(p.Player), keyword) {
					filtered = append(filtered, p)
				}
			}
			all = filtered
		}

		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		if page < 1 {
			page = 1
		}
		pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultPageSize)))
		if pageSize < 1 {
			pageSize = defaultPageSize
		}

		total := len(all)
		pages := (total + pageSize - 1) / pageSize
		start := (page - 1) * pageSize
		if start > total {
			start = total
		}
		end := start + pageSize
		if end > total {
			end = total
		}

		c.JSON(http.StatusOK, gin.H{
			"products": all[start:end],
			"page":     page,
			"pages":    pages,
			"total":    total,
		})
	})

	r.GET("/products/top", func(c *gin.Context) {
		all, err := cfg.Catalog.List(c.Request.Context())
		if err != nil {
			respondError(c, cfg.Log, err)
			return
		}
		sort.Slice(all, func(i, j int) bool {
			if all[i].Rating != all[j].Rating {
				return all[i].Rating > all[j].Rating
			}
			return all[i].NumReviews > all[j].NumReviews
		})
		if len(all) > 3 {
			all = all[:3]
		}
		c.JSON(http.StatusOK, all)
	})

	r.GET("/products/:id", func(c *gin.Context) {
		p, err := cfg.Catalog.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, cfg.Log, err)
			return
		}
		if p == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
			return
		}
		c.JSON(http.StatusOK, p)
	})

	auth := r.Group("/", identity.Middleware())

	auth.POST("/products/:id/reviews", func(c *gin.Context) {
		user, _ := identity.FromContext(c)
		var req validation.CreateReviewRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}
		err := cfg.Engine.AddReview(c.Request.Context(), c.Param("id"), req.Rating, req.Comment,
			fulfillment.User{ID: user.ID, Name: user.Name})
		if err != nil {
			respondError(c, cfg.Log, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "review added"})
	})

	admin := auth.Group("/", identity.RequireAdmin())

	admin.POST("/products", func(c *gin.Context) {
		var req validation.UpsertProductRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}
		created, err := cfg.Catalog.Put(c.Request.Context(), productFromRequest(uuid.NewString(), req))
		if err != nil {
			respondError(c, cfg.Log, err)
			return
		}
		c.JSON(http.StatusCreated, created)
	})

	admin.PUT("/products/:id", func(c *gin.Context) {
		var req validation.UpsertProductRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}
		existing, err := cfg.Catalog.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, cfg.Log, err)
			return
		}
		if existing == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
			return
		}

		p := productFromRequest(existing.ProductID, req)
		// reviews and their aggregates survive an admin edit
		p.Rating = existing.Rating
		p.NumReviews = existing.NumReviews
		p.Reviews = existing.Reviews
		p.ReviewerIDs = existing.ReviewerIDs
		p.CreatedAt = existing.CreatedAt

		// checked write: serialize the stock edit against in-flight orders
		updated, err := cfg.Catalog.PutChecked(c.Request.Context(), p, existing.Stock)
		if err != nil {
			if errors.Is(err, catalog.ErrStockConflict) {
				c.JSON(http.StatusConflict, gin.H{"error": "stock_conflict", "msg": "stock changed while editing, reload and retry"})
				return
			}
			respondError(c, cfg.Log, err)
			return
		}
		c.JSON(http.StatusOK, updated)
	})

	admin.DELETE("/products/:id", func(c *gin.Context) {
		if err := cfg.Catalog.Delete(c.Request.Context(), c.Param("id")); err != nil {
			respondError(c, cfg.Log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "product removed"})
	})
}

func productFromRequest(id string, req validation.UpsertProductRequest) catalog.Product {
	return catalog.Product{
		ProductID:    id,
		Name:         strings.TrimSpace(req.Name),
		Team:         strings.TrimSpace(req.Team),
		Player:       strings.TrimSpace(req.Player),
		JerseyNumber: req.JerseyNumber,
		Image:        req.Image,
		Description:  req.Description,
		Price:        req.Price,
		Stock:        req.Stock,
		IsFeatured:   req.IsFeatured,
	}
}
