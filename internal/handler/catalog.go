package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"

	"github.com/appie1702/storefront/internal/domain/catalog"
)

type itemResponse struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Price         string  `json:"price"`
	DiscountPrice *string `json:"discount_price,omitempty"`
	Category      string  `json:"category"`
	Label         string  `json:"label"`
	Slug          string  `json:"slug"`
	Description   string  `json:"description"`
	Image         string  `json:"image"`
}

type itemPageResponse struct {
	Items    []itemResponse `json:"items"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

// listItems returns one page of the catalog, optionally filtered by a
// title substring.
func (h *Handler) listItems(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	search := c.Query("search")

	result, err := h.items.List(c.Request.Context(), search, page, h.cfg.PageSize)
	if err != nil {
		respondInternal(c)
		return
	}

	out := itemPageResponse{
		Items:    make([]itemResponse, len(result.Items)),
		Total:    result.Total,
		Page:     result.PageNumber,
		PageSize: result.PageSize,
	}
	for i, it := range result.Items {
		out.Items[i] = toItemResponse(it)
	}
	c.JSON(http.StatusOK, out)
}

// getItem returns a single item by slug.
func (h *Handler) getItem(c *gin.Context) {
	it, err := h.items.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			respondNotice(c, http.StatusNotFound, "This item does not exist.", "/")
			return
		}
		respondInternal(c)
		return
	}
	c.JSON(http.StatusOK, toItemResponse(*it))
}

func toItemResponse(it catalog.Item) itemResponse {
	resp := itemResponse{
		ID:          it.ID.String(),
		Title:       it.Title,
		Price:       it.Price.StringFixed(2),
		Category:    it.Category,
		Label:       it.Label,
		Slug:        it.Slug,
		Description: it.Description,
		Image:       it.Image,
	}
	if it.DiscountPrice != nil {
		s := it.DiscountPrice.StringFixed(2)
		resp.DiscountPrice = &s
	}
	return resp
}
