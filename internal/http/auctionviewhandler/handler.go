package auctionviewhandler

import (
	"errors"
	"net/http"

	"carauctiongo/internal/marketerrors"
	"carauctiongo/internal/models"
	"carauctiongo/internal/repository/auctionrepo"
	"carauctiongo/internal/services/composer"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	svc composer.IComposerService
}

func New(svc composer.IComposerService) *Handler { return &Handler{svc: svc} }

func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/auctions", h.list)
	r.GET("/auctions/:id", h.info)
	r.POST("/auctions/:id/bid", h.bid)
	r.PUT("/auctions/:id", h.updateAuction)
	r.PUT("/vehicles/:id", h.updateVehicle)
}

// @Summary		Get a composed auction view
// @Description	Returns the merged auction+vehicle+seller view. The id may be an auction key or the vehicle key it sells.
// @Tags			Auctions
// @Param			id	path		string	true	"Auction or vehicle ID"
// @Success		200	{object}	composer.ComposedAuctionView
// @Failure		404	{object}	ErrorResponse
// @Failure		503	{object}	ErrorResponse
// @Router			/auctions/{id} [get]
func (h *Handler) info(c *gin.Context) {
	view, err := h.svc.GetComposedAuction(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// @Summary		List composed auction views
// @Description	Paginated list with status/featured/seller filters. Venue-grouped auctions are excluded.
// @Tags			Auctions
// @Param			status		query	string	false	"Status filter"	Enums(UPCOMING,ACTIVE,ENDED,SOLD,CANCELLED)
// @Param			featured	query	bool	false	"Featured only"
// @Param			seller_id	query	string	false	"Seller filter"
// @Param			sort		query	string	false	"Sort key"	Enums(created_at,current_price,ends_at,views)
// @Param			dir			query	string	false	"Sort direction"	Enums(asc,desc)
// @Param			limit		query	int		false	"Page size (0-100)"	default(10)
// @Param			page		query	int		false	"1-based page"		default(1)
// @Success		200	{object}	ListResponse
// @Failure		400	{object}	ErrorResponse
// @Router			/auctions [get]
func (h *Handler) list(c *gin.Context) {
	var q ListAuctionsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	limit := q.Limit
	if limit == 0 {
		limit = 10
	}
	out, err := h.svc.ListComposedAuctions(c.Request.Context(), auctionrepo.ListFilter{
		Status:   q.Status,
		Featured: q.Featured,
		SellerID: q.SellerID,
		SortKey:  q.Sort,
		SortDir:  q.Dir,
		Limit:    limit,
		Offset:   (q.Page - 1) * limit,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	pages := (out.Total + limit - 1) / limit
	c.JSON(http.StatusOK, ListResponse{
		Data: out.Items,
		Pagination: Pagination{
			Page:  q.Page,
			Limit: limit,
			Total: out.Total,
			Pages: pages,
		},
	})
}

// @Summary		Place a bid
// @Description	Appends a bid; the cached view is invalidated before the call returns.
// @Tags			Auctions
// @Param			id		path	string			true	"Auction ID"
// @Param			body	body	PlaceBidBody	true	"Bid payload"
// @Success		202
// @Failure		400	{object}	ErrorResponse
// @Failure		404	{object}	ErrorResponse
// @Router			/auctions/{id}/bid [post]
func (h *Handler) bid(c *gin.Context) {
	var body PlaceBidBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if err := h.svc.PlaceBid(c.Request.Context(), c.Param("id"), body.BidderID, body.Amount); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

// @Summary		Update an auction
// @Tags			Auctions
// @Param			id		path	string				true	"Auction ID"
// @Param			body	body	UpdateAuctionBody	true	"Auction fields"
// @Success		204
// @Failure		400	{object}	ErrorResponse
// @Failure		404	{object}	ErrorResponse
// @Router			/auctions/{id} [put]
func (h *Handler) updateAuction(c *gin.Context) {
	var body UpdateAuctionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	a := &models.Auction{
		ID:                  c.Param("id"),
		Title:               body.Title,
		Description:         body.Description,
		StartPrice:          body.StartPrice,
		CurrentPrice:        body.CurrentPrice,
		MinimumBidIncrement: body.MinimumBidIncrement,
		ReservePrice:        body.ReservePrice,
		StartsAt:            body.StartsAt.UTC(),
		EndsAt:              body.EndsAt.UTC(),
		Status:              body.Status,
		Featured:            body.Featured,
	}
	if err := h.svc.UpdateAuction(c.Request.Context(), a); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary		Update a vehicle
// @Tags			Vehicles
// @Param			id		path	string				true	"Vehicle ID"
// @Param			body	body	UpdateVehicleBody	true	"Vehicle fields"
// @Success		204
// @Failure		400	{object}	ErrorResponse
// @Failure		404	{object}	ErrorResponse
// @Router			/vehicles/{id} [put]
func (h *Handler) updateVehicle(c *gin.Context) {
	var body UpdateVehicleBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	v := &models.Vehicle{
		ID:           c.Param("id"),
		Title:        body.Title,
		Brand:        body.Brand,
		Model:        body.Model,
		Year:         body.Year,
		Price:        body.Price,
		Condition:    body.Condition,
		Mileage:      body.Mileage,
		Location:     body.Location,
		Description:  body.Description,
		ContactPhone: body.ContactPhone,
		LegacyImages: body.Images,
	}
	if err := h.svc.UpdateVehicle(c.Request.Context(), v); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// fail maps the error taxonomy onto status codes. A genuine failure is
// never papered over with substitute data.
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, marketerrors.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, marketerrors.ErrDataIntegrity):
		zap.L().Error("view_integrity_failure", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	case errors.Is(err, marketerrors.ErrStoreUnavailable):
		zap.L().Warn("store_unavailable", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "store temporarily unavailable"})
	default:
		zap.L().Error("view_request_failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
}

type ListResponse struct {
	Data       []composer.ComposedAuctionView `json:"data"`
	Pagination Pagination                     `json:"pagination"`
} // @name ListResponse
