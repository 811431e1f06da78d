package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/paperpaper/catalog/internal/services"
)

type SubscriptionsController struct {
	subscriptions SubscriptionManager
}

func NewSubscriptionsController(subs SubscriptionManager) *SubscriptionsController {
	return &SubscriptionsController{subscriptions: subs}
}

// Subscribe registers an address for an author's new articles.
// POST /api/subscriptions
func (sc *SubscriptionsController) Subscribe(c *gin.Context) {
	var in services.SubscribeInput
	if err := c.ShouldBind(&in); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	sub, outcome, err := sc.subscriptions.Subscribe(c.Request.Context(), in, c.ClientIP())
	if err != nil {
		respondServiceError(c, err, "subscription")
		return
	}

	status := http.StatusOK
	if outcome == services.SubscriptionCreated {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{
		"outcome":      outcome,
		"subscription": sub,
	})
}

// List returns subscriptions, optionally filtered by ?active=true|false.
// GET /api/admin/subscriptions
func (sc *SubscriptionsController) List(c *gin.Context) {
	var active *bool
	if raw := c.Query("active"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			respondBadRequest(c, "active must be true or false")
			return
		}
		active = &v
	}

	subs, err := sc.subscriptions.List(c.Request.Context(), active)
	if err != nil {
		respondInternalError(c, err, "subscriptions")
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscriptions": subs, "count": len(subs)})
}

type bulkIDsRequest struct {
	IDs []uint `json:"ids"`
}

// Activate
// POST /api/admin/subscriptions/activate
func (sc *SubscriptionsController) Activate(c *gin.Context) {
	sc.setActive(c, true)
}

// Deactivate
// POST /api/admin/subscriptions/deactivate
func (sc *SubscriptionsController) Deactivate(c *gin.Context) {
	sc.setActive(c, false)
}

func (sc *SubscriptionsController) setActive(c *gin.Context, active bool) {
	var req bulkIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	updated, err := sc.subscriptions.SetActive(c.Request.Context(), req.IDs, active)
	if err != nil {
		respondServiceError(c, err, "subscription")
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}
