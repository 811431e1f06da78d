package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/paperpaper/catalog/internal/database/audit"
	"github.com/paperpaper/catalog/internal/entities"
)

type AuditController struct {
	audit AuditReader
}

func NewAuditController(reader AuditReader) *AuditController {
	return &AuditController{audit: reader}
}

// GetAuditEvents returns audit events, newest first. Filters: type, user_id,
// since (RFC 3339).
// GET /api/admin/audit
func (ac *AuditController) GetAuditEvents(c *gin.Context) {
	limit, offset := parsePagination(c)
	filter := audit.Filter{
		EventType: entities.AuditEventType(c.Query("type")),
		Limit:     limit,
		Offset:    offset,
	}

	if raw := c.Query("user_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			respondBadRequest(c, "invalid user_id")
			return
		}
		filter.UserID = uint(id)
	}
	if raw := c.Query("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondBadRequest(c, "since must be an RFC 3339 timestamp")
			return
		}
		filter.Since = since
	}

	events, total, err := ac.audit.Query(c.Request.Context(), filter)
	if err != nil {
		respondInternalError(c, err, "audit")
		return
	}
	c.JSON(http.StatusOK, paginated(events, total, limit, offset))
}
