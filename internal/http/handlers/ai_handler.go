// README: AI search handler (token-guarded Gemini filter extraction).
package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/ai"
	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/http/middleware"
	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/modules/filter"
)

const (
	aiTimeout     = 10 * time.Second
	maxMessageLen = 500
)

type AIHandler struct {
	ai         AISearchService
	searchPath string
}

func NewAIHandler(svc AISearchService, searchPath string) *AIHandler {
	if searchPath == "" {
		searchPath = "/cars"
	}
	return &AIHandler{ai: svc, searchPath: searchPath}
}

type aiSearchReq struct {
	Message string `json:"message"`
	City    string `json:"city"`
}

type aiSearchResp struct {
	*ai.SearchIntent
	URL             string `json:"url"`
	TokensRemaining int    `json:"tokensRemaining"`
}

// Search handles POST /api/ai/search.
func (h *AIHandler) Search(c *gin.Context) {
	var req aiSearchReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		writeError(c, http.StatusBadRequest, "missing message")
		return
	}
	if len(req.Message) > maxMessageLen {
		writeError(c, http.StatusBadRequest, "message too long")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), aiTimeout)
	defer cancel()

	uid := middleware.CallerUID(c)
	intent, err := h.ai.Search(ctx, uid, req.Message, map[string]string{"user_city": strings.TrimSpace(req.City)})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	remaining, err := h.ai.Remaining(c.Request.Context(), uid)
	if err != nil {
		remaining = -1
	}

	writeJSON(c, http.StatusOK, aiSearchResp{
		SearchIntent:    intent,
		URL:             filter.BuildURL(h.searchPath, filter.Serialize(intent.Filters)),
		TokensRemaining: remaining,
	})
}
