package searchhandler

import (
	"errors"
	"net/http"

	"broadcastmusic/internal/services/search"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc search.ISearchService
}

func New(svc search.ISearchService) *Handler { return &Handler{svc: svc} }

func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/search", h.search)
}

type SearchQuery struct {
	Query string `form:"query" binding:"required"`
} // @name SearchQuery

type ErrorResponse struct {
	Error string `json:"error"`
} // @name ErrorResponse

// @Summary		Search songs
// @Description	Looks songs up at the configured provider and returns playable URLs.
// @Tags			Search
// @Param			query	query		string	true	"Free-text query"	default(believer)
// @Success		200		{array}		search.Song
// @Failure		400		{object}	ErrorResponse
// @Failure		404		{object}	ErrorResponse
// @Failure		502		{object}	ErrorResponse
// @Router			/search [get]
func (h *Handler) search(ginCtx *gin.Context) {
	var q SearchQuery
	if err := ginCtx.ShouldBindQuery(&q); err != nil {
		ginCtx.JSON(http.StatusBadRequest, ErrorResponse{Error: search.ErrEmptyQuery.Error()})
		return
	}

	songs, err := h.svc.Search(ginCtx.Request.Context(), q.Query)
	switch {
	case err == nil:
		ginCtx.JSON(http.StatusOK, songs)
	case errors.Is(err, search.ErrEmptyQuery):
		ginCtx.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, search.ErrNoResults):
		ginCtx.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, search.ErrProviderFailed):
		ginCtx.JSON(http.StatusBadGateway, ErrorResponse{Error: err.Error()})
	default:
		ginCtx.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
}
