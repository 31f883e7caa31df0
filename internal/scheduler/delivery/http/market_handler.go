package http

import (
	"net/http"
	"strings"
	"time"

	"golang-stock-indicator/internal/scheduler/service"
	"golang-stock-indicator/pkg/logger"
	"golang-stock-indicator/pkg/utils"

	"github.com/labstack/echo/v4"
)

// MarketHandler serves the computed market data.
type MarketHandler struct {
	marketService service.MarketService
	logger        *logger.Logger
}

// NewMarketHandler creates a new MarketHandler.
func NewMarketHandler(marketService service.MarketService, log *logger.Logger) *MarketHandler {
	return &MarketHandler{marketService: marketService, logger: log}
}

// RegisterRoutes registers the market routes to the Echo group.
func (h *MarketHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/snapshot", h.GetSnapshot)
	g.GET("/screening", h.GetScreening)
	g.GET("/indicators/:symbol", h.GetIndicators)
	g.GET("/stats/:date", h.GetMarketStat)
}

// GetSnapshot godoc
// @Summary Latest snapshot
// @Description Latest indicator row of every symbol ordered by RS rating; stale rows are flagged
// @Tags market
// @Produce  json
// @Success 200 {object} dto.SnapshotResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /market/snapshot [get]
func (h *MarketHandler) GetSnapshot(c echo.Context) error {
	resp, err := h.marketService.GetSnapshot(c.Request().Context())
	if err != nil {
		h.logger.Error("Failed to build snapshot", logger.ErrorField(err))
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// GetScreening godoc
// @Summary CANSLIM screening
// @Description Screens the fresh rows of the latest snapshot
// @Tags market
// @Produce  json
// @Success 200 {object} dto.ScreeningResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /market/screening [get]
func (h *MarketHandler) GetScreening(c echo.Context) error {
	resp, err := h.marketService.GetScreening(c.Request().Context())
	if err != nil {
		h.logger.Error("Failed to screen snapshot", logger.ErrorField(err))
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// GetIndicators godoc
// @Summary Indicator history of a symbol
// @Tags market
// @Produce  json
// @Param   symbol  path    string true   "Symbol, e.g. 600000.SH"
// @Param   start   query   string false  "YYYY-MM-DD, default one year before end"
// @Param   end     query   string false  "YYYY-MM-DD, default today"
// @Success 200 {object} dto.IndicatorsResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /market/indicators/{symbol} [get]
func (h *MarketHandler) GetIndicators(c echo.Context) error {
	start, err := optionalDate(c.QueryParam("start"))
	if err != nil {
		return badRequest(c, "Invalid start date")
	}
	end, err := optionalDate(c.QueryParam("end"))
	if err != nil {
		return badRequest(c, "Invalid end date")
	}

	symbol := strings.ToUpper(c.Param("symbol"))
	resp, err := h.marketService.GetIndicators(c.Request().Context(), symbol, start, end)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// GetMarketStat godoc
// @Summary Market breadth of a trading date
// @Tags market
// @Produce  json
// @Param   date  path    string true  "YYYY-MM-DD"
// @Success 200 {object} entity.MarketDailyStat
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /market/stats/{date} [get]
func (h *MarketHandler) GetMarketStat(c echo.Context) error {
	date, err := utils.ParseDate(c.Param("date"))
	if err != nil {
		return badRequest(c, "Invalid date")
	}

	stat, err := h.marketService.GetMarketStat(c.Request().Context(), date)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, stat)
}

func optionalDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return utils.ParseDate(raw)
}
