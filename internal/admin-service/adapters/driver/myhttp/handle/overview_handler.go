package handle

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"food-dash/internal/admin-service/core/services"
	"food-dash/internal/mylogger"
)

type OverviewHandler struct {
	overviewService *services.OverviewService
	mylog           mylogger.Logger
}

func NewOverviewHandler(mylog mylogger.Logger, overviewService *services.OverviewService) *OverviewHandler {
	return &OverviewHandler{
		overviewService: overviewService,
		mylog:           mylog,
	}
}

func (oh *OverviewHandler) GetSystemOverview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), WaitTime*time.Second)
		defer cancel()

		overview, err := oh.overviewService.GetSystemOverview(ctx)
		if err != nil {
			jsonError(w, http.StatusInternalServerError, fmt.Errorf("failed to get system overview: %v", err))
			return
		}

		jsonResponse(w, http.StatusOK, overview)
	}
}
