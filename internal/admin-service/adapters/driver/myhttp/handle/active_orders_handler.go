package handle

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"food-dash/internal/admin-service/core/services"
	"food-dash/internal/mylogger"
)

type ActiveOrdersHandler struct {
	activeOrdersService *services.ActiveOrdersService
	mylog               mylogger.Logger
}

func NewActiveOrdersHandler(mylog mylogger.Logger, activeOrdersService *services.ActiveOrdersService) *ActiveOrdersHandler {
	return &ActiveOrdersHandler{
		activeOrdersService: activeOrdersService,
		mylog:               mylog,
	}
}

func (ah *ActiveOrdersHandler) GetActiveOrders() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))

		ctx, cancel := context.WithTimeout(r.Context(), WaitTime*time.Second)
		defer cancel()

		res, err := ah.activeOrdersService.GetActiveOrders(ctx, page, pageSize)
		if err != nil {
			jsonError(w, http.StatusInternalServerError, fmt.Errorf("failed to get active orders: %v", err))
			return
		}

		jsonResponse(w, http.StatusOK, res)
	}
}
