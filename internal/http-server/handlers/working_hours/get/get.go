package get

import (
	"context"
	"log/slog"
	"net/http"

	"clinic-service/api"
	"clinic-service/pkg/response"
	"clinic-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type WorkingHoursGetter interface {
	GetWorkingHours(ctx context.Context, staffID string) ([]*api.WorkingHourResponse, error)
}

type Response struct {
	response.Response
	WorkingHours []api.WorkingHourResponse `json:"working_hours"`
}

func New(log *slog.Logger, getter WorkingHoursGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.working_hours.get.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		staffID := r.URL.Query().Get("staff_id")
		if staffID == "" {
			log.Error("staff_id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "staff_id is required"))
			return
		}

		hours, err := getter.GetWorkingHours(r.Context(), staffID)
		if err != nil {
			log.Error("Failed to get working hours", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get working hours"))
			return
		}

		log.Info("Working hours retrieved", slog.Int("count", len(hours)))

		result := make([]api.WorkingHourResponse, len(hours))
		for i, wh := range hours {
			result[i] = *wh
		}

		// Days without a row render as absent; the caller treats them as
		// closed.
		render.JSON(w, r, Response{
			WorkingHours: result,
		})
	}
}
