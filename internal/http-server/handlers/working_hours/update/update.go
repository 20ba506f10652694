package update

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"clinic-service/api"
	"clinic-service/pkg/response"
	"clinic-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type WorkingHoursUpdater interface {
	UpdateWorkingHours(ctx context.Context, req *api.WorkingHoursRequest) ([]*api.WorkingHourResponse, error)
}

type Request struct {
	api.WorkingHoursRequest
}

type Response struct {
	response.Response
	WorkingHours []api.WorkingHourResponse `json:"working_hours"`
}

func New(log *slog.Logger, updater WorkingHoursUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.working_hours.update.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
			return
		}

		if req.StaffID == "" {
			log.Error("staff_id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "staff_id is required"))
			return
		}

		if len(req.Updates) == 0 {
			log.Error("updates is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "updates is required"))
			return
		}

		hours, err := updater.UpdateWorkingHours(r.Context(), &req.WorkingHoursRequest)

		if errors.Is(err, response.ErrValidation) {
			log.Error("Invalid working hours", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.VALIDATION), "invalid working hours"))
			return
		}

		if err != nil {
			log.Error("Failed to update working hours", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to update working hours"))
			return
		}

		log.Info("Working hours updated", slog.String("staff_id", req.StaffID), slog.Int("count", len(hours)))

		result := make([]api.WorkingHourResponse, len(hours))
		for i, wh := range hours {
			result[i] = *wh
		}

		render.JSON(w, r, Response{
			WorkingHours: result,
		})
	}
}
