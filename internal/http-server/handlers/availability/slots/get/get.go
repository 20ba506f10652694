package get

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

type SlotProvider interface {
	ComputeAvailableSlots(ctx context.Context, staffID, serviceID, date string) ([]api.SlotResponse, error)
}

type Response struct {
	response.Response
	Slots []api.SlotResponse `json:"slots"`
}

func New(log *slog.Logger, provider SlotProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.availability.slots.get.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		staffID := r.URL.Query().Get("staff_id")
		serviceID := r.URL.Query().Get("service_id")
		date := r.URL.Query().Get("date")

		if staffID == "" || serviceID == "" || date == "" {
			log.Error("Missing query parameters")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "staff_id, service_id and date are required"))
			return
		}

		slots, err := provider.ComputeAvailableSlots(r.Context(), staffID, serviceID, date)

		if errors.Is(err, response.ErrValidation) {
			log.Error("Invalid date", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.VALIDATION), "invalid date"))
			return
		}

		if err != nil {
			log.Error("Failed to compute available slots", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to compute available slots"))
			return
		}

		log.Info("Slots computed", slog.Int("count", len(slots)))

		// An empty list is a valid result: closed day, unknown staff and
		// unknown service all render as "no availability".
		render.JSON(w, r, Response{
			Slots: slots,
		})
	}
}
