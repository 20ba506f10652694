package get

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"clinic-service/pkg/response"
	"clinic-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type DateScanner interface {
	ComputeAvailableDates(ctx context.Context, staffID, serviceID, from, to string) ([]string, error)
}

type Response struct {
	response.Response
	Dates []string `json:"dates"`
}

func New(log *slog.Logger, scanner DateScanner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.availability.dates.get.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		staffID := r.URL.Query().Get("staff_id")
		serviceID := r.URL.Query().Get("service_id")
		from := r.URL.Query().Get("from")
		to := r.URL.Query().Get("to")

		if staffID == "" || serviceID == "" || from == "" || to == "" {
			log.Error("Missing query parameters")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "staff_id, service_id, from and to are required"))
			return
		}

		dates, err := scanner.ComputeAvailableDates(r.Context(), staffID, serviceID, from, to)

		if errors.Is(err, response.ErrValidation) {
			log.Error("Invalid date range", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.VALIDATION), "invalid date range"))
			return
		}

		if err != nil {
			log.Error("Failed to compute available dates", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to compute available dates"))
			return
		}

		log.Info("Dates computed", slog.Int("count", len(dates)))

		render.JSON(w, r, Response{
			Dates: dates,
		})
	}
}
