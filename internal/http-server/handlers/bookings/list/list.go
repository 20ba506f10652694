package list

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

type BookingLister interface {
	ListBookings(ctx context.Context, staffID, from, to string) ([]*api.BookingResponse, error)
}

type Response struct {
	response.Response
	Bookings []api.BookingResponse `json:"bookings"`
}

func New(log *slog.Logger, lister BookingLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.bookings.list.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		staffID := r.URL.Query().Get("staff_id")
		from := r.URL.Query().Get("from")
		to := r.URL.Query().Get("to")

		if staffID == "" || from == "" || to == "" {
			log.Error("Missing query parameters")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "staff_id, from and to are required"))
			return
		}

		bookings, err := lister.ListBookings(r.Context(), staffID, from, to)

		if errors.Is(err, response.ErrValidation) {
			log.Error("Invalid date range", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.VALIDATION), "invalid date range"))
			return
		}

		if err != nil {
			log.Error("Failed to list bookings", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to list bookings"))
			return
		}

		log.Info("Bookings listed", slog.String("staff_id", staffID), slog.Int("count", len(bookings)))

		result := make([]api.BookingResponse, len(bookings))
		for i, b := range bookings {
			result[i] = *b
		}

		render.JSON(w, r, Response{
			Bookings: result,
		})
	}
}
