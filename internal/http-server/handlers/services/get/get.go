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

type ServiceLister interface {
	ListServices(ctx context.Context) ([]*api.ServiceResponse, error)
}

type Response struct {
	response.Response
	Services []api.ServiceResponse `json:"services"`
}

func New(log *slog.Logger, lister ServiceLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.services.get.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		services, err := lister.ListServices(r.Context())
		if err != nil {
			log.Error("Failed to list services", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to list services"))
			return
		}

		log.Info("Services retrieved", slog.Int("count", len(services)))

		result := make([]api.ServiceResponse, len(services))
		for i, svc := range services {
			result[i] = *svc
		}

		render.JSON(w, r, Response{
			Services: result,
		})
	}
}
