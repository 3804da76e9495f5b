package router

import (
	"net/http"

	"github.com/senyabanana/funding-service/internal/handlers"
)

// InitRoutes регистрирует маршруты API.
func InitRoutes(userHandler *handlers.UserHandler, operationHandler *handlers.OperationHandler, bidHandler *handlers.BidHandler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/ping", handlers.PingHandler)

	mux.HandleFunc("POST /api/users/new", userHandler.RegisterUser)
	mux.HandleFunc("GET /api/users/{userId}", userHandler.GetUser)
	mux.HandleFunc("DELETE /api/users/{userId}", userHandler.DeleteUser)

	mux.HandleFunc("GET /api/operations", operationHandler.GetOperations)
	mux.HandleFunc("POST /api/operations/new", operationHandler.CreateOperation)
	mux.HandleFunc("PUT /api/operations/update-expired", operationHandler.UpdateExpired)
	mux.HandleFunc("GET /api/operations/{operationId}", operationHandler.GetOperation)
	mux.HandleFunc("DELETE /api/operations/{operationId}", operationHandler.DeleteOperation)
	mux.HandleFunc("GET /api/operations/{operationId}/bids", operationHandler.GetOperationBids)

	mux.HandleFunc("POST /api/bids/new", bidHandler.CreateBid)
	mux.HandleFunc("GET /api/bids/{bidId}", bidHandler.GetBid)

	return mux
}
