package api

import (
	"github.com/gorilla/mux"
)

const apiPrefix = "/api/v1"

// SetupRoutes configures all API routes. Routes live on the root router so a
// known path with the wrong method answers 405 rather than 404.
func SetupRoutes(handler *Handler) *mux.Router {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	// Calculation engine
	r.HandleFunc(apiPrefix+"/calculate", handler.Calculate).Methods("POST")
	r.HandleFunc(apiPrefix+"/scenario", handler.Scenario).Methods("POST")

	// Position ledger
	r.HandleFunc(apiPrefix+"/positions", handler.GetAllPositions).Methods("GET")
	r.HandleFunc(apiPrefix+"/positions", handler.OpenPosition).Methods("POST")
	r.HandleFunc(apiPrefix+"/positions/{id:[0-9]+}", handler.GetPosition).Methods("GET")
	r.HandleFunc(apiPrefix+"/positions/{id:[0-9]+}", handler.DeletePosition).Methods("DELETE")
	r.HandleFunc(apiPrefix+"/positions/{id:[0-9]+}/sell", handler.SellPosition).Methods("POST")
	r.HandleFunc(apiPrefix+"/history", handler.GetHistory).Methods("GET")
	r.HandleFunc(apiPrefix+"/history/summary", handler.GetHistorySummary).Methods("GET")

	return r
}
