package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewHandler(electionHandler *ElectionHandler, voteHandler *VoteHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Route("/elections", func(r chi.Router) {
			r.Post("/", electionHandler.CreateElection)
			r.Get("/", electionHandler.ListElections)
			r.Get("/{id}", electionHandler.GetElection)
			r.Get("/{id}/results", electionHandler.GetResults)
			r.Get("/{id}/audit", electionHandler.GetAudit)
			r.Post("/{id}/end", electionHandler.EndElection)
			r.Post("/{id}/votes", voteHandler.CastVote)
		})
	})

	return r
}
