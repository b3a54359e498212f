package httpapi

import "mcq-app/internal/quiz"

// API serves the single local quiz session to a browser front-end.
type API struct {
	service *quiz.Service
}

func NewAPI(service *quiz.Service) *API {
	return &API{service: service}
}
