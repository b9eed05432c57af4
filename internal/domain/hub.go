package domain

import (
	"context"
)

type HealthCheckResponse struct {
	Status string
	Team   string
	Busy   bool
}

type HubUseCase interface {
	DuelReporter
	Run(ctx context.Context, resolver DuelResolver) error
	Handle(ctx context.Context, client Client) error
	Health() HealthCheckResponse
}
