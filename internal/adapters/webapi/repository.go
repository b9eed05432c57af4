package webapi

import (
	"bytes"
	"context"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/kiryu-dev/duel-chess/internal/domain"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	clientTimeout       = 5 * time.Second
	DuelEndpoint        = "/duel"
	DuelResultEndpoint  = "/duel/result"
	HealthCheckEndpoint = "/health"
)

type repository struct {
	cli         *http.Client
	arenaAddr   string
	callbackURL string
	reporter    domain.DuelReporter
	logger      *zap.Logger
}

func New(arenaAddr, callbackURL string, reporter domain.DuelReporter, logger *zap.Logger) repository {
	return repository{
		cli:         &http.Client{Timeout: clientTimeout},
		arenaAddr:   arenaAddr,
		callbackURL: callbackURL,
		reporter:    reporter,
		logger:      logger,
	}
}

// RequestDuel hands the duel to the remote arena without waiting for it; a
// failed hand-off is reported back as a resolver failure.
func (r repository) RequestDuel(ctx context.Context, req domain.DuelRequest) error {
	go func() {
		err := r.postJson(ctx, r.arenaAddr+DuelEndpoint, domain.ArenaDuelRequest{
			Duel:        req,
			CallbackURL: r.callbackURL,
		})
		if err == nil {
			return
		}
		r.logger.Warn("failed to hand duel to arena", zap.String("duel", req.ID), zap.Error(err))
		if r.reporter != nil {
			r.reporter.ResolverFailed(req.ID, err)
		}
	}()
	return nil
}

// ReportResult posts a verdict to the game server's callback URL.
func (r repository) ReportResult(ctx context.Context, callbackURL string, result domain.DuelResult) error {
	if err := r.postJson(ctx, callbackURL, result); err != nil {
		return errors.WithMessage(err, "report duel result")
	}
	return nil
}

func (r repository) postJson(ctx context.Context, url string, v any) error {
	body, err := jsoniter.Marshal(v)
	if err != nil {
		return errors.WithMessage(err, "marshal json body")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return errors.WithMessage(err, "new post request")
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := r.cli.Do(req)
	if err != nil {
		return errors.WithMessagef(err, "call http endpoint '%s'", url)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return errors.Errorf("unexpected response status '%s'", resp.Status)
	}
	return nil
}

func (r repository) HealthCheck(ctx context.Context, addr string) (*domain.HealthCheckResponse, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, addr+HealthCheckEndpoint, nil)
	if err != nil {
		return nil, errors.WithMessage(err, "new get request")
	}
	resp, err := r.cli.Do(request)
	if err != nil {
		return nil, errors.WithMessagef(err, "call http endpoint '%s'", HealthCheckEndpoint)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("unexpected response status '%s'", resp.Status)
	}
	result := new(domain.HealthCheckResponse)
	if err := jsoniter.NewDecoder(resp.Body).Decode(result); err != nil {
		return nil, errors.WithMessage(err, "decode json response body")
	}
	return result, nil
}
