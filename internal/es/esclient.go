package es

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/Skotchmaster/dulcehogar/internal/config"
	"github.com/Skotchmaster/dulcehogar/internal/logging"
)

// NewClient connects to Elasticsearch and checks the cluster answers.
// transport may be nil to use the default one.
func NewClient(ctx context.Context, cfg config.ESConfig, transport http.RoundTripper) (*elasticsearch.Client, error) {
	l := logging.FromContext(ctx).With("component", "elasticsearch", "url", cfg.URL)

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.User,
		Password:  cfg.Password,
		Transport: transport,
	})
	if err != nil {
		l.Error("es_client_error", "error", err)
		return nil, fmt.Errorf("elasticsearch: new client: %w", err)
	}

	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		l.Error("es_unreachable", "error", err)
		return nil, fmt.Errorf("elasticsearch: info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		l.Error("es_info_error", "status", res.StatusCode, "body", string(body))
		return nil, fmt.Errorf("elasticsearch: info: %s", res.Status())
	}

	l.Info("es_connected")
	return client, nil
}
