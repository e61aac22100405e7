package profiles

import (
	"context"
	"fmt"
	"time"

	"TradeMirror/internal/domain/models"
	"TradeMirror/pkg/config"
	xhttp "TradeMirror/pkg/http"
)

// HTTPSource fetches reference profiles from a remote profile service and
// falls back to the built-in set when the service is unreachable.
type HTTPSource struct {
	baseURL  string
	client   *xhttp.Client
	fallback *StaticSource
}

func NewHTTPSource(cfg *config.Config) *HTTPSource {
	timeout := cfg.Profiles.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &HTTPSource{
		baseURL:  cfg.Profiles.ServiceURL,
		client:   xhttp.NewClient(xhttp.WithTimeout(timeout)),
		fallback: NewStaticSource(),
	}
}

type profilesResp struct {
	Profiles []models.ReferenceProfile `json:"profiles"`
}

func (s *HTTPSource) Profiles(ctx context.Context) ([]models.ReferenceProfile, error) {
	if s.baseURL == "" {
		return s.fallback.Profiles(ctx)
	}
	var pr profilesResp
	err := s.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    s.baseURL + "/profiles",
	}, &pr)
	if err != nil || len(pr.Profiles) == 0 {
		return s.fallback.Profiles(ctx)
	}
	return pr.Profiles, nil
}

func (s *HTTPSource) Vector(ctx context.Context, name string) (models.StyleVector, error) {
	ps, err := s.Profiles(ctx)
	if err != nil {
		return models.StyleVector{}, err
	}
	for _, p := range ps {
		if p.Name == name {
			return p.Vector, nil
		}
	}
	return models.StyleVector{}, fmt.Errorf("unknown reference profile %q", name)
}
