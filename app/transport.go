package app

import (
	"net/http"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewTransport is the single outbound HTTP transport, shared by the push
// provider, the mail sender and page-metadata fetches.
func NewTransport(lc fx.Lifecycle, log *zap.Logger) http.RoundTripper {
	return &transport{base: http.DefaultTransport, log: log}
}

type transport struct {
	base http.RoundTripper
	log  *zap.Logger
}

func (tpt *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := tpt.base.RoundTrip(req)
	if err != nil {
		tpt.log.Sugar().Warnw("outbound request failed",
			"method", req.Method, "host", req.URL.Host, "err", err)
	}
	return resp, err
}
