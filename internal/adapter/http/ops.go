package http

import (
	"context"
	"net/http"
)

// NewOpsHandler serves /metrics and /healthz for the operations listener.
// ping is consulted on every health check; a nil metrics handler leaves
// /metrics unregistered.
func NewOpsHandler(metrics http.Handler, ping func(ctx context.Context) error) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			if err := ping(r.Context()); err != nil {
				http.Error(w, err.Error()+"\n", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}

	return mux
}
