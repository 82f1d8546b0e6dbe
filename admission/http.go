package admission

import (
	"context"
	"errors"
	"net/http"
)

// HTTPMiddleware wraps next with the gate. Rejected requests get the
// configured status, headers and reason as a plain-text body, and the
// connection is closed after the response.
func HTTPMiddleware(g *Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			req := &httpRequest{w: w, r: r}
			g.Handle(r.Context(), req, func(ctx context.Context) {
				next.ServeHTTP(w, r.WithContext(ctx))
			})
		})
	}
}

type httpRequest struct {
	w         http.ResponseWriter
	r         *http.Request
	responded bool
}

func (h *httpRequest) Respond(_ context.Context, rej Rejection) error {
	hdr := h.w.Header()
	for k, v := range rej.Headers {
		hdr.Set(k, v)
	}
	hdr.Set("Content-Type", "text/plain; charset=utf-8")
	hdr.Set("Connection", "close")
	h.w.WriteHeader(rej.StatusCode)
	h.responded = true
	if h.r.Method == http.MethodHead {
		return nil
	}
	_, err := h.w.Write([]byte(rej.Reason))
	return err
}

// EndSession flushes the reply. The Connection: close header set by Respond
// makes the server drop the connection once the handler returns.
func (h *httpRequest) EndSession(_ context.Context) error {
	if !h.responded {
		h.w.Header().Set("Connection", "close")
	}
	err := http.NewResponseController(h.w).Flush()
	if errors.Is(err, http.ErrNotSupported) {
		return nil
	}
	return err
}
