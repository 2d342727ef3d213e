package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/DioGolang/GoCommon/internal/infra/storage"
	"github.com/DioGolang/GoCommon/pkg/logger"
	"github.com/go-chi/chi/v5/middleware"
)

const IdempotencyKeyHeader = "Idempotency-Key"

type IdempotencyStore interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Del(ctx context.Context, key string) error
}

type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// Idempotency replays the stored response of a request that carried the
// same Idempotency-Key header. A key still being processed gets a 409.
// Requests without the header, and every request while the store is
// unreachable, pass through untouched.
func Idempotency(store IdempotencyStore, ttl time.Duration, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(IdempotencyKeyHeader)
			if key == "" || r.Method == http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}
			lock := "idempotency:" + r.URL.Path + ":" + key
			result := lock + ":response"

			acquired, err := store.SetNX(r.Context(), lock, "processing", ttl)
			if err != nil {
				log.Warn(r.Context(), "Idempotency store unavailable", logger.WithError(err))
				next.ServeHTTP(w, r)
				return
			}
			if !acquired {
				replay(w, r, store, result, log)
				return
			}

			var body bytes.Buffer
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			ww.Tee(&body)
			next.ServeHTTP(ww, r)

			if ww.Status() >= http.StatusInternalServerError {
				if err := store.Del(r.Context(), lock); err != nil {
					log.Error(r.Context(), "Failed to release idempotency key", logger.String("key", key), logger.WithError(err))
				}
				return
			}
			resp, err := json.Marshal(storedResponse{
				Status:      ww.Status(),
				ContentType: w.Header().Get("Content-Type"),
				Body:        body.Bytes(),
			})
			if err == nil {
				err = store.Set(r.Context(), result, resp, ttl)
			}
			if err != nil {
				log.Error(r.Context(), "Failed to store idempotent response", logger.String("key", key), logger.WithError(err))
			}
		})
	}
}

func replay(w http.ResponseWriter, r *http.Request, store IdempotencyStore, key string, log logger.Logger) {
	raw, err := store.Get(r.Context(), key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		http.Error(w, "request with this idempotency key is still in progress", http.StatusConflict)
		return
	}
	var resp storedResponse
	if err == nil {
		err = json.Unmarshal(raw, &resp)
	}
	if err != nil {
		log.Error(r.Context(), "Failed to replay idempotent response", logger.WithError(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if resp.ContentType != "" {
		w.Header().Set("Content-Type", resp.ContentType)
	}
	w.Header().Set("Idempotent-Replayed", "true")
	w.WriteHeader(resp.Status)
	_, _ = w.Write(resp.Body)
}
