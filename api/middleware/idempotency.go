package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/techcreator/storefront/api/responses"
	pkgerrors "github.com/techcreator/storefront/pkg/errors"
	"github.com/techcreator/storefront/pkg/logger"
	pkgredis "github.com/techcreator/storefront/pkg/redis"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	replayedHeader    = "Idempotent-Replayed"

	defaultIdempotencyTTL  = 24 * time.Hour
	checkoutIdempotencyTTL = 2 * time.Hour
	maxIdempotencyKeyLen   = 200
)

// idempotentRoutes maps "METHOD pattern" to how long a stored response is
// replayed.
var idempotentRoutes = map[string]time.Duration{
	http.MethodPost + " /api/v1/checkout/sessions/{sessionId}/submit":     checkoutIdempotencyTTL,
	http.MethodPost + " /api/v1/contact":                                  defaultIdempotencyTTL,
	http.MethodPost + " /api/admin/v1/orders/{orderId}/deliver-documents": defaultIdempotencyTTL,
}

func routeTTL(method, pattern string) (time.Duration, bool) {
	ttl, ok := idempotentRoutes[method+" "+pattern]
	return ttl, ok
}

// storedResponse is the value kept under an idempotency key. InFlight is
// set while the first request is still running.
type storedResponse struct {
	InFlight    bool   `json:"in_flight,omitempty"`
	Fingerprint string `json:"fingerprint"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

var (
	errKeyInFlight = pkgerrors.New(pkgerrors.CodeIdempotency, "request with this Idempotency-Key is in progress")
	errKeyReused   = pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body")
)

// Idempotency makes the routes in idempotentRoutes safe to retry. The key is
// claimed with SETNX before the handler runs, so a concurrent duplicate gets
// 409 instead of executing twice. A repeat after completion replays the
// stored status and body. 5xx responses release the key.
func Idempotency(store pkgredis.IdempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	g := &idempotencyGuard{store: store, logg: logg}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ttl, ok := routeTTL(r.Method, routePattern(r))
			if !ok || store == nil {
				next.ServeHTTP(w, r)
				return
			}
			g.serve(w, r, next, ttl)
		})
	}
}

type idempotencyGuard struct {
	store pkgredis.IdempotencyStore
	logg  *logger.Logger
}

func (g *idempotencyGuard) serve(w http.ResponseWriter, r *http.Request, next http.Handler, ttl time.Duration) {
	ctx := r.Context()
	id := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
	switch {
	case id == "":
		responses.WriteError(ctx, g.logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required"))
		return
	case len(id) > maxIdempotencyKeyLen:
		responses.WriteError(ctx, g.logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header too long"))
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		responses.WriteError(ctx, g.logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request"))
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	fingerprint := fingerprintOf(body)
	k := g.store.IdempotencyKey(scopeOf(r), id)

	claim, _ := json.Marshal(storedResponse{InFlight: true, Fingerprint: fingerprint})
	won, err := g.store.SetNX(ctx, k, string(claim), ttl)
	if err != nil {
		responses.WriteError(ctx, g.logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim idempotency key"))
		return
	}
	if !won {
		g.replay(ctx, w, k, fingerprint)
		return
	}

	var captured bytes.Buffer
	ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
	ww.Tee(&captured)
	next.ServeHTTP(ww, r)

	status := ww.Status()
	if status == 0 {
		status = http.StatusOK
	}
	if status >= http.StatusInternalServerError {
		if err := g.store.Del(ctx, k); err != nil {
			g.logError(ctx, "idempotency.release_failed", err)
		}
		return
	}

	payload, err := json.Marshal(storedResponse{
		Fingerprint: fingerprint,
		Status:      status,
		ContentType: ww.Header().Get("Content-Type"),
		Body:        captured.Bytes(),
	})
	if err == nil {
		err = g.store.Set(ctx, k, string(payload), ttl)
	}
	if err != nil {
		g.logError(ctx, "idempotency.store_failed", err)
	}
}

func (g *idempotencyGuard) replay(ctx context.Context, w http.ResponseWriter, k, fingerprint string) {
	raw, err := g.store.Get(ctx, k)
	if errors.Is(err, redis.Nil) {
		// Released or expired after our SETNX lost.
		responses.WriteError(ctx, g.logg, w, errKeyInFlight)
		return
	}
	if err != nil {
		responses.WriteError(ctx, g.logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
		return
	}
	var prev storedResponse
	if err := json.Unmarshal([]byte(raw), &prev); err != nil {
		responses.WriteError(ctx, g.logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record"))
		return
	}
	switch {
	case prev.Fingerprint != fingerprint:
		responses.WriteError(ctx, g.logg, w, errKeyReused)
	case prev.InFlight:
		responses.WriteError(ctx, g.logg, w, errKeyInFlight)
	default:
		if prev.ContentType != "" {
			w.Header().Set("Content-Type", prev.ContentType)
		}
		w.Header().Set(replayedHeader, "true")
		status := prev.Status
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		_, _ = w.Write(prev.Body)
	}
}

func (g *idempotencyGuard) logError(ctx context.Context, msg string, err error) {
	if g.logg != nil {
		g.logg.Error(ctx, msg, err)
	}
}

// scopeOf keeps keys from different callers or endpoints apart.
func scopeOf(r *http.Request) string {
	return strings.Join([]string{ActorFromContext(r.Context()), r.Method, r.URL.Path}, "|")
}

func fingerprintOf(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}
