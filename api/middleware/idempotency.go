package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/costumerental-backend/api/responses"
	pkgerrors "github.com/angelmondragon/costumerental-backend/pkg/errors"
	"github.com/angelmondragon/costumerental-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/costumerental-backend/pkg/redis"
)

const (
	idempotencyHeader      = "Idempotency-Key"
	idempotencyReplayed    = "Idempotent-Replayed"
	defaultIdempotencyTTL  = 24 * time.Hour
	idempotencyClaimMargin = time.Minute
	maxIdempotencyKeyBytes = 255
)

// storedResponse is what a key maps to in redis. A zero Status marks a
// request that is still being handled.
type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type,omitempty"`
	Body        string `json:"body,omitempty"`
	RequestHash string `json:"request_hash"`
}

func (s storedResponse) pending() bool { return s.Status == 0 }

// IdempotencyGuard claims an Idempotency-Key before the handler runs and
// stores the 2xx response under it. A key whose claim is still held answers
// 409; a key reused with a different body answers 409 with
// IDEMPOTENCY_KEY_REUSED. Failed responses release the claim so the request
// can be corrected and resent.
//
// The claim must outlive the handler, otherwise a retry slips past it and
// repeats the work. By default it lives as long as the stored response.
type IdempotencyGuard struct {
	store    pkgredis.IdempotencyStore
	ttl      time.Duration
	claimTTL time.Duration
	logg     *logger.Logger
}

func Idempotency(store pkgredis.IdempotencyStore, ttl time.Duration, logg *logger.Logger) *IdempotencyGuard {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	return &IdempotencyGuard{store: store, ttl: ttl, claimTTL: ttl, logg: logg}
}

// BoundClaims shortens the claim to maxRequest plus a margin when guarded
// handlers are known to finish within maxRequest, so a claim orphaned by a
// crashed process frees up sooner. Zero keeps the record TTL.
func (g *IdempotencyGuard) BoundClaims(maxRequest time.Duration) *IdempotencyGuard {
	if maxRequest <= 0 {
		return g
	}
	if claim := maxRequest + idempotencyClaimMargin; claim < g.ttl {
		g.claimTTL = claim
	}
	return g
}

// Optional guards the route only when the caller sends a key.
func (g *IdempotencyGuard) Optional(next http.Handler) http.Handler {
	return g.handler(next, false)
}

// Required rejects requests without a key. Used for batch checkout, where a
// blind retry would issue every rental again.
func (g *IdempotencyGuard) Required(next http.Handler) http.Handler {
	return g.handler(next, true)
}

func (g *IdempotencyGuard) handler(next http.Handler, required bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if g == nil || g.store == nil {
			next.ServeHTTP(w, r)
			return
		}

		clientKey := strings.TrimSpace(r.Header.Get(idempotencyHeader))
		switch {
		case clientKey == "" && !required:
			next.ServeHTTP(w, r)
			return
		case clientKey == "":
			responses.WriteError(ctx, g.logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required"))
			return
		case len(clientKey) > maxIdempotencyKeyBytes:
			responses.WriteError(ctx, g.logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key is too long"))
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, g.logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unreadable request body"))
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		hash := hashBody(body)
		key := g.store.IdempotencyKey(requestScope(r), clientKey)

		claimed, err := g.claim(ctx, key, hash)
		if err != nil {
			responses.WriteError(ctx, g.logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "idempotency store unavailable"))
			return
		}
		if !claimed {
			g.answerExisting(w, r, key, hash)
			return
		}

		capture := &responseCapture{ResponseWriter: w}
		completed := false
		defer func() {
			if !completed {
				g.release(ctx, key)
			}
		}()
		next.ServeHTTP(capture, r)

		status := capture.statusCode()
		if status < 200 || status >= 300 {
			return
		}
		completed = true
		g.persist(ctx, key, storedResponse{
			Status:      status,
			ContentType: capture.Header().Get("Content-Type"),
			Body:        base64.StdEncoding.EncodeToString(capture.body.Bytes()),
			RequestHash: hash,
		})
	})
}

func (g *IdempotencyGuard) claim(ctx context.Context, key, hash string) (bool, error) {
	marker, err := json.Marshal(storedResponse{RequestHash: hash})
	if err != nil {
		return false, err
	}
	return g.store.SetNX(ctx, key, string(marker), g.claimTTL)
}

func (g *IdempotencyGuard) answerExisting(w http.ResponseWriter, r *http.Request, key, hash string) {
	ctx := r.Context()
	raw, err := g.store.Get(ctx, key)
	if err != nil {
		if pkgredis.IsNil(err) {
			// The previous holder released between our claim and read.
			responses.WriteError(ctx, g.logg, w, pkgerrors.New(pkgerrors.CodeConflict, "request with this Idempotency-Key is in progress, retry"))
			return
		}
		responses.WriteError(ctx, g.logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "idempotency store unavailable"))
		return
	}

	var stored storedResponse
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		responses.WriteError(ctx, g.logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "corrupt idempotency record"))
		return
	}
	switch {
	case stored.RequestHash != hash:
		responses.WriteError(ctx, g.logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
	case stored.pending():
		responses.WriteError(ctx, g.logg, w, pkgerrors.New(pkgerrors.CodeConflict, "request with this Idempotency-Key is in progress, retry"))
	default:
		replay(w, stored)
	}
}

// persist overwrites the pending marker. Del then SetNX keeps the store
// interface narrow; the window between them only risks a duplicate 409.
func (g *IdempotencyGuard) persist(ctx context.Context, key string, record storedResponse) {
	payload, err := json.Marshal(record)
	if err != nil {
		g.logFailure(ctx, "marshal idempotency record", err)
		return
	}
	if err := g.store.Del(ctx, key); err != nil {
		g.logFailure(ctx, "clear idempotency claim", err)
		return
	}
	if _, err := g.store.SetNX(ctx, key, string(payload), g.ttl); err != nil {
		g.logFailure(ctx, "persist idempotency record", err)
	}
}

func (g *IdempotencyGuard) release(ctx context.Context, key string) {
	if err := g.store.Del(context.WithoutCancel(ctx), key); err != nil {
		g.logFailure(ctx, "release idempotency claim", err)
	}
}

func (g *IdempotencyGuard) logFailure(ctx context.Context, msg string, err error) {
	if g.logg != nil {
		g.logg.Error(ctx, msg, err)
	}
}

func replay(w http.ResponseWriter, stored storedResponse) {
	body, err := base64.StdEncoding.DecodeString(stored.Body)
	if err != nil {
		body = nil
	}
	if stored.ContentType != "" {
		w.Header().Set("Content-Type", stored.ContentType)
	}
	w.Header().Set(idempotencyReplayed, "true")
	w.WriteHeader(stored.Status)
	_, _ = w.Write(body)
}

// requestScope keeps keys from colliding across staff members and endpoints.
func requestScope(r *http.Request) string {
	return StaffIDFromContext(r.Context()) + "|" + r.Method + "|" + r.URL.Path
}

func hashBody(payload []byte) string {
	sum := sha256.Sum256(payload)
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (c *responseCapture) statusCode() int {
	if c.status == 0 {
		return http.StatusOK
	}
	return c.status
}

func (c *responseCapture) WriteHeader(code int) {
	if c.status == 0 {
		c.status = code
	}
	c.ResponseWriter.WriteHeader(code)
}

func (c *responseCapture) Write(b []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}
