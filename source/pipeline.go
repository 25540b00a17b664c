package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jrsteele09/go-managed-identity/cache"
	"github.com/jrsteele09/go-managed-identity/credential"
	"github.com/jrsteele09/go-managed-identity/transport"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Pipeline drives the uniform acquisition sequence over any source variant:
// cancellation check, request construction, dispatch (through the response
// cache for the cache-eligible variant), classification and structural
// validation. It holds no per-call state and is safe for concurrent use.
type Pipeline struct {
	sender  transport.Sender
	cache   *cache.ResponseCache
	nowFunc func() time.Time
}

// PipelineOption defines a function type to modify the Pipeline instance.
type PipelineOption func(*Pipeline)

// WithResponseCache sets the cache consulted for cache-eligible sources.
func WithResponseCache(c *cache.ResponseCache) PipelineOption {
	return func(p *Pipeline) {
		p.cache = c
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(now func() time.Time) PipelineOption {
	return func(p *Pipeline) {
		p.nowFunc = now
	}
}

// NewPipeline creates a Pipeline dispatching through sender. A response
// cache is created by default; replace it with WithResponseCache when
// callers share one across pipelines.
func NewPipeline(sender transport.Sender, options ...PipelineOption) (*Pipeline, error) {
	if sender == nil {
		return nil, errors.New("[NewPipeline] sender is required")
	}
	p := &Pipeline{
		sender:  sender,
		cache:   cache.New(),
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(p)
	}
	return p, nil
}

// Authenticate acquires a validated credential payload for resource from
// src. Every failure is one of the three taxonomy kinds; request
// construction errors are contract violations and returned as-is.
func (p *Pipeline) Authenticate(ctx context.Context, src Source, resource string, forceRefresh bool) (payload *credential.SuccessPayload, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("source", string(src.Kind())).Msg("panic while classifying credential response")
			payload = nil
			err = newRequestFailedError(src.Kind(), 0, "unexpected response")
		}
	}()

	if ctxErr := ctx.Err(); ctxErr != nil {
		log.Warn().Str("source", string(src.Kind())).Msg("authentication cancelled before dispatch")
		return nil, newCancelledError(src.Kind(), ctxErr)
	}

	if cacheable, ok := src.(responseCacheable); ok && p.cache != nil {
		return p.cache.GetOrFetch(ctx, cacheable.CacheKey(), forceRefresh, func(ctx context.Context) (*credential.SuccessPayload, error) {
			return p.fetch(ctx, src, resource)
		})
	}
	return p.fetch(ctx, src, resource)
}

// fetch performs one build/send/classify exchange.
func (p *Pipeline) fetch(ctx context.Context, src Source, resource string) (*credential.SuccessPayload, error) {
	req, err := src.BuildRequest(resource)
	if err != nil {
		return nil, errors.Wrap(err, "[Pipeline.Authenticate] build request")
	}

	resp, err := p.sender.Send(ctx, req)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, newCancelledError(src.Kind(), err)
		}
		log.Warn().Err(err).Str("source", string(src.Kind())).Msg("managed identity endpoint unreachable")
		return nil, newUnreachableError(src.Kind(), err)
	}

	if resp.StatusCode == http.StatusOK {
		return p.classifySuccess(src, resp)
	}
	return nil, p.classifyFailure(src, resp)
}

func (p *Pipeline) classifySuccess(src Source, resp *credential.Response) (*credential.SuccessPayload, error) {
	payload, err := decodeSuccess(src, resp.Body)
	if err != nil {
		log.Warn().Err(err).Str("source", string(src.Kind())).Msg("credential response did not decode")
		return nil, newRequestFailedError(src.Kind(), 0, "invalid response")
	}
	if err := payload.Validate(); err != nil {
		log.Warn().Err(err).Str("source", string(src.Kind())).Msg("credential response failed validation")
		return nil, newRequestFailedError(src.Kind(), 0, "invalid response")
	}

	// A relative expires_in counts from the moment the response was
	// received. Resolve it to an absolute instant here, once, so a payload
	// served from the cache later still reports its real expiry.
	if payload.ExpiresOn == 0 {
		payload.ExpiresOn = credential.UnixSeconds(p.nowFunc().Add(time.Duration(payload.ExpiresIn) * time.Second).Unix())
	}
	return payload, nil
}

func (p *Pipeline) classifyFailure(src Source, resp *credential.Response) error {
	errPayload := credential.ParseErrorPayload(resp.Body)
	message := errPayload.Diagnostic()
	if message == "" {
		message = fmt.Sprintf("authentication unavailable, no response received from the %s endpoint", src.Kind())
		if src.Kind() == KindCredentialEndpoint {
			message += "; verify the endpoint issues certificate-bound credentials"
		}
	}

	failure := newRequestFailedError(src.Kind(), resp.StatusCode, message)
	if errPayload != nil {
		failure.CorrelationID = errPayload.CorrelationID
	}
	log.Warn().Int("status", resp.StatusCode).Str("source", string(src.Kind())).Msg("credential request failed")
	return failure
}

func decodeSuccess(src Source, body []byte) (*credential.SuccessPayload, error) {
	if decoder, ok := src.(successDecoder); ok {
		return decoder.DecodeSuccess(body)
	}
	var payload credential.SuccessPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, errors.Wrap(err, "decode success payload")
	}
	return &payload, nil
}
