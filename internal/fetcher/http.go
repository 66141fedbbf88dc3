package fetcher

import (
	"context"
	"crypto/tls"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"github.com/rotisserie/eris"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"courtscrape/internal/config"
)

var tracer = otel.Tracer("courtscrape/fetcher")

// HTTPFetcher downloads pages with plain GET requests. Transient failures
// (transport errors, 429 and 5xx) are retried with exponential backoff, and
// requests to one host share a rate limiter.
type HTTPFetcher struct {
	cfg      config.HTTPConfig
	secure   *resty.Client
	insecure *resty.Client

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewHTTPFetcher builds the secure and the certificate-skipping clients.
func NewHTTPFetcher(cfg config.HTTPConfig) (*HTTPFetcher, error) {
	f := &HTTPFetcher{cfg: cfg, limiters: map[string]*rate.Limiter{}}

	var err error
	if f.secure, err = f.newClient(false); err != nil {
		return nil, err
	}
	if f.insecure, err = f.newClient(true); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *HTTPFetcher) newClient(insecure bool) (*resty.Client, error) {
	client := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: cookie jar")
	}
	client.SetCookieJar(jar)

	transport, err := client.Transport()
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: http transport")
	}
	if f.cfg.CloudflareBypass {
		// The bypass installs its own TLS config on transport, so the
		// verification override below has to come after it.
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(transport)
	}
	if insecure {
		if transport.TLSClientConfig == nil {
			transport.TLSClientConfig = &tls.Config{}
		}
		transport.TLSClientConfig.InsecureSkipVerify = true //nolint:gosec // opted into per site
	}

	if f.cfg.UserAgent != "" {
		client.SetHeader("user-agent", f.cfg.UserAgent)
	}
	if f.cfg.Timeout > 0 {
		client.SetTimeout(f.cfg.Timeout)
	}

	client.
		SetRetryCount(f.cfg.Retries).
		SetRetryWaitTime(f.cfg.RetryWait).
		SetRetryMaxWaitTime(f.cfg.MaxRetryWait).
		AddRetryCondition(func(res *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			code := res.StatusCode()
			return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
		})

	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return f.wait(req.Context(), req.URL)
	})

	return client, nil
}

// wait blocks on the limiter for rawURL's host.
func (f *HTTPFetcher) wait(ctx context.Context, rawURL string) error {
	if f.cfg.RateLimit <= 0 {
		return nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}

	f.mu.Lock()
	lim, ok := f.limiters[u.Host]
	if !ok {
		burst := f.cfg.Burst
		if burst < 1 {
			burst = 1
		}
		lim = rate.NewLimiter(rate.Limit(f.cfg.RateLimit), burst)
		f.limiters[u.Host] = lim
	}
	f.mu.Unlock()

	return lim.Wait(ctx)
}

// Fetch implements Downloader.
func (f *HTTPFetcher) Fetch(ctx context.Context, req Request) (*Result, error) {
	ctx, span := tracer.Start(ctx, "HTTPFetcher.Fetch")
	defer span.End()
	span.SetAttributes(
		attribute.String("court_id", req.CourtID),
		attribute.String("url", req.URL),
		attribute.Bool("insecure", req.InsecureSkipVerify),
	)

	client := f.secure
	if req.InsecureSkipVerify {
		client = f.insecure
	}

	start := time.Now()
	res, err := client.R().
		SetContext(ctx).
		SetHeaders(req.Headers).
		Get(req.URL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return nil, &NetworkError{URL: req.URL, Err: err}
	}

	finalURL := req.URL
	if res.RawResponse != nil && res.RawResponse.Request != nil {
		finalURL = res.RawResponse.Request.URL.String()
	}
	span.SetAttributes(attribute.Int("status", res.StatusCode()))

	zap.L().Debug("fetched",
		zap.String("url", finalURL),
		zap.Int("status", res.StatusCode()),
		zap.Duration("elapsed", time.Since(start)),
	)

	if code := res.StatusCode(); code < 200 || code > 299 {
		span.SetStatus(codes.Error, "unexpected status")
		return nil, &HTTPError{URL: finalURL, StatusCode: code}
	}

	return newResult(res.StatusCode(), finalURL, res.Header().Get("Content-Type"), res.Body())
}
