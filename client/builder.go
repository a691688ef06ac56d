// File: client/builder.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Endpoint constructors and the Login sequence: sign, connect, verify
// the status line, unwrap content encoding, start the stream.

package client

import (
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dghubble/oauth1"
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"

	"github.com/momentics/twitterstream/api"
	"github.com/momentics/twitterstream/control"
	"github.com/momentics/twitterstream/core/framing"
	"github.com/momentics/twitterstream/internal/source"
	"github.com/momentics/twitterstream/stream"
)

var logger = loggo.GetLogger("twitterstream.client")

// Standard streaming endpoints.
const (
	endpointFilter   = "https://stream.twitter.com/1.1/statuses/filter.json"
	endpointSample   = "https://stream.twitter.com/1.1/statuses/sample.json"
	endpointFirehose = "https://stream.twitter.com/1.1/statuses/firehose.json"
	endpointUser     = "https://userstream.twitter.com/1.1/user.json"
	endpointSite     = "https://sitestream.twitter.com/1.1/site.json"
)

// Token is one OAuth1 credential pair (consumer or access).
type Token struct {
	Key    string
	Secret string
}

// Builder assembles one streaming connection. Endpoint constructors
// return a builder with defaults; setters chain; Login connects.
type Builder struct {
	method   string
	endpoint string
	consumer Token
	access   Token

	httpClient     *http.Client
	userAgent      string
	idleTimeout    time.Duration
	framing        framing.Mode
	maxMessageSize int
	readBufferSize int
	metrics        *control.Metrics

	// API parameters.
	stallWarnings bool
	filterLevel   FilterLevel
	language      string
	follow        []UserID
	track         string
	locations     []BoundingBox
	count         int
	with          With
	replies       bool
}

// Filter streams messages matching the configured predicates (POST).
func Filter(consumer, access Token) *Builder {
	return Custom(http.MethodPost, endpointFilter, consumer, access)
}

// Sample streams a small random sample of all public messages.
func Sample(consumer, access Token) *Builder {
	return Custom(http.MethodGet, endpointSample, consumer, access)
}

// Firehose streams all public messages (restricted access).
func Firehose(consumer, access Token) *Builder {
	return Custom(http.MethodGet, endpointFirehose, consumer, access)
}

// User streams events for the authenticated user.
func User(consumer, access Token) *Builder {
	return Custom(http.MethodGet, endpointUser, consumer, access)
}

// Site streams events for multiple users (site streams).
func Site(consumer, access Token) *Builder {
	return Custom(http.MethodGet, endpointSite, consumer, access)
}

// Custom targets an arbitrary streaming endpoint.
func Custom(method, endpoint string, consumer, access Token) *Builder {
	return &Builder{
		method:         method,
		endpoint:       endpoint,
		consumer:       consumer,
		access:         access,
		idleTimeout:    90 * time.Second,
		framing:        framing.LineDelimited,
		maxMessageSize: framing.DefaultMaxMessageSize,
		readBufferSize: source.DefaultReadBufferSize,
	}
}

// HTTPClient sets the base client used under the OAuth1 signer.
func (b *Builder) HTTPClient(c *http.Client) *Builder { b.httpClient = c; return b }

// UserAgent sets the User-Agent header.
func (b *Builder) UserAgent(ua string) *Builder { b.userAgent = ua; return b }

// Timeout sets the keep-alive idle threshold (0 disables detection).
func (b *Builder) Timeout(d time.Duration) *Builder { b.idleTimeout = d; return b }

// Framing selects the boundary rule. LengthPrefixed also requests
// delimited=length from the server.
func (b *Builder) Framing(m framing.Mode) *Builder { b.framing = m; return b }

// MaxMessageSize bounds buffer growth per message.
func (b *Builder) MaxMessageSize(n int) *Builder { b.maxMessageSize = n; return b }

// ReadBufferSize tunes the transport read chunk size.
func (b *Builder) ReadBufferSize(n int) *Builder { b.readBufferSize = n; return b }

// Metrics attaches a counter registry to the resulting stream.
func (b *Builder) Metrics(m *control.Metrics) *Builder { b.metrics = m; return b }

// StallWarnings asks the server to send periodic stall warnings.
func (b *Builder) StallWarnings(on bool) *Builder { b.stallWarnings = on; return b }

// FilterLevel sets the minimum filter level of delivered messages.
func (b *Builder) FilterLevel(fl FilterLevel) *Builder { b.filterLevel = fl; return b }

// Language restricts the stream to the given comma-separated languages.
func (b *Builder) Language(lang string) *Builder { b.language = lang; return b }

// Follow restricts the stream to activity of the given users.
func (b *Builder) Follow(ids ...UserID) *Builder { b.follow = ids; return b }

// Track restricts the stream to messages matching the given phrases.
func (b *Builder) Track(phrases string) *Builder { b.track = phrases; return b }

// Locations restricts the stream to the given bounding boxes.
func (b *Builder) Locations(boxes ...BoundingBox) *Builder { b.locations = boxes; return b }

// Count requests backfill of up to n missed messages.
func (b *Builder) Count(n int) *Builder { b.count = n; return b }

// With selects whose activity user/site streams include.
func (b *Builder) With(w With) *Builder { b.with = w; return b }

// Replies requests delivery of all replies, not just mutual ones.
func (b *Builder) Replies(on bool) *Builder { b.replies = on; return b }

// params renders the API query/body parameters.
func (b *Builder) params() url.Values {
	v := url.Values{}
	if b.framing == framing.LengthPrefixed {
		v.Set("delimited", "length")
	}
	if b.stallWarnings {
		v.Set("stall_warnings", "true")
	}
	if b.filterLevel != FilterLevelNone {
		v.Set("filter_level", string(b.filterLevel))
	}
	if b.language != "" {
		v.Set("language", b.language)
	}
	if len(b.follow) > 0 {
		v.Set("follow", joinUserIDs(b.follow))
	}
	if b.track != "" {
		v.Set("track", b.track)
	}
	if len(b.locations) > 0 {
		v.Set("locations", joinLocations(b.locations))
	}
	if b.count != 0 {
		v.Set("count", strconv.Itoa(b.count))
	}
	if b.with != "" {
		v.Set("with", string(b.with))
	}
	if b.replies {
		v.Set("replies", "all")
	}
	return v
}

// Login signs and issues the streaming request and returns the running
// stream. Canceling ctx after Login aborts the underlying connection;
// the stream then surfaces a transport error.
func (b *Builder) Login(ctx context.Context) (*stream.Stream, error) {
	req, err := b.buildRequest(ctx)
	if err != nil {
		return nil, errors.Trace(err)
	}

	oaCtx := ctx
	if b.httpClient != nil {
		oaCtx = context.WithValue(ctx, oauth1.HTTPClient, b.httpClient)
	}
	cfg := oauth1.NewConfig(b.consumer.Key, b.consumer.Secret)
	httpClient := cfg.Client(oaCtx, oauth1.NewToken(b.access.Key, b.access.Secret))

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, errors.Annotate(err, "connecting to streaming endpoint")
	}
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, api.NewError(api.ErrCodeHTTPStatus, "streaming endpoint refused connection").
			WithContext("status", resp.StatusCode).
			WithContext("body", strings.TrimSpace(string(snippet)))
	}

	body := io.ReadCloser(resp.Body)
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, gzErr := gzip.NewReader(resp.Body)
		if gzErr != nil {
			resp.Body.Close()
			return nil, errors.Annotate(gzErr, "initializing gzip decoder")
		}
		body = &gzipBody{Reader: gz, raw: resp.Body}
	}

	logger.Infof("connected to %s (%s framing)", b.endpoint, b.framing)
	return stream.New(source.NewReader(body, b.readBufferSize), stream.Config{
		Framing:        b.framing,
		IdleTimeout:    b.idleTimeout,
		MaxMessageSize: b.maxMessageSize,
		Metrics:        b.metrics,
	}), nil
}

// buildRequest places parameters in the body for POST endpoints and in
// the query string otherwise, the way the API expects them signed.
func (b *Builder) buildRequest(ctx context.Context) (*http.Request, error) {
	v := b.params()

	var req *http.Request
	var err error
	if b.method == http.MethodPost {
		req, err = http.NewRequestWithContext(ctx, b.method, b.endpoint, strings.NewReader(v.Encode()))
		if err != nil {
			return nil, errors.Annotate(err, "building request")
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		u, perr := url.Parse(b.endpoint)
		if perr != nil {
			return nil, errors.Annotate(perr, "parsing endpoint")
		}
		u.RawQuery = v.Encode()
		req, err = http.NewRequestWithContext(ctx, b.method, u.String(), nil)
		if err != nil {
			return nil, errors.Annotate(err, "building request")
		}
	}
	if b.userAgent != "" {
		req.Header.Set("User-Agent", b.userAgent)
	}
	req.Header.Set("Accept-Encoding", "gzip")
	return req, nil
}

// gzipBody closes both the decoder and the raw response body.
type gzipBody struct {
	*gzip.Reader
	raw io.Closer
}

func (g *gzipBody) Close() error {
	err := g.Reader.Close()
	if cerr := g.raw.Close(); err == nil {
		err = cerr
	}
	return err
}
