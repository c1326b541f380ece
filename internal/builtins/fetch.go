package builtins

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/jstime-go/jstime/internal/core"
	"github.com/jstime-go/jstime/internal/engine"
)

// forbiddenFetchHeaders lists request headers a script may not set directly,
// matching the Fetch spec's forbidden header name list for the subset this
// runtime's fetch cares about. Grounded on the teacher's
// internal/webapi/fetch.go ForbiddenFetchHeaders.
var forbiddenFetchHeaders = map[string]bool{
	"host": true, "connection": true, "content-length": true,
	"transfer-encoding": true, "upgrade": true, "te": true, "trailer": true,
}

const (
	defaultFetchTimeout   = 30 * time.Second
	defaultMaxRedirects   = 20
	defaultMaxRespBytes   = 64 << 20
)

// fetchGroup installs the global fetch() function against a real net/http
// client. Grounded on the teacher's internal/webapi/fetch.go (the
// __fetchStart/goroutine/channel/__fetchResolve-__fetchReject pattern), with
// the multi-tenant SSRF dialer dropped per SPEC_FULL.md's fetch host adapter
// decision — this is a single-user CLI runtime, not a hosted platform
// fetching on behalf of untrusted tenants — while keeping the generically
// correct hygiene: a redirect cap and the forbidden request header list.
type fetchGroup struct {
	client     *http.Client
	maxBytes   int64
	nextID     atomic.Int64
}

// NewFetch returns the fetch builtin group.
func NewFetch() engine.BindingGroup {
	return &fetchGroup{
		client: &http.Client{
			Timeout: defaultFetchTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= defaultMaxRedirects {
					return fmt.Errorf("stopped after %d redirects", defaultMaxRedirects)
				}
				return nil
			},
		},
		maxBytes: defaultMaxRespBytes,
	}
}

type fetchArgs struct {
	Method  string            `json:"method"`
	Headers map[string]string `json:"headers"`
	Body    string            `json:"body"`
}

func (g *fetchGroup) Name() string { return "fetch" }

func (g *fetchGroup) Register(rt *engine.Runtime) error {
	if err := engine.RegisterFunc(rt, "__fetchStart", func(urlStr, argsJSON string) (string, error) {
		var args fetchArgs
		if argsJSON != "" {
			if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
				return "", fmt.Errorf("invalid fetch arguments: %w", err)
			}
		}
		if args.Method == "" {
			args.Method = "GET"
		}

		id := fmt.Sprintf("%d", g.nextID.Add(1))
		ctx, cancel := context.WithTimeout(context.Background(), defaultFetchTimeout)

		var body io.Reader
		if args.Body != "" {
			body = strings.NewReader(args.Body)
		}
		req, err := http.NewRequestWithContext(ctx, args.Method, urlStr, body)
		if err != nil {
			cancel()
			return "", fmt.Errorf("building request: %w", err)
		}
		for k, v := range args.Headers {
			if forbiddenFetchHeaders[strings.ToLower(k)] {
				continue
			}
			req.Header.Set(k, v)
		}

		resultCh := make(chan core.FetchResult, 1)
		rt.State.AddPendingFetch(&core.FetchRequest{ID: id, ResultCh: resultCh, Cancel: cancel})

		go func() {
			defer cancel()
			resp, err := g.client.Do(req)
			if err != nil {
				resultCh <- core.FetchResult{Err: err}
				close(resultCh)
				return
			}
			defer resp.Body.Close()

			reader := decompressingReader(resp)
			data, err := io.ReadAll(io.LimitReader(reader, g.maxBytes+1))
			if err != nil {
				resultCh <- core.FetchResult{Err: err}
				close(resultCh)
				return
			}
			if int64(len(data)) > g.maxBytes {
				resultCh <- core.FetchResult{Err: fmt.Errorf("response body exceeds %d byte limit", g.maxBytes)}
				close(resultCh)
				return
			}

			headers := map[string]string{}
			for k := range resp.Header {
				headers[k] = resp.Header.Get(k)
			}
			headersJSON, _ := json.Marshal(headers)

			resultCh <- core.FetchResult{
				Status:      resp.StatusCode,
				StatusText:  http.StatusText(resp.StatusCode),
				HeadersJSON: string(headersJSON),
				Body:        data,
				Redirected:  resp.Request.URL.String() != urlStr,
				FinalURL:    resp.Request.URL.String(),
			}
			close(resultCh)
		}()

		return id, nil
	}); err != nil {
		return err
	}

	if err := engine.RegisterFunc(rt, "__fetchAbort", func(id string) {
		for _, f := range rt.State.PendingFetches() {
			if f.ID == id && f.Cancel != nil {
				f.Cancel()
			}
		}
	}); err != nil {
		return err
	}

	_, err := rt.Ctx.RunScript(fetchJS, "fetch.js")
	return err
}

// decompressingReader wraps resp.Body to transparently undo
// Content-Encoding: br. gzip is undone by net/http's transport only when the
// transport added the Accept-Encoding header itself (the script set none);
// deflate and any other encoding pass through undecoded. Grounded on the teacher's
// internal/webapi/compression.go's use of andybalholm/brotli, narrowed from
// a full CompressionStream/DecompressionStream JS API (which this spec does
// not call for) down to just what fetch needs.
func decompressingReader(resp *http.Response) io.Reader {
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "br") {
		return brotli.NewReader(resp.Body)
	}
	return resp.Body
}

const fetchJS = `
(function() {

globalThis.__fetchPromises = globalThis.__fetchPromises || {};

function bodyToString(body) {
	if (body === undefined || body === null) return '';
	if (typeof body === 'string') return body;
	if (body instanceof URLSearchParams) return body.toString();
	if (body instanceof ArrayBuffer) return new TextDecoder().decode(body);
	if (ArrayBuffer.isView(body)) return new TextDecoder().decode(body.buffer.slice(body.byteOffset, body.byteOffset + body.byteLength));
	return String(body);
}

globalThis.fetch = function(input, init) {
	init = init || {};
	let url, method, headers, body, signal;
	if (input instanceof Request) {
		url = input.url; method = input.method; headers = input.headers; body = input._body; signal = input.signal;
	} else {
		url = String(input);
		method = (init.method || 'GET').toUpperCase();
		headers = new Headers(init.headers);
		body = init.body;
	}
	if (init.method) method = init.method.toUpperCase();
	if (init.headers) headers = new Headers(init.headers);
	if (init.body !== undefined) body = init.body;
	signal = init.signal || signal;

	const headerObj = {};
	headers.forEach((v, k) => { headerObj[k] = v; });
	const argsJSON = JSON.stringify({ method, headers: headerObj, body: bodyToString(body) });

	return new Promise((resolve, reject) => {
		let fetchID;
		try {
			fetchID = __fetchStart(url, argsJSON);
		} catch (e) {
			reject(e);
			return;
		}
		globalThis.__fetchPromises[fetchID] = { resolve, reject };
		if (signal) {
			if (signal.aborted) { __fetchAbort(fetchID); reject(signal.reason); return; }
			signal.addEventListener('abort', () => __fetchAbort(fetchID));
		}
	});
};

globalThis.__fetchResolve = function(fetchID, status, statusText, headersJSON, bodyB64, redirected, finalURL) {
	const entry = globalThis.__fetchPromises[fetchID];
	if (!entry) return;
	delete globalThis.__fetchPromises[fetchID];
	const headers = JSON.parse(headersJSON || '{}');
	const contentType = (headers['Content-Type'] || headers['content-type'] || '').toLowerCase();
	const bin = atob(bodyB64);
	const bytes = new Uint8Array(bin.length);
	for (let i = 0; i < bin.length; i++) bytes[i] = bin.charCodeAt(i);
	let respBody;
	if (contentType.indexOf('text/') === 0 || contentType.indexOf('application/json') === 0 ||
		contentType.indexOf('application/xml') === 0 || contentType.indexOf('application/javascript') === 0 ||
		contentType.indexOf('application/x-www-form-urlencoded') === 0) {
		respBody = new TextDecoder().decode(bytes);
	} else {
		respBody = bytes.buffer;
	}
	entry.resolve(new Response(respBody, { status, statusText, headers, url: finalURL, redirected }));
};

globalThis.__fetchReject = function(fetchID, errMsg) {
	const entry = globalThis.__fetchPromises[fetchID];
	if (!entry) return;
	delete globalThis.__fetchPromises[fetchID];
	entry.reject(new TypeError(errMsg));
};

})();
`
