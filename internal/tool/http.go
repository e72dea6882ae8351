package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/mrz1836/foundry/internal/constants"
	"github.com/mrz1836/foundry/internal/domain"
	foundryerrors "github.com/mrz1836/foundry/internal/errors"
)

const userAgent = "foundry-tool/1.0"

// newHTTPClient builds a client whose dialer re-checks resolved addresses.
func newHTTPClient(guard *URLGuard) *http.Client {
	dialer := &net.Dialer{Timeout: 10 * time.Second, Control: guard.Control}
	transport := http.DefaultTransport.(*http.Transport).Clone() //nolint:forcetypeassert // stdlib default is always *http.Transport
	transport.DialContext = dialer.DialContext
	transport.Proxy = nil
	return &http.Client{Transport: transport}
}

// fetch issues one request and reads at most limit bytes of the body.
func (e *Executor) fetch(ctx context.Context, args map[string]string, limit int64) (body string, status int, out outcome) {
	rawURL := args["url"]
	if rawURL == "" {
		return "", 0, outcome{kind: domain.ToolErrorBadArgs, err: fmt.Errorf("url %w", foundryerrors.ErrBadToolArgs)}
	}
	if err := e.guard.Check(rawURL); err != nil {
		return "", 0, failure(err)
	}

	method := strings.ToUpper(strings.TrimSpace(args["method"]))
	if method == "" {
		method = http.MethodGet
	}
	timeout := e.cfg.HTTPTimeout
	if d, ok := parseSeconds(args["timeout"]); ok {
		timeout = d
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reqBody io.Reader
	if b := args["body"]; b != "" {
		reqBody = strings.NewReader(b)
	}
	req, err := http.NewRequestWithContext(reqCtx, method, rawURL, reqBody)
	if err != nil {
		return "", 0, outcome{kind: domain.ToolErrorBadArgs, err: err}
	}
	req.Header.Set("User-Agent", userAgent)
	if h := args["headers"]; h != "" {
		var headers map[string]string
		if err := json.Unmarshal([]byte(h), &headers); err != nil {
			return "", 0, outcome{kind: domain.ToolErrorBadArgs, err: fmt.Errorf("headers must be a JSON object: %w", err)}
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}
	}

	timedOut := func() bool {
		return errors.Is(reqCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil
	}
	timeoutOutcome := func(status int) outcome {
		return outcome{timeout: true, kind: domain.ToolErrorTimeout, statusCode: status,
			err: fmt.Errorf("%s %s: %w", method, rawURL, foundryerrors.ErrToolTimeout)}
	}

	resp, err := e.client.Do(req)
	if err != nil {
		if timedOut() {
			return "", 0, timeoutOutcome(0)
		}
		if errors.Is(err, foundryerrors.ErrUnsafeURL) {
			return "", 0, failure(err)
		}
		return "", 0, outcome{kind: domain.ToolErrorNetwork, err: fmt.Errorf("%w: %w", foundryerrors.ErrNetwork, err)}
	}
	defer func() { _ = resp.Body.Close() }()

	lr := io.LimitedReader{R: resp.Body, N: limit}
	data, err := io.ReadAll(&lr)
	if err != nil {
		// The deadline can also expire while the body is still streaming.
		if timedOut() {
			return string(data), resp.StatusCode, timeoutOutcome(resp.StatusCode)
		}
		return string(data), resp.StatusCode, outcome{kind: domain.ToolErrorNetwork, statusCode: resp.StatusCode, err: fmt.Errorf("%w: %w", foundryerrors.ErrNetwork, err)}
	}
	return string(data), resp.StatusCode, outcome{statusCode: resp.StatusCode}
}

func (e *Executor) httpCall(ctx context.Context, args map[string]string) outcome {
	body, status, out := e.fetch(ctx, args, constants.HTTPBodyMaxBytes)
	if out.err != nil {
		return out
	}
	out.output = body
	if status >= http.StatusBadRequest {
		out.kind = domain.ToolErrorNetwork
		out.err = fmt.Errorf("status %d: %w", status, foundryerrors.ErrNetwork)
	}
	return out
}

// browse fetches a page and returns its visible text, trimmed to the
// browse preview budget.
func (e *Executor) browse(ctx context.Context, args map[string]string) outcome {
	get := map[string]string{"url": args["url"], "timeout": args["timeout"]}
	body, status, out := e.fetch(ctx, get, constants.ToolOutputMaxBytes)
	if out.err != nil {
		return out
	}
	text := body
	if node, err := html.Parse(strings.NewReader(body)); err == nil {
		var b strings.Builder
		extractText(node, &b, false)
		text = compactWhitespace(b.String())
	}
	out.output = truncate(text, constants.BrowsePreviewChars)
	if status >= http.StatusBadRequest {
		out.kind = domain.ToolErrorNetwork
		out.err = fmt.Errorf("status %d: %w", status, foundryerrors.ErrNetwork)
	}
	return out
}

func extractText(n *html.Node, b *strings.Builder, hidden bool) {
	if n.Type == html.ElementNode {
		switch strings.ToLower(n.Data) {
		case "script", "style", "noscript", "template":
			hidden = true
		case "br", "p", "div", "li", "tr", "h1", "h2", "h3", "h4", "section", "article":
			b.WriteString("\n")
		}
	}
	if !hidden && n.Type == html.TextNode {
		b.WriteString(n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		extractText(c, b, hidden)
	}
}

func compactWhitespace(s string) string {
	lines := strings.Split(strings.NewReplacer("\t", " ", "\r", " ").Replace(s), "\n")
	out := lines[:0]
	for _, ln := range lines {
		if ln = strings.Join(strings.Fields(ln), " "); ln != "" {
			out = append(out, ln)
		}
	}
	return strings.Join(out, "\n")
}
