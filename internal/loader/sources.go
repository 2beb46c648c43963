package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/goliatone/go-formengine/pkg/schema"
)

// maxDocumentSize bounds every source; form documents are small.
const maxDocumentSize = 8 << 20

var byteOrderMark = []byte{0xEF, 0xBB, 0xBF}

type fetchFunc func(ctx context.Context, location string) (io.ReadCloser, error)

// Loader implements schema.Loader. Each source kind maps to a fetcher that
// opens the document; reading, size capping and cleanup are shared.
type Loader struct {
	fetchers map[schema.SourceKind]fetchFunc
}

var _ schema.Loader = (*Loader)(nil)

// New constructs a Loader from pre-resolved options. URL sources are only
// served when an HTTP client was supplied or the fallback was enabled.
func New(options schema.LoaderOptions) *Loader {
	l := &Loader{fetchers: map[schema.SourceKind]fetchFunc{
		schema.SourceKindFile: openFile,
		schema.SourceKindFS:   openFS(options.FileSystem),
	}}

	timeout := options.RequestTimeout
	switch {
	case options.HTTPClient != nil:
		clone := *options.HTTPClient
		if timeout > 0 && clone.Timeout == 0 {
			clone.Timeout = timeout
		}
		l.fetchers[schema.SourceKindURL] = openHTTP(&clone, timeout)
	case options.AllowHTTPFallback:
		l.fetchers[schema.SourceKindURL] = openHTTP(&http.Client{Timeout: timeout}, timeout)
	default:
		l.fetchers[schema.SourceKindURL] = func(context.Context, string) (io.ReadCloser, error) {
			return nil, errors.New("http support disabled")
		}
	}
	return l
}

// Load fetches a form document from src. A leading byte order mark is
// dropped and blank payloads are rejected before decoding.
func (l *Loader) Load(ctx context.Context, src schema.Source) (schema.RawDocument, error) {
	if src == nil {
		return schema.RawDocument{}, errors.New("loader: source is nil")
	}
	fetch, ok := l.fetchers[src.Kind()]
	if !ok {
		return schema.RawDocument{}, fmt.Errorf("loader: unsupported source kind %q", src.Kind())
	}
	if err := ctx.Err(); err != nil {
		return schema.RawDocument{}, err
	}

	data, err := read(ctx, fetch, src.Location())
	if err != nil {
		return schema.RawDocument{}, fmt.Errorf("loader: %s: %w", src.Location(), err)
	}
	return schema.NewRawDocument(src, data)
}

func read(ctx context.Context, fetch fetchFunc, location string) ([]byte, error) {
	rc, err := fetch(ctx, location)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rc.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(rc, maxDocumentSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxDocumentSize {
		return nil, fmt.Errorf("document exceeds %d bytes", maxDocumentSize)
	}
	data = bytes.TrimPrefix(data, byteOrderMark)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("document is blank")
	}
	return data, nil
}

func openFile(_ context.Context, path string) (io.ReadCloser, error) {
	if path == "" {
		return nil, errors.New("file path is required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	return os.Open(abs)
}

func openFS(files fs.FS) fetchFunc {
	return func(_ context.Context, name string) (io.ReadCloser, error) {
		if files == nil {
			return nil, errors.New("fs is nil")
		}
		if name == "" {
			return nil, errors.New("fs path is required")
		}
		return files.Open(name)
	}
}

func openHTTP(client *http.Client, timeout time.Duration) fetchFunc {
	return func(ctx context.Context, url string) (io.ReadCloser, error) {
		if url == "" {
			return nil, errors.New("url is required")
		}
		var cancel context.CancelFunc = func() {}
		if timeout > 0 {
			ctx, cancel = context.WithTimeout(ctx, timeout)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			cancel()
			return nil, err
		}
		req.Header.Set("Accept", "application/json, application/yaml;q=0.9, */*;q=0.1")

		resp, err := client.Do(req)
		if err != nil {
			cancel()
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			_ = resp.Body.Close()
			cancel()
			return nil, fmt.Errorf("unexpected status %s", resp.Status)
		}
		return &cancelBody{ReadCloser: resp.Body, cancel: cancel}, nil
	}
}

// cancelBody releases the request timeout once the body is closed.
type cancelBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}
