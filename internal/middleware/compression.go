package middleware

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
)

// Supported content codings, in order of preference.
const (
	EncodingBrotli = "br"
	EncodingGzip   = "gzip"
)

// CompressionConfig holds configuration for the compression middleware
type CompressionConfig struct {
	// MinSize is the minimum response size in bytes before compression is applied
	MinSize int
	// CompressibleTypes is a list of media types that should be compressed
	CompressibleTypes []string
}

// DefaultCompressionConfig covers the widget's HTML list, JSON API and cached feed XML
func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		MinSize: 1024,
		CompressibleTypes: []string{
			"text/html",
			"text/plain",
			"text/xml",
			"application/json",
			"application/xml",
			"application/atom+xml",
		},
	}
}

type encoder interface {
	io.WriteCloser
	Flush() error
	Reset(io.Writer)
}

var encoderPools = map[string]*sync.Pool{
	EncodingBrotli: {New: func() interface{} {
		return brotli.NewWriterLevel(io.Discard, brotli.DefaultCompression)
	}},
	EncodingGzip: {New: func() interface{} {
		w, _ := gzip.NewWriterLevel(io.Discard, gzip.DefaultCompression)
		return w
	}},
}

// NegotiateEncoding picks the preferred coding the client accepts, or "" for identity
func NegotiateEncoding(acceptEncoding string) string {
	accepted := make(map[string]bool)
	wildcard := false

	for _, part := range strings.Split(acceptEncoding, ",") {
		fields := strings.Split(part, ";")
		coding := strings.ToLower(strings.TrimSpace(fields[0]))
		if coding == "" {
			continue
		}

		q := 1.0
		for _, param := range fields[1:] {
			param = strings.TrimSpace(param)
			if v, ok := strings.CutPrefix(param, "q="); ok {
				if parsed, err := strconv.ParseFloat(v, 64); err == nil {
					q = parsed
				}
			}
		}

		if coding == "*" {
			wildcard = q > 0
			continue
		}
		accepted[coding] = q > 0
	}

	for _, coding := range []string{EncodingBrotli, EncodingGzip} {
		ok, listed := accepted[coding]
		if ok || (!listed && wildcard) {
			return coding
		}
	}
	return ""
}

// compressResponseWriter buffers up to MinSize bytes before deciding whether to encode
type compressResponseWriter struct {
	http.ResponseWriter
	encoding       string
	encoder        encoder
	config         CompressionConfig
	buffer         []byte
	statusCode     int
	decided        bool
	shouldCompress bool
}

func newCompressResponseWriter(w http.ResponseWriter, encoding string, config CompressionConfig) *compressResponseWriter {
	return &compressResponseWriter{
		ResponseWriter: w,
		encoding:       encoding,
		config:         config,
		statusCode:     http.StatusOK,
		buffer:         make([]byte, 0, config.MinSize+1),
	}
}

// WriteHeader captures the status code until the encoding decision is made
func (c *compressResponseWriter) WriteHeader(statusCode int) {
	if c.decided {
		return
	}
	c.statusCode = statusCode
}

func (c *compressResponseWriter) Write(data []byte) (int, error) {
	if c.decided {
		if c.shouldCompress {
			return c.encoder.Write(data)
		}
		return c.ResponseWriter.Write(data)
	}

	c.buffer = append(c.buffer, data...)
	if len(c.buffer) > c.config.MinSize {
		if err := c.finalize(); err != nil {
			return 0, err
		}
	}
	return len(data), nil
}

func (c *compressResponseWriter) compressibleType() bool {
	contentType := c.Header().Get("Content-Type")
	if contentType == "" {
		return false
	}

	mediaType := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	for _, compressible := range c.config.CompressibleTypes {
		if mediaType == compressible {
			return true
		}
	}
	return false
}

func (c *compressResponseWriter) finalize() error {
	if c.decided {
		return nil
	}
	c.decided = true

	c.shouldCompress = len(c.buffer) >= c.config.MinSize &&
		c.compressibleType() &&
		c.Header().Get("Content-Encoding") == "" &&
		bodyAllowed(c.statusCode)

	buffered := c.buffer
	c.buffer = nil

	if !c.shouldCompress {
		c.ResponseWriter.WriteHeader(c.statusCode)
		_, err := c.ResponseWriter.Write(buffered)
		return err
	}

	c.Header().Del("Content-Length")
	c.Header().Set("Content-Encoding", c.encoding)
	c.Header().Add("Vary", "Accept-Encoding")

	c.encoder = encoderPools[c.encoding].Get().(encoder)
	c.encoder.Reset(c.ResponseWriter)

	c.ResponseWriter.WriteHeader(c.statusCode)
	_, err := c.encoder.Write(buffered)
	return err
}

// Close flushes any buffered body and returns the encoder to its pool
func (c *compressResponseWriter) Close() error {
	if err := c.finalize(); err != nil {
		return err
	}
	if c.encoder == nil {
		return nil
	}

	err := c.encoder.Close()
	encoderPools[c.encoding].Put(c.encoder)
	c.encoder = nil
	return err
}

// Flush implements http.Flusher
func (c *compressResponseWriter) Flush() {
	_ = c.finalize()
	if c.encoder != nil {
		_ = c.encoder.Flush()
	}
	if flusher, ok := c.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func bodyAllowed(status int) bool {
	return status != http.StatusNoContent && status != http.StatusNotModified && status >= 200
}

// Compression returns a middleware that encodes responses with brotli or gzip
func Compression(config CompressionConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}

			encoding := NegotiateEncoding(r.Header.Get("Accept-Encoding"))
			if encoding == "" {
				next.ServeHTTP(w, r)
				return
			}

			cw := newCompressResponseWriter(w, encoding, config)
			defer cw.Close()

			next.ServeHTTP(cw, r)
		})
	}
}
