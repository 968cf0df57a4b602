package elevd

import (
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	ghandlers "github.com/gorilla/handlers"
)

func permissiveCorsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Add("Access-Control-Allow-Headers", "Origin, X-Requested-With, Content-Type, Accept")
		next.ServeHTTP(w, r)
	})
}

func contentTypeMiddlewareFunc(contentType string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", contentType)
			next.ServeHTTP(w, r)
		})
	}
}

func recoveryMiddleware(next http.Handler) http.Handler {
	return ghandlers.RecoveryHandler(
		ghandlers.RecoveryLogger(slogRecoveryLogger{}),
		ghandlers.PrintRecoveryStack(true),
	)(next)
}

type slogRecoveryLogger struct{}

func (slogRecoveryLogger) Println(v ...interface{}) {
	slog.Error("Recovered from panic", "panic", v)
}

// remoteHost is the client address, with any X-Forwarded-For hops appended.
func remoteHost(req *http.Request) string {
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		host = req.RemoteAddr
	}
	hops := req.Header.Values("X-Forwarded-For")
	if len(hops) == 0 {
		return host
	}
	return host + "->" + strings.Join(hops, "->")
}

func (d *WebDaemon) writeLog(_ io.Writer, params ghandlers.LogFormatterParams) {
	uri := params.Request.RequestURI
	if uri == "" {
		uri = params.URL.RequestURI()
	}
	d.logger.Info("HTTP",
		"remote", remoteHost(params.Request),
		"method", params.Request.Method,
		"uri", uri,
		"status", params.StatusCode,
		"size", humanize.Bytes(uint64(params.Size)),
		"took", time.Since(params.TimeStamp).Round(time.Millisecond),
	)
}

func (d *WebDaemon) loggingMiddleware(next http.Handler) http.Handler {
	return ghandlers.CustomLoggingHandler(io.Discard, next, d.writeLog)
}
