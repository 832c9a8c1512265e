package routing

import (
	"log"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/zeptools/gw-contracts/rw"
)

// RecoverWrapper turns a handler panic into a 500 and logs the stack.
var RecoverWrapper = WrapperFunc(func(inner http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.Printf("[PANIC] recovered: %v\n%s", rec, debug.Stack())
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
		}()
		inner.ServeHTTP(w, r)
	})
})

// AccessLogWrapper logs method, path, status, body bytes and duration per request.
var AccessLogWrapper = WrapperFunc(func(inner http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := rw.NewResponseRecorder(w)
		inner.ServeHTTP(rec, r)
		log.Printf("[INFO][HTTP] %s %s %d %dB %v", r.Method, r.URL.Path, rec.Status(), rec.BytesWritten(), time.Since(start).Round(time.Microsecond))
	})
})
