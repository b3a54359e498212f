package httpapi

import (
	"bytes"
	"log"
	"net/http"
	"time"

	"mcq-app/internal/quiz"
)

const maxLoggedErrorBytes = 512

func NewRouter(service *quiz.Service) http.Handler {
	api := NewAPI(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/generate", api.HandleGenerate)
	mux.HandleFunc("/session", api.HandleSession)
	mux.HandleFunc("/session/answers", api.HandleAnswers)
	mux.HandleFunc("/session/next", api.HandleNext)
	mux.HandleFunc("/session/previous", api.HandlePrevious)
	mux.HandleFunc("/session/restart", api.HandleRestart)
	mux.HandleFunc("/session/reset", api.HandleReset)
	mux.HandleFunc("/session/export", api.HandleExport)
	mux.HandleFunc("/history", api.HandleHistory)
	mux.HandleFunc("/history/stats", api.HandleStats)

	return logRequests(mux)
}

// statusRecorder captures the status code and, for error responses, the
// first maxLogBytes of the body.
type statusRecorder struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
	maxLogBytes  int
	logBody      bytes.Buffer
	truncated    bool
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	if room := r.maxLogBytes - r.logBody.Len(); room > 0 {
		if len(p) > room {
			r.logBody.Write(p[:room])
			r.truncated = true
		} else {
			r.logBody.Write(p)
		}
	} else if len(p) > 0 {
		r.truncated = true
	}

	n, err := r.ResponseWriter.Write(p)
	r.bytesWritten += n
	return n, err
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
			maxLogBytes:    maxLoggedErrorBytes,
		}

		next.ServeHTTP(recorder, r)

		if recorder.statusCode >= http.StatusBadRequest {
			body := bytes.TrimSpace(recorder.logBody.Bytes())
			suffix := ""
			if recorder.truncated {
				suffix = "..."
			}
			log.Printf("%s %s -> %d in %s: %s%s", r.Method, r.URL.Path, recorder.statusCode, time.Since(started).Round(time.Millisecond), body, suffix)
			return
		}
		log.Printf("%s %s -> %d (%d bytes) in %s", r.Method, r.URL.Path, recorder.statusCode, recorder.bytesWritten, time.Since(started).Round(time.Millisecond))
	})
}
