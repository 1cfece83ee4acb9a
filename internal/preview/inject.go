package preview

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"
)

const (
	scriptTag     = `<script async src="/livereload.js"></script>`
	maxInjectSize = 512 * 1024
)

// injectLiveReload adds the live reload script before </body> of HTML pages.
// Pages larger than maxInjectSize are served unchanged.
func injectLiveReload(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := r.URL.Path
		if p != "" && !strings.HasSuffix(p, "/") && !strings.HasSuffix(p, ".html") {
			next.ServeHTTP(w, r)
			return
		}
		inj := &injector{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(inj, r)
		inj.finalize()
	})
}

// injector buffers an HTML response so the script can be inserted.
type injector struct {
	http.ResponseWriter
	status      int
	buf         bytes.Buffer
	wroteHeader bool
	passthrough bool
}

func (i *injector) WriteHeader(code int) {
	i.status = code
	if i.passthrough {
		i.ResponseWriter.WriteHeader(code)
		i.wroteHeader = true
	}
}

func (i *injector) startPassthrough() {
	i.passthrough = true
	i.ResponseWriter.WriteHeader(i.status)
	i.wroteHeader = true
}

func (i *injector) Write(data []byte) (int, error) {
	if i.passthrough {
		return i.ResponseWriter.Write(data)
	}
	if i.buf.Len() == 0 {
		ct := i.Header().Get("Content-Type")
		if ct != "" && !strings.Contains(ct, "text/html") {
			i.startPassthrough()
			return i.ResponseWriter.Write(data)
		}
	}
	if i.buf.Len()+len(data) > maxInjectSize {
		i.Header().Del("Content-Length")
		i.startPassthrough()
		if _, err := i.ResponseWriter.Write(i.buf.Bytes()); err != nil {
			return 0, err
		}
		i.buf.Reset()
		return i.ResponseWriter.Write(data)
	}
	return i.buf.Write(data)
}

func (i *injector) finalize() {
	if i.passthrough {
		return
	}
	body := i.buf.Bytes()
	if i.status == http.StatusOK {
		if idx := bytes.LastIndex(body, []byte("</body>")); idx >= 0 {
			out := make([]byte, 0, len(body)+len(scriptTag))
			out = append(out, body[:idx]...)
			out = append(out, scriptTag...)
			body = append(out, body[idx:]...)
		}
	}
	i.Header().Set("Content-Length", strconv.Itoa(len(body)))
	if !i.wroteHeader {
		i.ResponseWriter.WriteHeader(i.status)
	}
	_, _ = i.ResponseWriter.Write(body)
}
