package http

import (
	"errors"
	"net/http"
	"strconv"

	"bilancio/internal/core"
	"bilancio/internal/report"
)

// today is the default date of the add-transaction forms.
func (s *Server) today() string {
	return s.now().Format(core.DateLayout)
}

// writePNG sends a rendered chart. A chart with nothing to plot is a 404 so
// the page can simply omit the image.
func (s *Server) writePNG(w http.ResponseWriter, r *http.Request, png []byte, err error) {
	if errors.Is(err, report.ErrNoChartData) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.fail(w, r, err, "/")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
