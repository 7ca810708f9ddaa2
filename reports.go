package grabber

import (
	"net/http"

	"github.com/foomo/grabber/reports"
)

// GetReportHandler serves the text reports over the complete and the running
// status of a grabber below basePath.
func GetReportHandler(basePath string, g *Grabber) http.HandlerFunc {
	handler := reports.GetReportHandler(basePath)
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == basePath || r.URL.Path == basePath+"/" {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(reports.GetReportHandlerMenuHTML(basePath)))
			return
		}
		runningStatus := g.GetStatus()
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		handler(w, r, g.CompleteStatus(), &runningStatus)
	}
}
