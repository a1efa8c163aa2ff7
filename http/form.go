package http

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"phishurl/ml"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTemplate = template.Must(template.New("index.html").Funcs(template.FuncMap{
	"percent": func(v float64) string { return fmt.Sprintf("%.1f%%", v*100) },
}).ParseFS(templateFS, "templates/index.html"))

type indexPage struct {
	URL        string
	Prediction *ml.Prediction
	Error      string
	ModelName  string
}

func (a *API) handleIndex(w http.ResponseWriter, r *http.Request) {
	a.renderIndex(w, http.StatusOK, indexPage{})
}

func (a *API) handleIndexSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		a.renderIndex(w, http.StatusBadRequest, indexPage{Error: "invalid form submission"})
		return
	}
	url := strings.TrimSpace(r.PostFormValue("url"))
	page := indexPage{URL: url}
	if url == "" {
		page.Error = "Please enter a URL to analyze."
		a.renderIndex(w, http.StatusBadRequest, page)
		return
	}

	prediction, err := a.models.Predict(url)
	if err != nil {
		if errors.Is(err, ml.ErrNotTrained) {
			page.Error = "Model not found. " + trainFirstMessage
			a.renderIndex(w, http.StatusServiceUnavailable, page)
			return
		}
		a.logger.Error("prediction failed", zap.Error(err))
		page.Error = "Error during analysis: " + err.Error()
		a.renderIndex(w, http.StatusInternalServerError, page)
		return
	}
	a.record(r.Context(), prediction)
	page.Prediction = &prediction
	a.renderIndex(w, http.StatusOK, page)
}

func (a *API) renderIndex(w http.ResponseWriter, status int, page indexPage) {
	if model := a.models.Model(); model != nil {
		page.ModelName = model.Name()
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := indexTemplate.Execute(w, page); err != nil {
		a.logger.Error("render index", zap.Error(err))
	}
}
