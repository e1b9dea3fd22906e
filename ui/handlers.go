package ui

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"psychofit/domain/core"
	"psychofit/internal/report"
)

const curveSamplePoints = 100

// handleReport renders the cross-dataset threshold summary as HTML
func (a *App) handleReport(w http.ResponseWriter, r *http.Request) {
	results, err := a.results.ListLatest(r.Context(), 50)
	if err != nil {
		a.serverError(w, "listing results", err)
		return
	}

	summary := report.BuildSummary(results)
	md := report.RenderMarkdown(summary, results)

	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags})
	body := markdown.ToHTML([]byte(md), p, renderer)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, "<!DOCTYPE html><html><head><title>2AFC Threshold Report</title></head><body>%s</body></html>", body)
}

// handleListResults returns the newest stored results as JSON
func (a *App) handleListResults(w http.ResponseWriter, r *http.Request) {
	results, err := a.results.ListLatest(r.Context(), 50)
	if err != nil {
		a.serverError(w, "listing results", err)
		return
	}
	a.writeJSON(w, http.StatusOK, results)
}

// handleGetResult returns one result by run ID
func (a *App) handleGetResult(w http.ResponseWriter, r *http.Request) {
	runID := core.RunID(chi.URLParam(r, "runID"))
	result, err := a.results.GetByRunID(r.Context(), runID)
	if core.IsNotFoundError(err) {
		http.Error(w, "result not found", http.StatusNotFound)
		return
	}
	if err != nil {
		a.serverError(w, "loading result", err)
		return
	}
	a.writeJSON(w, http.StatusOK, result)
}

// handleGetCurve returns sampled points of the fitted curve for plotting
func (a *App) handleGetCurve(w http.ResponseWriter, r *http.Request) {
	runID := core.RunID(chi.URLParam(r, "runID"))
	result, err := a.results.GetByRunID(r.Context(), runID)
	if core.IsNotFoundError(err) {
		http.Error(w, "result not found", http.StatusNotFound)
		return
	}
	if err != nil {
		a.serverError(w, "loading result", err)
		return
	}
	if result.Fit == nil {
		http.Error(w, "no fitted curve for this run", http.StatusNotFound)
		return
	}
	a.writeJSON(w, http.StatusOK, result.Fit.SampleCurve(curveSamplePoints))
}

func (a *App) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.logger.Error("encoding response: %v", err)
	}
}

func (a *App) serverError(w http.ResponseWriter, what string, err error) {
	a.logger.Error("%s: %v", what, err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}
