package ui

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"math"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"fraudguard/claim"
	"fraudguard/inference"
)

//go:embed templates/*.html static/*
var assets embed.FS

// APIClient is what the pages need from the inference API. *Client satisfies it.
type APIClient interface {
	Health(ctx context.Context) error
	Predict(ctx context.Context, record claim.Record) (inference.Result, error)
	Info(ctx context.Context) (inference.Info, error)
}

// Handlers 页面处理器
type Handlers struct {
	client APIClient
	index  *template.Template
	about  *template.Template
	logger *zap.Logger
}

func NewHandlers(client APIClient, logger *zap.Logger) (*Handlers, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	index, err := template.ParseFS(assets, "templates/layout.html", "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse index template: %w", err)
	}
	about, err := template.ParseFS(assets, "templates/layout.html", "templates/about.html")
	if err != nil {
		return nil, fmt.Errorf("parse about template: %w", err)
	}
	return &Handlers{client: client, index: index, about: about, logger: logger}, nil
}

func (h *Handlers) Register(mux *http.ServeMux) {
	static, _ := fs.Sub(assets, "static")
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static)))
	mux.HandleFunc("GET /{$}", h.handleForm)
	mux.HandleFunc("POST /{$}", h.handleSubmit)
	mux.HandleFunc("GET /about", h.handleAbout)
	mux.HandleFunc("GET /healthz", h.handleHealthz)
}

type formValues struct {
	ClaimAmount    string
	ClaimAge       string
	ClaimType      string
	ClaimantAge    string
	PolicyDuration string
	MonthlyPremium string
	Witnesses      string
	PoliceReport   string
	InjuryClaim    bool
	PropertyClaim  bool
	VehicleClaim   bool
}

func defaultForm() formValues {
	return formValues{
		ClaimAmount:    "5000",
		ClaimAge:       "30",
		ClaimType:      string(claim.TypeAuto),
		ClaimantAge:    "45",
		PolicyDuration: "5.0",
		MonthlyPremium: "100",
		Witnesses:      "1",
		PoliceReport:   "No",
		PropertyClaim:  true,
		VehicleClaim:   true,
	}
}

type resultView struct {
	Status        string
	FraudDetected bool
	Probability   string
	RiskLevel     string
	Confidence    string
	Message       string

	Amount       string
	ClaimType    string
	ClaimAge     int
	ClaimantAge  int
	Duration     string
	Premium      string
	Witnesses    int
	PoliceReport string
}

type formPage struct {
	Title       string
	APIOnline   bool
	Form        formValues
	ClaimTypes  []claim.ClaimType
	Result      *resultView
	Error       string
	FieldErrors map[string]string
}

func (h *Handlers) newFormPage(ctx context.Context, form formValues) formPage {
	return formPage{
		Title:      "Single Claim Check",
		APIOnline:  h.client.Health(ctx) == nil,
		Form:       form,
		ClaimTypes: claim.ClaimTypes(),
	}
}

func (h *Handlers) handleForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, h.index, h.newFormPage(r.Context(), defaultForm()))
}

func (h *Handlers) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		page := h.newFormPage(r.Context(), defaultForm())
		page.Error = "Error: could not read the submitted form"
		h.render(w, h.index, page)
		return
	}

	form := readForm(r)
	page := h.newFormPage(r.Context(), form)

	record, err := form.record()
	if err != nil {
		page.setError(err)
		h.render(w, h.index, page)
		return
	}

	result, err := h.client.Predict(r.Context(), record)
	if err != nil {
		h.logger.Warn("prediction request failed", zap.Error(err))
		page.setError(err)
		h.render(w, h.index, page)
		return
	}

	page.Result = newResultView(record, result)
	h.render(w, h.index, page)
}

type aboutPage struct {
	Title     string
	APIOnline bool
	Info      *inference.Info
	Metrics   []metricView
	Error     string
}

type metricView struct {
	Name  string
	Value string
}

func (h *Handlers) handleAbout(w http.ResponseWriter, r *http.Request) {
	page := aboutPage{Title: "About", APIOnline: h.client.Health(r.Context()) == nil}

	info, err := h.client.Info(r.Context())
	if err != nil {
		page.Error = errorMessage(err)
	} else {
		page.Info = &info
		page.Metrics = metricViews(info.Model.Metrics)
	}
	h.render(w, h.about, page)
}

func (h *Handlers) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (h *Handlers) render(w http.ResponseWriter, tmpl *template.Template, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		h.logger.Error("render template", zap.Error(err))
	}
}

func readForm(r *http.Request) formValues {
	get := func(name string) string { return strings.TrimSpace(r.PostForm.Get(name)) }
	return formValues{
		ClaimAmount:    get(claim.FieldClaimAmount),
		ClaimAge:       get(claim.FieldClaimAge),
		ClaimType:      get(claim.FieldClaimType),
		ClaimantAge:    get(claim.FieldClaimantAge),
		PolicyDuration: get(claim.FieldPolicyDuration),
		MonthlyPremium: get(claim.FieldMonthlyPremium),
		Witnesses:      get(claim.FieldWitnesses),
		PoliceReport:   get(claim.FieldPoliceReport),
		InjuryClaim:    r.PostForm.Has(claim.FieldInjuryClaim),
		PropertyClaim:  r.PostForm.Has(claim.FieldPropertyClaim),
		VehicleClaim:   r.PostForm.Has(claim.FieldVehicleClaim),
	}
}

// record converts the submitted strings. Range checks are left to the API.
func (f formValues) record() (claim.Record, error) {
	verr := &claim.ValidationError{Fields: make(map[string]string)}
	number := func(name, raw string) float64 {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			verr.Fields[name] = "must be a finite number"
			return 0
		}
		return v
	}
	integer := func(name, raw string) int {
		v, err := strconv.Atoi(raw)
		if err != nil {
			verr.Fields[name] = "must be an integer"
		}
		return v
	}

	record := claim.Record{
		ClaimAmount:    number(claim.FieldClaimAmount, f.ClaimAmount),
		ClaimAge:       integer(claim.FieldClaimAge, f.ClaimAge),
		ClaimantAge:    integer(claim.FieldClaimantAge, f.ClaimantAge),
		PolicyDuration: number(claim.FieldPolicyDuration, f.PolicyDuration),
		MonthlyPremium: number(claim.FieldMonthlyPremium, f.MonthlyPremium),
		Witnesses:      integer(claim.FieldWitnesses, f.Witnesses),
		InjuryClaim:    flag(f.InjuryClaim),
		PropertyClaim:  flag(f.PropertyClaim),
		VehicleClaim:   flag(f.VehicleClaim),
	}

	if t, ok := claim.ParseClaimType(f.ClaimType); ok {
		record.ClaimType = t
	} else {
		verr.Fields[claim.FieldClaimType] = "must be one of auto, home, health, other"
	}

	switch f.PoliceReport {
	case "Yes":
		record.PoliceReport = 1
	case "No":
		record.PoliceReport = 0
	default:
		verr.Fields[claim.FieldPoliceReport] = "must be Yes or No"
	}

	if len(verr.Fields) > 0 {
		return claim.Record{}, verr
	}
	return record, nil
}

func flag(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (p *formPage) setError(err error) {
	p.Error = errorMessage(err)
	var verr *claim.ValidationError
	if errors.As(err, &verr) {
		p.FieldErrors = verr.Fields
	}
}

func errorMessage(err error) string {
	var verr *claim.ValidationError
	var apiErr *APIError
	switch {
	case errors.Is(err, ErrUnavailable):
		return ErrUnavailable.Error()
	case errors.As(err, &verr):
		return "Invalid claim: " + strings.Join(verr.FieldNames(), ", ")
	case errors.As(err, &apiErr):
		return apiErr.Error()
	default:
		return "Error: " + err.Error()
	}
}

func newResultView(record claim.Record, result inference.Result) *resultView {
	status := "LEGITIMATE"
	if result.FraudDetected {
		status = "FRAUD DETECTED"
	}
	return &resultView{
		Status:        status,
		FraudDetected: result.FraudDetected,
		Probability:   formatPercent(result.FraudProbability),
		RiskLevel:     string(result.RiskLevel),
		Confidence:    formatPercent(1 - result.FraudProbability),
		Message:       result.Message,

		Amount:       formatMoney(record.ClaimAmount),
		ClaimType:    formatClaimType(record.ClaimType),
		ClaimAge:     record.ClaimAge,
		ClaimantAge:  record.ClaimantAge,
		Duration:     strconv.FormatFloat(record.PolicyDuration, 'f', 1, 64),
		Premium:      formatMoney(record.MonthlyPremium),
		Witnesses:    record.Witnesses,
		PoliceReport: yesNo(record.PoliceReport),
	}
}

var metricOrder = []struct{ key, name string }{
	{"accuracy", "Model Accuracy"},
	{"precision", "Precision"},
	{"recall", "Recall"},
	{"f1_score", "F1-Score"},
}

func metricViews(metrics map[string]float64) []metricView {
	views := make([]metricView, 0, len(metricOrder))
	for _, m := range metricOrder {
		v, ok := metrics[m.key]
		if !ok {
			continue
		}
		value := fmt.Sprintf("%.0f%%", v*100)
		if m.key == "f1_score" {
			value = fmt.Sprintf("%.2f", v)
		}
		views = append(views, metricView{Name: m.name, Value: value})
	}
	return views
}
