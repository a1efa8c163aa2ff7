package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"phishurl/db"
	"phishurl/ml"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
	maxBatchSize        = 1000
	trainFirstMessage   = "no model loaded; train the model first with: phishurl train"

	// trainWriteTimeout replaces the server write timeout for the retrain route.
	trainWriteTimeout = 15 * time.Minute
)

// API wires the HTTP routes to the model store, the optional history store
// and the training pipeline.
type API struct {
	models   *ModelStore
	history  *db.Store
	training TrainingConfig
	train    func(TrainingConfig, *zap.Logger) (*TrainingResult, error)
	logger   *zap.Logger
	trainMu  sync.Mutex
	started  time.Time

	allowedOrigins []string
	wsPongWait     time.Duration // silence allowed before a websocket is dropped
}

// NewAPI creates the API. history may be nil to disable prediction history.
func NewAPI(models *ModelStore, history *db.Store, training TrainingConfig, logger *zap.Logger) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &API{
		models:     models,
		history:    history,
		training:   training,
		train:      TrainModel,
		logger:     logger,
		started:    time.Now(),
		wsPongWait: wsPongWait,
	}
}

// RegisterHandlers registers every page, API and websocket route on mux.
func (a *API) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", a.handleIndex)
	mux.HandleFunc("POST /{$}", a.handleIndexSubmit)
	mux.HandleFunc("GET /api/health", a.handleHealth)
	mux.HandleFunc("GET /api/predict", a.handlePredictQuery)
	mux.HandleFunc("POST /api/predict", a.handlePredictBody)
	mux.HandleFunc("POST /api/predict/batch", a.handlePredictBatch)
	mux.HandleFunc("GET /api/model", a.handleModel)
	mux.HandleFunc("POST /api/train", a.handleTrain)
	mux.HandleFunc("GET /api/history", a.handleHistory)
	mux.HandleFunc("GET /api/ws/predict", a.handlePredictWS)
}

type predictRequest struct {
	URL string `json:"url"`
}

type batchRequest struct {
	URLs []string `json:"urls"`
}

type batchResponse struct {
	Count       int             `json:"count"`
	Predictions []ml.Prediction `json:"predictions"`
}

type modelInfo struct {
	ModelType          ml.ModelType           `json:"model_type"`
	ModelName          string                 `json:"model_name"`
	TrainedAt          time.Time              `json:"trained_at"`
	FeatureNames       []string               `json:"feature_names"`
	FeatureImportances []ml.FeatureImportance `json:"feature_importances,omitempty"`
	Report             *ml.EvaluationReport   `json:"report,omitempty"`
	Path               string                 `json:"path"`
}

type trainResponse struct {
	ModelType ml.ModelType         `json:"model_type"`
	ModelName string               `json:"model_name"`
	TrainedAt time.Time            `json:"trained_at"`
	Report    *ml.EvaluationReport `json:"report"`
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"status":       "ok",
		"model_loaded": a.models.Predictor() != nil,
		"uptime":       time.Since(a.started).Round(time.Second).String(),
	}
	if model := a.models.Model(); model != nil {
		status["model"] = model.Name()
	}
	writeJSON(w, http.StatusOK, status)
}

func (a *API) handlePredictQuery(w http.ResponseWriter, r *http.Request) {
	a.predictOne(w, r, r.URL.Query().Get("url"))
}

func (a *API) handlePredictBody(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	a.predictOne(w, r, req.URL)
}

func (a *API) predictOne(w http.ResponseWriter, r *http.Request, url string) {
	url = strings.TrimSpace(url)
	if url == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}
	prediction, err := a.models.Predict(url)
	if err != nil {
		a.writePredictError(w, err)
		return
	}
	a.record(r.Context(), prediction)
	writeJSON(w, http.StatusOK, prediction)
}

func (a *API) handlePredictBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if len(req.URLs) == 0 {
		writeError(w, http.StatusBadRequest, "urls is required")
		return
	}
	if len(req.URLs) > maxBatchSize {
		writeError(w, http.StatusBadRequest, "too many urls, maximum is "+strconv.Itoa(maxBatchSize))
		return
	}

	predictions := make([]ml.Prediction, 0, len(req.URLs))
	for _, url := range req.URLs {
		prediction, err := a.models.Predict(url)
		if err != nil {
			a.writePredictError(w, err)
			return
		}
		predictions = append(predictions, prediction)
	}
	for _, p := range predictions {
		a.record(r.Context(), p)
	}
	writeJSON(w, http.StatusOK, batchResponse{Count: len(predictions), Predictions: predictions})
}

func (a *API) handleModel(w http.ResponseWriter, r *http.Request) {
	model := a.models.Model()
	if model == nil {
		writeError(w, http.StatusServiceUnavailable, trainFirstMessage)
		return
	}
	writeJSON(w, http.StatusOK, modelInfo{
		ModelType:          model.Type,
		ModelName:          model.Name(),
		TrainedAt:          model.TrainedAt,
		FeatureNames:       model.FeatureNames,
		FeatureImportances: model.FeatureImportances(),
		Report:             model.Report,
		Path:               a.models.Path(),
	})
}

// handleTrain retrains from the configured dataset. Concurrent requests are
// refused rather than queued. Training runs to completion even if the client
// goes away, so the response gets its own write deadline and the history
// write is detached from the request context.
func (a *API) handleTrain(w http.ResponseWriter, r *http.Request) {
	if !a.trainMu.TryLock() {
		writeError(w, http.StatusConflict, "training already in progress")
		return
	}
	defer a.trainMu.Unlock()

	if err := http.NewResponseController(w).SetWriteDeadline(time.Now().Add(trainWriteTimeout)); err != nil {
		a.logger.Debug("cannot extend write deadline for training", zap.Error(err))
	}

	result, err := a.train(a.training, a.logger)
	if err != nil {
		var notFound *ml.DatasetNotFoundError
		var dataErr *ml.DataError
		var insufficient *ml.InsufficientDataError
		switch {
		case errors.As(err, &notFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.As(err, &dataErr), errors.As(err, &insufficient):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			a.logger.Error("training failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	a.models.Swap(result.Model)

	if a.history != nil {
		if _, err := a.history.SaveTrainingRun(context.WithoutCancel(r.Context()), result.Report, result.Dataset, result.Model.TrainedAt); err != nil {
			a.logger.Warn("failed to record training run", zap.Error(err))
		}
	}
	writeJSON(w, http.StatusOK, trainResponse{
		ModelType: result.Model.Type,
		ModelName: result.Model.Name(),
		TrainedAt: result.Model.TrainedAt,
		Report:    result.Report,
	})
}

func (a *API) handleHistory(w http.ResponseWriter, r *http.Request) {
	if a.history == nil {
		writeError(w, http.StatusServiceUnavailable, "prediction history is disabled")
		return
	}
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}
	records, err := a.history.RecentPredictions(r.Context(), limit)
	if err != nil {
		a.logger.Error("history query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (a *API) record(ctx context.Context, p ml.Prediction) {
	if a.history == nil {
		return
	}
	var modelType ml.ModelType
	if model := a.models.Model(); model != nil {
		modelType = model.Type
	}
	if _, err := a.history.SavePrediction(ctx, p, modelType); err != nil {
		a.logger.Warn("failed to record prediction", zap.String("url", p.URL), zap.Error(err))
	}
}

func (a *API) writePredictError(w http.ResponseWriter, err error) {
	if errors.Is(err, ml.ErrNotTrained) {
		writeError(w, http.StatusServiceUnavailable, trainFirstMessage)
		return
	}
	a.logger.Error("prediction failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
