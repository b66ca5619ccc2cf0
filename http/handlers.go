package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"modelhub/registry"
)

// Handlers 模型注册表的HTTP处理器
type Handlers struct {
	registry *registry.Registry
}

// RegisterHandlers 注册所有路由
func RegisterHandlers(mux *http.ServeMux, reg *registry.Registry) {
	h := &Handlers{registry: reg}

	mux.HandleFunc("GET /api/health", h.handleHealth)
	mux.HandleFunc("POST /api/models/available", h.handleAvailableModels)
	mux.HandleFunc("POST /api/models", h.handleCreateModel)
	mux.HandleFunc("GET /api/models", h.handleListModels)
	mux.HandleFunc("GET /api/models/{id}", h.handleGetModel)
	mux.HandleFunc("PUT /api/models/{id}", h.handleUpdateModel)
	mux.HandleFunc("DELETE /api/models/{id}", h.handleDeleteModel)
	mux.HandleFunc("POST /api/models/{id}/fit", h.handleFit)
	mux.HandleFunc("POST /api/models/{id}/predict", h.handlePredict)
	mux.HandleFunc("POST /api/models/{id}/predict_proba", h.handlePredictProba)
	mux.HandleFunc("POST /api/models/{id}/scores", h.handleScores)
}

func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) handleAvailableModels(w http.ResponseWriter, r *http.Request) {
	var sample registry.Dataset
	if err := json.NewDecoder(r.Body).Decode(&sample); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid training sample: "+err.Error())
		return
	}

	task, summary, err := h.registry.AvailableModels(&sample)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":          summary,
		"task_type":        task,
		"available_models": h.registry.CandidateNames(task),
	})
}

func (h *Handlers) handleCreateModel(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ModelName string `json:"model_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	record, err := h.registry.CreateModel(r.Context(), body.ModelName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

func (h *Handlers) handleListModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"models": h.registry.Records(),
	})
}

func (h *Handlers) handleGetModel(w http.ResponseWriter, r *http.Request) {
	modelID, ok := pathID(w, r)
	if !ok {
		return
	}
	record, err := h.registry.GetModel(modelID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *Handlers) handleUpdateModel(w http.ResponseWriter, r *http.Request) {
	modelID, ok := pathID(w, r)
	if !ok {
		return
	}

	var patch map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "dictionary should be passed")
		return
	}
	if patch == nil {
		writeErrorMessage(w, http.StatusBadRequest, "dictionary should be passed")
		return
	}
	// 路径中的ID优先
	patch["model_id"] = float64(modelID)

	record, err := h.registry.UpdateModel(patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *Handlers) handleDeleteModel(w http.ResponseWriter, r *http.Request) {
	modelID, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.registry.DeleteModel(r.Context(), modelID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"deleted": modelID})
}

func (h *Handlers) handleFit(w http.ResponseWriter, r *http.Request) {
	modelID, ok := pathID(w, r)
	if !ok {
		return
	}

	var data registry.Dataset
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid training data: "+err.Error())
		return
	}

	record, err := h.registry.Fit(r.Context(), modelID, &data)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *Handlers) handlePredict(w http.ResponseWriter, r *http.Request) {
	modelID, ok := pathID(w, r)
	if !ok {
		return
	}

	var features registry.Dataset
	if err := json.NewDecoder(r.Body).Decode(&features); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid feature data: "+err.Error())
		return
	}

	predictions, err := h.registry.Predict(r.Context(), modelID, &features)
	if err != nil {
		writeError(w, err)
		return
	}

	if asMapping(r) {
		writeJSON(w, http.StatusOK, registry.VectorMapping(predictions))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"predictions": predictions})
}

func (h *Handlers) handlePredictProba(w http.ResponseWriter, r *http.Request) {
	modelID, ok := pathID(w, r)
	if !ok {
		return
	}

	var features registry.Dataset
	if err := json.NewDecoder(r.Body).Decode(&features); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid feature data: "+err.Error())
		return
	}

	proba, err := h.registry.PredictProba(r.Context(), modelID, &features)
	if err != nil {
		writeError(w, err)
		return
	}

	if asMapping(r) {
		writeJSON(w, http.StatusOK, registry.ColumnMapping(proba))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"probabilities": proba})
}

func (h *Handlers) handleScores(w http.ResponseWriter, r *http.Request) {
	modelID, ok := pathID(w, r)
	if !ok {
		return
	}

	var data registry.Dataset
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "for computing metrics you should add data")
		return
	}

	record, err := h.registry.Scores(r.Context(), modelID, &data)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	modelID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "model id must be an integer")
		return 0, false
	}
	return modelID, true
}

// asMapping 查询参数as_mapping, 默认true
func asMapping(r *http.Request) bool {
	return r.URL.Query().Get("as_mapping") != "false"
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeErrorMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeError 按错误类型映射HTTP状态码
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if kind, ok := registry.KindOf(err); ok {
		switch kind {
		case registry.KindValidation:
			status = http.StatusBadRequest
		case registry.KindNotFound:
			status = http.StatusNotFound
		case registry.KindCapability:
			status = http.StatusUnprocessableEntity
		}
	}
	writeErrorMessage(w, status, err.Error())
}
