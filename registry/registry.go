// Package registry 管理机器学习模型的生命周期
package registry

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"modelhub/logger"
	"modelhub/ml"
	"modelhub/storage"
	"modelhub/tracking"
)

// Status 模型拟合状态
type Status string

const (
	StatusNotFitted Status = "NotFitted"
	StatusFitted    Status = "Fitted"
)

// ModelRecord is the storage-independent description of a requested
// model. Scores hold rounded metric values keyed by metric name.
type ModelRecord struct {
	ModelID   int                    `json:"model_id"`
	ModelName string                 `json:"model_name"`
	TaskType  TaskType               `json:"task_type"`
	Status    Status                 `json:"status"`
	Scores    map[string]float64     `json:"scores"`
	Meta      map[string]interface{} `json:"meta,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// FittedArtifact holds the trained estimator for a record. A nil
// Estimator is the not-fitted sentinel.
type FittedArtifact struct {
	ModelID      int
	FeatureOrder []string
	Estimator    ml.Estimator
}

// artifactBlob is the gob shape persisted for a fitted estimator.
type artifactBlob struct {
	FeatureOrder []string
	Estimator    ml.Estimator
}

// Config wires the registry's collaborators.
type Config struct {
	Store            storage.ObjectStorage
	Bucket           string
	Recorder         tracking.Recorder
	Publisher        Publisher
	RegressionCutoff int
	Seed             int64
}

// Registry owns the in-memory model catalogue. All operations are
// serialized behind a single mutex; the hosting HTTP server is
// concurrent, so the counter and collections need the guard.
type Registry struct {
	mu        sync.Mutex
	store     storage.ObjectStorage
	bucket    string
	recorder  tracking.Recorder
	publisher Publisher

	cutoff   int
	seed     int64
	taskType TaskType

	counter   int
	records   []*ModelRecord
	artifacts []*FittedArtifact
	table     map[TaskType]taskEntry
}

func New(cfg Config) *Registry {
	if cfg.Store == nil {
		cfg.Store = storage.NewMemory()
	}
	if cfg.Bucket == "" {
		cfg.Bucket = "modelhub"
	}
	if cfg.Recorder == nil {
		cfg.Recorder = tracking.Noop{}
	}
	if cfg.RegressionCutoff == 0 {
		cfg.RegressionCutoff = DefaultRegressionCutoff
	}
	if cfg.Seed == 0 {
		cfg.Seed = 1488
	}

	return &Registry{
		store:     cfg.Store,
		bucket:    cfg.Bucket,
		recorder:  cfg.Recorder,
		publisher: cfg.Publisher,
		cutoff:    cfg.RegressionCutoff,
		seed:      cfg.Seed,
		taskType:  TaskMulticlass,
		table:     taskTable(),
	}
}

// SetRegressionCutoff adjusts the regression threshold for subsequent
// task-type inference. Hot-reloaded from config.
func (r *Registry) SetRegressionCutoff(cutoff int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cutoff > 0 {
		r.cutoff = cutoff
	}
}

// InferTaskType inspects the sample's target and updates the task type
// stamped onto subsequently created records.
func (r *Registry) InferTaskType(sample *Dataset) (TaskType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inferLocked(sample)
}

func (r *Registry) inferLocked(sample *Dataset) (TaskType, error) {
	task, err := inferTaskType(sample, r.cutoff)
	if err != nil {
		return "", err
	}
	r.taskType = task
	return task, nil
}

// AvailableModels infers the task type for the sample and describes the
// selectable model names.
func (r *Registry) AvailableModels(sample *Dataset) (TaskType, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, err := r.inferLocked(sample)
	if err != nil {
		return "", "", err
	}
	summary := fmt.Sprintf("Current task '%s':\n    Available models: %v", task, r.table[task].candidateOrder)
	return task, summary, nil
}

// CandidateNames lists the model names selectable for a task type.
func (r *Registry) CandidateNames(task TaskType) []string {
	return append([]string(nil), r.table[task].candidateOrder...)
}

// CreateModel registers a model definition under the current task type.
// A rejected name does not consume an id.
func (r *Registry) CreateModel(ctx context.Context, modelName string) (*ModelRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	runID, err := r.recorder.StartRun(map[string]string{
		"ml stage":   "create model",
		"model_name": modelName,
	})
	if err != nil {
		logger.Warnf("tracking start run failed: %v", err)
	}

	entry := r.table[r.taskType]
	if _, ok := entry.candidates[modelName]; !ok {
		r.endRun(runID, "failed")
		return nil, validationf("wrong model name %s, available for task '%s': %v",
			modelName, r.taskType, entry.candidateOrder)
	}

	r.counter++
	record := &ModelRecord{
		ModelID:   r.counter,
		ModelName: modelName,
		TaskType:  r.taskType,
		Status:    StatusNotFitted,
		Scores:    map[string]float64{},
		CreatedAt: time.Now(),
	}
	r.records = append(r.records, record)
	r.artifacts = append(r.artifacts, &FittedArtifact{ModelID: record.ModelID})

	r.persistRecord(ctx, record)
	r.endRun(runID, "finished")
	r.publish(EventModelCreated, record)

	return copyRecord(record), nil
}

// Records lists all registered models.
func (r *Registry) Records() []*ModelRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	records := make([]*ModelRecord, 0, len(r.records))
	for _, record := range r.records {
		records = append(records, copyRecord(record))
	}
	return records
}

// GetModel returns the record with the given id.
func (r *Registry) GetModel(modelID int) (*ModelRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, err := r.findRecord(modelID)
	if err != nil {
		return nil, err
	}
	return copyRecord(record), nil
}

// GetFittedArtifact returns the artifact slot with the given id. Absent
// ids fail with the same not-found contract as GetModel.
func (r *Registry) GetFittedArtifact(modelID int) (*FittedArtifact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findArtifact(modelID)
}

// UpdateModel merges a patch into the record named by its model_id key.
// Recognized fields are applied; anything else lands in Meta.
func (r *Registry) UpdateModel(patch map[string]interface{}) (*ModelRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if patch == nil {
		return nil, validationf("dictionary should be passed")
	}
	rawID, ok := patch["model_id"]
	if !ok {
		return nil, validationf("incorrect dictionary passed: model_id is required")
	}
	modelID, ok := asInt(rawID)
	if !ok {
		return nil, validationf("incorrect dictionary passed: model_id must be an integer")
	}

	record, err := r.findRecord(modelID)
	if err != nil {
		return nil, err
	}

	for key, value := range patch {
		switch key {
		case "model_id":
		case "model_name":
			if name, ok := value.(string); ok {
				record.ModelName = name
			}
		default:
			if record.Meta == nil {
				record.Meta = make(map[string]interface{})
			}
			record.Meta[key] = value
		}
	}

	r.publish(EventModelUpdated, record)
	return copyRecord(record), nil
}

// DeleteModel removes the record and its artifact together, including
// the persisted objects.
func (r *Registry) DeleteModel(ctx context.Context, modelID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, err := r.findRecord(modelID)
	if err != nil {
		return err
	}

	for i, candidate := range r.records {
		if candidate.ModelID == modelID {
			r.records = append(r.records[:i], r.records[i+1:]...)
			break
		}
	}
	for i, candidate := range r.artifacts {
		if candidate.ModelID == modelID {
			r.artifacts = append(r.artifacts[:i], r.artifacts[i+1:]...)
			break
		}
	}

	if err := r.store.DeleteObject(ctx, r.bucket, recordKey(modelID)); err != nil {
		logger.Warnf("delete record object for model %d: %v", modelID, err)
	}
	if err := r.store.DeleteObject(ctx, r.bucket, artifactKey(modelID)); err != nil {
		logger.Warnf("delete artifact object for model %d: %v", modelID, err)
	}

	r.publish(EventModelDeleted, record)
	return nil
}

// Fit trains the record's estimator on the labeled dataset and stores
// the result in the artifact slot and in object storage.
func (r *Registry) Fit(ctx context.Context, modelID int, data *Dataset) (*ModelRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if data == nil {
		return nil, validationf("training data is required")
	}
	features, target, err := data.SplitTarget()
	if err != nil {
		return nil, validationf("%s", err)
	}

	record, err := r.findRecord(modelID)
	if err != nil {
		return nil, err
	}
	artifact, err := r.findArtifact(modelID)
	if err != nil {
		return nil, err
	}

	entry := r.table[record.TaskType]
	constructor, ok := entry.candidates[record.ModelName]
	if !ok {
		return nil, validationf("model %s is not available for task '%s'", record.ModelName, record.TaskType)
	}

	estimator := constructor(ml.Options{Seed: r.seed})

	X, order, err := features.Matrix(nil)
	if err != nil {
		return nil, validationf("%s", err)
	}

	runID, err := r.recorder.StartRun(map[string]string{
		"ml stage": "fit",
		"model_id": strconv.Itoa(modelID),
	})
	if err != nil {
		logger.Warnf("tracking start run failed: %v", err)
	}

	if err := estimator.Fit(X, target); err != nil {
		r.endRun(runID, "failed")
		return nil, validationf("fit failed: %s", err)
	}

	record.Status = StatusFitted
	artifact.Estimator = estimator
	artifact.FeatureOrder = order

	r.persistRecord(ctx, record)
	r.persistArtifact(ctx, artifact)
	r.endRun(runID, "finished")
	r.publish(EventModelFitted, record)

	return copyRecord(record), nil
}

// Predict runs the fitted estimator over the feature frame.
func (r *Registry) Predict(ctx context.Context, modelID int, features *Dataset) ([]float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.findRecord(modelID); err != nil {
		return nil, err
	}
	artifact, err := r.fittedLocked(ctx, modelID)
	if err != nil {
		return nil, err
	}

	X, _, err := features.Matrix(artifact.FeatureOrder)
	if err != nil {
		return nil, validationf("%s", err)
	}
	predictions, err := artifact.Estimator.Predict(X)
	if err != nil {
		return nil, validationf("predict failed: %s", err)
	}
	return predictions, nil
}

// PredictProba returns per-row class probabilities. Binary models yield
// the positive-class column only, multiclass one column per class.
func (r *Registry) PredictProba(ctx context.Context, modelID int, features *Dataset) ([][]float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.predictProbaLocked(ctx, modelID, features)
}

func (r *Registry) predictProbaLocked(ctx context.Context, modelID int, features *Dataset) ([][]float64, error) {
	record, err := r.findRecord(modelID)
	if err != nil {
		return nil, err
	}
	if record.TaskType == TaskRegression {
		return nil, capabilityf("models with task_type %s have no predict_proba", record.TaskType)
	}

	artifact, err := r.fittedLocked(ctx, modelID)
	if err != nil {
		return nil, err
	}
	probaEstimator, ok := artifact.Estimator.(ml.ProbaEstimator)
	if !ok {
		return nil, capabilityf("model %s has no predict_proba", record.ModelName)
	}

	X, _, err := features.Matrix(artifact.FeatureOrder)
	if err != nil {
		return nil, validationf("%s", err)
	}
	proba, err := probaEstimator.PredictProba(X)
	if err != nil {
		return nil, validationf("predict_proba failed: %s", err)
	}

	rows, cols := proba.Dims()
	out := make([][]float64, rows)
	if record.TaskType == TaskBinary {
		// Positive class only.
		for i := 0; i < rows; i++ {
			out[i] = []float64{proba.At(i, cols-1)}
		}
		return out, nil
	}
	for i := 0; i < rows; i++ {
		row := make([]float64, cols)
		for j := 0; j < cols; j++ {
			row[j] = proba.At(i, j)
		}
		out[i] = row
	}
	return out, nil
}

// Scores evaluates the fitted model on a labeled dataset with the task
// metric, rounded to 4 decimals and keyed by the metric name.
func (r *Registry) Scores(ctx context.Context, modelID int, data *Dataset) (*ModelRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if data == nil {
		return nil, validationf("for computing metrics you should add data")
	}
	record, err := r.findRecord(modelID)
	if err != nil {
		return nil, err
	}
	features, target, err := data.SplitTarget()
	if err != nil {
		return nil, validationf("%s", err)
	}

	entry := r.table[record.TaskType]
	var predicted []float64
	switch record.TaskType {
	case TaskRegression:
		artifact, err := r.fittedLocked(ctx, modelID)
		if err != nil {
			return nil, err
		}
		X, _, err := features.Matrix(artifact.FeatureOrder)
		if err != nil {
			return nil, validationf("%s", err)
		}
		predicted, err = artifact.Estimator.Predict(X)
		if err != nil {
			return nil, validationf("predict failed: %s", err)
		}
	case TaskBinary:
		proba, err := r.predictProbaLocked(ctx, modelID, features)
		if err != nil {
			return nil, err
		}
		predicted = make([]float64, len(proba))
		for i, row := range proba {
			predicted[i] = row[0]
		}
	default:
		proba, err := r.predictProbaLocked(ctx, modelID, features)
		if err != nil {
			return nil, err
		}
		artifact, err := r.findArtifact(modelID)
		if err != nil {
			return nil, err
		}
		classes := artifact.Estimator.(ml.ProbaEstimator).Classes()
		predicted = make([]float64, len(proba))
		for i, row := range proba {
			predicted[i] = float64(classes[argmax(row)])
		}
	}

	value, err := entry.metric(target, predicted)
	if err != nil {
		return nil, validationf("metric %s failed: %s", entry.metricName, err)
	}

	record.Scores[entry.metricName] = ml.RoundTo(value, 4)

	runID, err := r.recorder.StartRun(map[string]string{
		"ml stage": "scores",
		"model_id": strconv.Itoa(modelID),
	})
	if err != nil {
		logger.Warnf("tracking start run failed: %v", err)
	} else {
		if err := r.recorder.LogMetric(runID, entry.metricName, record.Scores[entry.metricName]); err != nil {
			logger.Warnf("tracking log metric failed: %v", err)
		}
	}
	r.endRun(runID, "finished")
	r.publish(EventModelScored, record)

	return copyRecord(record), nil
}

// fittedLocked resolves the trained estimator, restoring it from object
// storage when the in-memory slot is empty (warm restart path).
func (r *Registry) fittedLocked(ctx context.Context, modelID int) (*FittedArtifact, error) {
	artifact, err := r.findArtifact(modelID)
	if err != nil {
		return nil, err
	}
	if artifact.Estimator != nil {
		return artifact, nil
	}

	reader, err := r.store.GetObject(ctx, r.bucket, artifactKey(modelID))
	if err != nil {
		return nil, validationf("ML-model with ID = %d is not fitted", modelID)
	}
	defer reader.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return nil, validationf("ML-model with ID = %d is not fitted", modelID)
	}
	var blob artifactBlob
	if err := storage.DecodeGob(buf.Bytes(), &blob); err != nil {
		return nil, validationf("stored artifact for model %d is unreadable", modelID)
	}

	artifact.Estimator = blob.Estimator
	artifact.FeatureOrder = blob.FeatureOrder
	return artifact, nil
}

func (r *Registry) findRecord(modelID int) (*ModelRecord, error) {
	for _, record := range r.records {
		if record.ModelID == modelID {
			return record, nil
		}
	}
	return nil, notFoundf("ML-model with ID = %d does not exist", modelID)
}

func (r *Registry) findArtifact(modelID int) (*FittedArtifact, error) {
	for _, artifact := range r.artifacts {
		if artifact.ModelID == modelID {
			return artifact, nil
		}
	}
	return nil, notFoundf("ML-model with ID = %d does not exist", modelID)
}

// persistRecord mirrors the record to object storage. Failures are
// logged, not surfaced.
func (r *Registry) persistRecord(ctx context.Context, record *ModelRecord) {
	data, err := storage.EncodeGob(record)
	if err != nil {
		logger.Warnf("encode record for model %d: %v", record.ModelID, err)
		return
	}
	if err := r.store.PutObject(ctx, r.bucket, recordKey(record.ModelID), bytes.NewReader(data)); err != nil {
		logger.Warnf("persist record for model %d: %v", record.ModelID, err)
	}
}

func (r *Registry) persistArtifact(ctx context.Context, artifact *FittedArtifact) {
	data, err := storage.EncodeGob(&artifactBlob{
		FeatureOrder: artifact.FeatureOrder,
		Estimator:    artifact.Estimator,
	})
	if err != nil {
		logger.Warnf("encode artifact for model %d: %v", artifact.ModelID, err)
		return
	}
	if err := r.store.PutObject(ctx, r.bucket, artifactKey(artifact.ModelID), bytes.NewReader(data)); err != nil {
		logger.Warnf("persist artifact for model %d: %v", artifact.ModelID, err)
	}
}

func (r *Registry) publish(eventType EventType, record *ModelRecord) {
	if r.publisher == nil {
		return
	}
	r.publisher.Publish(Event{
		Type:      eventType,
		ModelID:   record.ModelID,
		ModelName: record.ModelName,
		TaskType:  record.TaskType,
		Timestamp: time.Now(),
	})
}

func (r *Registry) endRun(runID int64, status string) {
	if err := r.recorder.EndRun(runID, status); err != nil {
		logger.Warnf("tracking end run failed: %v", err)
	}
}

func recordKey(modelID int) string {
	return fmt.Sprintf("models/%d/record.gob", modelID)
}

func artifactKey(modelID int) string {
	return fmt.Sprintf("models/%d/estimator.gob", modelID)
}

func copyRecord(record *ModelRecord) *ModelRecord {
	copied := *record
	copied.Scores = make(map[string]float64, len(record.Scores))
	for name, value := range record.Scores {
		copied.Scores[name] = value
	}
	if record.Meta != nil {
		copied.Meta = make(map[string]interface{}, len(record.Meta))
		for key, value := range record.Meta {
			copied.Meta[key] = value
		}
	}
	return &copied
}

func asInt(value interface{}) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v != float64(int(v)) {
			return 0, false
		}
		return int(v), true
	default:
		return 0, false
	}
}

func argmax(values []float64) int {
	best := 0
	for i, value := range values {
		if value > values[best] {
			best = i
		}
	}
	return best
}
