package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/deciflow/deciflow/internal/auth"
	"github.com/deciflow/deciflow/internal/concrete"
	"github.com/deciflow/deciflow/internal/domain"
	"github.com/deciflow/deciflow/internal/schema"
	"github.com/deciflow/deciflow/internal/symbolic"
	"github.com/deciflow/deciflow/internal/telemetry"
)

type createFlowRequest struct {
	Name        string        `json:"flowName"`
	Description string        `json:"flowDescription"`
	Nodes       []domain.Node `json:"nodes"`
}

func (s *Server) handleCreateFlow(w http.ResponseWriter, r *http.Request) {
	var req createFlowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, domain.ErrCodeInvalidPayload, "malformed JSON body")
		return
	}

	userID, _ := auth.UserID(r.Context())
	now := time.Now().UTC()
	flow := domain.Flow{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     userID,
		Nodes:       req.Nodes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := flow.ValidateBasic(); err != nil {
		writeDomainError(w, err)
		return
	}
	if err := s.store.SaveFlow(r.Context(), flow); err != nil {
		s.logger.Error().Err(err).Msg("failed to save flow")
		writeError(w, http.StatusInternalServerError, domain.ErrCodeDatabaseUnavailable, "failed to persist flow")
		return
	}

	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(flow)
}

func (s *Server) handleGetFlow(w http.ResponseWriter, r *http.Request) {
	flow, err := s.store.GetFlow(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(flow)
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	flow, err := s.store.GetFlow(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, domain.ErrCodeInvalidPayload, "malformed JSON body")
		return
	}

	start, ok := flow.StartNode()
	if !ok {
		writeError(w, http.StatusBadRequest, domain.ErrCodeInvalidFlow, "flow has no START node")
		return
	}
	validated, err := schema.New(start.Start.Inputs).Validate(payload)
	if err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_ = json.NewEncoder(w).Encode(ve)
			return
		}
		writeError(w, http.StatusUnprocessableEntity, domain.ErrCodeInvalidPayload, err.Error())
		return
	}

	result, err := concrete.NewExecutor(&flow, s.cache).Run(validated)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.metrics.RecordTest(id)
	_ = json.NewEncoder(w).Encode(result)
}

type symbolicTestResponse struct {
	Report          domain.SymbolicReport `json:"report"`
	EvolutionIndex  float64               `json:"evolutionIndex"`
	Inconsistencies float64               `json:"inconsistenciesRatio"`
}

func (s *Server) handleSymbolicTest(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	flow, err := s.store.GetFlow(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := flow.ValidateForSymbolic(); err != nil {
		writeDomainError(w, err)
		return
	}

	overall := s.solverTimeout * 50
	ctx, cancel := context.WithTimeout(r.Context(), overall)
	defer cancel()

	explorer := symbolic.NewExplorer(&flow, s.cache, int(s.solverTimeout.Milliseconds()))
	started := time.Now()
	future, err := s.pool.Submit(ctx, func(jobCtx context.Context) (any, error) {
		return explorer.Run(jobCtx)
	})
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, domain.ErrCodeDatabaseUnavailable, "worker pool unavailable")
		return
	}
	raw, err := future.Wait(ctx)
	duration := time.Since(started)
	s.metrics.ObserveRunDuration(id, duration)

	report, _ := raw.(domain.SymbolicReport)

	var timeoutErr *domain.SymbolicTimeoutError
	if errors.As(err, &timeoutErr) {
		s.metrics.RecordSymbolicTimeout(id)
		s.metrics.RecordError(domain.ErrCodeSymbolicTimeout)
		writeDomainError(w, domain.NewDomainError(domain.ErrCodeSymbolicTimeout, timeoutErr.Error(), err))
		return
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}

	prevWindow, err := s.store.GetWindow(r.Context(), id)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load telemetry window")
	}
	exec := domain.Summarize(id, report, time.Now())
	if _, err := s.store.AppendSymbolicExecution(r.Context(), exec); err != nil {
		s.logger.Error().Err(err).Msg("failed to persist symbolic execution summary")
	}

	summary := telemetry.Push(prevWindow, exec)
	summary.Inconsistencies = telemetry.InconsistenciesRatio(report, flow)
	s.metrics.SetEvolutionIndex(id, summary.EvolutionIndex)
	s.metrics.SetInconsistenciesRatio(id, summary.Inconsistencies)

	_ = json.NewEncoder(w).Encode(symbolicTestResponse{
		Report:          report,
		EvolutionIndex:  summary.EvolutionIndex,
		Inconsistencies: summary.Inconsistencies,
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, domain.ErrCodeDatabaseUnavailable, "storage unavailable")
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"code": code, "message": message})
}

func writeDomainError(w http.ResponseWriter, err error) {
	var de *domain.DomainError
	if errors.As(err, &de) {
		switch de.Code {
		case domain.ErrCodeNotFound:
			writeError(w, http.StatusNotFound, de.Code, de.Message)
		case domain.ErrCodeInvalidFlow, domain.ErrCodeInvalidObjectID:
			writeError(w, http.StatusBadRequest, de.Code, de.Message)
		case domain.ErrCodeInvalidPayload:
			writeError(w, http.StatusUnprocessableEntity, de.Code, de.Message)
		case domain.ErrCodeSymbolicTimeout:
			writeError(w, http.StatusGatewayTimeout, de.Code, de.Message)
		case domain.ErrCodeDatabaseUnavailable:
			writeError(w, http.StatusServiceUnavailable, de.Code, de.Message)
		default:
			writeError(w, http.StatusInternalServerError, de.Code, de.Message)
		}
		return
	}
	var re *domain.RuntimeError
	if errors.As(err, &re) {
		writeError(w, http.StatusUnprocessableEntity, domain.ErrCodeRuntimeError, re.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, "INTERNAL", err.Error())
}
