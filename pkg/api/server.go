// Package api exposes the voting engine over HTTP: read-only queries for
// proposals, tallies, and settings, plus the create/vote/execute commands and
// a prometheus metrics endpoint.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"quorix/pkg/voting"
	"quorix/pkg/voting/power"
)

// Server is the HTTP front of the governance service.
type Server struct {
	service   *voting.Service
	allowlist *power.Allowlist
	chain     voting.ChainReader
	authz     voting.Authorizer
	gatherer  prometheus.Gatherer
	logger    *slog.Logger
	router    *mux.Router
	server    *http.Server
}

// NewServer wires the routes. The allowlist is optional; when nil the
// membership endpoint is not registered. The gatherer is optional; when nil
// no /metrics endpoint is registered.
func NewServer(
	service *voting.Service,
	allowlist *power.Allowlist,
	chain voting.ChainReader,
	authz voting.Authorizer,
	gatherer prometheus.Gatherer,
	addr string,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		service:   service,
		allowlist: allowlist,
		chain:     chain,
		authz:     authz,
		gatherer:  gatherer,
		logger:    logger,
		router:    mux.NewRouter(),
	}
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := s.router

	r.HandleFunc("/api/v1/settings", s.handleGetSettings).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/settings", s.handleUpdateSettings).Methods(http.MethodPut)

	r.HandleFunc("/api/v1/proposals", s.handleListProposals).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/proposals", s.handleCreateProposal).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/proposals/{id:[0-9]+}", s.handleGetProposal).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/proposals/{id:[0-9]+}/tally", s.handleGetTally).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/proposals/{id:[0-9]+}/can-execute", s.handleCanExecute).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/proposals/{id:[0-9]+}/voters/{address}", s.handleGetVoter).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/proposals/{id:[0-9]+}/votes", s.handleVote).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/proposals/{id:[0-9]+}/execute", s.handleExecute).Methods(http.MethodPost)

	if s.allowlist != nil {
		r.HandleFunc("/api/v1/members", s.handleUpdateMembers).Methods(http.MethodPost)
	}
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
}

// Start serves until Shutdown is called or the listener fails.
func (s *Server) Start() error {
	s.logger.Info("api server listening", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

type settingsRequest struct {
	Caller                  string  `json:"caller"`
	Mode                    string  `json:"mode"`
	SupportThresholdPercent float64 `json:"support_threshold_percent"`
	MinParticipationPercent float64 `json:"min_participation_percent"`
	MinDuration             string  `json:"min_duration"`
	MinProposerPower        string  `json:"min_proposer_power"`
}

type settingsResponse struct {
	Mode                    string  `json:"mode"`
	SupportThresholdPercent float64 `json:"support_threshold_percent"`
	MinParticipationPercent float64 `json:"min_participation_percent"`
	MinDuration             string  `json:"min_duration"`
	MinProposerPower        string  `json:"min_proposer_power"`
}

func (s *Server) handleGetSettings(w http.ResponseWriter, _ *http.Request) {
	settings := s.service.Settings()
	s.writeJSON(w, http.StatusOK, settingsResponse{
		Mode:                    settings.Mode.String(),
		SupportThresholdPercent: settings.SupportThreshold.Percent(),
		MinParticipationPercent: settings.MinParticipation.Percent(),
		MinDuration:             settings.MinDuration.String(),
		MinProposerPower:        s.service.MinProposerPower().String(),
	})
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	mode, ok := voting.ParseVotingMode(req.Mode)
	if !ok {
		s.writeError(w, http.StatusBadRequest, errors.New("unknown voting mode: "+req.Mode))
		return
	}
	minDuration, err := time.ParseDuration(req.MinDuration)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	minPower := big.NewInt(0)
	if req.MinProposerPower != "" {
		if _, ok := minPower.SetString(req.MinProposerPower, 10); !ok {
			s.writeError(w, http.StatusBadRequest, errors.New("invalid min proposer power"))
			return
		}
	}
	err = s.service.UpdateSettings(req.Caller, voting.Settings{
		Mode:             mode,
		SupportThreshold: voting.PercentRatioFloat(req.SupportThresholdPercent),
		MinParticipation: voting.PercentRatioFloat(req.MinParticipationPercent),
		MinDuration:      minDuration,
		MinProposerPower: minPower,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.handleGetSettings(w, r)
}

type actionRequest struct {
	Target string `json:"target"`
	Value  string `json:"value,omitempty"`
	Data   []byte `json:"data,omitempty"`
}

type createProposalRequest struct {
	Caller            string          `json:"caller"`
	Metadata          string          `json:"metadata,omitempty"`
	Actions           []actionRequest `json:"actions,omitempty"`
	StartDate         uint64          `json:"start_date,omitempty"`
	EndDate           uint64          `json:"end_date,omitempty"`
	InitialChoice     string          `json:"initial_choice,omitempty"`
	TryEarlyExecution bool            `json:"try_early_execution,omitempty"`
}

func (s *Server) handleCreateProposal(w http.ResponseWriter, r *http.Request) {
	var req createProposalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	choice := voting.VoteNone
	if req.InitialChoice != "" {
		var ok bool
		if choice, ok = voting.ParseVoteOption(req.InitialChoice); !ok {
			s.writeError(w, http.StatusBadRequest, errors.New("unknown vote option: "+req.InitialChoice))
			return
		}
	}
	actions := make([]voting.Action, 0, len(req.Actions))
	for _, a := range req.Actions {
		value := big.NewInt(0)
		if a.Value != "" {
			if _, ok := value.SetString(a.Value, 10); !ok {
				s.writeError(w, http.StatusBadRequest, errors.New("invalid action value"))
				return
			}
		}
		actions = append(actions, voting.Action{Target: a.Target, Value: value, Data: a.Data})
	}

	id, err := s.service.CreateProposal(
		req.Caller,
		[]byte(req.Metadata),
		actions,
		req.StartDate,
		req.EndDate,
		choice,
		req.TryEarlyExecution,
	)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]uint64{"id": id})
}

func (s *Server) handleListProposals(w http.ResponseWriter, r *http.Request) {
	var (
		proposals []*voting.Proposal
		err       error
	)
	if r.URL.Query().Get("open") == "true" {
		proposals, err = s.service.ListOpenProposals()
	} else {
		proposals, err = s.service.ListProposals()
	}
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, proposals)
}

func (s *Server) handleGetProposal(w http.ResponseWriter, r *http.Request) {
	id, ok := s.proposalID(w, r)
	if !ok {
		return
	}
	proposal, err := s.service.GetProposal(id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	state, err := s.service.ProposalState(id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"proposal": proposal,
		"state":    state.String(),
	})
}

type tallyResponse struct {
	Yes                     string   `json:"yes"`
	No                      string   `json:"no"`
	Abstain                 string   `json:"abstain"`
	TotalPower              string   `json:"total_power"`
	SupportPercent          *float64 `json:"support_percent,omitempty"`
	WorstCaseSupportPercent *float64 `json:"worst_case_support_percent,omitempty"`
	ParticipationPercent    *float64 `json:"participation_percent,omitempty"`
}

func (s *Server) handleGetTally(w http.ResponseWriter, r *http.Request) {
	id, ok := s.proposalID(w, r)
	if !ok {
		return
	}
	proposal, err := s.service.GetProposal(id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	resp := tallyResponse{
		Yes:        proposal.Tally.Yes.String(),
		No:         proposal.Tally.No.String(),
		Abstain:    proposal.Tally.Abstain.String(),
		TotalPower: proposal.Tally.TotalPower.String(),
	}
	// Ratio queries fail on zero denominators; those fields are omitted
	// instead of being reported as 0% or 100%.
	if support, err := s.service.Support(id); err == nil {
		v := support.Percent()
		resp.SupportPercent = &v
	}
	if worst, err := s.service.WorstCaseSupport(id); err == nil {
		v := worst.Percent()
		resp.WorstCaseSupportPercent = &v
	}
	if participation, err := s.service.Participation(id); err == nil {
		v := participation.Percent()
		resp.ParticipationPercent = &v
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCanExecute(w http.ResponseWriter, r *http.Request) {
	id, ok := s.proposalID(w, r)
	if !ok {
		return
	}
	can, err := s.service.CanExecute(id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"can_execute": can})
}

func (s *Server) handleGetVoter(w http.ResponseWriter, r *http.Request) {
	id, ok := s.proposalID(w, r)
	if !ok {
		return
	}
	address := mux.Vars(r)["address"]
	choice, err := s.service.VoterChoice(id, address)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	canVote, err := s.service.CanVote(id, address)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"choice":   choice.String(),
		"can_vote": canVote,
	})
}

type voteRequest struct {
	Caller            string `json:"caller"`
	Choice            string `json:"choice"`
	TryEarlyExecution bool   `json:"try_early_execution,omitempty"`
}

func (s *Server) handleVote(w http.ResponseWriter, r *http.Request) {
	id, ok := s.proposalID(w, r)
	if !ok {
		return
	}
	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	choice, okChoice := voting.ParseVoteOption(req.Choice)
	if !okChoice {
		s.writeError(w, http.StatusBadRequest, errors.New("unknown vote option: "+req.Choice))
		return
	}
	if err := s.service.Vote(req.Caller, id, choice, req.TryEarlyExecution); err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	id, ok := s.proposalID(w, r)
	if !ok {
		return
	}
	if err := s.service.Execute(id); err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "executed"})
}

type membersRequest struct {
	Caller string   `json:"caller"`
	Add    []string `json:"add,omitempty"`
	Remove []string `json:"remove,omitempty"`
}

func (s *Server) handleUpdateMembers(w http.ResponseWriter, r *http.Request) {
	var req membersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if !s.authz.Authorize(req.Caller, voting.PermissionManageMembers) {
		s.writeError(w, http.StatusForbidden, voting.ErrNotAuthorized)
		return
	}
	height := s.chain.CurrentHeight()
	if len(req.Add) > 0 {
		if err := s.allowlist.Add(req.Add, height); err != nil {
			s.writeError(w, http.StatusConflict, err)
			return
		}
	}
	if len(req.Remove) > 0 {
		if err := s.allowlist.Remove(req.Remove, height); err != nil {
			s.writeError(w, http.StatusConflict, err)
			return
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) proposalID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return 0, false
	}
	return id, true
}

// writeServiceError maps engine errors onto HTTP status codes.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, voting.ErrProposalNotFound):
		s.writeError(w, http.StatusNotFound, err)
	case errors.Is(err, voting.ErrNotAuthorized):
		s.writeError(w, http.StatusForbidden, err)
	case errors.Is(err, voting.ErrProposalCreationForbidden),
		errors.Is(err, voting.ErrVoteCastForbidden),
		errors.Is(err, voting.ErrExecutionForbidden):
		s.writeError(w, http.StatusConflict, err)
	case errors.Is(err, voting.ErrDivisionByZero):
		s.writeError(w, http.StatusUnprocessableEntity, err)
	default:
		var ratioErr *voting.RatioOutOfBoundsError
		var dateErr *voting.DateOutOfBoundsError
		var durErr *voting.DurationOutOfBoundsError
		if errors.As(err, &ratioErr) || errors.As(err, &dateErr) || errors.As(err, &durErr) {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
		s.writeError(w, http.StatusInternalServerError, err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "err", err)
	}
}
