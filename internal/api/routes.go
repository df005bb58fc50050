package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/cnlance/rulesd/internal/rule"
)

func (s *APIServer) handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"version": s.version,
	})
}

// handleListRules renders the collection as one "TYPE,value" line per rule
// in insertion order, the classical ruleset format downstream engines
// ingest.
func (s *APIServer) handleListRules(w http.ResponseWriter, r *http.Request) {
	rules, revision := s.store.List()

	body, ok := s.listCache.Get(revision)
	if !ok {
		var b strings.Builder
		for _, ru := range rules {
			b.WriteString(ru.String())
			b.WriteByte('\n')
		}
		body = []byte(b.String())
		s.listCache.Add(revision, body)
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write(body)
}

func (s *APIServer) handleAddRule(w http.ResponseWriter, r *http.Request) {
	ru, ok := decodeRule(w, r)
	if !ok {
		return
	}
	if err := s.store.Add(ru); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (s *APIServer) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	ru, ok := decodeRule(w, r)
	if !ok {
		return
	}
	if err := s.store.Remove(ru); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decodeRule parses the request body. Malformed JSON and unknown rule type
// tokens are both client errors; the rule's grammar is checked later by the
// store.
func decodeRule(w http.ResponseWriter, r *http.Request) (rule.Rule, bool) {
	var ru rule.Rule
	if err := json.NewDecoder(r.Body).Decode(&ru); err != nil {
		writeErrorStatus(w, http.StatusBadRequest, err)
		return rule.Rule{}, false
	}
	return ru, true
}

func writeError(w http.ResponseWriter, err error) {
	writeErrorStatus(w, statusForError(err), err)
}

func writeErrorStatus(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": err.Error(),
	})
}

func statusForError(err error) int {
	switch {
	case rule.IsValidationError(err):
		return http.StatusBadRequest
	case errors.Is(err, rule.ErrDuplicateRule):
		return http.StatusConflict
	case errors.Is(err, rule.ErrRuleNotFound):
		return http.StatusNotFound
	default:
		// Persistence failure. The in-memory mutation may have been applied;
		// clients should re-list to confirm.
		return http.StatusInternalServerError
	}
}
