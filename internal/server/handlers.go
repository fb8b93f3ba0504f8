package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/your-org/umts-radio-core/internal/ue"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// ueSummary is the /ues list/detail representation; it is a read-only
// snapshot, not the live *ue.UE.
type ueSummary struct {
	URNTI   uint32         `json:"urnti"`
	CRNTI   uint16         `json:"crnti"`
	State   string         `json:"state"`
	IdleFor string         `json:"idle_for"`
	Rabs    map[int]string `json:"rabs,omitempty"`
	FachRBs []int          `json:"fach_rbs,omitempty"`
	DchRBs  []int          `json:"dch_rbs,omitempty"`
}

func rabStatusString(s ue.RabStatus) string {
	switch s {
	case ue.RabIdle:
		return "idle"
	case ue.RabPending:
		return "pending"
	case ue.RabAllocated:
		return "allocated"
	case ue.RabDeactPending:
		return "deact_pending"
	case ue.RabFailure:
		return "failure"
	default:
		return "?"
	}
}

func summarize(u *ue.UE) ueSummary {
	sum := ueSummary{
		URNTI:   u.URNTI,
		CRNTI:   u.CRNTI,
		State:   u.State().String(),
		IdleFor: u.IdleSince(time.Now()).String(),
	}
	if len(u.Rabs) > 0 {
		sum.Rabs = make(map[int]string, len(u.Rabs))
		for rbID, info := range u.Rabs {
			sum.Rabs[rbID] = rabStatusString(info.Status)
		}
	}
	for rbID := range u.FachBearers {
		sum.FachRBs = append(sum.FachRBs, rbID)
	}
	for rbID := range u.DchBearers {
		sum.DchRBs = append(sum.DchRBs, rbID)
	}
	return sum
}

func (s *Server) handleListUEs(w http.ResponseWriter, r *http.Request) {
	all := s.ues.All()
	summaries := make([]ueSummary, 0, len(all))
	for _, u := range all {
		summaries = append(summaries, summarize(u))
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(summaries),
		"ues":   summaries,
	})
}

func (s *Server) handleGetUE(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "urnti")
	urnti, err := strconv.ParseUint(raw, 0, 32)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "urnti must be a number", err)
		return
	}
	u, ok := s.ues.FindByURNTI(uint32(urnti))
	if !ok {
		s.respondError(w, http.StatusNotFound, "no such UE", nil)
		return
	}
	s.respondJSON(w, http.StatusOK, summarize(u))
}

func (s *Server) handleMACStats(w http.ResponseWriter, r *http.Request) {
	stateCounts := map[string]int{}
	for _, u := range s.ues.All() {
		stateCounts[u.State().String()]++
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"ue_count":       s.ues.Count(),
		"ues_by_state":   stateCounts,
	})
}
