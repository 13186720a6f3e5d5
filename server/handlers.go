package server

import (
	"net/http"
	"time"

	"github.com/teranos/cersei/version"
)

// HandleHealth serves health check endpoint with version info
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	versionInfo := version.Get()
	health := map[string]interface{}{
		"status":         "ok",
		"version":        versionInfo.Version,
		"commit":         versionInfo.CommitHash,
		"build_time":     versionInfo.BuildTime,
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
	}
	writeJSON(w, http.StatusOK, health)
}

// HandleEntities serves the entity projection of the current snapshots of ids.
// Unknown or never-committed ids are reported as missing.
func (s *Server) HandleEntities(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	ids, err := ParseEntityIDs(r.URL.Query().Get("ids"))
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	snaps, err := s.store.CurrentSnapshots(r.Context(), ids)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	entities := make(map[string]interface{}, len(ids))
	for _, id := range ids {
		entities[EntityID(id)] = missingEntity(id)
	}
	for _, snap := range snaps {
		doc, err := ProjectEntity(snap)
		if err != nil {
			s.writeStoreError(w, r, err)
			return
		}
		entities[EntityID(snap.EntryID)] = doc
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entities": entities,
		"success":  1,
	})
}

type revisionResponse struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Current   bool      `json:"current"`
}

// HandleEntryRevisions lists the revisions of one entry, oldest first.
func (s *Server) HandleEntryRevisions(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	entryID, err := parseID(r.PathValue("id"), "entry")
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	revs, err := s.store.Revisions(r.Context(), entryID)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	if len(revs) == 0 {
		writeError(w, http.StatusNotFound, "entry has no revisions")
		return
	}

	out := make([]revisionResponse, len(revs))
	for i, rev := range revs {
		out[i] = revisionResponse{ID: rev.ID, CreatedAt: rev.CreatedAt.UTC(), Current: rev.Current}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entry_id":  entryID,
		"entity":    EntityID(entryID),
		"revisions": out,
	})
}

// HandleRevision serves the stored snapshot of a revision as is.
func (s *Server) HandleRevision(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	revisionID, err := parseID(r.PathValue("id"), "revision")
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	snap, err := s.store.Snapshot(r.Context(), revisionID)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(snap))
}
