package server

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/teranos/cersei/errors"
	"github.com/teranos/cersei/storage"
	"github.com/teranos/cersei/wikidata"
)

// maxEntityIDs matches the per-request limit of wbgetentities.
const maxEntityIDs = 50

// EntityID renders an entry id as a catalog entity id.
func EntityID(entryID int64) string {
	return "C" + strconv.FormatInt(entryID, 10)
}

// ParseEntityIDs parses a pipe-separated list of catalog entity ids
// ("C12|C13"). Duplicates are dropped; order is kept.
func ParseEntityIDs(raw string) ([]int64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, errors.NewInvalidRequestError("ids is required")
	}
	var out []int64
	seen := make(map[int64]bool)
	for _, part := range strings.Split(raw, "|") {
		part = strings.TrimSpace(part)
		if len(part) < 2 || (part[0] != 'C' && part[0] != 'c') {
			return nil, errors.NewInvalidRequestError("bad entity id %q", part)
		}
		id, err := strconv.ParseInt(part[1:], 10, 64)
		if err != nil || id <= 0 {
			return nil, errors.NewInvalidRequestError("bad entity id %q", part)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	if len(out) > maxEntityIDs {
		return nil, errors.NewInvalidRequestError("at most %d ids per request, got %d", maxEntityIDs, len(out))
	}
	return out, nil
}

// ProjectEntity turns a stored snapshot into its public entity form: the
// internal block is removed and the identity fields are added.
func ProjectEntity(snap storage.EntitySnapshot) (map[string]interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(snap.JSON)))
	dec.UseNumber()
	var doc map[string]interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Wrapf(err, "snapshot of revision %d is not a JSON object", snap.RevisionID)
	}
	if doc == nil {
		return nil, errors.Newf("snapshot of revision %d is null", snap.RevisionID)
	}

	for _, key := range wikidata.InternalKeys {
		delete(doc, key)
	}
	id := EntityID(snap.EntryID)
	doc["id"] = id
	doc["title"] = id
	doc["lastrevid"] = snap.RevisionID
	doc["pageid"] = snap.EntryID
	doc["ns"] = 0
	return doc, nil
}

// missingEntity is the wbgetentities marker for an unknown id.
func missingEntity(entryID int64) map[string]interface{} {
	return map[string]interface{}{"id": EntityID(entryID), "missing": ""}
}

func parseID(raw, what string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.NewInvalidRequestError("bad %s id %q", what, raw)
	}
	return id, nil
}
