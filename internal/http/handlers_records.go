package http

import (
	"fmt"
	"net/http"

	"giftbook/internal/core"
	applog "giftbook/internal/log"
)

const defaultPageSize = 15

// handleListRecords returns one page of records, or every record when
// all=true. sort=name orders the full listing by guest name.
func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if queryBool(q, "all") {
		recs, err := s.ledger.List(r.Context(), q.Get("sort") == "name")
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondOK(w, s.views.records(recs))
		return
	}

	page, err := queryInt(q, "page", 1)
	if err != nil {
		respondError(w, r, err)
		return
	}
	size, err := queryInt(q, "size", defaultPageSize)
	if err != nil {
		respondError(w, r, err)
		return
	}

	p, err := s.ledger.ListPage(r.Context(), page, size)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, s.views.page(p))
}

func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	var req recordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		respondError(w, r, err)
		return
	}

	rec, err := s.ledger.Create(r.Context(), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	applog.LogRecordChanged(r.Context(), applog.OpCreate, rec.ID, rec.GuestName, rec.Amount.Cents, int(rec.PaymentType))
	respondCreated(w, s.views.record(rec))
}

// handleCreateBatch stores every record or none.
func (s *Server) handleCreateBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if len(req.Records) == 0 {
		respondError(w, r, newBadRequest("No records given", nil))
		return
	}
	if len(req.Records) > maxBatchSize {
		respondError(w, r, newBadRequest(fmt.Sprintf("At most %d records per batch", maxBatchSize), nil))
		return
	}

	inputs := make([]core.RecordInput, 0, len(req.Records))
	for i, rr := range req.Records {
		in, err := rr.toInput()
		if err != nil {
			respondError(w, r, fmt.Errorf("record %d: %w", i+1, err))
			return
		}
		inputs = append(inputs, in)
	}

	ids, err := s.ledger.CreateBatch(r.Context(), inputs)
	if err != nil {
		respondError(w, r, err)
		return
	}
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Records imported", "count", len(ids))
	respondCreated(w, map[string]any{"ids": ids, "count": len(ids)})
}

func (s *Server) handleSearchRecords(w http.ResponseWriter, r *http.Request) {
	c, err := parseCriteria(r.URL.Query())
	if err != nil {
		respondError(w, r, err)
		return
	}
	recs, err := s.ledger.Search(r.Context(), c)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, s.views.records(recs))
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	id, err := recordID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	rec, err := s.ledger.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, s.views.record(rec))
}

func (s *Server) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	id, err := recordID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req recordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		respondError(w, r, err)
		return
	}

	rec, err := s.ledger.Update(r.Context(), id, in, updatedBy(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	applog.LogRecordChanged(r.Context(), applog.OpUpdate, rec.ID, rec.GuestName, rec.Amount.Cents, int(rec.PaymentType))
	respondOK(w, s.views.record(rec))
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	id, err := recordID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.ledger.Delete(r.Context(), id, updatedBy(r)); err != nil {
		respondError(w, r, err)
		return
	}
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Record deleted", applog.FieldRecordID, id)
	respondOK(w, map[string]int64{"id": id})
}

// handleRecordPage tells the client which page holds a record, so a search
// hit can be shown in place.
func (s *Server) handleRecordPage(w http.ResponseWriter, r *http.Request) {
	id, err := recordID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	size, err := queryInt(r.URL.Query(), "size", defaultPageSize)
	if err != nil {
		respondError(w, r, err)
		return
	}
	page, err := s.ledger.RecordPage(r.Context(), id, size)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, map[string]int{"page": page})
}

func (s *Server) handleRecordHistory(w http.ResponseWriter, r *http.Request) {
	id, err := recordID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	hs, err := s.ledger.History(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, s.views.history(hs))
}

func (s *Server) handleAllHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r.URL.Query(), "limit", 0)
	if err != nil {
		respondError(w, r, err)
		return
	}
	hs, err := s.ledger.AllHistory(r.Context(), limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, s.views.history(hs))
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	st, err := s.ledger.Statistics(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, statistics(st))
}
