package ledger

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// Handler expone un Client por HTTP con el mismo wire format que consume
// HTTPClient. Un proceso con nodo raft embebido lo monta para que otras
// instancias del backend le deleguen sus transacciones.
func Handler(c Client) http.Handler {
	r := chi.NewRouter()

	writeTx := func(w http.ResponseWriter, tx string, err error) {
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, txResponse{TxRef: tx})
		case errors.Is(err, ErrNotFound):
			writeJSON(w, http.StatusNotFound, txResponse{Error: "not found"})
		case errors.Is(err, ErrExists):
			writeJSON(w, http.StatusConflict, txResponse{Error: "exists"})
		case errors.Is(err, ErrDeleted):
			writeJSON(w, http.StatusConflict, txResponse{Error: "deleted"})
		default:
			writeJSON(w, http.StatusInternalServerError, txResponse{Error: err.Error()})
		}
	}

	r.Post("/ledger/records", func(w http.ResponseWriter, req *http.Request) {
		var in submitRequest
		if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
			writeJSON(w, http.StatusBadRequest, txResponse{Error: "bad request"})
			return
		}
		tx, err := c.Add(req.Context(), in.ID, in.Digest)
		writeTx(w, tx, err)
	})

	r.Put("/ledger/records/{id}", func(w http.ResponseWriter, req *http.Request) {
		id, ok := pathID(w, req)
		if !ok {
			return
		}
		var in submitRequest
		if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
			writeJSON(w, http.StatusBadRequest, txResponse{Error: "bad request"})
			return
		}
		tx, err := c.Update(req.Context(), id, in.Digest)
		writeTx(w, tx, err)
	})

	r.Delete("/ledger/records/{id}", func(w http.ResponseWriter, req *http.Request) {
		id, ok := pathID(w, req)
		if !ok {
			return
		}
		tx, err := c.Delete(req.Context(), id)
		writeTx(w, tx, err)
	})

	r.Get("/ledger/records/{id}", func(w http.ResponseWriter, req *http.Request) {
		id, ok := pathID(w, req)
		if !ok {
			return
		}
		e, err := c.Get(req.Context(), id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				writeJSON(w, http.StatusNotFound, txResponse{Error: "not found"})
				return
			}
			writeJSON(w, http.StatusInternalServerError, txResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, e)
	})

	r.Get("/ledger/owners/{owner}", func(w http.ResponseWriter, req *http.Request) {
		ids, err := c.ListByOwner(req.Context(), chi.URLParam(req, "owner"))
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, txResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ids": ids})
	})

	return r
}

func pathID(w http.ResponseWriter, req *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(req, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, txResponse{Error: "bad id"})
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
