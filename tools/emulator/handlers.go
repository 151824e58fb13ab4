package emulator

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/gorilla/mux"
	"github.com/raywall/deta-toolkit/detabase"
	"github.com/raywall/deta-toolkit/pkg/metrics"
	"github.com/raywall/deta-toolkit/tools/emulator/storage"
)

// route extrai namespace ("projeto/base") e chave já decodificados.
func route(r *http.Request) (ns, key string, err error) {
	vars := mux.Vars(r)
	project, err := url.PathUnescape(vars["project"])
	if err != nil {
		return "", "", err
	}
	base, err := url.PathUnescape(vars["base"])
	if err != nil {
		return "", "", err
	}
	if k, ok := vars["key"]; ok {
		if key, err = url.PathUnescape(k); err != nil {
			return "", "", err
		}
	}
	return project + "/" + base, key, nil
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	ns, key, err := route(r)
	if err != nil {
		writeErrors(w, http.StatusBadRequest, "Invalid path")
		return
	}

	item, err := s.store.Get(r.Context(), ns, key)
	if errors.Is(err, storage.ErrNotFound) {
		writeErrors(w, http.StatusNotFound, "Key not found")
		return
	}
	if err != nil {
		s.storageError(w, err, "get")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	ns, key, err := route(r)
	if err != nil {
		writeErrors(w, http.StatusBadRequest, "Invalid path")
		return
	}
	if err := s.store.Delete(r.Context(), ns, key); err != nil {
		s.storageError(w, err, "delete")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"key": key})
}

type itemsPartition struct {
	Items []any `json:"items"`
}

type putResponse struct {
	Processed *itemsPartition `json:"processed,omitempty"`
	Failed    *itemsPartition `json:"failed,omitempty"`
}

// handlePut grava até 25 itens. Itens que não são objetos, ou com "key"
// não string, vão para failed; os demais são gravados juntos.
func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	ns, _, err := route(r)
	if err != nil {
		writeErrors(w, http.StatusBadRequest, "Invalid path")
		return
	}

	var body struct {
		Items []json.RawMessage `json:"items"`
	}
	if err := decodeBody(w, r, &body); err != nil || body.Items == nil {
		writeErrors(w, http.StatusBadRequest, "Bad request")
		return
	}
	if len(body.Items) > detabase.MaxBatchSize {
		writeErrors(w, http.StatusBadRequest, "Number of items in the request must be less than 26")
		return
	}
	_ = s.metrics.Histogram(metrics.EmulatorBatchSize, float64(len(body.Items)), []string{"base:" + mux.Vars(r)["base"]})

	var valid []storage.Item
	var failed []any
	for _, raw := range body.Items {
		item, ok := s.prepare(raw)
		if !ok {
			var v any
			_ = json.Unmarshal(raw, &v)
			failed = append(failed, v)
			continue
		}
		valid = append(valid, item)
	}

	resp := putResponse{}
	if len(valid) > 0 {
		if err := s.store.PutMany(r.Context(), ns, valid); err != nil {
			s.logger.Error().Err(err).Str("ns", ns).Int("items", len(valid)).Msg("batch put failed")
			for _, item := range valid {
				failed = append(failed, item)
			}
		} else {
			processed := make([]any, len(valid))
			for i, item := range valid {
				processed[i] = item
			}
			resp.Processed = &itemsPartition{Items: processed}
		}
	}
	if len(failed) > 0 {
		resp.Failed = &itemsPartition{Items: failed}
	}
	writeJSON(w, http.StatusMultiStatus, resp)
}

func (s *Server) handleInsert(w http.ResponseWriter, r *http.Request) {
	ns, _, err := route(r)
	if err != nil {
		writeErrors(w, http.StatusBadRequest, "Invalid path")
		return
	}

	var body struct {
		Item json.RawMessage `json:"item"`
	}
	if err := decodeBody(w, r, &body); err != nil || body.Item == nil {
		writeErrors(w, http.StatusBadRequest, "Bad request")
		return
	}
	item, ok := s.prepare(body.Item)
	if !ok {
		writeErrors(w, http.StatusBadRequest, "Item must be an object with a string key")
		return
	}

	err = s.store.Insert(r.Context(), ns, item)
	if errors.Is(err, storage.ErrExists) {
		writeErrors(w, http.StatusConflict, "Key already exists")
		return
	}
	if err != nil {
		s.storageError(w, err, "insert")
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ns, key, err := route(r)
	if err != nil {
		writeErrors(w, http.StatusBadRequest, "Invalid path")
		return
	}

	var u detabase.Update
	if err := decodeBody(w, r, &u); err != nil {
		writeErrors(w, http.StatusBadRequest, "Bad request")
		return
	}
	if err := checkUpdate(&u); err != nil {
		writeErrors(w, http.StatusBadRequest, err.Error())
		return
	}

	var applyErr error
	_, err = s.store.Update(r.Context(), ns, key, func(item storage.Item) error {
		applyErr = applyUpdate(item, &u)
		return applyErr
	})
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeErrors(w, http.StatusNotFound, "Key not found")
	case applyErr != nil:
		writeErrors(w, http.StatusBadRequest, applyErr.Error())
	case err != nil:
		s.storageError(w, err, "update")
	default:
		writeJSON(w, http.StatusOK, map[string]any{
			"key":       key,
			"set":       u.Sets(),
			"increment": u.Increments(),
			"append":    u.Appends(),
			"prepend":   u.Prepends(),
			"delete":    u.Deletes(),
		})
	}
}

// prepare decodifica um item recebido e garante sua chave: gera uma quando
// ausente ou vazia, recusa quando não é string.
func (s *Server) prepare(raw json.RawMessage) (storage.Item, bool) {
	var item storage.Item
	if err := json.Unmarshal(raw, &item); err != nil || item == nil {
		return nil, false
	}
	switch k := item["key"].(type) {
	case nil:
		item["key"] = s.newKey()
	case string:
		if k == "" {
			item["key"] = s.newKey()
		}
	default:
		return nil, false
	}
	return item, true
}

func (s *Server) storageError(w http.ResponseWriter, err error, op string) {
	s.logger.Error().Err(err).Str("op", op).Msg("storage error")
	writeErrors(w, http.StatusInternalServerError, "Internal server error")
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	return dec.Decode(v)
}
