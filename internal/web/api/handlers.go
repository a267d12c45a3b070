package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/conduit-lang/schemagen/internal/document"
	"github.com/conduit-lang/schemagen/internal/processor"
	"github.com/conduit-lang/schemagen/internal/schema"
	"github.com/conduit-lang/schemagen/internal/store"
)

// errorResponse is the body of every error reply
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// summary describes one document in a listing
type summary struct {
	Name          string `json:"name"`
	Class         string `json:"class"`
	Fields        int    `json:"fields"`
	LatestVersion int    `json:"latestVersion,omitempty"`
}

var contentTypes = map[document.Format]string{
	document.FormatJSON:    "application/json; charset=utf-8",
	document.FormatYAML:    "application/yaml; charset=utf-8",
	document.FormatMsgPack: "application/msgpack",
}

func (a *API) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"classes": a.registry.Count(),
		"store":   a.store != nil,
	})
}

func (a *API) listDocuments(kind schema.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		classes := a.registry.ListKind(kind)
		sort.Slice(classes, func(i, j int) bool {
			return classes[i].Name < classes[j].Name
		})

		items := make([]summary, 0, len(classes))
		for _, c := range classes {
			item := summary{
				Name:   c.Name,
				Class:  string(c.Ref),
				Fields: len(c.Fields) + len(c.SearchFields),
			}
			if kind == schema.KindIndex {
				item.Fields = len(c.SearchFields)
			}
			if a.store != nil {
				rec, err := a.store.Latest(r.Context(), documentKind(kind), c.Name)
				switch {
				case err == nil:
					item.LatestVersion = rec.Version
				case !store.IsNotFound(err):
					a.fail(w, r, http.StatusInternalServerError, err)
					return
				}
			}
			items = append(items, item)
		}

		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	}
}

func (a *API) showDocument(kind schema.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		ref, ok := a.registry.Lookup(kind, name)
		if !ok {
			a.fail(w, r, http.StatusNotFound, fmt.Errorf("%s %s not found", kind, name))
			return
		}

		format, err := document.ParseFormat(r.URL.Query().Get("format"))
		if err != nil {
			a.fail(w, r, http.StatusBadRequest, err)
			return
		}

		if v := r.URL.Query().Get("version"); v != "" {
			a.showVersion(w, r, kind, name, v, format)
			return
		}

		var doc *document.Document
		if kind == schema.KindCollection {
			doc, err = a.processor.ProcessCollection(ref)
		} else {
			doc, err = a.processor.ProcessIndex(ref)
		}
		if err != nil {
			status := http.StatusInternalServerError
			if processor.IsIncompletePrimaryKeyOrder(err) || processor.IsCyclicEmbedding(err) || schema.IsUnknownClass(err) {
				status = http.StatusUnprocessableEntity
			}
			a.fail(w, r, status, err)
			return
		}

		var body []byte
		if format == document.FormatJSON {
			body, err = document.Canonical(doc)
		} else {
			body, err = document.Encode(doc, format)
		}
		if err != nil {
			a.fail(w, r, http.StatusInternalServerError, err)
			return
		}
		if notModified(w, r, store.Digest(body)) {
			return
		}

		w.Header().Set("Content-Type", contentTypes[format])
		w.WriteHeader(http.StatusOK)
		w.Write(body)
	}
}

func (a *API) showVersion(w http.ResponseWriter, r *http.Request, kind schema.Kind, name, raw string, format document.Format) {
	if a.store == nil {
		a.fail(w, r, http.StatusNotFound, errors.New("document history is not enabled"))
		return
	}
	if format != document.FormatJSON {
		a.fail(w, r, http.StatusBadRequest, errors.New("stored versions are only served as json"))
		return
	}
	version, err := strconv.Atoi(raw)
	if err != nil || version < 1 {
		a.fail(w, r, http.StatusBadRequest, fmt.Errorf("invalid version %q", raw))
		return
	}

	rec, err := a.store.Get(r.Context(), documentKind(kind), name, version)
	if store.IsNotFound(err) {
		a.fail(w, r, http.StatusNotFound, err)
		return
	}
	if err != nil {
		a.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	if notModified(w, r, rec.Digest) {
		return
	}

	w.Header().Set("Content-Type", contentTypes[document.FormatJSON])
	w.Header().Set("X-Document-Version", strconv.Itoa(rec.Version))
	w.WriteHeader(http.StatusOK)
	w.Write(rec.Payload)
}

// notModified sets the ETag of the response body and answers 304 when the
// client already holds that exact representation. The digest covers the
// encoded body, so every format has its own tag.
func notModified(w http.ResponseWriter, r *http.Request, digest string) bool {
	etag := `"` + digest + `"`
	w.Header().Set("ETag", etag)
	for _, candidate := range strings.Split(r.Header.Get("If-None-Match"), ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == etag {
			w.WriteHeader(http.StatusNotModified)
			return true
		}
	}
	return false
}

func (a *API) fail(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		a.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeJSON(w, status, errorResponse{
		Error:   "error",
		Message: err.Error(),
		Code:    errorCode(status),
	})
}

func errorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "BAD_REQUEST"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusUnprocessableEntity:
		return "UNPROCESSABLE_ENTITY"
	default:
		return "INTERNAL_ERROR"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypes[document.FormatJSON])
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func documentKind(kind schema.Kind) document.Kind {
	if kind == schema.KindIndex {
		return document.KindIndex
	}
	return document.KindCollection
}
