// internal/app/features/rpc/handler.go
package rpc

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dalemusser/retroboard/internal/app/service/roomservice"
	"github.com/dalemusser/retroboard/internal/app/system/apperr"
	"github.com/dalemusser/retroboard/internal/app/system/auditlog"
	"github.com/dalemusser/retroboard/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// maxInputBytes caps a procedure's request body.
const maxInputBytes = 1 << 20

// Handler serves the typed JSON procedures.
type Handler struct {
	Log   *zap.Logger
	procs map[string]procedure
}

// NewHandler registers the room procedures backed by svc.
func NewHandler(svc *roomservice.Service, logger *zap.Logger) *Handler {
	return &Handler{
		Log:   logger,
		procs: roomProcedures(svc),
	}
}

type successEnvelope struct {
	Result struct {
		Data any `json:"data"`
	} `json:"result"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

// Serve handles /api/trpc/{procedure}.
//
// Queries accept their input as ?input=<json> on GET or as the POST body.
// Mutations are POST only.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "procedure")
	proc, ok := h.procs[name]
	if !ok {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "No procedure found on path \""+name+"\"")
		return
	}

	var raw json.RawMessage
	switch r.Method {
	case http.MethodGet:
		if proc.kind != kindQuery {
			w.Header().Set("Allow", http.MethodPost)
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_SUPPORTED", "Mutations must be sent with POST")
			return
		}
		raw = json.RawMessage(r.URL.Query().Get("input"))
	case http.MethodPost:
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxInputBytes))
		if err != nil {
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				writeError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Input is too large")
				return
			}
			h.fail(w, name, apperr.BadRequest("could not read input"))
			return
		}
		raw = body
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_SUPPORTED", "Unsupported method")
		return
	}

	actor, signedIn := authz.ActorFrom(r)
	if proc.protected && !signedIn {
		h.fail(w, name, apperr.Unauthenticated("You must be signed in"))
		return
	}

	ctx := auditlog.WithRequest(r.Context(), r)
	out, err := proc.call(ctx, actor, raw)
	if err != nil {
		h.fail(w, name, err)
		return
	}

	var env successEnvelope
	env.Result.Data = out
	writeJSON(w, http.StatusOK, env)
}

func (h *Handler) fail(w http.ResponseWriter, procedure string, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal {
		h.Log.Error("procedure failed", zap.String("procedure", procedure), zap.Error(err))
	} else {
		h.Log.Debug("procedure rejected",
			zap.String("procedure", procedure),
			zap.String("code", kind.Code()),
			zap.String("message", apperr.Message(err)))
	}
	writeError(w, kind.HTTPStatus(), kind.Code(), apperr.Message(err))
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorEnvelope{Error: errorBody{Code: code, Message: msg}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes an error envelope for a request rejected before it
// reached a procedure, e.g. by CSRF protection.
func WriteError(w http.ResponseWriter, status int, code, msg string) {
	writeError(w, status, code, msg)
}
