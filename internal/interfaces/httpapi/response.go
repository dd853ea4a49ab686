package httpapi

import (
	"context"
	"net/http"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"github.com/riskibarqy/livescore-sync/internal/usecase"
)

const (
	apiVersion  = "2.0"
	errorDomain = "livescore-sync"
)

// envelope follows the Google JSON style guide: data on success, error
// otherwise, never both.
type envelope struct {
	APIVersion string     `json:"apiVersion"`
	Data       any        `json:"data,omitempty"`
	Error      *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Status  string      `json:"status"`
	Errors  []errorItem `json:"errors,omitempty"`
}

type errorItem struct {
	Domain  string `json:"domain"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type errorKind struct {
	HTTPStatus int
	Reason     string
	Status     string
	// Public replaces the error text for kinds whose cause may carry
	// connection strings or SQL.
	Public string
}

var (
	kindInvalidInput = errorKind{HTTPStatus: http.StatusBadRequest, Reason: "invalidInput", Status: "INVALID_ARGUMENT"}
	kindNotFound     = errorKind{HTTPStatus: http.StatusNotFound, Reason: "notFound", Status: "NOT_FOUND"}
	kindUnavailable  = errorKind{HTTPStatus: http.StatusServiceUnavailable, Reason: "dependencyUnavailable", Status: "UNAVAILABLE", Public: "match store unavailable"}
	kindInternal     = errorKind{HTTPStatus: http.StatusInternalServerError, Reason: "internalError", Status: "INTERNAL", Public: "internal server error"}
)

// errorKinds is checked in order; the first matching sentinel wins.
var errorKinds = []struct {
	sentinel error
	kind     errorKind
}{
	{usecase.ErrInvalidInput, kindInvalidInput},
	{usecase.ErrNotFound, kindNotFound},
	{usecase.ErrPersistence, kindUnavailable},
	{usecase.ErrDependencyUnavailable, kindUnavailable},
}

func classifyError(err error) errorKind {
	for _, k := range errorKinds {
		if crerr.Is(err, k.sentinel) {
			return k.kind
		}
	}
	return kindInternal
}

func writeJSON(w http.ResponseWriter, status int, payload envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(payload)
}

func writeSuccess(_ context.Context, w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{APIVersion: apiVersion, Data: data})
}

func writeError(_ context.Context, w http.ResponseWriter, err error) {
	kind := classifyError(err)
	msg := kind.Public
	if msg == "" {
		msg = err.Error()
	}
	writeKind(w, kind, msg)
}

func writeInternalError(_ context.Context, w http.ResponseWriter) {
	writeKind(w, kindInternal, kindInternal.Public)
}

func writeKind(w http.ResponseWriter, kind errorKind, msg string) {
	writeJSON(w, kind.HTTPStatus, envelope{
		APIVersion: apiVersion,
		Error: &errorBody{
			Code:    kind.HTTPStatus,
			Message: msg,
			Status:  kind.Status,
			Errors:  []errorItem{{Domain: errorDomain, Reason: kind.Reason, Message: msg}},
		},
	})
}
