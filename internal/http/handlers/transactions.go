package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/hongminglow/finance-dashboard-be/internal/http/respond"
	"github.com/hongminglow/finance-dashboard-be/internal/models/dto"
	"github.com/hongminglow/finance-dashboard-be/internal/transactions"
)

// TransactionsHandler serves the filtered transaction table and its export.
type TransactionsHandler struct {
	repo transactions.Repository
	log  *zap.Logger
}

// NewTransactionsHandler constructs the handler. log may be nil.
func NewTransactionsHandler(repo transactions.Repository, log *zap.Logger) *TransactionsHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &TransactionsHandler{repo: repo, log: log}
}

// HandleList returns the filtered rows projected onto ?columns=.
func (h *TransactionsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	table, ok := h.query(w, r)
	if !ok {
		return
	}
	respond.JSON(w, http.StatusOK, "ok", dto.TransactionListResponse{
		Columns: table.Columns,
		Count:   len(table.Rows),
		Rows:    table.Records(),
	})
}

// HandleExport streams the filtered rows as a CSV or JSON attachment.
func (h *TransactionsHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	format, err := transactions.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	table, ok := h.query(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	contentType := "text/csv; charset=utf-8"
	if format == transactions.FormatJSON {
		contentType = "application/json"
		err = transactions.WriteJSON(&buf, table)
	} else {
		err = transactions.WriteCSV(&buf, table)
	}
	if err != nil {
		h.log.Error("encode export", zap.String("format", format), zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "Server error")
		return
	}

	filename := transactions.Filename(r.URL.Query().Get("filename"), format)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *TransactionsHandler) query(w http.ResponseWriter, r *http.Request) (transactions.Table, bool) {
	q := r.URL.Query()
	filter, err := transactions.ParseFilter(q)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return transactions.Table{}, false
	}
	columns, err := transactions.ParseColumns(q.Get("columns"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return transactions.Table{}, false
	}

	rows, err := h.repo.ListTransactions(r.Context(), filter)
	if err != nil {
		h.log.Error("list transactions", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "Server error")
		return transactions.Table{}, false
	}
	table, err := transactions.Project(rows, columns)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, transactions.ErrUnknownColumn) {
			status = http.StatusBadRequest
		}
		respond.Error(w, status, err.Error())
		return transactions.Table{}, false
	}
	return table, true
}
