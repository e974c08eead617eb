package http

import (
	"fmt"
	"net/http"

	"bilancio/internal/core"
	"bilancio/internal/log"
)

type transactionsView struct {
	Transactions []core.Transaction
	Categories   []core.Category
	Types        []core.TransactionType
	Filter       core.FilterInput
	Income       core.Money
	Expense      core.Money
	Today        string
}

type editTransactionView struct {
	Transaction core.Transaction
	Categories  []core.Category
	Types       []core.TransactionType
}

var transactionTypes = []core.TransactionType{core.Expense, core.Income}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request, id core.Identity) {
	ctx := r.Context()
	in := filterInput(r.URL.Query())
	filter, err := in.Parse()
	if err != nil {
		s.fail(w, r, err, "/transactions")
		return
	}

	txs, err := s.aggregator.FilteredTransactions(ctx, id, filter)
	if err != nil {
		s.fail(w, r, err, "/")
		return
	}
	cats, err := s.categories.List(ctx, id)
	if err != nil {
		s.fail(w, r, err, "/")
		return
	}

	view := transactionsView{
		Transactions: txs,
		Categories:   cats,
		Types:        transactionTypes,
		Filter:       in,
		Today:        s.today(),
	}
	for _, t := range txs {
		if t.Type == core.Income {
			view.Income = view.Income.Add(t.Amount)
		} else {
			view.Expense = view.Expense.Add(t.Amount)
		}
	}
	s.render(w, r, http.StatusOK, "transactions.html", "Transactions", "transactions", view)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request, id core.Identity) {
	if err := parseForm(r); err != nil {
		s.fail(w, r, err, "/transactions")
		return
	}
	back := localPath(r.PostForm.Get("next"), "/transactions")

	t, err := s.transactions.Create(r.Context(), id, transactionInput(r))
	if err != nil {
		s.fail(w, r, err, back)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Transaction created",
		log.FieldEntityID, t.ID,
		log.FieldTxType, string(t.Type),
		log.FieldAmountCents, t.Amount.Cents)
	NewResponse(s.sessions).Success("Transaction added.").Redirect(back).Write(w)
}

func (s *Server) handleEditTransactionForm(w http.ResponseWriter, r *http.Request, id core.Identity) {
	ctx := r.Context()
	txID, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err, "/transactions")
		return
	}
	t, err := s.transactions.Get(ctx, id, txID)
	if err != nil {
		s.fail(w, r, err, "/transactions")
		return
	}
	cats, err := s.categories.List(ctx, id)
	if err != nil {
		s.fail(w, r, err, "/transactions")
		return
	}

	s.render(w, r, http.StatusOK, "edit_transaction.html", "Edit transaction", "transactions", editTransactionView{
		Transaction: t,
		Categories:  cats,
		Types:       transactionTypes,
	})
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request, id core.Identity) {
	txID, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err, "/transactions")
		return
	}
	if err := parseForm(r); err != nil {
		s.fail(w, r, err, "/transactions")
		return
	}

	err = s.transactions.Update(r.Context(), id, txID, transactionInput(r))
	switch {
	case err == nil:
	case core.IsRecoverable(err) && !isAccessError(err):
		s.fail(w, r, err, fmt.Sprintf("/transactions/%d/edit", txID))
		return
	default:
		s.fail(w, r, err, "/transactions")
		return
	}
	NewResponse(s.sessions).Success("Transaction updated.").Redirect("/transactions").Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request, id core.Identity) {
	txID, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err, "/transactions")
		return
	}
	if err := s.transactions.Delete(r.Context(), id, txID); err != nil {
		s.fail(w, r, err, "/transactions")
		return
	}
	NewResponse(s.sessions).Success("Transaction deleted.").Redirect("/transactions").Write(w)
}
