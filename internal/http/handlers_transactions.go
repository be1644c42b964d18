package http

import (
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"gymdesk/internal/core"
	applog "gymdesk/internal/log"
	"gymdesk/internal/store"
)

// handleRecordPayment records a payment event from the dashboard form.
func (s *Server) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	gymID := s.gymID(r)
	memberID := sanitizeInput(r.Form.Get("member"))
	planID := sanitizeInput(r.Form.Get("plan"))
	amountStr := sanitizeInput(r.Form.Get("amount"))

	paise, err := core.ParseDecimalToPaise(amountStr)
	if err != nil {
		UnprocessableEntityError("Invalid amount").Write(w)
		return
	}

	status := core.TransactionStatus(sanitizeInput(r.Form.Get("status")))
	if status == "" {
		status = core.StatusReceived
	}
	txType := core.TransactionType(sanitizeInput(r.Form.Get("type")))
	if txType == "" {
		txType = core.TypeIncome
	}

	occurredAt := time.Now()
	if v := sanitizeInput(r.Form.Get("date")); v != "" {
		if d, err := parseDate(v); err == nil {
			occurredAt = d
		}
	}

	member, err := s.membership.GetMember(r.Context(), gymID, memberID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			UnprocessableEntityError("Unknown member").Write(w)
			return
		}
		s.logger.ErrorContext(r.Context(), "Member lookup error", "error", err, applog.FieldMemberID, memberID)
		InternalServerError("Error recording payment").Write(w)
		return
	}

	tx := core.Transaction{
		GymID:      gymID,
		MemberID:   memberID,
		PlanID:     planID,
		Amount:     core.Money{Paise: paise},
		Type:       txType,
		Status:     status,
		OccurredAt: occurredAt,
		PayerName:  member.Name,
		AvatarURL:  member.AvatarURL,
	}
	if err := tx.Validate(); err != nil {
		UnprocessableEntityError("Invalid data: " + err.Error()).Write(w)
		return
	}

	saved, err := s.membership.RecordTransaction(r.Context(), tx)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to record payment",
			"error", err,
			applog.FieldGymID, gymID,
			applog.FieldMemberID, memberID,
			applog.FieldAmountPaise, paise,
			applog.FieldComponent, applog.ComponentMembership,
			applog.FieldOperation, applog.OpCreate)
		InternalServerError("Error recording payment").Write(w)
		return
	}

	atomic.AddInt64(&s.appMetrics.totalTransactions, 1)
	s.invalidateSummaries(gymID, planID)

	s.logger.InfoContext(r.Context(), "Payment recorded",
		applog.FieldTransactionID, saved.ID,
		applog.FieldGymID, gymID,
		applog.FieldMemberID, memberID,
		applog.FieldAmountPaise, paise)

	NewHTMXResponse().
		TriggerPaymentRecorded(gymID).
		TriggerStatsRefresh(gymID).
		TriggerFormReset().
		TriggerSuccessNotification("Payment recorded: " + member.Name + " (" + formatRupees(paise) + ")").
		BodyHTML(`<div class="success">Payment recorded (#` + template.HTMLEscapeString(saved.ID) + `)</div>`).
		Write(w)
}

// handleRecentTransactions renders the recent payments partial.
func (s *Server) handleRecentTransactions(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	gymID := s.gymID(r)
	limit := 20
	if v := sanitizeInput(r.URL.Query().Get("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	txs, err := s.membership.RecentTransactions(r.Context(), gymID, limit)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Recent transactions error", "error", err, applog.FieldGymID, gymID)
		_, _ = w.Write([]byte(`<div class="transactions"><div class="row placeholder">Error loading payments</div></div>`))
		return
	}

	type item struct {
		ID     string
		Payer  string
		Amount string
		Status string
		Date   string
	}
	data := struct {
		GymID string
		Items []item
	}{GymID: gymID}
	for _, tx := range txs {
		data.Items = append(data.Items, item{
			ID:     tx.ID,
			Payer:  template.HTMLEscapeString(tx.PayerName),
			Amount: formatRupees(tx.Amount.Paise),
			Status: string(tx.Status),
			Date:   tx.OccurredAt.Format("02 Jan 15:04"),
		})
	}

	if s.templates == nil {
		_, _ = w.Write([]byte(`<div class="transactions"><div class="row placeholder">` + strconv.Itoa(len(data.Items)) + ` payments</div></div>`))
		return
	}
	if err := s.templates.ExecuteTemplate(w, "transactions.html", data); err != nil {
		s.logger.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "transactions.html")
		_, _ = w.Write([]byte(`<div class="transactions"><div class="row placeholder">Error rendering payments</div></div>`))
	}
}
