package http

import (
	"errors"
	"html/template"
	"net/http"
	"time"

	"gymdesk/internal/core"
	applog "gymdesk/internal/log"
	"gymdesk/internal/store"
)

func (s *Server) handleCreateMember(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	gymID := s.gymID(r)
	member := core.Member{
		GymID:    gymID,
		Name:     sanitizeInput(r.Form.Get("name")),
		Phone:    sanitizeInput(r.Form.Get("phone")),
		Email:    sanitizeInput(r.Form.Get("email")),
		JoinedAt: time.Now(),
		Active:   true,
	}
	if err := member.Validate(); err != nil {
		UnprocessableEntityError("Invalid data: " + err.Error()).Write(w)
		return
	}

	saved, err := s.membership.AddMember(r.Context(), member)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to create member",
			"error", err,
			applog.FieldGymID, gymID,
			applog.FieldComponent, applog.ComponentMembership,
			applog.FieldOperation, applog.OpCreate)
		InternalServerError("Error creating member").Write(w)
		return
	}

	s.logger.InfoContext(r.Context(), "Member created",
		applog.FieldMemberID, saved.ID, applog.FieldGymID, gymID)

	NewHTMXResponse().
		TriggerMemberCreated(gymID).
		TriggerFormReset().
		TriggerSuccessNotification("Member added: " + saved.Name).
		BodyHTML(`<div class="success">Member added (#` + template.HTMLEscapeString(saved.ID) + `)</div>`).
		Write(w)
}

func (s *Server) handleDeactivateMember(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodPost, http.MethodDelete); resp != nil {
		resp.Write(w)
		return
	}

	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}
	memberID := parser.Get("id")
	if memberID == "" {
		BadRequestError("Missing member id").Write(w)
		return
	}

	gymID := s.gymID(r)
	if err := s.membership.DeactivateMember(r.Context(), gymID, memberID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			NotFoundError("Member not found").Write(w)
			return
		}
		s.logger.ErrorContext(r.Context(), "Failed to deactivate member",
			"error", err, applog.FieldMemberID, memberID, applog.FieldGymID, gymID)
		InternalServerError("Error deactivating member").Write(w)
		return
	}

	s.logger.InfoContext(r.Context(), "Member deactivated",
		applog.FieldMemberID, memberID, applog.FieldGymID, gymID)

	NewHTMXResponse().
		TriggerMemberCreated(gymID).
		TriggerSuccessNotification("Member deactivated").
		Write(w)
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	gymID := s.gymID(r)
	members, err := s.membership.ListMembers(r.Context(), gymID)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Member list error", "error", err, applog.FieldGymID, gymID)
		_, _ = w.Write([]byte(`<div class="members"><div class="row placeholder">Error loading members</div></div>`))
		return
	}

	type item struct {
		ID     string
		Name   string
		Phone  string
		Active bool
	}
	data := struct {
		GymID string
		Items []item
	}{GymID: gymID}
	for _, m := range members {
		data.Items = append(data.Items, item{
			ID:     m.ID,
			Name:   template.HTMLEscapeString(m.Name),
			Phone:  template.HTMLEscapeString(m.Phone),
			Active: m.Active,
		})
	}

	if s.templates == nil {
		_, _ = w.Write([]byte(`<div class="members"><div class="row placeholder">No template</div></div>`))
		return
	}
	if err := s.templates.ExecuteTemplate(w, "members.html", data); err != nil {
		s.logger.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "members.html")
		_, _ = w.Write([]byte(`<div class="members"><div class="row placeholder">Error rendering members</div></div>`))
	}
}

func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	gymID := s.gymID(r)
	paise, err := core.ParseDecimalToPaise(sanitizeInput(r.Form.Get("price")))
	if err != nil {
		UnprocessableEntityError("Invalid price").Write(w)
		return
	}

	plan := core.Plan{
		GymID:    gymID,
		Name:     sanitizeInput(r.Form.Get("name")),
		Price:    core.Money{Paise: paise},
		Interval: core.BillingInterval(sanitizeInput(r.Form.Get("interval"))),
		Active:   true,
	}
	if err := plan.Validate(); err != nil {
		UnprocessableEntityError("Invalid data: " + err.Error()).Write(w)
		return
	}

	saved, err := s.membership.CreatePlan(r.Context(), plan)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to create plan",
			"error", err, applog.FieldGymID, gymID)
		InternalServerError("Error creating plan").Write(w)
		return
	}

	s.logger.InfoContext(r.Context(), "Plan created",
		applog.FieldPlanID, saved.ID, applog.FieldGymID, gymID)

	NewHTMXResponse().
		TriggerPlanCreated(gymID).
		TriggerFormReset().
		TriggerSuccessNotification("Plan created: " + saved.Name).
		BodyHTML(`<div class="success">Plan created (#` + template.HTMLEscapeString(saved.ID) + `)</div>`).
		Write(w)
}

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	gymID := s.gymID(r)
	plans, err := s.membership.ListPlans(r.Context(), gymID)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Plan list error", "error", err, applog.FieldGymID, gymID)
		_, _ = w.Write([]byte(`<div class="plans"><div class="row placeholder">Error loading plans</div></div>`))
		return
	}

	type item struct {
		ID       string
		Name     string
		Price    string
		Interval string
	}
	data := struct {
		GymID string
		Items []item
	}{GymID: gymID}
	for _, p := range plans {
		data.Items = append(data.Items, item{
			ID:       p.ID,
			Name:     template.HTMLEscapeString(p.Name),
			Price:    formatRupees(p.Price.Paise),
			Interval: string(p.Interval),
		})
	}

	if s.templates == nil {
		_, _ = w.Write([]byte(`<div class="plans"><div class="row placeholder">No template</div></div>`))
		return
	}
	if err := s.templates.ExecuteTemplate(w, "plans.html", data); err != nil {
		s.logger.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "plans.html")
		_, _ = w.Write([]byte(`<div class="plans"><div class="row placeholder">Error rendering plans</div></div>`))
	}
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	gymID := s.gymID(r)
	start := time.Now()
	if v := sanitizeInput(r.Form.Get("start_date")); v != "" {
		if d, err := parseDate(v); err == nil {
			start = d
		}
	}

	sub := core.Subscription{
		GymID:     gymID,
		MemberID:  sanitizeInput(r.Form.Get("member")),
		PlanID:    sanitizeInput(r.Form.Get("plan")),
		StartDate: start,
	}

	saved, err := s.membership.Subscribe(r.Context(), sub)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			UnprocessableEntityError("Unknown member or plan").Write(w)
			return
		}
		s.logger.ErrorContext(r.Context(), "Failed to create subscription",
			"error", err,
			applog.FieldGymID, gymID,
			applog.FieldMemberID, sub.MemberID,
			applog.FieldPlanID, sub.PlanID)
		InternalServerError("Error creating subscription").Write(w)
		return
	}

	s.logger.InfoContext(r.Context(), "Subscription created",
		"subscription_id", saved.ID,
		applog.FieldMemberID, saved.MemberID,
		applog.FieldPlanID, saved.PlanID,
		applog.FieldGymID, gymID)

	NewHTMXResponse().
		TriggerFormReset().
		TriggerSuccessNotification("Subscription active until " + saved.EndDate.Format("02 Jan 2006")).
		BodyHTML(`<div class="success">Subscription created (#` + template.HTMLEscapeString(saved.ID) + `)</div>`).
		Write(w)
}

func (s *Server) handleRecentCheckIns(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	gymID := s.gymID(r)
	now := time.Now()
	checkins, err := s.membership.ListCheckIns(r.Context(), gymID, now.Add(-24*time.Hour), now)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Check-in list error", "error", err, applog.FieldGymID, gymID)
		_, _ = w.Write([]byte(`<div class="checkins"><div class="row placeholder">Error loading check-ins</div></div>`))
		return
	}

	type item struct {
		MemberID string
		Time     string
	}
	data := struct {
		GymID string
		Items []item
	}{GymID: gymID}
	for _, c := range checkins {
		data.Items = append(data.Items, item{
			MemberID: template.HTMLEscapeString(c.MemberID),
			Time:     c.CheckedInAt.Format("02 Jan 15:04"),
		})
	}

	if s.templates == nil {
		_, _ = w.Write([]byte(`<div class="checkins"><div class="row placeholder">No template</div></div>`))
		return
	}
	if err := s.templates.ExecuteTemplate(w, "checkins.html", data); err != nil {
		s.logger.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "checkins.html")
		_, _ = w.Write([]byte(`<div class="checkins"><div class="row placeholder">Error rendering check-ins</div></div>`))
	}
}

func (s *Server) handleCheckIn(w http.ResponseWriter, r *http.Request) {
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
	if memberID == "" {
		BadRequestError("Missing member id").Write(w)
		return
	}

	att, err := s.membership.CheckIn(r.Context(), gymID, memberID, time.Now())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			NotFoundError("Member not found").Write(w)
			return
		}
		s.logger.WarnContext(r.Context(), "Check-in rejected",
			"error", err, applog.FieldMemberID, memberID, applog.FieldGymID, gymID)
		UnprocessableEntityError("Check-in not allowed: " + err.Error()).Write(w)
		return
	}

	s.logger.InfoContext(r.Context(), "Member checked in",
		applog.FieldMemberID, memberID, applog.FieldGymID, gymID,
		"attendance_id", att.ID)

	NewHTMXResponse().
		Trigger("checkin:recorded", map[string]string{"gym": gymID}).
		TriggerFormReset().
		TriggerSuccessNotification("Checked in").
		BodyHTML(`<div class="success">Checked in at ` + att.CheckedInAt.Format("15:04") + `</div>`).
		Write(w)
}
