package http

import (
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	applog "gymdesk/internal/log"
	"gymdesk/internal/report"
)

var allTimelines = []report.Timeline{
	report.TimelineToday,
	report.TimelineYesterday,
	report.TimelineThisMonth,
	report.TimelineLastMonth,
	report.TimelineLast7Days,
	report.TimelineLast30Days,
	report.TimelineAllTime,
}

func summaryCacheKey(gymID string, timeline report.Timeline, plan report.PlanFilter) string {
	return gymID + "|" + string(timeline) + "|" + string(plan)
}

// invalidateSummaries drops every cached summary a new payment could have
// changed: all timelines for the payment's plan and for the all-plans view.
func (s *Server) invalidateSummaries(gymID, planID string) {
	for _, tl := range allTimelines {
		s.summaryCache.Delete(summaryCacheKey(gymID, tl, report.AllPlans))
		s.summaryCache.Delete(summaryCacheKey(gymID, tl, report.PlanFilter("")))
		if planID != "" {
			s.summaryCache.Delete(summaryCacheKey(gymID, tl, report.PlanFilter(planID)))
		}
	}
}

func (s *Server) incomeSummary(r *http.Request, gymID string, params ReportParams) (cachedSummary, error) {
	key := summaryCacheKey(gymID, params.Timeline, params.Plan)
	if cached, found := s.summaryCache.Get(key); found {
		s.logger.DebugContext(r.Context(), "Summary cache hit",
			applog.FieldGymID, gymID, applog.FieldTimeline, string(params.Timeline))
		return cached, nil
	}

	summary, res, err := s.reports.IncomeSummary(r.Context(), gymID, params.Timeline, params.Plan, time.Now())
	if err != nil {
		return cachedSummary{}, err
	}

	result := cachedSummary{Summary: summary, Resolution: res}
	s.summaryCache.Set(key, result)
	return result, nil
}

// handleIncomeStats renders the income statistics partial: totals, trend
// badge, earnings chart and collection donut for the requested timeline.
func (s *Server) handleIncomeStats(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	gymID := s.gymID(r)
	params, err := ParseReportParams(r.URL.Query())
	if err != nil {
		// Unknown timeline values degrade to the default window.
		s.logger.WarnContext(r.Context(), "Invalid timeline parameter",
			"value", r.URL.Query().Get("timeline"), "error", err)
	}

	result, err := s.incomeSummary(r, gymID, params)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Income summary error",
			"error", err,
			applog.FieldGymID, gymID,
			applog.FieldTimeline, string(params.Timeline))
		_, _ = w.Write([]byte(`<section id="income-stats" class="income-stats"><div class="placeholder">Error loading income statistics</div></section>`))
		return
	}
	summary := result.Summary

	type seriesPoint struct {
		Label  string  `json:"label"`
		Rupees float64 `json:"rupees"`
	}
	labelFormat := "02 Jan"
	if result.Resolution.Granularity == report.GranularityHourly {
		labelFormat = "15:04"
	}
	series := make([]seriesPoint, 0, len(summary.Earnings))
	for _, pt := range summary.Earnings {
		series = append(series, seriesPoint{
			Label:  pt.Bucket.Format(labelFormat),
			Rupees: float64(pt.Amount.Paise) / 100,
		})
	}
	seriesJSON, err := json.Marshal(series)
	if err != nil {
		seriesJSON = []byte("[]")
	}

	donutIncomePct, donutPendingPct := donutPercents(summary.Donut)

	data := struct {
		GymID           string
		Timeline        string
		Plan            string
		Income          string
		Pending         string
		TransactionsNum int
		HasComparison   bool
		Trend           string
		PercentChange   string
		DonutIncomePct  int
		DonutPendingPct int
		SeriesJSON      template.JS
	}{
		GymID:           gymID,
		Timeline:        string(params.Timeline),
		Plan:            string(params.Plan),
		Income:          formatRupees(summary.Income.Paise),
		Pending:         formatRupees(summary.PendingBalance.Paise),
		TransactionsNum: summary.TransactionsNum,
		HasComparison:   summary.HasComparison,
		Trend:           string(summary.Trend),
		PercentChange:   formatPercent(summary.PercentChange),
		DonutIncomePct:  donutIncomePct,
		DonutPendingPct: donutPendingPct,
		SeriesJSON:      template.JS(seriesJSON),
	}

	if s.templates == nil {
		_, _ = w.Write([]byte(`<section id="income-stats" class="income-stats"><div class="placeholder">Income: ` + template.HTMLEscapeString(data.Income) + `</div></section>`))
		return
	}

	if err := s.templates.ExecuteTemplate(w, "income_stats.html", data); err != nil {
		s.logger.ErrorContext(r.Context(), "Template execution error",
			"error", err, "template", "income_stats.html",
			applog.FieldGymID, gymID,
			applog.FieldTimeline, string(params.Timeline))
		_, _ = w.Write([]byte(`<section id="income-stats" class="income-stats"><div class="placeholder">Error rendering income statistics</div></section>`))
	}
}
