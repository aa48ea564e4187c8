package grpc

import (
	"context"
	"encoding/base64"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/simaogato/debtflow-backend/internal/domain"
	"github.com/simaogato/debtflow-backend/internal/usecase/allocator"
	"github.com/simaogato/debtflow-backend/internal/usecase/analytics"
	"github.com/simaogato/debtflow-backend/internal/usecase/balance"
	"github.com/simaogato/debtflow-backend/internal/usecase/correction"
	"github.com/simaogato/debtflow-backend/internal/usecase/facility"
	"github.com/simaogato/debtflow-backend/internal/usecase/ledger"
	"github.com/simaogato/debtflow-backend/internal/usecase/obligation"
	"github.com/simaogato/debtflow-backend/internal/usecase/recommendation"
	"github.com/simaogato/debtflow-backend/internal/usecase/repayment"
)

// Server implements the DebtFlowService gRPC server
type Server struct {
	Balances              *balance.Calculator
	RepaymentService      *repayment.RepaymentService
	CorrectionService     *correction.CorrectionService
	RecommendationService *recommendation.RecommendationService
	AnalyticsService      *analytics.AnalyticsService
	FacilityService       *facility.FacilityService
	ObligationService     *obligation.ObligationService
	LedgerService         *ledger.LedgerService
}

var _ DebtFlowServiceServer = (*Server)(nil)

// NewServer creates a new gRPC server instance
func NewServer(
	balances *balance.Calculator,
	repaymentService *repayment.RepaymentService,
	correctionService *correction.CorrectionService,
	recommendationService *recommendation.RecommendationService,
	analyticsService *analytics.AnalyticsService,
	facilityService *facility.FacilityService,
	obligationService *obligation.ObligationService,
	ledgerService *ledger.LedgerService,
) *Server {
	return &Server{
		Balances:              balances,
		RepaymentService:      repaymentService,
		CorrectionService:     correctionService,
		RecommendationService: recommendationService,
		AnalyticsService:      analyticsService,
		FacilityService:       facilityService,
		ObligationService:     obligationService,
		LedgerService:         ledgerService,
	}
}

// GetFacilityBalance handles the GetFacilityBalance RPC
func (s *Server) GetFacilityBalance(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	ownerID, err := owner(ctx)
	if err != nil {
		return nil, err
	}
	facilityID, err := newRequest(in).uuid("facility_id")
	if err != nil {
		return nil, err
	}

	// An unknown facility has balance zero, like any facility without obligations
	total, err := s.Balances.FacilityBalance(ctx, ownerID, facilityID)
	if err != nil {
		return nil, mapError(err)
	}

	return response(map[string]interface{}{
		"facility_id": facilityID.String(),
		"balance":     money(total),
	})
}

// ListFacilityBalances handles the ListFacilityBalances RPC
func (s *Server) ListFacilityBalances(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	ownerID, err := owner(ctx)
	if err != nil {
		return nil, err
	}

	facilities, err := s.FacilityService.List(ctx, ownerID)
	if err != nil {
		return nil, mapError(err)
	}
	balances, err := s.Balances.BalancesFor(ctx, ownerID, facilities)
	if err != nil {
		return nil, mapError(err)
	}

	items := make([]interface{}, 0, len(facilities))
	total := decimal.Zero
	for _, f := range facilities {
		item := facilityFields(f)
		item["balance"] = money(balances[f.ID])
		items = append(items, item)
		total = total.Add(balances[f.ID])
	}

	return response(map[string]interface{}{
		"facilities": items,
		"total":      money(total),
	})
}

// GetObligationBalance handles the GetObligationBalance RPC
func (s *Server) GetObligationBalance(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	ownerID, err := owner(ctx)
	if err != nil {
		return nil, err
	}
	obligationID, err := newRequest(in).uuid("obligation_id")
	if err != nil {
		return nil, err
	}

	total, err := s.Balances.ObligationBalance(ctx, ownerID, obligationID)
	if err != nil {
		return nil, mapError(err)
	}

	return response(map[string]interface{}{
		"obligation_id": obligationID.String(),
		"balance":       money(total),
	})
}

// RepayFacility handles the RepayFacility RPC
func (s *Server) RepayFacility(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	ownerID, err := owner(ctx)
	if err != nil {
		return nil, err
	}
	req := newRequest(in)
	facilityID, err := req.uuid("facility_id")
	if err != nil {
		return nil, err
	}
	amount, err := req.amount("amount")
	if err != nil {
		return nil, err
	}
	date, err := req.date("date")
	if err != nil {
		return nil, err
	}

	result, err := s.RepaymentService.RepayFacility(ctx, repayment.RepayFacilityInput{
		OwnerID:     ownerID,
		FacilityID:  facilityID,
		Amount:      amount,
		Date:        date,
		Description: req.str("description"),
	})
	if err != nil {
		return nil, mapError(err)
	}

	return response(repaymentFields(result))
}

// RepayObligation handles the RepayObligation RPC
func (s *Server) RepayObligation(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	ownerID, err := owner(ctx)
	if err != nil {
		return nil, err
	}
	req := newRequest(in)
	obligationID, err := req.uuid("obligation_id")
	if err != nil {
		return nil, err
	}
	amount, err := req.amount("amount")
	if err != nil {
		return nil, err
	}
	date, err := req.date("date")
	if err != nil {
		return nil, err
	}

	result, err := s.RepaymentService.RepayObligation(ctx, repayment.RepayObligationInput{
		OwnerID:      ownerID,
		ObligationID: obligationID,
		Amount:       amount,
		Date:         date,
		Description:  req.str("description"),
	})
	if err != nil {
		return nil, mapError(err)
	}

	return response(repaymentFields(result))
}

// CorrectFacility handles the CorrectFacility RPC
func (s *Server) CorrectFacility(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	ownerID, err := owner(ctx)
	if err != nil {
		return nil, err
	}
	req := newRequest(in)
	facilityID, err := req.uuid("facility_id")
	if err != nil {
		return nil, err
	}
	target, err := req.amount("target_balance")
	if err != nil {
		return nil, err
	}
	date, err := req.date("date")
	if err != nil {
		return nil, err
	}

	result, err := s.CorrectionService.CorrectFacility(ctx, correction.CorrectFacilityInput{
		OwnerID:    ownerID,
		FacilityID: facilityID,
		Target:     target,
		Date:       date,
		Reason:     req.str("reason"),
	})
	if err != nil {
		return nil, mapError(err)
	}

	return response(correctionFields(result))
}

// CorrectObligation handles the CorrectObligation RPC
func (s *Server) CorrectObligation(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	ownerID, err := owner(ctx)
	if err != nil {
		return nil, err
	}
	req := newRequest(in)
	obligationID, err := req.uuid("obligation_id")
	if err != nil {
		return nil, err
	}
	target, err := req.amount("target_balance")
	if err != nil {
		return nil, err
	}

	result, err := s.CorrectionService.CorrectObligation(ctx, correction.CorrectObligationInput{
		OwnerID:      ownerID,
		ObligationID: obligationID,
		Target:       target,
	})
	if err != nil {
		return nil, mapError(err)
	}

	return response(correctionFields(result))
}

// RecommendRepayment handles the RecommendRepayment RPC
func (s *Server) RecommendRepayment(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	ownerID, err := owner(ctx)
	if err != nil {
		return nil, err
	}
	budget, err := newRequest(in).amount("budget")
	if err != nil {
		return nil, err
	}

	plan, err := s.RecommendationService.RepaymentRanking(ctx, ownerID, budget)
	if err != nil {
		return nil, mapError(err)
	}

	items := make([]interface{}, 0, len(plan.Recommendations))
	for _, r := range plan.Recommendations {
		items = append(items, map[string]interface{}{
			"facility_id":         r.FacilityID.String(),
			"name":                r.Name,
			"interest_rate":       money(r.InterestRate),
			"current_debt":        money(r.CurrentDebt),
			"recommended_payment": money(r.RecommendedPayment),
		})
	}

	return response(map[string]interface{}{
		"recommendations": items,
		"total_debt":      money(plan.TotalDebt),
		"unallocated":     money(plan.Unallocated),
	})
}

// RecommendPurchase handles the RecommendPurchase RPC
func (s *Server) RecommendPurchase(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	ownerID, err := owner(ctx)
	if err != nil {
		return nil, err
	}
	amount, err := newRequest(in).amount("amount")
	if err != nil {
		return nil, err
	}

	plan, err := s.RecommendationService.PurchaseRanking(ctx, ownerID, amount)
	if err != nil {
		return nil, mapError(err)
	}

	items := make([]interface{}, 0, len(plan.Recommendations))
	for _, r := range plan.Recommendations {
		items = append(items, map[string]interface{}{
			"facility_id":       r.FacilityID.String(),
			"name":              r.Name,
			"interest_rate":     money(r.InterestRate),
			"available_limit":   money(r.Headroom),
			"recommended_usage": money(r.RecommendedUsage),
		})
	}

	return response(map[string]interface{}{
		"recommendations":       items,
		"feasible":              plan.Feasible,
		"total_available_limit": money(plan.TotalHeadroom),
	})
}

// GetCreditAnalytics handles the GetCreditAnalytics RPC
func (s *Server) GetCreditAnalytics(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	ownerID, err := owner(ctx)
	if err != nil {
		return nil, err
	}

	report, err := s.AnalyticsService.CreditReport(ctx, ownerID)
	if err != nil {
		return nil, mapError(err)
	}

	rates := make([]interface{}, 0, len(report.RateGroups))
	for _, g := range report.RateGroups {
		rates = append(rates, map[string]interface{}{
			"interest_rate": money(g.InterestRate),
			"limit":         money(g.Limit),
			"used":          money(g.Used),
			"percentage":    money(g.Percentage),
		})
	}

	evolution := make([]interface{}, 0, len(report.Evolution))
	for _, b := range report.Evolution {
		evolution = append(evolution, map[string]interface{}{
			"period":    b.Label,
			"start":     b.Start.Format(domain.DateLayout),
			"end":       b.End.Format(domain.DateLayout),
			"spending":  money(b.Spending),
			"repayment": money(b.Repayment),
		})
	}

	return response(map[string]interface{}{
		"utilization": map[string]interface{}{
			"total_limit": money(report.Utilization.TotalLimit),
			"used":        money(report.Utilization.Used),
			"available":   money(report.Utilization.Available),
		},
		"rate_groups": rates,
		"evolution":   evolution,
		"total_debt":  money(report.TotalDebt),
	})
}

// ExportCreditAnalytics handles the ExportCreditAnalytics RPC
func (s *Server) ExportCreditAnalytics(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	ownerID, err := owner(ctx)
	if err != nil {
		return nil, err
	}

	report, err := s.AnalyticsService.CreditReport(ctx, ownerID)
	if err != nil {
		return nil, mapError(err)
	}
	workbook, err := analytics.ExportXLSX(report)
	if err != nil {
		return nil, mapError(err)
	}

	return response(map[string]interface{}{
		"filename":     "credit-analytics.xlsx",
		"content_type": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"content":      base64.StdEncoding.EncodeToString(workbook),
	})
}

// GetMonthlySummary handles the GetMonthlySummary RPC
func (s *Server) GetMonthlySummary(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	query, err := s.summaryQuery(ctx, in)
	if err != nil {
		return nil, err
	}

	months, err := s.AnalyticsService.MonthlySummary(ctx, query)
	if err != nil {
		return nil, mapError(err)
	}

	items := make([]interface{}, 0, len(months))
	for _, m := range months {
		items = append(items, map[string]interface{}{
			"year":    m.Year,
			"month":   int(m.Month),
			"income":  money(m.Income),
			"expense": money(m.Expense),
			"balance": money(m.Balance),
		})
	}

	return response(map[string]interface{}{"months": items})
}

// GetSpendingByCategory handles the GetSpendingByCategory RPC
func (s *Server) GetSpendingByCategory(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	query, err := s.summaryQuery(ctx, in)
	if err != nil {
		return nil, err
	}

	breakdown, err := s.AnalyticsService.SpendingByCategory(ctx, query)
	if err != nil {
		return nil, mapError(err)
	}

	items := make([]interface{}, 0, len(breakdown.Categories))
	for _, c := range breakdown.Categories {
		items = append(items, map[string]interface{}{
			"name":       c.Name,
			"total":      money(c.Total),
			"percentage": money(c.Percentage),
		})
	}

	return response(map[string]interface{}{
		"categories":  items,
		"total_spent": money(breakdown.TotalSpent),
	})
}

// summaryQuery reads the shared summary filters.
// "to" defaults to today and "from" to January 1st of the year of "to".
func (s *Server) summaryQuery(ctx context.Context, in *structpb.Struct) (analytics.SummaryQuery, error) {
	ownerID, err := owner(ctx)
	if err != nil {
		return analytics.SummaryQuery{}, err
	}
	req := newRequest(in)

	to, err := req.date("to")
	if err != nil {
		return analytics.SummaryQuery{}, err
	}
	if to.IsZero() {
		to = domain.Day(s.AnalyticsService.Now())
	}
	from, err := req.date("from")
	if err != nil {
		return analytics.SummaryQuery{}, err
	}
	if from.IsZero() {
		from = time.Date(to.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	categoryID, err := req.optionalUUID("category_id")
	if err != nil {
		return analytics.SummaryQuery{}, err
	}

	return analytics.SummaryQuery{
		OwnerID:              ownerID,
		From:                 from,
		To:                   to,
		CategoryID:           categoryID,
		ExcludeCreditCard:    req.boolean("exclude_credit_card"),
		ExcludeCardRepayment: req.boolean("exclude_card_repayment"),
	}, nil
}

// CreateFacility handles the CreateFacility RPC
func (s *Server) CreateFacility(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	ownerID, err := owner(ctx)
	if err != nil {
		return nil, err
	}
	req := newRequest(in)
	limit, err := req.amount("limit")
	if err != nil {
		return nil, err
	}
	rate, err := req.optionalAmount("interest_rate")
	if err != nil {
		return nil, err
	}

	input := facility.CreateFacilityInput{
		OwnerID: ownerID,
		Name:    req.str("name"),
		Limit:   limit,
	}
	if rate != nil {
		input.InterestRate = *rate
	}

	f, err := s.FacilityService.Create(ctx, input)
	if err != nil {
		return nil, mapError(err)
	}

	return response(facilityFields(f))
}

// ListFacilities handles the ListFacilities RPC
func (s *Server) ListFacilities(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	ownerID, err := owner(ctx)
	if err != nil {
		return nil, err
	}

	facilities, err := s.FacilityService.List(ctx, ownerID)
	if err != nil {
		return nil, mapError(err)
	}

	items := make([]interface{}, 0, len(facilities))
	for _, f := range facilities {
		items = append(items, facilityFields(f))
	}

	return response(map[string]interface{}{"facilities": items})
}

// GetFacility handles the GetFacility RPC
func (s *Server) GetFacility(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	ownerID, err := owner(ctx)
	if err != nil {
		return nil, err
	}
	facilityID, err := newRequest(in).uuid("facility_id")
	if err != nil {
		return nil, err
	}

	facility, err := s.FacilityService.Get(ctx, ownerID, facilityID)
	if err != nil {
		return nil, mapError(err)
	}

	return response(facilityFields(facility))
}

// DeleteFacility handles the DeleteFacility RPC.
// The facility's obligations remain, unlinked.
func (s *Server) DeleteFacility(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	ownerID, err := owner(ctx)
	if err != nil {
		return nil, err
	}
	facilityID, err := newRequest(in).uuid("facility_id")
	if err != nil {
		return nil, err
	}

	if err := s.FacilityService.Delete(ctx, ownerID, facilityID); err != nil {
		return nil, mapError(err)
	}

	return response(map[string]interface{}{"deleted": true})
}

// CreateObligation handles the CreateObligation RPC
func (s *Server) CreateObligation(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	ownerID, err := owner(ctx)
	if err != nil {
		return nil, err
	}
	req := newRequest(in)
	principal, err := req.amount("principal")
	if err != nil {
		return nil, err
	}
	facilityID, err := req.optionalUUID("facility_id")
	if err != nil {
		return nil, err
	}
	rate, err := req.optionalAmount("interest_rate")
	if err != nil {
		return nil, err
	}
	start, err := req.date("start_date")
	if err != nil {
		return nil, err
	}
	end, err := req.optionalDate("end_date")
	if err != nil {
		return nil, err
	}
	installments, err := req.optionalInt("installments")
	if err != nil {
		return nil, err
	}

	o, err := s.ObligationService.Create(ctx, obligation.CreateObligationInput{
		OwnerID:      ownerID,
		Name:         req.str("name"),
		Principal:    principal,
		FacilityID:   facilityID,
		InterestRate: rate,
		StartDate:    start,
		EndDate:      end,
		Installments: installments,
	})
	if err != nil {
		return nil, mapError(err)
	}

	return response(obligationFields(o))
}

// LinkObligation handles the LinkObligation RPC
func (s *Server) LinkObligation(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	ownerID, err := owner(ctx)
	if err != nil {
		return nil, err
	}
	req := newRequest(in)
	obligationID, err := req.uuid("obligation_id")
	if err != nil {
		return nil, err
	}
	facilityID, err := req.uuid("facility_id")
	if err != nil {
		return nil, err
	}

	o, err := s.ObligationService.LinkFacility(ctx, ownerID, obligationID, facilityID)
	if err != nil {
		return nil, mapError(err)
	}

	return response(obligationFields(o))
}

// DeleteObligation handles the DeleteObligation RPC
func (s *Server) DeleteObligation(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	ownerID, err := owner(ctx)
	if err != nil {
		return nil, err
	}
	obligationID, err := newRequest(in).uuid("obligation_id")
	if err != nil {
		return nil, err
	}

	if err := s.ObligationService.Delete(ctx, ownerID, obligationID); err != nil {
		return nil, mapError(err)
	}

	return response(map[string]interface{}{"deleted": true})
}

// ListObligations handles the ListObligations RPC
func (s *Server) ListObligations(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	ownerID, err := owner(ctx)
	if err != nil {
		return nil, err
	}

	obligations, err := s.ObligationService.List(ctx, ownerID)
	if err != nil {
		return nil, mapError(err)
	}

	items := make([]interface{}, 0, len(obligations))
	for _, o := range obligations {
		items = append(items, obligationFields(o))
	}

	return response(map[string]interface{}{"obligations": items})
}

// RecordEntry handles the RecordEntry RPC
func (s *Server) RecordEntry(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	ownerID, err := owner(ctx)
	if err != nil {
		return nil, err
	}
	req := newRequest(in)
	amount, err := req.amount("amount")
	if err != nil {
		return nil, err
	}
	categoryID, err := req.optionalUUID("category_id")
	if err != nil {
		return nil, err
	}
	date, err := req.date("date")
	if err != nil {
		return nil, err
	}

	result, err := s.LedgerService.RecordEntry(ctx, ledger.RecordEntryInput{
		OwnerID:       ownerID,
		Description:   req.str("description"),
		Amount:        amount,
		Kind:          domain.EntryKind(req.str("kind")),
		PaymentMethod: req.str("payment_method"),
		CategoryID:    categoryID,
		Date:          date,
	})
	if err != nil {
		return nil, mapError(err)
	}

	fields := map[string]interface{}{"entry": entryFields(result.Entry)}
	if result.Obligation != nil {
		fields["obligation"] = obligationFields(result.Obligation)
	}
	return response(fields)
}

// GetEntry handles the GetEntry RPC
func (s *Server) GetEntry(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	ownerID, err := owner(ctx)
	if err != nil {
		return nil, err
	}
	entryID, err := newRequest(in).uuid("entry_id")
	if err != nil {
		return nil, err
	}

	entry, err := s.LedgerService.Get(ctx, ownerID, entryID)
	if err != nil {
		return nil, mapError(err)
	}

	return response(entryFields(entry))
}

// ListEntries handles the ListEntries RPC. sort_by is "date" (default) or "created_at".
func (s *Server) ListEntries(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	ownerID, err := owner(ctx)
	if err != nil {
		return nil, err
	}

	entries, err := s.LedgerService.List(ctx, ownerID, domain.EntryOrder(newRequest(in).str("sort_by")))
	if err != nil {
		return nil, mapError(err)
	}

	items := make([]interface{}, 0, len(entries))
	for _, e := range entries {
		items = append(items, entryFields(e))
	}

	return response(map[string]interface{}{"entries": items})
}

// DeleteEntry handles the DeleteEntry RPC
func (s *Server) DeleteEntry(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	ownerID, err := owner(ctx)
	if err != nil {
		return nil, err
	}
	entryID, err := newRequest(in).uuid("entry_id")
	if err != nil {
		return nil, err
	}

	if err := s.LedgerService.DeleteEntry(ctx, ownerID, entryID); err != nil {
		return nil, mapError(err)
	}

	return response(map[string]interface{}{"deleted": true})
}

// owner returns the caller identity resolved by OwnerInterceptor
func owner(ctx context.Context) (uuid.UUID, error) {
	ownerID, ok := OwnerFromContext(ctx)
	if !ok {
		return uuid.Nil, status.Error(codes.Unauthenticated, "missing owner id")
	}
	return ownerID, nil
}

func response(fields map[string]interface{}) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return out, nil
}

// money converts an amount to the float carried on the wire
func money(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

func facilityFields(f *domain.Facility) map[string]interface{} {
	return map[string]interface{}{
		"id":            f.ID.String(),
		"name":          f.Name,
		"limit":         money(f.Limit),
		"interest_rate": money(f.InterestRate),
	}
}

func obligationFields(o *domain.Obligation) map[string]interface{} {
	fields := map[string]interface{}{
		"id":         o.ID.String(),
		"name":       o.Name,
		"principal":  money(o.Principal),
		"start_date": o.StartDate.Format(domain.DateLayout),
	}
	if o.FacilityID != nil {
		fields["facility_id"] = o.FacilityID.String()
	}
	if o.InterestRate.Valid {
		fields["interest_rate"] = money(o.InterestRate.Decimal)
	}
	if o.EndDate != nil {
		fields["end_date"] = o.EndDate.Format(domain.DateLayout)
	}
	if o.Installments != nil {
		fields["installments"] = *o.Installments
	}
	return fields
}

func entryFields(e *domain.LedgerEntry) map[string]interface{} {
	fields := map[string]interface{}{
		"id":             e.ID.String(),
		"description":    e.Description,
		"amount":         money(e.Amount),
		"kind":           string(e.Kind),
		"payment_method": e.PaymentMethod,
		"date":           e.Date.Format(domain.DateLayout),
	}
	if e.CategoryID != nil {
		fields["category_id"] = e.CategoryID.String()
	}
	return fields
}

func stepFields(steps []allocator.WaterfallStep) []interface{} {
	items := make([]interface{}, 0, len(steps))
	for _, step := range steps {
		items = append(items, map[string]interface{}{
			"obligation_id": step.ObligationID.String(),
			"before":        money(step.Before),
			"reduction":     money(step.Reduction),
			"after":         money(step.After),
		})
	}
	return items
}

func repaymentFields(result *repayment.RepaymentResult) map[string]interface{} {
	fields := map[string]interface{}{
		"balance":    money(result.Balance),
		"applied":    money(result.Applied),
		"discarded":  money(result.Discarded),
		"reductions": stepFields(result.Reductions),
	}
	if result.Entry != nil {
		fields["entry"] = entryFields(result.Entry)
	}
	return fields
}

func correctionFields(result *correction.CorrectionResult) map[string]interface{} {
	fields := map[string]interface{}{
		"previous_balance": money(result.Previous),
		"balance":          money(result.Balance),
		"diff":             money(result.Diff),
	}
	if result.Created != nil {
		fields["created_obligation"] = obligationFields(result.Created)
	}
	if result.Repayment != nil {
		fields["repayment"] = repaymentFields(result.Repayment)
	}
	return fields
}

// mapError converts domain errors to gRPC status errors
func mapError(err error) error {
	if err == nil {
		return nil
	}

	// Already a status (e.g. from request parsing)
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		return status.Errorf(codes.NotFound, "%s", err.Error())
	case errors.Is(err, domain.ErrInvalidAmount), errors.Is(err, domain.ErrInvalidInput):
		return status.Errorf(codes.InvalidArgument, "%s", err.Error())
	case errors.Is(err, domain.ErrForbidden):
		return status.Errorf(codes.PermissionDenied, "%s", err.Error())
	}

	// Default to Internal error for unknown errors
	return status.Errorf(codes.Internal, "%s", err.Error())
}
