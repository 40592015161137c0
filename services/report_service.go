package services

import (
	"context"
	"sort"
	"time"

	"github.com/anjiri1684/field_booking/apperrors"
	"github.com/anjiri1684/field_booking/models"
	"github.com/anjiri1684/field_booking/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	GroupByDay   = "day"
	GroupByWeek  = "week"
	GroupByMonth = "month"
)

type ReportService struct {
	db       *gorm.DB
	payments *PaymentService
	now      func() time.Time
}

func NewReportService(db *gorm.DB, payments *PaymentService) *ReportService {
	return &ReportService{db: db, payments: payments, now: func() time.Time { return time.Now().UTC() }}
}

type PeriodRevenue struct {
	Period  string          `json:"period"`
	Revenue decimal.Decimal `json:"revenue"`
}

type RevenueReport struct {
	Period          Period          `json:"period"`
	GroupBy         string          `json:"group_by"`
	TotalRevenue    decimal.Decimal `json:"total_revenue"`
	Payments        []PaymentView   `json:"payments"`
	RevenueByPeriod []PeriodRevenue `json:"revenue_by_period"`
}

// PeriodKey names the bucket t falls in: the day, the Monday that starts
// its week, or its month.
func PeriodKey(t time.Time, groupBy string) string {
	t = t.UTC()
	switch groupBy {
	case GroupByWeek:
		offset := (int(t.Weekday()) + 6) % 7
		return utils.DateOf(t).AddDate(0, 0, -offset).Format(utils.DateLayout)
	case GroupByMonth:
		return t.Format("2006-01")
	default:
		return t.Format(utils.DateLayout)
	}
}

// RevenueReport sums completed payments settled on days within [from, to].
func (s *ReportService) RevenueReport(ctx context.Context, from, to time.Time, groupBy string) (*RevenueReport, error) {
	if groupBy == "" {
		groupBy = GroupByDay
	}
	if groupBy != GroupByDay && groupBy != GroupByWeek && groupBy != GroupByMonth {
		return nil, apperrors.Validation("group_by must be one of day, week, month")
	}
	period, err := newPeriod(from, to)
	if err != nil {
		return nil, err
	}

	var rows []models.Payment
	err = s.db.WithContext(ctx).Preload("Method").
		Where("status = ?", models.PaymentCompleted).
		Where("payment_date >= ? AND payment_date < ?", utils.DateOf(from), utils.DateOf(to).AddDate(0, 0, 1)).
		Order("payment_date ASC").
		Find(&rows).Error
	if err != nil {
		return nil, storeErr(err, "Failed to load payments")
	}

	rep := RevenueReport{Period: period, GroupBy: groupBy, Payments: make([]PaymentView, 0, len(rows)), RevenueByPeriod: []PeriodRevenue{}}
	buckets := map[string]decimal.Decimal{}
	for _, p := range rows {
		rep.TotalRevenue = rep.TotalRevenue.Add(p.Amount)
		rep.Payments = append(rep.Payments, viewOf(p))
		if p.PaymentDate == nil {
			continue
		}
		key := PeriodKey(*p.PaymentDate, groupBy)
		buckets[key] = buckets[key].Add(p.Amount)
	}
	rep.TotalRevenue = models.RoundMoney(rep.TotalRevenue)
	for k, v := range buckets {
		rep.RevenueByPeriod = append(rep.RevenueByPeriod, PeriodRevenue{Period: k, Revenue: models.RoundMoney(v)})
	}
	sort.Slice(rep.RevenueByPeriod, func(i, j int) bool {
		return rep.RevenueByPeriod[i].Period < rep.RevenueByPeriod[j].Period
	})
	return &rep, nil
}

func (s *ReportService) PaymentReport(ctx context.Context, from, to time.Time) (*PaymentReport, error) {
	return s.payments.Report(ctx, from, to)
}

// Growth is the change from previous to current in percent, one decimal.
// With nothing to compare against it is zero.
func Growth(current, previous decimal.Decimal) decimal.Decimal {
	if previous.IsZero() {
		return decimal.Zero
	}
	return current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100)).Round(1)
}

// periodStart returns where the reporting window of the given length begins.
func periodStart(now time.Time, period string) (time.Time, error) {
	switch period {
	case "daily":
		return now.AddDate(0, 0, -1), nil
	case "weekly":
		return now.AddDate(0, 0, -7), nil
	case "", "monthly":
		return now.AddDate(0, -1, 0), nil
	case "yearly":
		return now.AddDate(-1, 0, 0), nil
	}
	return time.Time{}, apperrors.Validation("period must be one of daily, weekly, monthly, yearly")
}

type UserStats struct {
	Total         int64 `json:"total"`
	Active        int64 `json:"active"`
	NewThisPeriod int64 `json:"new_this_period"`
}

type BookingStats struct {
	Total      int64 `json:"total"`
	Completed  int64 `json:"completed"`
	Cancelled  int64 `json:"cancelled"`
	ThisPeriod int64 `json:"this_period"`
}

type RevenueStats struct {
	Total            decimal.Decimal `json:"total"`
	ThisPeriod       decimal.Decimal `json:"this_period"`
	GrowthPercentage decimal.Decimal `json:"growth_percentage"`
}

type MostBookedField struct {
	FieldID       string `json:"field_id"`
	FieldName     string `json:"field_name"`
	BookingsCount int64  `json:"bookings_count"`
}

type FieldStats struct {
	Total      int64            `json:"total"`
	Active     int64            `json:"active"`
	MostBooked *MostBookedField `json:"most_booked"`
}

type PopularProgram struct {
	ProgramID        string `json:"program_id"`
	ProgramName      string `json:"program_name"`
	RedemptionsCount int64  `json:"redemptions_count"`
}

type LoyaltyStats struct {
	TotalPointsIssued   int             `json:"total_points_issued"`
	TotalPointsRedeemed int64           `json:"total_points_redeemed"`
	MostPopularProgram  *PopularProgram `json:"most_popular_program"`
}

type SystemStatistics struct {
	Period   string       `json:"period"`
	Users    UserStats    `json:"users"`
	Bookings BookingStats `json:"bookings"`
	Revenue  RevenueStats `json:"revenue"`
	Fields   FieldStats   `json:"fields"`
	Loyalty  LoyaltyStats `json:"loyalty"`
}

func sumAmounts(db *gorm.DB) (decimal.Decimal, error) {
	var amounts []decimal.Decimal
	if err := db.Pluck("amount", &amounts).Error; err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return models.RoundMoney(total), nil
}

// SystemStatistics gives the super admin overview for the trailing period.
func (s *ReportService) SystemStatistics(ctx context.Context, period string) (*SystemStatistics, error) {
	now := s.now()
	start, err := periodStart(now, period)
	if err != nil {
		return nil, err
	}
	if period == "" {
		period = "monthly"
	}
	prevStart := start.Add(-now.Sub(start))
	db := s.db.WithContext(ctx)
	out := SystemStatistics{Period: period}

	users := func() *gorm.DB { return db.Model(&models.User{}).Where("user_type = ?", models.RoleCustomer) }
	if err := users().Count(&out.Users.Total).Error; err != nil {
		return nil, storeErr(err, "Failed to count users")
	}
	if err := users().Where("is_active = ?", true).Count(&out.Users.Active).Error; err != nil {
		return nil, storeErr(err, "Failed to count users")
	}
	if err := users().Where("created_at >= ?", start).Count(&out.Users.NewThisPeriod).Error; err != nil {
		return nil, storeErr(err, "Failed to count users")
	}

	bookings := func() *gorm.DB { return db.Model(&models.Booking{}) }
	counts := []struct {
		dst   *int64
		scope func(*gorm.DB) *gorm.DB
	}{
		{&out.Bookings.Total, func(d *gorm.DB) *gorm.DB { return d }},
		{&out.Bookings.Completed, func(d *gorm.DB) *gorm.DB { return d.Where("booking_status = ?", models.BookingCompleted) }},
		{&out.Bookings.Cancelled, func(d *gorm.DB) *gorm.DB { return d.Where("booking_status = ?", models.BookingCancelled) }},
		{&out.Bookings.ThisPeriod, func(d *gorm.DB) *gorm.DB { return d.Where("created_at >= ?", start) }},
	}
	for _, c := range counts {
		if err := bookings().Scopes(c.scope).Count(c.dst).Error; err != nil {
			return nil, storeErr(err, "Failed to count bookings")
		}
	}

	completed := func() *gorm.DB {
		return db.Model(&models.Payment{}).Where("status = ?", models.PaymentCompleted)
	}
	if out.Revenue.Total, err = sumAmounts(completed()); err != nil {
		return nil, storeErr(err, "Failed to sum revenue")
	}
	if out.Revenue.ThisPeriod, err = sumAmounts(completed().Where("payment_date >= ?", start)); err != nil {
		return nil, storeErr(err, "Failed to sum revenue")
	}
	previous, err := sumAmounts(completed().Where("payment_date >= ? AND payment_date < ?", prevStart, start))
	if err != nil {
		return nil, storeErr(err, "Failed to sum revenue")
	}
	out.Revenue.GrowthPercentage = Growth(out.Revenue.ThisPeriod, previous)

	if err := db.Model(&models.Field{}).Count(&out.Fields.Total).Error; err != nil {
		return nil, storeErr(err, "Failed to count fields")
	}
	if err := db.Model(&models.Field{}).Where("is_available = ?", true).Count(&out.Fields.Active).Error; err != nil {
		return nil, storeErr(err, "Failed to count fields")
	}
	var top []MostBookedField
	err = db.Model(&models.Booking{}).
		Select("bookings.field_id AS field_id, fields.field_name AS field_name, COUNT(bookings.id) AS bookings_count").
		Joins("JOIN fields ON fields.id = bookings.field_id").
		Where("bookings.booking_status <> ?", models.BookingCancelled).
		Group("bookings.field_id, fields.field_name").
		Order("bookings_count DESC").
		Limit(1).
		Scan(&top).Error
	if err != nil {
		return nil, storeErr(err, "Failed to load most booked field")
	}
	if len(top) == 1 {
		out.Fields.MostBooked = &top[0]
	}

	issued, err := issuedInRange(db, nil, nil)
	if err != nil {
		return nil, storeErr(err, "Failed to load issued points")
	}
	for _, g := range issued {
		out.Loyalty.TotalPointsIssued += g.Points
	}
	var redeemed []int64
	if err := db.Model(&models.Redemption{}).Pluck("points_used", &redeemed).Error; err != nil {
		return nil, storeErr(err, "Failed to sum redemptions")
	}
	for _, r := range redeemed {
		out.Loyalty.TotalPointsRedeemed += r
	}
	var popular []PopularProgram
	err = db.Model(&models.Redemption{}).
		Select("redemptions.program_id AS program_id, loyalty_programs.program_name AS program_name, COUNT(redemptions.id) AS redemptions_count").
		Joins("JOIN loyalty_programs ON loyalty_programs.id = redemptions.program_id").
		Group("redemptions.program_id, loyalty_programs.program_name").
		Order("redemptions_count DESC").
		Limit(1).
		Scan(&popular).Error
	if err != nil {
		return nil, storeErr(err, "Failed to load most popular program")
	}
	if len(popular) == 1 {
		out.Loyalty.MostPopularProgram = &popular[0]
	}
	return &out, nil
}
