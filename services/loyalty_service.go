package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/anjiri1684/field_booking/apperrors"
	"github.com/anjiri1684/field_booking/database"
	"github.com/anjiri1684/field_booking/events"
	"github.com/anjiri1684/field_booking/models"
	"github.com/anjiri1684/field_booking/utils"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"
)

type LoyaltyService struct {
	db     *gorm.DB
	log    *logrus.Logger
	events events.Publisher
	notify Notifier
	now    func() time.Time
}

func NewLoyaltyService(db *gorm.DB, log *logrus.Logger, pub events.Publisher, notify Notifier) *LoyaltyService {
	return &LoyaltyService{db: db, log: log, events: pub, notify: notify, now: func() time.Time { return time.Now().UTC() }}
}

type UserPoints struct {
	TotalPoints   int                   `json:"total_points"`
	ActivePoints  int                   `json:"active_points"`
	UsedPoints    int                   `json:"used_points"`
	ExpiredPoints int                   `json:"expired_points"`
	PointsHistory []models.LoyaltyPoint `json:"points_history"`
}

type RedeemResult struct {
	RedemptionID   string `json:"redemption_id"`
	ProgramName    string `json:"program_name"`
	PointsUsed     int    `json:"points_used"`
	Status         string `json:"status"`
	RedemptionCode string `json:"redemption_code"`
}

type RedemptionView struct {
	RedemptionID   string    `json:"redemption_id"`
	ProgramName    string    `json:"program_name"`
	PointsUsed     int       `json:"points_used"`
	RedemptionDate time.Time `json:"redemption_date"`
	Status         string    `json:"status"`
	RedemptionCode string    `json:"redemption_code"`
	Notes          *string   `json:"notes"`
}

type ProgramInput struct {
	ProgramName    string
	Description    string
	PointsRequired int
	RewardType     string
	RewardValue    string
	StartDate      time.Time
	EndDate        *time.Time
}

// ProgramUpdate is a partial update; nil members are left unchanged.
type ProgramUpdate struct {
	ProgramName    *string
	Description    *string
	PointsRequired *int
	RewardType     *string
	RewardValue    *string
	IsActive       *bool
	StartDate      *time.Time
	EndDate        *time.Time
}

// activeProgram keeps programs that are switched on and whose date window
// contains today.
func activeProgram(today time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("is_active = ?", true).
			Where("start_date <= ?", today).
			Where("(end_date IS NULL OR end_date >= ?)", today)
	}
}

// GetUserPoints partitions every grant of the user into active, used and
// expired. A grant is expired once its expiry date has passed.
func (s *LoyaltyService) GetUserPoints(ctx context.Context, userID string) (*UserPoints, error) {
	var grants []models.LoyaltyPoint
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("earned_date DESC").Order("id ASC").Find(&grants).Error
	if err != nil {
		return nil, storeErr(err, "Failed to load points")
	}

	now := s.now()
	out := UserPoints{PointsHistory: grants}
	for _, g := range grants {
		out.TotalPoints += g.PointsEarned
		switch {
		case g.IsUsed:
			out.UsedPoints += g.PointsEarned
		case g.ExpiryDate.Before(now):
			out.ExpiredPoints += g.PointsEarned
		default:
			out.ActivePoints += g.PointsEarned
		}
	}
	return &out, nil
}

func (s *LoyaltyService) ListPrograms(ctx context.Context, activeOnly bool) ([]models.LoyaltyProgram, error) {
	q := s.db.WithContext(ctx)
	if activeOnly {
		q = q.Scopes(activeProgram(utils.DateOf(s.now())))
	}
	var programs []models.LoyaltyProgram
	if err := q.Order("points_required ASC").Find(&programs).Error; err != nil {
		return nil, storeErr(err, "Failed to load loyalty programs")
	}
	return programs, nil
}

func (s *LoyaltyService) GetProgram(ctx context.Context, id string) (*models.LoyaltyProgram, error) {
	var p models.LoyaltyProgram
	err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if database.IsNotFound(err) {
		return nil, apperrors.NotFound("Loyalty program not found")
	}
	if err != nil {
		return nil, storeErr(err, "Failed to load loyalty program")
	}
	return &p, nil
}

func (s *LoyaltyService) CreateProgram(ctx context.Context, in ProgramInput) (*models.LoyaltyProgram, error) {
	if in.PointsRequired <= 0 {
		return nil, apperrors.Validation("points_required must be positive")
	}
	if in.EndDate != nil && in.EndDate.Before(in.StartDate) {
		return nil, apperrors.Validation("end_date must not be before start_date")
	}
	p := models.LoyaltyProgram{
		ID:             utils.NewID(utils.KindProgram),
		ProgramName:    strings.TrimSpace(in.ProgramName),
		Description:    in.Description,
		PointsRequired: in.PointsRequired,
		RewardType:     in.RewardType,
		RewardValue:    in.RewardValue,
		IsActive:       true,
		StartDate:      utils.DateOf(in.StartDate),
	}
	if in.EndDate != nil {
		end := utils.DateOf(*in.EndDate)
		p.EndDate = &end
	}
	if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
		return nil, storeErr(err, "Failed to create loyalty program")
	}
	s.log.WithField("program_id", p.ID).Info("loyalty program created")
	return &p, nil
}

func (s *LoyaltyService) UpdateProgram(ctx context.Context, id string, in ProgramUpdate) (*models.LoyaltyProgram, error) {
	updates := map[string]any{}
	if in.ProgramName != nil {
		updates["program_name"] = strings.TrimSpace(*in.ProgramName)
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.PointsRequired != nil {
		if *in.PointsRequired <= 0 {
			return nil, apperrors.Validation("points_required must be positive")
		}
		updates["points_required"] = *in.PointsRequired
	}
	if in.RewardType != nil {
		updates["reward_type"] = *in.RewardType
	}
	if in.RewardValue != nil {
		updates["reward_value"] = *in.RewardValue
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}
	if in.StartDate != nil {
		updates["start_date"] = utils.DateOf(*in.StartDate)
	}
	if in.EndDate != nil {
		updates["end_date"] = utils.DateOf(*in.EndDate)
	}
	if len(updates) == 0 {
		updates["updated_at"] = s.now()
	}

	res := s.db.WithContext(ctx).Model(&models.LoyaltyProgram{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, storeErr(res.Error, "Failed to update loyalty program")
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.NotFound("Loyalty program not found")
	}
	return s.GetProgram(ctx, id)
}

// DeleteProgram fails with Conflict while redemptions still reference the program.
func (s *LoyaltyService) DeleteProgram(ctx context.Context, id string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var used int64
		if err := tx.Model(&models.Redemption{}).Where("program_id = ?", id).Count(&used).Error; err != nil {
			return err
		}
		if used > 0 {
			return apperrors.Conflict("Loyalty program has redemptions and cannot be deleted")
		}
		res := tx.Delete(&models.LoyaltyProgram{}, "id = ?", id)
		if res.Error != nil {
			if database.IsForeignKeyViolation(res.Error) {
				return apperrors.Conflict("Loyalty program has redemptions and cannot be deleted")
			}
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.NotFound("Loyalty program not found")
		}
		return nil
	})
	return storeErr(err, "Failed to delete loyalty program")
}

// Redeem spends pointsUsed of the user's active points on a program.
//
// The user's row is locked first so redemptions by the same user run one
// after another; the second sees the grants the first one consumed or split.
// Grants are then consumed oldest first. A grant larger than what is still
// owed is marked used and its remainder is re-issued as a new unused grant
// with the same source, reference, earned and expiry dates.
func (s *LoyaltyService) Redeem(ctx context.Context, userID, programID string, pointsUsed int) (*RedeemResult, error) {
	ctx, span := tracer.Start(ctx, "LoyaltyService.Redeem")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID), attribute.String("program.id", programID), attribute.Int("points", pointsUsed))

	if pointsUsed <= 0 {
		return nil, apperrors.Validation("points_used must be positive")
	}

	now := s.now()
	var out RedeemResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var program models.LoyaltyProgram
		err := tx.Scopes(activeProgram(utils.DateOf(now))).First(&program, "id = ?", programID).Error
		if database.IsNotFound(err) {
			return apperrors.NotFound("Loyalty program not found or inactive")
		}
		if err != nil {
			return err
		}

		var user models.User
		if err := tx.Clauses(forUpdate).Select("id").First(&user, "id = ?", userID).Error; err != nil {
			if database.IsNotFound(err) {
				return apperrors.NotFound("User not found")
			}
			return err
		}

		var grants []models.LoyaltyPoint
		err = tx.Clauses(forUpdate).
			Where("user_id = ? AND is_used = ? AND expiry_date > ?", userID, false, now).
			Order("earned_date ASC").Order("id ASC").
			Find(&grants).Error
		if err != nil {
			return err
		}

		available := 0
		for _, g := range grants {
			available += g.PointsEarned
		}
		if available < pointsUsed {
			return apperrors.Validation("Not enough points available")
		}
		if pointsUsed < program.PointsRequired {
			return apperrors.Validation("This program requires at least %d points", program.PointsRequired)
		}

		code, err := utils.GenerateUniqueRedemptionCode(tx, utils.RedemptionPrefix(program.RewardType))
		if err != nil {
			return err
		}
		redemption := models.Redemption{
			ID:             utils.NewID(utils.KindRedemption),
			UserID:         userID,
			ProgramID:      program.ID,
			PointsUsed:     pointsUsed,
			RedemptionCode: code,
			Status:         models.RedemptionCompleted,
			RedemptionDate: now,
		}
		if err := tx.Create(&redemption).Error; err != nil {
			return err
		}

		if err := consumeGrants(tx, grants, pointsUsed); err != nil {
			return err
		}

		out = RedeemResult{
			RedemptionID:   redemption.ID,
			ProgramName:    program.ProgramName,
			PointsUsed:     pointsUsed,
			Status:         redemption.Status,
			RedemptionCode: code,
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, storeErr(err, "Failed to redeem points")
	}

	s.log.WithFields(logrus.Fields{"user_id": userID, "redemption_id": out.RedemptionID, "points": pointsUsed}).Info("points redeemed")
	publish(ctx, s.events, s.log, events.PointsRedeemed, out)
	notifyUser(ctx, s.notify, s.log, userID, "Points Redeemed",
		"You redeemed "+out.ProgramName+". Your code is "+out.RedemptionCode+".",
		models.NotificationPromotion, out.RedemptionID)
	return &out, nil
}

// consumeGrants spends need points from grants, which must be ordered oldest
// first and hold at least need points in total.
func consumeGrants(tx *gorm.DB, grants []models.LoyaltyPoint, need int) error {
	for _, g := range grants {
		if need <= 0 {
			break
		}
		if err := tx.Model(&models.LoyaltyPoint{}).Where("id = ?", g.ID).Update("is_used", true).Error; err != nil {
			return err
		}
		if g.PointsEarned <= need {
			need -= g.PointsEarned
			continue
		}

		remainder := models.LoyaltyPoint{
			ID:           utils.NewID(utils.KindPoint),
			UserID:       g.UserID,
			PointsEarned: g.PointsEarned - need,
			Source:       g.Source,
			Reference:    g.Reference,
			EarnedDate:   g.EarnedDate,
			ExpiryDate:   g.ExpiryDate,
		}
		if err := tx.Create(&remainder).Error; err != nil {
			return err
		}
		need = 0
	}
	return nil
}

func (s *LoyaltyService) RedemptionHistory(ctx context.Context, userID string) ([]RedemptionView, error) {
	var rows []models.Redemption
	err := s.db.WithContext(ctx).Preload("Program").Where("user_id = ?", userID).Order("redemption_date DESC").Find(&rows).Error
	if err != nil {
		return nil, storeErr(err, "Failed to load redemptions")
	}
	out := make([]RedemptionView, 0, len(rows))
	for _, r := range rows {
		out = append(out, RedemptionView{
			RedemptionID:   r.ID,
			ProgramName:    r.Program.ProgramName,
			PointsUsed:     r.PointsUsed,
			RedemptionDate: r.RedemptionDate,
			Status:         r.Status,
			RedemptionCode: r.RedemptionCode,
			Notes:          r.Notes,
		})
	}
	return out, nil
}

// ExpiringPoints sums, per user, the active points that expire before until.
func (s *LoyaltyService) ExpiringPoints(ctx context.Context, until time.Time) (map[string]int, error) {
	var rows []models.LoyaltyPoint
	err := s.db.WithContext(ctx).Select("user_id", "points_earned").
		Where("is_used = ? AND expiry_date > ? AND expiry_date <= ?", false, s.now(), until).
		Find(&rows).Error
	if err != nil {
		return nil, storeErr(err, "Failed to load expiring points")
	}
	out := map[string]int{}
	for _, r := range rows {
		out[r.UserID] += r.PointsEarned
	}
	return out, nil
}

type issuedGrant struct {
	UserID    string
	Source    string
	Reference string
	Points    int
}

// issuedInRange returns each grant issued in [from, to) once. Split
// remainders share source and reference with their original and are
// smaller, so the largest row of a lineage is the amount issued.
func issuedInRange(db *gorm.DB, from, to *time.Time) ([]issuedGrant, error) {
	q := db.Model(&models.LoyaltyPoint{}).Select("user_id", "source", "reference", "points_earned")
	if from != nil {
		q = q.Where("earned_date >= ?", *from)
	}
	if to != nil {
		q = q.Where("earned_date < ?", *to)
	}
	var rows []models.LoyaltyPoint
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}

	byKey := map[[3]string]int{}
	for _, r := range rows {
		k := [3]string{r.UserID, r.Source, r.Reference}
		if r.PointsEarned > byKey[k] {
			byKey[k] = r.PointsEarned
		}
	}
	out := make([]issuedGrant, 0, len(byKey))
	for k, pts := range byKey {
		out = append(out, issuedGrant{UserID: k[0], Source: k[1], Reference: k[2], Points: pts})
	}
	return out, nil
}

type ProgramUsage struct {
	ProgramID        string `json:"program_id"`
	ProgramName      string `json:"program_name"`
	RedemptionsCount int    `json:"redemptions_count"`
	PointsUsed       int    `json:"points_used"`
}

type TopUser struct {
	UserID         string `json:"user_id"`
	FullName       string `json:"full_name"`
	PointsEarned   int    `json:"points_earned"`
	PointsRedeemed int    `json:"points_redeemed"`
}

type LoyaltyReport struct {
	Period              Period         `json:"period"`
	TotalPointsIssued   int            `json:"total_points_issued"`
	TotalPointsRedeemed int            `json:"total_points_redeemed"`
	ActiveUsers         int            `json:"active_users"`
	ProgramsUsage       []ProgramUsage `json:"programs_usage"`
	TopUsers            []TopUser      `json:"top_users"`
}

const topUsersLimit = 10

// Report summarises points issued and redeemed on days within [from, to].
func (s *LoyaltyService) Report(ctx context.Context, from, to time.Time) (*LoyaltyReport, error) {
	period, err := newPeriod(from, to)
	if err != nil {
		return nil, err
	}
	start, end := utils.DateOf(from), utils.DateOf(to).AddDate(0, 0, 1)
	db := s.db.WithContext(ctx)

	issued, err := issuedInRange(db, &start, &end)
	if err != nil {
		return nil, storeErr(err, "Failed to load issued points")
	}
	var redemptions []models.Redemption
	err = db.Preload("Program").
		Where("redemption_date >= ? AND redemption_date < ?", start, end).
		Find(&redemptions).Error
	if err != nil {
		return nil, storeErr(err, "Failed to load redemptions")
	}

	rep := LoyaltyReport{Period: period, ProgramsUsage: []ProgramUsage{}, TopUsers: []TopUser{}}
	users := map[string]*TopUser{}
	user := func(id string) *TopUser {
		u, ok := users[id]
		if !ok {
			u = &TopUser{UserID: id}
			users[id] = u
		}
		return u
	}

	for _, g := range issued {
		rep.TotalPointsIssued += g.Points
		user(g.UserID).PointsEarned += g.Points
	}
	programs := map[string]*ProgramUsage{}
	for _, r := range redemptions {
		rep.TotalPointsRedeemed += r.PointsUsed
		user(r.UserID).PointsRedeemed += r.PointsUsed
		pu, ok := programs[r.ProgramID]
		if !ok {
			pu = &ProgramUsage{ProgramID: r.ProgramID, ProgramName: r.Program.ProgramName}
			programs[r.ProgramID] = pu
		}
		pu.RedemptionsCount++
		pu.PointsUsed += r.PointsUsed
	}
	rep.ActiveUsers = len(users)

	for _, pu := range programs {
		rep.ProgramsUsage = append(rep.ProgramsUsage, *pu)
	}
	sort.Slice(rep.ProgramsUsage, func(i, j int) bool {
		a, b := rep.ProgramsUsage[i], rep.ProgramsUsage[j]
		if a.RedemptionsCount != b.RedemptionsCount {
			return a.RedemptionsCount > b.RedemptionsCount
		}
		return a.ProgramName < b.ProgramName
	})

	// Users who only redeemed in the range earned nothing and are not ranked.
	ranked := make([]TopUser, 0, len(users))
	for _, u := range users {
		if u.PointsEarned == 0 {
			continue
		}
		ranked = append(ranked, *u)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].PointsEarned != ranked[j].PointsEarned {
			return ranked[i].PointsEarned > ranked[j].PointsEarned
		}
		return ranked[i].UserID < ranked[j].UserID
	})
	if len(ranked) > topUsersLimit {
		ranked = ranked[:topUsersLimit]
	}
	if len(ranked) > 0 {
		ids := make([]string, 0, len(ranked))
		for _, u := range ranked {
			ids = append(ids, u.UserID)
		}
		var named []models.User
		if err := db.Select("id", "full_name").Where("id IN ?", ids).Find(&named).Error; err != nil {
			return nil, storeErr(err, "Failed to load users")
		}
		names := map[string]string{}
		for _, u := range named {
			names[u.ID] = u.FullName
		}
		for i := range ranked {
			ranked[i].FullName = names[ranked[i].UserID]
		}
	}
	rep.TopUsers = ranked
	return &rep, nil
}
