package utils

import (
	"errors"
	"math/rand"
	"strings"
	"time"

	"github.com/anjiri1684/field_booking/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	KindUser         = "user"
	KindField        = "field"
	KindImage        = "img"
	KindBooking      = "booking"
	KindPayment      = "payment"
	KindPoint        = "point"
	KindProgram      = "program"
	KindRedemption   = "redemption"
	KindNotification = "notif"
)

const redemptionCodeLength = 6
const letterBytes = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewID issues an opaque primary key such as "booking-3f2a...".
func NewID(kind string) string {
	return kind + "-" + uuid.NewString()
}

// RedemptionPrefix is the upper-cased first four letters of a reward type.
func RedemptionPrefix(rewardType string) string {
	p := strings.ToUpper(rewardType)
	if len(p) > 4 {
		p = p[:4]
	}
	return p
}

func GenerateUniqueRedemptionCode(tx *gorm.DB, prefix string) (string, error) {
	seededRand := rand.New(rand.NewSource(time.Now().UnixNano()))

	for {
		b := make([]byte, redemptionCodeLength)
		for i := range b {
			b[i] = letterBytes[seededRand.Intn(len(letterBytes))]
		}
		code := prefix + "-" + string(b)

		var redemption models.Redemption
		err := tx.Select("id").Where("redemption_code = ?", code).First(&redemption).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return code, nil
			}
			return "", err
		}
	}
}
