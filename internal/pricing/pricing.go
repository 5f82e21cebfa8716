package pricing

import (
	"math"
	"strings"

	apperrors "ticket-reservation-service/pkg/app_errors"
)

// DiscountCode 目前唯一支援的折扣碼（10% off）
const DiscountCode = "DISCOUNT10"

const discountRate = 0.9

// Final 計算最終票價。空白折扣碼回傳原價；未知折扣碼回傳 ErrInvalidCoupon。
// 折扣後採四捨五入到整數貨幣單位，且不低於 0。純函數，無任何副作用。
func Final(basePrice float64, couponCode string) (float64, error) {
	code := strings.TrimSpace(couponCode)
	if code == "" {
		return basePrice, nil
	}

	if strings.ToUpper(code) != DiscountCode {
		return 0, apperrors.ErrInvalidCoupon
	}

	discounted := math.Floor(basePrice*discountRate + 0.5)
	return math.Max(0, discounted), nil
}
