package utils

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"os"
	"strings"
)

// ReferralType represents the type of entity for which a referral code is
// being generated.
type ReferralType string

const (
	CustomerType  ReferralType = "CUS"
	AssociateType ReferralType = "ASC"
)

// GenerateReferralCode generates a unique referral code for the specified
// entity type. Format: {TYPE}-{RANDOM} where RANDOM is 6 alphanumeric
// characters. Example: CUS-ABC123.
func GenerateReferralCode(entityType ReferralType) (string, error) {
	randomBytes := make([]byte, 4)
	_, err := rand.Read(randomBytes)
	if err != nil {
		return "", err
	}

	randomStr := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(randomBytes)
	randomStr = randomStr[:6]

	randomStr = strings.ToUpper(randomStr)
	randomStr = strings.Map(func(r rune) rune {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, randomStr)

	if len(randomStr) < 6 {
		randomStr = randomStr + strings.Repeat("0", 6-len(randomStr))
	}

	return string(entityType) + "-" + randomStr, nil
}

// GenerateCustomerReferralCode generates a referral code for a customer.
func GenerateCustomerReferralCode() (string, error) {
	return GenerateReferralCode(CustomerType)
}

// GenerateAssociateReferralCode generates a referral code for an associate.
func GenerateAssociateReferralCode() (string, error) {
	return GenerateReferralCode(AssociateType)
}

// ReferralLink builds the public signup link that embeds a referral code.
func ReferralLink(code string) string {
	base := os.Getenv("FRONTEND_URL")
	if base == "" {
		base = "https://app.findingu.mx"
	}
	return fmt.Sprintf("%s/signup?ref=%s", strings.TrimRight(base, "/"), code)
}
