package utils

import (
	"fmt"
	"log"
	"os"

	"gopkg.in/gomail.v2"
)

// smtpSettings reads the mail transport from the environment. Port defaults
// to 2525 to match the transactional relay used in staging.
func smtpSettings() (host, user, pass string, port int) {
	host = os.Getenv("SMTP_HOST")
	user = os.Getenv("SMTP_USER")
	pass = os.Getenv("SMTP_PASS")
	port = 2525
	if portStr := os.Getenv("SMTP_PORT"); portStr != "" {
		fmt.Sscanf(portStr, "%d", &port)
	}
	return
}

// SendPayoutRequestEmail notifies the payouts mailbox that an associate
// requested a commission deposit. Mail is best-effort: a delivery failure is
// logged and the payout request still stands.
func SendPayoutRequestEmail(beneficiaryName, beneficiaryEmail, monthKey, clabeLast4 string, amount float64) {
	to := os.Getenv("PAYOUT_ADMIN_EMAIL")
	if to == "" {
		return
	}

	host, user, pass, port := smtpSettings()
	if host == "" {
		log.Printf("SMTP not configured, skipping payout email for %s", beneficiaryEmail)
		return
	}

	subject := fmt.Sprintf("Payout request %s — %s", monthKey, beneficiaryName)
	body := fmt.Sprintf(
		"Associate %s (%s) requested a payout of $%.2f for %s.\nDeposit to CLABE ending in %s.",
		beneficiaryName, beneficiaryEmail, amount, monthKey, clabeLast4,
	)

	m := gomail.NewMessage()
	m.SetHeader("From", user)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)
	d := gomail.NewDialer(host, port, user, pass)
	if err := d.DialAndSend(m); err != nil {
		log.Printf("Failed to send payout email for %s: %v", beneficiaryEmail, err)
	}
}
