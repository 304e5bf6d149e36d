// Package mailer dispatches best-effort reservation notifications over SMTP.
//
// Sending happens after the reservation transaction commits and is never part
// of its correctness contract: callers log failures and move on.
package mailer
