// Package notifications tells subscribers about newly catalogued articles.
//
// The Dispatcher matches every author of an article against active
// subscriptions (case-insensitive full name equality) and sends one plain-text
// email per matching subscription through a Mailer. Send failures are counted
// and logged, never returned: a broken mail transport must not change the
// outcome of the operation that triggered the notification.
//
// Two Mailer implementations exist:
//
//   - SMTPMailer delivers through an SMTP relay using go-mail
//   - LogMailer only logs the message, used when mail is disabled
package notifications
