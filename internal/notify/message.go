package notify

import (
	"fmt"
	"html"

	"github.com/romanzh1/practice-srs/internal/models"
)

const reminderTitle = "📚 Revision Reminder"

// ReminderText renders the body of a daily revision reminder.
func ReminderText(reminder models.RevisionReminder) string {
	var body string
	if reminder.DueCount == 1 && reminder.FirstDueProblemName != "" {
		body = fmt.Sprintf("You have 1 pending revision: %s", reminder.FirstDueProblemName)
	} else if reminder.DueCount == 1 {
		body = "You have 1 pending revision to complete."
	} else {
		body = fmt.Sprintf("You have %d pending revisions to complete.", reminder.DueCount)
	}

	return body + " 5 mins now saves hours later!"
}

// reminderHTML is the Telegram flavour: bold title, escaped body.
func reminderHTML(reminder models.RevisionReminder) string {
	return fmt.Sprintf("<b>%s</b>\n%s", reminderTitle, html.EscapeString(ReminderText(reminder)))
}
