package templates

import (
	"fmt"
	"html"
)

const emailStyle = `body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; margin: 0; padding: 0; background-color: #0f1115; }
    .container { max-width: 600px; margin: 0 auto; background-color: #181b22; color: #e6e6e6; }
    .header { background: linear-gradient(135deg, #14a800 0%, #0d7a00 100%); padding: 40px 30px; text-align: center; color: #ffffff; }
    .content { padding: 30px; line-height: 1.6; }
    .button { display: inline-block; padding: 12px 24px; background-color: #14a800; color: #ffffff; text-decoration: none; border-radius: 6px; }
    .footer { padding: 20px 30px; font-size: 12px; color: #8a8f98; text-align: center; }`

func renderEmail(title, greeting, bodyHTML string) string {
	return fmt.Sprintf(`<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Strict//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-strict.dtd">
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
  <meta http-equiv="Content-Type" content="text/html; charset=utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1, minimum-scale=1, maximum-scale=1">
  <title>%s</title>
  <style type="text/css">
    %s
  </style>
</head>
<body>
  <div class="container">
    <div class="header"><h1>Upwork Revolution</h1></div>
    <div class="content">
      <p>%s</p>
      %s
    </div>
    <div class="footer">Upwork Revolution Community &middot; this mailbox is not monitored</div>
  </div>
</body>
</html>`, html.EscapeString(title), emailStyle, html.EscapeString(greeting), bodyHTML)
}

// RenderAccessEmail generates the HTML for the access email sent once an
// order is paid, carrying the single-use invite link.
func RenderAccessEmail(name, inviteURL string) string {
	body := fmt.Sprintf(`<p>Thank you for purchasing access to the Upwork Revolution community!</p>
      <p>You just took a step that can change your freelance career and help you reach a stable income on the western market.</p>
      <p>Here is your invitation to the server:</p>
      <p><a class="button" href="%s">Join the Discord</a></p>
      <p>See you inside Upwork Revolution!</p>`, html.EscapeString(inviteURL))
	return renderEmail("Your Discord Access - Upwork Revolution", "Hi, "+name+"!", body)
}

// RenderPaymentWarningEmail generates the HTML for the renewal warning
// sent when the subscription is approaching its hard expiry.
func RenderPaymentWarningEmail(name string, daysLeft int) string {
	body := fmt.Sprintf(`<p>Your community subscription is approaching its renewal date.</p>
      <p>We have not seen a new payment in a while, and access is removed <strong>%d days</strong> from now unless a renewal goes through.</p>
      <p>If you already renewed, you can safely ignore this message.</p>`, daysLeft)
	return renderEmail("Renewal Reminder - Upwork Revolution", "Hi, "+name+"!", body)
}

// RenderRevocationEmail generates the HTML for the notice sent when an
// expired member is removed from the community.
func RenderRevocationEmail(name string) string {
	body := `<p>Your subscription to the Upwork Revolution community has expired and your access to the Discord server has been removed.</p>
      <p>You are welcome back any time: purchasing a new subscription will send you a fresh invite link.</p>`
	return renderEmail("Subscription Expired - Upwork Revolution", "Hi, "+name+"!", body)
}
