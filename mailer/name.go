package mailer

import "strings"

// RecipientName derives a display name from an email address: the local
// part split on dots, each piece capitalized. "jane.doe@example.com"
// becomes "Jane Doe".
func RecipientName(email string) string {
	local, _, found := strings.Cut(email, "@")
	if !found || local == "" {
		return email
	}
	parts := strings.Split(local, ".")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}
