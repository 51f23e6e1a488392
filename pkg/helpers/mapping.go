package helpers

import (
	"fmt"
	"strings"

	"github.com/oksasatya/foodgram/pkg/mailer"
)

// PrepareEmailJob fills the template fields a publisher may have left out.
// Recipient fields come from job.To; AppName and SiteURL come from the worker's config.
func PrepareEmailJob(job *mailer.EmailJob, appName, siteURL string) {
	if job.Data == nil {
		job.Data = map[string]any{}
	}
	fill := func(key, value string) {
		if v, ok := job.Data[key]; !ok || v == nil || strings.TrimSpace(fmt.Sprintf("%v", v)) == "" {
			job.Data[key] = value
		}
	}
	fill("Email", job.To)
	fill("RecipientEmail", job.To)
	fill("AppName", appName)
	fill("SiteURL", siteURL)
}
