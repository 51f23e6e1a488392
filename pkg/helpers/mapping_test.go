package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oksasatya/foodgram/pkg/mailer"
)

func TestPrepareEmailJob(t *testing.T) {
	job := mailer.EmailJob{To: "ann@example.com", Data: map[string]any{"AppName": "recipes", "SiteURL": " "}}

	PrepareEmailJob(&job, "foodgram", "https://food.test")

	assert.Equal(t, "ann@example.com", job.Data["Email"])
	assert.Equal(t, "ann@example.com", job.Data["RecipientEmail"])
	assert.Equal(t, "recipes", job.Data["AppName"])
	assert.Equal(t, "https://food.test", job.Data["SiteURL"])
}

func TestPrepareEmailJobNilData(t *testing.T) {
	job := mailer.EmailJob{To: "bob@example.com"}
	PrepareEmailJob(&job, "foodgram", "")
	assert.Equal(t, "bob@example.com", job.Data["Email"])
}
