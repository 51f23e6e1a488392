package application

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/foodgram/config"
	"github.com/oksasatya/foodgram/internal/domain/entity"
	"github.com/oksasatya/foodgram/pkg/mailer"
	mailtpl "github.com/oksasatya/foodgram/pkg/mailer/templates"
)

// Publisher puts one JSON message on the email queue.
type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// Notifier enqueues email jobs in the background so requests never wait on the broker.
// A nil Notifier, or one without a publisher, does nothing.
type Notifier struct {
	Pub    Publisher
	Cfg    *config.Config
	Logger *logrus.Logger

	wg sync.WaitGroup
}

func NewNotifier(pub Publisher, cfg *config.Config, logger *logrus.Logger) *Notifier {
	return &Notifier{Pub: pub, Cfg: cfg, Logger: logger}
}

func (n *Notifier) enabled() bool {
	return n != nil && n.Pub != nil && n.Cfg != nil && n.Cfg.MailSendEnabled
}

// Wait blocks until every queued publish has finished.
func (n *Notifier) Wait() {
	if n != nil {
		n.wg.Wait()
	}
}

// send publishes jobs in order from a goroutine. The request context only contributes its values.
func (n *Notifier) send(ctx context.Context, jobs ...mailer.EmailJob) {
	ctx = context.WithoutCancel(ctx)
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		for _, job := range jobs {
			n.publish(ctx, job)
		}
	}()
}

func (n *Notifier) publish(ctx context.Context, job mailer.EmailJob) {
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := n.Pub.PublishJSON(c, job); err != nil && n.Logger != nil {
		n.Logger.WithError(err).WithFields(logrus.Fields{"template": job.Template, "to": job.To}).Warn("publish email job failed")
	}
}

// Welcome enqueues the registration email.
func (n *Notifier) Welcome(ctx context.Context, u *entity.User) {
	if !n.enabled() {
		return
	}
	n.send(ctx, mailer.EmailJob{
		To:       u.Email,
		Template: mailtpl.Welcome,
		Data:     mailtpl.NewWelcomeData(n.Cfg, displayName(u), u.Email),
	})
}

// NewRecipe enqueues one email per follower of the recipe's author.
func (n *Notifier) NewRecipe(ctx context.Context, author *entity.User, rec *entity.Recipe, followers []entity.User) {
	if !n.enabled() || len(followers) == 0 {
		return
	}
	jobs := make([]mailer.EmailJob, 0, len(followers))
	for i := range followers {
		f := &followers[i]
		jobs = append(jobs, mailer.EmailJob{
			To:       f.Email,
			Template: mailtpl.NewRecipe,
			Data:     mailtpl.NewRecipeData(n.Cfg, displayName(f), f.Email, displayName(author), rec.ID, rec.Name),
		})
	}
	n.send(ctx, jobs...)
}

func displayName(u *entity.User) string {
	if full := strings.TrimSpace(u.FirstName + " " + u.LastName); full != "" {
		return full
	}
	return u.Username
}
