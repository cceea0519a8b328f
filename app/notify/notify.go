// Package notify delivers consumer failures to operator by email
package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/url"
	"os"
	"strings"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/notify"
	"github.com/go-pkgz/syncs"
)

//go:generate moq -out mocks/notifier.go -pkg mocks -skip-ensure -fmt goimports . Notifier

// Notifier is a single delivery channel, same as notify.Notifier
type Notifier interface {
	fmt.Stringer
	Schema() string
	Send(ctx context.Context, destination, text string) error
}

// Service sends notifications to configured destinations
type Service struct {
	destinations  []Notifier
	fromEmail     string
	toEmail       []string
	errorTemplate string
	hostName      string
}

// Params for notification service
type Params struct {
	ErrorTemplate string // path to custom html template, built-in used if empty or broken
	HostName      string
}

// SendersParams configures email sender
type SendersParams struct {
	SMTPParams notify.SMTPParams
	FromEmail  string
	ToEmails   []string
}

// NewService makes notification service, returns nil if no destinations configured
func NewService(p Params, sp SendersParams) *Service {
	if len(sp.ToEmails) == 0 {
		return nil
	}
	res := &Service{
		destinations:  []Notifier{notify.NewEmail(sp.SMTPParams)},
		fromEmail:     sp.FromEmail,
		toEmail:       sp.ToEmails,
		errorTemplate: p.ErrorTemplate,
		hostName:      p.HostName,
	}
	if res.hostName == "" {
		res.hostName, _ = os.Hostname()
	}
	return res
}

// Send subject and text to all destinations with matching schema, concurrently.
// Failed destination doesn't prevent delivery to others, all errors returned.
func (s *Service) Send(ctx context.Context, subj, text string) error {
	dest := fmt.Sprintf("mailto:%s?from=%s&subject=%s", strings.Join(s.toEmail, ","), s.fromEmail, url.QueryEscape(subj))
	gr := syncs.NewErrSizedGroup(max(len(s.destinations), 1))
	for _, d := range s.destinations {
		if !strings.HasPrefix(dest, d.Schema()+":") {
			continue
		}
		gr.Go(func() error {
			if err := d.Send(ctx, dest, text); err != nil {
				return fmt.Errorf("%s: %w", d, err)
			}
			return nil
		})
	}
	return gr.Wait()
}

// MakeErrorHTML creates html body of failure notification
func (s *Service) MakeErrorHTML(queueName, message, errorLog string) (string, error) {
	data := struct {
		Queue   string
		Message string
		TS      time.Time
		Error   string
		Host    string
	}{
		Queue:   queueName,
		Message: message,
		TS:      time.Now(),
		Error:   errorLog,
		Host:    s.hostName,
	}

	tmpl := defaultErrorTemplate
	if s.errorTemplate != "" {
		custom, err := os.ReadFile(s.errorTemplate)
		if err != nil {
			log.Printf("[WARN] can't read error template %s, using default, %v", s.errorTemplate, err)
		} else {
			tmpl = string(custom)
		}
	}

	t, err := template.New("msg").Parse(tmpl)
	if err != nil {
		log.Printf("[WARN] can't parse error template, using default, %v", err)
		t = template.Must(template.New("msg").Parse(defaultErrorTemplate))
	}
	buf := bytes.Buffer{}
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to apply template: %w", err)
	}
	return buf.String(), nil
}

const defaultErrorTemplate = `<!DOCTYPE html>
<html>
	<head>
		<meta name="viewport" content="width=device-width" />
		<meta http-equiv="Content-Type" content="text/html; charset=UTF-8" />
		<style type="text/css">
			body {
				font-family: "Arial";
				font-size: 1.0em;
			}
			pre {
				padding: 0.6em;
				font-size: 0.7em;
				background-color: #E8E2A0;
				font-family: "Menlo";
				overflow-x: auto;
				white-space: pre-wrap;
				word-wrap: break-word;
			}
			.bold {
				color: #882828;
				font-weight: 900;
			}
		</style>
	</head>
	<body>
		<p>Cue consumer failed on <span class="bold">{{.Host}}</span> at {{.TS.Format "2006-01-02T15:04:05Z07:00"}}</p>
		<ul>
			<li>Queue: <span class="bold">{{.Queue}}</span></li>
			<li>Message: <span class="bold">{{.Message}}</span></li>
		</ul>
		<pre>
{{.Error}}
		</pre>
	</body>
</html>
`
