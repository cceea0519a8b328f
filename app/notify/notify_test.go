package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/cue/app/notify/mocks"
)

func TestService_EmptyDestinations(t *testing.T) {
	svc := NewService(Params{}, SendersParams{})
	require.Nil(t, svc)
}

func TestMakeErrorHTMLDefault(t *testing.T) {
	svc := NewService(Params{HostName: "host1"}, SendersParams{ToEmails: []string{"test@example.com"}})
	require.NotNil(t, svc)
	res, err := svc.MakeErrorHTML("emails", `send:{"id":1}`, "command send failed: boom")
	require.NoError(t, err)
	assert.Contains(t, res, `<li>Queue: <span class="bold">emails</span></li>`)
	assert.Contains(t, res, `<li>Message: <span class="bold">send:{&#34;id&#34;:1}</span></li>`)
	assert.Contains(t, res, `Cue consumer failed on <span class="bold">host1</span>`)
	assert.Contains(t, res, "command send failed: boom")
}

func TestMakeErrorHTMLCustom(t *testing.T) {
	svc := NewService(Params{ErrorTemplate: "testdata/err.tmpl"}, SendersParams{ToEmails: []string{"test@example.com"}})
	require.NotNil(t, svc)
	res, err := svc.MakeErrorHTML("emails", "send:1", "some log")
	require.NoError(t, err)
	assert.Equal(t, "Queue failed: emails\nMessage: send:1\nsome log\n", res)

	svc = NewService(Params{ErrorTemplate: "testdata/err-bad.tmpl"}, SendersParams{ToEmails: []string{"test@example.com"}})
	res, err = svc.MakeErrorHTML("emails", "send:1", "some log")
	require.NoError(t, err)
	assert.Contains(t, res, `<li>Queue: <span class="bold">emails</span></li>`, "default template used")

	svc = NewService(Params{ErrorTemplate: "testdata/no-such.tmpl"}, SendersParams{ToEmails: []string{"test@example.com"}})
	res, err = svc.MakeErrorHTML("emails", "send:1", "some log")
	require.NoError(t, err)
	assert.Contains(t, res, "Cue consumer failed")
}

func TestService_Send(t *testing.T) {
	tests := []struct {
		name           string
		subj           string
		text           string
		destination    string
		mockSendErr    error
		expectedErrMsg string
	}{
		{
			name:        "successful send",
			subj:        "Test Subject",
			text:        "Test Text",
			destination: "mailto:to@example.com,to2@example.com?from=from@example.com&subject=Test+Subject",
		},
		{
			name:           "send error",
			subj:           "Problem Subject",
			text:           "Problem Text",
			destination:    "mailto:to@example.com,to2@example.com?from=from@example.com&subject=Problem+Subject",
			mockSendErr:    errors.New("mock error"),
			expectedErrMsg: "email: mock error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mailtoNotifier := &mocks.NotifierMock{
				SendFunc: func(_ context.Context, dest string, text string) error {
					assert.Equal(t, tt.text, text)
					assert.Equal(t, tt.destination, dest)
					return tt.mockSendErr
				},
				SchemaFunc: func() string { return "mailto" },
				StringFunc: func() string { return "email" },
			}
			otherNotifier := &mocks.NotifierMock{SchemaFunc: func() string { return "slack" }}

			s := Service{
				destinations: []Notifier{otherNotifier, mailtoNotifier},
				fromEmail:    "from@example.com",
				toEmail:      []string{"to@example.com", "to2@example.com"},
			}

			err := s.Send(context.Background(), tt.subj, tt.text)
			assert.Len(t, mailtoNotifier.SendCalls(), 1)
			assert.Empty(t, otherNotifier.SendCalls(), "schema doesn't match")
			if tt.expectedErrMsg == "" {
				require.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.expectedErrMsg)
			}
		})
	}
}

func TestService_SendAllDestinations(t *testing.T) {
	failed := &mocks.NotifierMock{
		SendFunc:   func(context.Context, string, string) error { return errors.New("smtp down") },
		SchemaFunc: func() string { return "mailto" },
		StringFunc: func() string { return "primary" },
	}
	backup := &mocks.NotifierMock{
		SendFunc:   func(context.Context, string, string) error { return nil },
		SchemaFunc: func() string { return "mailto" },
		StringFunc: func() string { return "backup" },
	}
	s := Service{destinations: []Notifier{failed, backup}, fromEmail: "from@example.com", toEmail: []string{"to@example.com"}}

	err := s.Send(context.Background(), "subj", "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "primary: smtp down")
	assert.Len(t, failed.SendCalls(), 1)
	assert.Len(t, backup.SendCalls(), 1, "delivered to backup despite primary failure")
}
