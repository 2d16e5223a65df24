package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"strings"

	"github.com/wneessen/go-mail"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"

	"github.com/major/arxivwatch/internal/config"
	"github.com/major/arxivwatch/internal/domain"
	"github.com/major/arxivwatch/internal/ports"
)

// Notifier delivers one email per summarized paper over SMTP. The mail
// is multipart/alternative: a plain-text body plus an HTML body where
// the markdown summary is rendered.
type Notifier struct {
	host     string
	port     int
	username string
	password string
	from     string
	to       []string
	markdown goldmark.Markdown
	logger   *slog.Logger
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier wires SMTP settings from configuration.
func NewNotifier(cfg config.SMTPConfig, logger *slog.Logger) *Notifier {
	return &Notifier{
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.Username,
		password: cfg.Password,
		from:     cfg.From,
		to:       cfg.To,
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(htmlrenderer.WithHardWraps()),
		),
		logger: logger,
	}
}

// Notify builds and submits the notification mail for one paper. No
// durable state is touched here.
func (n *Notifier) Notify(ctx context.Context, paper domain.Paper, summary domain.Summary) error {
	msg := mail.NewMsg()
	if err := msg.From(n.from); err != nil {
		return fmt.Errorf("%w: from address %s: %v", domain.ErrDelivery, n.from, err)
	}
	if err := msg.To(n.to...); err != nil {
		return fmt.Errorf("%w: recipient addresses: %v", domain.ErrDelivery, err)
	}
	msg.Subject(paper.Title)
	msg.SetBodyString(mail.TypeTextPlain, textBody(paper, summary))

	html, err := n.htmlBody(paper, summary)
	if err != nil {
		return fmt.Errorf("%w: render html body for %s: %v", domain.ErrDelivery, paper.ID, err)
	}
	msg.AddAlternativeString(mail.TypeTextHTML, html)

	client, err := mail.NewClient(n.host,
		mail.WithPort(n.port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(n.username),
		mail.WithPassword(n.password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return fmt.Errorf("%w: smtp client: %v", domain.ErrDelivery, err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("%w: send mail for %s: %v", domain.ErrDelivery, paper.ID, err)
	}

	if n.logger != nil {
		n.logger.Info("sent email notification",
			"paper_id", paper.ID,
			"recipient_count", len(n.to),
		)
	}
	return nil
}

func textBody(paper domain.Paper, summary domain.Summary) string {
	return fmt.Sprintf(`New arXiv Paper: %s

Authors: %s
Published: %s

Summary:
%s

Read the full paper: %s
`,
		paper.Title,
		authorsLine(paper),
		paper.PublishedAt.Format("Mon, 02 Jan 2006 15:04:05 MST"),
		summary.Text,
		paper.AbstractURL,
	)
}

func (n *Notifier) htmlBody(paper domain.Paper, summary domain.Summary) (string, error) {
	var rendered bytes.Buffer
	if err := n.markdown.Convert([]byte(summary.Text), &rendered); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}

	var out bytes.Buffer
	err := htmlTemplate.Execute(&out, struct {
		Title     string
		Authors   string
		Published string
		Summary   template.HTML
		Link      string
	}{
		Title:     paper.Title,
		Authors:   authorsLine(paper),
		Published: paper.PublishedAt.Format("Mon, 02 Jan 2006 15:04:05 MST"),
		Summary:   template.HTML(rendered.String()),
		Link:      paper.AbstractURL,
	})
	if err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}
	return out.String(), nil
}

func authorsLine(paper domain.Paper) string {
	if len(paper.Authors) == 0 {
		return "Unknown"
	}
	return strings.Join(paper.Authors, ", ")
}

var htmlTemplate = template.Must(template.New("notification").Parse(`<!DOCTYPE html>
<html>
<head>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;
            line-height: 1.6;
            color: #333;
            max-width: 800px;
            margin: 0 auto;
            padding: 20px;
        }
        .header {
            background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
            color: white;
            padding: 30px;
            border-radius: 10px;
            margin-bottom: 30px;
        }
        .header h1 {
            margin: 0 0 15px 0;
            font-size: 24px;
            font-weight: 600;
        }
        .metadata {
            font-size: 14px;
            opacity: 0.95;
        }
        .metadata p {
            margin: 5px 0;
        }
        .summary {
            background: #f8f9fa;
            padding: 25px;
            border-radius: 8px;
            border-left: 4px solid #667eea;
            margin: 20px 0;
        }
        .summary h2 {
            margin-top: 0;
            color: #667eea;
            font-size: 20px;
        }
        .summary h3, .summary h4 {
            color: #667eea;
            margin: 20px 0 10px 0;
        }
        .summary p {
            margin: 15px 0;
            line-height: 1.8;
        }
        .summary ul, .summary ol {
            margin: 15px 0;
            padding-left: 25px;
            line-height: 1.8;
        }
        .summary li {
            margin: 8px 0;
        }
        .summary code {
            background: #e9ecef;
            padding: 2px 6px;
            border-radius: 3px;
            font-family: 'Courier New', monospace;
            font-size: 0.9em;
        }
        .summary pre {
            background: #e9ecef;
            padding: 15px;
            border-radius: 5px;
            overflow-x: auto;
            line-height: 1.5;
        }
        .summary blockquote {
            border-left: 3px solid #667eea;
            padding-left: 15px;
            margin: 15px 0;
            color: #666;
            font-style: italic;
        }
        .link {
            margin-top: 30px;
            text-align: center;
        }
        .link a {
            display: inline-block;
            background: #667eea;
            color: white;
            padding: 12px 30px;
            text-decoration: none;
            border-radius: 6px;
            font-weight: 500;
        }
    </style>
</head>
<body>
    <div class="header">
        <h1>{{.Title}}</h1>
        <div class="metadata">
            <p><strong>Authors:</strong> {{.Authors}}</p>
            <p><strong>Published:</strong> {{.Published}}</p>
        </div>
    </div>

    <div class="summary">
        <h2>Summary</h2>
        {{.Summary}}
    </div>

    <div class="link">
        <a href="{{.Link}}">Read Full Paper on arXiv</a>
    </div>
</body>
</html>
`))
