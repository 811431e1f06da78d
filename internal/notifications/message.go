package notifications

import (
	"fmt"
	"strings"

	"github.com/paperpaper/catalog/internal/entities"
)

// Message is a plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

const bodyTemplate = `Hello %s,

A new article of yours has been added to PaperPaper:

Title: %s
Event: %s
Year: %d
Authors: %s

You can view the article at: %s

Best regards,
The PaperPaper team
`

// ArticleURL is the absolute public address of an article.
func ArticleURL(baseURL string, articleID uint) string {
	return fmt.Sprintf("%s/articles/%d", strings.TrimRight(baseURL, "/"), articleID)
}

// ComposeMessage renders the notification for one subscription. The article
// must have its edition, event and authors loaded.
func ComposeMessage(sub entities.NotificationSubscription, article *entities.Article, baseURL string) Message {
	return Message{
		To:      sub.Email,
		Subject: "New article available: " + article.Title,
		Body: fmt.Sprintf(bodyTemplate,
			sub.FullName,
			article.Title,
			article.Edition.Event.Name,
			article.Edition.Year,
			article.AuthorsString(),
			ArticleURL(baseURL, article.ID),
		),
	}
}
