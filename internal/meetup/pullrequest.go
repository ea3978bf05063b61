package meetup

import (
	"fmt"
	"time"

	"github.com/meetupbot/meetupbot/internal/model"
)

// RenderPullRequestBody renders the description of the pull request that
// publishes m and closes its issue.
func RenderPullRequestBody(m *model.Meetup, issueNumber int) string {
	return fmt.Sprintf(`New meetup

Date:
%s

Organizer:
[%s](%s)

Location:
[%s](%s)

Closes #%d`,
		m.Date.UTC().Format(time.RFC3339),
		m.Organizer, m.OrganizerLink,
		m.Location, m.LocationLink,
		issueNumber,
	)
}
