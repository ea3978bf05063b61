package meetup

import "testing"

func TestRenderPullRequestBody(t *testing.T) {
	t.Parallel()

	got := RenderPullRequestBody(sampleMeetup(), 42)

	want := `New meetup

Date:
2024-03-01T18:30:00Z

Organizer:
[Jane](https://example.com/jane)

Location:
[123 Main St](https://maps.example/x)

Closes #42`

	if got != want {
		t.Errorf("RenderPullRequestBody() =\n%s\nwant\n%s", got, want)
	}
}
