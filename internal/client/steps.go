package client

// Step is a post-registration call to action.
type Step int

const (
	JoinChatGroup Step = iota
	DownloadApp
	Done
)

func (s Step) String() string {
	switch s {
	case JoinChatGroup:
		return "join_chat_group"
	case DownloadApp:
		return "download_app"
	default:
		return "done"
	}
}

// Links are the destinations offered after a successful registration.
type Links struct {
	ChatGroupURL   string
	AppDownloadURL string
}

// NextSteps walks the attendee through joining the chat group and then
// downloading the app. Either step can be skipped.
type NextSteps struct {
	step     Step
	links    Links
	accepted []Step
}

func newNextSteps(links Links) *NextSteps {
	return &NextSteps{links: links}
}

func (n *NextSteps) Current() Step { return n.step }

// Link returns the URL for the current step, or "" when done.
func (n *NextSteps) Link() string {
	switch n.step {
	case JoinChatGroup:
		return n.links.ChatGroupURL
	case DownloadApp:
		return n.links.AppDownloadURL
	}
	return ""
}

// Advance accepts the current step and returns the link to open.
func (n *NextSteps) Advance() string {
	if n.step == Done {
		return ""
	}
	link := n.Link()
	n.accepted = append(n.accepted, n.step)
	n.step++
	return link
}

// Skip moves past the current step without opening its link.
func (n *NextSteps) Skip() {
	if n.step != Done {
		n.step++
	}
}

// Accepted lists the steps the attendee chose to follow.
func (n *NextSteps) Accepted() []Step { return n.accepted }
